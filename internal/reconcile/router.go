package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rjinka/family-potluck/internal/models"
	"github.com/rjinka/family-potluck/internal/notify"
	"github.com/rjinka/family-potluck/internal/realtime"
)

// flexID decodes a JSON id that may arrive as a string or a number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

// eventRef returns the event id a payload refers to: event_id when present
// (deletion payloads carry only that), otherwise the object's own id.
func (e envelope) eventRef() flexID {
	if e.EventID != "" {
		return e.EventID
	}
	return e.ID
}

// envelope holds the fields the router itself needs from a push payload.
// Handlers that need the full object decode it again themselves.
type envelope struct {
	ID          flexID `json:"id"`
	EventID     flexID `json:"event_id"`
	GroupID     flexID `json:"group_id"`
	DishID      flexID `json:"dish_id"`
	DishName    string `json:"dish_name"`
	BringerName string `json:"bringer_name"`
	FamilyName  string `json:"family_name"`
	Status      string `json:"status"`
}

// reaction handles one push message type against the attached views.
type reaction func(env envelope, data json.RawMessage)

// Router receives decoded push messages and drives the attached views.
// It is the only place message types are interpreted; views never see
// raw messages.
type Router struct {
	notifier notify.Notifier
	logger   *logrus.Logger
	debounce time.Duration

	mu        sync.RWMutex
	dashboard *DashboardView
	views     map[string]*EventView

	reactions map[string]reaction

	// rsvpTimers holds the pending debounced RSVP refresh per event, so a
	// burst for one event cannot cancel another event's refresh.
	rsvpMu     sync.Mutex
	rsvpTimers map[string]*time.Timer
}

// NewRouter builds the router with its full message table. Attach views
// before the channel starts delivering.
func NewRouter(notifier notify.Notifier, debounce time.Duration, logger *logrus.Logger) *Router {
	r := &Router{
		notifier:   notifier,
		logger:     logger,
		debounce:   debounce,
		views:      make(map[string]*EventView),
		rsvpTimers: make(map[string]*time.Timer),
	}
	r.reactions = map[string]reaction{
		"event_created":        r.onEventCreated,
		"event_updated":        r.onEventUpdated,
		"event_deleted":        r.onEventDeleted,
		"rsvp_updated":         r.onRSVPUpdated,
		"dish_added":           r.onDishAdded,
		"dish_pledged":         r.onDishPledged,
		"dish_unpledged":       r.onDishUnpledged,
		"dish_deleted":         r.onDishDeleted,
		"swap_created":         r.onSwapCreated,
		"swap_updated":         r.onSwapUpdated,
		"suggestions_started":  r.onSuggestionsStarted,
		"suggestions_finished": r.onSuggestionsFinished,
	}
	return r
}

// AttachDashboard registers the dashboard as a refresh target.
func (r *Router) AttachDashboard(v *DashboardView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dashboard = v
}

// AttachEventView registers an open event detail screen.
func (r *Router) AttachEventView(v *EventView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[v.EventID()] = v
}

// DetachEventView unregisters a closed event detail screen.
func (r *Router) DetachEventView(eventID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, eventID)
}

// HandleMessage implements realtime.Handler.
func (r *Router) HandleMessage(msg realtime.Message) {
	react, ok := r.reactions[msg.Type]
	if !ok {
		r.logger.WithField("type", msg.Type).Debug("Ignoring unknown message type")
		return
	}

	var env envelope
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			r.logger.WithFields(logrus.Fields{
				"type":  msg.Type,
				"error": err,
			}).Warn("Failed to decode message payload")
			return
		}
	}

	r.logger.WithFields(logrus.Fields{
		"type":     msg.Type,
		"event_id": env.EventID.String(),
	}).Debug("Routing push message")

	react(env, msg.Data)
}

// viewFor returns the attached detail view for an event, nil if none is open.
func (r *Router) viewFor(eventID flexID) *EventView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.views[string(eventID)]
}

// refreshDashboard applies the dashboard relevance tests: the pushed group
// must be the displayed one for a group-event refresh, and the pushed event
// must be a tracked guest event for a guest-list refresh.
func (r *Router) refreshDashboard(ctx context.Context, groupID, eventID flexID) {
	r.mu.RLock()
	d := r.dashboard
	r.mu.RUnlock()
	if d == nil {
		return
	}
	if string(groupID) == d.GroupID() {
		d.RefreshGroupEvents(ctx)
	}
	if d.TracksGuestEvent(string(eventID)) {
		d.RefreshGuestEvents(ctx)
	}
}

// ---------------------------------------------------------------------------
// Reactions
// ---------------------------------------------------------------------------

func (r *Router) onEventCreated(env envelope, _ json.RawMessage) {
	r.refreshDashboard(context.Background(), env.GroupID, env.eventRef())
}

func (r *Router) onEventUpdated(env envelope, _ json.RawMessage) {
	ctx := context.Background()
	r.refreshDashboard(ctx, env.GroupID, env.eventRef())
	if v := r.viewFor(env.eventRef()); v != nil {
		v.RefreshEvent(ctx)
		r.notifier.Notify("Event details updated", notify.LevelInfo)
	}
}

func (r *Router) onEventDeleted(env envelope, _ json.RawMessage) {
	r.refreshDashboard(context.Background(), env.GroupID, env.eventRef())
}

// onRSVPUpdated coalesces the bursts the backend emits when one reply
// fans out, waiting the debounce window before one re-fetch.
func (r *Router) onRSVPUpdated(env envelope, _ json.RawMessage) {
	v := r.viewFor(env.EventID)
	if v == nil {
		return
	}

	if env.FamilyName != "" && env.Status != "" {
		r.notifier.Notify(fmt.Sprintf("%s RSVP'd %s", env.FamilyName, env.Status), notify.LevelInfo)
	}

	eventID := string(env.EventID)
	r.rsvpMu.Lock()
	defer r.rsvpMu.Unlock()
	if t := r.rsvpTimers[eventID]; t != nil {
		t.Stop()
	}
	r.rsvpTimers[eventID] = time.AfterFunc(r.debounce, func() {
		if view := r.viewFor(flexID(eventID)); view != nil {
			view.RefreshRSVPs(context.Background())
		}
	})
}

// onDishAdded patches the snapshot directly from the payload; a pushed
// dish carries the full object, so no fetch is needed.
func (r *Router) onDishAdded(env envelope, data json.RawMessage) {
	v := r.viewFor(env.EventID)
	if v == nil {
		return
	}
	var dish models.Dish
	if err := json.Unmarshal(data, &dish); err != nil {
		r.logger.WithError(err).Warn("Failed to decode pushed dish")
		return
	}
	if v.InsertDish(dish) {
		r.notifier.Notify(fmt.Sprintf("New dish added: %s", dish.Name), notify.LevelInfo)
	}
}

func (r *Router) onDishPledged(env envelope, _ json.RawMessage) {
	v := r.viewFor(env.EventID)
	if v == nil {
		return
	}
	if env.BringerName != "" && env.DishName != "" {
		r.notifier.Notify(fmt.Sprintf("%s is bringing %s!", env.BringerName, env.DishName), notify.LevelInfo)
	}
	v.RefreshDishes(context.Background())
}

func (r *Router) onDishUnpledged(env envelope, _ json.RawMessage) {
	v := r.viewFor(env.EventID)
	if v == nil {
		return
	}
	if env.DishName != "" {
		r.notifier.Notify(fmt.Sprintf("%s needs a new volunteer", env.DishName), notify.LevelInfo)
	}
	v.RefreshDishes(context.Background())
}

func (r *Router) onDishDeleted(env envelope, _ json.RawMessage) {
	v := r.viewFor(env.EventID)
	if v == nil {
		return
	}
	v.RefreshDishes(context.Background())
}

func (r *Router) onSwapCreated(env envelope, _ json.RawMessage) {
	v := r.viewFor(env.EventID)
	if v == nil {
		return
	}
	r.notifier.Notify("New swap request", notify.LevelInfo)
	ctx := context.Background()
	v.RefreshSwaps(ctx)
	v.RefreshDishes(ctx)
}

func (r *Router) onSwapUpdated(env envelope, _ json.RawMessage) {
	v := r.viewFor(env.EventID)
	if v == nil {
		return
	}
	r.notifier.Notify("Swap request updated", notify.LevelInfo)
	ctx := context.Background()
	v.RefreshSwaps(ctx)
	v.RefreshDishes(ctx)
	v.RefreshEvent(ctx)
}

func (r *Router) onSuggestionsStarted(env envelope, _ json.RawMessage) {
	v := r.viewFor(env.EventID)
	if v == nil {
		return
	}
	v.SetSuggesting(true)
	r.notifier.Notify("Generating dish suggestions...", notify.LevelInfo)
}

func (r *Router) onSuggestionsFinished(env envelope, _ json.RawMessage) {
	v := r.viewFor(env.EventID)
	if v == nil {
		return
	}
	v.SetSuggesting(false)
	v.RefreshDishes(context.Background())
}

var _ realtime.Handler = (*Router)(nil)
