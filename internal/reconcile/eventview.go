package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/rjinka/family-potluck/internal/metrics"
	"github.com/rjinka/family-potluck/internal/models"
	"github.com/rjinka/family-potluck/internal/notify"
	"github.com/rjinka/family-potluck/internal/rest"
	"github.com/rjinka/family-potluck/internal/summary"
)

// EventView mirrors one event's detail screen: the event itself, its
// RSVPs, dishes, swap requests, group members, and hosting stats. All
// collections are fetch-only full replacements except two documented
// optimistic paths: the dish_added fast-path insert and the user's own
// just-submitted RSVP status.
type EventView struct {
	api      API
	notifier notify.Notifier
	logger   *logrus.Logger
	user     *models.FamilyMember
	eventID  string

	mu       sync.RWMutex
	event    *models.Event
	rsvps    []models.RSVP
	dishes   []models.Dish
	swaps    []models.SwapRequest
	members  []models.FamilyMember
	stats    *models.EventStats
	myStatus models.RSVPStatus

	// suggesting tracks the backend's AI dish-suggestion run.
	suggesting *atomic.Bool
	closed     *atomic.Bool

	eventGen  *atomic.Int64
	rsvpGen   *atomic.Int64
	dishGen   *atomic.Int64
	swapGen   *atomic.Int64
	memberGen *atomic.Int64
	statsGen  *atomic.Int64
}

// NewEventView creates the synchronizer for one event's detail screen.
func NewEventView(api API, user *models.FamilyMember, eventID string, notifier notify.Notifier, logger *logrus.Logger) *EventView {
	return &EventView{
		api:        api,
		notifier:   notifier,
		logger:     logger,
		user:       user,
		eventID:    eventID,
		suggesting: atomic.NewBool(false),
		closed:     atomic.NewBool(false),
		eventGen:   atomic.NewInt64(0),
		rsvpGen:    atomic.NewInt64(0),
		dishGen:    atomic.NewInt64(0),
		swapGen:    atomic.NewInt64(0),
		memberGen:  atomic.NewInt64(0),
		statsGen:   atomic.NewInt64(0),
	}
}

// Close marks the view dead; in-flight fetch results are dropped.
func (v *EventView) Close() {
	v.closed.Store(true)
}

// EventID returns the displayed event's id.
func (v *EventView) EventID() string {
	return v.eventID
}

// Event returns the current event snapshot, nil before the first fetch.
func (v *EventView) Event() *models.Event {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.event == nil {
		return nil
	}
	e := *v.event
	return &e
}

// RSVPs returns the current RSVP snapshot.
func (v *EventView) RSVPs() []models.RSVP {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.RSVP, len(v.rsvps))
	copy(out, v.rsvps)
	return out
}

// Dishes returns the current dish snapshot.
func (v *EventView) Dishes() []models.Dish {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Dish, len(v.dishes))
	copy(out, v.dishes)
	return out
}

// SwapRequests returns the current swap request snapshot.
func (v *EventView) SwapRequests() []models.SwapRequest {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.SwapRequest, len(v.swaps))
	copy(out, v.swaps)
	return out
}

// ActiveSwapRequests returns the pending requests that concern the user:
// targeted at them, raised by them, or open offers from someone else.
func (v *EventView) ActiveSwapRequests() []models.SwapRequest {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []models.SwapRequest
	for _, s := range v.swaps {
		if s.ConcernsFamily(v.user.ID) {
			out = append(out, s)
		}
	}
	return out
}

// Members returns the event's group membership snapshot.
func (v *EventView) Members() []models.FamilyMember {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.FamilyMember, len(v.members))
	copy(out, v.members)
	return out
}

// Stats returns the hosting statistics snapshot, nil before the first fetch.
func (v *EventView) Stats() *models.EventStats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stats
}

// MyStatus returns the user's RSVP status as currently displayed. It is
// overwritten optimistically on submit and reconciled on every RSVP fetch.
func (v *EventView) MyStatus() models.RSVPStatus {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.myStatus
}

// Suggesting reports whether the backend is generating dish suggestions.
func (v *EventView) Suggesting() bool {
	return v.suggesting.Load()
}

// SetSuggesting toggles the suggestion-in-progress indicator.
func (v *EventView) SetSuggesting(on bool) {
	v.suggesting.Store(on)
}

// Summary computes the host summary over the current snapshots.
func (v *EventView) Summary() *summary.HostSummary {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return summary.Build(v.rsvps, v.dishes)
}

// ---------------------------------------------------------------------------
// Refreshers
// ---------------------------------------------------------------------------

// RefreshAll refreshes every collection on the screen, aggregating
// failures. Members refresh is skipped until the event (and so its group)
// is known.
func (v *EventView) RefreshAll(ctx context.Context) error {
	var result *multierror.Error
	if err := v.RefreshEvent(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := v.RefreshRSVPs(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := v.RefreshDishes(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := v.RefreshSwaps(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := v.RefreshMembers(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// RefreshEvent re-fetches the event detail.
func (v *EventView) RefreshEvent(ctx context.Context) error {
	gen := v.eventGen.Inc()
	metrics.Refreshes.WithLabelValues("event").Inc()

	event, err := v.api.Event(ctx, v.eventID)
	if err != nil {
		metrics.RefreshFailures.WithLabelValues("event").Inc()
		v.logger.WithError(err).Error("Failed to fetch event details")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() || gen != v.eventGen.Load() {
		return nil
	}
	v.event = event
	return nil
}

// RefreshRSVPs re-fetches the RSVP list and reconciles the user's own
// status from it.
func (v *EventView) RefreshRSVPs(ctx context.Context) error {
	gen := v.rsvpGen.Inc()
	metrics.Refreshes.WithLabelValues("rsvps").Inc()

	rsvps, err := v.api.RSVPs(ctx, v.eventID)
	if err != nil {
		metrics.RefreshFailures.WithLabelValues("rsvps").Inc()
		v.logger.WithError(err).Error("Failed to fetch RSVPs")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() || gen != v.rsvpGen.Load() {
		return nil
	}
	v.rsvps = rsvps
	for _, r := range rsvps {
		if r.FamilyID == v.user.ID {
			v.myStatus = r.Status
			break
		}
	}
	return nil
}

// RefreshDishes re-fetches the dish list.
func (v *EventView) RefreshDishes(ctx context.Context) error {
	gen := v.dishGen.Inc()
	metrics.Refreshes.WithLabelValues("dishes").Inc()

	dishes, err := v.api.Dishes(ctx, v.eventID)
	if err != nil {
		metrics.RefreshFailures.WithLabelValues("dishes").Inc()
		v.logger.WithError(err).Error("Failed to fetch dishes")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() || gen != v.dishGen.Load() {
		return nil
	}
	v.dishes = dishes
	return nil
}

// RefreshSwaps re-fetches the swap request list.
func (v *EventView) RefreshSwaps(ctx context.Context) error {
	gen := v.swapGen.Inc()
	metrics.Refreshes.WithLabelValues("swaps").Inc()

	swaps, err := v.api.Swaps(ctx, v.eventID)
	if err != nil {
		metrics.RefreshFailures.WithLabelValues("swaps").Inc()
		v.logger.WithError(err).Error("Failed to fetch swap requests")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() || gen != v.swapGen.Load() {
		return nil
	}
	v.swaps = swaps
	return nil
}

// RefreshMembers re-fetches the event's group membership. A no-op until
// the event detail has loaded.
func (v *EventView) RefreshMembers(ctx context.Context) error {
	v.mu.RLock()
	var groupID string
	if v.event != nil {
		groupID = v.event.GroupID
	}
	v.mu.RUnlock()
	if groupID == "" {
		return nil
	}

	gen := v.memberGen.Inc()
	metrics.Refreshes.WithLabelValues("members").Inc()

	members, err := v.api.GroupMembers(ctx, groupID)
	if err != nil {
		metrics.RefreshFailures.WithLabelValues("members").Inc()
		v.logger.WithError(err).Error("Failed to fetch group members")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() || gen != v.memberGen.Load() {
		return nil
	}
	v.members = members
	return nil
}

// RefreshStats re-fetches the hosting statistics for the series.
func (v *EventView) RefreshStats(ctx context.Context) error {
	gen := v.statsGen.Inc()
	metrics.Refreshes.WithLabelValues("stats").Inc()

	stats, err := v.api.EventStats(ctx, v.eventID)
	if err != nil {
		metrics.RefreshFailures.WithLabelValues("stats").Inc()
		v.logger.WithError(err).Error("Failed to fetch event stats")
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() || gen != v.statsGen.Load() {
		return nil
	}
	v.stats = stats
	return nil
}

// InsertDish appends a pushed dish to the local snapshot if its id is not
// already present. Returns true when the dish was inserted. This is the
// one fast-path that patches instead of re-fetching.
func (v *EventView) InsertDish(dish models.Dish) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() {
		return false
	}
	for _, d := range v.dishes {
		if d.ID == dish.ID {
			return false
		}
	}
	v.dishes = append(v.dishes, dish)
	return true
}

// ---------------------------------------------------------------------------
// User actions
// ---------------------------------------------------------------------------

// SubmitRSVP upserts the user's reply. The displayed status is overwritten
// optimistically; the follow-up fetch reconciles against the server.
func (v *EventView) SubmitRSVP(ctx context.Context, status models.RSVPStatus, count, kidsCount int) error {
	err := v.api.SubmitRSVP(ctx, rest.RSVPRequest{
		EventID:   v.eventID,
		FamilyID:  v.user.ID,
		Status:    status,
		Count:     count,
		KidsCount: kidsCount,
	})
	if err != nil {
		v.notifier.Notify("Failed to update RSVP", notify.LevelError)
		return err
	}

	v.mu.Lock()
	v.myStatus = status
	v.mu.Unlock()

	v.notifier.Notify("RSVP updated: "+string(status), notify.LevelSuccess)
	return v.RefreshRSVPs(ctx)
}

// AddDish creates a dish on the event: a pledge by the user, or an open
// request when request is true.
func (v *EventView) AddDish(ctx context.Context, name, description string, tags []string, request bool) error {
	var bringer *string
	if !request {
		bringer = &v.user.ID
	}
	_, err := v.api.AddDish(ctx, rest.AddDishRequest{
		EventID:     v.eventID,
		Name:        name,
		Description: description,
		DietaryTags: tags,
		BringerID:   bringer,
		IsRequested: request,
	})
	if err != nil {
		v.notifier.Notify("Failed to add dish", notify.LevelError)
		return err
	}
	v.notifier.Notify("Dish added successfully!", notify.LevelSuccess)
	return v.RefreshDishes(ctx)
}

// PledgeDish claims an unclaimed dish for the user.
func (v *EventView) PledgeDish(ctx context.Context, dishID string) error {
	if err := v.api.PledgeDish(ctx, dishID, v.user.ID); err != nil {
		v.notifier.Notify("Failed to pledge dish", notify.LevelError)
		return err
	}
	return v.RefreshDishes(ctx)
}

// UnpledgeDish releases a dish the user had claimed.
func (v *EventView) UnpledgeDish(ctx context.Context, dishID string) error {
	if err := v.api.UnpledgeDish(ctx, dishID); err != nil {
		v.notifier.Notify("Failed to unpledge dish", notify.LevelError)
		return err
	}
	return v.RefreshDishes(ctx)
}

// DeleteDish removes a dish from the event.
func (v *EventView) DeleteDish(ctx context.Context, dishID string) error {
	if err := v.api.DeleteDish(ctx, dishID); err != nil {
		v.notifier.Notify("Failed to delete dish", notify.LevelError)
		return err
	}
	return v.RefreshDishes(ctx)
}

// RequestDishSwap opens a swap on a dish: an open offer when it is the
// user's own dish, otherwise a request targeted at its bringer.
func (v *EventView) RequestDishSwap(ctx context.Context, dish models.Dish) error {
	ownDish := dish.BringerID != nil && *dish.BringerID == v.user.ID
	var target *string
	if !ownDish {
		target = dish.BringerID
	}
	err := v.api.CreateSwap(ctx, rest.CreateSwapRequest{
		EventID:            v.eventID,
		DishID:             &dish.ID,
		RequestingFamilyID: v.user.ID,
		TargetFamilyID:     target,
	})
	if err != nil {
		v.notifier.Notify("Failed to request swap", notify.LevelError)
		return err
	}
	if ownDish {
		v.notifier.Notify("Dish offered for swap!", notify.LevelSuccess)
	} else {
		v.notifier.Notify("Swap request sent!", notify.LevelSuccess)
	}
	return v.RefreshSwaps(ctx)
}

// RequestHostSwap opens an open call for a volunteer host.
func (v *EventView) RequestHostSwap(ctx context.Context) error {
	err := v.api.CreateSwap(ctx, rest.CreateSwapRequest{
		EventID:            v.eventID,
		Type:               models.SwapTypeHost,
		RequestingFamilyID: v.user.ID,
	})
	if err != nil {
		v.notifier.Notify("Failed to request host swap", notify.LevelError)
		return err
	}
	v.notifier.Notify("Host swap request sent!", notify.LevelSuccess)
	return v.RefreshSwaps(ctx)
}

// ResolveSwap approves or rejects a pending swap. Approving makes the user
// the target of the exchange.
func (v *EventView) ResolveSwap(ctx context.Context, requestID, status string) error {
	req := rest.UpdateSwapRequest{Status: status}
	if status == models.SwapStatusApproved {
		req.TargetFamilyID = &v.user.ID
	}
	if err := v.api.UpdateSwap(ctx, requestID, req); err != nil {
		v.notifier.Notify("Failed to update swap request", notify.LevelError)
		return err
	}
	if err := v.RefreshSwaps(ctx); err != nil {
		return err
	}
	return v.RefreshDishes(ctx)
}

// AcceptHostSwap volunteers the user as the event's new host, optionally
// adjusting date and location on handoff.
func (v *EventView) AcceptHostSwap(ctx context.Context, requestID string, date time.Time, location string) error {
	err := v.api.UpdateSwap(ctx, requestID, rest.UpdateSwapRequest{
		Status:         models.SwapStatusApproved,
		TargetFamilyID: &v.user.ID,
		EventUpdates: &rest.SwapEventUpdates{
			Date:     date.Format(time.RFC3339),
			Location: location,
		},
	})
	if err != nil {
		v.notifier.Notify("Failed to accept host swap", notify.LevelError)
		return err
	}
	v.notifier.Notify("You are now the host!", notify.LevelSuccess)
	if err := v.RefreshEvent(ctx); err != nil {
		return err
	}
	return v.RefreshSwaps(ctx)
}
