package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/rjinka/family-potluck/internal/metrics"
	"github.com/rjinka/family-potluck/internal/models"
	"github.com/rjinka/family-potluck/internal/notify"
	"github.com/rjinka/family-potluck/internal/rest"
)

// DashboardView mirrors the dashboard screen: the user's groups, the
// selected group's events, and the events they attend as a guest. Fetches
// replace the whole snapshot; on failure the previous snapshot stays
// (stale-but-present over empty).
type DashboardView struct {
	api      API
	notifier notify.Notifier
	logger   *logrus.Logger
	user     *models.FamilyMember

	mu              sync.RWMutex
	selectedGroupID string
	groups          []models.Group
	groupEvents     []models.Event
	guestEvents     []models.Event

	closed *atomic.Bool

	// Per-collection fetch generations. A fetch applies its result only if
	// no newer fetch for the same collection started meanwhile, so a slow
	// stale response cannot clobber a fresh one.
	groupsGen *atomic.Int64
	eventsGen *atomic.Int64
	guestGen  *atomic.Int64
}

// NewDashboardView creates the dashboard synchronizer for the signed-in
// user. The first of the user's groups is pre-selected.
func NewDashboardView(api API, user *models.FamilyMember, notifier notify.Notifier, logger *logrus.Logger) *DashboardView {
	v := &DashboardView{
		api:       api,
		notifier:  notifier,
		logger:    logger,
		user:      user,
		closed:    atomic.NewBool(false),
		groupsGen: atomic.NewInt64(0),
		eventsGen: atomic.NewInt64(0),
		guestGen:  atomic.NewInt64(0),
	}
	if len(user.GroupIDs) > 0 {
		v.selectedGroupID = user.GroupIDs[0]
	}
	return v
}

// Close marks the view dead; in-flight fetch results are dropped.
func (v *DashboardView) Close() {
	v.closed.Store(true)
}

// GroupID returns the currently displayed group.
func (v *DashboardView) GroupID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.selectedGroupID
}

// SelectGroup switches the displayed group and refreshes its events.
func (v *DashboardView) SelectGroup(ctx context.Context, groupID string) error {
	v.mu.Lock()
	v.selectedGroupID = groupID
	v.mu.Unlock()
	return v.RefreshGroupEvents(ctx)
}

// Groups returns the current group snapshot.
func (v *DashboardView) Groups() []models.Group {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Group, len(v.groups))
	copy(out, v.groups)
	return out
}

// GroupEvents returns the selected group's event snapshot, date-ascending.
func (v *DashboardView) GroupEvents() []models.Event {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Event, len(v.groupEvents))
	copy(out, v.groupEvents)
	return out
}

// GuestEvents returns the guest event snapshot, date-ascending.
func (v *DashboardView) GuestEvents() []models.Event {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Event, len(v.guestEvents))
	copy(out, v.guestEvents)
	return out
}

// TracksGuestEvent reports whether the given event is in the guest list.
// The router uses it as the relevance test for event pushes.
func (v *DashboardView) TracksGuestEvent(eventID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, e := range v.guestEvents {
		if e.ID == eventID {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Refreshers
// ---------------------------------------------------------------------------

// RefreshGroups re-fetches the groups and keeps those the user belongs to.
func (v *DashboardView) RefreshGroups(ctx context.Context) error {
	gen := v.groupsGen.Inc()
	metrics.Refreshes.WithLabelValues("groups").Inc()

	all, err := v.api.Groups(ctx)
	if err != nil {
		metrics.RefreshFailures.WithLabelValues("groups").Inc()
		v.logger.WithError(err).Error("Failed to fetch groups")
		return err
	}

	var mine []models.Group
	for _, g := range all {
		if v.user.InGroup(g.ID) {
			mine = append(mine, g)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() || gen != v.groupsGen.Load() {
		return nil
	}
	v.groups = mine
	return nil
}

// RefreshGroupEvents re-fetches the selected group's events, sorted
// ascending by date.
func (v *DashboardView) RefreshGroupEvents(ctx context.Context) error {
	groupID := v.GroupID()
	if groupID == "" {
		return nil
	}
	gen := v.eventsGen.Inc()
	metrics.Refreshes.WithLabelValues("group_events").Inc()

	events, err := v.api.GroupEvents(ctx, groupID)
	if err != nil {
		metrics.RefreshFailures.WithLabelValues("group_events").Inc()
		v.logger.WithError(err).Error("Failed to fetch events")
		return err
	}
	models.SortEventsByDate(events)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() || gen != v.eventsGen.Load() || v.selectedGroupID != groupID {
		return nil
	}
	v.groupEvents = events
	return nil
}

// RefreshGuestEvents re-fetches the events the user attends as a guest,
// sorted ascending by date.
func (v *DashboardView) RefreshGuestEvents(ctx context.Context) error {
	gen := v.guestGen.Inc()
	metrics.Refreshes.WithLabelValues("guest_events").Inc()

	events, err := v.api.UserEvents(ctx, v.user.ID)
	if err != nil {
		metrics.RefreshFailures.WithLabelValues("guest_events").Inc()
		v.logger.WithError(err).Error("Failed to fetch guest events")
		return err
	}
	models.SortEventsByDate(events)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() || gen != v.guestGen.Load() {
		return nil
	}
	v.guestEvents = events
	return nil
}

// ---------------------------------------------------------------------------
// User actions
// ---------------------------------------------------------------------------

// NewEvent carries the user-entered fields for a new gathering.
type NewEvent struct {
	Type        string
	Date        time.Time
	Location    string
	Description string
	Recurrence  string
}

// CreateEvent schedules a gathering in the selected group, hosted by the
// user, then refreshes the event list directly rather than waiting for the
// push round-trip.
func (v *DashboardView) CreateEvent(ctx context.Context, e NewEvent) error {
	groupID := v.GroupID()
	if groupID == "" {
		return fmt.Errorf("no group selected")
	}

	_, err := v.api.CreateEvent(ctx, rest.CreateEventRequest{
		GroupID:     groupID,
		HostID:      v.user.ID,
		Type:        e.Type,
		Date:        e.Date.Format(time.RFC3339),
		Location:    e.Location,
		Description: e.Description,
		Recurrence:  e.Recurrence,
	})
	if err != nil {
		v.notifier.Notify("Failed to create event", notify.LevelError)
		return err
	}

	v.notifier.Notify("Event created successfully!", notify.LevelSuccess)
	return v.RefreshGroupEvents(ctx)
}

// FinishEvent marks a recurring event complete; the server creates the next
// occurrence.
func (v *DashboardView) FinishEvent(ctx context.Context, eventID string) error {
	if err := v.api.FinishEvent(ctx, eventID, v.user.ID); err != nil {
		v.notifier.Notify("Failed to complete event", notify.LevelError)
		return err
	}
	v.notifier.Notify("Event completed and next occurrence created", notify.LevelSuccess)
	return v.RefreshGroupEvents(ctx)
}

// SkipEvent reschedules a recurring event to its next occurrence.
func (v *DashboardView) SkipEvent(ctx context.Context, eventID string) error {
	if err := v.api.SkipEvent(ctx, eventID, v.user.ID); err != nil {
		v.notifier.Notify("Failed to skip event", notify.LevelError)
		return err
	}
	v.notifier.Notify("Event skipped", notify.LevelSuccess)
	return v.RefreshGroupEvents(ctx)
}

// CancelEvent removes an event from the calendar.
func (v *DashboardView) CancelEvent(ctx context.Context, eventID string) error {
	if err := v.api.DeleteEvent(ctx, eventID, v.user.ID); err != nil {
		v.notifier.Notify("Failed to cancel event", notify.LevelError)
		return err
	}
	v.notifier.Notify("Event cancelled successfully", notify.LevelSuccess)
	return v.RefreshGroupEvents(ctx)
}

// CompleteEvent marks a one-time event done, removing it from the upcoming
// list.
func (v *DashboardView) CompleteEvent(ctx context.Context, eventID string) error {
	if err := v.api.DeleteEvent(ctx, eventID, v.user.ID); err != nil {
		v.notifier.Notify("Failed to complete event", notify.LevelError)
		return err
	}
	v.notifier.Notify("Event completed successfully", notify.LevelSuccess)
	return v.RefreshGroupEvents(ctx)
}
