package reconcile

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rjinka/family-potluck/internal/models"
	"github.com/rjinka/family-potluck/internal/realtime"
)

func push(r *Router, msgType, data string) {
	r.HandleMessage(realtime.Message{Type: msgType, Data: json.RawMessage(data)})
}

func TestRouterIgnoresUnknownType(t *testing.T) {
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())

	push(r, "chat_message", `{"id":"x"}`)

	if len(notifier.all()) != 0 {
		t.Errorf("unknown type produced notifications: %v", notifier.all())
	}
}

func TestRouterIgnoresMessageForOtherEvent(t *testing.T) {
	fetched := make(chan string, 4)
	api := &fakeAPI{
		dishesFn: func(ctx context.Context, eventID string) ([]models.Dish, error) {
			fetched <- eventID
			return nil, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())
	v := NewEventView(api, testUser(), "e1", notifier, testLogger())
	r.AttachEventView(v)

	push(r, "dish_pledged", `{"event_id":"e2","dish_id":"d9","dish_name":"Salad","bringer_name":"Jo"}`)

	select {
	case id := <-fetched:
		t.Errorf("dish fetch triggered for foreign event %s", id)
	case <-time.After(50 * time.Millisecond):
	}
	if len(notifier.all()) != 0 {
		t.Errorf("foreign event produced notifications: %v", notifier.all())
	}
}

func TestRouterDishPledgedRefreshesAndNotifies(t *testing.T) {
	fetched := make(chan string, 1)
	api := &fakeAPI{
		dishesFn: func(ctx context.Context, eventID string) ([]models.Dish, error) {
			fetched <- eventID
			return nil, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())
	v := NewEventView(api, testUser(), "e1", notifier, testLogger())
	r.AttachEventView(v)

	push(r, "dish_pledged", `{"event_id":"e1","dish_id":"d9","dish_name":"Salad","bringer_name":"Jo"}`)

	select {
	case <-fetched:
	case <-time.After(time.Second):
		t.Fatal("dish list was not refreshed")
	}
	if !notifier.contains("Jo is bringing Salad!") {
		t.Errorf("missing pledge notification, got %v", notifier.all())
	}
}

func TestRouterDishAddedInsertsWithoutFetch(t *testing.T) {
	api := &fakeAPI{
		dishesFn: func(ctx context.Context, eventID string) ([]models.Dish, error) {
			t.Error("dish_added must not trigger a fetch")
			return nil, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())
	v := NewEventView(api, testUser(), "e1", notifier, testLogger())
	r.AttachEventView(v)

	payload := `{"id":"d1","event_id":"e1","name":"Stew"}`
	push(r, "dish_added", payload)
	push(r, "dish_added", payload)

	if got := len(v.Dishes()); got != 1 {
		t.Errorf("got %d dishes after duplicate push, want 1", got)
	}
	if !notifier.contains("New dish added: Stew") {
		t.Errorf("missing add notification, got %v", notifier.all())
	}
}

func TestRouterAcceptsNumericIDs(t *testing.T) {
	fetched := make(chan string, 1)
	api := &fakeAPI{
		dishesFn: func(ctx context.Context, eventID string) ([]models.Dish, error) {
			fetched <- eventID
			return nil, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())
	v := NewEventView(api, testUser(), "41", notifier, testLogger())
	r.AttachEventView(v)

	push(r, "dish_deleted", `{"event_id":41,"dish_id":7}`)

	select {
	case <-fetched:
	case <-time.After(time.Second):
		t.Fatal("numeric event_id did not match the attached view")
	}
}

func TestRouterIgnoresEventPushForOtherGroup(t *testing.T) {
	api := &fakeAPI{
		groupEventsFn: func(ctx context.Context, groupID string) ([]models.Event, error) {
			t.Errorf("foreign-group event push refreshed group events for %s", groupID)
			return nil, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())
	r.AttachDashboard(NewDashboardView(api, testUser(), notifier, testLogger()))

	push(r, "event_created", `{"id":"e9","group_id":"g9"}`)
	time.Sleep(50 * time.Millisecond)
}

func TestRouterEventPushForDisplayedGroupRefreshes(t *testing.T) {
	fetched := make(chan string, 1)
	api := &fakeAPI{
		groupEventsFn: func(ctx context.Context, groupID string) ([]models.Event, error) {
			fetched <- groupID
			return nil, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())
	r.AttachDashboard(NewDashboardView(api, testUser(), notifier, testLogger()))

	push(r, "event_created", `{"id":"e1","group_id":"g1"}`)

	select {
	case groupID := <-fetched:
		if groupID != "g1" {
			t.Errorf("refreshed group %s, want g1", groupID)
		}
	case <-time.After(time.Second):
		t.Fatal("matching-group event push did not refresh group events")
	}
}

// Deletion payloads carry event_id rather than id; a tracked guest event's
// deletion must still refresh the guest list.
func TestRouterEventDeletedRefreshesTrackedGuestEvent(t *testing.T) {
	guestFetches := make(chan struct{}, 2)
	api := &fakeAPI{
		userEventsFn: func(ctx context.Context, familyID string) ([]models.Event, error) {
			guestFetches <- struct{}{}
			return []models.Event{{ID: "ge1"}}, nil
		},
	}
	notifier := &fakeNotifier{}
	d := NewDashboardView(api, testUser(), notifier, testLogger())
	if err := d.RefreshGuestEvents(context.Background()); err != nil {
		t.Fatalf("RefreshGuestEvents: %v", err)
	}
	<-guestFetches

	r := NewRouter(notifier, time.Millisecond, testLogger())
	r.AttachDashboard(d)

	push(r, "event_deleted", `{"event_id":"ge1","group_id":"g9"}`)

	select {
	case <-guestFetches:
	case <-time.After(time.Second):
		t.Fatal("event_deleted for tracked guest event did not refresh guest events")
	}
}

func TestRouterDebouncesRSVPBursts(t *testing.T) {
	fetched := make(chan struct{}, 8)
	api := &fakeAPI{
		rsvpsFn: func(ctx context.Context, eventID string) ([]models.RSVP, error) {
			fetched <- struct{}{}
			return nil, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, 30*time.Millisecond, testLogger())
	v := NewEventView(api, testUser(), "e1", notifier, testLogger())
	r.AttachEventView(v)

	for i := 0; i < 5; i++ {
		push(r, "rsvp_updated", `{"event_id":"e1","family_name":"The Crofts","status":"Yes"}`)
	}

	select {
	case <-fetched:
	case <-time.After(time.Second):
		t.Fatal("debounced refresh never fired")
	}
	select {
	case <-fetched:
		t.Error("burst of pushes caused more than one refresh")
	case <-time.After(100 * time.Millisecond):
	}
	if !notifier.contains("The Crofts RSVP'd Yes") {
		t.Errorf("missing RSVP notification, got %v", notifier.all())
	}
}

// A burst for one event must not cancel another event's pending refresh.
func TestRouterDebouncesRSVPPerEvent(t *testing.T) {
	fetched := make(chan string, 4)
	api := &fakeAPI{
		rsvpsFn: func(ctx context.Context, eventID string) ([]models.RSVP, error) {
			fetched <- eventID
			return nil, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, 30*time.Millisecond, testLogger())
	r.AttachEventView(NewEventView(api, testUser(), "e1", notifier, testLogger()))
	r.AttachEventView(NewEventView(api, testUser(), "e2", notifier, testLogger()))

	push(r, "rsvp_updated", `{"event_id":"e1"}`)
	push(r, "rsvp_updated", `{"event_id":"e2"}`)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-fetched:
			got[id] = true
		case <-time.After(time.Second):
			t.Fatalf("only %d of 2 debounced refreshes fired: %v", i, got)
		}
	}
	if !got["e1"] || !got["e2"] {
		t.Errorf("refreshed events = %v, want e1 and e2", got)
	}
}

func TestRouterSwapUpdatedNotifies(t *testing.T) {
	api := &fakeAPI{}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())
	r.AttachEventView(NewEventView(api, testUser(), "e1", notifier, testLogger()))

	push(r, "swap_updated", `{"event_id":"e1","id":"s1"}`)

	if !notifier.contains("Swap request updated") {
		t.Errorf("missing swap update notification, got %v", notifier.all())
	}
}

func TestRouterDetachStopsDelivery(t *testing.T) {
	api := &fakeAPI{
		dishesFn: func(ctx context.Context, eventID string) ([]models.Dish, error) {
			t.Error("detached view still received a refresh")
			return nil, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())
	v := NewEventView(api, testUser(), "e1", notifier, testLogger())
	r.AttachEventView(v)
	r.DetachEventView("e1")

	push(r, "dish_deleted", `{"event_id":"e1","dish_id":"d1"}`)
	time.Sleep(50 * time.Millisecond)
}

func TestRouterEventUpdatedRefreshesDashboardAndDetail(t *testing.T) {
	groupFetched := make(chan struct{}, 1)
	eventFetched := make(chan struct{}, 1)
	api := &fakeAPI{
		groupEventsFn: func(ctx context.Context, groupID string) ([]models.Event, error) {
			groupFetched <- struct{}{}
			return nil, nil
		},
		eventFn: func(ctx context.Context, id string) (*models.Event, error) {
			eventFetched <- struct{}{}
			return &models.Event{ID: id, GroupID: "g1"}, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())
	r.AttachDashboard(NewDashboardView(api, testUser(), notifier, testLogger()))
	r.AttachEventView(NewEventView(api, testUser(), "e1", notifier, testLogger()))

	push(r, "event_updated", `{"id":"e1","group_id":"g1"}`)

	select {
	case <-groupFetched:
	case <-time.After(time.Second):
		t.Fatal("dashboard events were not refreshed")
	}
	select {
	case <-eventFetched:
	case <-time.After(time.Second):
		t.Fatal("event detail was not refreshed")
	}
	if !notifier.contains("Event details updated") {
		t.Errorf("missing update notification, got %v", notifier.all())
	}
}

func TestRouterSuggestionLifecycle(t *testing.T) {
	fetched := make(chan struct{}, 1)
	api := &fakeAPI{
		dishesFn: func(ctx context.Context, eventID string) ([]models.Dish, error) {
			fetched <- struct{}{}
			return nil, nil
		},
	}
	notifier := &fakeNotifier{}
	r := NewRouter(notifier, time.Millisecond, testLogger())
	v := NewEventView(api, testUser(), "e1", notifier, testLogger())
	r.AttachEventView(v)

	push(r, "suggestions_started", `{"event_id":"e1"}`)
	if !v.Suggesting() {
		t.Error("Suggesting() = false after suggestions_started")
	}

	push(r, "suggestions_finished", `{"event_id":"e1"}`)
	if v.Suggesting() {
		t.Error("Suggesting() = true after suggestions_finished")
	}
	select {
	case <-fetched:
	case <-time.After(time.Second):
		t.Fatal("dish list not refreshed after suggestions finished")
	}
}

func TestFlexIDDecodesStringAndNumber(t *testing.T) {
	var env envelope
	if err := json.Unmarshal([]byte(`{"id":"abc","event_id":42}`), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.ID.String() != "abc" {
		t.Errorf("string id = %q, want abc", env.ID)
	}
	if env.EventID.String() != "42" {
		t.Errorf("numeric id = %q, want 42", env.EventID)
	}
}
