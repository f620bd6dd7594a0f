package reconcile

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rjinka/family-potluck/internal/models"
	"github.com/rjinka/family-potluck/internal/notify"
	"github.com/rjinka/family-potluck/internal/rest"
)

// fakeAPI implements API with per-method hooks. Unset hooks return zero
// values so each test only wires what it exercises.
type fakeAPI struct {
	groupsFn       func(ctx context.Context) ([]models.Group, error)
	groupMembersFn func(ctx context.Context, groupID string) ([]models.FamilyMember, error)
	groupEventsFn  func(ctx context.Context, groupID string) ([]models.Event, error)
	userEventsFn   func(ctx context.Context, familyID string) ([]models.Event, error)
	eventFn        func(ctx context.Context, id string) (*models.Event, error)
	createEventFn  func(ctx context.Context, req rest.CreateEventRequest) (*models.Event, error)
	deleteEventFn  func(ctx context.Context, id, familyID string) error
	finishEventFn  func(ctx context.Context, id, adminID string) error
	skipEventFn    func(ctx context.Context, id, adminID string) error
	eventStatsFn   func(ctx context.Context, id string) (*models.EventStats, error)
	rsvpsFn        func(ctx context.Context, eventID string) ([]models.RSVP, error)
	submitRSVPFn   func(ctx context.Context, req rest.RSVPRequest) error
	dishesFn       func(ctx context.Context, eventID string) ([]models.Dish, error)
	addDishFn      func(ctx context.Context, req rest.AddDishRequest) (*models.Dish, error)
	pledgeDishFn   func(ctx context.Context, dishID, familyID string) error
	unpledgeDishFn func(ctx context.Context, dishID string) error
	deleteDishFn   func(ctx context.Context, dishID string) error
	swapsFn        func(ctx context.Context, eventID string) ([]models.SwapRequest, error)
	createSwapFn   func(ctx context.Context, req rest.CreateSwapRequest) error
	updateSwapFn   func(ctx context.Context, id string, req rest.UpdateSwapRequest) error
}

func (f *fakeAPI) Groups(ctx context.Context) ([]models.Group, error) {
	if f.groupsFn != nil {
		return f.groupsFn(ctx)
	}
	return nil, nil
}

func (f *fakeAPI) GroupMembers(ctx context.Context, groupID string) ([]models.FamilyMember, error) {
	if f.groupMembersFn != nil {
		return f.groupMembersFn(ctx, groupID)
	}
	return nil, nil
}

func (f *fakeAPI) GroupEvents(ctx context.Context, groupID string) ([]models.Event, error) {
	if f.groupEventsFn != nil {
		return f.groupEventsFn(ctx, groupID)
	}
	return nil, nil
}

func (f *fakeAPI) UserEvents(ctx context.Context, familyID string) ([]models.Event, error) {
	if f.userEventsFn != nil {
		return f.userEventsFn(ctx, familyID)
	}
	return nil, nil
}

func (f *fakeAPI) Event(ctx context.Context, id string) (*models.Event, error) {
	if f.eventFn != nil {
		return f.eventFn(ctx, id)
	}
	return &models.Event{ID: id}, nil
}

func (f *fakeAPI) CreateEvent(ctx context.Context, req rest.CreateEventRequest) (*models.Event, error) {
	if f.createEventFn != nil {
		return f.createEventFn(ctx, req)
	}
	return &models.Event{}, nil
}

func (f *fakeAPI) DeleteEvent(ctx context.Context, id, familyID string) error {
	if f.deleteEventFn != nil {
		return f.deleteEventFn(ctx, id, familyID)
	}
	return nil
}

func (f *fakeAPI) FinishEvent(ctx context.Context, id, adminID string) error {
	if f.finishEventFn != nil {
		return f.finishEventFn(ctx, id, adminID)
	}
	return nil
}

func (f *fakeAPI) SkipEvent(ctx context.Context, id, adminID string) error {
	if f.skipEventFn != nil {
		return f.skipEventFn(ctx, id, adminID)
	}
	return nil
}

func (f *fakeAPI) EventStats(ctx context.Context, id string) (*models.EventStats, error) {
	if f.eventStatsFn != nil {
		return f.eventStatsFn(ctx, id)
	}
	return &models.EventStats{}, nil
}

func (f *fakeAPI) RSVPs(ctx context.Context, eventID string) ([]models.RSVP, error) {
	if f.rsvpsFn != nil {
		return f.rsvpsFn(ctx, eventID)
	}
	return nil, nil
}

func (f *fakeAPI) SubmitRSVP(ctx context.Context, req rest.RSVPRequest) error {
	if f.submitRSVPFn != nil {
		return f.submitRSVPFn(ctx, req)
	}
	return nil
}

func (f *fakeAPI) Dishes(ctx context.Context, eventID string) ([]models.Dish, error) {
	if f.dishesFn != nil {
		return f.dishesFn(ctx, eventID)
	}
	return nil, nil
}

func (f *fakeAPI) AddDish(ctx context.Context, req rest.AddDishRequest) (*models.Dish, error) {
	if f.addDishFn != nil {
		return f.addDishFn(ctx, req)
	}
	return &models.Dish{}, nil
}

func (f *fakeAPI) PledgeDish(ctx context.Context, dishID, familyID string) error {
	if f.pledgeDishFn != nil {
		return f.pledgeDishFn(ctx, dishID, familyID)
	}
	return nil
}

func (f *fakeAPI) UnpledgeDish(ctx context.Context, dishID string) error {
	if f.unpledgeDishFn != nil {
		return f.unpledgeDishFn(ctx, dishID)
	}
	return nil
}

func (f *fakeAPI) DeleteDish(ctx context.Context, dishID string) error {
	if f.deleteDishFn != nil {
		return f.deleteDishFn(ctx, dishID)
	}
	return nil
}

func (f *fakeAPI) Swaps(ctx context.Context, eventID string) ([]models.SwapRequest, error) {
	if f.swapsFn != nil {
		return f.swapsFn(ctx, eventID)
	}
	return nil, nil
}

func (f *fakeAPI) CreateSwap(ctx context.Context, req rest.CreateSwapRequest) error {
	if f.createSwapFn != nil {
		return f.createSwapFn(ctx, req)
	}
	return nil
}

func (f *fakeAPI) UpdateSwap(ctx context.Context, id string, req rest.UpdateSwapRequest) error {
	if f.updateSwapFn != nil {
		return f.updateSwapFn(ctx, id, req)
	}
	return nil
}

var _ API = (*fakeAPI)(nil)

// fakeNotifier records notifications for assertion.
type fakeNotifier struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (n *fakeNotifier) Notify(message string, level notify.Level) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, notify.Notification{Message: message, Level: level})
}

func (n *fakeNotifier) all() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Notification, len(n.notes))
	copy(out, n.notes)
	return out
}

func (n *fakeNotifier) contains(message string) bool {
	for _, note := range n.all() {
		if note.Message == message {
			return true
		}
	}
	return false
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testUser() *models.FamilyMember {
	return &models.FamilyMember{
		ID:       "fam1",
		Name:     "The Asters",
		GroupIDs: []string{"g1"},
	}
}
