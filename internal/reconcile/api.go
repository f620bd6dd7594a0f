package reconcile

import (
	"context"

	"github.com/rjinka/family-potluck/internal/models"
	"github.com/rjinka/family-potluck/internal/rest"
)

// API is the slice of the REST collaborator the synchronizers consume.
// *rest.Client satisfies it; tests substitute fakes.
type API interface {
	Groups(ctx context.Context) ([]models.Group, error)
	GroupMembers(ctx context.Context, groupID string) ([]models.FamilyMember, error)

	GroupEvents(ctx context.Context, groupID string) ([]models.Event, error)
	UserEvents(ctx context.Context, familyID string) ([]models.Event, error)
	Event(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, req rest.CreateEventRequest) (*models.Event, error)
	DeleteEvent(ctx context.Context, id, familyID string) error
	FinishEvent(ctx context.Context, id, adminID string) error
	SkipEvent(ctx context.Context, id, adminID string) error
	EventStats(ctx context.Context, id string) (*models.EventStats, error)

	RSVPs(ctx context.Context, eventID string) ([]models.RSVP, error)
	SubmitRSVP(ctx context.Context, req rest.RSVPRequest) error

	Dishes(ctx context.Context, eventID string) ([]models.Dish, error)
	AddDish(ctx context.Context, req rest.AddDishRequest) (*models.Dish, error)
	PledgeDish(ctx context.Context, dishID, familyID string) error
	UnpledgeDish(ctx context.Context, dishID string) error
	DeleteDish(ctx context.Context, dishID string) error

	Swaps(ctx context.Context, eventID string) ([]models.SwapRequest, error)
	CreateSwap(ctx context.Context, req rest.CreateSwapRequest) error
	UpdateSwap(ctx context.Context, id string, req rest.UpdateSwapRequest) error
}
