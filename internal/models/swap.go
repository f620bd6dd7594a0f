package models

import "time"

// Swap request kinds.
const (
	SwapTypeDish = "dish"
	SwapTypeHost = "host"
)

// Swap request statuses. A request is terminal once approved or rejected.
const (
	SwapStatusPending  = "pending"
	SwapStatusApproved = "approved"
	SwapStatusRejected = "rejected"
)

// SwapRequest is a negotiated exchange of dish-bringing or host duty.
// A nil target is an open offer any eligible family may accept.
type SwapRequest struct {
	ID                   string    `json:"id"`
	EventID              string    `json:"event_id"`
	DishID               *string   `json:"dish_id,omitempty"`
	Type                 string    `json:"type"`
	RequestingFamilyID   string    `json:"requesting_family_id"`
	RequestingFamilyName string    `json:"requesting_family_name,omitempty"`
	TargetFamilyID       *string   `json:"target_family_id"`
	TargetFamilyName     string    `json:"target_family_name,omitempty"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}

// IsPending returns true while the request awaits resolution.
func (s *SwapRequest) IsPending() bool {
	return s.Status == SwapStatusPending
}

// IsOpen returns true for an open offer with no specific target.
func (s *SwapRequest) IsOpen() bool {
	return s.TargetFamilyID == nil
}

// IsHostSwap returns true for an open call for a new host.
func (s *SwapRequest) IsHostSwap() bool {
	return s.Type == SwapTypeHost
}

// ConcernsFamily returns true if the pending request is actionable by or
// visible to the given family: they are the target, the requester, or it is
// an open offer from someone else.
func (s *SwapRequest) ConcernsFamily(familyID string) bool {
	if !s.IsPending() {
		return false
	}
	if s.TargetFamilyID != nil && *s.TargetFamilyID == familyID {
		return true
	}
	if s.RequestingFamilyID == familyID {
		return true
	}
	return s.IsOpen() && s.RequestingFamilyID != familyID
}
