package models

// RSVPStatus represents a family's reply to an event invitation.
type RSVPStatus string

const (
	RSVPYes   RSVPStatus = "Yes"
	RSVPMaybe RSVPStatus = "Maybe"
	RSVPNo    RSVPStatus = "No"
)

// RSVP is one family's reply to one event. The server keeps exactly one
// non-terminal record per (event, family) pair; the latest fetch is truth.
type RSVP struct {
	ID                 string     `json:"id"`
	EventID            string     `json:"event_id"`
	FamilyID           string     `json:"family_id"`
	FamilyName         string     `json:"family_name,omitempty"`
	FamilyPicture      string     `json:"family_picture,omitempty"`
	Status             RSVPStatus `json:"status"`
	Count              int        `json:"count"` // adults
	KidsCount          int        `json:"kids_count"`
	DietaryPreferences []string   `json:"dietary_preferences,omitempty"`
}

// IsGoing returns true for a confirmed RSVP.
func (r *RSVP) IsGoing() bool {
	return r.Status == RSVPYes
}

// Headcount returns adults plus kids for this family.
func (r *RSVP) Headcount() int {
	return r.Count + r.KidsCount
}
