package models

// FamilyMember represents a signed-in family account. A "family" is the unit
// that RSVPs and brings dishes; the server is authoritative, this is a mirror.
type FamilyMember struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Picture            string   `json:"picture"`
	Address            string   `json:"address,omitempty"`
	Allergies          string   `json:"allergies,omitempty"`
	DietaryPreferences []string `json:"dietary_preferences"`
	GroupIDs           []string `json:"group_ids"`
	HouseholdID        *string  `json:"household_id,omitempty"`
}

// InGroup returns true if the member belongs to the given group.
func (f *FamilyMember) InGroup(groupID string) bool {
	for _, id := range f.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// HasHousehold returns true if the member has joined a household.
func (f *FamilyMember) HasHousehold() bool {
	return f.HouseholdID != nil && *f.HouseholdID != ""
}
