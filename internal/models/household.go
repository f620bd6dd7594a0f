package models

// Household is an optional bundle of families sharing an address, used for
// event hosting. Members is populated on reads, never sent on writes.
type Household struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	MemberIDs []string       `json:"member_ids"`
	Members   []FamilyMember `json:"members,omitempty"`
}

// HasMember returns true if the family belongs to the household.
func (h *Household) HasMember(familyID string) bool {
	for _, id := range h.MemberIDs {
		if id == familyID {
			return true
		}
	}
	return false
}
