package models

// Group is a named circle of families who jointly schedule events.
type Group struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	AdminID  string `json:"admin_id"`
	JoinCode string `json:"join_code"`
}

// IsAdmin returns true if the given family administers the group.
func (g *Group) IsAdmin(familyID string) bool {
	return g.AdminID == familyID
}
