package models

// HostStat counts how many completed occurrences a family has hosted.
type HostStat struct {
	FamilyID   string `json:"family_id"`
	FamilyName string `json:"family_name"`
	Count      int    `json:"count"`
}

// EventStats summarizes a recurring event series. Non-recurring events
// report zero occurrences and no host counts.
type EventStats struct {
	TotalOccurrences int        `json:"total_occurrences"`
	HostCounts       []HostStat `json:"host_counts"`
}
