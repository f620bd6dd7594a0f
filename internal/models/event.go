package models

import (
	"sort"
	"time"
)

// Event statuses as reported by the server.
const (
	EventStatusScheduled = "scheduled"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

// Event represents a scheduled gathering.
type Event struct {
	ID              string    `json:"id"`
	GroupID         string    `json:"group_id"`
	Name            string    `json:"name"`
	Date            time.Time `json:"date"`
	Type            string    `json:"type"` // Dinner, Lunch, Coffee Meet, Picnic
	HostID          string    `json:"host_id"`
	HostName        string    `json:"host_name,omitempty"`
	HostHouseholdID *string   `json:"host_household_id,omitempty"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	Recurrence      string    `json:"recurrence,omitempty"` // Weekly, Bi-Weekly
	RecurrenceID    string    `json:"recurrence_id,omitempty"`
	GuestIDs        []string  `json:"guest_ids,omitempty"`
	GuestJoinCode   string    `json:"guest_join_code"`
	Status          string    `json:"status"`
}

// IsRecurring returns true if the event repeats.
func (e *Event) IsRecurring() bool {
	return e.Recurrence != ""
}

// IsUpcoming returns true if the event hasn't started yet.
func (e *Event) IsUpcoming() bool {
	return time.Now().Before(e.Date)
}

// HostedBy returns true if the given family hosts the event.
func (e *Event) HostedBy(familyID string) bool {
	return e.HostID == familyID
}

// HasGuest returns true if the given family attends via a guest invite.
func (e *Event) HasGuest(familyID string) bool {
	for _, id := range e.GuestIDs {
		if id == familyID {
			return true
		}
	}
	return false
}

// SortEventsByDate orders events ascending by date, in place. Every fetched
// event list goes through this before it is exposed.
func SortEventsByDate(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
}
