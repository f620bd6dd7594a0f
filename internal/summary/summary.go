package summary

import (
	"fmt"
	"math"

	"github.com/rjinka/family-potluck/internal/models"
)

// AlertLevel grades a dietary alert.
type AlertLevel string

const (
	AlertCritical AlertLevel = "critical"
	AlertWarning  AlertLevel = "warning"
)

// Alert flags a dietary need the pledged dishes do not cover well enough.
type Alert struct {
	Level   AlertLevel
	Message string
}

// HostSummary is the host's at-a-glance view of an event: confirmed
// headcount, dish supply, and dietary coverage.
type HostSummary struct {
	TotalAdults    int
	TotalKids      int
	TotalHeadcount int
	TotalDishes    int

	// DietaryNeeds counts people per preference across confirmed RSVPs.
	// Everyone in a family is assumed to share its preferences.
	DietaryNeeds map[string]int

	// DishCoverage counts dishes per dietary tag.
	DishCoverage map[string]int

	Alerts []Alert
}

// PeoplePerDish returns headcount divided by dish count, zero when there
// are no dishes.
func (s *HostSummary) PeoplePerDish() float64 {
	if s.TotalDishes == 0 {
		return 0
	}
	return float64(s.TotalHeadcount) / float64(s.TotalDishes)
}

// Covered returns true when no dietary need raised an alert.
func (s *HostSummary) Covered() bool {
	return len(s.Alerts) == 0
}

// Build computes the summary over the current RSVP and dish snapshots.
// Only confirmed ("Yes") RSVPs count. A need with zero tagged dishes is
// critical; fewer than one dish per five people is a warning.
func Build(rsvps []models.RSVP, dishes []models.Dish) *HostSummary {
	s := &HostSummary{
		TotalDishes:  len(dishes),
		DietaryNeeds: make(map[string]int),
		DishCoverage: make(map[string]int),
	}

	for _, r := range rsvps {
		if !r.IsGoing() {
			continue
		}
		s.TotalAdults += r.Count
		s.TotalKids += r.KidsCount
		for _, pref := range r.DietaryPreferences {
			s.DietaryNeeds[pref] += r.Headcount()
		}
	}
	s.TotalHeadcount = s.TotalAdults + s.TotalKids

	for _, d := range dishes {
		for _, tag := range d.DietaryTags {
			s.DishCoverage[tag]++
		}
	}

	for pref, needs := range s.DietaryNeeds {
		coverage := s.DishCoverage[pref]
		switch {
		case coverage == 0:
			s.Alerts = append(s.Alerts, Alert{
				Level: AlertCritical,
				Message: fmt.Sprintf("%d guest%s need%s %s food, but no dishes are tagged %s!",
					needs, plural(needs), singular(needs), pref, pref),
			})
		case coverage < int(math.Ceil(float64(needs)/5)):
			s.Alerts = append(s.Alerts, Alert{
				Level: AlertWarning,
				Message: fmt.Sprintf("%d guest%s need%s %s food, but only %d dish%s available.",
					needs, plural(needs), singular(needs), pref, coverage, pluralDish(coverage)),
			})
		}
	}

	return s
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

func singular(n int) string {
	if n == 1 {
		return "s"
	}
	return ""
}

func pluralDish(n int) string {
	if n > 1 {
		return "es"
	}
	return ""
}
