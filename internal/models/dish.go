package models

// DishSection is the three-way partition a dish list renders into.
type DishSection string

const (
	DishSuggested DishSection = "suggested"
	DishRequested DishSection = "requested"
	DishPledged   DishSection = "pledged"
)

// Dish belongs to an event and is optionally claimed by a bringer family.
type Dish struct {
	ID          string   `json:"id"`
	EventID     string   `json:"event_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DietaryTags []string `json:"dietary_tags"` // Vegan, Gluten-Free, ...
	BringerID   *string  `json:"bringer_id"`
	BringerName string   `json:"bringer_name,omitempty"`
	IsHostDish  bool     `json:"is_host_dish"`
	IsRequested bool     `json:"is_requested"`
	IsSuggested bool     `json:"is_suggested"`
}

// IsPledged returns true if a family has claimed the dish.
func (d *Dish) IsPledged() bool {
	return d.BringerID != nil && *d.BringerID != ""
}

// Section places the dish in exactly one of suggested, requested, pledged.
// A bringer always wins; without one, the suggested flag decides.
func (d *Dish) Section() DishSection {
	switch {
	case d.IsPledged():
		return DishPledged
	case d.IsSuggested:
		return DishSuggested
	default:
		return DishRequested
	}
}

// PartitionDishes splits a dish list into its three sections. Every dish
// lands in exactly one slice.
func PartitionDishes(dishes []Dish) (suggested, requested, pledged []Dish) {
	for _, d := range dishes {
		switch d.Section() {
		case DishSuggested:
			suggested = append(suggested, d)
		case DishRequested:
			requested = append(requested, d)
		case DishPledged:
			pledged = append(pledged, d)
		}
	}
	return suggested, requested, pledged
}
