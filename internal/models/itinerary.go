package models

import "time"

// Itinerary is the explicitly saved day plan for an outing. Its existence
// (not its content) unlocks the itinerary journey step; a defaulted,
// never-saved plan does not count.
type Itinerary struct {
	ID        int64
	OutingID  int64
	SavedBy   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []ItineraryItem
}

// ItineraryItem is one scheduled slot within an itinerary
type ItineraryItem struct {
	ID          int64
	ItineraryID int64
	ActivityID  *int64 // nil for free-form entries (travel, meals)
	Title       string
	Day         int
	Position    int
	StartTime   string // "HH:MM", display only
	Note        string
}
