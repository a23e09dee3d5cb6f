package models

import "time"

// OutingStatus is the coarse lifecycle state of an outing
type OutingStatus string

const (
	OutingPlanned    OutingStatus = "planned"
	OutingInProgress OutingStatus = "in_progress"
	OutingCompleted  OutingStatus = "completed"
	OutingCancelled  OutingStatus = "cancelled"
)

// Outing is one planned family event, the aggregate root for activity
// requests, itinerary, evaluation and memories
type Outing struct {
	ID                  int64
	FamilyHeadID        int64
	Title               string
	StartDate           time.Time
	EndDate             *time.Time
	ParticipantIDs      []int64
	Status              OutingStatus
	EvaluationSubmitted bool
	Shared              bool
	ShareToken          string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NormalizeParticipants returns the participant list with the family head
// guaranteed present and duplicates removed, preserving order of first
// appearance. The head is prepended if missing.
func (o *Outing) NormalizeParticipants() []int64 {
	seen := map[int64]bool{o.FamilyHeadID: true}
	normalized := []int64{o.FamilyHeadID}
	for _, id := range o.ParticipantIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		normalized = append(normalized, id)
	}
	return normalized
}

// HasParticipant reports whether the user is on the outing, the family head
// always counting as a participant
func (o *Outing) HasParticipant(userID int64) bool {
	if userID == o.FamilyHeadID {
		return true
	}
	for _, id := range o.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// OutingCancellation is the audit record written when an outing is cancelled
type OutingCancellation struct {
	ID          int64
	OutingID    int64
	RequestedBy int64
	Reason      string
	CancelledAt time.Time
}
