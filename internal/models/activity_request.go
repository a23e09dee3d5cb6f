package models

import "time"

// RequestStatus is the voting state of a proposed activity
type RequestStatus string

const (
	// RequestPending means the proposal has not yet gathered cross-tier agreement
	RequestPending RequestStatus = "pending"
	// RequestMatched means at least one guardian and one dependent liked it,
	// with no guardian dislike
	RequestMatched RequestStatus = "matched"
	// RequestRejected means a guardian vetoed the proposal
	RequestRejected RequestStatus = "rejected"
	// RequestSelectedByParent means a guardian confirmed the activity
	// regardless of votes
	RequestSelectedByParent RequestStatus = "selected_by_parent"
)

// VoteValue is a single participant's opinion on a proposal
type VoteValue string

const (
	VoteLiked    VoteValue = "liked"
	VoteDisliked VoteValue = "disliked"
)

// VoteMap maps voter user ids to their recorded vote. At most one vote per
// voter; a re-vote overwrites.
type VoteMap map[int64]VoteValue

// ActivityRequest is one proposed activity within an outing, keyed by
// activity id: an outing cannot propose the same activity twice
type ActivityRequest struct {
	ID            int64
	OutingID      int64
	ActivityID    int64
	Status        RequestStatus
	Votes         VoteMap
	CreatedByUID  int64
	CreatedByRole Role
	Paid          bool
	RequestedAt   time.Time
}

// CanVote reports whether the voter has not yet voted on this request.
// The engine itself always accepts a re-vote as an overwrite; this helper
// exists so presentation layers can hide the vote controls after a first
// vote if they choose to.
func (r *ActivityRequest) CanVote(voterID int64) bool {
	_, voted := r.Votes[voterID]
	return !voted
}

// IsConfirmed reports whether the request counts toward the settlement
// projection
func (r *ActivityRequest) IsConfirmed() bool {
	return r.Status == RequestMatched || r.Status == RequestSelectedByParent
}
