package models

import "time"

// Evaluation is the single post-outing review; submitting it moves the
// outing to the terminal journey step
type Evaluation struct {
	ID          int64
	OutingID    int64
	SubmittedBy int64
	Rating      int // 1-5
	Comment     string
	SubmittedAt time.Time
}

// Memory is a photo or note attached to an outing. Only metadata lives
// here; the upload pipeline is outside this service.
type Memory struct {
	ID        int64
	OutingID  int64
	CreatedBy int64
	Kind      string // "photo" or "note"
	MediaURL  string
	Caption   string
	CreatedAt time.Time
}
