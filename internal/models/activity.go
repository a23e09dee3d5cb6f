package models

import "time"

// Activity is a read-only catalog entry that participants can propose
type Activity struct {
	ID         int64
	Name       string
	PriceCents int64
	Location   string
	Category   string
	CreatedAt  time.Time
}
