package models

import "time"

// DiscountCode is a fixed-amount code applicable to a settlement.
// At most one code applies per settlement; re-applying overwrites.
type DiscountCode struct {
	ID             int64
	Code           string
	AmountCents    int64
	Active         bool
	ValidFrom      time.Time
	ValidUntil     time.Time
	MaxRedemptions int
	Redemptions    int
	CreatedAt      time.Time
}

// IsWithinWindow checks if the code's validity window covers the given time
func (d *DiscountCode) IsWithinWindow(at time.Time) bool {
	return !at.Before(d.ValidFrom) && !at.After(d.ValidUntil)
}

// IsExhausted checks if the code has no redemptions left
func (d *DiscountCode) IsExhausted() bool {
	return d.MaxRedemptions > 0 && d.Redemptions >= d.MaxRedemptions
}

// RejectionReason returns a human-readable reason the code cannot be
// applied right now, or "" if it can
func (d *DiscountCode) RejectionReason(at time.Time) string {
	switch {
	case !d.Active:
		return "discount code is not active"
	case !d.IsWithinWindow(at):
		return "discount code has expired"
	case d.IsExhausted():
		return "discount code has no redemptions left"
	default:
		return ""
	}
}
