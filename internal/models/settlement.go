package models

// SettlementLine is one confirmed, unpaid activity within a settlement
type SettlementLine struct {
	ActivityID   int64
	ActivityName string
	PriceCents   int64
	Status       RequestStatus
}

// SettlementSummary projects the confirmed proposals of an outing into a
// payable total. Derived on every call, never stored.
type SettlementSummary struct {
	OutingID        int64
	Lines           []SettlementLine
	SubtotalCents   int64
	DiscountCode    string
	DiscountCents   int64
	TotalCents      int64
	DiscountMessage string // rejection reason when a code was supplied but not applied
}

// RequiresPayment reports whether an external payment transaction is needed.
// A settlement with confirmed items that nets to zero still goes through the
// zero-amount confirmation path.
func (s *SettlementSummary) RequiresPayment() bool {
	return s.TotalCents > 0
}
