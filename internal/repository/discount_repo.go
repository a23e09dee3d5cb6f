package repository

import (
	"database/sql"
	"fmt"

	"tripnest/internal/database"
	"tripnest/internal/models"
)

// DiscountRepository looks up discount codes for the settlement projection
type DiscountRepository struct {
	db *database.DB
}

// NewDiscountRepository creates a new discount repository
func NewDiscountRepository(db *database.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

const discountColumns = "id, code, amount_cents, active, valid_from, valid_until, max_redemptions, redemptions, created_at"

// GetCode retrieves a discount code, returning nil when absent
func (r *DiscountRepository) GetCode(code string) (*models.DiscountCode, error) {
	query := "SELECT " + discountColumns + " FROM discount_codes WHERE code = ?"
	discount := &models.DiscountCode{}
	err := r.db.QueryRow(query, code).Scan(
		&discount.ID,
		&discount.Code,
		&discount.AmountCents,
		&discount.Active,
		&discount.ValidFrom,
		&discount.ValidUntil,
		&discount.MaxRedemptions,
		&discount.Redemptions,
		&discount.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discount code: %w", err)
	}
	return discount, nil
}

// RedeemCode increments the redemption counter, guarded against exceeding
// the redemption cap under concurrent settlements
func (r *DiscountRepository) RedeemCode(code string) error {
	query := `UPDATE discount_codes SET redemptions = redemptions + 1
		WHERE code = ? AND (max_redemptions = 0 OR redemptions < max_redemptions)`
	result, err := r.db.Exec(query, code)
	if err != nil {
		return fmt.Errorf("failed to redeem discount code: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check redemption: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("discount code %s has no redemptions left", code)
	}
	return nil
}
