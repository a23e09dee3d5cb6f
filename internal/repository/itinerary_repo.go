package repository

import (
	"database/sql"
	"fmt"

	"tripnest/internal/database"
	"tripnest/internal/models"
)

// ItineraryRepository handles database operations for saved itineraries.
// An itinerary row only exists once a user has explicitly saved one, which
// is exactly the fact the journey gate needs.
type ItineraryRepository struct {
	db *database.DB
}

// NewItineraryRepository creates a new itinerary repository
func NewItineraryRepository(db *database.DB) *ItineraryRepository {
	return &ItineraryRepository{db: db}
}

// HasItinerary reports whether the outing has an explicitly saved itinerary
func (r *ItineraryRepository) HasItinerary(outingID int64) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM itineraries WHERE outing_id = ?", outingID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count itineraries: %w", err)
	}
	return count > 0, nil
}

// GetItinerary retrieves the outing's itinerary with its items, returning
// nil when none has been saved
func (r *ItineraryRepository) GetItinerary(outingID int64) (*models.Itinerary, error) {
	query := "SELECT id, outing_id, saved_by, created_at, updated_at FROM itineraries WHERE outing_id = ?"
	itinerary := &models.Itinerary{}
	err := r.db.QueryRow(query, outingID).Scan(
		&itinerary.ID,
		&itinerary.OutingID,
		&itinerary.SavedBy,
		&itinerary.CreatedAt,
		&itinerary.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get itinerary: %w", err)
	}

	itemsQuery := `SELECT id, itinerary_id, activity_id, title, day, position, start_time, note
		FROM itinerary_items WHERE itinerary_id = ? ORDER BY day ASC, position ASC`
	rows, err := r.db.Query(itemsQuery, itinerary.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query itinerary items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.ItineraryItem
		if err := rows.Scan(&item.ID, &item.ItineraryID, &item.ActivityID, &item.Title, &item.Day, &item.Position, &item.StartTime, &item.Note); err != nil {
			return nil, fmt.Errorf("failed to scan itinerary item: %w", err)
		}
		itinerary.Items = append(itinerary.Items, item)
	}

	return itinerary, rows.Err()
}

// SaveItinerary creates or replaces the outing's itinerary and all of its
// items in a single transaction. The bulk replace is all-or-nothing: a
// failure mid-save leaves the previous itinerary intact.
func (r *ItineraryRepository) SaveItinerary(outingID, savedBy int64, items []models.ItineraryItem) (*models.Itinerary, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var itineraryID int64
	err = tx.QueryRow("SELECT id FROM itineraries WHERE outing_id = ?", outingID).Scan(&itineraryID)
	switch {
	case err == sql.ErrNoRows:
		itineraryID, err = tx.ExecReturningID(
			"INSERT INTO itineraries (outing_id, saved_by) VALUES (?, ?)", outingID, savedBy)
		if err != nil {
			return nil, fmt.Errorf("failed to create itinerary: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up itinerary: %w", err)
	default:
		if _, err := tx.Exec("UPDATE itineraries SET saved_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", savedBy, itineraryID); err != nil {
			return nil, fmt.Errorf("failed to update itinerary: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM itinerary_items WHERE itinerary_id = ?", itineraryID); err != nil {
			return nil, fmt.Errorf("failed to clear itinerary items: %w", err)
		}
	}

	insertQuery := `INSERT INTO itinerary_items (itinerary_id, outing_id, activity_id, title, day, position, start_time, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, item := range items {
		if _, err := tx.Exec(insertQuery, itineraryID, outingID, item.ActivityID, item.Title, item.Day, item.Position, item.StartTime, item.Note); err != nil {
			return nil, fmt.Errorf("failed to insert itinerary item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit itinerary: %w", err)
	}

	return r.GetItinerary(outingID)
}
