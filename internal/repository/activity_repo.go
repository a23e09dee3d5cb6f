package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"tripnest/internal/database"
	"tripnest/internal/models"
)

// ActivityRepository reads the activity catalog. The catalog is maintained
// elsewhere; this service only ever looks activities up.
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = "id, name, price_cents, location, category, created_at"

func scanActivity(row interface{ Scan(...interface{}) error }) (*models.Activity, error) {
	activity := &models.Activity{}
	err := row.Scan(
		&activity.ID,
		&activity.Name,
		&activity.PriceCents,
		&activity.Location,
		&activity.Category,
		&activity.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// GetActivityByID retrieves a catalog entry, returning nil when absent
func (r *ActivityRepository) GetActivityByID(activityID int64) (*models.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities WHERE id = ?"
	activity, err := scanActivity(r.db.QueryRow(query, activityID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

// GetActivitiesByIDs retrieves multiple catalog entries in one query, keyed by id
func (r *ActivityRepository) GetActivitiesByIDs(activityIDs []int64) (map[int64]*models.Activity, error) {
	activities := make(map[int64]*models.Activity, len(activityIDs))
	if len(activityIDs) == 0 {
		return activities, nil
	}

	placeholders := make([]string, len(activityIDs))
	args := make([]interface{}, len(activityIDs))
	for i, id := range activityIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := "SELECT " + activityColumns + " FROM activities WHERE id IN (" + strings.Join(placeholders, ", ") + ")"
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities[activity.ID] = activity
	}

	return activities, rows.Err()
}

// ListActivities retrieves the full catalog for suggestion browsing
func (r *ActivityRepository) ListActivities() ([]models.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities ORDER BY name ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *activity)
	}

	return activities, rows.Err()
}

// CreateActivity inserts a catalog entry. Used by seeding and tests.
func (r *ActivityRepository) CreateActivity(name string, priceCents int64, location, category string) (*models.Activity, error) {
	query := "INSERT INTO activities (name, price_cents, location, category) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, name, priceCents, location, category)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return r.GetActivityByID(id)
}
