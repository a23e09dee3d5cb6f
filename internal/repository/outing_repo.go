package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tripnest/internal/database"
	"tripnest/internal/models"
)

// OutingChildTables lists the sub-collections deleted when an outing is
// cancelled, in FK-safe order. Cascading is an explicit batch over this
// list rather than a database cascade feature, so the set of dependent
// tables stays visible and testable.
var OutingChildTables = []string{
	"activity_requests",
	"itinerary_items",
	"itineraries",
	"evaluations",
	"memories",
}

// OutingRepository handles database operations for outings
type OutingRepository struct {
	db *database.DB
}

// NewOutingRepository creates a new outing repository
func NewOutingRepository(db *database.DB) *OutingRepository {
	return &OutingRepository{db: db}
}

const outingColumns = "id, family_head_id, title, start_date, end_date, participant_ids, status, evaluation_submitted, shared, share_token, created_at, updated_at"

func scanOuting(row interface{ Scan(...interface{}) error }) (*models.Outing, error) {
	outing := &models.Outing{}
	var participantsJSON string
	err := row.Scan(
		&outing.ID,
		&outing.FamilyHeadID,
		&outing.Title,
		&outing.StartDate,
		&outing.EndDate,
		&participantsJSON,
		&outing.Status,
		&outing.EvaluationSubmitted,
		&outing.Shared,
		&outing.ShareToken,
		&outing.CreatedAt,
		&outing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(participantsJSON), &outing.ParticipantIDs); err != nil {
		return nil, fmt.Errorf("failed to decode participant list: %w", err)
	}
	// The head is always a participant, stored or not
	outing.ParticipantIDs = outing.NormalizeParticipants()
	return outing, nil
}

func encodeParticipants(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode participant list: %w", err)
	}
	return string(data), nil
}

// CreateOuting inserts a new outing owned by the family head
func (r *OutingRepository) CreateOuting(familyHeadID int64, title string, startDate time.Time, endDate *time.Time, participantIDs []int64) (*models.Outing, error) {
	outing := &models.Outing{FamilyHeadID: familyHeadID, ParticipantIDs: participantIDs}
	participantsJSON, err := encodeParticipants(outing.NormalizeParticipants())
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO outings (family_head_id, title, start_date, end_date, participant_ids, status)
		VALUES (?, ?, ?, ?, ?, 'planned')`
	id, err := r.db.ExecReturningID(query, familyHeadID, title, startDate, endDate, participantsJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to create outing: %w", err)
	}

	return r.GetOuting(familyHeadID, id)
}

// GetOuting retrieves an outing scoped to its owning family head,
// returning nil when absent or owned by another family
func (r *OutingRepository) GetOuting(familyHeadID, outingID int64) (*models.Outing, error) {
	query := "SELECT " + outingColumns + " FROM outings WHERE id = ? AND family_head_id = ?"
	outing, err := scanOuting(r.db.QueryRow(query, outingID, familyHeadID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outing: %w", err)
	}
	return outing, nil
}

// GetOutingByShareToken retrieves an outing by its share token regardless of
// family scope. Used by the read-only shared view.
func (r *OutingRepository) GetOutingByShareToken(token string) (*models.Outing, error) {
	query := "SELECT " + outingColumns + " FROM outings WHERE shared = ? AND share_token = ?"
	outing, err := scanOuting(r.db.QueryRow(query, true, token))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outing by share token: %w", err)
	}
	return outing, nil
}

// ListOutings retrieves all outings of a family, newest first
func (r *OutingRepository) ListOutings(familyHeadID int64) ([]models.Outing, error) {
	query := "SELECT " + outingColumns + " FROM outings WHERE family_head_id = ? ORDER BY start_date DESC"
	rows, err := r.db.Query(query, familyHeadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outings: %w", err)
	}
	defer rows.Close()

	var outings []models.Outing
	for rows.Next() {
		outing, err := scanOuting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outing: %w", err)
		}
		outings = append(outings, *outing)
	}

	return outings, rows.Err()
}

// UpdateParticipants replaces the participant list
func (r *OutingRepository) UpdateParticipants(familyHeadID, outingID int64, participantIDs []int64) error {
	outing := &models.Outing{FamilyHeadID: familyHeadID, ParticipantIDs: participantIDs}
	participantsJSON, err := encodeParticipants(outing.NormalizeParticipants())
	if err != nil {
		return err
	}

	query := "UPDATE outings SET participant_ids = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND family_head_id = ?"
	if _, err := r.db.Exec(query, participantsJSON, outingID, familyHeadID); err != nil {
		return fmt.Errorf("failed to update participants: %w", err)
	}
	return nil
}

// UpdateStatus sets the coarse outing status
func (r *OutingRepository) UpdateStatus(familyHeadID, outingID int64, status models.OutingStatus) error {
	query := "UPDATE outings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND family_head_id = ?"
	if _, err := r.db.Exec(query, status, outingID, familyHeadID); err != nil {
		return fmt.Errorf("failed to update outing status: %w", err)
	}
	return nil
}

// SetEvaluationSubmitted marks the outing's evaluation as submitted.
// Runs inside the evaluation-submit transaction.
func (r *OutingRepository) SetEvaluationSubmitted(tx *database.Tx, outingID int64) error {
	query := "UPDATE outings SET evaluation_submitted = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := tx.Exec(query, true, outingID); err != nil {
		return fmt.Errorf("failed to mark evaluation submitted: %w", err)
	}
	return nil
}

// SetShared enables or disables sharing with the given token
func (r *OutingRepository) SetShared(familyHeadID, outingID int64, shared bool, token string) error {
	query := "UPDATE outings SET shared = ?, share_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND family_head_id = ?"
	if _, err := r.db.Exec(query, shared, token, outingID, familyHeadID); err != nil {
		return fmt.Errorf("failed to update sharing: %w", err)
	}
	return nil
}

// CancelOuting deletes the outing document and every record in its
// sub-collections, and writes the cancellation audit record, all within a
// single transaction. Partial deletion is a correctness bug, so any failure
// rolls the whole batch back.
func (r *OutingRepository) CancelOuting(familyHeadID, outingID, requestedBy int64, reason string) error {
	return r.cancelOuting(OutingChildTables, familyHeadID, outingID, requestedBy, reason)
}

func (r *OutingRepository) cancelOuting(childTables []string, familyHeadID, outingID, requestedBy int64, reason string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range childTables {
		query := fmt.Sprintf("DELETE FROM %s WHERE outing_id = ?", table)
		if _, err := tx.Exec(query, outingID); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	query := "INSERT INTO outing_cancellations (outing_id, requested_by, reason) VALUES (?, ?, ?)"
	if _, err := tx.Exec(query, outingID, requestedBy, reason); err != nil {
		return fmt.Errorf("failed to record cancellation: %w", err)
	}

	query = "DELETE FROM outings WHERE id = ? AND family_head_id = ?"
	if _, err := tx.Exec(query, outingID, familyHeadID); err != nil {
		return fmt.Errorf("failed to delete outing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return nil
}

// GetCancellation retrieves the audit record for a cancelled outing,
// returning nil when absent
func (r *OutingRepository) GetCancellation(outingID int64) (*models.OutingCancellation, error) {
	query := "SELECT id, outing_id, requested_by, reason, cancelled_at FROM outing_cancellations WHERE outing_id = ?"
	record := &models.OutingCancellation{}
	err := r.db.QueryRow(query, outingID).Scan(
		&record.ID,
		&record.OutingID,
		&record.RequestedBy,
		&record.Reason,
		&record.CancelledAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cancellation record: %w", err)
	}
	return record, nil
}
