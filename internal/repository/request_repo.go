package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"tripnest/internal/database"
	"tripnest/internal/models"
)

// ActivityRequestRepository handles database operations for activity
// proposals. The vote map and the status derived from it are always written
// in the same statement, so a reader never observes a status computed from
// a different vote map than the one stored next to it.
type ActivityRequestRepository struct {
	db *database.DB
}

// NewActivityRequestRepository creates a new activity request repository
func NewActivityRequestRepository(db *database.DB) *ActivityRequestRepository {
	return &ActivityRequestRepository{db: db}
}

const requestColumns = "id, outing_id, activity_id, status, votes, created_by_uid, created_by_role, paid, requested_at"

func scanRequest(row interface{ Scan(...interface{}) error }) (*models.ActivityRequest, error) {
	request := &models.ActivityRequest{}
	var votesJSON string
	err := row.Scan(
		&request.ID,
		&request.OutingID,
		&request.ActivityID,
		&request.Status,
		&votesJSON,
		&request.CreatedByUID,
		&request.CreatedByRole,
		&request.Paid,
		&request.RequestedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(votesJSON), &request.Votes); err != nil {
		return nil, fmt.Errorf("failed to decode vote map: %w", err)
	}
	return request, nil
}

func encodeVotes(votes models.VoteMap) (string, error) {
	if votes == nil {
		votes = models.VoteMap{}
	}
	data, err := json.Marshal(votes)
	if err != nil {
		return "", fmt.Errorf("failed to encode vote map: %w", err)
	}
	return string(data), nil
}

// CreateRequest inserts a new proposal. The UNIQUE(outing_id, activity_id)
// constraint is the backstop for duplicate proposals racing past the
// service-level existence check.
func (r *ActivityRequestRepository) CreateRequest(outingID, activityID, createdByUID int64, createdByRole models.Role, votes models.VoteMap) (*models.ActivityRequest, error) {
	votesJSON, err := encodeVotes(votes)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO activity_requests (outing_id, activity_id, status, votes, created_by_uid, created_by_role)
		VALUES (?, ?, 'pending', ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, outingID, activityID, votesJSON, createdByUID, createdByRole)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity request: %w", err)
	}

	return r.GetRequestByID(id)
}

// GetRequestByID retrieves a proposal by primary key, returning nil when absent
func (r *ActivityRequestRepository) GetRequestByID(requestID int64) (*models.ActivityRequest, error) {
	query := "SELECT " + requestColumns + " FROM activity_requests WHERE id = ?"
	request, err := scanRequest(r.db.QueryRow(query, requestID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity request: %w", err)
	}
	return request, nil
}

// GetRequest retrieves the proposal for an activity within an outing,
// returning nil when the activity has not been proposed
func (r *ActivityRequestRepository) GetRequest(outingID, activityID int64) (*models.ActivityRequest, error) {
	query := "SELECT " + requestColumns + " FROM activity_requests WHERE outing_id = ? AND activity_id = ?"
	request, err := scanRequest(r.db.QueryRow(query, outingID, activityID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity request: %w", err)
	}
	return request, nil
}

// ListRequests retrieves all proposals for an outing, oldest first
func (r *ActivityRequestRepository) ListRequests(outingID int64) ([]models.ActivityRequest, error) {
	query := "SELECT " + requestColumns + " FROM activity_requests WHERE outing_id = ? ORDER BY requested_at ASC, id ASC"
	rows, err := r.db.Query(query, outingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity requests: %w", err)
	}
	defer rows.Close()

	var requests []models.ActivityRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity request: %w", err)
		}
		requests = append(requests, *request)
	}

	return requests, rows.Err()
}

// HasAnyRequest reports whether the outing has at least one proposal
func (r *ActivityRequestRepository) HasAnyRequest(outingID int64) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM activity_requests WHERE outing_id = ?", outingID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count activity requests: %w", err)
	}
	return count > 0, nil
}

// UpdateVotesAndStatus persists the vote map and its recomputed status in a
// single write
func (r *ActivityRequestRepository) UpdateVotesAndStatus(requestID int64, votes models.VoteMap, status models.RequestStatus) error {
	votesJSON, err := encodeVotes(votes)
	if err != nil {
		return err
	}

	query := "UPDATE activity_requests SET votes = ?, status = ? WHERE id = ?"
	if _, err := r.db.Exec(query, votesJSON, status, requestID); err != nil {
		return fmt.Errorf("failed to update votes: %w", err)
	}
	return nil
}

// SetStatus sets the proposal status directly. Reserved for the voting
// engine's override operations; nothing else writes status.
func (r *ActivityRequestRepository) SetStatus(requestID int64, status models.RequestStatus) error {
	query := "UPDATE activity_requests SET status = ? WHERE id = ?"
	if _, err := r.db.Exec(query, status, requestID); err != nil {
		return fmt.Errorf("failed to set request status: %w", err)
	}
	return nil
}

// MarkPaid sets paid on every listed activity's request within one
// transaction; a failure marks none of them
func (r *ActivityRequestRepository) MarkPaid(outingID int64, activityIDs []int64) error {
	if len(activityIDs) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(activityIDs))
	args := []interface{}{outingID}
	for i, id := range activityIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := "UPDATE activity_requests SET paid = ? WHERE outing_id = ? AND activity_id IN (" + strings.Join(placeholders, ", ") + ")"
	args = append([]interface{}{true}, args...)
	result, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark requests paid: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check marked rows: %w", err)
	}
	if affected != int64(len(activityIDs)) {
		return fmt.Errorf("expected to mark %d requests paid, matched %d", len(activityIDs), affected)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit paid marks: %w", err)
	}
	return nil
}
