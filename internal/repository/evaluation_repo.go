package repository

import (
	"database/sql"
	"fmt"

	"tripnest/internal/database"
	"tripnest/internal/models"
)

// EvaluationRepository handles database operations for outing evaluations
// and memories
type EvaluationRepository struct {
	db *database.DB
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db *database.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// SubmitEvaluation inserts the evaluation and flips the outing's
// evaluation_submitted flag in the same transaction, so the journey gate
// and the stored review can never disagree
func (r *EvaluationRepository) SubmitEvaluation(outings *OutingRepository, outingID, submittedBy int64, rating int, comment string) (*models.Evaluation, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "INSERT INTO evaluations (outing_id, submitted_by, rating, comment) VALUES (?, ?, ?, ?)"
	id, err := tx.ExecReturningID(query, outingID, submittedBy, rating, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to insert evaluation: %w", err)
	}

	if err := outings.SetEvaluationSubmitted(tx, outingID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit evaluation: %w", err)
	}

	return r.GetEvaluationByID(id)
}

// GetEvaluationByID retrieves an evaluation, returning nil when absent
func (r *EvaluationRepository) GetEvaluationByID(evaluationID int64) (*models.Evaluation, error) {
	query := "SELECT id, outing_id, submitted_by, rating, comment, submitted_at FROM evaluations WHERE id = ?"
	return r.scanOne(r.db.QueryRow(query, evaluationID))
}

// GetEvaluation retrieves the outing's evaluation, returning nil when absent
func (r *EvaluationRepository) GetEvaluation(outingID int64) (*models.Evaluation, error) {
	query := "SELECT id, outing_id, submitted_by, rating, comment, submitted_at FROM evaluations WHERE outing_id = ?"
	return r.scanOne(r.db.QueryRow(query, outingID))
}

func (r *EvaluationRepository) scanOne(row *sql.Row) (*models.Evaluation, error) {
	evaluation := &models.Evaluation{}
	err := row.Scan(
		&evaluation.ID,
		&evaluation.OutingID,
		&evaluation.SubmittedBy,
		&evaluation.Rating,
		&evaluation.Comment,
		&evaluation.SubmittedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return evaluation, nil
}

// AddMemory inserts a memory record for an outing
func (r *EvaluationRepository) AddMemory(outingID, createdBy int64, kind, mediaURL, caption string) (*models.Memory, error) {
	query := "INSERT INTO memories (outing_id, created_by, kind, media_url, caption) VALUES (?, ?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, outingID, createdBy, kind, mediaURL, caption)
	if err != nil {
		return nil, fmt.Errorf("failed to add memory: %w", err)
	}

	memory := &models.Memory{}
	query = "SELECT id, outing_id, created_by, kind, media_url, caption, created_at FROM memories WHERE id = ?"
	err = r.db.QueryRow(query, id).Scan(
		&memory.ID,
		&memory.OutingID,
		&memory.CreatedBy,
		&memory.Kind,
		&memory.MediaURL,
		&memory.Caption,
		&memory.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return memory, nil
}

// ListMemories retrieves all memories for an outing, newest first
func (r *EvaluationRepository) ListMemories(outingID int64) ([]models.Memory, error) {
	query := "SELECT id, outing_id, created_by, kind, media_url, caption, created_at FROM memories WHERE outing_id = ? ORDER BY created_at DESC, id DESC"
	rows, err := r.db.Query(query, outingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var memories []models.Memory
	for rows.Next() {
		var memory models.Memory
		if err := rows.Scan(&memory.ID, &memory.OutingID, &memory.CreatedBy, &memory.Kind, &memory.MediaURL, &memory.Caption, &memory.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, memory)
	}

	return memories, rows.Err()
}

// CountMemories counts the memories attached to an outing
func (r *EvaluationRepository) CountMemories(outingID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM memories WHERE outing_id = ?", outingID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return count, nil
}
