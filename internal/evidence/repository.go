package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines the interface for evidence data access
type Repository interface {
	CreateSubmission(ctx context.Context, submission *Submission) error
	GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error)
	UpdateSubmissionResult(ctx context.Context, submission *Submission) error
	ListUserSubmissions(ctx context.Context, userID string, limit int) ([]*Submission, error)
	GetUserStats(ctx context.Context, userID string, vendor string, amountKES float64) (*UserStats, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateSubmission(ctx context.Context, submission *Submission) error {
	query := `
		INSERT INTO evidence_submissions (
			id, user_id, sector, region, action_type, amount_kes, vendor,
			items, labels, latitude, longitude, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		submission.ID, submission.UserID, submission.Sector, submission.Region,
		submission.ActionType, submission.AmountKES, submission.Vendor,
		submission.Items, submission.Labels, submission.Latitude, submission.Longitude,
		submission.Status, submission.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	var submission Submission

	query := `SELECT * FROM evidence_submissions WHERE id = $1`
	err := r.db.GetContext(ctx, &submission, query, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("submission not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &submission, nil
}

func (r *PostgresRepository) UpdateSubmissionResult(ctx context.Context, submission *Submission) error {
	query := `
		UPDATE evidence_submissions SET
			status = $2, greenscore = $3, co2_kg_total = $4, confidence = $5,
			review_case_id = $6, result = $7, processed_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		submission.ID, submission.Status, submission.GreenScore,
		submission.CO2KgTotal, submission.Confidence, submission.ReviewCaseID,
		submission.Result, submission.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("submission not found")
	}

	return nil
}

func (r *PostgresRepository) ListUserSubmissions(ctx context.Context, userID string, limit int) ([]*Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	var submissions []*Submission
	query := `
		SELECT * FROM evidence_submissions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &submissions, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return submissions, nil
}

// GetUserStats gathers the credibility and fraud inputs in one round
// trip. Similar submissions are same vendor within 10% of the amount in
// the last 30 days.
func (r *PostgresRepository) GetUserStats(ctx context.Context, userID string, vendor string, amountKES float64) (*UserStats, error) {
	var stats UserStats

	query := `
		SELECT
			COALESCE(EXTRACT(DAY FROM now() - u.created_at)::int, 0) AS account_age_days,
			COALESCE(u.fraud_flags, 0) AS fraud_flags,
			COALESCE(u.phone_verified, false) AS phone_verified,
			COALESCE(u.business_registered, false) AS business_registered,
			u.business_latitude,
			u.business_longitude,
			(SELECT COUNT(*) FROM evidence_submissions s
				WHERE s.user_id = u.id AND s.status != 'processing') AS total_submissions,
			(SELECT COUNT(*) FROM evidence_submissions s
				WHERE s.user_id = u.id AND s.status = 'completed') AS approved_submissions,
			(SELECT COUNT(*) FROM evidence_submissions s
				WHERE s.user_id = u.id AND s.created_at > $2) AS submissions_last_24h,
			(SELECT COUNT(*) FROM evidence_submissions s
				WHERE s.user_id = u.id AND s.vendor = $3
				AND s.amount_kes BETWEEN $4 * 0.9 AND $4 * 1.1
				AND s.created_at > $5) AS similar_submissions
		FROM users u
		WHERE u.id = $1
	`

	now := time.Now()
	err := r.db.GetContext(ctx, &stats, query,
		userID, now.Add(-24*time.Hour), vendor, amountKES, now.AddDate(0, 0, -30))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	return &stats, nil
}
