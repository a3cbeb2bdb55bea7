package scores

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines the interface for score data access
type Repository interface {
	InsertScore(ctx context.Context, record *Record) error
	GetLatestScore(ctx context.Context, userID string) (*Record, error)
	ListScores(ctx context.Context, userID string, limit int) ([]*Record, error)
	GetSectorStats(ctx context.Context, sector string) (*SectorStats, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertScore(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO greenscores (
			id, user_id, evidence_id, greenscore, subscores, co2_saved_tonnes,
			confidence, explainers, actions, provenance, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.UserID, record.EvidenceID, record.GreenScore,
		record.Subscores, record.CO2SavedTonnes, record.Confidence,
		record.Explainers, record.Actions, record.Provenance, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetLatestScore(ctx context.Context, userID string) (*Record, error) {
	var record Record

	query := `
		SELECT * FROM greenscores
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &record, query, userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no scores found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest score: %w", err)
	}

	return &record, nil
}

func (r *PostgresRepository) ListScores(ctx context.Context, userID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []*Record
	query := `
		SELECT * FROM greenscores
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &records, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}

	return records, nil
}

// GetSectorStats aggregates score statistics per sector from each
// user's latest score, plus the average credit net value.
func (r *PostgresRepository) GetSectorStats(ctx context.Context, sector string) (*SectorStats, error) {
	var stats SectorStats

	query := `
		WITH latest AS (
			SELECT DISTINCT ON (g.user_id)
				g.user_id, g.greenscore, g.co2_saved_tonnes
			FROM greenscores g
			JOIN evidence_submissions e ON e.id::text = g.evidence_id
			WHERE e.sector = $1
			ORDER BY g.user_id, g.created_at DESC
		)
		SELECT
			$1 AS sector,
			COUNT(*) AS user_count,
			COALESCE(AVG(greenscore), 0) AS avg_greenscore,
			COALESCE(STDDEV_POP(greenscore), 0) AS std_greenscore,
			COALESCE(AVG(co2_saved_tonnes), 0) AS avg_co2_tonnes,
			COALESCE((
				SELECT AVG(c.net_value_usd) FROM carbon_credits c
				JOIN evidence_submissions e2 ON e2.id::text = c.evidence_id
				WHERE e2.sector = $1
			), 0) AS avg_credit_usd
		FROM latest
	`
	if err := r.db.GetContext(ctx, &stats, query, sector); err != nil {
		return nil, fmt.Errorf("failed to get sector stats: %w", err)
	}

	return &stats, nil
}
