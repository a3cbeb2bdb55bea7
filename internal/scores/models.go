package scores

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// JSONB is a Postgres jsonb column
type JSONB map[string]interface{}

// Value implements driver.Valuer
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Record is one persisted GreenScore computation. Records are
// append-only; a user's current score is simply their newest record.
type Record struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	UserID         string         `db:"user_id" json:"user_id"`
	EvidenceID     string         `db:"evidence_id" json:"evidence_id"`
	GreenScore     int            `db:"greenscore" json:"greenscore"`
	Subscores      JSONB          `db:"subscores" json:"subscores"`
	CO2SavedTonnes float64        `db:"co2_saved_tonnes" json:"co2_saved_tonnes"`
	Confidence     float64        `db:"confidence" json:"confidence"`
	Explainers     pq.StringArray `db:"explainers" json:"explainers"`
	Actions        pq.StringArray `db:"actions" json:"actions"`
	Provenance     JSONB          `db:"provenance" json:"provenance"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// Trend directions for score history.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// SectorStats are aggregate score statistics for one sector.
type SectorStats struct {
	Sector            string  `db:"sector" json:"sector"`
	UserCount         int     `db:"user_count" json:"user_count"`
	AverageGreenScore float64 `db:"avg_greenscore" json:"avg_greenscore"`
	StdGreenScore     float64 `db:"std_greenscore" json:"std_greenscore"`
	AverageCO2Tonnes  float64 `db:"avg_co2_tonnes" json:"avg_co2_tonnes"`
	AverageCreditUSD  float64 `db:"avg_credit_usd" json:"avg_credit_usd"`
}

// HistoryResponse is the score history payload with trend analysis
type HistoryResponse struct {
	Scores       []*Record `json:"scores"`
	Trend        string    `json:"trend"`
	CurrentScore int       `json:"current_score"`
	BestScore    int       `json:"best_score"`
	TotalCO2     float64   `json:"total_co2_tonnes"`
}
