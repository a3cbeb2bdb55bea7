package evidence

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SubmissionStatus represents the processing state of one evidence item
type SubmissionStatus string

const (
	StatusProcessing    SubmissionStatus = "processing"
	StatusCompleted     SubmissionStatus = "completed"
	StatusReviewPending SubmissionStatus = "review_pending"
	StatusFailed        SubmissionStatus = "failed"
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

// Submission is one uploaded piece of green-investment evidence and its
// processing outcome. Raw images never reach this service; only the
// extracted receipt fields do.
type Submission struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	UserID       string           `db:"user_id" json:"user_id"`
	Sector       string           `db:"sector" json:"sector"`
	Region       string           `db:"region" json:"region"`
	ActionType   string           `db:"action_type" json:"action_type"`
	AmountKES    float64          `db:"amount_kes" json:"amount_kes"`
	Vendor       string           `db:"vendor" json:"vendor"`
	Items        pq.StringArray   `db:"items" json:"items"`
	Labels       pq.StringArray   `db:"labels" json:"labels"`
	Latitude     *float64         `db:"latitude" json:"latitude,omitempty"`
	Longitude    *float64         `db:"longitude" json:"longitude,omitempty"`
	Status       SubmissionStatus `db:"status" json:"status"`
	GreenScore   *int             `db:"greenscore" json:"greenscore,omitempty"`
	CO2KgTotal   *float64         `db:"co2_kg_total" json:"co2_kg_total,omitempty"`
	Confidence   *float64         `db:"confidence" json:"confidence,omitempty"`
	ReviewCaseID *string          `db:"review_case_id" json:"review_case_id,omitempty"`
	Result       JSONB            `db:"result" json:"result,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
}

// UserStats summarizes a user's submission record for credibility and
// fraud checks.
type UserStats struct {
	AccountAgeDays      int     `db:"account_age_days"`
	TotalSubmissions    int     `db:"total_submissions"`
	ApprovedSubmissions int     `db:"approved_submissions"`
	FraudFlags          int     `db:"fraud_flags"`
	SubmissionsLast24h  int     `db:"submissions_last_24h"`
	SimilarSubmissions  int     `db:"similar_submissions"`
	PhoneVerified       bool    `db:"phone_verified"`
	BusinessRegistered  bool    `db:"business_registered"`
	BusinessLatitude    *float64 `db:"business_latitude"`
	BusinessLongitude   *float64 `db:"business_longitude"`
}

// ProcessRequest is the evidence processing request body
type ProcessRequest struct {
	Sector               string   `json:"sector" binding:"required"`
	Region               string   `json:"region"`
	ActionType           string   `json:"action_type" binding:"required"`
	AmountKES            float64  `json:"amount_kes" binding:"required,gt=0"`
	Vendor               string   `json:"vendor"`
	Items                []string `json:"items"`
	Labels               []string `json:"labels"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`
	ProjectLifetimeYears int      `json:"project_lifetime_years"`
}

// ProcessResponse is returned synchronously after a processing run
type ProcessResponse struct {
	EvidenceID     string   `json:"evidence_id"`
	Status         string   `json:"status"`
	GreenScore     int      `json:"greenscore"`
	CO2KgTotal     float64  `json:"co2_kg_total"`
	Confidence     float64  `json:"confidence"`
	CreditsCount   int      `json:"credits_count"`
	ReviewRequired bool     `json:"review_required"`
	ReviewCaseID   string   `json:"review_case_id,omitempty"`
	Explainers     []string `json:"explainers"`
	Actions        []string `json:"actions"`
	Summary        string   `json:"summary,omitempty"`
}
