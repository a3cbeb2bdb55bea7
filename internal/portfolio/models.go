package portfolio

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CreditRecord is one persisted carbon credit evaluation
type CreditRecord struct {
	ID                    uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID                string    `json:"user_id" gorm:"not null;index"`
	EvidenceID            string    `json:"evidence_id" gorm:"not null;index"`
	Standard              string    `json:"standard" gorm:"not null;index"`
	TonnesCO2             float64   `json:"tonnes_co2" gorm:"type:decimal(12,4);not null"`
	AnnualTonnes          float64   `json:"annual_tonnes" gorm:"type:decimal(12,4);not null"`
	ProjectLifetimeYears  int       `json:"project_lifetime_years" gorm:"not null"`
	BufferPercentage      float64   `json:"buffer_percentage" gorm:"type:decimal(4,2)"`
	GrossValueUSD         float64   `json:"gross_value_usd" gorm:"type:decimal(12,2)"`
	NetValueUSD           float64   `json:"net_value_usd" gorm:"type:decimal(12,2)"`
	VerificationCostUSD   float64   `json:"verification_cost_usd" gorm:"type:decimal(12,2)"`
	PoolingFeeUSD         float64   `json:"pooling_fee_usd" gorm:"type:decimal(12,2)"`
	Status                string    `json:"status" gorm:"not null;index"`
	Approach              string    `json:"approach" gorm:"not null"`
	EstimatedIssuance     time.Time `json:"estimated_issuance"`
	Sector                string    `json:"sector" gorm:"index"`
	AdditionalityVerified bool      `json:"additionality_verified"`
	CreatedAt             time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the gorm table name
func (CreditRecord) TableName() string {
	return "carbon_credits"
}

// PoolRun is one persisted per-standard pool produced by a pooling sweep
type PoolRun struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PoolName         string         `json:"pool_name" gorm:"not null;index"`
	Standard         string         `json:"standard" gorm:"not null"`
	ParticipantCount int            `json:"participant_count" gorm:"not null"`
	TotalTonnesCO2   float64        `json:"total_tonnes_co2" gorm:"type:decimal(14,3)"`
	TotalGrossUSD    float64        `json:"total_gross_usd" gorm:"type:decimal(14,2)"`
	TotalNetUSD      float64        `json:"total_net_usd" gorm:"type:decimal(14,2)"`
	Participants     datatypes.JSON `json:"participants" gorm:"default:'[]'"`
	CreatedAt        time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the gorm table name
func (PoolRun) TableName() string {
	return "credit_pool_runs"
}

// PortfolioResponse summarises a user's carbon credit holdings
type PortfolioResponse struct {
	UserID            string          `json:"user_id"`
	Credits           []*CreditRecord `json:"credits"`
	TotalCredits      int             `json:"total_credits"`
	TotalTonnesCO2    float64         `json:"total_tonnes_co2"`
	TotalNetValueUSD  float64         `json:"total_net_value_usd"`
	EligibleCount     int             `json:"eligible_count"`
	PoolingCount      int             `json:"pooling_count"`
	PendingCount      int             `json:"pending_count"`
	StandardBreakdown map[string]int  `json:"standard_breakdown"`
}
