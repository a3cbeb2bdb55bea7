package credits

import (
	"time"

	"github.com/google/uuid"
)

// Credit standards supported by the aggregator.
const (
	StandardVCS          = "VCS"
	StandardGoldStandard = "Gold_Standard"
	StandardCDM          = "CDM"
)

// Credit statuses.
const (
	StatusEligible            = "eligible"
	StatusPoolingEligible     = "pooling_eligible"
	StatusPendingVerification = "pending_verification"
)

// Registration approaches.
const (
	ApproachIndividual = "individual"
	ApproachPooled     = "pooled"
)

// Credit is one standard's eligibility and valuation for a single
// evidence item. At most one Credit per standard is produced; absence
// means the standard's minimum tonnage was not met.
type Credit struct {
	ID                    uuid.UUID `json:"id"`
	UserID                string    `json:"user_id"`
	EvidenceID            string    `json:"evidence_id"`
	Standard              string    `json:"standard"`
	TonnesCO2             float64   `json:"tonnes_co2"`
	AnnualTonnes          float64   `json:"annual_tonnes"`
	ProjectLifetimeYears  int       `json:"project_lifetime_years"`
	BufferPercentage      float64   `json:"buffer_percentage"`
	GrossValueUSD         float64   `json:"gross_value_usd"`
	NetValueUSD           float64   `json:"net_value_usd"`
	VerificationCostUSD   float64   `json:"verification_cost_usd"`
	PoolingFeeUSD         float64   `json:"pooling_fee_usd"`
	Status                string    `json:"status"`
	Approach              string    `json:"approach"`
	EstimatedIssuance     time.Time `json:"estimated_issuance"`
	Sector                string    `json:"sector"`
	AdditionalityVerified bool      `json:"additionality_verified"`
	CreatedAt             time.Time `json:"created_at"`
}

// PoolParticipant is one member's line item within a pooled project.
type PoolParticipant struct {
	UserID   string  `json:"user_id"`
	Tonnes   float64 `json:"tonnes"`
	ValueUSD float64 `json:"value_usd"`
	Sector   string  `json:"sector"`
}

// StandardPool is the per-standard summary of a pooled project.
type StandardPool struct {
	PoolName                     string            `json:"pool_name"`
	ParticipantCount             int               `json:"participant_count"`
	TotalTonnesCO2               float64           `json:"total_tonnes_co2"`
	TotalGrossValueUSD           float64           `json:"total_gross_value_usd"`
	TotalNetValueUSD             float64           `json:"total_net_value_usd"`
	AverageTonnesPerParticipant  float64           `json:"average_tonnes_per_participant"`
	Participants                 []PoolParticipant `json:"participants"`
}

// PoolResult is the output of aggregating pooling-eligible credits.
type PoolResult struct {
	Status            string                  `json:"status"`
	Pools             map[string]StandardPool `json:"pools,omitempty"`
	TotalParticipants int                     `json:"total_participants"`
	TotalTonnes       float64                 `json:"total_tonnes"`
	TotalValue        float64                 `json:"total_value"`
}

// Recommendation advises a user on their best carbon credit strategy.
type Recommendation struct {
	Recommendation       string   `json:"recommendation,omitempty"`
	Message              string   `json:"message,omitempty"`
	MinAnnualCO2NeededKg float64  `json:"min_annual_co2_needed,omitempty"`
	PendingCredits       int      `json:"pending_credits,omitempty"`
	RecommendedStandard  string   `json:"recommended_standard,omitempty"`
	Approach             string   `json:"approach,omitempty"`
	EstimatedAnnualValue float64  `json:"estimated_annual_value,omitempty"`
	TotalProjectValue    float64  `json:"total_project_value,omitempty"`
	TimelineMonths       int      `json:"timeline_months,omitempty"`
	NextSteps            []string `json:"next_steps,omitempty"`
}
