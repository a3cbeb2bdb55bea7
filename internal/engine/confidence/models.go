package confidence

import (
	"time"

	"greencredit/greenscore-backend/internal/engine/credits"
	"greencredit/greenscore-backend/internal/engine/score"
)

// ReviewReason names why an assessment was routed to a human.
type ReviewReason string

const (
	ReasonLowConfidence    ReviewReason = "low_confidence"
	ReasonHighValueClaim   ReviewReason = "high_value_claim"
	ReasonInconsistentData ReviewReason = "inconsistent_data"
	ReasonFraudRisk        ReviewReason = "fraud_risk"
	ReasonNewUser          ReviewReason = "new_user"
	ReasonSectorOutlier    ReviewReason = "sector_outlier"
	ReasonManualRequest    ReviewReason = "manual_request"
)

// Review priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Component names in Assessment.Components.
const (
	ComponentAIProcessing      = "ai_processing"
	ComponentDataQuality       = "data_quality"
	ComponentUserCredibility   = "user_credibility"
	ComponentSectorConsistency = "sector_consistency"
	ComponentFraudRisk         = "fraud_risk"
)

// Outcome is the pipeline output the confidence manager evaluates: the
// orchestration's own confidence, the score, the credits, and how long
// processing took.
type Outcome struct {
	Confidence     float64
	Score          *score.Result
	Credits        []credits.Credit
	ProcessingTime time.Duration
}

// UserHistory carries the persistence layer's view of the submitting
// user. Use DefaultUserHistory for users with no record.
type UserHistory struct {
	AccountAgeDays        int
	PreviousSubmissions   int
	ApprovalRate          float64
	FraudFlags            int
	PhoneVerified         bool
	BusinessRegistered    bool
	SubmissionsLast24h    int
	SimilarEvidenceCount  int
	LocationInconsistency bool
}

// DefaultUserHistory is the neutral history assumed for unknown users.
func DefaultUserHistory() UserHistory {
	return UserHistory{ApprovalRate: 0.5}
}

// SectorContext carries the analytics layer's sector statistics.
type SectorContext struct {
	AverageGreenScore  float64
	StdGreenScore      float64
	AverageCreditValue float64
}

// DefaultSectorContext is used when no sector statistics are available.
func DefaultSectorContext() SectorContext {
	return SectorContext{
		AverageGreenScore:  50,
		StdGreenScore:      20,
		AverageCreditValue: 50,
	}
}

// Assessment is the transient review decision for one pipeline run. It
// is fully reproducible from its inputs and not persisted as an entity.
type Assessment struct {
	FinalConfidence float64            `json:"final_confidence"`
	Components      map[string]float64 `json:"component_confidences"`
	ReviewRequired  bool               `json:"review_required"`
	ReviewReasons   []ReviewReason     `json:"review_reasons"`
	ReviewPriority  string             `json:"review_priority"`
	AutoApprove     bool               `json:"auto_approve"`
	AutoReject      bool               `json:"auto_reject"`
	Factors         []string           `json:"confidence_factors"`
}

// HasReason reports whether the assessment carries a specific reason.
func (a Assessment) HasReason(reason ReviewReason) bool {
	for _, r := range a.ReviewReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// ReasonStrings returns the reasons as plain strings for persistence.
func (a Assessment) ReasonStrings() []string {
	out := make([]string, len(a.ReviewReasons))
	for i, r := range a.ReviewReasons {
		out[i] = string(r)
	}
	return out
}
