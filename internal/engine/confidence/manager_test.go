package confidence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/engine/credits"
	"greencredit/greenscore-backend/internal/engine/score"
)

func testScore(greenScore int) *score.Result {
	return &score.Result{
		UserID:     "user-1",
		EvidenceID: "ev-1",
		GreenScore: greenScore,
		Subscores: map[string]float64{
			score.PillarEnergy: 20, score.PillarWater: 8, score.PillarWaste: 10,
			score.PillarCarbon: 15, score.PillarCommunity: 5,
		},
		Explainers: []string{"a", "b", "c"},
		Provenance: map[string]interface{}{
			"k1": 1, "k2": 2, "k3": 3, "k4": 4, "k5": 5,
		},
	}
}

func TestEvaluate_AutoApprove(t *testing.T) {
	m := NewManager(zap.NewNop())

	outcome := Outcome{
		Confidence:     0.95,
		Score:          testScore(60),
		ProcessingTime: 500 * time.Millisecond,
	}
	history := UserHistory{
		AccountAgeDays:      400,
		PreviousSubmissions: 15,
		ApprovalRate:        0.9,
		PhoneVerified:       true,
		BusinessRegistered:  true,
	}

	got := m.Evaluate(outcome, history, DefaultSectorContext())

	assert.InDelta(t, 0.925, got.FinalConfidence, 0.001)
	assert.True(t, got.AutoApprove)
	assert.False(t, got.AutoReject)
	assert.False(t, got.ReviewRequired)
	assert.Empty(t, got.ReviewReasons)
	assert.Equal(t, PriorityLow, got.ReviewPriority)
}

func TestEvaluate_LowConfidenceSectorOutlier(t *testing.T) {
	m := NewManager(zap.NewNop())

	outcome := Outcome{
		Confidence:     0.3,
		Score:          testScore(95),
		ProcessingTime: 500 * time.Millisecond,
	}
	// Tight sector stats make 95 a >3 sigma outlier.
	sectorCtx := SectorContext{AverageGreenScore: 50, StdGreenScore: 10, AverageCreditValue: 50}

	got := m.Evaluate(outcome, DefaultUserHistory(), sectorCtx)

	assert.InDelta(t, 0.56, got.FinalConfidence, 0.001)
	assert.InDelta(t, 0.4, got.Components[ComponentSectorConsistency], 0.001)
	assert.True(t, got.ReviewRequired)
	assert.True(t, got.HasReason(ReasonLowConfidence))
	assert.True(t, got.HasReason(ReasonSectorOutlier))
	assert.Equal(t, PriorityMedium, got.ReviewPriority)
	assert.False(t, got.AutoApprove)
	assert.False(t, got.AutoReject)
}

func TestEvaluate_FraudSignalsForceHighPriority(t *testing.T) {
	m := NewManager(zap.NewNop())

	outcome := Outcome{
		Confidence:     0.9,
		Score:          testScore(60),
		ProcessingTime: 500 * time.Millisecond,
	}
	history := DefaultUserHistory()
	history.SubmissionsLast24h = 10
	history.SimilarEvidenceCount = 5

	got := m.Evaluate(outcome, history, DefaultSectorContext())

	assert.InDelta(t, 0.3, got.Components[ComponentFraudRisk], 0.001)
	assert.True(t, got.HasReason(ReasonFraudRisk))
	assert.Equal(t, PriorityHigh, got.ReviewPriority)
}

func TestEvaluate_AutoReject(t *testing.T) {
	m := NewManager(zap.NewNop())

	sc := testScore(2)
	sc.Subscores = map[string]float64{score.PillarEnergy: 1}
	sc.Explainers = nil
	sc.Provenance = nil

	outcome := Outcome{
		Confidence:     0.1,
		Score:          sc,
		ProcessingTime: 50 * time.Millisecond,
	}
	history := UserHistory{
		AccountAgeDays:       3,
		ApprovalRate:         0.0,
		FraudFlags:           2,
		SubmissionsLast24h:   6,
		SimilarEvidenceCount: 4,
	}

	got := m.Evaluate(outcome, history, DefaultSectorContext())

	assert.InDelta(t, 0.18, got.FinalConfidence, 0.001)
	assert.True(t, got.AutoReject)
	assert.True(t, got.HasReason(ReasonLowConfidence))
	assert.True(t, got.HasReason(ReasonFraudRisk))
	assert.True(t, got.HasReason(ReasonNewUser))
	assert.Equal(t, PriorityHigh, got.ReviewPriority)
}

func TestEvaluate_HighValueClaim(t *testing.T) {
	m := NewManager(zap.NewNop())

	outcome := Outcome{
		Confidence:     0.65,
		Score:          testScore(70),
		Credits:        []credits.Credit{{NetValueUSD: 150}},
		ProcessingTime: 500 * time.Millisecond,
	}

	got := m.Evaluate(outcome, DefaultUserHistory(), DefaultSectorContext())

	require.True(t, got.HasReason(ReasonHighValueClaim))
	// Confidence above the high-value threshold keeps priority low.
	assert.GreaterOrEqual(t, got.FinalConfidence, 0.7)
	assert.Equal(t, PriorityLow, got.ReviewPriority)

	// Dropping below the threshold escalates.
	outcome.Confidence = 0.4
	got = m.Evaluate(outcome, DefaultUserHistory(), DefaultSectorContext())
	require.True(t, got.HasReason(ReasonHighValueClaim))
	assert.Less(t, got.FinalConfidence, 0.7)
	assert.Equal(t, PriorityHigh, got.ReviewPriority)
}

func TestEvaluate_NilScoreDegrades(t *testing.T) {
	m := NewManager(zap.NewNop())

	got := m.Evaluate(Outcome{}, DefaultUserHistory(), DefaultSectorContext())

	assert.Equal(t, 0.3, got.FinalConfidence)
	assert.True(t, got.ReviewRequired)
	assert.Equal(t, []ReviewReason{ReasonManualRequest}, got.ReviewReasons)
	assert.Equal(t, PriorityMedium, got.ReviewPriority)
}

func TestEvaluate_FactorsAreSortedAndLabelled(t *testing.T) {
	m := NewManager(zap.NewNop())

	outcome := Outcome{
		Confidence:     0.95,
		Score:          testScore(60),
		ProcessingTime: 500 * time.Millisecond,
	}

	got := m.Evaluate(outcome, DefaultUserHistory(), DefaultSectorContext())

	require.Len(t, got.Factors, 5)
	assert.Equal(t, "Ai Processing: High (0.95)", got.Factors[0])
	assert.Contains(t, got.Factors, "Fraud Risk: High (1.00)")
}
