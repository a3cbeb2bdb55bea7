package confidence

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Manager evaluates multi-factor confidence over a pipeline outcome and
// decides whether human review is required, at what priority, and why.
type Manager struct {
	autoApproveThreshold     float64
	humanReviewThreshold     float64
	autoRejectThreshold      float64
	highValueReviewThreshold float64
	creditValueThresholdUSD  float64
	logger                   *zap.Logger
}

// Component weights for the final confidence. Fraud risk is stored
// inverted (1 - risk) so everything combines as "higher is better".
var componentWeights = map[string]float64{
	ComponentAIProcessing:      0.40,
	ComponentDataQuality:       0.25,
	ComponentUserCredibility:   0.15,
	ComponentSectorConsistency: 0.10,
	ComponentFraudRisk:         0.10,
}

// NewManager creates a confidence manager with the production
// thresholds.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		autoApproveThreshold:     0.85,
		humanReviewThreshold:     0.60,
		autoRejectThreshold:      0.30,
		highValueReviewThreshold: 0.70,
		creditValueThresholdUSD:  100.0,
		logger:                   logger,
	}
}

// Evaluate computes the weighted confidence components and the review
// decision. It never fails: a malformed outcome yields the fixed
// degraded assessment (confidence 0.3, review required).
func (m *Manager) Evaluate(outcome Outcome, history UserHistory, sectorCtx SectorContext) Assessment {
	if outcome.Score == nil {
		return DegradedAssessment()
	}

	components := map[string]float64{
		ComponentAIProcessing:      outcome.Confidence,
		ComponentDataQuality:       m.assessDataQuality(outcome),
		ComponentUserCredibility:   m.assessUserCredibility(history),
		ComponentSectorConsistency: m.assessSectorConsistency(outcome, sectorCtx),
		ComponentFraudRisk:         1.0 - m.assessFraudRisk(outcome, history),
	}

	final := 0.0
	for name, weight := range componentWeights {
		final += components[name] * weight
	}
	final = math.Round(final*1000) / 1000

	reasons, priority := m.determineReview(final, outcome, components)

	return Assessment{
		FinalConfidence: final,
		Components:      components,
		ReviewRequired:  len(reasons) > 0,
		ReviewReasons:   reasons,
		ReviewPriority:  priority,
		AutoApprove:     final >= m.autoApproveThreshold,
		AutoReject:      final <= m.autoRejectThreshold,
		Factors:         explainComponents(components),
	}
}

// DegradedAssessment is the fixed fallback when evaluation cannot run.
func DegradedAssessment() Assessment {
	return Assessment{
		FinalConfidence: 0.3,
		Components:      map[string]float64{},
		ReviewRequired:  true,
		ReviewReasons:   []ReviewReason{ReasonManualRequest},
		ReviewPriority:  PriorityMedium,
	}
}

// assessDataQuality inspects the richness and plausibility of the score
// result and the processing timing.
func (m *Manager) assessDataQuality(outcome Outcome) float64 {
	quality := 0.5

	sc := outcome.Score
	if len(sc.Subscores) >= 3 {
		quality += 0.2
	}
	if len(sc.Explainers) >= 2 {
		quality += 0.1
	}
	if len(sc.Provenance) >= 5 {
		quality += 0.1
	}
	if sc.GreenScore > 95 || sc.GreenScore < 5 {
		quality -= 0.2
	}

	ms := outcome.ProcessingTime.Milliseconds()
	if ms < 100 {
		// Suspiciously fast, possibly replayed or cached.
		quality -= 0.1
	} else if ms > 30*time.Second.Milliseconds() {
		quality -= 0.05
	}

	return clamp01(quality)
}

// assessUserCredibility weighs account age, submission history,
// approval rate, fraud flags and verification status.
func (m *Manager) assessUserCredibility(history UserHistory) float64 {
	credibility := 0.5

	switch {
	case history.AccountAgeDays > 365:
		credibility += 0.2
	case history.AccountAgeDays > 90:
		credibility += 0.1
	case history.AccountAgeDays < 7:
		credibility -= 0.2
	}

	if history.PreviousSubmissions > 10 {
		credibility += 0.15
	} else if history.PreviousSubmissions > 3 {
		credibility += 0.1
	}

	credibility += (history.ApprovalRate - 0.5) * 0.4
	credibility -= float64(history.FraudFlags) * 0.2

	if history.PhoneVerified {
		credibility += 0.05
	}
	if history.BusinessRegistered {
		credibility += 0.1
	}

	return clamp01(credibility)
}

// assessSectorConsistency checks the score and credit value against
// sector norms.
func (m *Manager) assessSectorConsistency(outcome Outcome, sectorCtx SectorContext) float64 {
	consistency := 0.7

	z := 0.0
	if sectorCtx.StdGreenScore > 0 {
		z = math.Abs(float64(outcome.Score.GreenScore)-sectorCtx.AverageGreenScore) / sectorCtx.StdGreenScore
	}
	if z > 3 {
		consistency -= 0.3
	} else if z > 2 {
		consistency -= 0.1
	}

	if len(outcome.Credits) > 0 {
		totalValue := 0.0
		for _, c := range outcome.Credits {
			totalValue += c.NetValueUSD
		}
		if totalValue > sectorCtx.AverageCreditValue*5 {
			consistency -= 0.2
		}
	}

	return clamp01(consistency)
}

// assessFraudRisk accumulates risk signals; 0 is no risk, 1 is maximal.
func (m *Manager) assessFraudRisk(outcome Outcome, history UserHistory) float64 {
	risk := 0.0

	if history.SubmissionsLast24h > 5 {
		risk += 0.3
	}
	if history.SimilarEvidenceCount > 3 {
		risk += 0.4
	}

	if len(outcome.Credits) > 0 {
		maxValue := outcome.Credits[0].NetValueUSD
		for _, c := range outcome.Credits[1:] {
			if c.NetValueUSD > maxValue {
				maxValue = c.NetValueUSD
			}
		}
		if maxValue > 100000 {
			risk += 0.3
		}
	}

	if history.LocationInconsistency {
		risk += 0.2
	}

	if outcome.Score.GreenScore >= 98 {
		// Perfect scores are rare enough to be suspicious.
		risk += 0.1
	}

	if risk > 1.0 {
		return 1.0
	}
	return risk
}

// determineReview derives the reason set and the highest applicable
// priority. High never downgrades.
func (m *Manager) determineReview(final float64, outcome Outcome, components map[string]float64) ([]ReviewReason, string) {
	var reasons []ReviewReason
	priority := PriorityLow

	if final < m.humanReviewThreshold {
		reasons = append(reasons, ReasonLowConfidence)
		priority = PriorityMedium
	}

	if len(outcome.Credits) > 0 {
		totalValue := 0.0
		for _, c := range outcome.Credits {
			totalValue += c.NetValueUSD
		}
		if totalValue > m.creditValueThresholdUSD {
			reasons = append(reasons, ReasonHighValueClaim)
			if final < m.highValueReviewThreshold {
				priority = PriorityHigh
			}
		}
	}

	if components[ComponentFraudRisk] < 0.7 {
		reasons = append(reasons, ReasonFraudRisk)
		priority = PriorityHigh
	}

	if components[ComponentSectorConsistency] < 0.5 {
		reasons = append(reasons, ReasonSectorOutlier)
		if priority != PriorityHigh {
			priority = PriorityMedium
		}
	}

	if components[ComponentUserCredibility] < 0.4 {
		reasons = append(reasons, ReasonNewUser)
	}

	return reasons, priority
}

// explainComponents renders a human-readable level per component.
func explainComponents(components map[string]float64) []string {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	explanations := make([]string, 0, len(names))
	for _, name := range names {
		score := components[name]
		level := "Low"
		if score >= 0.8 {
			level = "High"
		} else if score >= 0.6 {
			level = "Medium"
		}

		explanations = append(explanations, fmt.Sprintf("%s: %s (%.2f)", titleCase(name), level, score))
	}

	return explanations
}

func titleCase(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
