package score

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/engine/emission"
	"greencredit/greenscore-backend/internal/engine/sector"
)

// Result is one GreenScore computation. Results are append-only: each
// submission produces a new Result, never a mutation of an old one.
type Result struct {
	UserID         string                 `json:"user_id"`
	EvidenceID     string                 `json:"evidence_id"`
	GreenScore     int                    `json:"greenscore"`
	Subscores      map[string]float64     `json:"subscores"`
	CO2SavedTonnes float64                `json:"co2_saved_tonnes"`
	Confidence     float64                `json:"confidence"`
	Explainers     []string               `json:"explainers"`
	Actions        []string               `json:"actions"`
	Provenance     map[string]interface{} `json:"provenance"`
	Timestamp      time.Time              `json:"timestamp"`
}

// Pillar names used throughout the scoring pipeline.
const (
	PillarEnergy    = "energy"
	PillarWater     = "water"
	PillarWaste     = "waste"
	PillarCarbon    = "carbon"
	PillarCommunity = "community"
)

// pillarMaxes are the nominal point caps per pillar; they sum to 100.
var pillarMaxes = map[string]float64{
	PillarEnergy:    30,
	PillarWater:     15,
	PillarWaste:     20,
	PillarCarbon:    25,
	PillarCommunity: 10,
}

// impactCaps define the annual impact that earns a pillar's full points.
var impactCaps = map[string]float64{
	"co2_tonnes_ann": 5.0,
	"kwh_saved_ann":  3000.0,
	"water_m3_ann":   2000.0,
	"waste_kg_ann":   500.0,
}

// Computer aggregates emission results and user metrics into a weighted
// 0-100 GreenScore with explanations and recommended actions.
type Computer struct {
	baselines *sector.Service
	logger    *zap.Logger
}

// NewComputer creates a score computer backed by the given baseline
// service.
func NewComputer(baselines *sector.Service, logger *zap.Logger) *Computer {
	return &Computer{
		baselines: baselines,
		logger:    logger,
	}
}

// ComputeScore runs the full scoring pipeline: raw pillar subscores,
// sector weighting, clamping, explainers, actions and confidence. Like
// the emission calculator it never fails; degraded inputs yield a low
// confidence result.
func (c *Computer) ComputeScore(userID, evidenceID, sect string, emissionResult emission.Result, userMetrics map[string]float64, region string) Result {
	baseline := c.baselines.GetBaseline(sect, region)
	weights := c.baselines.GetSectorWeights(sect)

	raw := c.calculateSubscores(emissionResult, userMetrics)
	weighted := applySectorWeights(raw, weights)

	total := 0.0
	for _, v := range weighted {
		total += v
	}
	greenscore := int(math.Round(total))
	if greenscore < 0 {
		greenscore = 0
	} else if greenscore > 100 {
		greenscore = 100
	}

	return Result{
		UserID:         userID,
		EvidenceID:     evidenceID,
		GreenScore:     greenscore,
		Subscores:      weighted,
		CO2SavedTonnes: emissionResult.CO2KgTotal / 1000.0,
		Confidence:     c.calculateConfidence(emissionResult, userMetrics, weighted),
		Explainers:     c.generateExplainers(weighted, emissionResult),
		Actions:        c.generateActions(greenscore, weighted, sect),
		Provenance: map[string]interface{}{
			"sector":             sect,
			"region":             region,
			"baseline_source":    baseline.DataSource,
			"calculation_method": "weighted_pillars_v1",
			"emission_method":    emissionResult.Method,
			"timestamp":          time.Now().Format(time.RFC3339),
		},
		Timestamp: time.Now(),
	}
}

// ErrorFallback is the degraded result contract for internal scoring
// failures.
func ErrorFallback(userID, evidenceID string) Result {
	return Result{
		UserID:     userID,
		EvidenceID: evidenceID,
		GreenScore: 0,
		Subscores:  map[string]float64{},
		Confidence: 0.1,
		Explainers: []string{"Error in score calculation"},
		Actions:    []string{"Please re-upload evidence"},
		Provenance: map[string]interface{}{},
		Timestamp:  time.Now(),
	}
}

// calculateSubscores computes the five raw pillar subscores, each capped
// at its pillar maximum. Missing metrics contribute zero.
func (c *Computer) calculateSubscores(emissionResult emission.Result, userMetrics map[string]float64) map[string]float64 {
	subscores := make(map[string]float64, len(pillarMaxes))

	// Carbon: proportional to CO2 saved against the annual cap.
	co2Tonnes := emissionResult.CO2KgTotal / 1000.0
	subscores[PillarCarbon] = math.Min(
		pillarMaxes[PillarCarbon],
		co2Tonnes/impactCaps["co2_tonnes_ann"]*pillarMaxes[PillarCarbon],
	)

	// Energy: renewable share carries 70% of the pillar, efficiency 30%.
	energy := 0.0
	if pct, ok := userMetrics["renewable_pct"]; ok {
		energy += pct * pillarMaxes[PillarEnergy] * 0.7
	}
	if kwh, ok := userMetrics["kwh_saved_ann"]; ok {
		energy += math.Min(
			pillarMaxes[PillarEnergy]*0.3,
			kwh/impactCaps["kwh_saved_ann"]*pillarMaxes[PillarEnergy]*0.3,
		)
	}
	subscores[PillarEnergy] = math.Min(pillarMaxes[PillarEnergy], energy)

	// Water: proportional to m3 saved against the annual cap.
	water := 0.0
	if m3, ok := userMetrics["water_m3_saved_ann"]; ok {
		water = math.Min(
			pillarMaxes[PillarWater],
			m3/impactCaps["water_m3_ann"]*pillarMaxes[PillarWater],
		)
	}
	subscores[PillarWater] = water

	// Waste: recycled share carries 60%, recycled mass the remaining 40%.
	waste := 0.0
	if pct, ok := userMetrics["waste_recycled_pct"]; ok {
		waste += pct * pillarMaxes[PillarWaste] * 0.6
	}
	if kg, ok := userMetrics["waste_kg_recycled_ann"]; ok {
		waste += math.Min(
			pillarMaxes[PillarWaste]*0.4,
			kg/impactCaps["waste_kg_ann"]*pillarMaxes[PillarWaste]*0.4,
		)
	}
	subscores[PillarWaste] = math.Min(pillarMaxes[PillarWaste], waste)

	// Community: certifications plus local sourcing.
	community := 0.0
	if v, ok := userMetrics["nema_certified"]; ok && v > 0 {
		community += 3.0
	}
	if v, ok := userMetrics["community_training"]; ok && v > 0 {
		community += 2.0
	}
	if pct, ok := userMetrics["local_sourcing_pct"]; ok {
		community += pct * 5.0
	}
	subscores[PillarCommunity] = math.Min(pillarMaxes[PillarCommunity], community)

	return subscores
}

// applySectorWeights scales each pillar against a baseline unit weight
// of 0.2. A pillar weighted above 0.2 can exceed its nominal cap here;
// the final 0-100 clamp defends the visible invariant.
func applySectorWeights(subscores, weights map[string]float64) map[string]float64 {
	weighted := make(map[string]float64, len(subscores))
	for pillar, score := range subscores {
		weight, ok := weights[pillar]
		if !ok {
			weight = 0.2
		}
		weighted[pillar] = score * weight / 0.2
	}
	return weighted
}

// generateExplainers reports the top three weighted pillars plus the
// largest single emission component.
func (c *Computer) generateExplainers(subscores map[string]float64, emissionResult emission.Result) []string {
	type pillarScore struct {
		name  string
		score float64
	}

	sorted := make([]pillarScore, 0, len(subscores))
	for name, score := range subscores {
		sorted = append(sorted, pillarScore{name, score})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].score != sorted[j].score {
			return sorted[i].score > sorted[j].score
		}
		return sorted[i].name < sorted[j].name
	})

	var explainers []string
	limit := 3
	if len(sorted) < limit {
		limit = len(sorted)
	}

	for _, ps := range sorted[:limit] {
		maxPoints := pillarMaxes[ps.name]
		percentage := 0.0
		if maxPoints > 0 {
			percentage = ps.score / maxPoints * 100
		}

		switch ps.name {
		case PillarCarbon:
			co2Tonnes := emissionResult.CO2KgTotal / 1000.0
			explainers = append(explainers, fmt.Sprintf("Carbon: %.2f tonnes CO2 saved, +%.0f/%.0f points (%.0f%%)", co2Tonnes, ps.score, maxPoints, percentage))
		case PillarEnergy:
			explainers = append(explainers, fmt.Sprintf("Energy: Renewable adoption and efficiency, +%.0f/%.0f points (%.0f%%)", ps.score, maxPoints, percentage))
		case PillarWater:
			explainers = append(explainers, fmt.Sprintf("Water: Conservation and efficiency measures, +%.0f/%.0f points (%.0f%%)", ps.score, maxPoints, percentage))
		case PillarWaste:
			explainers = append(explainers, fmt.Sprintf("Waste: Recycling and waste reduction, +%.0f/%.0f points (%.0f%%)", ps.score, maxPoints, percentage))
		case PillarCommunity:
			explainers = append(explainers, fmt.Sprintf("Community: Certifications and local impact, +%.0f/%.0f points (%.0f%%)", ps.score, maxPoints, percentage))
		}
	}

	if len(emissionResult.CO2KgComponents) > 0 {
		topName, topValue := "", math.Inf(-1)
		for name, kg := range emissionResult.CO2KgComponents {
			if kg > topValue || (kg == topValue && name < topName) {
				topName, topValue = name, kg
			}
		}
		explainers = append(explainers, fmt.Sprintf("Largest impact: %.0f kg CO2 from %s", topValue, strings.ReplaceAll(topName, "_", " ")))
	}

	return explainers
}

// generateActions produces a tiered loan-qualification message, a
// priority nudge for the weakest pillar, and up to two sector-specific
// suggestions.
func (c *Computer) generateActions(greenscore int, subscores map[string]float64, sect string) []string {
	var actions []string

	switch {
	case greenscore >= 80:
		actions = append(actions,
			"Excellent! Approved for premium green loan rates",
			"Consider carbon credit monetization opportunities")
	case greenscore >= 60:
		actions = append(actions,
			"Good progress! Approved for standard green loan discount",
			"Continue implementing sustainable practices")
	case greenscore >= 40:
		actions = append(actions,
			"Approved with basic green discount",
			"Focus on high-impact improvements for better rates")
	default:
		actions = append(actions,
			"Additional evidence needed for green loan qualification",
			"Implement foundational sustainability measures")
	}

	lowestName, lowestScore := "", math.Inf(1)
	for name, score := range subscores {
		if score < lowestScore || (score == lowestScore && name < lowestName) {
			lowestName, lowestScore = name, score
		}
	}
	if lowestName != "" && lowestScore < pillarMaxes[lowestName]*0.3 {
		switch lowestName {
		case PillarEnergy:
			actions = append(actions, "Priority: Invest in renewable energy or energy efficiency")
		case PillarWater:
			actions = append(actions, "Priority: Implement water conservation measures")
		case PillarWaste:
			actions = append(actions, "Priority: Set up recycling and waste reduction systems")
		case PillarCarbon:
			actions = append(actions, "Priority: Focus on high-impact carbon reduction activities")
		case PillarCommunity:
			actions = append(actions, "Priority: Obtain environmental certifications")
		}
	}

	suggestions := c.baselines.GetImprovementSuggestions(sect, nil)
	if len(suggestions) > 2 {
		suggestions = suggestions[:2]
	}
	actions = append(actions, suggestions...)

	return actions
}

// calculateConfidence scores trust in the computed result: stronger
// emission confidence, more metrics and balanced pillars raise it,
// extreme totals lower it. Always within [0.1, 1.0].
func (c *Computer) calculateConfidence(emissionResult emission.Result, userMetrics map[string]float64, subscores map[string]float64) float64 {
	confidence := 0.5

	confidence += emissionResult.Confidence * 0.3

	metricsCount := 0
	for _, v := range userMetrics {
		if v > 0 {
			metricsCount++
		}
	}
	confidence += math.Min(float64(metricsCount)*0.05, 0.2)

	nonZero := 0
	total := 0.0
	for _, s := range subscores {
		if s > 0 {
			nonZero++
		}
		total += s
	}
	if nonZero >= 3 {
		confidence += 0.1
	} else if nonZero >= 2 {
		confidence += 0.05
	}

	if total > 90 || total < 10 {
		confidence -= 0.1
	}

	if confidence < 0.1 {
		return 0.1
	}
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}
