package credits

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/engine/emission"
	"greencredit/greenscore-backend/internal/engine/score"
)

// standardConfig holds the parameters of one credit standard.
type standardConfig struct {
	minTonnesIndividual  float64
	minTonnesPooled      float64
	bufferPercentage     float64
	priceUSDPerTonne     float64
	verificationCostUSD  float64
	poolingFeePercentage float64
}

// standardOrder fixes iteration order so output is deterministic.
var standardOrder = []string{StandardVCS, StandardGoldStandard, StandardCDM}

var standards = map[string]standardConfig{
	StandardVCS: {
		minTonnesIndividual:  1.0,
		minTonnesPooled:      0.1,
		bufferPercentage:     0.15,
		priceUSDPerTonne:     12.0,
		verificationCostUSD:  50.0,
		poolingFeePercentage: 0.08,
	},
	StandardGoldStandard: {
		minTonnesIndividual:  2.0,
		minTonnesPooled:      0.2,
		bufferPercentage:     0.20,
		priceUSDPerTonne:     18.0,
		verificationCostUSD:  75.0,
		poolingFeePercentage: 0.10,
	},
	StandardCDM: {
		minTonnesIndividual:  5.0,
		minTonnesPooled:      0.5,
		bufferPercentage:     0.10,
		priceUSDPerTonne:     8.0,
		verificationCostUSD:  100.0,
		poolingFeePercentage: 0.12,
	},
}

// Aggregator calculates per-standard carbon credit eligibility,
// valuation and pooling for SME projects.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates a carbon credit aggregator.
func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// CalculateCredits evaluates all standards for one evidence item.
// Returns zero to three credits; an empty slice when additionality is
// not met or no standard's pooled minimum is reached.
func (a *Aggregator) CalculateCredits(userID, evidenceID string, emissionResult emission.Result, scoreResult score.Result, sector string, projectLifetimeYears int) []Credit {
	if projectLifetimeYears <= 0 {
		projectLifetimeYears = 5
	}

	credits := []Credit{}

	if !a.checkAdditionality(emissionResult, scoreResult.Confidence) {
		a.logger.Info("Additionality criteria not met",
			zap.String("evidence_id", evidenceID),
			zap.Float64("co2_kg_total", emissionResult.CO2KgTotal),
			zap.Float64("confidence", scoreResult.Confidence))
		return credits
	}

	annualTonnes := emissionResult.CO2KgTotal / 1000.0

	for _, name := range standardOrder {
		if credit := a.calculateForStandard(userID, evidenceID, name, standards[name], annualTonnes, projectLifetimeYears, scoreResult.Confidence, sector); credit != nil {
			credits = append(credits, *credit)
		}
	}

	return credits
}

// checkAdditionality is the shared gate: the project must clear a
// minimum confidence and a 100 kg/yr CO2 floor before any standard is
// considered.
func (a *Aggregator) checkAdditionality(emissionResult emission.Result, confidence float64) bool {
	if confidence < 0.5 {
		return false
	}
	return emissionResult.CO2KgTotal > 100
}

// calculateForStandard applies one standard's buffer, thresholds and
// pricing. Returns nil when the net tonnage is below the pooled minimum.
func (a *Aggregator) calculateForStandard(userID, evidenceID, name string, cfg standardConfig, annualTonnes float64, lifetimeYears int, confidence float64, sector string) *Credit {
	totalTonnes := annualTonnes * float64(lifetimeYears)
	netTonnes := totalTonnes * (1 - cfg.bufferPercentage)

	var approach string
	switch {
	case netTonnes >= cfg.minTonnesIndividual:
		approach = ApproachIndividual
	case netTonnes >= cfg.minTonnesPooled:
		approach = ApproachPooled
	default:
		return nil
	}

	eligibleTonnes := netTonnes
	grossValue := eligibleTonnes * cfg.priceUSDPerTonne

	var netValue, poolingFee, verificationCost float64
	if approach == ApproachPooled {
		poolingFee = grossValue * cfg.poolingFeePercentage
		// Verification is shared across the pool.
		verificationCost = round2(cfg.verificationCostUSD / 10)
		netValue = grossValue - poolingFee - cfg.verificationCostUSD/10
	} else {
		verificationCost = cfg.verificationCostUSD
		netValue = grossValue - cfg.verificationCostUSD
	}

	var status string
	switch {
	case confidence >= 0.8 && netTonnes >= cfg.minTonnesIndividual:
		status = StatusEligible
	case confidence >= 0.6 && netTonnes >= cfg.minTonnesPooled:
		status = StatusPoolingEligible
	default:
		status = StatusPendingVerification
	}

	issuanceDays := 180
	if approach == ApproachPooled {
		issuanceDays = 90
	}

	return &Credit{
		ID:                    uuid.New(),
		UserID:                userID,
		EvidenceID:            evidenceID,
		Standard:              name,
		TonnesCO2:             round3(eligibleTonnes),
		AnnualTonnes:          round3(annualTonnes),
		ProjectLifetimeYears:  lifetimeYears,
		BufferPercentage:      cfg.bufferPercentage,
		GrossValueUSD:         round2(grossValue),
		NetValueUSD:           round2(netValue),
		VerificationCostUSD:   verificationCost,
		PoolingFeeUSD:         round2(poolingFee),
		Status:                status,
		Approach:              approach,
		EstimatedIssuance:     time.Now().AddDate(0, 0, issuanceDays),
		Sector:                sector,
		AdditionalityVerified: true,
		CreatedAt:             time.Now(),
	}
}

// AggregatePoolCredits groups pooled-approach credits by standard into
// a registrable pool with per-participant line items.
func (a *Aggregator) AggregatePoolCredits(credits []Credit, poolName string) PoolResult {
	if poolName == "" {
		poolName = "Kenya_SME_Pool"
	}

	var pooled []Credit
	for _, c := range credits {
		if c.Approach == ApproachPooled && (c.Status == StatusPoolingEligible || c.Status == StatusEligible) {
			pooled = append(pooled, c)
		}
	}

	if len(pooled) == 0 {
		return PoolResult{Status: "no_eligible_credits"}
	}

	byStandard := make(map[string][]Credit)
	for _, c := range pooled {
		byStandard[c.Standard] = append(byStandard[c.Standard], c)
	}

	pools := make(map[string]StandardPool, len(byStandard))
	for standard, group := range byStandard {
		totalTonnes, totalGross, totalNet := 0.0, 0.0, 0.0
		participants := make([]PoolParticipant, 0, len(group))
		for _, c := range group {
			totalTonnes += c.TonnesCO2
			totalGross += c.GrossValueUSD
			totalNet += c.NetValueUSD
			participants = append(participants, PoolParticipant{
				UserID:   c.UserID,
				Tonnes:   c.TonnesCO2,
				ValueUSD: c.NetValueUSD,
				Sector:   c.Sector,
			})
		}

		pools[standard] = StandardPool{
			PoolName:                    poolName + "_" + standard,
			ParticipantCount:            len(group),
			TotalTonnesCO2:              round3(totalTonnes),
			TotalGrossValueUSD:          round2(totalGross),
			TotalNetValueUSD:            round2(totalNet),
			AverageTonnesPerParticipant: round3(totalTonnes / float64(len(group))),
			Participants:                participants,
		}
	}

	totalTonnes, totalValue := 0.0, 0.0
	for _, c := range pooled {
		totalTonnes += c.TonnesCO2
		totalValue += c.NetValueUSD
	}

	return PoolResult{
		Status:            "pooled",
		Pools:             pools,
		TotalParticipants: len(pooled),
		TotalTonnes:       totalTonnes,
		TotalValue:        totalValue,
	}
}

// GetCreditRecommendations picks the best credit by net value per tonne
// and advises next steps, or explains what is needed to qualify.
func (a *Aggregator) GetCreditRecommendations(credits []Credit) Recommendation {
	if len(credits) == 0 {
		return Recommendation{
			Recommendation:       "increase_impact",
			Message:              "Increase environmental impact to qualify for carbon credits",
			MinAnnualCO2NeededKg: 100,
		}
	}

	var eligible []Credit
	for _, c := range credits {
		if c.Status == StatusEligible || c.Status == StatusPoolingEligible {
			eligible = append(eligible, c)
		}
	}

	if len(eligible) == 0 {
		return Recommendation{
			Recommendation: "improve_verification",
			Message:        "Improve evidence quality for carbon credit eligibility",
			PendingCredits: len(credits),
		}
	}

	best := eligible[0]
	bestRatio := valuePerTonne(best)
	for _, c := range eligible[1:] {
		if ratio := valuePerTonne(c); ratio > bestRatio {
			best, bestRatio = c, ratio
		}
	}

	rec := Recommendation{
		RecommendedStandard:  best.Standard,
		Approach:             best.Approach,
		EstimatedAnnualValue: round2(best.NetValueUSD / float64(best.ProjectLifetimeYears)),
		TotalProjectValue:    best.NetValueUSD,
		TimelineMonths:       int(time.Until(best.EstimatedIssuance).Hours() / 24 / 30),
	}

	if best.Approach == ApproachPooled {
		rec.NextSteps = []string{
			"Join SME carbon credit pool for faster issuance",
			"Maintain evidence quality for verification",
			"Continue sustainable practices for ongoing credits",
		}
	} else {
		rec.NextSteps = []string{
			"Prepare for individual project verification",
			"Gather additional supporting documentation",
			"Consider expanding project scope for higher value",
		}
	}

	return rec
}

func valuePerTonne(c Credit) float64 {
	if c.TonnesCO2 <= 0 {
		return 0
	}
	return c.NetValueUSD / c.TonnesCO2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
