package emission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Calculator converts evidence features into CO2-kg-equivalent using
// region-specific emission factors. Factor resolution precedence is
// Climatiq API, then local Kenya table, then global fallback; the API
// tier is only consulted for Kenya with a key configured.
type Calculator struct {
	climatiq *ClimatiqClient
	logger   *zap.Logger
}

// NewCalculator creates an emission calculator. climatiq may be nil to
// disable the external factor tier.
func NewCalculator(climatiq *ClimatiqClient, logger *zap.Logger) *Calculator {
	return &Calculator{
		climatiq: climatiq,
		logger:   logger,
	}
}

// Calculate computes the CO2 contribution of each populated feature
// channel and the aggregate total. It never fails: any internal error
// degrades to a zero-valued result with confidence 0.1.
func (c *Calculator) Calculate(ctx context.Context, evidenceID, sector, region string, features Features) Result {
	factors := c.resolveFactors(ctx, region)

	components := make(map[string]float64)

	if features.KWhSaved != nil {
		components[ComponentEnergyGrid] = *features.KWhSaved * factors.GridKgCO2PerKWh
	}
	if features.SolarKWhGenerated != nil {
		components[ComponentSolarGeneration] = *features.SolarKWhGenerated * factors.GridKgCO2PerKWh
	}
	if features.DieselLitersAvoided != nil {
		components[ComponentDiesel] = *features.DieselLitersAvoided * factors.DieselKgCO2PerLiter
	}
	if features.PlasticKgRecycled != nil {
		components[ComponentPlastic] = *features.PlasticKgRecycled * factors.PlasticKgCO2PerKg
	}
	if features.WaterM3Saved != nil {
		// Water savings count through the pumping energy they avoid.
		waterEnergyKWh := *features.WaterM3Saved * factors.WaterPumpKWhPerM3
		components[ComponentWater] = waterEnergyKWh * factors.GridKgCO2PerKWh
	}
	if features.ApplianceEfficiencyGain != nil {
		components[ComponentApplianceEfficiency] = *features.ApplianceEfficiencyGain * factors.GridKgCO2PerKWh
	}

	total := 0.0
	for _, kg := range components {
		total += kg
	}

	provenance := map[string]interface{}{
		"ef_source":        factors.Source,
		"ef_value":         factors.GridKgCO2PerKWh,
		"calculation_date": time.Now().Format(time.RFC3339),
		"region":           region,
		"sector":           sector,
	}
	if factors.ClimatiqFactorID != "" {
		provenance["climatiq_factor_id"] = factors.ClimatiqFactorID
		provenance["climatiq_valid_from"] = factors.ClimatiqValidFrom
	}

	return Result{
		EvidenceID:      evidenceID,
		CO2KgComponents: components,
		CO2KgTotal:      total,
		Method:          fmt.Sprintf("Kenya EF %.2f kgCO2/kWh + IPCC factors", factors.GridKgCO2PerKWh),
		Provenance:      provenance,
		Confidence:      c.calculateConfidence(features, factors),
		CalculatedAt:    time.Now(),
	}
}

// ErrorFallback is the degraded result contract for internal failures in
// the calculation path. Callers that recover from a panic or hit an
// unexpected state return this instead of an error.
func ErrorFallback(evidenceID string) Result {
	return Result{
		EvidenceID:      evidenceID,
		CO2KgComponents: map[string]float64{},
		CO2KgTotal:      0,
		Method:          "error_fallback",
		Provenance:      map[string]interface{}{},
		Confidence:      0.1,
		CalculatedAt:    time.Now(),
	}
}

// resolveFactors walks the factor precedence chain. API failures degrade
// silently to the local tables.
func (c *Calculator) resolveFactors(ctx context.Context, region string) FactorSet {
	isKenya := strings.EqualFold(region, "Kenya")

	if c.climatiq != nil && isKenya {
		grid, err := c.climatiq.FetchGridFactor(ctx, "KE")
		if err != nil {
			c.logger.Warn("Climatiq fetch failed, using local factors", zap.Error(err))
		} else {
			factors := kenyaFactors()
			factors.GridKgCO2PerKWh = grid.KgCO2PerKWh
			factors.Source = SourceClimatiq
			factors.ClimatiqFactorID = grid.FactorID
			factors.ClimatiqValidFrom = grid.ValidFrom
			return factors
		}
	}

	if isKenya {
		return kenyaFactors()
	}

	return globalFactors()
}

// calculateConfidence scores how much to trust a calculation: more
// populated channels and better factor sources raise it, outlier
// magnitudes lower it. Always within [0.1, 1.0].
func (c *Calculator) calculateConfidence(features Features, factors FactorSet) float64 {
	confidence := 0.5

	bonus := float64(features.Count()) * 0.1
	if bonus > 0.3 {
		bonus = 0.3
	}
	confidence += bonus

	switch factors.Source {
	case SourceClimatiq:
		confidence += 0.2
	case SourceLocalKenya:
		confidence += 0.1
	}

	total := features.Sum()
	if total > 10000 {
		confidence -= 0.2
	} else if total < 1 {
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

// EstimateFeaturesFromAmount derives emission features from a purchase
// amount in KES using sector and action-type rules. Used when evidence
// carries a price but no measured quantities.
func EstimateFeaturesFromAmount(amountKSH float64, sector, actionType string) Features {
	features := Features{}
	if amountKSH <= 0 {
		return features
	}

	action := strings.ToLower(actionType)

	switch strings.ToLower(sector) {
	case "salon":
		if strings.Contains(action, "led") || strings.Contains(action, "light") {
			// LED bulbs run about KES 400 each and save ~10W over 8h days.
			bulbs := amountKSH / 400
			if bulbs < 1 {
				bulbs = 1
			}
			kwh := bulbs * 0.01 * 8 * 30
			features.KWhSaved = &kwh
		} else if strings.Contains(action, "solar") {
			// Small rooftop systems cost about KES 50k per kW.
			kwCapacity := amountKSH / 50000
			generated := kwCapacity * 4 * 30
			features.SolarKWhGenerated = &generated
		}

	case "farmer":
		if strings.Contains(action, "solar") && strings.Contains(action, "pump") {
			pumpSizeKW := amountKSH / 80000
			generated := pumpSizeKW * 6 * 30
			water := pumpSizeKW * 100
			features.SolarKWhGenerated = &generated
			features.WaterM3Saved = &water
		} else if strings.Contains(action, "drip") {
			// Drip irrigation runs about KES 15k per hectare.
			areaHectares := amountKSH / 15000
			water := areaHectares * 500
			features.WaterM3Saved = &water
		}

	case "welding":
		if strings.Contains(action, "solar") {
			kwCapacity := amountKSH / 60000
			generated := kwCapacity * 5 * 25
			features.SolarKWhGenerated = &generated
		} else if strings.Contains(action, "inverter") {
			powerRatingKW := amountKSH / 100000
			gain := powerRatingKW * 2 * 8 * 25
			features.ApplianceEfficiencyGain = &gain
		}
	}

	return features
}
