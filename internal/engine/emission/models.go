package emission

import "time"

// Features holds the physical quantities extracted from a single piece of
// evidence. A nil field means no evidence for that channel, not zero.
type Features struct {
	KWhSaved                *float64 `json:"kwh_saved,omitempty"`
	DieselLitersAvoided     *float64 `json:"diesel_liters_avoided,omitempty"`
	PlasticKgRecycled       *float64 `json:"plastic_kg_recycled,omitempty"`
	WaterM3Saved            *float64 `json:"water_m3_saved,omitempty"`
	SolarKWhGenerated       *float64 `json:"solar_kwh_generated,omitempty"`
	ApplianceEfficiencyGain *float64 `json:"appliance_efficiency_gain,omitempty"`
}

// Count returns the number of populated feature channels.
func (f Features) Count() int {
	count := 0
	for _, v := range f.values() {
		if v != nil {
			count++
		}
	}
	return count
}

// Sum returns the aggregate magnitude across all populated channels.
func (f Features) Sum() float64 {
	total := 0.0
	for _, v := range f.values() {
		if v != nil {
			total += *v
		}
	}
	return total
}

func (f Features) values() []*float64 {
	return []*float64{
		f.KWhSaved,
		f.DieselLitersAvoided,
		f.PlasticKgRecycled,
		f.WaterM3Saved,
		f.SolarKWhGenerated,
		f.ApplianceEfficiencyGain,
	}
}

// Result is an immutable CO2 calculation for one evidence item.
// CO2KgTotal always equals the sum of CO2KgComponents.
type Result struct {
	EvidenceID      string                 `json:"evidence_id"`
	CO2KgComponents map[string]float64     `json:"co2_kg_components"`
	CO2KgTotal      float64                `json:"co2_kg_total"`
	Method          string                 `json:"method"`
	Provenance      map[string]interface{} `json:"provenance"`
	Confidence      float64                `json:"confidence"`
	CalculatedAt    time.Time              `json:"calculated_at"`
}

// Component keys used in Result.CO2KgComponents.
const (
	ComponentEnergyGrid          = "energy_grid_kwh"
	ComponentSolarGeneration     = "solar_generation"
	ComponentDiesel              = "diesel"
	ComponentPlastic             = "plastic"
	ComponentWater               = "water"
	ComponentApplianceEfficiency = "appliance_efficiency"
)
