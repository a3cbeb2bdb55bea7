package emission

// FactorSet is one tier of emission factors. Grid and water values differ
// between the Kenya table and the global fallback; diesel and plastic are
// IPCC standard values shared by both.
type FactorSet struct {
	GridKgCO2PerKWh     float64
	DieselKgCO2PerLiter float64
	PlasticKgCO2PerKg   float64
	WaterPumpKWhPerM3   float64
	Source              string
	ClimatiqFactorID    string
	ClimatiqValidFrom   string
}

// Factor sources, in precedence order.
const (
	SourceClimatiq   = "climatiq"
	SourceLocalKenya = "local_kenya"
	SourceGlobal     = "global_fallback"
)

// kenyaFactors are the Kenya-specific fallback values used when the
// Climatiq API is unavailable or not configured.
func kenyaFactors() FactorSet {
	return FactorSet{
		GridKgCO2PerKWh:     0.45,
		DieselKgCO2PerLiter: 2.68,
		PlasticKgCO2PerKg:   6.0,
		WaterPumpKWhPerM3:   0.5,
		Source:              SourceLocalKenya,
	}
}

// globalFactors are the last-resort values for regions without a local table.
func globalFactors() FactorSet {
	return FactorSet{
		GridKgCO2PerKWh:     0.52,
		DieselKgCO2PerLiter: 2.68,
		PlasticKgCO2PerKg:   6.0,
		WaterPumpKWhPerM3:   0.4,
		Source:              SourceGlobal,
	}
}
