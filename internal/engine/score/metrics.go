package score

import (
	"strings"

	"greencredit/greenscore-backend/internal/engine/emission"
)

// EvidenceSignals are the already-extracted OCR/vision outputs used for
// metric estimation. The scoring core never touches raw images.
type EvidenceSignals struct {
	Vendor string
	Items  []string
	Labels []string
}

// EstimateUserMetrics derives scoring metrics from evidence signals and
// the emission result when the caller has no measured metrics. All rules
// are sector heuristics calibrated to Kenyan SMEs.
func EstimateUserMetrics(emissionResult emission.Result, sect string, signals EvidenceSignals) map[string]float64 {
	metrics := make(map[string]float64)

	labels := strings.ToLower(strings.Join(signals.Labels, " "))
	items := strings.ToLower(strings.Join(signals.Items, " "))

	if strings.Contains(labels, "solar") {
		switch strings.ToLower(sect) {
		case "salon":
			metrics["renewable_pct"] = 0.6
		case "farmer":
			metrics["renewable_pct"] = 0.8
		case "welding":
			metrics["renewable_pct"] = 0.4
		}
	}

	// Annualize the energy saving implied by the monthly CO2 figure.
	if emissionResult.CO2KgTotal > 0 {
		metrics["kwh_saved_ann"] = emissionResult.CO2KgTotal / 0.45 * 12
	}

	if strings.Contains(labels, "led") {
		metrics["waste_recycled_pct"] = 0.3
	}

	if strings.EqualFold(sect, "farmer") &&
		(strings.Contains(items, "drip") || strings.Contains(items, "irrigation")) {
		metrics["water_m3_saved_ann"] = 800.0
	}

	vendor := strings.ToLower(signals.Vendor)
	for _, marker := range []string{"certified", "approved", "licensed"} {
		if vendor != "" && strings.Contains(vendor, marker) {
			metrics["nema_certified"] = 1.0
			break
		}
	}

	return metrics
}
