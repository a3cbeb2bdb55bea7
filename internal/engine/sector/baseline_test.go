package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetSectorWeights_SumToOne(t *testing.T) {
	s := NewService(zap.NewNop())

	for _, sect := range []string{"salon", "farmer", "welding", "other", "unknown"} {
		weights := s.GetSectorWeights(sect)
		require.Len(t, weights, 5, sect)

		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9, sect)
	}
}

func TestGetSectorWeights_ReturnsCopy(t *testing.T) {
	s := NewService(zap.NewNop())

	weights := s.GetSectorWeights("salon")
	weights["energy"] = 99

	assert.InDelta(t, 0.35, s.GetSectorWeights("salon")["energy"], 1e-9)
}

func TestGetBaseline(t *testing.T) {
	s := NewService(zap.NewNop())

	farmer := s.GetBaseline("Farmer", "Kenya")
	assert.Equal(t, "Farmer", farmer.Sector)
	assert.Equal(t, "Kenya", farmer.Region)
	assert.InDelta(t, 2000.0, farmer.Baseline["avg_water_m3_season"], 1e-9)
	assert.Equal(t, "Ministry of Agriculture 2024 + KALRO Survey", farmer.DataSource)

	// Unknown sectors use the general SME stats under their own name.
	bakery := s.GetBaseline("bakery", "Kenya")
	assert.Equal(t, "bakery", bakery.Sector)
	assert.InDelta(t, 200.0, bakery.Baseline["avg_kwh_month"], 1e-9)
	assert.Equal(t, "General SME Survey 2024", bakery.DataSource)
}

func TestCalculatePercentile(t *testing.T) {
	s := NewService(zap.NewNop())

	assert.InDelta(t, 0.5, s.CalculatePercentile(100, 100, 20), 1e-9)
	assert.Equal(t, 0.5, s.CalculatePercentile(42, 100, 0))
	assert.Equal(t, 0.5, s.CalculatePercentile(42, 100, -5))

	// One sigma either side is symmetric around the median.
	up := s.CalculatePercentile(120, 100, 20)
	down := s.CalculatePercentile(80, 100, 20)
	assert.InDelta(t, 0.625, up, 0.01)
	assert.InDelta(t, 1.0, up+down, 1e-9)

	// Extremes saturate at the clamped z of 3.
	high := s.CalculatePercentile(1e9, 100, 20)
	low := s.CalculatePercentile(-1e9, 100, 20)
	assert.InDelta(t, 0.881, high, 0.01)
	assert.InDelta(t, 0.119, low, 0.01)
	assert.LessOrEqual(t, high, 0.99)
	assert.GreaterOrEqual(t, low, 0.01)
}

func TestCalculatePercentile_Monotonic(t *testing.T) {
	s := NewService(zap.NewNop())

	prev := 0.0
	for v := -100.0; v <= 300; v += 25 {
		p := s.CalculatePercentile(v, 100, 40)
		assert.GreaterOrEqual(t, p, prev)
		prev = p
	}
}

func TestGetSectorComparison(t *testing.T) {
	s := NewService(zap.NewNop())

	comparisons := s.GetSectorComparison("farmer", map[string]float64{
		"water_m3":      2000,
		"diesel_liters": 25,
		"co2_ann_kg":    1600,
		"unrelated":     7,
	}, "Kenya")

	require.Len(t, comparisons, 3)
	assert.InDelta(t, 0.5, comparisons["water_m3_percentile"], 0.01)
	assert.InDelta(t, 0.5, comparisons["diesel_liters_percentile"], 0.01)
	assert.Greater(t, comparisons["co2_ann_kg_percentile"], 0.5)
	assert.NotContains(t, comparisons, "unrelated_percentile")
}

func TestGetImprovementSuggestions(t *testing.T) {
	s := NewService(zap.NewNop())

	// Low water percentile triggers the drip irrigation advice.
	farmer := s.GetSectorComparison("farmer", map[string]float64{"water_m3": 100}, "Kenya")
	suggestions := s.GetImprovementSuggestions("farmer", farmer)
	assert.Contains(t, suggestions, "Implement drip irrigation to reduce water usage by 30-50%")
	assert.Contains(t, suggestions, "Use organic fertilizers and integrated pest management")

	// Missing percentiles default to the median and skip the
	// conditional advice.
	salon := s.GetImprovementSuggestions("salon", nil)
	assert.Equal(t, []string{"Switch to eco-friendly hair products and packaging"}, salon)

	other := s.GetImprovementSuggestions("bakery", nil)
	assert.Len(t, other, 3)
}
