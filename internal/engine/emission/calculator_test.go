package emission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr(v float64) *float64 { return &v }

func TestCalculate_KenyaGridSavings(t *testing.T) {
	c := NewCalculator(nil, zap.NewNop())

	result := c.Calculate(context.Background(), "ev-1", "salon", "Kenya", Features{
		KWhSaved: ptr(100),
	})

	assert.Equal(t, "ev-1", result.EvidenceID)
	require.Len(t, result.CO2KgComponents, 1)
	assert.InDelta(t, 45.0, result.CO2KgComponents[ComponentEnergyGrid], 0.001)
	assert.InDelta(t, 45.0, result.CO2KgTotal, 0.001)
	assert.Equal(t, "Kenya EF 0.45 kgCO2/kWh + IPCC factors", result.Method)
	assert.Equal(t, SourceLocalKenya, result.Provenance["ef_source"])
	assert.InDelta(t, 0.7, result.Confidence, 0.001)
}

func TestCalculate_TotalEqualsComponentSum(t *testing.T) {
	c := NewCalculator(nil, zap.NewNop())

	result := c.Calculate(context.Background(), "ev-2", "farmer", "Kenya", Features{
		KWhSaved:            ptr(120),
		DieselLitersAvoided: ptr(30),
		PlasticKgRecycled:   ptr(10),
		WaterM3Saved:        ptr(400),
	})

	sum := 0.0
	for _, kg := range result.CO2KgComponents {
		sum += kg
	}
	assert.InDelta(t, sum, result.CO2KgTotal, 1e-9)

	assert.InDelta(t, 120*0.45, result.CO2KgComponents[ComponentEnergyGrid], 0.001)
	assert.InDelta(t, 30*2.68, result.CO2KgComponents[ComponentDiesel], 0.001)
	assert.InDelta(t, 10*6.0, result.CO2KgComponents[ComponentPlastic], 0.001)
	assert.InDelta(t, 400*0.5*0.45, result.CO2KgComponents[ComponentWater], 0.001)
}

func TestCalculate_UnknownRegionFallsBackToGlobal(t *testing.T) {
	c := NewCalculator(nil, zap.NewNop())

	result := c.Calculate(context.Background(), "ev-3", "welding", "Atlantis", Features{
		KWhSaved: ptr(100),
	})

	assert.InDelta(t, 52.0, result.CO2KgTotal, 0.001)
	assert.Equal(t, SourceGlobal, result.Provenance["ef_source"])
	// No local source bonus.
	assert.InDelta(t, 0.6, result.Confidence, 0.001)
}

func TestCalculate_RegionMatchIsCaseInsensitive(t *testing.T) {
	c := NewCalculator(nil, zap.NewNop())

	result := c.Calculate(context.Background(), "ev-4", "salon", "kenya", Features{
		KWhSaved: ptr(100),
	})

	assert.InDelta(t, 45.0, result.CO2KgTotal, 0.001)
	assert.Equal(t, SourceLocalKenya, result.Provenance["ef_source"])
}

func TestCalculate_ConfidenceAdjustments(t *testing.T) {
	c := NewCalculator(nil, zap.NewNop())

	// Tiny magnitudes lose a tenth.
	small := c.Calculate(context.Background(), "ev-5", "salon", "Kenya", Features{
		KWhSaved: ptr(0.5),
	})
	assert.InDelta(t, 0.6, small.Confidence, 0.001)

	// Implausibly large magnitudes lose two tenths, feature bonus caps
	// at three channels.
	huge := c.Calculate(context.Background(), "ev-6", "salon", "Kenya", Features{
		KWhSaved:            ptr(20000),
		DieselLitersAvoided: ptr(1),
		PlasticKgRecycled:   ptr(1),
		WaterM3Saved:        ptr(1),
	})
	assert.InDelta(t, 0.7, huge.Confidence, 0.001)

	assert.GreaterOrEqual(t, small.Confidence, 0.1)
	assert.LessOrEqual(t, small.Confidence, 1.0)
}

func TestCalculate_NoFeatures(t *testing.T) {
	c := NewCalculator(nil, zap.NewNop())

	result := c.Calculate(context.Background(), "ev-7", "other", "Kenya", Features{})

	assert.Empty(t, result.CO2KgComponents)
	assert.Zero(t, result.CO2KgTotal)
	// Base 0.5, local source bonus, minus the low-magnitude penalty.
	assert.InDelta(t, 0.5, result.Confidence, 0.001)
}

func TestErrorFallback(t *testing.T) {
	result := ErrorFallback("ev-8")

	assert.Equal(t, "ev-8", result.EvidenceID)
	assert.Equal(t, "error_fallback", result.Method)
	assert.Zero(t, result.CO2KgTotal)
	assert.Equal(t, 0.1, result.Confidence)
}

func TestEstimateFeaturesFromAmount(t *testing.T) {
	t.Run("salon LED bulbs", func(t *testing.T) {
		f := EstimateFeaturesFromAmount(2000, "salon", "led bulbs")
		require.NotNil(t, f.KWhSaved)
		assert.InDelta(t, 12.0, *f.KWhSaved, 0.001)
	})

	t.Run("salon LED below one bulb price", func(t *testing.T) {
		f := EstimateFeaturesFromAmount(200, "salon", "led bulbs")
		require.NotNil(t, f.KWhSaved)
		assert.InDelta(t, 2.4, *f.KWhSaved, 0.001)
	})

	t.Run("salon solar", func(t *testing.T) {
		f := EstimateFeaturesFromAmount(100000, "salon", "solar panel")
		require.NotNil(t, f.SolarKWhGenerated)
		assert.InDelta(t, 240.0, *f.SolarKWhGenerated, 0.001)
	})

	t.Run("farmer solar pump", func(t *testing.T) {
		f := EstimateFeaturesFromAmount(160000, "farmer", "solar water pump")
		require.NotNil(t, f.SolarKWhGenerated)
		require.NotNil(t, f.WaterM3Saved)
		assert.InDelta(t, 360.0, *f.SolarKWhGenerated, 0.001)
		assert.InDelta(t, 200.0, *f.WaterM3Saved, 0.001)
	})

	t.Run("farmer drip irrigation", func(t *testing.T) {
		f := EstimateFeaturesFromAmount(30000, "farmer", "drip irrigation kit")
		require.NotNil(t, f.WaterM3Saved)
		assert.InDelta(t, 1000.0, *f.WaterM3Saved, 0.001)
	})

	t.Run("welding solar", func(t *testing.T) {
		f := EstimateFeaturesFromAmount(120000, "welding", "solar installation")
		require.NotNil(t, f.SolarKWhGenerated)
		assert.InDelta(t, 250.0, *f.SolarKWhGenerated, 0.001)
	})

	t.Run("welding inverter", func(t *testing.T) {
		f := EstimateFeaturesFromAmount(200000, "welding", "inverter welder")
		require.NotNil(t, f.ApplianceEfficiencyGain)
		assert.InDelta(t, 800.0, *f.ApplianceEfficiencyGain, 0.001)
	})

	t.Run("zero amount", func(t *testing.T) {
		f := EstimateFeaturesFromAmount(0, "salon", "led bulbs")
		assert.Zero(t, f.Count())
	})

	t.Run("unknown sector", func(t *testing.T) {
		f := EstimateFeaturesFromAmount(50000, "bakery", "solar oven")
		assert.Zero(t, f.Count())
	})
}
