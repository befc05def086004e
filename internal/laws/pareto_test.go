package laws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

func analyzePareto(t *testing.T, data []float64, opts law.Options) law.ParetoAnalysis {
	t.Helper()
	res, err := NewParetoAnalyzer().Analyze(data, opts)
	require.NoError(t, err)
	p, ok := res.(law.ParetoAnalysis)
	require.True(t, ok)
	return p
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestParetoAnalyzer_Fixtures(t *testing.T) {
	t.Run("top four dominate", func(t *testing.T) {
		data := append(repeat(1000, 4), repeat(10, 16)...)
		p := analyzePareto(t, data, law.DefaultOptions())

		assert.Equal(t, law.TypeParetoAnalysis, p.Kind())
		assert.Greater(t, p.Top20PercentContribution, 60.0)
		assert.Equal(t, 20, p.TotalItems)
		assert.Greater(t, p.ConcentrationIndex, 0.5)
	})

	t.Run("uniform", func(t *testing.T) {
		p := analyzePareto(t, repeat(50, 20), law.DefaultOptions())

		assert.Less(t, p.Top20PercentContribution, 60.0)
		assert.InDelta(t, 20.0, p.Top20PercentContribution, 1e-9)
		assert.InDelta(t, 0.0, p.ConcentrationIndex, 1e-9)
		assert.InDelta(t, 0.8, p.ParetoRatio, 1e-9)
		assert.Equal(t, "toward uniformity", p.Direction)
		assert.Equal(t, law.RiskHigh, p.RiskLevel)
	})

	t.Run("classic eighty twenty", func(t *testing.T) {
		data := append(repeat(200, 4), repeat(12.5, 16)...)
		p := analyzePareto(t, data, law.DefaultOptions())

		assert.InDelta(t, 80.0, p.Top20PercentContribution, 1e-9)
		assert.InDelta(t, 0.2, p.ParetoRatio, 1e-9)
		assert.Equal(t, "balanced", p.Direction)
		assert.Equal(t, law.RiskLow, p.RiskLevel)
	})
}

func TestParetoAnalyzer_EdgeCases(t *testing.T) {
	_, err := NewParetoAnalyzer().Analyze([]float64{42}, law.DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInsufficientData))

	zeros := analyzePareto(t, repeat(0, 10), law.DefaultOptions())
	assert.InDelta(t, 20.0, zeros.Top20PercentContribution, 1e-9)
	assert.Zero(t, zeros.ConcentrationIndex)

	negatives := analyzePareto(t, []float64{-100, 1, 1, 1, 1}, law.DefaultOptions())
	assert.InDelta(t, 100.0/104.0*100, negatives.Top20PercentContribution, 1e-9)
}

func TestParetoAnalyzer_CategoryLimit(t *testing.T) {
	opts := law.DefaultOptions()
	opts.ParetoCategoryLimit = 3
	p := analyzePareto(t, []float64{50, 40, 5, 3, 1, 1}, opts)

	// 50, 40, other(10)
	assert.Equal(t, 3, p.TotalItems)
	assert.InDelta(t, 50.0, p.Top20PercentContribution, 1e-9)
}

func TestNormalizedGini(t *testing.T) {
	assert.InDelta(t, 1.0, normalizedGini([]float64{100, 0, 0, 0}, 100), 1e-9)
	assert.InDelta(t, 0.0, normalizedGini([]float64{5, 5, 5, 5}, 20), 1e-9)
	assert.Zero(t, normalizedGini([]float64{7}, 7))
}

func TestClassifyParetoRisk_Asymmetric(t *testing.T) {
	_, under := classifyParetoRisk(50, 80, 1)
	_, over := classifyParetoRisk(98, 80, 1)
	_, extreme := classifyParetoRisk(99.9, 80, 1)

	assert.Equal(t, law.RiskMedium, under)
	assert.Equal(t, law.RiskMedium, over)
	assert.Equal(t, law.RiskHigh, extreme)

	_, flat := classifyParetoRisk(30, 80, 1)
	assert.Equal(t, law.RiskHigh, flat)
}
