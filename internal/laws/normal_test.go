package laws

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

func normalQuantiles(n int, mean, std float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + std*NormalQuantile((float64(i)+0.5)/float64(n))
	}
	return out
}

func TestNormalAnalyzer_GaussianSample(t *testing.T) {
	res, err := NewNormalAnalyzer().Analyze(normalQuantiles(500, 100, 15), law.DefaultOptions())
	require.NoError(t, err)
	n := res.(law.NormalAnalysis)

	assert.Equal(t, law.TypeNormalAnalysis, n.Kind())
	assert.InDelta(t, 100, n.Mean, 1e-6)
	assert.InDelta(t, 15, n.StdDev, 0.5)
	assert.InDelta(t, 0, n.Skewness, 1e-6)
	assert.Equal(t, "dagostino-pearson", n.NormalityTest)
	assert.Greater(t, n.NormalityTestP, 0.05)
	assert.Less(t, n.MeanCILower, 100.0)
	assert.Greater(t, n.MeanCIUpper, 100.0)
	assert.Equal(t, 0.95, n.ConfidenceLevel)
	assert.Equal(t, law.RiskLow, n.RiskLevel)
	assert.Equal(t, 500, n.TotalNumbers)
}

func TestNormalAnalyzer_SkewedSample(t *testing.T) {
	data := make([]float64, 500)
	for i := range data {
		data[i] = -math.Log(1 - (float64(i)+0.5)/500)
	}
	res, err := NewNormalAnalyzer().Analyze(data, law.DefaultOptions())
	require.NoError(t, err)
	n := res.(law.NormalAnalysis)

	assert.Greater(t, n.Skewness, 1.0)
	assert.Less(t, n.NormalityTestP, 0.001)
	assert.Greater(t, n.Beyond2Sigma, 0)
	assert.Equal(t, law.RiskHigh, n.RiskLevel)
}

func TestNormalAnalyzer_SmallSamples(t *testing.T) {
	_, err := NewNormalAnalyzer().Analyze([]float64{1, 2}, law.DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInsufficientData))
	assert.Contains(t, err.Error(), "Insufficient data points")

	res, err := NewNormalAnalyzer().Analyze([]float64{1, 2, 3}, law.DefaultOptions())
	require.NoError(t, err)
	n := res.(law.NormalAnalysis)
	assert.Greater(t, n.StdDev, 0.0)
	assert.Equal(t, "jarque-bera", n.NormalityTest)
	assert.True(t, n.NormalityTestP >= 0 && n.NormalityTestP <= 1)
	assert.Contains(t, n.Summary(), "below the recommended minimum")
}

func TestNormalAnalyzer_ConstantSample(t *testing.T) {
	res, err := NewNormalAnalyzer().Analyze([]float64{5, 5, 5, 5}, law.DefaultOptions())
	require.NoError(t, err)
	n := res.(law.NormalAnalysis)

	assert.Zero(t, n.StdDev)
	assert.Equal(t, "none", n.NormalityTest)
	assert.Equal(t, 5.0, n.MeanCILower)
	assert.Equal(t, 5.0, n.MeanCIUpper)
	assert.Equal(t, law.RiskMedium, n.RiskLevel)
}

func TestNormalAnalyzer_LargeMagnitudes(t *testing.T) {
	data := []float64{1e200, -1e200, 5e199, 1, 2, 3, 7, 9}
	res, err := NewNormalAnalyzer().Analyze(data, law.DefaultOptions())
	require.NoError(t, err)
	n := res.(law.NormalAnalysis)

	for _, v := range []float64{n.Mean, n.StdDev, n.Skewness, n.Kurtosis, n.MeanCILower, n.MeanCIUpper} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "got %v", v)
	}
	assert.Greater(t, n.StdDev, 1e199)
	assert.True(t, n.NormalityTestP >= 0 && n.NormalityTestP <= 1)

	_, err = json.Marshal(n)
	assert.NoError(t, err)
}

func TestNormalAnalyzer_Idempotent(t *testing.T) {
	data := normalQuantiles(64, 10, 2)
	a, err := NewNormalAnalyzer().Analyze(data, law.DefaultOptions())
	require.NoError(t, err)
	b, err := NewNormalAnalyzer().Analyze(data, law.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
