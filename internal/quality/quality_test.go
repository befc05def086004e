package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawkit/domain/law"
	"lawkit/internal/laws"
	"lawkit/internal/numeric"
)

func gaussian(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 15*laws.NormalQuantile((float64(i)+0.5)/float64(n))
	}
	return out
}

func hasIssue(issues []string, fragment string) bool {
	for _, s := range issues {
		if strings.Contains(s, fragment) {
			return true
		}
	}
	return false
}

func TestValidator_CleanSample(t *testing.T) {
	res := NewValidator().Validate(numeric.Sample{Values: gaussian(100)}, law.DefaultOptions())

	assert.Equal(t, law.TypeValidationResult, res.Kind())
	assert.True(t, res.ValidationPassed)
	assert.Equal(t, 1.0, res.DataQualityScore)
	assert.Empty(t, res.IssuesFound)
	assert.Equal(t, 100, res.TotalNumbers)
}

func TestValidator_Checks(t *testing.T) {
	round := make([]float64, 40)
	for i := range round {
		round[i] = float64((i + 1) * 10)
	}

	tests := []struct {
		name     string
		sample   numeric.Sample
		passed   bool
		fragment string
	}{
		{"constant", numeric.Sample{Values: repeat(5, 40)}, false, "identical"},
		{"mostly non-numeric", numeric.Sample{Values: gaussian(40), Skipped: 60}, false, "non-numeric"},
		{"small", numeric.Sample{Values: []float64{1, 2, 3, 4, 5}}, true, "below the recommended minimum"},
		{"tiny", numeric.Sample{Values: []float64{1, 2}}, false, "at least 3"},
		{"round numbers", numeric.Sample{Values: round}, true, "end in 0 or 5"},
		{"zeros", numeric.Sample{Values: append(repeat(0, 20), gaussian(40)...)}, true, "are zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewValidator().Validate(tt.sample, law.DefaultOptions())
			assert.Equal(t, tt.passed, res.ValidationPassed)
			assert.True(t, hasIssue(res.IssuesFound, tt.fragment), "issues: %v", res.IssuesFound)
			assert.GreaterOrEqual(t, res.DataQualityScore, 0.0)
			assert.Less(t, res.DataQualityScore, 1.0)
			assert.Equal(t, tt.sample.Skipped, res.SkippedValues)
		})
	}
}

func TestDiagnosticEngine_Outliers(t *testing.T) {
	data := append(gaussian(100), 1000)
	res := NewDiagnosticEngine().Diagnose(data, law.DefaultOptions())

	assert.Equal(t, law.TypeDiagnosticResult, res.Kind())
	assert.Equal(t, DiagnosticOutlierDetection, res.DiagnosticType)
	assert.Equal(t, []float64{1000}, res.Outliers)
	assert.NotEmpty(t, res.Findings)
	assert.Greater(t, res.ConfidenceLevel, 0.0)
	assert.LessOrEqual(t, res.ConfidenceLevel, 1.0)
}

func TestDiagnosticEngine_OutlierDetectionDisabled(t *testing.T) {
	opts := law.DefaultOptions()
	opts.EnableOutlierDetection = false
	res := NewDiagnosticEngine().Diagnose(append(gaussian(100), 1000), opts)

	assert.Equal(t, DiagnosticGeneral, res.DiagnosticType)
	assert.Empty(t, res.Outliers)
}

func TestDiagnosticEngine_SmallAndClean(t *testing.T) {
	res := NewDiagnosticEngine().Diagnose([]float64{1, 2, 3}, law.DefaultOptions())
	require.NotEmpty(t, res.Findings)
	assert.Equal(t, DiagnosticGeneral, res.DiagnosticType)
	assert.InDelta(t, 0.95*3/30, res.ConfidenceLevel, 1e-9)

	clean := NewDiagnosticEngine().Diagnose(gaussian(100), law.DefaultOptions())
	assert.Contains(t, clean.Findings, "No outliers or distribution anomalies detected")
	assert.InDelta(t, 0.95, clean.ConfidenceLevel, 1e-9)
}

func TestDiagnosticEngine_Anomalies(t *testing.T) {
	data := append(repeat(1, 30), gaussian(40)...)
	res := NewDiagnosticEngine().Diagnose(data, law.DefaultOptions())
	assert.True(t, hasIssue(res.Findings, "clustering"), "findings: %v", res.Findings)
	assert.True(t, hasIssue(res.Findings, "gap of"), "findings: %v", res.Findings)
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
