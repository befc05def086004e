package laws

import (
	"fmt"
	"math"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

// NormalMinPoints is the smallest sample the shape statistics accept.
const NormalMinPoints = 3

// NormalAnalyzer checks a sample for Gaussian shape.
type NormalAnalyzer struct{}

// NewNormalAnalyzer creates a new normality analyzer
func NewNormalAnalyzer() *NormalAnalyzer {
	return &NormalAnalyzer{}
}

func (a *NormalAnalyzer) Law() law.Law { return law.Normal }

func (a *NormalAnalyzer) Description() string {
	return "Tests skewness, kurtosis and an omnibus normality statistic"
}

// Analyze computes moments, a normality p-value and a mean confidence interval.
func (a *NormalAnalyzer) Analyze(data []float64, opts law.Options) (law.Assessment, error) {
	if len(data) < NormalMinPoints {
		return nil, errors.InsufficientData(
			"Insufficient data points for normality analysis: %d values, need at least %d", len(data), NormalMinPoints)
	}

	m := ComputeMoments(data)
	testName, pValue := NormalityTest(data, m)
	lower, upper := ConfidenceIntervalMean(m.Mean, m.StdDev, m.N, opts.ConfidenceLevel)
	lower, upper = clampFinite(lower), clampFinite(upper)

	beyond2, beyond3 := 0, 0
	if m.StdDev > 0 {
		for _, x := range data {
			z := math.Abs(x-m.Mean) / m.StdDev
			if z > 2 {
				beyond2++
			}
			if z > 3 {
				beyond3++
			}
		}
	}

	risk := classifyNormalRisk(m, pValue, opts)

	summary := fmt.Sprintf(
		"Normality analysis of %d numbers: mean %.4g, std dev %.4g, skewness %.3f, excess kurtosis %.3f, %s p=%.4f; %d values beyond 2σ, %d beyond 3σ. Risk: %s.",
		m.N, m.Mean, m.StdDev, m.Skewness, m.Kurtosis, testName, pValue, beyond2, beyond3, riskWord(risk))
	if m.StdDev == 0 {
		summary += " The sample is constant."
	}
	summary += lowConfidenceNote(m.N, opts)

	return law.NormalAnalysis{
		Header: law.Header{
			ResultType:      law.TypeNormalAnalysis,
			Path:            opts.PathFilter,
			AnalysisSummary: summary,
		},
		Mean:            m.Mean,
		StdDev:          m.StdDev,
		Skewness:        m.Skewness,
		Kurtosis:        m.Kurtosis,
		NormalityTest:   testName,
		NormalityTestP:  pValue,
		ConfidenceLevel: opts.ConfidenceLevel,
		MeanCILower:     lower,
		MeanCIUpper:     upper,
		Beyond2Sigma:    beyond2,
		Beyond3Sigma:    beyond3,
		RiskLevel:       risk,
		TotalNumbers:    m.N,
	}, nil
}

func classifyNormalRisk(m Moments, pValue float64, opts law.Options) law.RiskLevel {
	if !m.Finite() {
		return law.RiskHigh
	}
	if m.StdDev == 0 {
		return law.RiskMedium
	}
	s := opts.Sensitivity()
	skew := math.Abs(m.Skewness)
	kurt := math.Abs(m.Kurtosis)
	switch {
	case pValue >= opts.SignificanceLevel && skew < 0.5*s && kurt < 1*s:
		return law.RiskLow
	case pValue >= opts.SignificanceLevel/10 && skew < 1*s && kurt < 3*s:
		return law.RiskMedium
	}
	return law.RiskHigh
}

// clampFinite pins overflowed interval bounds to the largest float64.
func clampFinite(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
