package laws

import (
	"fmt"
	"math"
	"sort"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

// ParetoMinItems is the hard floor of items for concentration analysis.
const ParetoMinItems = 2

// ParetoAnalyzer measures how much of the total the top items carry.
type ParetoAnalyzer struct{}

// NewParetoAnalyzer creates a new Pareto analyzer
func NewParetoAnalyzer() *ParetoAnalyzer {
	return &ParetoAnalyzer{}
}

func (a *ParetoAnalyzer) Law() law.Law { return law.Pareto }

func (a *ParetoAnalyzer) Description() string {
	return "Measures top-20% contribution, Pareto ratio and Gini concentration"
}

// Analyze sorts magnitudes descending and measures cumulative contribution.
func (a *ParetoAnalyzer) Analyze(data []float64, opts law.Options) (law.Assessment, error) {
	values := make([]float64, len(data))
	for i, v := range data {
		values[i] = math.Abs(v)
	}
	if len(values) < ParetoMinItems {
		return nil, errors.InsufficientData(
			"Insufficient data points for Pareto analysis: %d values, need at least %d", len(values), ParetoMinItems)
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
	values = foldCategories(values, opts.ParetoCategoryLimit)

	n := len(values)
	total := 0.0
	for _, v := range values {
		total += v
	}

	target := opts.ParetoRatio
	topCount := n / 5
	if topCount < 1 {
		topCount = 1
	}

	var top20, paretoRatio, gini float64
	if total == 0 {
		// Nothing to concentrate: treat as perfectly even.
		top20 = 100 * float64(topCount) / float64(n)
		paretoRatio = target
		gini = 0
	} else {
		cumulative := 0.0
		reached := false
		for i, v := range values {
			cumulative += v
			if i+1 == topCount {
				top20 = 100 * cumulative / total
			}
			if !reached && cumulative >= target*total-1e-9*total {
				paretoRatio = float64(i+1) / float64(n)
				reached = true
			}
		}
		gini = normalizedGini(values, total)
	}

	direction, risk := classifyParetoRisk(top20, 100*target, opts.Sensitivity())

	summary := fmt.Sprintf(
		"Pareto analysis of %d items: top 20%% contribute %.1f%% of the total (target %.0f%%), %.1f%% of items reach %.0f%% of value, concentration index %.3f (%s). Risk: %s.",
		n, top20, 100*target, 100*paretoRatio, 100*target, gini, direction, riskWord(risk))
	summary += lowConfidenceNote(n, opts)

	return law.ParetoAnalysis{
		Header: law.Header{
			ResultType:      law.TypeParetoAnalysis,
			Path:            opts.PathFilter,
			AnalysisSummary: summary,
		},
		Top20PercentContribution: top20,
		ParetoRatio:              paretoRatio,
		TargetRatio:              target,
		ConcentrationIndex:       gini,
		Direction:                direction,
		RiskLevel:                risk,
		TotalItems:               n,
	}, nil
}

// foldCategories keeps the largest limit-1 values and merges the rest into
// one trailing bucket, re-sorting since the merged bucket may dominate.
func foldCategories(sortedDesc []float64, limit int) []float64 {
	if limit <= 0 || len(sortedDesc) <= limit {
		return sortedDesc
	}
	if limit == 1 {
		limit = 2
	}
	kept := append([]float64(nil), sortedDesc[:limit-1]...)
	other := 0.0
	for _, v := range sortedDesc[limit-1:] {
		other += v
	}
	kept = append(kept, other)
	sort.Sort(sort.Reverse(sort.Float64Slice(kept)))
	return kept
}

// normalizedGini returns the Gini coefficient scaled so that one item
// holding everything scores 1.
func normalizedGini(sortedDesc []float64, total float64) float64 {
	n := float64(len(sortedDesc))
	if n < 2 || total == 0 {
		return 0
	}
	// Ascending rank i (1-indexed) corresponds to descending index n-i.
	weighted := 0.0
	for idx, v := range sortedDesc {
		rank := n - float64(idx)
		weighted += rank * v
	}
	g := 2*weighted/(n*total) - (n+1)/n
	g *= n / (n - 1)
	return math.Max(0, math.Min(1, g))
}

// classifyParetoRisk is asymmetric: a flat distribution escalates sooner than
// an extremely skewed one.
func classifyParetoRisk(top20, target, sensitivity float64) (string, law.RiskLevel) {
	deviation := top20 - target
	lowBand := 15 * sensitivity
	highBand := 12 * sensitivity

	switch {
	case deviation >= -lowBand && deviation <= highBand:
		return "balanced", law.RiskLow
	case deviation < -lowBand:
		if deviation >= -lowBand-25*sensitivity {
			return "toward uniformity", law.RiskMedium
		}
		return "toward uniformity", law.RiskHigh
	}
	if top20 <= math.Min(99.5, target+highBand+7*sensitivity) {
		return "toward extreme skew", law.RiskMedium
	}
	return "toward extreme skew", law.RiskHigh
}
