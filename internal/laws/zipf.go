package laws

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/stat"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

// ZipfAnalyzer fits a power law to rank-ordered magnitudes.
type ZipfAnalyzer struct{}

// NewZipfAnalyzer creates a new Zipf analyzer
func NewZipfAnalyzer() *ZipfAnalyzer {
	return &ZipfAnalyzer{}
}

func (a *ZipfAnalyzer) Law() law.Law { return law.Zipf }

func (a *ZipfAnalyzer) Description() string {
	return "Fits log(value) against log(rank) and checks the exponent is near 1"
}

// Analyze regresses log values on log ranks with least squares.
func (a *ZipfAnalyzer) Analyze(data []float64, opts law.Options) (law.Assessment, error) {
	values := make([]float64, 0, len(data))
	for _, v := range data {
		if v > 0 && !math.IsInf(v, 0) && v >= opts.ZipfFrequencyCutoff {
			values = append(values, v)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
	if opts.ZipfRankLimit > 0 && len(values) > opts.ZipfRankLimit {
		values = values[:opts.ZipfRankLimit]
	}

	if len(values) < 2 || values[0] == values[len(values)-1] {
		return nil, errors.InsufficientData(
			"Insufficient data points for Zipf analysis: need at least 2 distinct positive values, got %d values", len(values))
	}

	xs := make([]float64, len(values))
	ys := make([]float64, len(values))
	for i, v := range values {
		xs[i] = math.Log(float64(i + 1))
		ys[i] = math.Log(v)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		r = 0
	}
	exponent := -slope

	residual := 0.0
	for i := range xs {
		d := ys[i] - (intercept + slope*xs[i])
		residual += d * d
	}
	deviation := math.Sqrt(residual / float64(len(xs)))

	risk := classifyZipfRisk(exponent, r, opts.Sensitivity())
	summary := fmt.Sprintf(
		"Zipf analysis of %d ranked items: exponent %.3f (ideal 1.0), correlation %.3f, RMS log deviation %.3f. Risk: %s.",
		len(values), exponent, r, deviation, riskWord(risk))
	summary += lowConfidenceNote(len(values), opts)

	return law.ZipfAnalysis{
		Header: law.Header{
			ResultType:      law.TypeZipfAnalysis,
			Path:            opts.PathFilter,
			AnalysisSummary: summary,
		},
		ZipfCoefficient:        exponent,
		CorrelationCoefficient: r,
		RSquared:               r * r,
		DeviationScore:         deviation,
		RiskLevel:              risk,
		TotalItems:             len(values),
	}, nil
}

func classifyZipfRisk(exponent, r, sensitivity float64) law.RiskLevel {
	drift := math.Abs(exponent - 1)
	fit := math.Abs(r)
	switch {
	case fit >= 0.9 && drift <= 0.3*sensitivity:
		return law.RiskLow
	case fit >= 0.75 && drift <= 0.8*sensitivity:
		return law.RiskMedium
	}
	return law.RiskHigh
}

// WordFrequencies counts case-folded word occurrences in text and returns the
// counts sorted descending, ready for Zipf analysis.
func WordFrequencies(text string) []float64 {
	counts := make(map[string]int)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
	for _, w := range words {
		w = strings.Trim(strings.ToLower(w), "'")
		if w == "" {
			continue
		}
		counts[w]++
	}

	freqs := make([]float64, 0, len(counts))
	for _, c := range counts {
		freqs = append(freqs, float64(c))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(freqs)))
	return freqs
}
