package laws

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

const (
	// PoissonLowConfidence is the observation count below which a fit is flagged.
	PoissonLowConfidence = 10
	// PoissonMaxCount is 2^53; above it float64 no longer holds every integer.
	PoissonMaxCount = 1 << 53

	minExpectedPerBin = 5.0
	// Lambdas above this skip binning for the index-of-dispersion test.
	poissonBinLimit = 1e6
)

// PoissonAnalyzer checks event counts for equidispersion and Poisson fit.
type PoissonAnalyzer struct{}

// NewPoissonAnalyzer creates a new Poisson analyzer
func NewPoissonAnalyzer() *PoissonAnalyzer {
	return &PoissonAnalyzer{}
}

func (a *PoissonAnalyzer) Law() law.Law { return law.Poisson }

func (a *PoissonAnalyzer) Description() string {
	return "Compares count frequencies with a fitted Poisson distribution"
}

// Analyze rounds values to counts, fits lambda and tests goodness of fit.
func (a *PoissonAnalyzer) Analyze(data []float64, opts law.Options) (law.Assessment, error) {
	counts := make([]float64, 0, len(data))
	oversized := 0
	for _, v := range data {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		c := math.Round(v)
		if c > PoissonMaxCount {
			oversized++
			continue
		}
		counts = append(counts, c)
	}
	if len(counts) == 0 {
		if oversized > 0 {
			return nil, errors.InsufficientData(
				"Insufficient data points for Poisson analysis: all %d counts exceed 2^53", oversized)
		}
		return nil, errors.InsufficientData("Insufficient data points for Poisson analysis: no non-negative counts")
	}

	lambda, _ := stats.Mean(counts)
	if lambda == 0 {
		return nil, errors.InsufficientData("Insufficient data points for Poisson analysis: all counts are zero")
	}
	variance := 0.0
	if len(counts) > 1 {
		variance, _ = stats.SampleVariance(counts)
	}
	ratio := variance / lambda

	testName, pValue := poissonFit(counts, lambda, variance)

	totalEvents := sumEvents(counts)
	lowConfidence := len(counts) < PoissonLowConfidence
	risk := classifyPoissonRisk(ratio, pValue, opts)

	summary := fmt.Sprintf(
		"Poisson analysis of %d observations (%d events): lambda %.4f, variance ratio %.3f, %s p=%.4f, P(0)=%.4f. Risk: %s.",
		len(counts), totalEvents, lambda, ratio, testName, pValue, math.Exp(-lambda), riskWord(risk))
	if oversized > 0 {
		summary += fmt.Sprintf(" %d values above 2^53 are not exact counts and were excluded.", oversized)
	}
	if lowConfidence {
		summary += fmt.Sprintf(" Fewer than %d observations; low confidence.", PoissonLowConfidence)
	} else {
		summary += lowConfidenceNote(len(counts), opts)
	}

	return law.PoissonAnalysis{
		Header: law.Header{
			ResultType:      law.TypePoissonAnalysis,
			Path:            opts.PathFilter,
			AnalysisSummary: summary,
		},
		Lambda:            lambda,
		Variance:          variance,
		VarianceRatio:     ratio,
		GoodnessOfFitTest: testName,
		PoissonTestP:      pValue,
		ProbabilityZero:   math.Exp(-lambda),
		LowConfidence:     lowConfidence,
		RiskLevel:         risk,
		TotalEvents:       totalEvents,
		TotalObservations: len(counts),
		ExcludedCount:     oversized,
	}, nil
}

// sumEvents totals the counts, saturating at math.MaxInt64.
func sumEvents(counts []float64) int64 {
	var total int64
	for _, c := range counts {
		k := int64(c)
		if total > math.MaxInt64-k {
			return math.MaxInt64
		}
		total += k
	}
	return total
}

// poissonFit runs a binned chi-square test, or the index-of-dispersion test
// when lambda is too large to bin or merging sparse bins leaves fewer than three.
func poissonFit(counts []float64, lambda, variance float64) (string, float64) {
	if lambda <= poissonBinLimit {
		maxK := 0.0
		for _, c := range counts {
			maxK = math.Max(maxK, c)
		}
		if bins := poissonBins(counts, lambda, maxK); len(bins) >= 3 {
			chiSquare := 0.0
			for _, b := range bins {
				d := b.observed - b.expected
				chiSquare += d * d / b.expected
			}
			// One parameter (lambda) is estimated from the data.
			return "chi-square", ChiSquarePValue(chiSquare, len(bins)-2)
		}
	}

	if len(counts) < 2 {
		return "none", 1.0
	}
	n := float64(len(counts))
	dispersion := (n - 1) * variance / lambda
	return "index-of-dispersion", ChiSquareTwoSidedPValue(dispersion, len(counts)-1)
}

type poissonBin struct{ observed, expected float64 }

// poissonBins merges adjacent counts until each bin expects at least
// minExpectedPerBin observations. Only the window returned by poissonWindow
// is walked; counts outside it fall into the two tail bins.
func poissonBins(counts []float64, lambda, maxK float64) []poissonBin {
	n := float64(len(counts))
	lo, hi := poissonWindow(lambda, maxK)

	var below, above float64
	freq := make(map[int]float64)
	for _, c := range counts {
		switch {
		case c <= float64(lo):
			below++
		case c >= float64(hi):
			above++
		default:
			freq[int(c)]++
		}
	}

	var bins []poissonBin
	cur := poissonBin{observed: below, expected: n * PoissonCDF(lo, lambda)}
	for k := lo + 1; k < hi; k++ {
		if cur.expected >= minExpectedPerBin {
			bins = append(bins, cur)
			cur = poissonBin{}
		}
		cur.observed += freq[k]
		cur.expected += n * PoissonPMF(k, lambda)
	}
	if cur.expected >= minExpectedPerBin {
		bins = append(bins, cur)
		cur = poissonBin{}
	}

	// Upper tail bin, P(X >= hi).
	cur.observed += above
	cur.expected += n * (1 - PoissonCDF(hi-1, lambda))
	if cur.expected >= minExpectedPerBin || len(bins) == 0 {
		return append(bins, cur)
	}
	last := &bins[len(bins)-1]
	last.observed += cur.observed
	last.expected += cur.expected
	return bins
}

// poissonWindow bounds the counts carrying essentially all Poisson(lambda)
// mass, about eight standard deviations either side, clamped to [0, maxK].
// lo is the upper edge of the lower tail bin and hi the lower edge of the
// upper one, with lo < hi.
func poissonWindow(lambda, maxK float64) (int, int) {
	spread := 8*math.Sqrt(lambda) + 10
	lo := int(math.Max(0, math.Floor(lambda-spread)))
	hi := int(math.Min(maxK, math.Ceil(lambda+spread)))
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func classifyPoissonRisk(ratio, pValue float64, opts law.Options) law.RiskLevel {
	s := opts.Sensitivity()
	drift := math.Abs(ratio - 1)
	switch {
	case drift <= 0.25*s && pValue >= opts.SignificanceLevel:
		return law.RiskLow
	case drift <= 0.6*s && pValue >= opts.SignificanceLevel/10:
		return law.RiskMedium
	}
	return law.RiskHigh
}
