package laws

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

// BenfordMinDigits is the hard floor of usable leading digits.
const BenfordMinDigits = 10

// madBands holds Nigrini's MAD conformity limits for one digit test.
type madBands struct {
	close, acceptable, marginal float64
}

var benfordBands = map[string]madBands{
	law.DigitsFirst:    {close: 0.006, acceptable: 0.012, marginal: 0.015},
	law.DigitsSecond:   {close: 0.008, acceptable: 0.010, marginal: 0.012},
	law.DigitsFirstTwo: {close: 0.0012, acceptable: 0.0018, marginal: 0.0022},
}

// BenfordAnalyzer tests leading-digit frequencies against Benford's law.
type BenfordAnalyzer struct{}

// NewBenfordAnalyzer creates a new Benford analyzer
func NewBenfordAnalyzer() *BenfordAnalyzer {
	return &BenfordAnalyzer{}
}

func (a *BenfordAnalyzer) Law() law.Law { return law.Benford }

func (a *BenfordAnalyzer) Description() string {
	return "Compares leading-digit frequencies with the logarithmic Benford distribution"
}

// Analyze computes observed digit counts, chi-square, p-value and MAD.
func (a *BenfordAnalyzer) Analyze(data []float64, opts law.Options) (law.Assessment, error) {
	mode := opts.BenfordDigitMode()
	base := opts.BenfordBase
	if base == 0 {
		base = 10
	}

	expected := BenfordExpected(mode, base)
	observed := make(law.DigitDistribution, len(expected))
	for d := range expected {
		observed[d] = 0
	}

	total, excluded := 0, 0
	for _, v := range data {
		d, ok := benfordDigit(v, mode, base)
		if !ok {
			excluded++
			continue
		}
		observed[d]++
		total++
	}

	floor := opts.Floor(BenfordMinDigits, 1)
	if total < floor {
		return nil, errors.InsufficientData(
			"Insufficient data points for Benford analysis: %d usable leading digits, need at least %d", total, floor)
	}

	n := float64(total)
	chiSquare, madSum := 0.0, 0.0
	for _, d := range expected.Digits() {
		exp := expected[d] * n
		diff := observed[d] - exp
		chiSquare += diff * diff / exp
		madSum += math.Abs(observed[d]/n - expected[d])
	}
	df := len(expected) - 1
	pValue := ChiSquarePValue(chiSquare, df)
	mad := madSum / float64(len(expected))

	bands := benfordBands[mode]
	conformity := classifyConformity(mad, bands)
	risk := classifyBenfordRisk(mad, pValue, bands, opts)

	summary := fmt.Sprintf(
		"Benford's Law analysis of %d numbers (%s digit, base %d): MAD %.4f (%s), chi-square %.2f with %d df (p=%.4f). Risk: %s.",
		total, mode, base, mad, conformity, chiSquare, df, pValue, riskWord(risk))
	if excluded > 0 {
		summary += fmt.Sprintf(" %d values without a usable leading digit were excluded.", excluded)
	}
	summary += lowConfidenceNote(total, opts)

	return law.BenfordAnalysis{
		Header: law.Header{
			ResultType:      law.TypeBenfordAnalysis,
			Path:            opts.PathFilter,
			AnalysisSummary: summary,
		},
		DigitMode:            mode,
		Base:                 base,
		ObservedDistribution: observed,
		ExpectedDistribution: expected,
		ChiSquare:            chiSquare,
		DegreesOfFreedom:     df,
		PValue:               pValue,
		MAD:                  mad,
		Conformity:           conformity,
		RiskLevel:            risk,
		TotalNumbers:         total,
		ExcludedCount:        excluded,
	}, nil
}

func classifyConformity(mad float64, bands madBands) string {
	switch {
	case mad <= bands.close:
		return "close conformity"
	case mad <= bands.acceptable:
		return "acceptable conformity"
	case mad <= bands.marginal:
		return "marginally acceptable conformity"
	}
	return "nonconformity"
}

func classifyBenfordRisk(mad, pValue float64, bands madBands, opts law.Options) law.RiskLevel {
	s := opts.Sensitivity()
	switch {
	case mad <= bands.acceptable*s && pValue >= opts.SignificanceLevel:
		return law.RiskLow
	case mad > bands.marginal*s && pValue < opts.SignificanceLevel:
		return law.RiskHigh
	}
	return law.RiskMedium
}

// BenfordExpected returns the theoretical distribution for a digit mode.
func BenfordExpected(mode string, base int) law.DigitDistribution {
	expected := make(law.DigitDistribution)
	switch mode {
	case law.DigitsSecond:
		for d := 0; d <= 9; d++ {
			p := 0.0
			for k := 1; k <= 9; k++ {
				p += math.Log10(1 + 1/float64(10*k+d))
			}
			expected[d] = p
		}
	case law.DigitsFirstTwo:
		for d := 10; d <= 99; d++ {
			expected[d] = math.Log10(1 + 1/float64(d))
		}
	default:
		lb := math.Log(float64(base))
		for d := 1; d < base; d++ {
			expected[d] = math.Log(1+1/float64(d)) / lb
		}
	}
	return expected
}

// benfordDigit extracts the digit (or digit pair) a mode tests. Zero and
// non-finite values have no leading digit.
func benfordDigit(v float64, mode string, base int) (int, bool) {
	a := math.Abs(v)
	if a == 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return 0, false
	}

	if base != 10 {
		k := math.Floor(math.Log(a) / math.Log(float64(base)))
		m := a / math.Pow(float64(base), k)
		d := int(math.Floor(m + 1e-9))
		if d >= base {
			d = 1
		}
		if d < 1 {
			d = base - 1
		}
		return d, true
	}

	digits := significantDigits(a)
	first := int(digits[0] - '0')
	second := int(digits[1] - '0')
	switch mode {
	case law.DigitsSecond:
		return second, true
	case law.DigitsFirstTwo:
		return first*10 + second, true
	}
	return first, true
}

// significantDigits renders a positive value's mantissa without the decimal
// point. Twelve digits of precision absorb binary representation noise.
func significantDigits(a float64) string {
	s := strconv.FormatFloat(a, 'e', 12, 64)
	mantissa := s[:strings.IndexByte(s, 'e')]
	return strings.Replace(mantissa, ".", "", 1)
}
