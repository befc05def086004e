package laws

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Moments summarizes the shape of a sample.
type Moments struct {
	N        int
	Mean     float64
	StdDev   float64 // sample (n-1) standard deviation
	Variance float64 // sample variance
	Skewness float64 // adjusted Fisher-Pearson G1
	Kurtosis float64 // adjusted excess kurtosis G2
}

// ComputeMoments calculates mean, sample variance, skewness and excess kurtosis.
// Moments are taken over the sample divided by a power of two near max|x|, so
// large finite inputs do not overflow; the shape statistics are unaffected and
// mean and standard deviation are scaled back. Variance itself may still
// overflow to +Inf.
func ComputeMoments(data []float64) Moments {
	m := Moments{N: len(data)}
	if len(data) == 0 {
		return m
	}

	scale := momentScale(data)
	scaled := make([]float64, len(data))
	for i, x := range data {
		scaled[i] = x / scale
	}

	mean, _ := stats.Mean(scaled)
	m.Mean = mean * scale
	if len(data) > 1 {
		v, _ := stats.SampleVariance(scaled)
		m.StdDev = math.Sqrt(v) * scale
		m.Variance = v * scale * scale
	}
	m.Skewness = skewness(scaled, mean)
	m.Kurtosis = excessKurtosis(scaled, mean)
	return m
}

// Finite reports whether every statistic is a finite number.
func (m Moments) Finite() bool {
	for _, v := range []float64{m.Mean, m.StdDev, m.Skewness, m.Kurtosis} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// momentScale returns the largest power of two not above max|x|, or 1 when
// the sample has no finite non-zero magnitude.
func momentScale(data []float64) float64 {
	maxAbs := 0.0
	for _, x := range data {
		if a := math.Abs(x); a > maxAbs && !math.IsInf(a, 0) {
			maxAbs = a
		}
	}
	if maxAbs == 0 || math.IsNaN(maxAbs) {
		return 1
	}
	_, exp := math.Frexp(maxAbs)
	return math.Ldexp(1, exp-1)
}

// skewness computes the adjusted Fisher-Pearson coefficient from central moments.
func skewness(data []float64, mean float64) float64 {
	n := float64(len(data))
	if n < 3 {
		return 0
	}

	var m2, m3 float64
	for _, x := range data {
		d := x - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}

	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}

// excessKurtosis computes the bias-adjusted G2 statistic (0 for a normal sample).
func excessKurtosis(data []float64, mean float64) float64 {
	n := float64(len(data))
	if n < 4 {
		return 0
	}

	var m2, m4 float64
	for _, x := range data {
		d2 := (x - mean) * (x - mean)
		m2 += d2
		m4 += d2 * d2
	}
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return 0
	}

	g2 := m4/(m2*m2) - 3
	return ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3))
}

// NormalityTest returns the name of the test applied and its p-value in [0,1].
// D'Agostino's K^2 is used from eight observations upward; smaller samples
// fall back to a Jarque-Bera statistic. Non-finite moments reject normality.
func NormalityTest(data []float64, m Moments) (string, float64) {
	if !m.Finite() {
		return "none", 0
	}
	if len(data) < 3 || m.StdDev == 0 {
		return "none", 1.0
	}
	if len(data) >= 8 {
		if p, ok := dagostinoK2(float64(len(data)), m.Skewness, m.Kurtosis); ok {
			return "dagostino-pearson", p
		}
	}
	return "jarque-bera", jarqueBera(float64(len(data)), m.Skewness, m.Kurtosis)
}

func jarqueBera(n, skew, kurt float64) float64 {
	jb := n / 6 * (skew*skew + kurt*kurt/4)
	chi2 := distuv.ChiSquared{K: 2}
	return clampUnit(chi2.Survival(jb))
}

// dagostinoK2 combines the skewness and kurtosis z-transforms. The
// transforms are defined for sample (biased) moments, so the adjusted
// statistics are converted back first.
func dagostinoK2(n, g1adj, g2adj float64) (float64, bool) {
	// Undo the small-sample adjustments.
	b1 := g1adj * (n - 2) / math.Sqrt(n*(n-1))
	b2 := (g2adj*(n-2)*(n-3)/(n-1)-6)/(n+1) + 3

	// Skewness transform to Z1
	y := b1 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := (3 * (n*n + 27*n - 70) * (n + 1) * (n + 3)) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	if w2 <= 1 {
		return 0, false
	}
	delta := 1 / math.Sqrt(math.Log(math.Sqrt(w2)))
	alpha := math.Sqrt(2 / (w2 - 1))
	ay := y / alpha
	z1 := delta * math.Log(ay+math.Sqrt(ay*ay+1))

	// Kurtosis transform to Z2 (Anscombe-Glynn)
	e := 3 * (n - 1) / (n + 1)
	v := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	if v <= 0 {
		return 0, false
	}
	x := (b2 - e) / math.Sqrt(v)

	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	if a <= 4 {
		return 0, false
	}

	term := 1 - 2/(9*a)
	den := 1 + x*math.Sqrt(2/(a-4))
	if den <= 0 {
		// Kurtosis far outside the transform's domain.
		return 0, true
	}
	z2 := (term - math.Cbrt((1-2/a)/den)) / math.Sqrt(2/(9*a))

	k2 := z1*z1 + z2*z2
	chi2 := distuv.ChiSquared{K: 2}
	return clampUnit(chi2.Survival(k2)), true
}
