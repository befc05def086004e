package laws

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquarePValue computes the upper-tail p-value of a chi-square statistic.
func ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(chiSquare) {
		return 1.0
	}
	if chiSquare <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return clampUnit(chiDist.Survival(chiSquare))
}

// ChiSquareTwoSidedPValue is used by dispersion tests where both tails
// indicate departure from the null.
func ChiSquareTwoSidedPValue(statistic float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(statistic) {
		return 1.0
	}
	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	cdf := chiDist.CDF(statistic)
	return clampUnit(2 * math.Min(cdf, 1-cdf))
}

// NormalCDF computes cumulative distribution function for standard normal
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes quantile function for standard normal (inverse CDF)
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// PoissonPMF returns P(X = k) for a Poisson(lambda) variable.
func PoissonPMF(k int, lambda float64) float64 {
	return distuv.Poisson{Lambda: lambda}.Prob(float64(k))
}

// PoissonCDF returns P(X <= k) for a Poisson(lambda) variable.
func PoissonCDF(k int, lambda float64) float64 {
	return distuv.Poisson{Lambda: lambda}.CDF(float64(k))
}

// ConfidenceIntervalMean computes confidence interval for population mean
func ConfidenceIntervalMean(sampleMean, sampleStd float64, sampleSize int, confidenceLevel float64) (lower, upper float64) {
	if sampleSize < 2 || sampleStd == 0 {
		return sampleMean, sampleMean
	}

	// t-critical value for confidence level
	df := float64(sampleSize - 1)
	alpha := 1.0 - confidenceLevel
	tCritical := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(1.0 - alpha/2.0)

	se := sampleStd / math.Sqrt(float64(sampleSize))
	margin := tCritical * se
	return sampleMean - margin, sampleMean + margin
}

func clampUnit(p float64) float64 {
	if math.IsNaN(p) {
		return 1.0
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
