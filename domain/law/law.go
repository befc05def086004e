// Package law holds the domain model shared by the analyzers, the generator
// and the dispatcher: statistical laws, risk levels, options and results.
package law

import (
	"fmt"
	"strings"
)

// Law names one of the supported statistical laws.
type Law string

const (
	Benford Law = "benford"
	Pareto  Law = "pareto"
	Zipf    Law = "zipf"
	Normal  Law = "normal"
	Poisson Law = "poisson"
)

// All lists the laws in the fixed order used by integration analysis.
var All = []Law{Benford, Pareto, Zipf, Normal, Poisson}

// DisplayName returns the name used in summaries and recommendations.
func (l Law) DisplayName() string {
	switch l {
	case Benford:
		return "Benford's Law"
	case Pareto:
		return "Pareto Principle"
	case Zipf:
		return "Zipf's Law"
	case Normal:
		return "Normal Distribution"
	case Poisson:
		return "Poisson Distribution"
	}
	return string(l)
}

// ParseLaw resolves a law name, accepting "benf" and any casing.
func ParseLaw(s string) (Law, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "benford", "benf":
		return Benford, nil
	case "pareto":
		return Pareto, nil
	case "zipf":
		return Zipf, nil
	case "normal", "gaussian":
		return Normal, nil
	case "poisson":
		return Poisson, nil
	}
	return "", fmt.Errorf("unknown law %q", s)
}
