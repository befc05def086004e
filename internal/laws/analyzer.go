// Package laws implements the single-law distribution analyzers. Every
// analyzer is side-effect free: the same sample and options always produce
// the same result.
package laws

import (
	"fmt"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

// Analyzer tests a numeric sample against one statistical law.
type Analyzer interface {
	Law() law.Law
	Description() string
	Analyze(data []float64, opts law.Options) (law.Assessment, error)
}

// Registry holds one analyzer per law in the fixed integration order.
type Registry struct {
	analyzers []Analyzer
}

// NewRegistry creates the registry of all five analyzers
func NewRegistry() *Registry {
	return NewRegistryWith(
		NewBenfordAnalyzer(),
		NewParetoAnalyzer(),
		NewZipfAnalyzer(),
		NewNormalAnalyzer(),
		NewPoissonAnalyzer(),
	)
}

// NewRegistryWith builds a registry from explicit analyzers; Get returns the
// first match for a law.
func NewRegistryWith(analyzers ...Analyzer) *Registry {
	return &Registry{analyzers: analyzers}
}

// Get returns the analyzer for l.
func (r *Registry) Get(l law.Law) (Analyzer, bool) {
	for _, a := range r.analyzers {
		if a.Law() == l {
			return a, true
		}
	}
	return nil, false
}

// Analyze runs the analyzer registered for l.
func (r *Registry) Analyze(l law.Law, data []float64, opts law.Options) (law.Assessment, error) {
	a, ok := r.Get(l)
	if !ok {
		return nil, errors.UnknownSubcommand(string(l))
	}
	return a.Analyze(data, opts)
}

// Laws lists the registered laws in order.
func (r *Registry) Laws() []law.Law {
	out := make([]law.Law, len(r.analyzers))
	for i, a := range r.analyzers {
		out[i] = a.Law()
	}
	return out
}

// lowConfidenceNote is appended to summaries of samples below the advisory size.
func lowConfidenceNote(n int, opts law.Options) string {
	if n < opts.MinSampleSize {
		return fmt.Sprintf(" Sample size %d is below the recommended minimum of %d; interpret with caution.", n, opts.MinSampleSize)
	}
	return ""
}

// riskWord renders a risk level for summaries.
func riskWord(r law.RiskLevel) string {
	switch r {
	case law.RiskLow:
		return "low"
	case law.RiskMedium:
		return "medium"
	}
	return "high"
}
