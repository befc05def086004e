// Package integration runs several law analyzers over one sample and
// reconciles their verdicts.
package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"lawkit/domain/law"
	"lawkit/internal/errors"
	"lawkit/internal/laws"
)

// purposeLaws lists the laws whose verdict drives the overall risk for a purpose.
var purposeLaws = map[string][]law.Law{
	law.PurposeFraud:         {law.Benford, law.Normal, law.Poisson},
	law.PurposeQuality:       {law.Normal, law.Benford},
	law.PurposeConcentration: {law.Pareto, law.Zipf},
	law.PurposeAnomaly:       {law.Normal, law.Poisson},
}

// Orchestrator runs the selected analyzers and appends an IntegrationAnalysis.
type Orchestrator struct {
	registry *laws.Registry
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator over registry. A nil logger discards.
func NewOrchestrator(registry *laws.Registry, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{registry: registry, logger: logger}
}

type outcome struct {
	law    law.Law
	result law.Assessment
	err    error
}

// Run returns one result per analyzed law in fixed law order, followed by the
// IntegrationAnalysis. Laws lacking data are skipped; if every law fails the
// first failure is returned.
func (o *Orchestrator) Run(ctx context.Context, data []float64, opts law.Options) ([]law.Result, error) {
	selected := opts.SelectedLaws()
	if len(selected) == 0 {
		return nil, errors.InvalidParameter("laws", opts.Laws, "no known law selected")
	}

	outcomes := make([]outcome, len(selected))
	if opts.EnableParallelProcessing && len(selected) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, l := range selected {
			i, l := i, l
			g.Go(func() error {
				outcomes[i] = o.analyze(gctx, l, data, opts)
				return fatal(outcomes[i].err)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, l := range selected {
			outcomes[i] = o.analyze(ctx, l, data, opts)
			if err := fatal(outcomes[i].err); err != nil {
				return nil, err
			}
		}
	}

	var (
		results  []law.Result
		analyzed []law.Assessment
		skipped  []string
		firstErr error
	)
	for _, oc := range outcomes {
		if oc.err != nil {
			if firstErr == nil {
				firstErr = oc.err
			}
			skipped = append(skipped, fmt.Sprintf("%s: %s", oc.law, messageOf(oc.err)))
			o.logger.Info("law skipped", "law", oc.law, "reason", messageOf(oc.err))
			continue
		}
		results = append(results, oc.result)
		analyzed = append(analyzed, oc.result)
	}
	if len(analyzed) == 0 {
		return nil, firstErr
	}

	integration := Reconcile(analyzed, skipped, len(data), opts)
	o.logger.Debug("integration complete",
		"laws", len(analyzed), "skipped", len(skipped), "overall_risk", integration.OverallRisk.String())
	return append(results, integration), nil
}

func (o *Orchestrator) analyze(ctx context.Context, l law.Law, data []float64, opts law.Options) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{law: l, err: errors.Wrap(err, "analysis cancelled")}
	}
	res, err := o.registry.Analyze(l, data, opts)
	if err != nil {
		return outcome{law: l, err: err}
	}
	o.logger.Debug("law analyzed", "law", l, "risk", res.Risk().String())
	return outcome{law: l, result: res}
}

// fatal reports errors that abort the whole run. Missing data only skips a law.
func fatal(err error) error {
	if err == nil || errors.HasCode(err, errors.CodeInsufficientData) {
		return nil
	}
	return err
}

func messageOf(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Reconcile combines per-law verdicts into an IntegrationAnalysis.
func Reconcile(results []law.Assessment, skipped []string, total int, opts law.Options) law.IntegrationAnalysis {
	purpose := opts.Purpose
	if purpose == "" {
		purpose = law.PurposeGeneral
	}

	analyzed := make([]law.Law, len(results))
	risks := make(map[law.Law]law.RiskLevel, len(results))
	for i, r := range results {
		analyzed[i] = r.Law()
		risks[r.Law()] = r.Risk()
	}

	relevant := relevantLaws(purpose, analyzed)
	levels := make([]law.RiskLevel, len(relevant))
	for i, l := range relevant {
		levels[i] = risks[l]
	}
	overall := law.MaxRisk(levels...)

	conflicts := findConflicts(analyzed, relevant, risks, overall)
	consistency := consistencyScore(analyzed, risks)
	recommendations := recommend(results, skipped, overall, purpose)

	summary := fmt.Sprintf(
		"Integrated analysis of %d numbers across %d laws (purpose %s): overall risk %s, consistency %.2f, %d conflict(s).",
		total, len(analyzed), purpose, overall, consistency, len(conflicts))
	if len(skipped) > 0 {
		summary += fmt.Sprintf(" %d law(s) skipped for insufficient data.", len(skipped))
	}

	return law.IntegrationAnalysis{
		Header: law.Header{
			ResultType:      law.TypeIntegrationAnalysis,
			Path:            opts.PathFilter,
			AnalysisSummary: summary,
		},
		Purpose:            purpose,
		LawsAnalyzed:       analyzed,
		SkippedLaws:        skipped,
		LawRisks:           risks,
		OverallRisk:        overall,
		ConsistencyScore:   consistency,
		ConflictingResults: conflicts,
		Recommendations:    recommendations,
	}
}

// relevantLaws intersects the purpose's laws with those analyzed, falling back
// to every analyzed law.
func relevantLaws(purpose string, analyzed []law.Law) []law.Law {
	wanted, ok := purposeLaws[purpose]
	if !ok {
		return analyzed
	}
	var out []law.Law
	for _, l := range analyzed {
		for _, w := range wanted {
			if l == w {
				out = append(out, l)
				break
			}
		}
	}
	if len(out) == 0 {
		return analyzed
	}
	return out
}

func findConflicts(analyzed, relevant []law.Law, risks map[law.Law]law.RiskLevel, overall law.RiskLevel) []string {
	conflicts := make([]string, 0)
	for i := 0; i < len(analyzed); i++ {
		for j := i + 1; j < len(analyzed); j++ {
			a, b := analyzed[i], analyzed[j]
			if distance(risks[a], risks[b]) == 2 {
				conflicts = append(conflicts, fmt.Sprintf("%s (%s) and %s (%s) differ by two risk levels",
					a, risks[a], b, risks[b]))
			}
		}
	}
	for _, l := range relevant {
		if risks[l] != overall {
			conflicts = append(conflicts, fmt.Sprintf("%s (%s) disagrees with the overall %s verdict", l, risks[l], overall))
		}
	}
	return conflicts
}

// consistencyScore is 1 minus the mean pairwise verdict distance, normalized
// to [0,1].
func consistencyScore(analyzed []law.Law, risks map[law.Law]law.RiskLevel) float64 {
	if len(analyzed) < 2 {
		return 1
	}
	total, pairs := 0.0, 0
	for i := 0; i < len(analyzed); i++ {
		for j := i + 1; j < len(analyzed); j++ {
			total += float64(distance(risks[analyzed[i]], risks[analyzed[j]])) / 2
			pairs++
		}
	}
	return 1 - total/float64(pairs)
}

func distance(a, b law.RiskLevel) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

var lawAdvice = map[law.Law][2]string{
	law.Benford: {
		"Benford: leading digits deviate moderately; check for rounding, thresholds or a narrow value range before drawing conclusions",
		"Benford: leading digits deviate strongly; audit the records for fabricated, manipulated or systematically altered figures",
	},
	law.Pareto: {
		"Pareto: concentration drifts from the target ratio; review how value is spread across the top contributors",
		"Pareto: concentration is far from the target ratio; inspect the top contributors and the long tail separately",
	},
	law.Zipf: {
		"Zipf: the rank-size relationship is loose; check for merged or truncated categories",
		"Zipf: no power-law rank structure; rank-based models are unlikely to fit this data",
	},
	law.Normal: {
		"Normal: mild departure from normality; confirm with a larger sample or robust statistics",
		"Normal: data are clearly non-Gaussian; use non-parametric methods or transform the data",
	},
	law.Poisson: {
		"Poisson: dispersion differs from the mean; verify events are independent",
		"Poisson: counts are strongly over- or under-dispersed; consider a negative binomial model or look for clustered events",
	},
}

func recommend(results []law.Assessment, skipped []string, overall law.RiskLevel, purpose string) []string {
	ordered := append([]law.Assessment(nil), results...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Risk() > ordered[j].Risk() })

	var recs []string
	for _, r := range ordered {
		switch r.Risk() {
		case law.RiskHigh:
			recs = append(recs, lawAdvice[r.Law()][1])
		case law.RiskMedium:
			recs = append(recs, lawAdvice[r.Law()][0])
		}
	}

	switch overall {
	case law.RiskHigh:
		recs = append(recs, fmt.Sprintf("Overall risk is HIGH for %s analysis; investigate before relying on this data", purpose))
	case law.RiskMedium:
		recs = append(recs, fmt.Sprintf("Overall risk is MEDIUM for %s analysis; monitor and re-test with more data", purpose))
	default:
		recs = append(recs, "All relevant laws conform; no corrective action needed")
	}

	if len(skipped) > 0 {
		names := make([]string, len(skipped))
		for i, s := range skipped {
			names[i] = strings.SplitN(s, ":", 2)[0]
		}
		recs = append(recs, fmt.Sprintf("Collect more data to include %s", strings.Join(names, ", ")))
	}
	return recs
}
