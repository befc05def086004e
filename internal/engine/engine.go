// Package engine dispatches a named operation to the analyzers, validator,
// diagnostics, generator or integration orchestrator.
package engine

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"lawkit/domain/law"
	"lawkit/internal/errors"
	"lawkit/internal/generator"
	"lawkit/internal/integration"
	"lawkit/internal/laws"
	"lawkit/internal/numeric"
	"lawkit/internal/quality"
)

// Operation names an engine entry point.
type Operation string

const (
	OpBenford  Operation = "benford"
	OpPareto   Operation = "pareto"
	OpZipf     Operation = "zipf"
	OpNormal   Operation = "normal"
	OpPoisson  Operation = "poisson"
	OpAnalyze  Operation = "analyze"
	OpValidate Operation = "validate"
	OpDiagnose Operation = "diagnose"
	OpGenerate Operation = "generate"
)

// Operations lists every operation in help order.
var Operations = []Operation{
	OpBenford, OpPareto, OpZipf, OpNormal, OpPoisson,
	OpAnalyze, OpValidate, OpDiagnose, OpGenerate,
}

// ParseOperation resolves an operation name, accepting the "benf" alias.
func ParseOperation(name string) (Operation, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "benf" {
		return OpBenford, nil
	}
	for _, op := range Operations {
		if string(op) == n {
			return op, nil
		}
	}
	return "", errors.UnknownSubcommand(name)
}

// Law returns the law a single-law operation analyzes.
func (op Operation) Law() (law.Law, bool) {
	switch op {
	case OpBenford, OpPareto, OpZipf, OpNormal, OpPoisson:
		return law.Law(op), true
	}
	return "", false
}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	registry     *laws.Registry
	orchestrator *integration.Orchestrator
	validator    *quality.Validator
	diagnostics  *quality.DiagnosticEngine
	logger       *slog.Logger
}

// New creates an engine. A nil logger discards.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := laws.NewRegistry()
	return &Engine{
		registry:     registry,
		orchestrator: integration.NewOrchestrator(registry, logger),
		validator:    quality.NewValidator(),
		diagnostics:  quality.NewDiagnosticEngine(),
		logger:       logger,
	}
}

// Analyze runs operation on input with a discard logger.
func Analyze(operation string, input interface{}, opts *law.Options) ([]law.Result, error) {
	return New(nil).Run(context.Background(), operation, input, opts)
}

// AnalyzeWithMap accepts options as a loose key/value bag.
func AnalyzeWithMap(operation string, input interface{}, raw map[string]interface{}) ([]law.Result, error) {
	opts, err := law.OptionsFromMap(raw)
	if err != nil {
		return nil, err
	}
	return Analyze(operation, input, &opts)
}

// Run executes operation. input is numeric-bearing data, or for generate a
// generator.Config, an option map or a law name. A nil opts uses defaults.
func (e *Engine) Run(ctx context.Context, operation string, input interface{}, opts *law.Options) ([]law.Result, error) {
	op, err := ParseOperation(operation)
	if err != nil {
		return nil, err
	}

	resolved := law.DefaultOptions()
	if opts != nil {
		resolved = *opts
	}
	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := e.dispatch(ctx, op, input, resolved)
	if err != nil {
		e.logger.Debug("operation failed", "operation", op, "code", errors.GetCode(err), "error", err)
		return nil, err
	}
	e.logger.Debug("operation complete", "operation", op, "results", len(results), "elapsed", time.Since(start))
	return results, nil
}

func (e *Engine) dispatch(ctx context.Context, op Operation, input interface{}, opts law.Options) ([]law.Result, error) {
	if op == OpGenerate {
		res, err := e.generate(input, opts)
		if err != nil {
			return nil, err
		}
		return []law.Result{res}, nil
	}

	sample, err := e.extract(input, opts)
	if err != nil {
		return nil, err
	}

	if l, ok := op.Law(); ok {
		res, err := e.registry.Analyze(l, sample.Values, opts)
		if err != nil {
			return nil, err
		}
		return []law.Result{res}, nil
	}

	switch op {
	case OpAnalyze:
		return e.orchestrator.Run(ctx, sample.Values, opts)
	case OpValidate:
		return []law.Result{e.validator.Validate(sample, opts)}, nil
	case OpDiagnose:
		return []law.Result{e.diagnostics.Diagnose(sample.Values, opts)}, nil
	}
	return nil, errors.UnknownSubcommand(string(op))
}

// Extract returns the numeric sample an operation would analyze.
func (e *Engine) Extract(input interface{}, opts *law.Options) (numeric.Sample, error) {
	resolved := law.DefaultOptions()
	if opts != nil {
		resolved = *opts
	}
	return e.extract(input, resolved)
}

func (e *Engine) extract(input interface{}, opts law.Options) (numeric.Sample, error) {
	cfg, err := numeric.ConfigFromOptions(opts)
	if err != nil {
		return numeric.Sample{}, err
	}
	sample, err := numeric.NewExtractor(cfg).Extract(input)
	if err != nil {
		return sample, err
	}
	if sample.Skipped > 0 {
		e.logger.Debug("non-numeric values skipped", "skipped", sample.Skipped, "extracted", sample.Len())
	}
	return sample, nil
}

func (e *Engine) generate(input interface{}, opts law.Options) (law.Result, error) {
	var cfg generator.Config
	switch v := input.(type) {
	case generator.Config:
		cfg = v
	case *generator.Config:
		if v == nil {
			return nil, errors.InvalidParameter("type", nil, "generation config is nil")
		}
		cfg = *v
	case map[string]interface{}:
		c, err := generator.ConfigFromMap(v, opts)
		if err != nil {
			return nil, err
		}
		cfg = c
	case law.Law:
		cfg = generator.ConfigFromOptions(v, opts)
	case string:
		l, err := law.ParseLaw(v)
		if err != nil {
			return nil, errors.InvalidParameter("type", v, "must name a law")
		}
		cfg = generator.ConfigFromOptions(l, opts)
	default:
		return nil, errors.InvalidParameter("type", input, "generate expects a law name, option map or generator config")
	}

	data, err := generator.Generate(cfg)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("sample generated", "law", data.DataType, "count", data.Count, "seed", data.Seed)
	return data, nil
}
