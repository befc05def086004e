package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lawkit/adapters/loader"
	"lawkit/adapters/render"
	"lawkit/domain/law"
	"lawkit/internal/engine"
	"lawkit/internal/errors"
	"lawkit/internal/laws"
)

var lawExamples = map[engine.Operation]string{
	engine.OpBenford: "lawkit benf ledger.csv --column amount --digits first-two",
	engine.OpPareto:  "lawkit pareto sales.xlsx --column revenue --ratio 0.8",
	engine.OpZipf:    "lawkit zipf --text speech.txt",
	engine.OpNormal:  "lawkit normal measurements.json --path weights",
	engine.OpPoisson: "lawkit poisson defects_per_day.txt --significance 0.01",
}

// newLawCmd builds the command for one single-law analysis.
func (a *app) newLawCmd(op engine.Operation) *cobra.Command {
	l, _ := op.Law()
	var wordMode bool

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s [file]", op),
		Short: fmt.Sprintf("Analyze data against the %s", l.DisplayName()),
		Long: fmt.Sprintf(`Analyze numbers from a file or standard input against the %s.

Example: %s`, l.DisplayName(), lawExamples[op]),
		Args: cobra.MaximumNArgs(1),
	}
	if op == engine.OpBenford {
		cmd.Aliases = []string{"benf"}
	}

	b := newOptionBinder(cmd)
	bindCommon(b)
	in := bindInput(cmd)

	switch op {
	case engine.OpBenford:
		b.String("digits", "benford_digits", law.DigitsFirst, "Digits to test: first|second|first-two")
		b.Int("base", "benford_base", 10, "Number base for first-digit analysis")
	case engine.OpPareto:
		b.Float("ratio", "pareto_ratio", 0.8, "Target share of the total held by the top items")
		b.Int("categories", "pareto_category_limit", 0, "Fold everything past this many items into one bucket (0: no limit)")
	case engine.OpZipf:
		b.Int("ranks", "zipf_rank_limit", 0, "Analyze only the top N ranks (0: all)")
		b.Float("cutoff", "zipf_frequency_cutoff", 0, "Ignore values below this frequency")
		cmd.Flags().BoolVar(&wordMode, "text", false, "Treat input as prose and analyze word frequencies")
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.runAnalysis(cmd, op, args, b, in, wordMode)
	}
	return cmd
}

func (a *app) newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Run several laws and reconcile them into one risk verdict",
		Long: `Run the selected laws on the same data, report conflicts between them and
derive an overall risk for the chosen purpose.

Purposes: general, fraud, quality, concentration, anomaly.

Example: lawkit analyze expenses.csv --column amount --purpose fraud`,
		Args: cobra.MaximumNArgs(1),
	}
	b := newOptionBinder(cmd)
	bindCommon(b)
	b.Strings("laws", "laws", "Comma-separated subset of laws (default: all)")
	b.String("purpose", "purpose", law.PurposeGeneral, "Analysis purpose: general|fraud|quality|concentration|anomaly")
	b.NegatedBool("sequential", "enable_parallel_processing", "Run laws one after another instead of in parallel")
	b.String("digits", "benford_digits", law.DigitsFirst, "Benford digits to test: first|second|first-two")
	b.Float("ratio", "pareto_ratio", 0.8, "Pareto target ratio")
	in := bindInput(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.runAnalysis(cmd, engine.OpAnalyze, args, b, in, false)
	}
	return cmd
}

func (a *app) newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Score data quality before running statistical tests",
		Long: `Check sample size, skipped values, duplicates, zeros, rounding and outliers,
and report a quality score with the issues found.

Example: lawkit validate survey.json --min-count 100`,
		Args: cobra.MaximumNArgs(1),
	}
	b := newOptionBinder(cmd)
	bindCommon(b)
	in := bindInput(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.runAnalysis(cmd, engine.OpValidate, args, b, in, false)
	}
	return cmd
}

func (a *app) newDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose [file]",
		Short: "Find outliers and distribution anomalies",
		Long: `Report outliers (IQR and modified z-score), heavy tails, strong skew, gaps
and clustering in the data.

Example: lawkit diagnose latencies.txt --details`,
		Args: cobra.MaximumNArgs(1),
	}
	b := newOptionBinder(cmd)
	bindCommon(b)
	in := bindInput(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.runAnalysis(cmd, engine.OpDiagnose, args, b, in, false)
	}
	return cmd
}

func (a *app) newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <law>",
		Short: "Generate a synthetic sample that follows a law",
		Long: `Generate reproducible test data for benford, pareto, zipf, normal or poisson.
Text output prints one value per line so it can be piped into another command.

Example: lawkit generate normal --count 200 --mean 50 --stddev 5 --seed 1`,
		Args: cobra.ExactArgs(1),
	}
	b := newOptionBinder(cmd)
	b.Int("count", "generate_count", 1000, "Number of values to generate")
	b.Int64("seed", "generate_seed", 0, "Random seed (default: time-based)")
	b.Float("min", "generate_range_min", 1, "Lower bound (benford, pareto scale)")
	b.Float("max", "generate_range_max", 1e6, "Upper bound (benford, a whole number of decades above --min)")
	b.Float("mean", "generate_mean", 100, "Mean (normal)")
	b.Float("stddev", "generate_std_dev", 15, "Standard deviation (normal)")
	b.Float("lambda", "generate_lambda", 5, "Rate (poisson)")
	b.Float("alpha", "generate_alpha", 1.16, "Shape (pareto), above 1 and at most 1.5")
	b.Float("exponent", "generate_exponent", 1, "Exponent (zipf), 0.5 to 1.5")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts, err := b.Options(a.cfg.Options())
		if err != nil {
			return err
		}
		results, err := a.engine.Run(cmd.Context(), string(engine.OpGenerate), args[0], &opts)
		if err != nil {
			return err
		}
		return a.emit(cmd, render.NewReport(string(engine.OpGenerate), args[0], results))
	}
	return cmd
}

func (a *app) newSelftestCmd() *cobra.Command {
	var seed int64
	var count int

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Generate a sample for every law and check it is recognized",
		Long: `Round-trip each law through the generator and its analyzer. Fails when any
generated sample is judged HIGH risk.

Example: lawkit selftest --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSelftest(cmd, seed, count)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().IntVar(&count, "count", 1000, "Values generated per law")
	return cmd
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the supported laws and operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LAW\tNAME\tDESCRIPTION")
			registry := laws.NewRegistry()
			for _, l := range registry.Laws() {
				analyzer, _ := registry.Get(l)
				fmt.Fprintf(w, "%s\t%s\t%s\n", l, l.DisplayName(), analyzer.Description())
			}
			fmt.Fprintln(w)
			ops := make([]string, len(engine.Operations))
			for i, op := range engine.Operations {
				ops[i] = string(op)
			}
			fmt.Fprintf(w, "Operations:\t%s\n", strings.Join(ops, ", "))
			return w.Flush()
		},
	}
}

// runAnalysis loads input, runs op and writes the report.
func (a *app) runAnalysis(cmd *cobra.Command, op engine.Operation, args []string, b *optionBinder, in *inputFlags, wordMode bool) error {
	opts, err := b.Options(a.cfg.Options())
	if err != nil {
		return err
	}

	path := loader.Stdin
	if len(args) > 0 {
		path = args[0]
	}
	ld := loader.New(in.loaderOptions(), a.logger).WithStdin(cmd.InOrStdin())

	var input interface{}
	if wordMode {
		text, err := ld.ReadText(path)
		if err != nil {
			return err
		}
		input = laws.WordFrequencies(text)
	} else {
		input, err = ld.Load(path)
		if err != nil {
			return err
		}
	}

	results, err := a.engine.Run(cmd.Context(), string(op), input, &opts)
	if err != nil {
		return err
	}

	source := path
	if path == loader.Stdin {
		source = "stdin"
	}
	report := render.NewReport(string(op), source, results)
	if sample, err := a.engine.Extract(input, &opts); err == nil {
		report = report.WithFingerprint(sample.Values)
	}
	return a.emit(cmd, report)
}

func (a *app) runSelftest(cmd *cobra.Command, seed int64, count int) error {
	opts := a.cfg.Options()
	opts.GenerateSeed = &seed
	opts.GenerateCount = count

	var results []law.Result
	var failed []string
	for _, l := range law.All {
		generated, err := a.engine.Run(cmd.Context(), string(engine.OpGenerate), l, &opts)
		if err != nil {
			return errors.Wrapf(err, "generate %s", l)
		}
		sample := generated[0].(law.GeneratedData).SampleData

		analyzed, err := a.engine.Run(cmd.Context(), string(l), sample, &opts)
		if err != nil {
			return errors.Wrapf(err, "analyze generated %s sample", l)
		}
		assessment := analyzed[0].(law.Assessment)
		if assessment.Risk() == law.RiskHigh {
			failed = append(failed, string(l))
		}
		a.logger.Debug("selftest", "law", l, "risk", assessment.Risk())
		results = append(results, assessment)
	}

	emitErr := a.emit(cmd, render.NewReport("selftest", "generator", results))
	if len(failed) > 0 {
		return errors.Newf(errors.CodeInternalError, "selftest failed: generated samples judged HIGH risk for %s", strings.Join(failed, ", "))
	}
	return emitErr
}
