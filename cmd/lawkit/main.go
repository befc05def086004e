package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lawkit/adapters/render"
	"lawkit/domain/law"
	"lawkit/internal"
	"lawkit/internal/config"
	"lawkit/internal/engine"
	"lawkit/internal/errors"
)

// Exit codes for --exit-on-risk.
const (
	exitError      = 1
	exitMediumRisk = 10
	exitHighRisk   = 11
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var riskErr *riskExitError
		if errors.As(err, &riskErr) {
			os.Exit(riskErr.code())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

// riskExitError carries a MEDIUM or HIGH verdict out of Execute so main can
// turn it into an exit code. The report has already been written.
type riskExitError struct {
	risk law.RiskLevel
}

func (e *riskExitError) Error() string {
	return fmt.Sprintf("overall risk %s", e.risk)
}

func (e *riskExitError) code() int {
	if e.risk == law.RiskHigh {
		return exitHighRisk
	}
	return exitMediumRisk
}

// app holds the root flags and everything PersistentPreRunE builds from them.
type app struct {
	envFile           string
	format            string
	output            string
	details           bool
	noRecommendations bool
	logLevel          string
	noColor           bool
	exitOnRisk        bool

	cfg    *config.Config
	render render.Options
	logger *slog.Logger
	engine *engine.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "lawkit",
		Short: "Statistical law analysis for fraud, quality and concentration checks",
		Long: `lawkit tests numeric data against Benford's Law, the Pareto principle,
Zipf's Law, the normal distribution and the Poisson distribution, and can
reconcile several laws into one risk verdict.

Input is read from a file argument or standard input. JSON, YAML, TOML,
CSV, TSV, XLSX and free text are accepted.

Configuration defaults come from LAWKIT_* environment variables and an
optional .env file; flags override both.

Example:
  lawkit benf invoices.csv --column amount --format json
  lawkit generate pareto --count 500 --seed 7 | lawkit pareto`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "Environment file loaded before reading LAWKIT_* variables")
	pf.StringVarP(&a.format, "format", "f", "text", "Output format: text|json|yaml|toml|csv|markdown|html")
	pf.StringVarP(&a.output, "output", "o", "", "Write the report to a file instead of stdout")
	pf.BoolVar(&a.details, "details", false, "Include detailed metrics in text, markdown and html output")
	pf.BoolVar(&a.noRecommendations, "no-recommendations", false, "Omit recommendations from text, markdown and html output")
	pf.StringVar(&a.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored log output")
	pf.BoolVar(&a.exitOnRisk, "exit-on-risk", false, "Exit with 10 on MEDIUM and 11 on HIGH overall risk")

	root.AddCommand(
		a.newLawCmd(engine.OpBenford),
		a.newLawCmd(engine.OpPareto),
		a.newLawCmd(engine.OpZipf),
		a.newLawCmd(engine.OpNormal),
		a.newLawCmd(engine.OpPoisson),
		a.newAnalyzeCmd(),
		a.newValidateCmd(),
		a.newDiagnoseCmd(),
		a.newGenerateCmd(),
		a.newSelftestCmd(),
		a.newListCmd(),
	)
	return root
}

// setup resolves configuration in precedence order: defaults, .env file,
// environment, flags.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	flags := cmd.Flags()
	level := cfg.Logging.Level
	if flags.Changed("log-level") {
		level = a.logLevel
	}
	a.logger = internal.NewLogger(cmd.ErrOrStderr(), internal.ParseLogLevel(level), a.noColor || cfg.Logging.NoColor)
	a.engine = engine.New(a.logger)

	a.render = render.Options{
		Format:              cfg.Output.Format,
		ShowDetails:         cfg.Output.ShowDetails || a.details,
		ShowRecommendations: cfg.Output.ShowRecommendations && !a.noRecommendations,
	}
	if flags.Changed("format") {
		a.render.Format = a.format
	}
	a.logger.Debug("configuration loaded", "format", a.render.Format, "log_level", level)
	return nil
}

// writeAndClose renders report into wc and closes it, returning the close
// error when rendering succeeded.
func writeAndClose(wc io.WriteCloser, report render.Report, opts render.Options) error {
	if err := render.Render(wc, report, opts); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return errors.Wrap(err, "failed to close report file")
	}
	return nil
}

// emit writes the report and applies --exit-on-risk.
func (a *app) emit(cmd *cobra.Command, report render.Report) error {
	if a.output == "" {
		if err := render.Render(cmd.OutOrStdout(), report, a.render); err != nil {
			return err
		}
	} else {
		f, err := os.Create(a.output)
		if err != nil {
			return errors.WithCode(errors.CodeInvalidInput, err)
		}
		if err := writeAndClose(f, report, a.render); err != nil {
			return err
		}
		a.logger.Info("report written", "path", a.output, "run_id", report.RunID)
	}

	if a.exitOnRisk {
		if risk, ok := report.MaxRisk(); ok && risk.AtLeast(law.RiskMedium) {
			return &riskExitError{risk: risk}
		}
	}
	return nil
}
