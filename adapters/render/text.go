package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"lawkit/domain/law"
)

// Metric is one labelled value shown in details tables.
type Metric struct {
	Name  string
	Value string
}

// ResultRow is the flattened headline of a result.
type ResultRow struct {
	Law    string
	Path   string
	Risk   string
	Count  int
	Metric string
	Value  string
}

// Row extracts the headline fields used by csv and summary tables.
func Row(res law.Result) ResultRow {
	row := ResultRow{}
	if a, ok := res.(law.Assessment); ok {
		row.Law = string(a.Law())
		row.Risk = a.Risk().String()
	}
	metrics := Metrics(res)
	if len(metrics) > 0 {
		row.Metric, row.Value = metrics[0].Name, metrics[0].Value
	}
	switch v := res.(type) {
	case law.BenfordAnalysis:
		row.Path, row.Count = v.Path, v.TotalNumbers
	case law.ParetoAnalysis:
		row.Path, row.Count = v.Path, v.TotalItems
	case law.ZipfAnalysis:
		row.Path, row.Count = v.Path, v.TotalItems
	case law.NormalAnalysis:
		row.Path, row.Count = v.Path, v.TotalNumbers
	case law.PoissonAnalysis:
		row.Path, row.Count = v.Path, v.TotalObservations
	case law.IntegrationAnalysis:
		row.Path, row.Count = v.Path, len(v.LawsAnalyzed)
		row.Risk = v.OverallRisk.String()
	case law.ValidationResult:
		row.Path, row.Count = v.Path, v.TotalNumbers
	case law.DiagnosticResult:
		row.Path, row.Count = v.Path, v.TotalNumbers
	case law.GeneratedData:
		row.Law, row.Count = string(v.DataType), v.Count
	}
	return row
}

// Metrics lists the numbers worth showing for a result, headline first.
func Metrics(res law.Result) []Metric {
	switch v := res.(type) {
	case law.BenfordAnalysis:
		return []Metric{
			{"MAD", f4(v.MAD)},
			{"Conformity", v.Conformity},
			{"Chi-square", f4(v.ChiSquare)},
			{"Degrees of freedom", strconv.Itoa(v.DegreesOfFreedom)},
			{"p-value", f4(v.PValue)},
			{"Digit mode", v.DigitMode},
			{"Base", strconv.Itoa(v.Base)},
			{"Numbers analyzed", strconv.Itoa(v.TotalNumbers)},
			{"Excluded", strconv.Itoa(v.ExcludedCount)},
		}
	case law.ParetoAnalysis:
		return []Metric{
			{"Top 20% contribution", fmt.Sprintf("%.2f%%", v.Top20PercentContribution)},
			{"Pareto ratio", f4(v.ParetoRatio)},
			{"Target ratio", f4(v.TargetRatio)},
			{"Concentration index", f4(v.ConcentrationIndex)},
			{"Direction", v.Direction},
			{"Items", strconv.Itoa(v.TotalItems)},
		}
	case law.ZipfAnalysis:
		return []Metric{
			{"Zipf exponent", f4(v.ZipfCoefficient)},
			{"Correlation", f4(v.CorrelationCoefficient)},
			{"R squared", f4(v.RSquared)},
			{"Deviation score", f4(v.DeviationScore)},
			{"Items", strconv.Itoa(v.TotalItems)},
		}
	case law.NormalAnalysis:
		return []Metric{
			{"Normality p-value", f4(v.NormalityTestP)},
			{"Test", v.NormalityTest},
			{"Mean", f4(v.Mean)},
			{"Std dev", f4(v.StdDev)},
			{"Skewness", f4(v.Skewness)},
			{"Excess kurtosis", f4(v.Kurtosis)},
			{fmt.Sprintf("Mean %.0f%% CI", 100*v.ConfidenceLevel), fmt.Sprintf("[%s, %s]", f4(v.MeanCILower), f4(v.MeanCIUpper))},
			{"Beyond 2σ", strconv.Itoa(v.Beyond2Sigma)},
			{"Beyond 3σ", strconv.Itoa(v.Beyond3Sigma)},
		}
	case law.PoissonAnalysis:
		return []Metric{
			{"Lambda", f4(v.Lambda)},
			{"Variance", f4(v.Variance)},
			{"Variance ratio", f4(v.VarianceRatio)},
			{"Test", v.GoodnessOfFitTest},
			{"p-value", f4(v.PoissonTestP)},
			{"P(0)", f4(v.ProbabilityZero)},
			{"Events", strconv.FormatInt(v.TotalEvents, 10)},
			{"Low confidence", strconv.FormatBool(v.LowConfidence)},
		}
	case law.IntegrationAnalysis:
		metrics := []Metric{
			{"Consistency score", f4(v.ConsistencyScore)},
			{"Purpose", v.Purpose},
			{"Overall risk", v.OverallRisk.String()},
		}
		for _, l := range v.LawsAnalyzed {
			metrics = append(metrics, Metric{l.DisplayName(), v.LawRisks[l].String()})
		}
		return metrics
	case law.ValidationResult:
		return []Metric{
			{"Quality score", f4(v.DataQualityScore)},
			{"Passed", strconv.FormatBool(v.ValidationPassed)},
			{"Numbers", strconv.Itoa(v.TotalNumbers)},
			{"Skipped", strconv.Itoa(v.SkippedValues)},
		}
	case law.DiagnosticResult:
		return []Metric{
			{"Confidence", f4(v.ConfidenceLevel)},
			{"Diagnostic", v.DiagnosticType},
			{"Outliers", strconv.Itoa(len(v.Outliers))},
		}
	case law.GeneratedData:
		metrics := []Metric{
			{"Seed", strconv.FormatInt(v.Seed, 10)},
			{"Count", strconv.Itoa(v.Count)},
		}
		for _, k := range sortedKeys(v.Parameters) {
			metrics = append(metrics, Metric{k, f4(v.Parameters[k])})
		}
		return metrics
	}
	return nil
}

// Notes returns the free-text lines a result carries: findings, issues,
// conflicts and recommendations.
func Notes(res law.Result, recommendations bool) (title string, lines []string) {
	switch v := res.(type) {
	case law.IntegrationAnalysis:
		lines = append(lines, v.ConflictingResults...)
		lines = append(lines, v.SkippedLaws...)
		if recommendations {
			lines = append(lines, v.Recommendations...)
		}
		return "Recommendations", lines
	case law.ValidationResult:
		return "Issues", v.IssuesFound
	case law.DiagnosticResult:
		return "Findings", v.Findings
	}
	return "", nil
}

// Title names a result for headings.
func Title(res law.Result) string {
	switch v := res.(type) {
	case law.Assessment:
		return v.Law().DisplayName()
	case law.IntegrationAnalysis:
		return "Integrated analysis"
	case law.ValidationResult:
		return "Data validation"
	case law.DiagnosticResult:
		return "Diagnostics"
	case law.GeneratedData:
		return "Generated " + v.DataType.DisplayName() + " sample"
	}
	return string(res.Kind())
}

// renderText writes the terminal report. A report holding only generated
// data prints the raw values, one per line, so it can be piped into another
// lawkit command.
func renderText(w io.Writer, report Report, opts Options) error {
	var b strings.Builder
	if len(report.Results) == 1 {
		if g, ok := report.Results[0].(law.GeneratedData); ok {
			for _, v := range g.SampleData {
				b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
				b.WriteByte('\n')
			}
			_, err := io.WriteString(w, b.String())
			return wrapWrite(err)
		}
	}

	for i, res := range report.Results {
		if i > 0 {
			b.WriteByte('\n')
		}
		title := Title(res)
		b.WriteString(title)
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("=", displayWidth(title)))
		b.WriteByte('\n')
		if row := Row(res); row.Risk != "" {
			fmt.Fprintf(&b, "Risk: %s\n", row.Risk)
		}
		b.WriteString(res.Summary())
		b.WriteByte('\n')

		if opts.ShowDetails {
			metrics := Metrics(res)
			pad := 0
			for _, m := range metrics {
				pad = max(pad, displayWidth(m.Name))
			}
			b.WriteByte('\n')
			for _, m := range metrics {
				fmt.Fprintf(&b, "  %s%s  %s\n", m.Name, strings.Repeat(" ", pad-displayWidth(m.Name)), m.Value)
			}
			if ba, ok := res.(law.BenfordAnalysis); ok {
				writeDigitTable(&b, ba)
			}
		}

		heading, lines := Notes(res, opts.ShowRecommendations)
		if len(lines) > 0 {
			fmt.Fprintf(&b, "\n%s:\n", heading)
			for _, line := range lines {
				fmt.Fprintf(&b, "  - %s\n", line)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return wrapWrite(err)
}

func writeDigitTable(b *strings.Builder, ba law.BenfordAnalysis) {
	total := ba.ObservedDistribution.Sum()
	b.WriteString("\n  Digit  Observed  Expected\n")
	for _, d := range ba.ExpectedDistribution.Digits() {
		observed := 0.0
		if total > 0 {
			observed = ba.ObservedDistribution[d] / total
		}
		fmt.Fprintf(b, "  %5d  %7.2f%%  %7.2f%%\n", d, 100*observed, 100*ba.ExpectedDistribution[d])
	}
}

// displayWidth counts East Asian wide runes as two columns so paths with
// CJK keys still line up.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func f4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
