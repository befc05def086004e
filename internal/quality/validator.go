// Package quality assesses whether a numeric sample is fit for law analysis
// and diagnoses outliers and distribution anomalies.
package quality

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"lawkit/domain/law"
	"lawkit/internal/numeric"
)

// Severity grades a validation issue. Any critical issue fails validation.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Issue is one finding of a structural check.
type Issue struct {
	Severity Severity
	Message  string
	Penalty  float64
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
}

// PassingScore is the minimum data quality score for a passing verdict.
const PassingScore = 0.5

// Validator runs structural checks over an extracted sample.
type Validator struct{}

// NewValidator creates a new sample validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate never fails: bad data is reported as issues on the result.
func (v *Validator) Validate(sample numeric.Sample, opts law.Options) law.ValidationResult {
	issues := v.Check(sample, opts)

	score := 1.0
	critical := false
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		score -= issue.Penalty
		if issue.Severity == SeverityCritical {
			critical = true
		}
		messages = append(messages, issue.String())
	}
	score = math.Max(0, math.Min(1, score))
	passed := !critical && score >= PassingScore

	verdict := "passed"
	if !passed {
		verdict = "failed"
	}
	summary := fmt.Sprintf("Data validation of %d numbers %s with quality score %.2f; %d issue(s) found.",
		sample.Len(), verdict, score, len(issues))

	return law.ValidationResult{
		Header: law.Header{
			ResultType:      law.TypeValidationResult,
			Path:            opts.PathFilter,
			AnalysisSummary: summary,
		},
		ValidationPassed: passed,
		DataQualityScore: score,
		IssuesFound:      messages,
		TotalNumbers:     sample.Len(),
		SkippedValues:    sample.Skipped,
	}
}

// Check runs every structural check in a fixed order.
func (v *Validator) Check(sample numeric.Sample, opts law.Options) []Issue {
	data := sample.Values
	n := len(data)
	var issues []Issue

	switch {
	case n < 3:
		issues = append(issues, Issue{SeverityCritical,
			fmt.Sprintf("only %d numbers; statistical checks need at least 3", n), 0.4})
	case n < opts.MinSampleSize:
		issues = append(issues, Issue{SeverityWarning,
			fmt.Sprintf("sample size %d is below the recommended minimum of %d", n, opts.MinSampleSize), 0.2})
	}

	if total := n + sample.Skipped; total > 0 && sample.Skipped > 0 {
		ratio := float64(sample.Skipped) / float64(total)
		switch {
		case ratio > 0.5:
			issues = append(issues, Issue{SeverityCritical,
				fmt.Sprintf("%.0f%% of input values are non-numeric", 100*ratio), 0.4})
		case ratio > 0.1:
			issues = append(issues, Issue{SeverityWarning,
				fmt.Sprintf("%.0f%% of input values are non-numeric", 100*ratio), math.Min(0.3, ratio)})
		}
	}
	if n == 0 {
		return issues
	}

	distinct := make(map[float64]int, n)
	negatives, zeros := 0, 0
	for _, x := range data {
		distinct[x]++
		if x < 0 {
			negatives++
		}
		if x == 0 {
			zeros++
		}
	}

	if n > 1 && len(distinct) == 1 {
		issues = append(issues, Issue{SeverityCritical, "all values are identical", 0.5})
	} else if dup := 1 - float64(len(distinct))/float64(n); dup > 0.5 {
		issues = append(issues, Issue{SeverityInfo,
			fmt.Sprintf("%.0f%% of values are repeats (count data or duplicated entries)", 100*dup), 0.05})
	}

	if negatives > 0 {
		issues = append(issues, Issue{SeverityInfo,
			fmt.Sprintf("%d negative values; magnitude-based laws use absolute values", negatives), 0.05})
	}

	if ratio := float64(zeros) / float64(n); ratio > 0.2 {
		issues = append(issues, Issue{SeverityWarning,
			fmt.Sprintf("%.0f%% of values are zero", 100*ratio), 0.1})
	}

	if share, counted := roundNumberShare(data); counted >= 10 && share > 0.5 {
		issues = append(issues, Issue{SeverityWarning,
			fmt.Sprintf("%.0f%% of integer values end in 0 or 5 (expected about 20%%)", 100*share), 0.1})
	}

	if n >= 4 {
		if outliers := len(IQROutliers(data)); float64(outliers)/float64(n) > 0.05 {
			issues = append(issues, Issue{SeverityWarning,
				fmt.Sprintf("%d values (%.1f%%) fall outside the IQR fences", outliers, 100*float64(outliers)/float64(n)), 0.1})
		}
	}

	return issues
}

// roundNumberShare returns the share of integer values (|x| >= 10) ending in
// 0 or 5, and how many values were considered.
func roundNumberShare(data []float64) (float64, int) {
	counted, round := 0, 0
	for _, x := range data {
		a := math.Abs(x)
		if a < 10 || a != math.Trunc(a) || a > 1e15 {
			continue
		}
		counted++
		if last := int64(a) % 10; last == 0 || last == 5 {
			round++
		}
	}
	if counted == 0 {
		return 0, 0
	}
	return float64(round) / float64(counted), counted
}

// IQROutliers returns the indices of values outside the 1.5·IQR fences.
func IQROutliers(data []float64) []int {
	q25, err := stats.Percentile(data, 25)
	if err != nil {
		return nil
	}
	q75, err := stats.Percentile(data, 75)
	if err != nil {
		return nil
	}

	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	var idx []int
	for i, x := range data {
		if x < lowerBound || x > upperBound {
			idx = append(idx, i)
		}
	}
	return idx
}
