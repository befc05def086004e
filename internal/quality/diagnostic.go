package quality

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"lawkit/domain/law"
	"lawkit/internal/laws"
)

// Diagnostic types.
const (
	DiagnosticGeneral          = "General"
	DiagnosticOutlierDetection = "OutlierDetection"
)

// modifiedZThreshold is the Iglewicz-Hoaglin cut-off for the modified z-score.
const modifiedZThreshold = 3.5

// DiagnosticEngine looks for outliers and distribution anomalies.
type DiagnosticEngine struct{}

// NewDiagnosticEngine creates a new diagnostic engine
func NewDiagnosticEngine() *DiagnosticEngine {
	return &DiagnosticEngine{}
}

// Diagnose always returns at least one finding.
func (d *DiagnosticEngine) Diagnose(data []float64, opts law.Options) law.DiagnosticResult {
	n := len(data)
	findings := make([]string, 0, 6)

	m := laws.ComputeMoments(data)
	median, _ := stats.Median(data)
	minV, _ := stats.Min(data)
	maxV, _ := stats.Max(data)
	findings = append(findings, fmt.Sprintf(
		"%d values: mean %.4g, median %.4g, std dev %.4g, range [%.4g, %.4g]", n, m.Mean, median, m.StdDev, minV, maxV))

	var outliers []float64
	diagnosticType := DiagnosticGeneral
	if opts.EnableOutlierDetection && n >= 4 {
		idx := Outliers(data)
		for _, i := range idx {
			outliers = append(outliers, data[i])
		}
		if len(outliers) > 0 {
			diagnosticType = DiagnosticOutlierDetection
			findings = append(findings, fmt.Sprintf(
				"%d outliers detected by IQR fences or modified z-score above %.1f", len(outliers), modifiedZThreshold))
		}
	}

	anomalies := distributionAnomalies(data, m)
	findings = append(findings, anomalies...)
	if len(outliers) == 0 && len(anomalies) == 0 {
		findings = append(findings, "No outliers or distribution anomalies detected")
	}

	confidence := diagnosticConfidence(n, opts)
	summary := fmt.Sprintf("Diagnostic (%s) of %d numbers: %d outliers, %d anomalies, confidence %.2f.",
		diagnosticType, n, len(outliers), len(anomalies), confidence)

	return law.DiagnosticResult{
		Header: law.Header{
			ResultType:      law.TypeDiagnosticResult,
			Path:            opts.PathFilter,
			AnalysisSummary: summary,
		},
		DiagnosticType:  diagnosticType,
		Findings:        findings,
		ConfidenceLevel: confidence,
		Outliers:        outliers,
		TotalNumbers:    n,
	}
}

// Outliers returns, in input order, the indices flagged by either the IQR
// fences or the modified z-score.
func Outliers(data []float64) []int {
	flagged := make(map[int]bool)
	for _, i := range IQROutliers(data) {
		flagged[i] = true
	}
	for _, i := range modifiedZOutliers(data) {
		flagged[i] = true
	}

	idx := make([]int, 0, len(flagged))
	for i := range flagged {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

func modifiedZOutliers(data []float64) []int {
	median, err := stats.Median(data)
	if err != nil {
		return nil
	}
	mad, err := stats.MedianAbsoluteDeviation(data)
	if err != nil || mad == 0 {
		return nil
	}

	var idx []int
	for i, x := range data {
		if math.Abs(0.6745*(x-median)/mad) > modifiedZThreshold {
			idx = append(idx, i)
		}
	}
	return idx
}

func distributionAnomalies(data []float64, m laws.Moments) []string {
	var out []string
	if m.N >= 8 {
		if m.Kurtosis > 3 {
			out = append(out, fmt.Sprintf("heavy tails: excess kurtosis %.2f", m.Kurtosis))
		}
		if math.Abs(m.Skewness) > 1 {
			side := "right"
			if m.Skewness < 0 {
				side = "left"
			}
			out = append(out, fmt.Sprintf("strong %s skew: skewness %.2f", side, m.Skewness))
		}
	}
	if len(data) < 10 {
		return out
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	gaps := make([]float64, 0, len(sorted)-1)
	maxGap, at := 0.0, 0
	for i := 1; i < len(sorted); i++ {
		g := sorted[i] - sorted[i-1]
		gaps = append(gaps, g)
		if g > maxGap {
			maxGap, at = g, i
		}
	}
	medianGap, _ := stats.Median(gaps)
	span := sorted[len(sorted)-1] - sorted[0]
	if span > 0 && maxGap > 0.25*span && maxGap > 10*medianGap {
		out = append(out, fmt.Sprintf("gap of %.4g between %.4g and %.4g", maxGap, sorted[at-1], sorted[at]))
	}

	mode, count := sorted[0], 0
	run := 0
	for i, x := range sorted {
		if i > 0 && x == sorted[i-1] {
			run++
		} else {
			run = 1
		}
		if run > count {
			mode, count = x, run
		}
	}
	if share := float64(count) / float64(len(sorted)); share > 0.25 && span > 0 {
		out = append(out, fmt.Sprintf("clustering: %.0f%% of values equal %.4g", 100*share, mode))
	}
	return out
}

// diagnosticConfidence scales the configured confidence by how close the
// sample is to the recommended size.
func diagnosticConfidence(n int, opts law.Options) float64 {
	c := opts.ConfidenceLevel
	if opts.MinSampleSize > 0 && n < opts.MinSampleSize {
		c *= float64(n) / float64(opts.MinSampleSize)
	}
	return math.Max(0.01, math.Min(1, c))
}
