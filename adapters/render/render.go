// Package render turns engine results into the report formats the CLI
// writes: text, json, yaml, toml, csv, markdown and html.
package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"lawkit/domain/core"
	"lawkit/domain/law"
	"lawkit/internal/errors"
)

// Output formats.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatTOML     = "toml"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Formats lists every supported output format.
var Formats = []string{FormatText, FormatJSON, FormatYAML, FormatTOML, FormatCSV, FormatMarkdown, FormatHTML}

// Report is the envelope written for one engine call.
type Report struct {
	RunID       core.RunID       `json:"run_id"`
	Operation   string           `json:"operation"`
	Source      string           `json:"source,omitempty"`
	Fingerprint core.DatasetHash `json:"fingerprint,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	Results     []law.Result     `json:"results"`
}

// NewReport stamps results with a fresh run ID and the current time.
func NewReport(operation, source string, results []law.Result) Report {
	return Report{
		RunID:       core.NewRunID(),
		Operation:   operation,
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
	}
}

// WithFingerprint records the hash of the analyzed sample.
func (r Report) WithFingerprint(values []float64) Report {
	if len(values) > 0 {
		r.Fingerprint = core.ComputeDatasetHash(values)
	}
	return r
}

// MaxRisk returns the overall risk of the report: the integration verdict
// when there is one, else the worst single-law risk. ok is false when no
// result carries a risk.
func (r Report) MaxRisk() (risk law.RiskLevel, ok bool) {
	worst, found := law.RiskLow, false
	for _, res := range r.Results {
		switch v := res.(type) {
		case law.IntegrationAnalysis:
			return v.OverallRisk, true
		case law.Assessment:
			worst, found = law.MaxRisk(worst, v.Risk()), true
		}
	}
	return worst, found
}

// Options controls what the human-readable formats include.
type Options struct {
	Format              string
	ShowDetails         bool
	ShowRecommendations bool
}

// DefaultOptions renders plain text with recommendations and without details.
func DefaultOptions() Options {
	return Options{Format: FormatText, ShowRecommendations: true}
}

// Render writes report to w in the requested format.
func Render(w io.Writer, report Report, opts Options) error {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "", FormatText:
		return renderText(w, report, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return wrapWrite(enc.Encode(report))
	case FormatYAML:
		return renderYAML(w, report)
	case FormatTOML:
		return renderTOML(w, report)
	case FormatCSV:
		return renderCSV(w, report)
	case "md", FormatMarkdown:
		_, err := io.WriteString(w, Markdown(report, opts))
		return wrapWrite(err)
	case FormatHTML:
		_, err := w.Write(HTML(report, opts))
		return wrapWrite(err)
	}
	return errors.InvalidInput(fmt.Sprintf("unknown output format %q (supported: %s)", opts.Format, strings.Join(Formats, ", ")))
}

// renderYAML goes through JSON so field names and order match the JSON
// output; a yaml.Node keeps the document order that a map would lose.
func renderYAML(w io.Writer, report Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return errors.Wrap(err, "convert report to yaml")
	}
	plainStyle(&doc)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return wrapWrite(err)
	}
	return wrapWrite(enc.Close())
}

// plainStyle drops the flow style inherited from JSON so the output reads as
// block YAML.
func plainStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		plainStyle(c)
	}
}

func renderTOML(w io.Writer, report Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	var doc map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return errors.Wrap(err, "convert report to toml")
	}
	out, err := toml.Marshal(tomlValue(doc))
	if err != nil {
		return errors.Wrap(err, "encode toml")
	}
	_, err = w.Write(out)
	return wrapWrite(err)
}

// tomlValue drops nulls, which TOML cannot express, and turns json.Number
// into int64 or float64.
func tomlValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			if item == nil {
				continue
			}
			out[k] = tomlValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(t))
		for _, item := range t {
			if item != nil {
				out = append(out, tomlValue(item))
			}
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	}
	return v
}

// CSVHeader is the first record of csv output.
var CSVHeader = []string{"run_id", "result_type", "law", "path", "risk_level", "count", "key_metric", "key_value", "summary"}

// renderCSV writes one row per result with its headline metric.
func renderCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return wrapWrite(err)
	}
	for _, res := range report.Results {
		row := Row(res)
		record := []string{
			report.RunID.String(),
			string(res.Kind()),
			row.Law,
			row.Path,
			row.Risk,
			strconv.Itoa(row.Count),
			row.Metric,
			row.Value,
			res.Summary(),
		}
		if err := cw.Write(record); err != nil {
			return wrapWrite(err)
		}
	}
	cw.Flush()
	return wrapWrite(cw.Error())
}

func wrapWrite(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, "write report")
}
