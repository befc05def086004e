package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"lawkit/domain/law"
)

// Markdown renders the report as a GitHub-flavoured document.
func Markdown(report Report, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# lawkit %s report\n\n", report.Operation)
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format(time.RFC3339))
	if report.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", report.Source)
	}
	if report.Fingerprint != "" {
		fmt.Fprintf(&b, "- Fingerprint: `%s`\n", report.Fingerprint.Short())
	}

	b.WriteString("\n| Result | Risk | Count | Key metric |\n|---|---|---:|---|\n")
	for _, res := range report.Results {
		row := Row(res)
		risk := row.Risk
		if risk == "" {
			risk = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %s %s |\n", escapeCell(Title(res)), risk, row.Count, escapeCell(row.Metric), escapeCell(row.Value))
	}

	for _, res := range report.Results {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", Title(res), res.Summary())
		if opts.ShowDetails {
			b.WriteString("\n| Metric | Value |\n|---|---|\n")
			for _, m := range Metrics(res) {
				fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(m.Name), escapeCell(m.Value))
			}
			if ba, ok := res.(law.BenfordAnalysis); ok {
				total := ba.ObservedDistribution.Sum()
				b.WriteString("\n| Digit | Observed | Expected |\n|---:|---:|---:|\n")
				for _, d := range ba.ExpectedDistribution.Digits() {
					observed := 0.0
					if total > 0 {
						observed = ba.ObservedDistribution[d] / total
					}
					fmt.Fprintf(&b, "| %d | %.2f%% | %.2f%% |\n", d, 100*observed, 100*ba.ExpectedDistribution[d])
				}
			}
		}
		if heading, lines := Notes(res, opts.ShowRecommendations); len(lines) > 0 {
			fmt.Fprintf(&b, "\n### %s\n\n", heading)
			for _, line := range lines {
				fmt.Fprintf(&b, "- %s\n", line)
			}
		}
	}
	return b.String()
}

// HTML renders the markdown report as a complete page.
func HTML(report Report, opts Options) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(Markdown(report, opts)))
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("lawkit %s report", report.Operation),
	})
	return markdown.Render(doc, renderer)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
