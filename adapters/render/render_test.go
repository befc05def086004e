package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

func benfordResult() law.BenfordAnalysis {
	return law.BenfordAnalysis{
		Header: law.Header{
			ResultType:      law.TypeBenfordAnalysis,
			AnalysisSummary: "Benford summary",
		},
		DigitMode:            law.DigitsFirst,
		Base:                 10,
		ObservedDistribution: law.DigitDistribution{1: 3, 2: 1},
		ExpectedDistribution: law.DigitDistribution{1: 0.75, 2: 0.25},
		ChiSquare:            0.1,
		DegreesOfFreedom:     1,
		PValue:               0.75,
		MAD:                  0.004,
		Conformity:           "close conformity",
		RiskLevel:            law.RiskLow,
		TotalNumbers:         4,
	}
}

func integrationResult() law.IntegrationAnalysis {
	return law.IntegrationAnalysis{
		Header: law.Header{
			ResultType:      law.TypeIntegrationAnalysis,
			AnalysisSummary: "Integrated summary",
		},
		Purpose:            law.PurposeGeneral,
		LawsAnalyzed:       []law.Law{law.Benford, law.Normal},
		LawRisks:           map[law.Law]law.RiskLevel{law.Benford: law.RiskLow, law.Normal: law.RiskHigh},
		OverallRisk:        law.RiskHigh,
		ConsistencyScore:   0.5,
		ConflictingResults: []string{"benford (LOW) and normal (HIGH) differ by two risk levels"},
		Recommendations:    []string{"Investigate the tails"},
	}
}

func testReport() Report {
	return NewReport("analyze", "data.csv", []law.Result{benfordResult(), integrationResult()}).
		WithFingerprint([]float64{1, 2, 3})
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(), Options{Format: FormatJSON}))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "analyze", decoded["operation"])
	assert.NotEmpty(t, decoded["run_id"])
	assert.NotEmpty(t, decoded["fingerprint"])

	results := decoded["results"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "BenfordAnalysis", first["result_type"])
	assert.Equal(t, "LOW", first["risk_level"])
	second := results[1].(map[string]interface{})
	assert.Equal(t, "HIGH", second["overall_risk"])
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(), Options{Format: "YAML"}))
	out := buf.String()
	assert.False(t, strings.HasPrefix(out, "{"), "expected block style")
	assert.True(t, strings.HasPrefix(out, "run_id:"), "field order follows the JSON encoding")

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	results := decoded["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, "LOW", first["risk_level"])

	// Digit keys stay strings and are quoted so they do not turn into ints.
	observed := first["observed_distribution"].(map[string]interface{})
	assert.Contains(t, observed, "1")
}

func TestRender_TOML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(), Options{Format: FormatTOML}))

	var decoded map[string]interface{}
	require.NoError(t, toml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "analyze", decoded["operation"])
	results := decoded["results"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	assert.Equal(t, int64(4), first["total_numbers"])
	assert.Equal(t, "close conformity", first["conformity"])
}

func TestRender_CSV(t *testing.T) {
	var buf bytes.Buffer
	report := testReport()
	require.NoError(t, Render(&buf, report, Options{Format: FormatCSV}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, CSVHeader, records[0])

	assert.Equal(t, report.RunID.String(), records[1][0])
	assert.Equal(t, "BenfordAnalysis", records[1][1])
	assert.Equal(t, "benford", records[1][2])
	assert.Equal(t, "LOW", records[1][4])
	assert.Equal(t, "MAD", records[1][6])
	assert.Equal(t, "0.0040", records[1][7])

	assert.Equal(t, "IntegrationAnalysis", records[2][1])
	assert.Equal(t, "HIGH", records[2][4])
	assert.Equal(t, "2", records[2][5])
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(), DefaultOptions()))
	out := buf.String()

	assert.Contains(t, out, "Benford's Law\n=============\n")
	assert.Contains(t, out, "Risk: LOW")
	assert.Contains(t, out, "Benford summary")
	assert.Contains(t, out, "Risk: HIGH")
	assert.Contains(t, out, "Investigate the tails")
	assert.NotContains(t, out, "Chi-square")

	buf.Reset()
	require.NoError(t, Render(&buf, testReport(), Options{ShowDetails: true}))
	out = buf.String()
	assert.Contains(t, out, "Chi-square")
	assert.Contains(t, out, "Digit  Observed  Expected")
	assert.Contains(t, out, "75.00%")
	assert.NotContains(t, out, "Investigate the tails")
	assert.Contains(t, out, "differ by two risk levels", "conflicts are shown without recommendations")
}

func TestRender_TextGeneratedData(t *testing.T) {
	report := NewReport("generate", "", []law.Result{law.GeneratedData{
		Header:     law.Header{ResultType: law.TypeGeneratedData},
		DataType:   law.Poisson,
		Count:      3,
		Seed:       42,
		SampleData: []float64{3, 0.5, 12},
	}})

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, report, DefaultOptions()))
	assert.Equal(t, "3\n0.5\n12\n", buf.String())
}

func TestRender_MarkdownAndHTML(t *testing.T) {
	report := testReport()
	md := Markdown(report, Options{ShowDetails: true, ShowRecommendations: true})
	assert.Contains(t, md, "# lawkit analyze report")
	assert.Contains(t, md, "| Result | Risk | Count | Key metric |")
	assert.Contains(t, md, "## Benford's Law")
	assert.Contains(t, md, "| Digit | Observed | Expected |")
	assert.Contains(t, md, "- Investigate the tails")
	assert.Contains(t, md, report.Fingerprint.Short())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, report, Options{Format: FormatHTML, ShowRecommendations: true}))
	page := buf.String()
	assert.Contains(t, page, "<html")
	assert.Contains(t, page, "<title>lawkit analyze report</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "Investigate the tails")
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, testReport(), Options{Format: "pdf"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestReport_MaxRisk(t *testing.T) {
	risk, ok := testReport().MaxRisk()
	assert.True(t, ok)
	assert.Equal(t, law.RiskHigh, risk)

	_, ok = NewReport("validate", "", []law.Result{law.ValidationResult{}}).MaxRisk()
	assert.False(t, ok)
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 5, displayWidth("sales"))
	assert.Equal(t, 4, displayWidth("売上"))
}

func TestReport_MaxRiskPrefersIntegrationVerdict(t *testing.T) {
	high := benfordResult()
	high.RiskLevel = law.RiskHigh
	verdict := integrationResult()
	verdict.OverallRisk = law.RiskMedium

	risk, ok := NewReport("analyze", "", []law.Result{high, verdict}).MaxRisk()
	assert.True(t, ok)
	assert.Equal(t, law.RiskMedium, risk)
}
