package law

import "sort"

// ResultType tags each variant of the result union.
type ResultType string

const (
	TypeBenfordAnalysis     ResultType = "BenfordAnalysis"
	TypeParetoAnalysis      ResultType = "ParetoAnalysis"
	TypeZipfAnalysis        ResultType = "ZipfAnalysis"
	TypeNormalAnalysis      ResultType = "NormalAnalysis"
	TypePoissonAnalysis     ResultType = "PoissonAnalysis"
	TypeIntegrationAnalysis ResultType = "IntegrationAnalysis"
	TypeValidationResult    ResultType = "ValidationResult"
	TypeDiagnosticResult    ResultType = "DiagnosticResult"
	TypeGeneratedData       ResultType = "GeneratedData"
)

// Result is implemented by every result variant.
type Result interface {
	Kind() ResultType
	Summary() string
}

// Assessment is a result produced by a single-law analyzer.
type Assessment interface {
	Result
	Law() Law
	Risk() RiskLevel
}

// Header carries the fields common to every result.
type Header struct {
	ResultType      ResultType `json:"result_type"`
	Path            string     `json:"path,omitempty"`
	AnalysisSummary string     `json:"analysis_summary"`
}

func (h Header) Kind() ResultType { return h.ResultType }
func (h Header) Summary() string  { return h.AnalysisSummary }

// DigitDistribution maps a digit (or digit pair) to a count or probability.
type DigitDistribution map[int]float64

// Digits returns the keys in ascending order.
func (d DigitDistribution) Digits() []int {
	keys := make([]int, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Sum adds every bucket.
func (d DigitDistribution) Sum() float64 {
	total := 0.0
	for _, k := range d.Digits() {
		total += d[k]
	}
	return total
}

// BenfordAnalysis is the leading-digit conformity result.
type BenfordAnalysis struct {
	Header
	DigitMode            string            `json:"digit_mode"`
	Base                 int               `json:"base"`
	ObservedDistribution DigitDistribution `json:"observed_distribution"` // counts
	ExpectedDistribution DigitDistribution `json:"expected_distribution"` // probabilities
	ChiSquare            float64           `json:"chi_square"`
	DegreesOfFreedom     int               `json:"degrees_of_freedom"`
	PValue               float64           `json:"p_value"`
	MAD                  float64           `json:"mad"`
	Conformity           string            `json:"conformity"`
	RiskLevel            RiskLevel         `json:"risk_level"`
	TotalNumbers         int               `json:"total_numbers"`
	ExcludedCount        int               `json:"excluded_count"`
}

func (BenfordAnalysis) Law() Law          { return Benford }
func (b BenfordAnalysis) Risk() RiskLevel { return b.RiskLevel }

// ParetoAnalysis is the concentration (80/20) result.
type ParetoAnalysis struct {
	Header
	Top20PercentContribution float64   `json:"top_20_percent_contribution"`
	ParetoRatio              float64   `json:"pareto_ratio"`
	TargetRatio              float64   `json:"target_ratio"`
	ConcentrationIndex       float64   `json:"concentration_index"`
	Direction                string    `json:"direction"`
	RiskLevel                RiskLevel `json:"risk_level"`
	TotalItems               int       `json:"total_items"`
}

func (ParetoAnalysis) Law() Law          { return Pareto }
func (p ParetoAnalysis) Risk() RiskLevel { return p.RiskLevel }

// ZipfAnalysis is the rank/value power-law fit result.
type ZipfAnalysis struct {
	Header
	ZipfCoefficient        float64   `json:"zipf_coefficient"`
	CorrelationCoefficient float64   `json:"correlation_coefficient"`
	RSquared               float64   `json:"r_squared"`
	DeviationScore         float64   `json:"deviation_score"`
	RiskLevel              RiskLevel `json:"risk_level"`
	TotalItems             int       `json:"total_items"`
}

func (ZipfAnalysis) Law() Law          { return Zipf }
func (z ZipfAnalysis) Risk() RiskLevel { return z.RiskLevel }

// NormalAnalysis is the moment and normality-test result.
type NormalAnalysis struct {
	Header
	Mean            float64   `json:"mean"`
	StdDev          float64   `json:"std_dev"`
	Skewness        float64   `json:"skewness"`
	Kurtosis        float64   `json:"kurtosis"` // excess
	NormalityTest   string    `json:"normality_test"`
	NormalityTestP  float64   `json:"normality_test_p"`
	ConfidenceLevel float64   `json:"confidence_level"`
	MeanCILower     float64   `json:"mean_ci_lower"`
	MeanCIUpper     float64   `json:"mean_ci_upper"`
	Beyond2Sigma    int       `json:"beyond_2_sigma"`
	Beyond3Sigma    int       `json:"beyond_3_sigma"`
	RiskLevel       RiskLevel `json:"risk_level"`
	TotalNumbers    int       `json:"total_numbers"`
}

func (NormalAnalysis) Law() Law          { return Normal }
func (n NormalAnalysis) Risk() RiskLevel { return n.RiskLevel }

// PoissonAnalysis is the equidispersion and goodness-of-fit result.
type PoissonAnalysis struct {
	Header
	Lambda            float64   `json:"lambda"`
	Variance          float64   `json:"variance"`
	VarianceRatio     float64   `json:"variance_ratio"`
	GoodnessOfFitTest string    `json:"goodness_of_fit_test"`
	PoissonTestP      float64   `json:"poisson_test_p"`
	ProbabilityZero   float64   `json:"probability_zero"`
	LowConfidence     bool      `json:"low_confidence"`
	RiskLevel         RiskLevel `json:"risk_level"`
	TotalEvents       int64     `json:"total_events"`
	TotalObservations int       `json:"total_observations"`
	ExcludedCount     int       `json:"excluded_count,omitempty"`
}

func (PoissonAnalysis) Law() Law          { return Poisson }
func (p PoissonAnalysis) Risk() RiskLevel { return p.RiskLevel }

// IntegrationAnalysis reconciles several single-law assessments.
type IntegrationAnalysis struct {
	Header
	Purpose            string            `json:"purpose"`
	LawsAnalyzed       []Law             `json:"laws_analyzed"`
	SkippedLaws        []string          `json:"skipped_laws,omitempty"`
	LawRisks           map[Law]RiskLevel `json:"law_risks"`
	OverallRisk        RiskLevel         `json:"overall_risk"`
	ConsistencyScore   float64           `json:"consistency_score"`
	ConflictingResults []string          `json:"conflicting_results"`
	Recommendations    []string          `json:"recommendations"`
}

// ValidationResult is the data-quality verdict.
type ValidationResult struct {
	Header
	ValidationPassed bool     `json:"validation_passed"`
	DataQualityScore float64  `json:"data_quality_score"`
	IssuesFound      []string `json:"issues_found"`
	TotalNumbers     int      `json:"total_numbers"`
	SkippedValues    int      `json:"skipped_values"`
}

// DiagnosticResult lists anomalies found in a dataset.
type DiagnosticResult struct {
	Header
	DiagnosticType  string    `json:"diagnostic_type"`
	Findings        []string  `json:"findings"`
	ConfidenceLevel float64   `json:"confidence_level"`
	Outliers        []float64 `json:"outliers,omitempty"`
	TotalNumbers    int       `json:"total_numbers"`
}

// GeneratedData is a synthetic sample conforming to DataType.
type GeneratedData struct {
	Header
	DataType   Law                `json:"data_type"`
	Count      int                `json:"count"`
	Seed       int64              `json:"seed"`
	Parameters map[string]float64 `json:"parameters"`
	SampleData []float64          `json:"sample_data"`
}
