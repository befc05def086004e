package law

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawkit/internal/errors"
)

func TestParseLaw(t *testing.T) {
	for input, want := range map[string]Law{
		"benford":   Benford,
		"BENF":      Benford,
		" Pareto ":  Pareto,
		"zipf":      Zipf,
		"Gaussian":  Normal,
		"poisson":   Poisson,
		"normal":    Normal,
		"benford\n": Benford,
	} {
		got, err := ParseLaw(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLaw("lognormal")
	assert.Error(t, err)
	assert.Equal(t, "Benford's Law", Benford.DisplayName())
	assert.Equal(t, "custom", Law("custom").DisplayName())
}

func TestRiskLevel(t *testing.T) {
	for _, s := range []string{"low", "Low", " LOW "} {
		r, err := ParseRiskLevel(s)
		require.NoError(t, err)
		assert.Equal(t, RiskLow, r)
	}
	_, err := ParseRiskLevel("critical")
	assert.Error(t, err)

	assert.Equal(t, RiskHigh, MaxRisk(RiskLow, RiskHigh, RiskMedium))
	assert.Equal(t, RiskLow, MaxRisk())
	assert.True(t, RiskHigh.AtLeast(RiskMedium))
	assert.False(t, RiskLow.AtLeast(RiskMedium))
	assert.Equal(t, "RiskLevel(7)", RiskLevel(7).String())

	_, err = RiskLevel(7).MarshalText()
	assert.Error(t, err)
}

func TestRiskLevel_JSON(t *testing.T) {
	type wrapper struct {
		Risk  RiskLevel         `json:"risk"`
		ByLaw map[Law]RiskLevel `json:"by_law"`
	}
	raw, err := json.Marshal(wrapper{Risk: RiskMedium, ByLaw: map[Law]RiskLevel{Zipf: RiskHigh}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"risk":"MEDIUM","by_law":{"zipf":"HIGH"}}`, string(raw))

	var decoded wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"risk":"high","by_law":{"pareto":"low"}}`), &decoded))
	assert.Equal(t, RiskHigh, decoded.Risk)
	assert.Equal(t, RiskLow, decoded.ByLaw[Pareto])
}

func TestDigitDistribution(t *testing.T) {
	d := DigitDistribution{3: 1, 1: 2, 2: 0.5}
	assert.Equal(t, []int{1, 2, 3}, d.Digits())
	assert.Equal(t, 3.5, d.Sum())
}

func TestOptions_Validate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"confidence above 1", func(o *Options) { o.ConfidenceLevel = 1 }},
		{"significance zero", func(o *Options) { o.SignificanceLevel = 0 }},
		{"min sample size", func(o *Options) { o.MinSampleSize = 0 }},
		{"risk threshold", func(o *Options) { o.RiskThreshold = "extreme" }},
		{"digits", func(o *Options) { o.BenfordDigits = "third" }},
		{"base", func(o *Options) { o.BenfordBase = 1 }},
		{"base with second digit", func(o *Options) { o.BenfordBase = 8; o.BenfordDigits = DigitsSecond }},
		{"pareto ratio", func(o *Options) { o.ParetoRatio = 1.2 }},
		{"category limit", func(o *Options) { o.ParetoCategoryLimit = -1 }},
		{"rank limit", func(o *Options) { o.ZipfRankLimit = -1 }},
		{"cutoff", func(o *Options) { o.ZipfFrequencyCutoff = -0.5 }},
		{"regex", func(o *Options) { o.IgnoreKeysRegex = "[" }},
		{"purpose", func(o *Options) { o.Purpose = "marketing" }},
		{"laws", func(o *Options) { o.Laws = []string{"benford", "weibull"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeInvalidParameter))
		})
	}
}

func TestOptions_Helpers(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, DigitsFirst, opts.BenfordDigitMode())
	opts.BenfordDigits = "both"
	assert.Equal(t, DigitsFirstTwo, opts.BenfordDigitMode())

	for threshold, want := range map[string]float64{"": 1, "low": 0.75, "MEDIUM": 1, "high": 1.5, "bogus": 1} {
		opts.RiskThreshold = threshold
		assert.Equal(t, want, opts.Sensitivity(), threshold)
	}

	opts = DefaultOptions()
	assert.Equal(t, 10, opts.Floor(10, 1), "default min sample size does not lower the floor")
	opts.MinSampleSize = 5
	assert.Equal(t, 5, opts.Floor(10, 1))
	opts.MinSampleSize = 1
	assert.Equal(t, 3, opts.Floor(10, 3))
}

func TestOptions_SelectedLaws(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, All, opts.SelectedLaws())

	opts.Laws = []string{"poisson", "benf", "poisson", "unknown"}
	assert.Equal(t, []Law{Benford, Poisson}, opts.SelectedLaws())
}

func TestOptionsFromMap(t *testing.T) {
	opts, err := OptionsFromMap(map[string]interface{}{
		"riskThreshold":    "HIGH",
		"generate_seed":    "42",
		"laws":             "benford, zipf",
		"confidence_level": 0.9,
		"unknownKey":       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "HIGH", opts.RiskThreshold)
	require.NotNil(t, opts.GenerateSeed)
	assert.Equal(t, int64(42), *opts.GenerateSeed)
	assert.Equal(t, []string{"benford", "zipf"}, opts.Laws)
	assert.Equal(t, 0.9, opts.ConfidenceLevel)
	assert.Equal(t, 0.05, opts.SignificanceLevel, "untouched keys keep defaults")

	_, err = OptionsFromMap(map[string]interface{}{"min_sample_size": "ten"})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidParameter))

	_, err = OptionsFromMap(map[string]interface{}{"generate_seed": 4.5})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidParameter))
}

func TestOptions_OverlayLeavesBaseIntact(t *testing.T) {
	seed := int64(1)
	base := DefaultOptions()
	base.Laws = []string{"benford"}
	base.GenerateSeed = &seed

	next, err := base.Overlay(map[string]interface{}{"laws": []string{"zipf", "pareto"}, "generate_seed": 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"zipf", "pareto"}, next.Laws)
	assert.Equal(t, int64(9), *next.GenerateSeed)

	assert.Equal(t, []string{"benford"}, base.Laws)
	assert.Equal(t, int64(1), *base.GenerateSeed)
}

func TestOptions_OverlaySnakeCaseWinsOverAlias(t *testing.T) {
	for i := 0; i < 50; i++ {
		opts, err := OptionsFromMap(map[string]interface{}{
			"riskThreshold":    "high",
			"risk_threshold":   "low",
			"risk-threshold":   "medium",
			"minSampleSize":    5,
			"min-sample-size":  7,
			"confidence_level": 0.9,
		})
		require.NoError(t, err)
		assert.Equal(t, "low", opts.RiskThreshold)
		assert.Equal(t, 7, opts.MinSampleSize)
		assert.Equal(t, 0.9, opts.ConfidenceLevel)
	}
}

func TestOptionsFromMap_IgnoresUnsupportedKeys(t *testing.T) {
	opts, err := OptionsFromMap(map[string]interface{}{
		"analysis_threshold":    0.3,
		"useMemoryOptimization": true,
		"batch_size":            500,
		"memory_limit_mb":       256,
		"show_details":          true,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}
