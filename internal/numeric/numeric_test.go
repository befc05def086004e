package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"lawkit/domain/law"
	"lawkit/internal/errors"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		international bool
		japanese      bool
		want          float64
		ok            bool
	}{
		{"plain", "42", false, false, 42, true},
		{"negative decimal", "-4.5", false, false, -4.5, true},
		{"exponent", "1e3", false, false, 1000, true},
		{"us thousands", "1,234.56", false, false, 1234.56, true},
		{"us thousands integer", "1,234", false, false, 1234, true},
		{"european thousands", "1.234,56", false, false, 1234.56, true},
		{"decimal comma", "3,5", false, false, 3.5, true},
		{"currency", "$1,000", false, false, 1000, true},
		{"euro with space", "€ 12,50", false, false, 12.5, true},
		{"accounting negative", "(500)", false, false, -500, true},
		{"percent", "12%", false, false, 12, true},
		{"space groups", "1 234 567", false, false, 1234567, true},
		{"full-width digits", "１２３", true, false, 123, true},
		{"full-width without folding", "１２３", false, false, 0, false},
		{"arabic-indic digits", "١٢٣", true, false, 123, true},
		{"kanji with units", "千二百三十四", true, true, 1234, true},
		{"kanji large unit", "三万五千", true, true, 35000, true},
		{"kanji positional", "二〇二四", true, true, 2024, true},
		{"kanji disabled", "千", true, false, 0, false},
		{"word", "abc", true, true, 0, false},
		{"empty", "  ", true, true, 0, false},
		{"nan", "NaN", true, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input, tt.international, tt.japanese)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestExtract_DocumentOrder(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`{"b": 1, "a": [2, "3", null, true]}`), &doc))

	sample, err := Extract(&doc)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, sample.Values)
	assert.Equal(t, 2, sample.Skipped)
	assert.Equal(t, 3, sample.Len())
}

func TestExtract_GoValues(t *testing.T) {
	sample, err := Extract(map[string]interface{}{"b": []int{3, 4}, "a": "1,5", "c": math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 3, 4}, sample.Values, "map keys are visited in sorted order")
	assert.Equal(t, 1, sample.Skipped)

	sample, err = Extract(map[string]int{"y": 2, "x": 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, sample.Values)
}

func TestExtract_Filters(t *testing.T) {
	opts := law.DefaultOptions()
	opts.IgnoreKeysRegex = "^id$"
	cfg, err := ConfigFromOptions(opts)
	require.NoError(t, err)
	sample, err := NewExtractor(cfg).Extract(map[string]interface{}{"id": 99, "amount": 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, sample.Values)

	opts = law.DefaultOptions()
	opts.PathFilter = "amount"
	cfg, err = ConfigFromOptions(opts)
	require.NoError(t, err)
	sample, err = NewExtractor(cfg).Extract(map[string]interface{}{
		"amount": []interface{}{1.0, 2.0},
		"other":  3.0,
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, sample.Values)
}

func TestExtract_NoValidNumbers(t *testing.T) {
	_, err := Extract(nil)
	assert.True(t, errors.HasCode(err, errors.CodeNoValidNumbers))

	sample, err := Extract([]string{"x", "y"})
	assert.True(t, errors.HasCode(err, errors.CodeNoValidNumbers))
	assert.Equal(t, 2, sample.Skipped)
}

func TestConfigFromOptions_BadRegex(t *testing.T) {
	opts := law.DefaultOptions()
	opts.IgnoreKeysRegex = "("
	_, err := ConfigFromOptions(opts)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidParameter))
}
