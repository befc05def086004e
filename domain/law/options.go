package law

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"lawkit/internal/errors"
)

// Benford digit modes.
const (
	DigitsFirst    = "first"
	DigitsSecond   = "second"
	DigitsFirstTwo = "first-two"
)

// Integration purposes.
const (
	PurposeGeneral       = "general"
	PurposeFraud         = "fraud"
	PurposeQuality       = "quality"
	PurposeConcentration = "concentration"
	PurposeAnomaly       = "anomaly"
)

// Options configures a single engine call. Every field is defaulted by
// DefaultOptions; zero values set by a caller are taken literally.
type Options struct {
	ConfidenceLevel        float64 `json:"confidence_level"`
	SignificanceLevel      float64 `json:"significance_level"`
	MinSampleSize          int     `json:"min_sample_size"`
	RiskThreshold          string  `json:"risk_threshold"`
	EnableOutlierDetection bool    `json:"enable_outlier_detection"`

	BenfordDigits string `json:"benford_digits"`
	BenfordBase   int    `json:"benford_base"`

	ParetoRatio         float64 `json:"pareto_ratio"`
	ParetoCategoryLimit int     `json:"pareto_category_limit"`

	ZipfRankLimit       int     `json:"zipf_rank_limit"`
	ZipfFrequencyCutoff float64 `json:"zipf_frequency_cutoff"`

	GenerateCount    int      `json:"generate_count"`
	GenerateSeed     *int64   `json:"generate_seed,omitempty"`
	GenerateRangeMin *float64 `json:"generate_range_min,omitempty"`
	GenerateRangeMax *float64 `json:"generate_range_max,omitempty"`
	GenerateMean     float64  `json:"generate_mean"`
	GenerateStdDev   float64  `json:"generate_std_dev"`
	GenerateLambda   float64  `json:"generate_lambda"`
	GenerateAlpha    float64  `json:"generate_alpha"`
	GenerateExponent float64  `json:"generate_exponent"`

	EnableInternationalNumerals bool   `json:"enable_international_numerals"`
	EnableJapaneseNumerals      bool   `json:"enable_japanese_numerals"`
	IgnoreKeysRegex             string `json:"ignore_keys_regex"`
	PathFilter                  string `json:"path_filter"`

	Laws                     []string `json:"laws"`
	Purpose                  string   `json:"purpose"`
	EnableParallelProcessing bool     `json:"enable_parallel_processing"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		ConfidenceLevel:             0.95,
		SignificanceLevel:           0.05,
		MinSampleSize:               30,
		EnableOutlierDetection:      true,
		BenfordDigits:               DigitsFirst,
		BenfordBase:                 10,
		ParetoRatio:                 0.8,
		GenerateCount:               1000,
		GenerateMean:                100,
		GenerateStdDev:              15,
		GenerateLambda:              5,
		GenerateAlpha:               math.Log(5) / math.Log(4),
		GenerateExponent:            1,
		EnableInternationalNumerals: true,
		Purpose:                     PurposeGeneral,
		EnableParallelProcessing:    true,
	}
}

// Validate checks every field against its valid range.
func (o Options) Validate() error {
	if !(o.ConfidenceLevel > 0 && o.ConfidenceLevel < 1) {
		return errors.InvalidParameter("confidence_level", o.ConfidenceLevel, "must be between 0 and 1")
	}
	if !(o.SignificanceLevel > 0 && o.SignificanceLevel < 1) {
		return errors.InvalidParameter("significance_level", o.SignificanceLevel, "must be between 0 and 1")
	}
	if o.MinSampleSize < 1 {
		return errors.InvalidParameter("min_sample_size", o.MinSampleSize, "must be at least 1")
	}
	if o.RiskThreshold != "" {
		if _, err := ParseRiskLevel(o.RiskThreshold); err != nil {
			return errors.InvalidParameter("risk_threshold", o.RiskThreshold, "must be low, medium or high")
		}
	}
	switch o.BenfordDigits {
	case DigitsFirst, DigitsSecond, DigitsFirstTwo, "both":
	default:
		return errors.InvalidParameter("benford_digits", o.BenfordDigits, "must be first, second or first-two")
	}
	if o.BenfordBase < 2 || o.BenfordBase > 36 {
		return errors.InvalidParameter("benford_base", o.BenfordBase, "must be between 2 and 36")
	}
	if o.BenfordBase != 10 && o.BenfordDigitMode() != DigitsFirst {
		return errors.InvalidParameter("benford_base", o.BenfordBase, "non-decimal bases support first-digit mode only")
	}
	if !(o.ParetoRatio > 0 && o.ParetoRatio < 1) {
		return errors.InvalidParameter("pareto_ratio", o.ParetoRatio, "must be between 0 and 1")
	}
	if o.ParetoCategoryLimit < 0 {
		return errors.InvalidParameter("pareto_category_limit", o.ParetoCategoryLimit, "must not be negative")
	}
	if o.ZipfRankLimit < 0 {
		return errors.InvalidParameter("zipf_rank_limit", o.ZipfRankLimit, "must not be negative")
	}
	if o.ZipfFrequencyCutoff < 0 {
		return errors.InvalidParameter("zipf_frequency_cutoff", o.ZipfFrequencyCutoff, "must not be negative")
	}
	if o.IgnoreKeysRegex != "" {
		if _, err := regexp.Compile(o.IgnoreKeysRegex); err != nil {
			return errors.InvalidParameter("ignore_keys_regex", o.IgnoreKeysRegex, err.Error())
		}
	}
	if o.Purpose != "" {
		switch o.Purpose {
		case PurposeGeneral, PurposeFraud, PurposeQuality, PurposeConcentration, PurposeAnomaly:
		default:
			return errors.InvalidParameter("purpose", o.Purpose, "must be general, fraud, quality, concentration or anomaly")
		}
	}
	for _, name := range o.Laws {
		if _, err := ParseLaw(name); err != nil {
			return errors.InvalidParameter("laws", name, "unknown law")
		}
	}
	return nil
}

// BenfordDigitMode normalizes the "both" alias.
func (o Options) BenfordDigitMode() string {
	if o.BenfordDigits == "both" {
		return DigitsFirstTwo
	}
	if o.BenfordDigits == "" {
		return DigitsFirst
	}
	return o.BenfordDigits
}

// Sensitivity scales risk bands. A "low" risk threshold flags deviations
// earlier, "high" tolerates more before escalating.
func (o Options) Sensitivity() float64 {
	if o.RiskThreshold == "" {
		return 1
	}
	level, err := ParseRiskLevel(o.RiskThreshold)
	if err != nil {
		return 1
	}
	switch level {
	case RiskLow:
		return 0.75
	case RiskHigh:
		return 1.5
	}
	return 1
}

// Floor caps a law's hard minimum by the configured minimum sample size,
// never going below absolute.
func (o Options) Floor(lawFloor, absolute int) int {
	floor := lawFloor
	if o.MinSampleSize > 0 && o.MinSampleSize < floor {
		floor = o.MinSampleSize
	}
	if floor < absolute {
		floor = absolute
	}
	return floor
}

// SelectedLaws resolves the configured law subset, defaulting to All.
func (o Options) SelectedLaws() []Law {
	if len(o.Laws) == 0 {
		return append([]Law(nil), All...)
	}
	seen := make(map[Law]bool, len(o.Laws))
	for _, name := range o.Laws {
		if l, err := ParseLaw(name); err == nil {
			seen[l] = true
		}
	}
	selected := make([]Law, 0, len(seen))
	for _, l := range All {
		if seen[l] {
			selected = append(selected, l)
		}
	}
	return selected
}

// OptionsFromMap overlays a loosely-typed option bag on the defaults.
// Keys may be snake_case or camelCase; unknown keys are ignored.
func OptionsFromMap(raw map[string]interface{}) (Options, error) {
	return DefaultOptions().Overlay(raw)
}

// Overlay returns a copy of o with the keys present in raw applied.
func (o Options) Overlay(raw map[string]interface{}) (Options, error) {
	opts := o.clone()
	if len(raw) == 0 {
		return opts, nil
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := make(map[string]interface{}, len(raw))
	canonical := make(map[string]bool, len(raw))
	for _, key := range keys {
		k := snakeCase(key)
		// The snake_case spelling wins over aliases; among aliases the first in
		// sorted order wins.
		if _, seen := normalized[k]; seen && (canonical[k] || key != k) {
			continue
		}
		canonical[k] = key == k
		value := raw[key]
		switch k {
		case "generate_seed":
			seed, err := coerceSeed(value)
			if err != nil {
				return opts, errors.InvalidParameter("generate_seed", value, "must be an integer")
			}
			value = seed
		case "laws":
			if s, ok := value.(string); ok {
				value = strings.Split(s, ",")
			}
		}
		normalized[k] = value
	}

	payload, err := json.Marshal(normalized)
	if err != nil {
		return opts, errors.Wrap(errors.InvalidParameter("options", "map", err.Error()), "failed to encode options")
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&opts); err != nil {
		var typeErr *json.UnmarshalTypeError
		if ok := asTypeError(err, &typeErr); ok {
			return opts, errors.InvalidParameter(typeErr.Field, typeErr.Value, "has the wrong type")
		}
		return opts, errors.InvalidParameter("options", "map", err.Error())
	}
	for i, name := range opts.Laws {
		opts.Laws[i] = strings.TrimSpace(name)
	}
	return opts, nil
}

// clone copies the reference fields so decoding into the copy leaves o intact.
func (o Options) clone() Options {
	c := o
	c.Laws = append([]string(nil), o.Laws...)
	if o.GenerateSeed != nil {
		seed := *o.GenerateSeed
		c.GenerateSeed = &seed
	}
	if o.GenerateRangeMin != nil {
		v := *o.GenerateRangeMin
		c.GenerateRangeMin = &v
	}
	if o.GenerateRangeMax != nil {
		v := *o.GenerateRangeMax
		c.GenerateRangeMax = &v
	}
	return c
}

func asTypeError(err error, target **json.UnmarshalTypeError) bool {
	if te, ok := err.(*json.UnmarshalTypeError); ok {
		*target = te
		return true
	}
	return false
}

func coerceSeed(value interface{}) (int64, error) {
	switch v := value.(type) {
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, strconv.ErrSyntax
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	}
	return 0, strconv.ErrSyntax
}

// snakeCase converts "riskThreshold" to "risk_threshold"; snake_case keys pass through.
func snakeCase(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == '-' {
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}
