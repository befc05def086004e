// Package generator produces synthetic samples that follow a statistical law
// by construction.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"lawkit/domain/law"
	"lawkit/internal/errors"
	"lawkit/internal/laws"
)

// Config configures one generation call.
type Config struct {
	Law      law.Law  `json:"type"`
	Count    int      `json:"count"`
	Seed     *int64   `json:"seed,omitempty"`
	RangeMin *float64 `json:"range_min,omitempty"`
	RangeMax *float64 `json:"range_max,omitempty"`
	Mean     float64  `json:"mean"`
	StdDev   float64  `json:"std_dev"`
	Lambda   float64  `json:"lambda"`
	Alpha    float64  `json:"alpha"`
	Exponent float64  `json:"exponent"`
}

// Default Benford range spans six whole decades.
const (
	defaultBenfordMin = 1.0
	defaultBenfordMax = 1e6
	defaultZipfScale  = 10000.0
	zipfJitter        = 0.05
)

// Shape bounds within which generated samples still score LOW or MEDIUM
// against the default analyzer bands.
const (
	MaxParetoAlpha  = 1.5
	MinZipfExponent = 0.5
	MaxZipfExponent = 1.5
)

// ConfigFromOptions resolves a generation config for l from analysis options.
func ConfigFromOptions(l law.Law, opts law.Options) Config {
	return Config{
		Law:      l,
		Count:    opts.GenerateCount,
		Seed:     opts.GenerateSeed,
		RangeMin: opts.GenerateRangeMin,
		RangeMax: opts.GenerateRangeMax,
		Mean:     opts.GenerateMean,
		StdDev:   opts.GenerateStdDev,
		Lambda:   opts.GenerateLambda,
		Alpha:    opts.GenerateAlpha,
		Exponent: opts.GenerateExponent,
	}
}

// ConfigFromMap reads "type", "count", "seed" and shape keys over defaults.
func ConfigFromMap(raw map[string]interface{}, base law.Options) (Config, error) {
	name, _ := raw["type"].(string)
	if name == "" {
		name, _ = raw["law"].(string)
	}
	l, err := law.ParseLaw(name)
	if err != nil {
		return Config{}, errors.InvalidParameter("type", name, "must name a law")
	}

	overlay := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		switch strings.ToLower(k) {
		case "type", "law":
			continue
		case "count", "seed", "mean", "lambda", "alpha", "exponent":
			overlay["generate_"+strings.ToLower(k)] = v
		case "std_dev", "stddev", "std":
			overlay["generate_std_dev"] = v
		case "range_min", "min":
			overlay["generate_range_min"] = v
		case "range_max", "max":
			overlay["generate_range_max"] = v
		default:
			overlay[k] = v
		}
	}

	opts, err := base.Overlay(overlay)
	if err != nil {
		return Config{}, err
	}
	return ConfigFromOptions(l, opts), nil
}

// Validate checks the parameters the configured law uses.
func (c Config) Validate() error {
	if _, err := law.ParseLaw(string(c.Law)); err != nil {
		return errors.InvalidParameter("type", c.Law, "must name a law")
	}
	if c.Count < 1 || c.Count > 10_000_000 {
		return errors.InvalidParameter("count", c.Count, "must be between 1 and 10000000")
	}
	if c.RangeMin != nil && c.RangeMax != nil && *c.RangeMin >= *c.RangeMax {
		return errors.InvalidParameter("range_min", *c.RangeMin, "must be below range_max")
	}

	switch c.Law {
	case law.Benford:
		lo, hi := c.benfordRange()
		if lo <= 0 || hi <= lo {
			return errors.InvalidParameter("range_min", lo, "Benford range must be positive and increasing")
		}
		// Log-uniform data is Benford only over whole decades.
		decades := math.Log10(hi / lo)
		if math.Abs(decades-math.Round(decades)) > 1e-9 {
			return errors.InvalidParameter("range_max", hi, "Benford range must span whole decades (range_max/range_min a power of ten)")
		}
	case law.Pareto:
		if !(c.Alpha > 1 && c.Alpha <= MaxParetoAlpha) {
			return errors.InvalidParameter("alpha", c.Alpha, fmt.Sprintf("must be greater than 1 and at most %g", MaxParetoAlpha))
		}
		if c.RangeMin != nil && *c.RangeMin <= 0 {
			return errors.InvalidParameter("range_min", *c.RangeMin, "Pareto scale must be positive")
		}
	case law.Zipf:
		if !(c.Exponent >= MinZipfExponent && c.Exponent <= MaxZipfExponent) {
			return errors.InvalidParameter("exponent", c.Exponent,
				fmt.Sprintf("must be between %g and %g", MinZipfExponent, MaxZipfExponent))
		}
	case law.Normal:
		if !(c.StdDev > 0) {
			return errors.InvalidParameter("std_dev", c.StdDev, "must be positive")
		}
	case law.Poisson:
		if !(c.Lambda > 0) {
			return errors.InvalidParameter("lambda", c.Lambda, "must be positive")
		}
	}
	return nil
}

func (c Config) benfordRange() (float64, float64) {
	lo, hi := defaultBenfordMin, defaultBenfordMax
	if c.RangeMin != nil {
		lo = *c.RangeMin
	}
	if c.RangeMax != nil {
		hi = *c.RangeMax
	}
	return lo, hi
}

// Generator draws one sample. It owns its random source; generators are not
// shared between calls.
type Generator struct {
	config Config
	seed   int64
	rng    *rand.Rand
}

// NewGenerator creates a generator, picking a fresh seed when none is configured.
func NewGenerator(config Config) *Generator {
	seed := time.Now().UnixNano()
	if config.Seed != nil {
		seed = *config.Seed
	}
	return &Generator{
		config: config,
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Generate validates the config and produces exactly Count values.
func Generate(config Config) (law.GeneratedData, error) {
	if err := config.Validate(); err != nil {
		return law.GeneratedData{}, err
	}
	return NewGenerator(config).Generate(), nil
}

// Generate samples the quantile function at jittered, stratified
// probabilities and shuffles the result.
func (g *Generator) Generate() law.GeneratedData {
	n := g.config.Count
	quantile, params := g.quantile()

	values := make([]float64, n)
	for i := range values {
		u := (float64(i) + 0.25 + 0.5*g.rng.Float64()) / float64(n)
		values[i] = quantile(i, u)
	}
	g.rng.Shuffle(n, func(i, j int) { values[i], values[j] = values[j], values[i] })

	summary := fmt.Sprintf("Generated %d %s samples (seed %d) with %s.",
		n, g.config.Law.DisplayName(), g.seed, formatParams(params))

	return law.GeneratedData{
		Header: law.Header{
			ResultType:      law.TypeGeneratedData,
			AnalysisSummary: summary,
		},
		DataType:   g.config.Law,
		Count:      n,
		Seed:       g.seed,
		Parameters: params,
		SampleData: values,
	}
}

// quantile returns the per-point draw function for the configured law and
// the resolved parameters it uses.
func (g *Generator) quantile() (func(i int, u float64) float64, map[string]float64) {
	c := g.config
	switch c.Law {
	case law.Benford:
		lo, hi := c.benfordRange()
		ratio := hi / lo
		return func(_ int, u float64) float64 {
			return lo * math.Pow(ratio, u)
		}, map[string]float64{"range_min": lo, "range_max": hi}

	case law.Pareto:
		xm := 1.0
		if c.RangeMin != nil {
			xm = *c.RangeMin
		}
		return func(_ int, u float64) float64 {
			return xm * math.Pow(1-u, -1/c.Alpha)
		}, map[string]float64{"alpha": c.Alpha, "scale": xm}

	case law.Zipf:
		scale := defaultZipfScale
		if c.RangeMax != nil {
			scale = *c.RangeMax
		}
		// Rank-based: value of rank r is scale/r^s with multiplicative noise.
		return func(i int, _ float64) float64 {
			rank := float64(i + 1)
			return scale / math.Pow(rank, c.Exponent) * math.Exp(zipfJitter*g.rng.NormFloat64())
		}, map[string]float64{"exponent": c.Exponent, "scale": scale}

	case law.Poisson:
		return func(_ int, u float64) float64 {
			return float64(poissonQuantile(u, c.Lambda))
		}, map[string]float64{"lambda": c.Lambda}
	}

	return func(_ int, u float64) float64 {
		return c.Mean + c.StdDev*laws.NormalQuantile(u)
	}, map[string]float64{"mean": c.Mean, "std_dev": c.StdDev}
}

// poissonQuantile returns the smallest k with CDF(k) >= u, starting the
// search from the normal approximation.
func poissonQuantile(u, lambda float64) int {
	k := int(math.Max(0, math.Floor(lambda+math.Sqrt(lambda)*laws.NormalQuantile(u))))
	for k > 0 && laws.PoissonCDF(k-1, lambda) >= u {
		k--
	}
	for laws.PoissonCDF(k, lambda) < u {
		k++
	}
	return k
}

func formatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.4g", k, params[k])
	}
	return strings.Join(parts, ", ")
}
