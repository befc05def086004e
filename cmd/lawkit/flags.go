package main

import (
	"github.com/spf13/cobra"

	"lawkit/adapters/loader"
	"lawkit/domain/law"
)

// boundFlag ties a flag to the option key it sets when changed.
type boundFlag struct {
	name  string
	key   string
	value func() interface{}
}

// optionBinder collects flags that map onto law.Options keys. Only flags the
// user actually set are overlaid, so environment defaults survive.
type optionBinder struct {
	cmd   *cobra.Command
	bound []boundFlag
}

func newOptionBinder(cmd *cobra.Command) *optionBinder {
	return &optionBinder{cmd: cmd}
}

func (b *optionBinder) add(name, key string, value func() interface{}) {
	b.bound = append(b.bound, boundFlag{name: name, key: key, value: value})
}

func (b *optionBinder) Float(name, key string, def float64, usage string) {
	v := new(float64)
	b.cmd.Flags().Float64Var(v, name, def, usage)
	b.add(name, key, func() interface{} { return *v })
}

func (b *optionBinder) Int(name, key string, def int, usage string) {
	v := new(int)
	b.cmd.Flags().IntVar(v, name, def, usage)
	b.add(name, key, func() interface{} { return *v })
}

func (b *optionBinder) Int64(name, key string, def int64, usage string) {
	v := new(int64)
	b.cmd.Flags().Int64Var(v, name, def, usage)
	b.add(name, key, func() interface{} { return *v })
}

func (b *optionBinder) String(name, key, def, usage string) {
	v := new(string)
	b.cmd.Flags().StringVar(v, name, def, usage)
	b.add(name, key, func() interface{} { return *v })
}

func (b *optionBinder) Strings(name, key string, usage string) {
	v := new([]string)
	b.cmd.Flags().StringSliceVar(v, name, nil, usage)
	b.add(name, key, func() interface{} { return *v })
}

func (b *optionBinder) Bool(name, key string, usage string) {
	v := new(bool)
	b.cmd.Flags().BoolVar(v, name, false, usage)
	b.add(name, key, func() interface{} { return *v })
}

// NegatedBool binds a --no-x style flag to an option that defaults to true.
func (b *optionBinder) NegatedBool(name, key string, usage string) {
	v := new(bool)
	b.cmd.Flags().BoolVar(v, name, false, usage)
	b.add(name, key, func() interface{} { return !*v })
}

// Options overlays the changed flags on base.
func (b *optionBinder) Options(base law.Options) (law.Options, error) {
	raw := make(map[string]interface{})
	for _, f := range b.bound {
		if b.cmd.Flags().Changed(f.name) {
			raw[f.key] = f.value()
		}
	}
	return base.Overlay(raw)
}

// bindCommon registers the flags every analysis command shares.
func bindCommon(b *optionBinder) {
	b.Float("confidence", "confidence_level", 0.95, "Confidence level for intervals")
	b.Float("significance", "significance_level", 0.05, "Significance level for hypothesis tests")
	b.Int("min-count", "min_sample_size", 30, "Recommended minimum sample size")
	b.String("threshold", "risk_threshold", "", "Risk sensitivity: low flags earlier, high tolerates more")
	b.NegatedBool("no-outliers", "enable_outlier_detection", "Disable outlier detection")
	b.String("path", "path_filter", "", "Only analyze values whose structural path contains this string")
	b.String("ignore-keys", "ignore_keys_regex", "", "Skip object keys matching this regular expression")
	b.Bool("japanese", "enable_japanese_numerals", "Parse Japanese kanji numerals")
	b.NegatedBool("no-international", "enable_international_numerals", "Disable full-width digit folding")
}

// inputFlags selects how the input file is decoded.
type inputFlags struct {
	format string
	column string
	sheet  string
}

func bindInput(cmd *cobra.Command) *inputFlags {
	in := &inputFlags{}
	cmd.Flags().StringVar(&in.format, "input-format", "", "Input format: json|yaml|toml|csv|tsv|xlsx|text (default: by extension)")
	cmd.Flags().StringVar(&in.column, "column", "", "CSV/XLSX column to analyze, by header name or 1-based index")
	cmd.Flags().StringVar(&in.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	return in
}

func (in *inputFlags) loaderOptions() loader.Options {
	return loader.Options{
		Format: loader.Format(in.format),
		Column: in.column,
		Sheet:  in.sheet,
	}
}
