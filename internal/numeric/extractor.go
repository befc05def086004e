// Package numeric normalizes arbitrary nested input into a flat sample of
// finite numbers.
package numeric

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"lawkit/domain/law"
	"lawkit/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config controls which leaves count as numbers.
type Config struct {
	International bool
	Japanese      bool
	IgnoreKeys    *regexp.Regexp
	PathFilter    string
}

// ConfigFromOptions builds an extraction config from engine options.
func ConfigFromOptions(opts law.Options) (Config, error) {
	cfg := Config{
		International: opts.EnableInternationalNumerals,
		Japanese:      opts.EnableJapaneseNumerals,
		PathFilter:    opts.PathFilter,
	}
	if opts.IgnoreKeysRegex != "" {
		re, err := regexp.Compile(opts.IgnoreKeysRegex)
		if err != nil {
			return cfg, errors.InvalidParameter("ignore_keys_regex", opts.IgnoreKeysRegex, err.Error())
		}
		cfg.IgnoreKeys = re
	}
	return cfg, nil
}

// Sample is the extracted, ordered numeric sequence.
type Sample struct {
	Values  []float64
	Skipped int // non-numeric leaves that were ignored
}

// Len returns the number of extracted values.
func (s Sample) Len() int { return len(s.Values) }

// Extractor walks input recursively. It holds no state between calls.
type Extractor struct {
	config Config
}

// NewExtractor creates an extractor with the given config
func NewExtractor(config Config) *Extractor {
	return &Extractor{config: config}
}

// Extract collects every finite number in input, failing with
// NoValidNumbers when none is found.
func (e *Extractor) Extract(input interface{}) (Sample, error) {
	w := &walker{config: e.config}
	w.walk(input, "")
	if len(w.values) == 0 {
		if input == nil {
			return Sample{}, errors.NoValidNumbers("no valid numbers found: input is empty")
		}
		return Sample{Skipped: w.skipped}, errors.NoValidNumbers(
			fmt.Sprintf("no valid numbers found in input (%d non-numeric values skipped)", w.skipped))
	}
	return Sample{Values: w.values, Skipped: w.skipped}, nil
}

// Extract is a convenience wrapper using the default config.
func Extract(input interface{}) (Sample, error) {
	return NewExtractor(Config{International: true}).Extract(input)
}

type walker struct {
	config  Config
	values  []float64
	skipped int
}

func (w *walker) collect(v float64, path string) {
	if !w.included(path) {
		return
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		w.skipped++
		return
	}
	w.values = append(w.values, v)
}

func (w *walker) skip(path string) {
	if w.included(path) {
		w.skipped++
	}
}

func (w *walker) included(path string) bool {
	return w.config.PathFilter == "" || strings.Contains(path, w.config.PathFilter)
}

func (w *walker) ignoredKey(key string) bool {
	return w.config.IgnoreKeys != nil && w.config.IgnoreKeys.MatchString(key)
}

func (w *walker) walk(node interface{}, path string) {
	switch v := node.(type) {
	case nil:
		w.skip(path)
	case float64:
		w.collect(v, path)
	case float32:
		w.collect(float64(v), path)
	case int:
		w.collect(float64(v), path)
	case int64:
		w.collect(float64(v), path)
	case int32:
		w.collect(float64(v), path)
	case uint:
		w.collect(float64(v), path)
	case uint64:
		w.collect(float64(v), path)
	case uint32:
		w.collect(float64(v), path)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			w.collect(f, path)
		} else {
			w.skip(path)
		}
	case string:
		w.walkString(v, path)
	case bool:
		w.skip(path)
	case []float64:
		for i, f := range v {
			w.collect(f, indexPath(path, i))
		}
	case []interface{}:
		for i, item := range v {
			w.walk(item, indexPath(path, i))
		}
	case []string:
		for i, item := range v {
			w.walkString(item, indexPath(path, i))
		}
	case [][]string:
		for i, row := range v {
			w.walk(row, indexPath(path, i))
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if w.ignoredKey(k) {
				continue
			}
			w.walk(v[k], keyPath(path, k))
		}
	case yaml.Node:
		w.walkNode(&v, path)
	case *yaml.Node:
		w.walkNode(v, path)
	default:
		w.walkReflect(reflect.ValueOf(node), path)
	}
}

func (w *walker) walkString(s string, path string) {
	if f, ok := ParseNumber(s, w.config.International, w.config.Japanese); ok {
		w.collect(f, path)
		return
	}
	w.skip(path)
}

// walkNode visits an ordered YAML/JSON document in document order.
func (w *walker) walkNode(n *yaml.Node, path string) {
	if n == nil {
		w.skip(path)
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for i, child := range n.Content {
			childPath := path
			if n.Kind == yaml.SequenceNode {
				childPath = indexPath(path, i)
			}
			w.walkNode(child, childPath)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if w.ignoredKey(key) {
				continue
			}
			w.walkNode(n.Content[i+1], keyPath(path, key))
		}
	case yaml.AliasNode:
		w.walkNode(n.Alias, path)
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int", "!!float":
			if f, err := strconv.ParseFloat(strings.ReplaceAll(n.Value, "_", ""), 64); err == nil {
				w.collect(f, path)
				return
			}
			w.walkString(n.Value, path)
		case "!!null", "!!bool":
			w.skip(path)
		default:
			w.walkString(n.Value, path)
		}
	default:
		w.skip(path)
	}
}

// walkReflect covers typed slices, arrays, maps and pointers not matched above.
func (w *walker) walkReflect(v reflect.Value, path string) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			w.skip(path)
			return
		}
		w.walk(v.Elem().Interface(), path)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			w.walk(v.Index(i).Interface(), indexPath(path, i))
		}
	case reflect.Map:
		keys := v.MapKeys()
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = fmt.Sprint(k.Interface())
		}
		order := make([]int, len(keys))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return names[order[a]] < names[order[b]] })
		for _, idx := range order {
			if w.ignoredKey(names[idx]) {
				continue
			}
			w.walk(v.MapIndex(keys[idx]).Interface(), keyPath(path, names[idx]))
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w.collect(float64(v.Int()), path)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		w.collect(float64(v.Uint()), path)
	case reflect.Float32, reflect.Float64:
		w.collect(v.Float(), path)
	case reflect.String:
		w.walkString(v.String(), path)
	default:
		w.skip(path)
	}
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func keyPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
