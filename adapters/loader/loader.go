// Package loader reads analysis input from files and stdin into the raw
// structures the numeric extractor walks.
package loader

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"lawkit/internal/errors"
	"lawkit/internal/numeric"
)

// Format identifies an input encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
	FormatText Format = "text"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Options selects a format and, for tabular input, a column or sheet.
type Options struct {
	Format Format
	Column string // header name or 1-based index
	Sheet  string // xlsx sheet, default first
}

// Loader reads one input per call and keeps no state between calls.
type Loader struct {
	opts   Options
	stdin  io.Reader
	logger *slog.Logger
}

// New creates a loader. A nil logger discards.
func New(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{opts: opts, stdin: os.Stdin, logger: logger}
}

// WithStdin replaces the reader used for the "-" path.
func (l *Loader) WithStdin(r io.Reader) *Loader {
	cp := *l
	cp.stdin = r
	return &cp
}

// DetectFormat picks a format from a file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".csv":
		return FormatCSV
	case ".tsv", ".tab":
		return FormatTSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}
	return FormatText
}

// Load reads path ("-" for stdin) and decodes it.
func (l *Loader) Load(path string) (interface{}, error) {
	format := l.opts.Format
	if path == Stdin || path == "" {
		return l.LoadReader(l.stdin, format)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.InvalidInput("file not found: " + path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	defer f.Close()

	if format == FormatAuto {
		format = DetectFormat(path)
	}
	return l.LoadReader(f, format)
}

// ReadText returns the raw text of path ("-" for stdin).
func (l *Loader) ReadText(path string) (string, error) {
	var r io.Reader = l.stdin
	if path != Stdin && path != "" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", errors.InvalidInput("file not found: " + path)
			}
			return "", errors.WithCode(errors.CodeInvalidInput, err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.WithCode(errors.CodeInvalidInput, err)
	}
	return string(data), nil
}

// LoadReader decodes r. FormatAuto sniffs the content.
func (l *Loader) LoadReader(r io.Reader, format Format) (interface{}, error) {
	start := time.Now()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	if format == FormatAuto {
		format = sniff(data)
	}

	var out interface{}
	switch format {
	case FormatJSON, FormatYAML:
		out, err = decodeDocument(data)
	case FormatTOML:
		out, err = decodeTOML(data)
	case FormatCSV:
		out, err = l.decodeDelimited(data, ',')
	case FormatTSV:
		out, err = l.decodeDelimited(data, '\t')
	case FormatXLSX:
		out, err = l.decodeWorkbook(data)
	case FormatText:
		out = Tokenize(string(data))
	default:
		return nil, errors.InvalidInput("unsupported input format: " + string(format))
	}
	if err != nil {
		return nil, err
	}

	l.logger.Debug("input loaded", "format", format, "bytes", len(data), "elapsed", time.Since(start))
	return out, nil
}

// sniff treats bracketed or front-matter content as a document, anything
// else as free text.
func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatText
	}
	switch trimmed[0] {
	case '{', '[':
		return FormatJSON
	}
	if bytes.HasPrefix(trimmed, []byte("---")) {
		return FormatYAML
	}
	return FormatText
}

func decodeDocument(data []byte) (interface{}, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to parse document")
	}
	return &node, nil
}

func decodeTOML(data []byte) (interface{}, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to parse TOML")
	}
	return doc, nil
}

func (l *Loader) decodeDelimited(data []byte, sep rune) (interface{}, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to read delimited file")
	}
	return l.processRows(rows)
}

func (l *Loader) decodeWorkbook(data []byte) (interface{}, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to open workbook")
	}
	defer f.Close()

	sheet := l.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "failed to read sheet "+sheet)
	}
	return l.processRows(rows)
}

// processRows drops a header row and, when a column is selected, returns only
// that column's cells.
func (l *Loader) processRows(rows [][]string) (interface{}, error) {
	header, body := splitHeader(rows)
	if l.opts.Column == "" {
		return body, nil
	}

	col, err := columnIndex(header, l.opts.Column)
	if err != nil {
		return nil, err
	}
	cells := make([]string, 0, len(body))
	for _, row := range body {
		if col < len(row) {
			cells = append(cells, strings.TrimSpace(row[col]))
		}
	}
	return cells, nil
}

// splitHeader treats the first row as a header when none of its cells is numeric.
func splitHeader(rows [][]string) ([]string, [][]string) {
	if len(rows) < 2 {
		return nil, rows
	}
	for _, cell := range rows[0] {
		if _, ok := numeric.ParseNumber(cell, true, false); ok {
			return nil, rows
		}
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return header, rows[1:]
}

func columnIndex(header []string, column string) (int, error) {
	for i, h := range header {
		if strings.EqualFold(h, column) {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(column); err == nil && n >= 1 {
		return n - 1, nil
	}
	return 0, errors.InvalidInput("column not found: " + column)
}

var (
	tokenSeparators = regexp.MustCompile(`[\s;|]+`)
	thousandsGroup  = regexp.MustCompile(`^[-+(]?[^\d]*\d{1,3}(,\d{3})+(\.\d+)?[^\d]*$`)
)

// Tokenize splits free text into candidate number tokens. Commas separate
// values unless they form thousands groups.
func Tokenize(text string) []string {
	var tokens []string
	for _, field := range tokenSeparators.Split(text, -1) {
		field = strings.Trim(field, ",")
		if field == "" {
			continue
		}
		if strings.Contains(field, ",") && !thousandsGroup.MatchString(field) {
			for _, part := range strings.Split(field, ",") {
				if part = strings.TrimSpace(part); part != "" {
					tokens = append(tokens, part)
				}
			}
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}
