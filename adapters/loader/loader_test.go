package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lawkit/internal/errors"
	"lawkit/internal/numeric"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func extract(t *testing.T, raw interface{}) []float64 {
	t.Helper()
	sample, err := numeric.Extract(raw)
	require.NoError(t, err)
	return sample.Values
}

func TestLoad_DocumentOrder(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "data.json", `{"zeta": [3, 1], "alpha": {"x": "2,500", "y": null}, "mid": 7}`},
		{"yaml", "data.yml", "zeta: [3, 1]\nalpha:\n  x: '2,500'\n  y: ~\nmid: 7\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := New(Options{}, nil).Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, []float64{3, 1, 2500, 7}, extract(t, raw))
		})
	}
}

func TestLoad_TOML(t *testing.T) {
	raw, err := New(Options{}, nil).Load(writeFile(t, "data.toml", "name = \"sales\"\namounts = [10, 20.5]\n[region]\nnorth = 3\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20.5, 3}, extract(t, raw))
}

func TestLoad_CSV(t *testing.T) {
	content := "id,amount,note\n1,\"1,200.50\",ok\n2,300,late\n3,45,\n"
	path := writeFile(t, "orders.csv", content)

	all, err := New(Options{}, nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1200.5, 2, 300, 3, 45}, extract(t, all))

	column, err := New(Options{Column: "Amount"}, nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1,200.50", "300", "45"}, column)

	byIndex, err := New(Options{Column: "1"}, nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, byIndex)

	_, err = New(Options{Column: "missing"}, nil).Load(path)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestLoad_TSVWithoutHeader(t *testing.T) {
	raw, err := New(Options{}, nil).Load(writeFile(t, "values.tsv", "1\t2\n3\t4\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, raw)
}

func TestLoad_Workbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"item", "revenue"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"a", 120}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"b", 80}))
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))

	raw, err := New(Options{Column: "revenue"}, nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"120", "80"}, raw)

	_, err = New(Options{Sheet: "Nope"}, nil).Load(path)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestLoad_Stdin(t *testing.T) {
	l := New(Options{}, nil)

	doc, err := l.WithStdin(strings.NewReader(`[1, 2, "3"]`)).Load(Stdin)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, extract(t, doc))

	text, err := l.WithStdin(strings.NewReader("12 4,5,6\n1,234 total; 7")).Load(Stdin)
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "4", "5", "6", "1,234", "total", "7"}, text)
}

func TestLoad_Errors(t *testing.T) {
	_, err := New(Options{}, nil).Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	_, err = New(Options{}, nil).Load(writeFile(t, "broken.json", `{"a": [1, 2`))
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	_, err = New(Options{Format: "parquet"}, nil).Load(writeFile(t, "x.bin", "1"))
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestReadText(t *testing.T) {
	text, err := New(Options{}, nil).ReadText(writeFile(t, "words.txt", "the cat the hat"))
	require.NoError(t, err)
	assert.Equal(t, "the cat the hat", text)

	_, err = New(Options{}, nil).ReadText("/nonexistent/words.txt")
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("a.YML"))
	assert.Equal(t, FormatXLSX, DetectFormat("book.xlsx"))
	assert.Equal(t, FormatText, DetectFormat("notes"))
}
