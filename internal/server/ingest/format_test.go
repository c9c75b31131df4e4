package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPolicy_Accepts(t *testing.T) {
	p := NewFormatPolicy()

	tests := []struct {
		name string
		want bool
	}{
		{"data.csv", true},
		{"DATA.CSV", true},
		{"data.csv.gz", true},
		{"FILENAME.gz", true},
		{"book.xlsx", true},
		{"book.XLSX", true},
		{"book.xls", false},
		{"data.txt", false},
		{"data.csv.zip", false},
		{".csv", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Accepts(tt.name))
		})
	}
}

func TestNewFormatPolicy_Normalizes(t *testing.T) {
	p := NewFormatPolicy("CSV", " .Json ", "")
	assert.Equal(t, []string{".csv", ".json"}, p.Allowed)
	assert.True(t, p.Accepts("x.json"))
	assert.False(t, p.Accepts("x.xlsx"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, FormatCSV, Classify("a.csv"))
	assert.Equal(t, FormatGzipCSV, Classify("a.csv.gz"))
	assert.Equal(t, FormatGzipCSV, Classify("a.GZ"))
	assert.Equal(t, FormatSpreadsheet, Classify("a.Xlsx"))
	assert.Equal(t, FormatOpaque, Classify("a.json"))
	assert.False(t, FormatOpaque.Tabular())
	assert.True(t, FormatSpreadsheet.Tabular())
}

func TestNames(t *testing.T) {
	assert.Equal(t, "declared.csv", TargetName("declared.csv", "original.csv"))
	assert.Equal(t, "original.csv", TargetName("", "original.csv"))
	assert.Equal(t, "original.csv", TargetName("  ", "original.csv"))

	assert.Equal(t, "book.csv", CSVName("book.xlsx"))
	assert.Equal(t, "book.csv", CSVName("book.XLSX"))
	assert.Equal(t, "book.csv", CSVName("book.csv"))

	assert.Equal(t, "a.csv.gz", GzipName("a.csv"))
	assert.Equal(t, "a.csv.gz", GzipName("a.csv.gz"))
	assert.Equal(t, "a.GZ", GzipName("a.GZ"))
}

func TestSafeName(t *testing.T) {
	for _, name := range []string{"a.csv", "..a.csv", "a b.csv.gz"} {
		assert.True(t, SafeName(name), name)
	}
	for _, name := range []string{"", ".", "..", "../a.csv", "/a.csv", `x\a.csv`} {
		assert.False(t, SafeName(name), name)
	}
}

func TestStoredName(t *testing.T) {
	tests := map[string]string{
		"report.csv":    "report.csv.gz",
		"report.csv.gz": "report.csv.gz",
		"report.xlsx":   "report.csv.gz",
		"REPORT.XLSX":   "REPORT.csv.gz",
		"report.gz":     "report.gz",
	}
	for in, want := range tests {
		assert.Equal(t, want, StoredName(in), in)
	}
}
