package ingest

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSpreadsheetToCSV_SingleSheet(t *testing.T) {
	book := workbook(t, map[string][][]any{
		"Data": {{"field1", "field2"}, {1, "x,y"}},
	}, "Data")

	var out bytes.Buffer
	require.NoError(t, SpreadsheetToCSV(bytes.NewReader(book), &out))
	assert.Equal(t, "field1,field2\n1,\"x,y\"\n", out.String())
}

func TestSpreadsheetToCSV_MultipleSheets(t *testing.T) {
	book := workbook(t, map[string][][]any{
		"A": {{"a"}},
		"B": nil,
	}, "A", "B")

	err := SpreadsheetToCSV(bytes.NewReader(book), &bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrMultiSheet))
	assert.Equal(t, MultiSheetMessage, err.Error())
}

func TestSpreadsheetToCSV_HiddenSheetCounts(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Hidden")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetVisible("Hidden", false))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	_ = f.Close()

	err = SpreadsheetToCSV(bytes.NewReader(buf.Bytes()), &bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrMultiSheet))
}

func TestSpreadsheetToCSV_NotASpreadsheet(t *testing.T) {
	err := SpreadsheetToCSV(bytes.NewReader([]byte("a,b\n")), &bytes.Buffer{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMultiSheet))
}
