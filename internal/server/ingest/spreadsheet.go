package ingest

import (
	"encoding/csv"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

// MultiSheetMessage is reported for spreadsheets with more than one sheet.
const MultiSheetMessage = "spreadsheet must contain exactly one sheet"

// ErrMultiSheet is returned by SpreadsheetToCSV when the workbook does not
// have exactly one sheet. Hidden sheets count.
var ErrMultiSheet = errors.New(MultiSheetMessage)

// SpreadsheetToCSV writes the only sheet of an xlsx workbook to w as
// comma separated CSV.
func SpreadsheetToCSV(r io.Reader, w io.Writer) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return errors.Wrap(err, "open spreadsheet")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) != 1 {
		return ErrMultiSheet
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return errors.Wrapf(err, "read sheet %s", sheets[0])
	}
	defer func() { _ = rows.Close() }()

	cw := csv.NewWriter(w)
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return errors.Wrap(err, "read row")
		}
		if err := cw.Write(cols); err != nil {
			return err
		}
	}
	if err := rows.Error(); err != nil {
		return errors.Wrap(err, "iterate rows")
	}
	cw.Flush()
	return cw.Error()
}
