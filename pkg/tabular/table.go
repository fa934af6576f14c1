package tabular

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"

	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap/errors"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFile is returned for files that are neither spreadsheet nor csv.
var ErrUnsupportedFile = errors.New("file is not a csv or spreadsheet")

// Table is a fully loaded tabular file. The first row is the header, every
// row is padded to the header's width.
type Table struct {
	Header []string
	Rows   [][]string
}

// Width is the number of columns.
func (t *Table) Width() int {
	return len(t.Header)
}

// Column returns the values of column i across all rows.
func (t *Table) Column(i int) []string {
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, row[i])
	}
	return values
}

// ReadTable loads every row of a csv file or of a spreadsheet's first sheet.
func ReadTable(path string) (*Table, error) {
	switch KindOf(path) {
	case KindSpreadsheet:
		return readSpreadsheet(path)
	case KindDelimited:
		return readDelimited(path)
	default:
		return nil, errs.New(errs.KindSchema, "read table", errors.Annotate(ErrUnsupportedFile, path))
	}
}

func readSpreadsheet(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errs.New(errs.KindConversion, "read spreadsheet", errors.Annotatef(err, "open %s", path))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errs.Newf(errs.KindConversion, "read spreadsheet", "no sheets found in %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errs.New(errs.KindConversion, "read spreadsheet", errors.Annotatef(err, "read sheet %s of %s", sheets[0], path))
	}
	return newTable(rows), nil
}

func readDelimited(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.KindSchema, "read csv", errors.Trace(err))
	}
	defer f.Close()

	var r io.Reader = f
	if IsGzip(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errs.New(errs.KindConversion, "read csv", errors.Annotatef(err, "decompress %s", path))
		}
		defer gz.Close()
		r = gz
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errs.New(errs.KindConversion, "read csv", errors.Annotatef(err, "parse %s", path))
	}
	return newTable(rows), nil
}

// newTable splits off the header and pads ragged rows, since spreadsheets
// drop trailing empty cells.
func newTable(rows [][]string) *Table {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	if len(rows) == 0 {
		return &Table{}
	}
	return &Table{Header: rows[0], Rows: rows[1:]}
}
