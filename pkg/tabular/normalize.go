package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Normalized is the outcome of Normalize.
type Normalized struct {
	// Path is the file to hand to the loader.
	Path string
	// Converted is true when Path is a new file under the scratch directory
	// which the caller owns and should remove once it is uploaded.
	Converted bool
}

// Normalize turns a spreadsheet into a csv file named after it under
// scratchDir. Delimited and unknown files are returned as is.
func Normalize(path, scratchDir string) (Normalized, error) {
	if KindOf(path) != KindSpreadsheet {
		return Normalized{Path: path}, nil
	}

	table, err := readSpreadsheet(path)
	if err != nil {
		return Normalized{}, err
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return Normalized{}, errs.New(errs.KindConversion, "normalize", errors.Annotatef(err, "create scratch dir %s", scratchDir))
	}
	out := filepath.Join(scratchDir, CSVName(path))
	if err := writeCSV(out, table); err != nil {
		os.Remove(out)
		return Normalized{}, errs.New(errs.KindConversion, "normalize", errors.Annotatef(err, "write %s", out))
	}
	log.Info("Converted spreadsheet to csv", zap.String("source", path), zap.String("csv", out), zap.Int("rows", len(table.Rows)))
	return Normalized{Path: out, Converted: true}, nil
}

func writeCSV(path string, table *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	return writeTable(f, table)
}

// writeTable encodes table into wc and closes it. wc is closed on every path,
// and the close error is returned when nothing failed before it.
func writeTable(wc io.WriteCloser, table *Table) error {
	w := csv.NewWriter(wc)
	if len(table.Header) > 0 {
		if err := w.Write(table.Header); err != nil {
			wc.Close()
			return errors.Trace(err)
		}
	}
	if err := w.WriteAll(table.Rows); err != nil {
		wc.Close()
		return errors.Trace(err)
	}
	if s, ok := wc.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			wc.Close()
			return errors.Trace(err)
		}
	}
	return errors.Trace(wc.Close())
}
