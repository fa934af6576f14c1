package tabular

import (
	"path/filepath"
	"strings"
)

// Kind is the tabular format of a file, derived from its extension.
type Kind int

const (
	KindUnknown Kind = iota
	// KindSpreadsheet needs parsing into rows before anything else can use it.
	KindSpreadsheet
	// KindDelimited is comma separated text, optionally gzip compressed.
	KindDelimited
)

var spreadsheetExts = map[string]struct{}{
	".xlsx": {},
	".xlsm": {},
	".xls":  {},
}

// KindOf detects the format of path from its extension, case-insensitively.
func KindOf(path string) Kind {
	name := strings.ToLower(filepath.Base(path))
	if _, ok := spreadsheetExts[filepath.Ext(name)]; ok {
		return KindSpreadsheet
	}
	name = strings.TrimSuffix(name, ".gz")
	if filepath.Ext(name) == ".csv" {
		return KindDelimited
	}
	return KindUnknown
}

// IsGzip reports whether path names a gzip compressed file.
func IsGzip(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// CSVName returns the base name of path with a spreadsheet extension replaced
// by ".csv". Other names are returned unchanged.
func CSVName(path string) string {
	base := filepath.Base(path)
	if KindOf(base) != KindSpreadsheet {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".csv"
}
