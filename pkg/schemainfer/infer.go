package schemainfer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap-inc/dwloader/pkg/redshiftsql"
	"github.com/pingcap-inc/dwloader/pkg/tabular"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Draft is a proposed table definition derived from a file.
type Draft struct {
	Table   redshiftsql.TableName
	Columns []redshiftsql.TableCol
}

func (d *Draft) DDL() string {
	return redshiftsql.GenCreateTableDDL(d.Table, d.Columns)
}

// InferSchema proposes a CREATE TABLE statement for tableName from the
// contents of path. Files that are neither delimited text nor spreadsheets
// yield a comment-only statement.
func InferSchema(path, tableName string) (string, error) {
	if tabular.KindOf(path) == tabular.KindUnknown {
		log.Info("Cannot derive table definition", zap.String("path", path))
		return redshiftsql.UnsupportedFileDDL, nil
	}
	draft, err := InferDraft(path, tableName)
	if err != nil {
		return "", err
	}
	return draft.DDL(), nil
}

// InferDraft reads the whole file and types each column from its values.
func InferDraft(path, tableName string) (*Draft, error) {
	if strings.TrimSpace(tableName) == "" {
		return nil, errs.Newf(errs.KindSchema, "infer schema", "table name is empty")
	}
	table, err := tabular.ReadTable(path)
	if err != nil {
		return nil, err
	}
	if table.Width() == 0 {
		return nil, errs.Newf(errs.KindSchema, "infer schema", "%s has no columns", path)
	}

	names := columnNames(table.Header)
	columns := make([]redshiftsql.TableCol, 0, len(names))
	for i, name := range names {
		columns = append(columns, redshiftsql.TableCol{Name: name, Tp: inferType(table.Column(i))})
	}
	log.Info("Inferred table definition", zap.String("path", path), zap.Int("rows", len(table.Rows)), zap.Any("columns", columns))
	return &Draft{Table: redshiftsql.ParseTableName(tableName), Columns: columns}, nil
}

// columnNames trims header cells, names blank ones after their position and
// suffixes repeats.
func columnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n)
		} else {
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}

// inferType picks the narrowest type that holds every non-blank value.
// Numbers win over dates, so a column of years stays numeric.
func inferType(values []string) string {
	var (
		seen     bool
		maxLen   int
		integral = true
		numeric  = true
		boolean  = true
		dated    = true
		timed    bool
	)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if len(v) > maxLen {
			maxLen = len(v)
		}
		if v == "" {
			continue
		}
		seen = true
		if integral && !isInt(v) {
			integral = false
		}
		if numeric && !isFloat(v) {
			numeric = false
		}
		if boolean && !isBool(v) {
			boolean = false
		}
		if dated {
			isDate, hasTime := parseDate(v)
			dated = isDate
			timed = timed || hasTime
		}
	}

	switch {
	case !seen:
		return redshiftsql.TypeText
	case integral:
		return redshiftsql.TypeBigInt
	case numeric:
		return redshiftsql.TypeDouble
	case boolean:
		return redshiftsql.TypeBoolean
	case dated && timed:
		return redshiftsql.TypeTimestamp
	case dated:
		return redshiftsql.TypeDate
	default:
		return redshiftsql.TextType(maxLen)
	}
}

func isInt(v string) bool {
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isFloat(v string) bool {
	// ParseFloat also accepts "NaN" and "Inf"
	if !strings.ContainsAny(v, "0123456789") {
		return false
	}
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

func isBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false":
		return true
	}
	return false
}

// parseDate reports whether v is a date and whether it carries a time of day.
func parseDate(v string) (bool, bool) {
	t, err := dateparse.ParseStrict(v)
	if err != nil {
		return false, false
	}
	return true, t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 || strings.Contains(v, ":")
}
