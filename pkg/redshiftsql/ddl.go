package redshiftsql

import (
	"fmt"
	"strings"
)

// UnsupportedFileDDL is returned in place of a definition when the source
// file is neither delimited text nor a spreadsheet.
const UnsupportedFileDDL = "-- Unable to create table definition - file is not a csv or xlsx"

func GenCreateTableDDL(table TableName, columns []TableCol) string {
	columnRows := make([]string, 0, len(columns))
	for _, column := range columns {
		columnRows = append(columnRows, fmt.Sprintf("    %s", GetRedshiftColumnString(column)))
	}

	sql := []string{}
	sql = append(sql, fmt.Sprintf(`CREATE TABLE %s (`, table))
	sql = append(sql, strings.Join(columnRows, ",\n"))
	sql = append(sql, ")")
	return strings.Join(sql, "\n")
}
