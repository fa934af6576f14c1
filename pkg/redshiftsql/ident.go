package redshiftsql

import (
	"regexp"
	"strings"

	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap-inc/dwloader/pkg/utils"
)

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_$]*$`)

// QuoteIdent wraps name in double quotes, doubling any embedded quote.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// maybeQuoteIdent leaves plain lowercase identifiers bare. Quoting does not
// preserve case: Redshift folds every identifier, quoted or not, to lowercase
// unless enable_case_sensitive_identifier is set, and that setting is not
// supported here. CatalogName relies on the same rule.
func maybeQuoteIdent(name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	return QuoteIdent(name)
}

// TableName is a possibly schema-qualified Redshift table.
type TableName struct {
	Schema string
	Table  string
}

// ParseTableName splits name on its first dot. A name without a dot is a
// bare table name.
func ParseTableName(name string) TableName {
	name = strings.TrimSpace(name)
	schema, table := utils.SplitTableFQN(name)
	if schema == "" && table == "" {
		return TableName{Table: name}
	}
	return TableName{Schema: schema, Table: table}
}

// ParseQualifiedTableName is ParseTableName that also requires both parts.
func ParseQualifiedTableName(name string) (TableName, error) {
	tn := ParseTableName(name)
	if tn.Schema == "" || tn.Table == "" {
		return TableName{}, errs.Wrap(errs.KindSchema, "parse table name", errs.ErrMalformedTableName,
			errs.Newf(errs.KindSchema, "parse table name", "%q is not of the form schema.table", name))
	}
	return tn, nil
}

// String renders the identifier as it appears in DDL and COPY statements.
// The schema is always quoted, the table only when it is not a plain
// lowercase identifier. A bare table is quoted.
func (t TableName) String() string {
	switch {
	case t.Schema == "":
		return QuoteIdent(t.Table)
	case t.Table == "":
		return QuoteIdent(t.Schema)
	default:
		return QuoteIdent(t.Schema) + "." + maybeQuoteIdent(t.Table)
	}
}

// CatalogName returns the schema and table as the catalog stores them once
// Redshift has folded them to lowercase.
func (t TableName) CatalogName() (schema, table string) {
	return strings.ToLower(t.Schema), strings.ToLower(t.Table)
}
