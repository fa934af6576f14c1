package redshiftsql

import (
	"fmt"
)

const (
	TypeBigInt    = "BIGINT"
	TypeDouble    = "DOUBLE PRECISION"
	TypeBoolean   = "BOOLEAN"
	TypeDate      = "DATE"
	TypeTimestamp = "TIMESTAMP"
	TypeText      = "TEXT"
	// TEXT is VARCHAR(256) in Redshift
	TypeLongText = "VARCHAR(MAX)"

	textMaxBytes = 256
)

type TableCol struct {
	Name string
	Tp   string
}

// TextType picks the text column type able to hold maxBytes bytes.
func TextType(maxBytes int) string {
	if maxBytes > textMaxBytes {
		return TypeLongText
	}
	return TypeText
}

func GetRedshiftColumnString(column TableCol) string {
	return fmt.Sprintf("%s %s", QuoteIdent(column.Name), column.Tp)
}
