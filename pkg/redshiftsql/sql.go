package redshiftsql

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/pingcap-inc/dwloader/pkg/utils"
	"github.com/pingcap/errors"
	"gitlab.com/tymonx/go-formatter/formatter"
)

const (
	tableExistsQuery = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2`

	maskedSecret = "******"
)

// GenCopyStatement renders the COPY that bulk loads a csv object into table.
// A gzip clause is added when the object name ends in ".gz".
func GenCopyStatement(table TableName, objectURI string, credential credentials.Value) (string, error) {
	compression := ""
	if strings.HasSuffix(strings.ToLower(objectURI), ".gz") {
		compression = "\nGZIP"
	}
	sql, err := formatter.Format(`COPY {targetTable}
FROM '{storageUri}'
CREDENTIALS '{credentials}'
CSV QUOTE AS '"'
DELIMITER ','
IGNOREHEADER 1
TRUNCATECOLUMNS
ACCEPTINVCHARS
MAXERROR 500
DATEFORMAT 'auto'
TIMEFORMAT 'auto'{compression};
COMMIT;`, formatter.Named{
		"targetTable": table.String(),
		"storageUri":  utils.EscapeString(objectURI),
		"credentials": utils.EscapeString(credentialsClause(credential)),
		"compression": compression,
	})
	if err != nil {
		return "", errors.Trace(err)
	}
	return sql, nil
}

func credentialsClause(credential credentials.Value) string {
	clause := "aws_access_key_id=" + credential.AccessKeyID + ";aws_secret_access_key=" + credential.SecretAccessKey
	if credential.SessionToken != "" {
		clause += ";token=" + credential.SessionToken
	}
	return clause
}

// MaskCredentials hides the secret parts of credential in a statement before
// it is logged or reported.
func MaskCredentials(sql string, credential credentials.Value) string {
	for _, secret := range []string{credential.SecretAccessKey, credential.SessionToken} {
		if secret == "" {
			continue
		}
		sql = strings.ReplaceAll(sql, utils.EscapeString(secret), maskedSecret)
	}
	return sql
}
