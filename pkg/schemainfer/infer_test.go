package schemainfer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap-inc/dwloader/pkg/redshiftsql"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInferSchemaFromCSV(t *testing.T) {
	path := writeFile(t, "sales.csv", "id,name\n1,a\n2,b\n3,c\n")

	ddl, err := InferSchema(path, "analytics.sales")
	require.NoError(t, err)
	require.Equal(t, "CREATE TABLE \"analytics\".sales (\n    \"id\" BIGINT,\n    \"name\" TEXT\n)", ddl)

	firstLine := strings.SplitN(ddl, "\n", 2)[0]
	require.Equal(t, 1, strings.Count(firstLine, "."))
	require.NotContains(t, firstLine, `""`)
}

func TestInferSchemaFromSpreadsheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"id", "price", "sold_on"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{1, 9.5, "2024-01-02"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{2, 3, "2024-02-03"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	draft, err := InferDraft(path, "analytics.sales")
	require.NoError(t, err)
	require.Equal(t, redshiftsql.TableName{Schema: "analytics", Table: "sales"}, draft.Table)
	require.Equal(t, []redshiftsql.TableCol{
		{Name: "id", Tp: redshiftsql.TypeBigInt},
		{Name: "price", Tp: redshiftsql.TypeDouble},
		{Name: "sold_on", Tp: redshiftsql.TypeDate},
	}, draft.Columns)
}

func TestInferSchemaUnsupportedFile(t *testing.T) {
	path := writeFile(t, "notes.txt", "id,name\n1,a\n")

	ddl, err := InferSchema(path, "analytics.sales")
	require.NoError(t, err)
	require.Equal(t, redshiftsql.UnsupportedFileDDL, ddl)
	require.True(t, strings.HasPrefix(ddl, "--"))
	require.NotContains(t, ddl, "\n")
}

func TestInferSchemaErrors(t *testing.T) {
	_, err := InferSchema(filepath.Join(t.TempDir(), "missing.csv"), "analytics.sales")
	require.True(t, errs.IsKind(err, errs.KindSchema))

	path := writeFile(t, "empty.csv", "")
	_, err = InferSchema(path, "analytics.sales")
	require.True(t, errs.IsKind(err, errs.KindSchema))

	path = writeFile(t, "ok.csv", "id\n1\n")
	_, err = InferSchema(path, " ")
	require.True(t, errs.IsKind(err, errs.KindSchema))
}

func TestInferType(t *testing.T) {
	cases := []struct {
		values []string
		tp     string
	}{
		{[]string{"1", "-2", ""}, redshiftsql.TypeBigInt},
		{[]string{"1", "2.5"}, redshiftsql.TypeDouble},
		{[]string{"1e3", "0.1"}, redshiftsql.TypeDouble},
		{[]string{"True", "false"}, redshiftsql.TypeBoolean},
		{[]string{"2024-01-02", "2023-12-31"}, redshiftsql.TypeDate},
		{[]string{"2024-01-02 10:00:00", "2024-01-02"}, redshiftsql.TypeTimestamp},
		{[]string{"1", "a"}, redshiftsql.TypeText},
		{[]string{"NaN", "Inf"}, redshiftsql.TypeText},
		{[]string{"", " "}, redshiftsql.TypeText},
		{nil, redshiftsql.TypeText},
		{[]string{strings.Repeat("x", 300)}, redshiftsql.TypeLongText},
	}
	for _, c := range cases {
		require.Equal(t, c.tp, inferType(c.values), "%v", c.values)
	}
}

func TestColumnNames(t *testing.T) {
	require.Equal(t,
		[]string{"id", "unnamed_1", "id_1", "name", "id_2"},
		columnNames([]string{" id ", "", "id", "name", "id"}))
}
