package tabular_test

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap-inc/dwloader/pkg/tabular"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, path string, rows [][]interface{}) {
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestKindOf(t *testing.T) {
	cases := map[string]tabular.Kind{
		"a.xlsx":         tabular.KindSpreadsheet,
		"/x/y/B.XLS":     tabular.KindSpreadsheet,
		"a.csv":          tabular.KindDelimited,
		"a.csv.gz":       tabular.KindDelimited,
		"a.txt":          tabular.KindUnknown,
		"a.gz":           tabular.KindUnknown,
		"noext":          tabular.KindUnknown,
		"dir.xlsx/a.csv": tabular.KindDelimited,
	}
	for path, kind := range cases {
		require.Equal(t, kind, tabular.KindOf(path), path)
	}
	require.Equal(t, "sales.csv", tabular.CSVName("/data/sales.xlsx"))
	require.Equal(t, "sales.csv", tabular.CSVName("/data/sales.xls"))
	require.Equal(t, "sales.csv.gz", tabular.CSVName("/data/sales.csv.gz"))
}

func TestNormalizeDelimitedIsUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("id\n1\n"), 0o644))

	res, err := tabular.Normalize(path, filepath.Join(dir, "scratch"))
	require.NoError(t, err)
	require.Equal(t, path, res.Path)
	require.False(t, res.Converted)
	_, err = os.Stat(filepath.Join(dir, "scratch"))
	require.True(t, os.IsNotExist(err))
}

func TestNormalizeSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sales.xlsx")
	writeXLSX(t, src, [][]interface{}{
		{"id", "name", "note"},
		{1, "a", "x, y"},
		{2, "b"},
	})
	scratch := filepath.Join(dir, "temp")

	res, err := tabular.Normalize(src, scratch)
	require.NoError(t, err)
	require.True(t, res.Converted)
	require.Equal(t, filepath.Join(scratch, "sales.csv"), res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, "id,name,note\n1,a,\"x, y\"\n2,b,\n", string(data))
}

func TestNormalizeCorruptSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("not a zip archive"), 0o644))

	_, err := tabular.Normalize(src, filepath.Join(dir, "temp"))
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindConversion))
}

func TestReadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("id,name\n1,a\n2\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	table, err := tabular.ReadTable(path)
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name"}, table.Header)
	require.Equal(t, 2, table.Width())
	require.Equal(t, []string{"1", "2"}, table.Column(0))
	require.Equal(t, []string{"a", ""}, table.Column(1))

	_, err = tabular.ReadTable(filepath.Join(dir, "t.parquet"))
	require.True(t, errs.IsKind(err, errs.KindSchema))
}
