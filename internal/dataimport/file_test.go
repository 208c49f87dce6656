package dataimport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSVUsesHeaderAndFirstRow(t *testing.T) {
	ds, err := Read(strings.NewReader("name,city\nAlice,Paris\nBob,Rome\n"), "people.csv")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, ds.Format)
	require.Equal(t, []string{"name", "city"}, ds.Fields)
	require.Len(t, ds.Records, 2)

	v, ok := ds.Lookup("city")
	require.True(t, ok)
	require.Equal(t, "Paris", v)
	_, ok = ds.Lookup("age")
	require.False(t, ok)
	require.Len(t, ds.Preview(1), 1)
}

func TestReadJSONObjectAndList(t *testing.T) {
	ds, err := Read(strings.NewReader(`{"title": "Guide", "meta": {"author": "Ann"}}`), "doc.json")
	require.NoError(t, err)
	require.Equal(t, []string{"meta", "title"}, ds.Fields)
	v, ok := ds.Lookup("meta.author")
	require.True(t, ok)
	require.Equal(t, "Ann", v)

	ds, err = Read(strings.NewReader(`[{"sku": "A1", "price": 9.5}, {"sku": "B2"}]`), "items.json")
	require.NoError(t, err)
	require.Equal(t, []string{"price", "sku"}, ds.Fields)
	v, ok = ds.Lookup("sku")
	require.True(t, ok)
	require.Equal(t, "A1", v)
}

func TestReadTextExposesFullText(t *testing.T) {
	ds, err := Read(strings.NewReader("line one\nline two"), "notes.txt")
	require.NoError(t, err)
	require.Equal(t, []string{FullTextField}, ds.Fields)
	v, ok := ds.Lookup(FullTextField)
	require.True(t, ok)
	require.Equal(t, "line one\nline two", v)
	_, ok = ds.Lookup("other")
	require.False(t, ok)
}

func TestReadXLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "product"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "stock"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Widget"))
	require.NoError(t, f.SetCellValue(sheet, "B2", 12))

	path := filepath.Join(t.TempDir(), "inventory.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, ds.Format)
	require.Equal(t, []string{"product", "stock"}, ds.Fields)
	v, ok := ds.Lookup("stock")
	require.True(t, ok)
	require.Equal(t, "12", v)
}

func TestUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89}, 0644))
	_, err := LoadFile(path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLegacyExcelIsRejected(t *testing.T) {
	_, err := Read(strings.NewReader("not ooxml"), "report.xls")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	require.Contains(t, err.Error(), ".xlsx")

	format, err := FormatFromName("macro.XLSM")
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, format)
}
