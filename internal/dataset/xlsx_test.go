package dataset

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildXLSX writes a minimal workbook with the given sheet XML parts.
func buildXLSX(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

const testWorkbookXML = `<?xml version="1.0"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
          xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets>
    <sheet name="Expenses" sheetId="1" r:id="rId1"/>
    <sheet name="Notes" sheetId="2" r:id="rId2"/>
  </sheets>
</workbook>`

const testWorkbookRels = `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet2.xml"/>
</Relationships>`

const testSharedStrings = `<?xml version="1.0"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="3" uniqueCount="3">
  <si><t>DEPT</t></si>
  <si><t>AMOUNT</t></si>
  <si><t>IT</t></si>
</sst>`

const testSheet1 = `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1">
      <c r="A1" t="s"><v>0</v></c>
      <c r="B1" t="s"><v>1</v></c>
    </row>
    <row r="2">
      <c r="A2" t="s"><v>2</v></c>
      <c r="B2"><v>1250.5</v></c>
    </row>
    <row r="3">
      <c r="A3" t="inlineStr"><is><t>HR</t></is></c>
      <c r="B3"><v>300</v></c>
    </row>
  </sheetData>
</worksheet>`

const testSheet2 = `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1"><c r="A1" t="inlineStr"><is><t>NOTE</t></is></c></row>
    <row r="2"><c r="A2" t="inlineStr"><is><t>draft</t></is></c></row>
  </sheetData>
</worksheet>`

func testWorkbookParts() map[string]string {
	return map[string]string{
		"xl/workbook.xml":            testWorkbookXML,
		"xl/_rels/workbook.xml.rels": testWorkbookRels,
		"xl/sharedStrings.xml":       testSharedStrings,
		"xl/worksheets/sheet1.xml":   testSheet1,
		"xl/worksheets/sheet2.xml":   testSheet2,
	}
}

func TestLoadXLSXFirstSheet(t *testing.T) {
	path := buildXLSX(t, testWorkbookParts())

	tab, err := LoadXLSX(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"DEPT", "AMOUNT"}, tab.Columns)
	require.Equal(t, 2, tab.Len())
	assert.Equal(t, "IT", tab.Cell(0, 0))
	assert.Equal(t, "1250.5", tab.Cell(0, 1))
	assert.Equal(t, "HR", tab.Cell(1, 0))
}

func TestLoadXLSXBySheetName(t *testing.T) {
	path := buildXLSX(t, testWorkbookParts())

	tab, err := LoadXLSX(path, LoadOptions{SheetName: "notes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"NOTE"}, tab.Columns)
	assert.Equal(t, 1, tab.Len())
}

func TestLoadXLSXUnknownSheet(t *testing.T) {
	path := buildXLSX(t, testWorkbookParts())

	_, err := LoadXLSX(path, LoadOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expenses")
}

func TestLoadFileDispatchesByExtension(t *testing.T) {
	xlsx := buildXLSX(t, testWorkbookParts())
	tab, err := LoadFile(xlsx, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"DEPT", "AMOUNT"}, tab.Columns)

	csvPath := writeTemp(t, "plain.csv", "A,B\n1,2\n")
	tab, err = LoadFile(csvPath, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tab.Columns)
}
