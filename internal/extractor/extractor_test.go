package extractor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParse_PlainText(t *testing.T) {
	e := New()

	text, tables, err := e.Parse([]byte("hello world"), "notes.txt")
	require.NoError(t, err)

	assert.Equal(t, "hello world", text)
	assert.Empty(t, tables)
}

func TestParse_UnknownExtensionTreatedAsText(t *testing.T) {
	e := New()

	text, tables, err := e.Parse([]byte("raw bytes"), "dump.bin")
	require.NoError(t, err)

	assert.Equal(t, "raw bytes", text)
	assert.Empty(t, tables)
}

func TestParse_InvalidUTF8Replaced(t *testing.T) {
	e := New()

	text, _, err := e.Parse([]byte{0x68, 0x69, 0xff, 0xfe}, "notes.txt")
	require.NoError(t, err)

	assert.Contains(t, text, "hi")
	assert.NotContains(t, text, "\xff")
}

func TestParse_CSV(t *testing.T) {
	e := New()

	text, tables, err := e.Parse([]byte("name,limit\nacme,100\n"), "limits.csv")
	require.NoError(t, err)

	assert.Empty(t, text)
	require.Len(t, tables, 1)
	assert.Equal(t, "csv/0", tables[0].ID)
	assert.Equal(t, "limits", tables[0].Title)
	assert.Contains(t, tables[0].Delimited, "acme,100")
}

func TestParse_Workbook(t *testing.T) {
	book := excelize.NewFile()
	require.NoError(t, book.SetSheetRow("Sheet1", "A1", &[]interface{}{"entity", "limit"}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A2", &[]interface{}{"acme", "100"}))
	_, err := book.NewSheet("Blank")

	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))

	e := New()
	text, tables, err := e.Parse(buf.Bytes(), "limits.xlsx")
	require.NoError(t, err)

	assert.Empty(t, text)
	require.Len(t, tables, 1)
	assert.Equal(t, "Sheet1", tables[0].Title)
	assert.Equal(t, "entity,limit\nacme,100", tables[0].Delimited)
}

func TestParse_CorruptWorkbookFallsBackToText(t *testing.T) {
	e := New()

	text, tables, err := e.Parse([]byte("not a zip archive"), "broken.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "not a zip archive", text)
	assert.Empty(t, tables)
}

func TestParse_CorruptPDFFallsBackToText(t *testing.T) {
	e := New()

	text, tables, err := e.Parse([]byte("not a pdf"), "broken.pdf")
	require.NoError(t, err)

	assert.Equal(t, "not a pdf", text)
	assert.Empty(t, tables)
}
