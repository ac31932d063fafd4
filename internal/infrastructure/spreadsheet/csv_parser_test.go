package spreadsheet

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFsku,quantity\nA-1,3"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		assert.Equal(t, []string{"sku", "quantity"}, parser.Headers())
	})

	t.Run("empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(""))

		assert.Nil(t, parser)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding is rejected", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("sku\n\xff\xfe"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("sku;quantity\nA-1;3"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		assert.Equal(t, []string{"sku", "quantity"}, parser.Headers())
	})
}

func TestCSVParser_ReadRow(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("SKU , Quantity,Notes\n A-1 ,3\nB-2,4,late"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())
	assert.Equal(t, []string{"sku", "quantity", "notes"}, parser.Headers())

	row, err := parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 2, row.LineNumber)
	assert.Equal(t, "A-1", row.Get("sku"))
	assert.Equal(t, "", row.Get("notes"), "short rows are padded")

	row, err = parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 3, row.LineNumber)
	assert.Equal(t, "late", row.Get("notes"))

	_, err = parser.ReadRow()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCSVParser_ReadTable(t *testing.T) {
	t.Run("skips empty rows", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("sku,quantity\nA-1,3\n,\nB-2,4\n"))
		require.NoError(t, err)

		table, err := parser.ReadTable()
		require.NoError(t, err)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, 4, table.Rows[1].LineNumber)
	})

	t.Run("header only", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("sku,quantity\n"))
		require.NoError(t, err)

		table, err := parser.ReadTable()
		require.NoError(t, err)
		assert.Empty(t, table.Rows)
	})
}
