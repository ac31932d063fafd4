package spreadsheet

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is an upload file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from a file name
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFormat
}

// Row is one data row keyed by normalized header name
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// GetOrDefault returns the value for a column, or def if empty
func (r *Row) GetOrDefault(header, def string) string {
	if val := r.Data[header]; val != "" {
		return val
	}
	return def
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Table is a parsed upload
type Table struct {
	Headers []string
	Rows    []*Row
}

// HasHeader checks if a header exists
func (t *Table) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// MissingHeaders returns the required headers the table lacks
func (t *Table) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !t.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// HeadersWithPrefix returns headers starting with prefix, in file order
func (t *Table) HeadersWithPrefix(prefix string) []string {
	var out []string
	for _, h := range t.Headers {
		if strings.HasPrefix(h, prefix) {
			out = append(out, h)
		}
	}
	return out
}

// ReadTable parses an upload in the given format
func ReadTable(r io.Reader, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		parser, err := NewCSVParser(r)
		if err != nil {
			return nil, err
		}
		return parser.ReadTable()
	case FormatXLSX:
		return readXLSX(r)
	}
	return nil, ErrUnsupportedFormat
}

// readXLSX reads the first worksheet. Cell values are read raw so that date
// cells arrive as serial numbers and are decoded by ParseDate.
func readXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headers := normalizeHeaders(records[0])
	if len(headers) == 0 {
		return nil, ErrMissingHeader
	}
	table := &Table{Headers: headers}
	for i, record := range records[1:] {
		row := newRow(i+2, headers, record)
		if row.IsEmpty() {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func newRow(line int, headers, record []string) *Row {
	row := &Row{LineNumber: line, Data: make(map[string]string, len(headers))}
	for i, header := range headers {
		if header == "" {
			continue
		}
		if i < len(record) {
			row.Data[header] = strings.TrimSpace(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row
}

// normalizeHeaders lower-cases header names and drops trailing blank headers.
// A "stock:<code>" header keeps its warehouse code upper-cased.
func normalizeHeaders(record []string) []string {
	headers := make([]string, len(record))
	last := -1
	for i, h := range record {
		h = strings.TrimSpace(h)
		if code, ok := strings.CutPrefix(strings.ToLower(h), StockColumnPrefix); ok {
			h = StockColumnPrefix + strings.ToUpper(strings.TrimSpace(code))
		} else {
			h = strings.ToLower(h)
		}
		headers[i] = h
		if h != "" {
			last = i
		}
	}
	return headers[:last+1]
}

// StockColumnPrefix marks a per-warehouse stock column, e.g. "stock:GA"
const StockColumnPrefix = "stock:"
