package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type of an XLSX workbook
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook builds an XLSX export one sheet at a time
type Workbook struct {
	file        *excelize.File
	headerStyle int
	rows        map[string]int
	first       bool
}

// NewWorkbook creates an empty workbook
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	return &Workbook{file: f, headerStyle: style, rows: make(map[string]int), first: true}, nil
}

// AddSheet adds a sheet with a bold, frozen header row. The first sheet
// replaces the default one.
func (w *Workbook) AddSheet(name string, headers []string, width float64) error {
	if w.first {
		if err := w.file.SetSheetName(w.file.GetSheetName(0), name); err != nil {
			return err
		}
		w.first = false
	} else if _, err := w.file.NewSheet(name); err != nil {
		return err
	}

	if err := w.file.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}
	if err := w.file.SetRowStyle(name, 1, 1, w.headerStyle); err != nil {
		return err
	}
	if len(headers) > 0 && width > 0 {
		last, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return err
		}
		if err := w.file.SetColWidth(name, "A", last, width); err != nil {
			return err
		}
	}
	if err := w.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	w.rows[name] = 1
	return nil
}

// AppendRow writes the next data row of a sheet
func (w *Workbook) AppendRow(sheet string, values ...any) error {
	next, ok := w.rows[sheet]
	if !ok {
		return fmt.Errorf("sheet %q not added", sheet)
	}
	next++
	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(sheet, cell, &values); err != nil {
		return err
	}
	w.rows[sheet] = next
	return nil
}

// WriteTo writes the workbook as XLSX
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return 0, err
	}
	return buf.WriteTo(out)
}

// Close releases the workbook
func (w *Workbook) Close() error {
	return w.file.Close()
}
