package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName       = "Quotes"
	XLSXFilename    = "quotes_extracted.xlsx"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// column widths by header; anything not listed keeps the default.
var columnWidths = map[string]float64{
	"Company":   28,
	"Address":   28,
	"item_id":   20,
	"item_desc": 60,
	"PDF":       30,
}

// WriteXLSX renders records as a single-sheet workbook and returns its bytes.
// A nil cell is left blank.
func WriteXLSX(records []Record) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header %s: %w", h, err)
		}
		if w, ok := columnWidths[h]; ok {
			col, _ := excelize.ColumnNumberToName(i + 1)
			_ = f.SetColWidth(SheetName, col, col, w)
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, style)
	}

	for r, rec := range records {
		row := r + 2
		for c, v := range rec.Values() {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
