package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Report"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes a bold header row followed by the data rows.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName(f.GetSheetName(0), defaultSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for col, header := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(defaultSheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(defaultSheet, 1, 1, style); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, row := range data.Rows {
		for col, value := range project(data.Headers, row) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(defaultSheet, cell, value); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
