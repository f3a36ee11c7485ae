package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	minColWidth = 10.0
	maxColWidth = 60.0
)

// WriteXLSX serializes the projection as a single-sheet spreadsheet named
// for the dataset. Column widths are sized to the longest value in each
// column, capped at maxColWidth. An empty projection returns ErrNoData and
// writes nothing.
func WriteXLSX(w io.Writer, p Projection) error {
	if p.Empty() {
		return ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(p.Name)
	f.SetSheetName(f.GetSheetName(0), sheet)

	widths := make([]int, len(p.Headers))
	for i, h := range p.Headers {
		axis, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell %d: %w", i, err)
		}
		if err := f.SetCellValue(sheet, axis, h); err != nil {
			return fmt.Errorf("set header %q: %w", h, err)
		}
		widths[i] = len(h)
	}

	for rowIdx, rec := range p.Records {
		for colIdx, h := range p.Headers {
			text := cell(rec, h)
			if text == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("cell %d,%d: %w", colIdx, rowIdx, err)
			}
			if err := f.SetCellValue(sheet, axis, text); err != nil {
				return fmt.Errorf("set cell %s: %w", axis, err)
			}
			if len(text) > widths[colIdx] {
				widths[colIdx] = len(text)
			}
		}
	}

	for i := range p.Headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
		width := float64(widths[i]) + 2
		if width < minColWidth {
			width = minColWidth
		}
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("set width %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetName trims the dataset name to Excel's 31-character sheet limit.
func sheetName(name string) string {
	if name == "" {
		name = "facts"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
