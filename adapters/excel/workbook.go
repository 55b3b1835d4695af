package excel

import (
	"fmt"
	"io"
	"math"

	"suitecompare/internal/artifact"
	"suitecompare/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Number formats applied to float columns. Cells always hold the full
// float64 value; only the display is rounded.
const (
	FormatDecimal = "0.0000"
	FormatPValue  = "0.000000"
	FormatInteger = "0"
)

// Column describes one column of a sheet written by Workbook
type Column struct {
	Header string
	// Format is an Excel number format for numeric cells; empty means General.
	Format string
	Width  float64
}

// Workbook accumulates sheets and saves them as one .xlsx artifact
type Workbook struct {
	file   *excelize.File
	header int
	styles map[string]int
	sheets int
}

// NewWorkbook creates an empty workbook
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	if err != nil {
		_ = f.Close()
		return nil, errors.WithCode(errors.CodeWrite, fmt.Errorf("create header style: %w", err))
	}
	return &Workbook{file: f, header: header, styles: make(map[string]int)}, nil
}

// AddSheet writes a sheet with a bold header row followed by rows. Row
// values may be string, int, float64, bool or nil; NaN is written as an
// empty cell and infinities as text.
func (wb *Workbook) AddSheet(name string, columns []Column, rows [][]any) error {
	if err := wb.newSheet(name); err != nil {
		return err
	}
	f := wb.file

	for c, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(name, cell, col.Header); err != nil {
			return errors.WithCode(errors.CodeWrite, err)
		}
		colName, _ := excelize.ColumnNumberToName(c + 1)
		width := col.Width
		if width == 0 {
			width = math.Max(12, float64(len(col.Header))+2)
		}
		if err := f.SetColWidth(name, colName, colName, width); err != nil {
			return errors.WithCode(errors.CodeWrite, err)
		}
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(name, "A1", last, wb.header); err != nil {
			return errors.WithCode(errors.CodeWrite, err)
		}
	}

	for r, row := range rows {
		rowIdx := r + 2
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err := wb.setValue(name, cell, v); err != nil {
				return err
			}
		}
	}

	for c, col := range columns {
		if col.Format == "" || len(rows) == 0 {
			continue
		}
		style, err := wb.numberStyle(col.Format)
		if err != nil {
			return err
		}
		top, _ := excelize.CoordinatesToCellName(c+1, 2)
		bottom, _ := excelize.CoordinatesToCellName(c+1, len(rows)+1)
		if err := f.SetCellStyle(name, top, bottom, style); err != nil {
			return errors.WithCode(errors.CodeWrite, err)
		}
	}

	if err := f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return errors.WithCode(errors.CodeWrite, err)
	}
	return nil
}

func (wb *Workbook) newSheet(name string) error {
	if wb.sheets == 0 {
		// Reuse the default sheet so the workbook starts with ours
		if err := wb.file.SetSheetName(wb.file.GetSheetName(0), name); err != nil {
			return errors.WithCode(errors.CodeWrite, err)
		}
	} else {
		if idx, _ := wb.file.GetSheetIndex(name); idx != -1 {
			return errors.Newf(errors.CodeWrite, "duplicate sheet %q", name)
		}
		if _, err := wb.file.NewSheet(name); err != nil {
			return errors.WithCode(errors.CodeWrite, err)
		}
	}
	wb.sheets++
	return nil
}

func (wb *Workbook) setValue(sheet, cell string, v any) error {
	var err error
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		switch {
		case math.IsNaN(x):
			return nil
		case math.IsInf(x, 1):
			err = wb.file.SetCellStr(sheet, cell, "inf")
		case math.IsInf(x, -1):
			err = wb.file.SetCellStr(sheet, cell, "-inf")
		default:
			err = wb.file.SetCellFloat(sheet, cell, x, -1, 64)
		}
	case *float64:
		if x == nil {
			return nil
		}
		return wb.setValue(sheet, cell, *x)
	default:
		err = wb.file.SetCellValue(sheet, cell, v)
	}
	if err != nil {
		return errors.WithCode(errors.CodeWrite, err)
	}
	return nil
}

func (wb *Workbook) numberStyle(format string) (int, error) {
	if id, ok := wb.styles[format]; ok {
		return id, nil
	}
	fmtCopy := format
	id, err := wb.file.NewStyle(&excelize.Style{CustomNumFmt: &fmtCopy})
	if err != nil {
		return 0, errors.WithCode(errors.CodeWrite, fmt.Errorf("create number style %q: %w", format, err))
	}
	wb.styles[format] = id
	return id, nil
}

// SheetCount is the number of sheets added so far
func (wb *Workbook) SheetCount() int { return wb.sheets }

// Save writes the workbook to path atomically and releases it
func (wb *Workbook) Save(path string) error {
	defer wb.file.Close()
	if wb.sheets == 0 {
		return errors.Write(path, fmt.Errorf("workbook has no sheets"))
	}
	wb.file.SetActiveSheet(0)
	return artifact.WriteFile(path, func(w io.Writer) error {
		_, err := wb.file.WriteTo(w)
		return err
	})
}

// Close releases a workbook that will not be saved
func (wb *Workbook) Close() error {
	return wb.file.Close()
}
