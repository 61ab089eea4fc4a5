package export

import (
	"fmt"
	"time"

	"github.com/sadopc/rotalog/internal/timesheet"
	"github.com/xuri/excelize/v2"
)

// SummaryReport is the aggregate report document: one zero-filled
// period × employee grid per granularity over a selected date range.
type SummaryReport struct {
	Title       string
	From, To    time.Time
	GeneratedAt time.Time
	Daily       timesheet.Grid
	Weekly      timesheet.Grid
	Monthly     timesheet.Grid
}

// ToXLSX writes the summary report as a workbook with one sheet per
// granularity.
func ToXLSX(rep SummaryReport, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name string
		grid timesheet.Grid
	}{
		{"Daily", rep.Daily},
		{"Weekly", rep.Weekly},
		{"Monthly", rep.Monthly},
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return fmt.Errorf("new sheet %s: %w", sheet.name, err)
			}
		}
		if err := writeGrid(f, sheet.name, rep, sheet.grid); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeGrid(f *excelize.File, sheet string, rep SummaryReport, grid timesheet.Grid) error {
	set := func(colIdx, rowIdx int, value any) error {
		cell, err := excelize.CoordinatesToCellName(colIdx, rowIdx)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, value)
	}

	title := fmt.Sprintf("%s — Timesheet Summary (%s totals)", rep.Title, sheet)
	if err := set(1, 1, title); err != nil {
		return err
	}
	period := fmt.Sprintf("Period: %s to %s", rep.From.Format(dateFormat), rep.To.Format(dateFormat))
	if err := set(1, 2, period); err != nil {
		return err
	}

	const headerRow = 4
	if err := set(1, headerRow, "Period"); err != nil {
		return err
	}
	for c, employee := range grid.Employees {
		if err := set(c+2, headerRow, employee); err != nil {
			return err
		}
	}
	for r, periodStart := range grid.Periods {
		if err := set(1, headerRow+1+r, periodStart.Format(dateFormat)); err != nil {
			return err
		}
		for c := range grid.Employees {
			if err := set(c+2, headerRow+1+r, grid.Cells[r][c].InexactFloat64()); err != nil {
				return err
			}
		}
	}

	generated := fmt.Sprintf("Generated on: %s", rep.GeneratedAt.Format("2006-01-02 15:04"))
	return set(1, headerRow+len(grid.Periods)+2, generated)
}
