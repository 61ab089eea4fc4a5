package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sadopc/rotalog/internal/store"
)

// csvHeader is the persisted ledger column layout. Import requires at
// least these columns; export always writes exactly these.
var csvHeader = []string{
	"WeekStart", "Date", "Employee", "StartTime", "FinishTime",
	"BreakMinutes", "HoursWorked", "Notes",
}

const dateFormat = "2006-01-02"

// ToCSV writes records to path in the ledger column layout. The file
// is written to a temp sibling and renamed into place so a failed
// write never leaves a truncated file behind.
func ToCSV(records []store.ShiftRecord, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".rotalog-*.csv")
	if err != nil {
		return fmt.Errorf("create temp csv: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range records {
		row := []string{
			r.WeekStart.Format(dateFormat),
			r.Date.Format(dateFormat),
			r.Employee,
			r.Start.String(),
			r.Finish.String(),
			fmt.Sprintf("%d", r.BreakMinutes),
			r.HoursWorked.StringFixed(2),
			r.Notes,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp csv: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename csv into place: %w", err)
	}
	return nil
}
