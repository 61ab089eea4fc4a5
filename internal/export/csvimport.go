package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/rotalog/internal/store"
	"github.com/sadopc/rotalog/internal/timesheet"
	"github.com/shopspring/decimal"
)

// ErrMissingColumns means the uploaded file lacks required ledger
// columns. The import is aborted wholesale.
var ErrMissingColumns = errors.New("missing required columns")

// FromCSV parses an uploaded ledger file. The header row drives column
// mapping: extra columns are ignored, missing required ones fail with
// ErrMissingColumns, and any malformed row aborts the whole parse so a
// partial batch is never returned.
func FromCSV(path string) ([]store.ShiftRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]store.ShiftRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // header may be narrower than data rows

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range csvHeader {
		if name == "Notes" {
			continue // optional
		}
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var records []store.ShiftRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rec, err := parseRow(col, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(col map[string]int, row []string) (store.ShiftRecord, error) {
	var r store.ShiftRecord

	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var err error
	if r.Date, err = time.Parse(dateFormat, field("Date")); err != nil {
		return r, fmt.Errorf("bad Date %q", field("Date"))
	}
	r.Employee = field("Employee")
	if r.Employee == "" {
		return r, fmt.Errorf("empty Employee")
	}
	if r.Start, err = timesheet.ParseClock(field("StartTime")); err != nil {
		return r, fmt.Errorf("bad StartTime: %w", err)
	}
	if r.Finish, err = timesheet.ParseClock(field("FinishTime")); err != nil {
		return r, fmt.Errorf("bad FinishTime: %w", err)
	}
	if r.BreakMinutes, err = strconv.Atoi(field("BreakMinutes")); err != nil || r.BreakMinutes < 0 {
		return r, fmt.Errorf("bad BreakMinutes %q", field("BreakMinutes"))
	}
	if r.HoursWorked, err = decimal.NewFromString(field("HoursWorked")); err != nil || r.HoursWorked.IsNegative() {
		return r, fmt.Errorf("bad HoursWorked %q", field("HoursWorked"))
	}
	r.Notes = field("Notes")

	// WeekStart is a grouping hint; fall back to the Monday of Date
	// when the column is blank.
	if ws := field("WeekStart"); ws != "" {
		if r.WeekStart, err = time.Parse(dateFormat, ws); err != nil {
			return r, fmt.Errorf("bad WeekStart %q", ws)
		}
	} else {
		r.WeekStart = timesheet.PeriodStart(timesheet.Weekly, r.Date)
	}
	return r, nil
}
