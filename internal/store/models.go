package store

import (
	"time"

	"github.com/sadopc/rotalog/internal/timesheet"
	"github.com/shopspring/decimal"
)

// ShiftRecord is one worked shift for one employee on one date.
// (Date, Employee, Start, Finish) is the ledger's uniqueness key.
type ShiftRecord struct {
	ID           int64
	WeekStart    time.Time // Monday the entry is reported under; a grouping hint, not derived from Date
	Date         time.Time
	Employee     string
	Start        timesheet.Clock
	Finish       timesheet.Clock
	BreakMinutes int
	HoursWorked  decimal.Decimal // net hours, 2 dp
	Notes        string
	CreatedAt    time.Time
}

type Employee struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Setting struct {
	Key   string
	Value string
}

// ShiftFilter narrows ListShifts. Zero value lists everything.
type ShiftFilter struct {
	Employee string
	From     *time.Time
	To       *time.Time // inclusive
	Search   string     // case-insensitive match on employee, date, or notes
	Limit    int
}
