package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// BreakRules holds the auto-break policy: when a shift's gross
// duration reaches ThresholdHours, MinutesIfOver minutes of unpaid
// break are deducted.
type BreakRules struct {
	ThresholdHours float64
	MinutesIfOver  int
}

// ShiftTotals is the derived side of a shift record.
type ShiftTotals struct {
	FinishDate   time.Time // day the shift actually ends; day+1 for overnight shifts
	GrossSeconds int
	BreakMinutes int
	HoursWorked  decimal.Decimal // 2 dp, rounded half away from zero
}

// ComputeShift derives break minutes and net worked hours from a
// start/finish pair on day. A finish time-of-day earlier than the
// start means the shift ran past midnight and finishes on the next
// calendar day; the record stays attributed to day.
//
// prevBreak carries the stored break value when recomputing an
// existing record: if the new gross duration no longer reaches the
// threshold, the prior break is kept rather than reset to zero. Pass
// nil when creating a record, which zeroes the break below threshold.
//
// Inputs are assumed validated by the caller; the function is pure.
func ComputeShift(day time.Time, start, finish Clock, rules BreakRules, prevBreak *int) ShiftTotals {
	grossMinutes := int(finish) - int(start)
	finishDate := day
	if finish < start {
		grossMinutes += 24 * 60
		finishDate = day.AddDate(0, 0, 1)
	}
	grossSeconds := grossMinutes * 60

	breakMinutes := 0
	if float64(grossSeconds)/3600 >= rules.ThresholdHours {
		breakMinutes = rules.MinutesIfOver
	} else if prevBreak != nil {
		breakMinutes = *prevBreak
	}

	netSeconds := grossSeconds - breakMinutes*60
	if netSeconds < 0 {
		netSeconds = 0
	}
	hours := decimal.NewFromInt(int64(netSeconds)).
		Div(decimal.NewFromInt(3600)).
		Round(2)

	return ShiftTotals{
		FinishDate:   finishDate,
		GrossSeconds: grossSeconds,
		BreakMinutes: breakMinutes,
		HoursWorked:  hours,
	}
}
