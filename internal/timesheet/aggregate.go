package timesheet

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Granularity selects the aggregation period unit.
type Granularity int

const (
	Daily Granularity = iota
	Weekly
	Monthly
)

func (g Granularity) String() string {
	switch g {
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return "daily"
	}
}

// Entry is the minimal slice of a shift record the aggregation engine
// needs. Callers map their records into entries.
type Entry struct {
	Date     time.Time
	Employee string
	Hours    decimal.Decimal
}

// PeriodTotal is the summed hours for one employee in one period.
type PeriodTotal struct {
	PeriodStart time.Time
	Employee    string
	Hours       decimal.Decimal
}

// PeriodStart returns the canonical start of the period containing
// date: the date itself, the Monday of its week, or the first of its
// calendar month.
func PeriodStart(g Granularity, date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case Weekly:
		weekday := d.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		return d.AddDate(0, 0, -int(weekday-time.Monday))
	case Monthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// NextPeriod advances a period start to the following period.
func NextPeriod(g Granularity, start time.Time) time.Time {
	switch g {
	case Weekly:
		return start.AddDate(0, 0, 7)
	case Monthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Aggregate filters entries to dates in [from, to] inclusive, groups
// them by period start and employee, and sums hours per group.
// Employees with no entries in a period are absent from the result;
// Pivot zero-fills for presentation. Totals are sorted by period then
// employee.
func Aggregate(entries []Entry, from, to time.Time, g Granularity) ([]PeriodTotal, error) {
	if from.After(to) {
		return nil, fmt.Errorf("aggregate: from %s after to %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	type groupKey struct {
		period   time.Time
		employee string
	}
	sums := make(map[groupKey]decimal.Decimal)
	for _, e := range entries {
		d := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(from) || d.After(to) {
			continue
		}
		k := groupKey{period: PeriodStart(g, d), employee: e.Employee}
		sums[k] = sums[k].Add(e.Hours)
	}

	totals := make([]PeriodTotal, 0, len(sums))
	for k, h := range sums {
		totals = append(totals, PeriodTotal{PeriodStart: k.period, Employee: k.employee, Hours: h})
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].PeriodStart.Equal(totals[j].PeriodStart) {
			return totals[i].PeriodStart.Before(totals[j].PeriodStart)
		}
		return totals[i].Employee < totals[j].Employee
	})
	return totals, nil
}

// Grid is a zero-filled period × employee table of summed hours,
// ready for tabular or spreadsheet rendering.
type Grid struct {
	Periods   []time.Time
	Employees []string
	Cells     [][]decimal.Decimal // Cells[row][col] = Periods[row] × Employees[col]
}

// Pivot spreads totals into a Grid. Periods and employees appear in
// sorted order; combinations without data are zero.
func Pivot(totals []PeriodTotal) Grid {
	periodIdx := make(map[time.Time]int)
	employeeIdx := make(map[string]int)
	var g Grid

	for _, t := range totals {
		if _, ok := periodIdx[t.PeriodStart]; !ok {
			periodIdx[t.PeriodStart] = 0
			g.Periods = append(g.Periods, t.PeriodStart)
		}
		if _, ok := employeeIdx[t.Employee]; !ok {
			employeeIdx[t.Employee] = 0
			g.Employees = append(g.Employees, t.Employee)
		}
	}
	sort.Slice(g.Periods, func(i, j int) bool { return g.Periods[i].Before(g.Periods[j]) })
	sort.Strings(g.Employees)
	for i, p := range g.Periods {
		periodIdx[p] = i
	}
	for i, e := range g.Employees {
		employeeIdx[e] = i
	}

	g.Cells = make([][]decimal.Decimal, len(g.Periods))
	for i := range g.Cells {
		g.Cells[i] = make([]decimal.Decimal, len(g.Employees))
	}
	for _, t := range totals {
		g.Cells[periodIdx[t.PeriodStart]][employeeIdx[t.Employee]] = t.Hours
	}
	return g
}
