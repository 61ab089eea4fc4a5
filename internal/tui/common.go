package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/rotalog/internal/auth"
	"github.com/sadopc/rotalog/internal/store"
	"github.com/sadopc/rotalog/internal/timesheet"
)

// viewState represents the currently active view.
type viewState int

const (
	viewLedger viewState = iota
	viewSummaries
	viewEmployees
	viewImport
	viewSettings
)

var viewNames = []string{"Timesheet", "Summaries", "Employees", "Import", "Settings"}

const dateFormat = "2006-01-02"

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

type importDoneMsg struct {
	added   int
	skipped int
}

type loggedInMsg struct{}

// --- Helpers ---

func errorStatus(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}

func infoStatus(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// writeGuard is the shared gate in front of every mutating operation.
func writeGuard(session *auth.Session) tea.Cmd {
	if session.CanWrite() {
		return nil
	}
	return errorStatus("Admin login required (press 5, then a)")
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(dateFormat, s)
}

func mondayOf(d time.Time) time.Time {
	return timesheet.PeriodStart(timesheet.Weekly, d)
}

// toEntries maps ledger records into the aggregation engine's input.
func toEntries(records []store.ShiftRecord) []timesheet.Entry {
	entries := make([]timesheet.Entry, len(records))
	for i, r := range records {
		entries[i] = timesheet.Entry{Date: r.Date, Employee: r.Employee, Hours: r.HoursWorked}
	}
	return entries
}
