package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/rotalog/internal/auth"
	"github.com/sadopc/rotalog/internal/store"
	"github.com/sadopc/rotalog/internal/timesheet"
)

// ledgerModel is the Timesheet view: the searchable entry list plus
// the add/edit forms.
type ledgerModel struct {
	store   *store.Store
	session *auth.Session
	width   int
	height  int

	shifts    []store.ShiftRecord
	employees []store.Employee
	cursor    int
	search    string

	formActive bool
	form       *huh.Form
	formType   string // "add", "edit", "search"

	// Form field pointers (survive value copies)
	formWeekStart *string
	formDate      *string
	formEmployee  *string
	formStart     *string
	formFinish    *string
	formNotes     *string
	formSearch    *string

	editingID int64
}

func newLedgerModel(s *store.Store, session *auth.Session) ledgerModel {
	ws, date, emp, start, finish, notes, search := "", "", "", "", "", "", ""
	return ledgerModel{
		store:         s,
		session:       session,
		formWeekStart: &ws,
		formDate:      &date,
		formEmployee:  &emp,
		formStart:     &start,
		formFinish:    &finish,
		formNotes:     &notes,
		formSearch:    &search,
	}
}

func (m *ledgerModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type ledgerDataMsg struct {
	shifts    []store.ShiftRecord
	employees []store.Employee
}

func (m ledgerModel) refresh() tea.Cmd {
	search := m.search
	return func() tea.Msg {
		shifts, _ := m.store.ListShifts(store.ShiftFilter{Search: search})
		employees, _ := m.store.ListEmployees()
		return ledgerDataMsg{shifts: shifts, employees: employees}
	}
}

func (m ledgerModel) update(msg tea.Msg) (ledgerModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case ledgerDataMsg:
		m.shifts = msg.shifts
		m.employees = msg.employees
		if m.cursor >= len(m.shifts) {
			m.cursor = max(0, len(m.shifts)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.shifts)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			if cmd := writeGuard(m.session); cmd != nil {
				return m, cmd
			}
			if len(m.employees) == 0 {
				return m, errorStatus("No employees yet. Press 3 to add one first.")
			}
			return m.showAddForm()
		case key.Matches(msg, keys.Edit):
			if cmd := writeGuard(m.session); cmd != nil {
				return m, cmd
			}
			if len(m.shifts) > 0 {
				return m.showEditForm(m.shifts[m.cursor])
			}
		case key.Matches(msg, keys.Delete):
			if cmd := writeGuard(m.session); cmd != nil {
				return m, cmd
			}
			if len(m.shifts) > 0 {
				return m.deleteShift(m.shifts[m.cursor])
			}
		case key.Matches(msg, keys.Dedup):
			if cmd := writeGuard(m.session); cmd != nil {
				return m, cmd
			}
			return m.runDedup()
		case key.Matches(msg, keys.Search):
			return m.showSearchForm()
		case key.Matches(msg, keys.Back):
			if m.search != "" {
				m.search = ""
				return m, m.refresh()
			}
		}
	}
	return m, nil
}

func (m ledgerModel) deleteShift(r store.ShiftRecord) (ledgerModel, tea.Cmd) {
	if err := m.store.DeleteShift(r.ID); err != nil {
		return m, errorStatus(fmt.Sprintf("Delete error: %v", err))
	}
	return m, tea.Batch(
		infoStatus(fmt.Sprintf("Deleted entry for %s on %s", r.Employee, r.Date.Format(dateFormat))),
		m.refresh(),
	)
}

func (m ledgerModel) runDedup() (ledgerModel, tea.Cmd) {
	removed, err := m.store.Deduplicate()
	if err != nil {
		return m, errorStatus(fmt.Sprintf("Dedup error: %v", err))
	}
	return m, tea.Batch(
		infoStatus(fmt.Sprintf("Removed %d duplicate entries", removed)),
		m.refresh(),
	)
}

func (m ledgerModel) showAddForm() (ledgerModel, tea.Cmd) {
	today := time.Now().Format(dateFormat)
	*m.formDate = today
	*m.formWeekStart = mondayOf(time.Now()).Format(dateFormat)
	*m.formEmployee = m.employees[0].Name
	*m.formStart = "09:00"
	*m.formFinish = "17:00"
	*m.formNotes = ""
	m.formType = "add"

	empOptions := make([]huh.Option[string], len(m.employees))
	for i, e := range m.employees {
		empOptions[i] = huh.NewOption(e.Name, e.Name)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(m.formDate),
			huh.NewInput().Title("Week start (Monday)").Value(m.formWeekStart),
			huh.NewSelect[string]().Title("Employee").Options(empOptions...).Value(m.formEmployee),
			huh.NewInput().Title("Start time (HH:MM)").Value(m.formStart),
			huh.NewInput().Title("Finish time (HH:MM)").Value(m.formFinish),
			huh.NewInput().Title("Notes (optional)").CharLimit(200).Value(m.formNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m ledgerModel) showEditForm(r store.ShiftRecord) (ledgerModel, tea.Cmd) {
	*m.formStart = r.Start.String()
	*m.formFinish = r.Finish.String()
	*m.formNotes = r.Notes
	m.formType = "edit"
	m.editingID = r.ID

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Start time (HH:MM)").Value(m.formStart),
			huh.NewInput().Title("Finish time (HH:MM)").Value(m.formFinish),
			huh.NewInput().Title("Notes").CharLimit(200).Value(m.formNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m ledgerModel) showSearchForm() (ledgerModel, tea.Cmd) {
	*m.formSearch = m.search
	m.formType = "search"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Search (employee, date, or notes)").
				Placeholder("e.g. John or 2025-11-05 or delivery").
				Value(m.formSearch),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m ledgerModel) updateForm(msg tea.Msg) (ledgerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		switch m.formType {
		case "add":
			return m, m.submitAdd()
		case "edit":
			return m, m.submitEdit()
		case "search":
			m.search = strings.TrimSpace(*m.formSearch)
			m.cursor = 0
			return m, m.refresh()
		}
	}

	return m, cmd
}

func (m ledgerModel) submitAdd() tea.Cmd {
	day, err := parseDay(*m.formDate)
	if err != nil {
		return errorStatus(fmt.Sprintf("Bad date %q (want YYYY-MM-DD)", *m.formDate))
	}
	start, err := timesheet.ParseClock(*m.formStart)
	if err != nil {
		return errorStatus(err.Error())
	}
	finish, err := timesheet.ParseClock(*m.formFinish)
	if err != nil {
		return errorStatus(err.Error())
	}
	weekStart := mondayOf(day)
	if ws := strings.TrimSpace(*m.formWeekStart); ws != "" {
		if weekStart, err = parseDay(ws); err != nil {
			return errorStatus(fmt.Sprintf("Bad week start %q", ws))
		}
	}

	totals := timesheet.ComputeShift(day, start, finish, m.store.BreakRules(), nil)
	record, err := m.store.AddShift(store.ShiftRecord{
		WeekStart:    weekStart,
		Date:         day,
		Employee:     *m.formEmployee,
		Start:        start,
		Finish:       finish,
		BreakMinutes: totals.BreakMinutes,
		HoursWorked:  totals.HoursWorked,
		Notes:        *m.formNotes,
	})
	if errors.Is(err, store.ErrDuplicateShift) {
		return errorStatus("Duplicate entry detected, not saved")
	}
	if err != nil {
		return errorStatus(fmt.Sprintf("Save error: %v", err))
	}
	return tea.Batch(
		infoStatus(fmt.Sprintf("Added entry for %s (%s hrs)",
			record.Employee, record.HoursWorked.StringFixed(2))),
		m.refresh(),
	)
}

func (m ledgerModel) submitEdit() tea.Cmd {
	existing, err := m.store.GetShift(m.editingID)
	if err != nil {
		return errorStatus(fmt.Sprintf("Edit error: %v", err))
	}
	start, err := timesheet.ParseClock(*m.formStart)
	if err != nil {
		return errorStatus(err.Error())
	}
	finish, err := timesheet.ParseClock(*m.formFinish)
	if err != nil {
		return errorStatus(err.Error())
	}

	prev := existing.BreakMinutes
	totals := timesheet.ComputeShift(existing.Date, start, finish, m.store.BreakRules(), &prev)
	err = m.store.UpdateShift(m.editingID, start, finish, totals.BreakMinutes, totals.HoursWorked, *m.formNotes)
	if errors.Is(err, store.ErrDuplicateShift) {
		return errorStatus("Edit would duplicate another entry, not saved")
	}
	if err != nil {
		return errorStatus(fmt.Sprintf("Edit error: %v", err))
	}
	return tea.Batch(
		infoStatus(fmt.Sprintf("Updated entry for %s on %s (%s hrs)",
			existing.Employee, existing.Date.Format(dateFormat), totals.HoursWorked.StringFixed(2))),
		m.refresh(),
	)
}

func (m ledgerModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Entry")
		switch m.formType {
		case "edit":
			title = titleStyle.Render("Edit Entry")
		case "search":
			title = titleStyle.Render("Search Entries")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	title := titleStyle.Render("Timesheet Entries")
	if m.search != "" {
		title += mutedStyle.Render(fmt.Sprintf("  (%d matching %q — esc to clear)", len(m.shifts), m.search))
	}

	if len(m.shifts) == 0 {
		hint := "No entries yet. Press n to add one."
		if m.search != "" {
			hint = "No entries found matching your search."
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render(hint)),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-16s %-7s %-7s %6s %7s  %s",
		"Date", "Employee", "Start", "Finish", "Break", "Hours", "Notes")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 70))))

	// Keep the cursor visible in tall ledgers.
	visible := m.height - 10
	if visible < 5 {
		visible = 5
	}
	first := 0
	if m.cursor >= visible {
		first = m.cursor - visible + 1
	}
	last := min(len(m.shifts), first+visible)

	for i := first; i < last; i++ {
		r := m.shifts[i]
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		notes := r.Notes
		if len(notes) > 24 {
			notes = notes[:21] + "..."
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-12s %-16s %-7s %-7s %5dm %7s  %s",
			cursor, r.Date.Format(dateFormat), r.Employee,
			r.Start.String(), r.Finish.String(),
			r.BreakMinutes, r.HoursWorked.StringFixed(2), notes)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete  /: search  c: clean duplicates  x: export"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// currentFilter exposes the active search so the export picker can
// write exactly what is on screen.
func (m ledgerModel) currentFilter() store.ShiftFilter {
	return store.ShiftFilter{Search: m.search}
}
