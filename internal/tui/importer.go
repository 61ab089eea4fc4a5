package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/rotalog/internal/auth"
	"github.com/sadopc/rotalog/internal/export"
	"github.com/sadopc/rotalog/internal/store"
)

// importModel is the Import view: loads a previously exported CSV back
// into the ledger, either merging into the existing records or
// replacing them wholesale.
type importModel struct {
	store   *store.Store
	session *auth.Session
	width   int
	height  int

	formActive bool
	form       *huh.Form
	formPath   *string
	formMode   *string

	lastResult string
}

func newImportModel(s *store.Store, session *auth.Session) importModel {
	path, mode := "", "merge"
	return importModel{
		store:    s,
		session:  session,
		formPath: &path,
		formMode: &mode,
	}
}

func (m *importModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m importModel) update(msg tea.Msg) (importModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case importDoneMsg:
		m.lastResult = fmt.Sprintf("Imported %d entries, skipped %d duplicates", msg.added, msg.skipped)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.New), key.Matches(msg, keys.Enter):
			if cmd := writeGuard(m.session); cmd != nil {
				return m, cmd
			}
			return m.showImportForm()
		}
	}
	return m, nil
}

func (m importModel) showImportForm() (importModel, tea.Cmd) {
	*m.formPath = ""
	*m.formMode = "merge"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CSV file path").
				Placeholder("/path/to/timesheet.csv").
				Value(m.formPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Mode").
				Options(
					huh.NewOption("Merge (skip entries already in the ledger)", "merge"),
					huh.NewOption("Replace (wipe the ledger first)", "replace"),
				).
				Value(m.formMode),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m importModel) updateForm(msg tea.Msg) (importModel, tea.Cmd) {
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
		return m, m.runImport(strings.TrimSpace(*m.formPath), *m.formMode == "replace")
	}

	return m, cmd
}

func (m importModel) runImport(path string, replace bool) tea.Cmd {
	return func() tea.Msg {
		records, err := export.FromCSV(path)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import failed: %v", err), isError: true}
		}
		added, skipped, err := m.store.ImportShifts(records, replace)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import failed: %v", err), isError: true}
		}
		return importDoneMsg{added: added, skipped: skipped}
	}
}

func (m importModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Import CSV"), "", m.form.View()),
		)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Import"))
	b.WriteString("\n\n")
	b.WriteString("  Restore timesheet entries from an exported CSV file.\n")
	b.WriteString("  The file must carry the standard export columns:\n")
	b.WriteString(mutedStyle.Render("  WeekStart, Date, Employee, StartTime, FinishTime, BreakMinutes, HoursWorked, Notes"))
	b.WriteString("\n\n")
	b.WriteString("  Merge keeps what you have and skips rows already present.\n")
	b.WriteString("  Replace clears the ledger before loading the file.\n\n")

	if m.lastResult != "" {
		b.WriteString(successStyle.Render("  " + m.lastResult))
		b.WriteString("\n\n")
	}

	b.WriteString(mutedStyle.Render("  enter: choose a file"))

	return panelStyle.Width(w).Render(b.String())
}
