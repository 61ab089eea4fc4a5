package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/rotalog/internal/auth"
	"github.com/sadopc/rotalog/internal/store"
)

// employeesModel is the Employees view: the roster that the timesheet
// form selects names from.
type employeesModel struct {
	store   *store.Store
	session *auth.Session
	width   int
	height  int

	employees []store.Employee
	cursor    int

	formActive bool
	form       *huh.Form
	formName   *string
}

func newEmployeesModel(s *store.Store, session *auth.Session) employeesModel {
	name := ""
	return employeesModel{
		store:    s,
		session:  session,
		formName: &name,
	}
}

func (m *employeesModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type employeesDataMsg struct {
	employees []store.Employee
}

func (m employeesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		employees, err := m.store.ListEmployees()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Employee list error: %v", err), isError: true}
		}
		return employeesDataMsg{employees: employees}
	}
}

func (m employeesModel) update(msg tea.Msg) (employeesModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case employeesDataMsg:
		m.employees = msg.employees
		if m.cursor >= len(m.employees) {
			m.cursor = max(0, len(m.employees)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.employees)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			if cmd := writeGuard(m.session); cmd != nil {
				return m, cmd
			}
			return m.showAddForm()
		case key.Matches(msg, keys.Delete):
			if cmd := writeGuard(m.session); cmd != nil {
				return m, cmd
			}
			if len(m.employees) == 0 {
				return m, nil
			}
			name := m.employees[m.cursor].Name
			if err := m.store.DeleteEmployee(name); err != nil {
				return m, errorStatus(fmt.Sprintf("Delete failed: %v", err))
			}
			return m, tea.Batch(
				infoStatus(fmt.Sprintf("Removed %s (past shifts are kept)", name)),
				m.refresh(),
			)
		}
	}
	return m, nil
}

func (m employeesModel) showAddForm() (employeesModel, tea.Cmd) {
	*m.formName = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Employee name").
				Value(m.formName).
				CharLimit(60).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m employeesModel) updateForm(msg tea.Msg) (employeesModel, tea.Cmd) {
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
		name := strings.TrimSpace(*m.formName)
		if _, err := m.store.AddEmployee(name); err != nil {
			return m, errorStatus(fmt.Sprintf("Add failed: %v", err))
		}
		return m, tea.Batch(
			infoStatus(fmt.Sprintf("Added %s", name)),
			m.refresh(),
		)
	}

	return m, cmd
}

func (m employeesModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Employee"), "", m.form.View()),
		)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Employees"))
	b.WriteString("\n\n")

	if len(m.employees) == 0 {
		b.WriteString(mutedStyle.Render("  No employees registered. Press n to add one."))
	} else {
		for i, e := range m.employees {
			dot := lipgloss.NewStyle().Foreground(employeeColor(i)).Render("●")
			line := fmt.Sprintf("%s %s", dot, e.Name)
			if i == m.cursor {
				b.WriteString(selectedItemStyle.Render("▸ ") + line)
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  n: add  d: remove  ↑/↓: select"))

	return panelStyle.Width(w).Render(b.String())
}
