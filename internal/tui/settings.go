package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/rotalog/internal/auth"
	"github.com/sadopc/rotalog/internal/store"
)

// settingDef describes one editable setting row.
type settingDef struct {
	key     string
	label   string
	secret  bool
	numeric bool
}

// settingDefs fixes the display order; GetAllSettings returns a map.
var settingDefs = []settingDef{
	{key: "shop_name", label: "Shop name"},
	{key: "auto_break_threshold", label: "Auto-break threshold (hours)", numeric: true},
	{key: "auto_break_minutes", label: "Auto-break deduction (minutes)", numeric: true},
	{key: "admin_password", label: "Admin password", secret: true},
}

// settingsModel is the Settings view: break rules, shop name, the
// admin password, and the login/logout entry point.
type settingsModel struct {
	store   *store.Store
	session *auth.Session
	width   int
	height  int

	values map[string]string
	cursor int

	formActive bool
	form       *huh.Form
	formValue  *string
	editing    string

	loginActive   bool
	loginForm     *huh.Form
	loginPassword *string
}

func newSettingsModel(s *store.Store, session *auth.Session) settingsModel {
	value, password := "", ""
	return settingsModel{
		store:         s,
		session:       session,
		values:        map[string]string{},
		formValue:     &value,
		loginPassword: &password,
	}
}

func (m *settingsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type settingsDataMsg struct {
	values map[string]string
}

func (m settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := m.store.GetAllSettings()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
		values := make(map[string]string, len(settings))
		for _, st := range settings {
			values[st.Key] = st.Value
		}
		return settingsDataMsg{values: values}
	}
}

func (m settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if m.loginActive && m.loginForm != nil {
		return m.updateLoginForm(msg)
	}
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		m.values = msg.values
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(settingDefs)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Login):
			if m.session.CanWrite() {
				m.session.Logout()
				return m, infoStatus("Logged out; ledger is read-only again")
			}
			return m.showLoginForm()
		case key.Matches(msg, keys.Enter):
			if cmd := writeGuard(m.session); cmd != nil {
				return m, cmd
			}
			return m.showEditForm(settingDefs[m.cursor])
		}
	}
	return m, nil
}

func (m settingsModel) showLoginForm() (settingsModel, tea.Cmd) {
	*m.loginPassword = ""

	m.loginForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Admin password").
				EchoMode(huh.EchoModePassword).
				Value(m.loginPassword),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.loginActive = true
	return m, m.loginForm.Init()
}

func (m settingsModel) updateLoginForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.loginActive = false
			m.loginForm = nil
			return m, nil
		}
	}

	form, cmd := m.loginForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.loginForm = f
	}

	if m.loginForm.State == huh.StateCompleted {
		m.loginActive = false
		if !m.session.Login(*m.loginPassword) {
			*m.loginPassword = ""
			return m, errorStatus("Wrong password")
		}
		*m.loginPassword = ""
		return m, tea.Batch(
			infoStatus("Logged in as admin"),
			func() tea.Msg { return loggedInMsg{} },
		)
	}

	return m, cmd
}

func (m settingsModel) showEditForm(def settingDef) (settingsModel, tea.Cmd) {
	m.editing = def.key
	if def.secret {
		*m.formValue = ""
	} else {
		*m.formValue = m.values[def.key]
	}

	input := huh.NewInput().Title(def.label).Value(m.formValue)
	if def.secret {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if def.numeric {
		input = input.Validate(func(s string) error {
			if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				return fmt.Errorf("must be a number")
			}
			return nil
		})
	}
	if def.secret {
		input = input.Validate(func(s string) error {
			if s == "" {
				return fmt.Errorf("password cannot be empty")
			}
			return nil
		})
	}

	m.form = huh.NewForm(huh.NewGroup(input)).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
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
		value := strings.TrimSpace(*m.formValue)
		if err := m.store.SetSetting(m.editing, value); err != nil {
			return m, errorStatus(fmt.Sprintf("Save failed: %v", err))
		}
		return m, tea.Batch(infoStatus("Setting saved"), m.refresh())
	}

	return m, cmd
}

func (m settingsModel) view() string {
	w := m.width - 4

	if m.loginActive && m.loginForm != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Admin Login"), "", m.loginForm.View()),
		)
	}
	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Edit Setting"), "", m.form.View()),
		)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("  ")
	if m.session.CanWrite() {
		b.WriteString(successStyle.Render("● admin"))
	} else {
		b.WriteString(mutedStyle.Render("● viewer (read-only)"))
	}
	b.WriteString("\n\n")

	for i, def := range settingDefs {
		value := m.values[def.key]
		if def.secret {
			value = strings.Repeat("•", 8)
		}
		line := fmt.Sprintf("%-32s %s", def.label, highlightStyle.Render(value))
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("▸ ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.session.CanWrite() {
		b.WriteString(mutedStyle.Render("  enter: edit  a: log out  ↑/↓: select"))
	} else {
		b.WriteString(mutedStyle.Render("  a: admin login  ↑/↓: select"))
	}

	return panelStyle.Width(w).Render(b.String())
}
