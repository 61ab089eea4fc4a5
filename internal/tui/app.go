package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/rotalog/internal/auth"
	"github.com/sadopc/rotalog/internal/export"
	"github.com/sadopc/rotalog/internal/store"
	"github.com/sadopc/rotalog/internal/timesheet"
)

// App is the root bubbletea model. It owns the tab bar, the status
// footer, and the export picker; everything else lives in the per-view
// sub-models.
type App struct {
	store   *store.Store
	session *auth.Session

	activeView viewState
	width      int
	height     int

	ledger    ledgerModel
	summaries summariesModel
	employees employeesModel
	importer  importModel
	settings  settingsModel

	help     help.Model
	showHelp bool

	status      string
	statusError bool

	exportActive bool
	exportForm   *huh.Form
	exportKind   *string
	exportPath   *string
}

const (
	exportFullCSV     = "full"
	exportFilteredCSV = "filtered"
	exportReportXLSX  = "report"
)

func NewApp(s *store.Store, session *auth.Session) *App {
	kind, path := exportFullCSV, ""
	return &App{
		store:      s,
		session:    session,
		ledger:     newLedgerModel(s, session),
		summaries:  newSummariesModel(s),
		employees:  newEmployeesModel(s, session),
		importer:   newImportModel(s, session),
		settings:   newSettingsModel(s, session),
		help:       help.New(),
		exportKind: &kind,
		exportPath: &path,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.ledger.refresh(),
		a.summaries.refresh(),
		a.employees.refresh(),
		a.settings.refresh(),
	)
}

// formActive reports whether any view currently owns the keyboard.
func (a *App) formActive() bool {
	return a.exportActive ||
		a.ledger.formActive ||
		a.summaries.formActive ||
		a.employees.formActive ||
		a.importer.formActive ||
		a.settings.formActive || a.settings.loginActive
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ledger.setSize(msg.Width, msg.Height)
		a.summaries.setSize(msg.Width, msg.Height)
		a.employees.setSize(msg.Width, msg.Height)
		a.importer.setSize(msg.Width, msg.Height)
		a.settings.setSize(msg.Width, msg.Height)
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = fmt.Sprintf("Exported to %s", msg.path)
		a.statusError = false
		return a, nil

	case importDoneMsg:
		var cmd tea.Cmd
		a.importer, cmd = a.importer.update(msg)
		a.status = fmt.Sprintf("Imported %d entries, skipped %d duplicates", msg.added, msg.skipped)
		a.statusError = false
		return a, tea.Batch(cmd, a.ledger.refresh(), a.summaries.refresh())

	case loggedInMsg:
		return a, nil

	case ledgerDataMsg:
		var cmd tea.Cmd
		a.ledger, cmd = a.ledger.update(msg)
		return a, cmd
	case summariesDataMsg:
		var cmd tea.Cmd
		a.summaries, cmd = a.summaries.update(msg)
		return a, cmd
	case employeesDataMsg:
		var cmd tea.Cmd
		a.employees, cmd = a.employees.update(msg)
		return a, cmd
	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	if a.exportActive && a.exportForm != nil {
		return a.updateExportForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && !a.formActive() {
		switch {
		case key.Matches(keyMsg, keys.Quit):
			return a, tea.Quit
		case key.Matches(keyMsg, keys.Help):
			a.showHelp = !a.showHelp
			return a, nil
		case key.Matches(keyMsg, keys.Tab1):
			return a, a.switchTo(viewLedger)
		case key.Matches(keyMsg, keys.Tab2):
			return a, a.switchTo(viewSummaries)
		case key.Matches(keyMsg, keys.Tab3):
			return a, a.switchTo(viewEmployees)
		case key.Matches(keyMsg, keys.Tab4):
			return a, a.switchTo(viewImport)
		case key.Matches(keyMsg, keys.Tab5):
			return a, a.switchTo(viewSettings)
		case key.Matches(keyMsg, keys.Export):
			if a.activeView == viewLedger || a.activeView == viewSummaries {
				return a.showExportForm()
			}
		}
	}

	return a.routeToActive(msg)
}

func (a *App) switchTo(v viewState) tea.Cmd {
	a.activeView = v
	switch v {
	case viewLedger:
		return a.ledger.refresh()
	case viewSummaries:
		return a.summaries.refresh()
	case viewEmployees:
		return a.employees.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a *App) routeToActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewLedger:
		a.ledger, cmd = a.ledger.update(msg)
	case viewSummaries:
		a.summaries, cmd = a.summaries.update(msg)
	case viewEmployees:
		a.employees, cmd = a.employees.update(msg)
	case viewImport:
		a.importer, cmd = a.importer.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

// --- Export picker ---

func (a *App) showExportForm() (tea.Model, tea.Cmd) {
	*a.exportKind = exportFullCSV
	if a.activeView == viewSummaries {
		*a.exportKind = exportReportXLSX
	}
	home, _ := os.UserHomeDir()
	*a.exportPath = filepath.Join(home, "timesheet-"+time.Now().Format("20060102"))

	a.exportForm = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What to export").
				Options(
					huh.NewOption("Full ledger (CSV)", exportFullCSV),
					huh.NewOption("Current search results (CSV)", exportFilteredCSV),
					huh.NewOption("Summary report (XLSX)", exportReportXLSX),
				).
				Value(a.exportKind),
			huh.NewInput().
				Title("Output file (extension added automatically)").
				Value(a.exportPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path cannot be empty")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	a.exportActive = true
	return a, a.exportForm.Init()
}

func (a *App) updateExportForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			a.exportActive = false
			a.exportForm = nil
			return a, nil
		}
	}

	form, cmd := a.exportForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.exportForm = f
	}

	if a.exportForm.State == huh.StateCompleted {
		a.exportActive = false
		return a, a.runExport(*a.exportKind, strings.TrimSpace(*a.exportPath))
	}

	return a, cmd
}

func (a *App) runExport(kind, path string) tea.Cmd {
	filter := a.ledger.currentFilter()
	from, to := a.summaries.dateRange()

	return func() tea.Msg {
		switch kind {
		case exportFullCSV:
			path += ".csv"
			records, err := a.store.AllShifts()
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export failed: %v", err), isError: true}
			}
			if err := export.ToCSV(records, path); err != nil {
				return statusMsg{text: fmt.Sprintf("Export failed: %v", err), isError: true}
			}

		case exportFilteredCSV:
			path += ".csv"
			records, err := a.store.ListShifts(filter)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export failed: %v", err), isError: true}
			}
			if err := export.ToCSV(records, path); err != nil {
				return statusMsg{text: fmt.Sprintf("Export failed: %v", err), isError: true}
			}

		case exportReportXLSX:
			path += ".xlsx"
			report, err := a.buildReport(from, to)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export failed: %v", err), isError: true}
			}
			if err := export.ToXLSX(report, path); err != nil {
				return statusMsg{text: fmt.Sprintf("Export failed: %v", err), isError: true}
			}
		}
		return exportDoneMsg{path: path}
	}
}

func (a *App) buildReport(from, to time.Time) (export.SummaryReport, error) {
	fromPtr, toPtr := from, to
	records, err := a.store.ListShifts(store.ShiftFilter{From: &fromPtr, To: &toPtr})
	if err != nil {
		return export.SummaryReport{}, err
	}
	entries := toEntries(records)

	report := export.SummaryReport{
		From:        from,
		To:          to,
		GeneratedAt: time.Now(),
	}
	report.Title, _ = a.store.GetSetting("shop_name")
	if report.Title == "" {
		report.Title = "Timesheet Summary"
	}

	grids := []struct {
		g    timesheet.Granularity
		dest *timesheet.Grid
	}{
		{timesheet.Daily, &report.Daily},
		{timesheet.Weekly, &report.Weekly},
		{timesheet.Monthly, &report.Monthly},
	}
	for _, it := range grids {
		totals, err := timesheet.Aggregate(entries, from, to, it.g)
		if err != nil {
			return export.SummaryReport{}, err
		}
		*it.dest = timesheet.Pivot(totals)
	}
	return report, nil
}

// --- View ---

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	// Tab bar
	var tabs []string
	for i, name := range viewNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	role := mutedStyle.Render(" " + a.session.Role().String())
	if a.session.CanWrite() {
		role = successStyle.Render(" admin")
	}
	b.WriteString(headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...) + role))
	b.WriteString("\n")

	if a.exportActive && a.exportForm != nil {
		b.WriteString(panelStyle.Width(a.width - 4).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Export"), "", a.exportForm.View()),
		))
	} else {
		switch a.activeView {
		case viewLedger:
			b.WriteString(a.ledger.view())
		case viewSummaries:
			b.WriteString(a.summaries.view())
		case viewEmployees:
			b.WriteString(a.employees.view())
		case viewImport:
			b.WriteString(a.importer.view())
		case viewSettings:
			b.WriteString(a.settings.view())
		}
	}
	b.WriteString("\n")

	// Footer: status line plus help
	if a.status != "" {
		if a.statusError {
			b.WriteString(footerStyle.Render(errorStyle.Render("✗ " + a.status)))
		} else {
			b.WriteString(footerStyle.Render(successStyle.Render("✓ " + a.status)))
		}
		b.WriteString("\n")
	}
	if a.showHelp {
		b.WriteString(footerStyle.Render(a.help.FullHelpView(keys.FullHelp())))
	} else {
		b.WriteString(footerStyle.Render(a.help.ShortHelpView(keys.ShortHelp())))
	}

	return b.String()
}
