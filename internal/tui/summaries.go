package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/rotalog/internal/store"
	"github.com/sadopc/rotalog/internal/timesheet"
)

// summariesModel is the Summaries view: daily/weekly/monthly totals
// over a selected date range, as a stacked bar chart and a zero-filled
// period × employee table.
type summariesModel struct {
	store  *store.Store
	width  int
	height int

	granularity timesheet.Granularity
	from, to    time.Time

	grid  timesheet.Grid
	chart barchart.Model

	formActive bool
	form       *huh.Form
	formFrom   *string
	formTo     *string
}

func newSummariesModel(s *store.Store) summariesModel {
	monday := mondayOf(time.Now())
	from, to := "", ""
	return summariesModel{
		store:    s,
		from:     monday,
		to:       monday.AddDate(0, 0, 27),
		chart:    barchart.New(60, 12),
		formFrom: &from,
		formTo:   &to,
	}
}

func (m *summariesModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m summariesModel) dateRange() (time.Time, time.Time) {
	return m.from, m.to
}

type summariesDataMsg struct {
	totals []timesheet.PeriodTotal
}

func (m summariesModel) refresh() tea.Cmd {
	from, to, g := m.from, m.to, m.granularity
	return func() tea.Msg {
		fromPtr, toPtr := from, to
		records, err := m.store.ListShifts(store.ShiftFilter{From: &fromPtr, To: &toPtr})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Summary error: %v", err), isError: true}
		}
		totals, err := timesheet.Aggregate(toEntries(records), from, to, g)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Summary error: %v", err), isError: true}
		}
		return summariesDataMsg{totals: totals}
	}
}

func (m summariesModel) update(msg tea.Msg) (summariesModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case summariesDataMsg:
		m.grid = timesheet.Pivot(msg.totals)
		m.buildChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Tab):
			m.granularity = (m.granularity + 1) % 3
			return m, m.refresh()
		case key.Matches(msg, keys.Left):
			span := m.to.Sub(m.from)
			m.from = m.from.Add(-span - 24*time.Hour)
			m.to = m.to.Add(-span - 24*time.Hour)
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			span := m.to.Sub(m.from)
			m.from = m.from.Add(span + 24*time.Hour)
			m.to = m.to.Add(span + 24*time.Hour)
			return m, m.refresh()
		case key.Matches(msg, keys.Range):
			return m.showRangeForm()
		}
	}
	return m, nil
}

func (m summariesModel) showRangeForm() (summariesModel, tea.Cmd) {
	*m.formFrom = m.from.Format(dateFormat)
	*m.formTo = m.to.Format(dateFormat)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("From (YYYY-MM-DD)").Value(m.formFrom),
			huh.NewInput().Title("To (YYYY-MM-DD)").Value(m.formTo),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m summariesModel) updateForm(msg tea.Msg) (summariesModel, tea.Cmd) {
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
		from, err := parseDay(*m.formFrom)
		if err != nil {
			return m, errorStatus(fmt.Sprintf("Bad from date %q", *m.formFrom))
		}
		to, err := parseDay(*m.formTo)
		if err != nil {
			return m, errorStatus(fmt.Sprintf("Bad to date %q", *m.formTo))
		}
		if from.After(to) {
			return m, errorStatus("From date is after to date")
		}
		m.from, m.to = from, to
		return m, m.refresh()
	}

	return m, cmd
}

func (m *summariesModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for r, period := range m.grid.Periods {
		label := period.Format("Jan 02")
		if m.granularity == timesheet.Monthly {
			label = period.Format("Jan 06")
		}

		var values []barchart.BarValue
		for c, employee := range m.grid.Employees {
			hours := m.grid.Cells[r][c]
			if hours.IsZero() {
				continue
			}
			style := lipgloss.NewStyle().Foreground(employeeColor(c))
			values = append(values, barchart.BarValue{
				Name:  employee,
				Value: hours.InexactFloat64(),
				Style: style,
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{Label: label, Values: values})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m summariesModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Date Range"), "", m.form.View()),
		)
	}

	var tabs []string
	labels := []string{"Daily", "Weekly", "Monthly"}
	for g := timesheet.Daily; g <= timesheet.Monthly; g++ {
		label := labels[g]
		if g == m.granularity {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s",
		m.from.Format("Jan 02"), m.to.Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Summaries"), "  ", modeTabs, "  ", dateLabel,
	)

	chartView := m.chart.View()
	tableView := m.renderGridTable(w)
	legend := m.renderLegend()
	nav := mutedStyle.Render("  ←/→: shift range  tab: granularity  r: set range  x: export report")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", legend, "", tableView, "", nav,
		),
	)
}

func (m summariesModel) renderGridTable(w int) string {
	if len(m.grid.Periods) == 0 {
		return mutedStyle.Render("  No entries found in this period")
	}

	// Cap columns so the table stays inside the panel.
	maxCols := max(1, (w-18)/10)
	employees := m.grid.Employees
	truncated := false
	if len(employees) > maxCols {
		employees = employees[:maxCols]
		truncated = true
	}

	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %-12s", "Period")))
	for _, e := range employees {
		name := e
		if len(name) > 9 {
			name = name[:8] + "…"
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" %9s", name)))
	}
	if truncated {
		b.WriteString(mutedStyle.Render(" …"))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 12+10*len(employees)))))

	for r, period := range m.grid.Periods {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  %-12s", period.Format(dateFormat)))
		for c := range employees {
			b.WriteString(fmt.Sprintf(" %9s", m.grid.Cells[r][c].StringFixed(2)))
		}
	}
	return b.String()
}

func (m summariesModel) renderLegend() string {
	if len(m.grid.Employees) == 0 {
		return ""
	}
	var items []string
	for i, e := range m.grid.Employees {
		dot := lipgloss.NewStyle().Foreground(employeeColor(i)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, e))
	}
	return "  " + strings.Join(items, "  ")
}
