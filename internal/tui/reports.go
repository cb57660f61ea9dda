package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/traetodo/internal/store"
	"github.com/sadopc/traetodo/internal/todo"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

// series is one bar segment per day.
type series struct {
	name  string
	kinds []store.ActivityKind
	color lipgloss.Color
}

var reportSeries = []series{
	{"Added", []store.ActivityKind{store.ActivityTaskAdded}, colorHighlight},
	{"Completed", []store.ActivityKind{store.ActivityTaskCompleted}, colorSuccess},
	{"Messages", []store.ActivityKind{store.ActivityMessageSent, store.ActivityMessageReceived}, colorPrimary},
}

type reportsModel struct {
	store  *store.Store
	width  int
	height int

	mode   reportMode
	rows   []store.DailyActivity
	recent []store.Activity
	offset int // 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

const recentLimit = 5

type reportsDataMsg struct {
	rows   []store.DailyActivity
	recent []store.Activity
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := r.dateRange()
		rows, _ := r.store.GetDailyActivity(from, to)
		recent, _ := r.store.ListActivity(recentLimit)
		return reportsDataMsg{rows: rows, recent: recent}
	}
}

func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch r.mode {
	case reportWeekly:
		// Start of current week (Monday)
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*r.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		// Daily: last 7 days
		end := today.AddDate(0, 0, 1-7*r.offset)
		start := end.AddDate(0, 0, -7)
		return start, end
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.rows = msg.rows
		r.recent = msg.recent
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Enter):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

// countFor sums the rows of date whose kind belongs to s.
func (r reportsModel) countFor(date string, s series) int {
	n := 0
	for _, row := range r.rows {
		if row.Date != date {
			continue
		}
		for _, k := range s.kinds {
			if row.Kind == k {
				n += row.Count
			}
		}
	}
	return n
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")

		var values []barchart.BarValue
		for _, s := range reportSeries {
			if n := r.countFor(dateStr, s); n > 0 {
				values = append(values, barchart.BarValue{
					Name:  s.name,
					Value: float64(n),
					Style: lipgloss.NewStyle().Foreground(s.color),
				})
			}
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Activity"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  enter: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", renderLegend(), "", r.renderSummaryTable(w), "", r.renderRecent(), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.rows) == 0 {
		return mutedStyle.Render("  No activity for this period")
	}

	var lines []string
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %10s %10s", "Date", "Added", "Completed", "Messages")))
	lines = append(lines, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 46))))

	from, to := r.dateRange()
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		counts := make([]int, len(reportSeries))
		total := 0
		for i, s := range reportSeries {
			counts[i] = r.countFor(date, s)
			total += counts[i]
		}
		if total == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-12s %10d %10d %10d", date, counts[0], counts[1], counts[2]))
	}
	return strings.Join(lines, "\n")
}

var activityLabels = map[store.ActivityKind]string{
	store.ActivityTaskAdded:       "Added",
	store.ActivityTaskCompleted:   "Completed",
	store.ActivityTaskReopened:    "Reopened",
	store.ActivityMessageSent:     "Sent",
	store.ActivityMessageReceived: "Reply",
	store.ActivityTasksCleared:    "Tasks cleared",
	store.ActivityChatCleared:     "Chat cleared",
}

// renderRecent lists the latest events, newest first.
func (r reportsModel) renderRecent() string {
	if len(r.recent) == 0 {
		return ""
	}
	lines := []string{titleStyle.Render("Recent")}
	for _, a := range r.recent {
		label, ok := activityLabels[a.Kind]
		if !ok {
			label = string(a.Kind)
		}
		subject := truncate(todo.FirstLine(a.Subject), 50)
		lines = append(lines, fmt.Sprintf("  %s  %-14s %s",
			mutedStyle.Render(a.At.Local().Format("Jan 02 15:04")), label, subject))
	}
	return strings.Join(lines, "\n")
}

func renderLegend() string {
	var items []string
	for _, s := range reportSeries {
		dot := lipgloss.NewStyle().Foreground(s.color).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, s.name))
	}
	return "  " + strings.Join(items, "  ")
}
