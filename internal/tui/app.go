package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/traetodo/internal/export"
	"github.com/sadopc/traetodo/internal/store"
	"github.com/sadopc/traetodo/internal/todo"
	"github.com/sadopc/traetodo/internal/workspace"
)

// App is the root Bubble Tea model.
type App struct {
	ws        *workspace.Workspace
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	chat     chatModel
	tasks    tasksModel
	reports  reportsModel
	settings settingsModel

	today todayCounts

	help     help.Model
	status   string
	statusAt time.Time
	isError  bool
}

// NewApp builds the UI over ws. Exports are written to exportDir, or the
// home directory when it is empty.
func NewApp(ws *workspace.Workspace, exportDir string) App {
	h := help.New()
	h.ShowAll = false

	start := viewChat
	if ws.Settings().StartPage == store.StartTaskList {
		start = viewTasks
	}

	return App{
		ws:         ws,
		exportDir:  exportDir,
		activeView: start,
		chat:       newChatModel(ws),
		tasks:      newTasksModel(ws),
		reports:    newReportsModel(ws.Store),
		settings:   newSettingsModel(ws),
		today:      loadToday(ws.Store),
		help:       h,
	}
}

// todayCounts is the activity summary shown in the header.
type todayCounts struct {
	done     int
	messages int
}

func loadToday(s *store.Store) todayCounts {
	var c todayCounts
	c.done, _ = s.GetTodayCount(store.ActivityTaskCompleted)
	c.messages, _ = s.GetTodayCount(store.ActivityMessageSent)
	return c
}

func (c todayCounts) String() string {
	return fmt.Sprintf("today: %d done · %d messages", c.done, c.messages)
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.chat.Init(),
		a.settings.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.chat.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, a.reports.refresh()

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		// The chat input still lets tab switch views.
		if a.isFormActive() {
			if msg.String() == "ctrl+c" {
				return a, tea.Quit
			}
			if a.activeView != viewChat || !key.Matches(msg, keys.Tab) {
				return a.updateActiveView(msg)
			}
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewChat
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.status != "" && time.Time(msg).Sub(a.statusAt) > statusTTL {
			a.status = ""
		}
		a.today = loadToday(a.ws.Store)
		// Solo mode runs whichever view is active.
		var cmd tea.Cmd
		a.chat, cmd = a.chat.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case chatReplyMsg, spinner.TickMsg, chatClearedMsg:
		var cmd tea.Cmd
		a.chat, cmd = a.chat.update(msg)
		return a, tea.Batch(cmd, a.refreshCurrentView())

	case tasksChangedMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, tea.Batch(cmd, a.refreshCurrentView())

	case settingsSavedMsg:
		a.chat.configure()
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.isError = msg.isError
		a.statusAt = time.Now()
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.isError = false
		a.statusAt = time.Now()
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewChat:
		a.chat, cmd = a.chat.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewChat:
		return a.chat.capturing()
	case viewTasks:
		return a.tasks.capturing()
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewChat:
		content = a.chat.view()
	case viewTasks:
		content = a.tasks.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("traetodo")
	today := mutedStyle.Render("  " + a.today.String())
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(today)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, today, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.isError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	soloInfo := " " + a.chat.soloIndicator()

	left := footerStyle.Render(helpView)
	right := soloInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Tasks")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	// Copy on the update loop; the command runs elsewhere.
	tasks := make([]todo.Task, 0, len(a.ws.Tasks()))
	for _, t := range a.ws.Tasks() {
		tasks = append(tasks, t.Clone())
	}
	dir := a.exportDir
	return func() tea.Msg {
		if dir == "" {
			dir, _ = os.UserHomeDir()
		}
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("traetodo-export-%s.csv", dateStr))
			if err := export.ToCSV(tasks, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("traetodo-export-%s.json", dateStr))
			if err := export.ToJSON(tasks, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
