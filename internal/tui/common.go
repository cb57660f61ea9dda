package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// viewState represents the currently active view.
type viewState int

const (
	viewChat viewState = iota
	viewTasks
	viewReports
	viewSettings
)

var viewNames = []string{"Chat", "Tasks", "Reports", "Settings"}

// statusTTL is how long a status line message stays visible.
const statusTTL = 5 * time.Second

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// chatReplyMsg carries the assistant's text back onto the update loop.
type chatReplyMsg struct {
	reply string
}

type settingsSavedMsg struct{}

type chatClearedMsg struct{}

type tasksChangedMsg struct{}

func status(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func statusErr(prefix string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
	}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
