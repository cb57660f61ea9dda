package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/traetodo/internal/store"
	"github.com/sadopc/traetodo/internal/workspace"
)

type formKind int

const (
	formSettings formKind = iota
	formClearChat
	formClearTasks
)

type settingsModel struct {
	ws     *workspace.Workspace
	width  int
	height int

	settings   []store.Setting
	formActive bool
	formKind   formKind
	form       *huh.Form

	// Form values as pointers (survive value copies)
	apiKey        *string
	soloMode      *bool
	soloInterval  *string
	startPage     *string
	hideCompleted *bool
	confirm       *bool
}

func newSettingsModel(ws *workspace.Workspace) settingsModel {
	apiKey, interval, page := "", "", ""
	solo, hide, confirm := false, false, false
	return settingsModel{
		ws:            ws,
		apiKey:        &apiKey,
		soloMode:      &solo,
		soloInterval:  &interval,
		startPage:     &page,
		hideCompleted: &hide,
		confirm:       &confirm,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.ws.Store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		case key.Matches(msg, keys.Clear):
			return s.showConfirm(formClearChat, "Clear the whole chat history?")
		case key.Matches(msg, keys.Reset):
			return s.showConfirm(formClearTasks, "Delete all tasks?")
		}
	}
	return s, nil
}

func validateInterval(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return errors.New("enter a whole number of minutes, at least 1")
	}
	return nil
}

func validateAPIKey(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("an API key is required")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	st := s.ws.Settings()
	// A key from the environment stands in when none is stored.
	*s.apiKey = s.ws.APIKey()
	*s.soloMode = st.SoloMode
	*s.soloInterval = strconv.Itoa(st.SoloInterval)
	*s.startPage = st.StartPage
	*s.hideCompleted = st.HideCompleted

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("OpenRouter API key").
				EchoMode(huh.EchoModePassword).
				Validate(validateAPIKey).
				Value(s.apiKey),
			huh.NewSelect[string]().Title("Start page").
				Options(
					huh.NewOption("AI Chat", store.StartAIChat),
					huh.NewOption("Task List", store.StartTaskList),
				).Value(s.startPage),
			huh.NewConfirm().Title("Hide completed tasks").Value(s.hideCompleted),
		).Title("General"),
		huh.NewGroup(
			huh.NewConfirm().Title("Solo mode").
				Description("Re-prompt the assistant on a timer").
				Value(s.soloMode),
			huh.NewInput().Title("Solo interval (min)").
				Validate(validateInterval).
				Value(s.soloInterval),
		).Title("Solo mode"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formKind = formSettings
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showConfirm(kind formKind, title string) (settingsModel, tea.Cmd) {
	*s.confirm = false
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(s.confirm),
		),
	).WithShowHelp(true)

	s.formKind = kind
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		s.formActive = false
		return s, s.finish()
	case huh.StateAborted:
		s.formActive = false
		s.form = nil
		return s, nil
	}

	return s, cmd
}

// finish applies the completed form.
func (s settingsModel) finish() tea.Cmd {
	switch s.formKind {
	case formClearChat:
		if !*s.confirm {
			return nil
		}
		if err := s.ws.ClearChat(); err != nil {
			return statusErr("Clear error", err)
		}
		return tea.Batch(status("Chat history cleared"), func() tea.Msg { return chatClearedMsg{} })

	case formClearTasks:
		if !*s.confirm {
			return nil
		}
		if err := s.ws.ClearTasks(); err != nil {
			return statusErr("Clear error", err)
		}
		return tea.Batch(status("All tasks deleted"), func() tea.Msg { return tasksChangedMsg{} })
	}

	if err := s.saveSettings(); err != nil {
		return statusErr("Settings error", err)
	}
	return tea.Batch(
		status("Settings saved"),
		s.refresh(),
		func() tea.Msg { return settingsSavedMsg{} },
	)
}

func (s settingsModel) saveSettings() error {
	interval, err := strconv.Atoi(strings.TrimSpace(*s.soloInterval))
	if err != nil {
		return fmt.Errorf("solo interval: %w", err)
	}
	return s.ws.Store.SaveSettings(store.Settings{
		APIKey:        strings.TrimSpace(*s.apiKey),
		SoloMode:      *s.soloMode,
		SoloInterval:  interval,
		StartPage:     *s.startPage,
		HideCompleted: *s.hideCompleted,
	})
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter/s: edit  c: clear chat  x: clear tasks"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.KeyAPIKey:
		return maskKey(v)
	case store.KeySoloInterval:
		return v + " min"
	case store.KeyStartPage:
		if v == store.StartTaskList {
			return "Task List"
		}
		return "AI Chat"
	}
	return v
}

// maskKey shows only the last four characters of a key.
func maskKey(k string) string {
	if k == "" {
		return "(not set)"
	}
	r := []rune(k)
	if len(r) <= 4 {
		return strings.Repeat("•", len(r))
	}
	return strings.Repeat("•", 8) + string(r[len(r)-4:])
}
