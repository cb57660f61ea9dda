package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/traetodo/internal/chat"
	"github.com/sadopc/traetodo/internal/workspace"
)

type chatModel struct {
	ws     *workspace.Workspace
	width  int
	height int

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	pilot    *chat.Autopilot

	// selected is the message ctrl+t turns into a task; -1 means the latest.
	selected int
	now      func() time.Time
}

func newChatModel(ws *workspace.Workspace) chatModel {
	in := textinput.New()
	in.Placeholder = "Ask the assistant..."
	in.CharLimit = 4000
	in.Prompt = "› "
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	st := ws.Settings()
	m := chatModel{
		ws:       ws,
		viewport: viewport.New(80, 20),
		input:    in,
		spinner:  sp,
		pilot:    chat.NewAutopilot(st.SoloMode, st.SoloInterval, time.Now()),
		selected: -1,
		now:      time.Now,
	}
	m.refresh()
	return m
}

func (c chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (c *chatModel) setSize(w, h int) {
	c.width = w
	c.height = h
	c.viewport.Width = max(w-6, 20)
	c.viewport.Height = max(h-8, 3)
	c.input.Width = max(w-10, 10)
	c.refresh()
}

// capturing reports whether keystrokes belong to the input line.
func (c chatModel) capturing() bool {
	return c.input.Focused()
}

// configure applies saved settings to solo mode.
func (c *chatModel) configure() {
	st := c.ws.Settings()
	c.pilot.Configure(st.SoloMode, st.SoloInterval, c.now())
	c.refresh()
}

func (c *chatModel) refresh() {
	c.viewport.SetContent(c.renderTranscript())
	if c.selected < 0 {
		c.viewport.GotoBottom()
	}
}

func (c chatModel) update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		prompt, ok := c.pilot.Tick(time.Time(msg), c.ws.Chat.InFlight(), c.ws.Chat.Len())
		if !ok {
			return c, nil
		}
		return c.send(prompt)

	case chatReplyMsg:
		var cmd tea.Cmd
		if err := c.ws.FinishMessage(msg.reply); err != nil {
			cmd = statusErr("Save error", err)
		}
		c.refresh()
		return c, cmd

	case chatClearedMsg:
		c.selected = -1
		c.refresh()
		return c, nil

	case spinner.TickMsg:
		if !c.ws.Chat.InFlight() {
			return c, nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd

	case tea.KeyMsg:
		if key.Matches(msg, keys.Extract) {
			return c.extract()
		}
		if c.input.Focused() {
			return c.updateInput(msg)
		}
		return c.updateBrowse(msg)
	}

	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return c, cmd
}

func (c chatModel) updateInput(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		c.input.Blur()
		return c, nil
	case key.Matches(msg, keys.Enter):
		text := strings.TrimSpace(c.input.Value())
		if text == "" {
			return c, nil
		}
		if c.ws.Chat.InFlight() {
			return c, status("Waiting for the assistant...")
		}
		c.input.Reset()
		return c.send(text)
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

func (c chatModel) updateBrowse(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	n := c.ws.Chat.Len()
	switch {
	case key.Matches(msg, keys.Focus), key.Matches(msg, keys.Enter):
		c.selected = -1
		c.refresh()
		return c, c.input.Focus()
	case key.Matches(msg, keys.Up):
		if n == 0 {
			return c, nil
		}
		if c.selected < 0 {
			c.selected = n - 1
		} else if c.selected > 0 {
			c.selected--
		}
		c.refresh()
	case key.Matches(msg, keys.Down):
		if c.selected >= 0 && c.selected < n-1 {
			c.selected++
		}
		c.refresh()
	}
	return c, nil
}

// send starts one exchange. The request runs as a command so the update
// loop stays responsive; the reply comes back as chatReplyMsg.
func (c chatModel) send(text string) (chatModel, tea.Cmd) {
	history, err := c.ws.BeginMessage(text)
	if errors.Is(err, chat.ErrBusy) || errors.Is(err, chat.ErrEmptyMessage) {
		return c, status(err.Error())
	}
	c.selected = -1
	c.refresh()
	if err != nil {
		return c, statusErr("Save error", err)
	}

	ws := c.ws
	return c, tea.Batch(c.spinner.Tick, func() tea.Msg {
		return chatReplyMsg{reply: ws.Reply(context.Background(), text, history)}
	})
}

func (c chatModel) extract() (chatModel, tea.Cmd) {
	msgs := c.ws.Chat.Messages()
	if len(msgs) == 0 {
		return c, status("No message to add")
	}
	i := c.selected
	if i < 0 || i >= len(msgs) {
		i = len(msgs) - 1
	}
	ex, err := c.ws.AddFromMessage(msgs[i].Content)
	if err != nil {
		return c, statusErr("Add task error", err)
	}
	return c, tea.Batch(status(ex.Summary()), func() tea.Msg { return tasksChangedMsg{} })
}

func (c chatModel) soloIndicator() string {
	if !c.pilot.Enabled() {
		return mutedStyle.Render("SOLO OFF")
	}
	return soloOnStyle.Render("SOLO ON") +
		mutedStyle.Render(" · next in "+formatDuration(c.pilot.Remaining(c.now())))
}

func (c chatModel) renderTranscript() string {
	w := max(c.viewport.Width-2, 10)
	body := lipgloss.NewStyle().Width(w)

	var blocks []string
	if !c.ws.Client.Configured() {
		blocks = append(blocks, botMsgStyle.Render("Assistant"), noticeStyle.Width(w).Render(chat.SetupNotice), "")
	}

	msgs := c.ws.Chat.Messages()
	if len(msgs) == 0 && len(blocks) == 0 {
		return mutedStyle.Render("No messages yet. Type below and press enter.")
	}
	for i, m := range msgs {
		who := botMsgStyle.Render("Assistant")
		if m.IsUser {
			who = userMsgStyle.Render("You")
		}
		marker := "  "
		if i == c.selected {
			marker = selectedItemStyle.Render("▌ ")
		}
		blocks = append(blocks,
			fmt.Sprintf("%s%s %s", marker, who, mutedStyle.Render(m.FormattedTime())),
			body.Render(m.Content),
			"",
		)
	}
	return strings.Join(blocks, "\n")
}

func (c chatModel) view() string {
	w := c.width - 4

	title := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("AI Chat"), "  ", c.soloIndicator(),
	)

	prompt := c.input.View()
	if c.ws.Chat.InFlight() {
		prompt = c.spinner.View() + mutedStyle.Render(" thinking...")
	}

	hint := mutedStyle.Render("  enter: send  esc: browse  ctrl+t: add as task")
	if !c.input.Focused() {
		hint = mutedStyle.Render("  ↑/↓: select message  ctrl+t: add as task  i: type")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title, "", c.viewport.View(), "", prompt, hint,
		),
	)
}
