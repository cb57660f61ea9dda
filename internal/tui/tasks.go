package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/traetodo/internal/todo"
	"github.com/sadopc/traetodo/internal/workspace"
)

// taskRow is one visible line: a task, or one of its subtasks when sub >= 0.
type taskRow struct {
	task int
	sub  int
}

type tasksModel struct {
	ws     *workspace.Workspace
	width  int
	height int

	cursor        int
	expanded      map[string]bool
	hideCompleted bool

	adding bool
	input  textinput.Model
}

func newTasksModel(ws *workspace.Workspace) tasksModel {
	in := textinput.New()
	in.Placeholder = "What needs to be done?"
	in.CharLimit = 500
	in.Prompt = "+ "

	return tasksModel{
		ws:            ws,
		expanded:      make(map[string]bool),
		hideCompleted: ws.Settings().HideCompleted,
		input:         in,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = max(w-12, 10)
}

func (m tasksModel) capturing() bool {
	return m.adding
}

func (m tasksModel) rows() []taskRow {
	tasks := m.ws.Tasks()
	var rows []taskRow
	for _, i := range todo.VisibleIndexes(tasks, m.hideCompleted) {
		rows = append(rows, taskRow{task: i, sub: -1})
		if m.expanded[tasks[i].ID] {
			for j := range tasks[i].Subtasks {
				rows = append(rows, taskRow{task: i, sub: j})
			}
		}
	}
	return rows
}

func (m *tasksModel) clamp() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksChangedMsg, settingsSavedMsg:
		m.hideCompleted = m.ws.Settings().HideCompleted
		m.clamp()
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m tasksModel) updateInput(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.adding = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case key.Matches(msg, keys.Enter):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.adding = false
		m.input.Blur()
		m.input.Reset()
		if _, err := m.ws.AddTask(text); err != nil {
			return m, statusErr("Add task error", err)
		}
		m.cursor = max(0, len(m.rows())-1)
		return m, status("Task added successfully!")
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	rows := m.rows()
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		m.adding = true
		return m, m.input.Focus()
	case key.Matches(msg, keys.Toggle):
		if len(rows) == 0 {
			return m, nil
		}
		return m.toggle(rows[m.cursor])
	case key.Matches(msg, keys.Enter):
		if len(rows) == 0 {
			return m, nil
		}
		return m.expand(rows[m.cursor])
	case key.Matches(msg, keys.Hide):
		m.hideCompleted = !m.hideCompleted
		m.clamp()
		if err := m.ws.Store.SetHideCompleted(m.hideCompleted); err != nil {
			return m, statusErr("Save error", err)
		}
		if m.hideCompleted {
			return m, status("Hiding completed tasks")
		}
		return m, status("Showing all tasks")
	}
	return m, nil
}

func (m tasksModel) toggle(r taskRow) (tasksModel, tea.Cmd) {
	if r.sub < 0 {
		done, err := m.ws.ToggleTask(r.task)
		if err != nil {
			return m, statusErr("Save error", err)
		}
		m.clamp()
		return m, status(completionStatus("Task", done))
	}

	changed, parentDone, err := m.ws.ToggleSubtask(r.task, r.sub)
	if err != nil {
		return m, statusErr("Save error", err)
	}
	m.clamp()
	if changed {
		return m, status(completionStatus("Task", parentDone))
	}
	t := m.ws.Tasks()[r.task]
	return m, status(completionStatus("Subtask", t.Subtasks[r.sub].IsCompleted))
}

func (m tasksModel) expand(r taskRow) (tasksModel, tea.Cmd) {
	t := m.ws.Tasks()[r.task]
	if r.sub >= 0 {
		// Collapse from a subtask row back onto its parent.
		m.expanded[t.ID] = false
		for i, row := range m.rows() {
			if row.task == r.task && row.sub < 0 {
				m.cursor = i
				break
			}
		}
		return m, nil
	}
	if len(t.Subtasks) == 0 {
		return m, status("No subtasks")
	}
	m.expanded[t.ID] = !m.expanded[t.ID]
	return m, nil
}

func completionStatus(what string, done bool) string {
	if done {
		return what + " completed!"
	}
	return what + " marked as incomplete"
}

func (m tasksModel) view() string {
	w := m.width - 4
	tasks := m.ws.Tasks()
	counts := todo.Count(tasks)

	title := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Tasks"), "  ",
		mutedStyle.Render(fmt.Sprintf("%d open · %d done", counts.Open, counts.Completed)),
	)
	if m.hideCompleted {
		title = lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", warningStyle.Render("completed hidden"))
	}

	var lines []string
	lines = append(lines, title, "")
	if m.adding {
		lines = append(lines, m.input.View(), "")
	}

	rows := m.rows()
	switch {
	case len(tasks) == 0:
		lines = append(lines, mutedStyle.Render("No tasks yet. Press n to add one."))
	case len(rows) == 0:
		lines = append(lines, mutedStyle.Render("All tasks are completed. Press h to show them."))
	default:
		lines = append(lines, m.renderRows(tasks, rows)...)
	}

	lines = append(lines, "")
	lines = append(lines, mutedStyle.Render("  n: new  space: toggle  enter: subtasks  h: hide completed  e: export"))

	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func (m tasksModel) renderRows(tasks []todo.Task, rows []taskRow) []string {
	limit := max(m.height-10, 3)
	start := 0
	if m.cursor >= limit {
		start = m.cursor - limit + 1
	}
	end := min(start+limit, len(rows))

	var out []string
	for i := start; i < end; i++ {
		r := rows[i]
		t := tasks[r.task]

		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		if r.sub >= 0 {
			st := t.Subtasks[r.sub]
			text := st.Description
			if st.IsCompleted {
				text = doneStyle.Render(text)
			} else {
				text = style.Render(text)
			}
			out = append(out, fmt.Sprintf("%s    %s %s", cursor, checkbox(st.IsCompleted), text))
			continue
		}

		arrow := " "
		extra := ""
		if len(t.Subtasks) > 0 {
			arrow = "▸"
			if m.expanded[t.ID] {
				arrow = "▾"
			}
			extra = mutedStyle.Render(fmt.Sprintf(" (%d/%d)", t.SubtasksDone(), len(t.Subtasks)))
		}
		text := t.Title()
		if t.IsCompleted {
			text = doneStyle.Render(text)
		} else {
			text = style.Render(text)
		}
		out = append(out, fmt.Sprintf("%s%s %s %s%s", cursor, arrow, checkbox(t.IsCompleted), text, extra))
	}
	return out
}

func checkbox(done bool) string {
	if done {
		return successStyle.Render("[x]")
	}
	return "[ ]"
}
