// Package todo holds the to-do domain: tasks with checklists, completion
// cascading, the hide-completed filter and task extraction from chat text.
package todo

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNoSuchTask       = errors.New("no such task")
	ErrNoSuchSubtask    = errors.New("no such subtask")
	ErrEmptyDescription = errors.New("task description is empty")
)

// List is the ordered task collection. It is not safe for concurrent use;
// callers serialize mutations (the UI update loop or a single CLI command).
type List struct {
	tasks []Task
	now   func() time.Time
}

func NewList(tasks []Task) *List {
	if tasks == nil {
		tasks = []Task{}
	}
	for i := range tasks {
		if tasks[i].Subtasks == nil {
			tasks[i].Subtasks = []Subtask{}
		}
	}
	return &List{tasks: tasks, now: time.Now}
}

// Tasks returns the backing slice. Persist it with SaveAll after a mutation.
func (l *List) Tasks() []Task {
	return l.tasks
}

func (l *List) Len() int {
	return len(l.tasks)
}

func (l *List) Get(i int) (Task, error) {
	if i < 0 || i >= len(l.tasks) {
		return Task{}, ErrNoSuchTask
	}
	return l.tasks[i], nil
}

func (l *List) Add(t Task) error {
	t.Description = strings.TrimSpace(t.Description)
	if t.Description == "" {
		return ErrEmptyDescription
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = l.now()
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	l.tasks = append(l.tasks, t)
	return nil
}

// ToggleCompletion flips task i, stamps or clears its completion time and
// cascades the new state to all subtasks. It returns the new state.
func (l *List) ToggleCompletion(i int) (bool, error) {
	if i < 0 || i >= len(l.tasks) {
		return false, ErrNoSuchTask
	}
	t := &l.tasks[i]
	t.SetCompleted(!t.IsCompleted, l.now())
	return t.IsCompleted, nil
}

// ToggleSubtaskCompletion flips subtask j of task i and recomputes the parent.
// It reports whether the parent's completion changed.
func (l *List) ToggleSubtaskCompletion(i, j int) (bool, error) {
	if i < 0 || i >= len(l.tasks) {
		return false, ErrNoSuchTask
	}
	return l.tasks[i].ToggleSubtask(j, l.now())
}

func (l *List) Clear() {
	l.tasks = []Task{}
}

// Visible recomputes the displayed subset. Order is preserved.
func Visible(tasks []Task, hideCompleted bool) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !hideCompleted || !t.IsCompleted {
			out = append(out, t)
		}
	}
	return out
}

// VisibleIndexes is Visible returning positions in tasks, for views that
// need to map a cursor back to the underlying list.
func VisibleIndexes(tasks []Task, hideCompleted bool) []int {
	out := make([]int, 0, len(tasks))
	for i, t := range tasks {
		if !hideCompleted || !t.IsCompleted {
			out = append(out, i)
		}
	}
	return out
}

type Counts struct {
	Total     int
	Completed int
	Open      int
}

func Count(tasks []Task) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		if t.IsCompleted {
			c.Completed++
		}
	}
	c.Open = c.Total - c.Completed
	return c
}
