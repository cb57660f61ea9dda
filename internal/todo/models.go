package todo

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Subtasks    []Subtask  `json:"subtasks"`
}

type Subtask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
}

// NewTask returns an open task created now.
func NewTask(description string) Task {
	return Task{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now(),
		Subtasks:    []Subtask{},
	}
}

func NewSubtask(description string) Subtask {
	return Subtask{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(description),
	}
}

// AddSubtask appends a checklist item. An incomplete item reopens a completed parent.
func (t *Task) AddSubtask(description string) {
	t.Subtasks = append(t.Subtasks, NewSubtask(description))
	if t.IsCompleted {
		t.setCompleted(false, time.Now())
	}
}

// SetCompleted sets the completion state and cascades it to every subtask.
func (t *Task) SetCompleted(done bool, at time.Time) {
	t.setCompleted(done, at)
	for i := range t.Subtasks {
		t.Subtasks[i].IsCompleted = done
	}
}

func (t *Task) setCompleted(done bool, at time.Time) {
	t.IsCompleted = done
	if done {
		stamp := at
		t.CompletedAt = &stamp
	} else {
		t.CompletedAt = nil
	}
}

// ToggleSubtask flips subtask j and recomputes the parent state as the AND of
// all subtasks. It reports whether the parent's completion changed.
func (t *Task) ToggleSubtask(j int, at time.Time) (bool, error) {
	if j < 0 || j >= len(t.Subtasks) {
		return false, ErrNoSuchSubtask
	}
	t.Subtasks[j].IsCompleted = !t.Subtasks[j].IsCompleted

	all := true
	for _, st := range t.Subtasks {
		if !st.IsCompleted {
			all = false
			break
		}
	}
	if t.IsCompleted == all {
		return false, nil
	}
	t.setCompleted(all, at)
	return true, nil
}

// Title is the description cut to its first line, for one-row listings.
func (t Task) Title() string {
	return FirstLine(t.Description)
}

// FirstLine returns the first line of s, marked with " …" when more follows.
func FirstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimRight(s[:i], " ") + " …"
	}
	return s
}

// SubtasksDone counts completed checklist items.
func (t Task) SubtasksDone() int {
	n := 0
	for _, st := range t.Subtasks {
		if st.IsCompleted {
			n++
		}
	}
	return n
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	c := t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	c.Subtasks = append([]Subtask{}, t.Subtasks...)
	return c
}
