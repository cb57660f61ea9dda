package todo

import (
	"regexp"
	"strconv"
	"strings"
)

// titleLimit is the number of leading runes of a message used as task title.
const titleLimit = 100

var bulletRe = regexp.MustCompile(`^(- |– |— |• |\* |● |○ |→ |\d+[).] |[a-zA-Z][).] )`)

// Extraction is a task built from a chat message.
type Extraction struct {
	Task  Task
	Items int
}

// Summary is the status line shown after the task is added.
func (e Extraction) Summary() string {
	if e.Items > 0 {
		return "Added task with checklist: " + strconv.Itoa(e.Items) + " items"
	}
	return "Added task without checklist"
}

// FromMessage turns bullet and numbered lines of text into subtasks. The
// leading part of the message becomes the task description.
func FromMessage(text string) Extraction {
	t := NewTask(title(text))

	lines := strings.FieldsFunc(text, func(r rune) bool { return r == '\r' || r == '\n' })
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		loc := bulletRe.FindStringIndex(trimmed)
		if loc == nil {
			continue
		}
		item := strings.TrimSpace(trimmed[loc[1]:])
		if item == "" {
			continue
		}
		t.AddSubtask(item)
	}
	return Extraction{Task: t, Items: len(t.Subtasks)}
}

func title(text string) string {
	r := []rune(text)
	if len(r) > titleLimit {
		return string(r[:titleLimit]) + "..."
	}
	return text
}
