package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/traetodo/internal/todo"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Completed  int        `json:"completed"`
	Tasks      []jsonTask `json:"tasks"`
}

type jsonTask struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Completed   bool          `json:"completed"`
	CreatedAt   string        `json:"created_at"`
	CompletedAt string        `json:"completed_at,omitempty"`
	Subtasks    []jsonSubtask `json:"subtasks"`
}

type jsonSubtask struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func ToJSON(tasks []todo.Task, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(tasks),
		Tasks:      []jsonTask{},
	}

	for _, t := range tasks {
		if t.IsCompleted {
			export.Completed++
		}
		jt := jsonTask{
			ID:          t.ID,
			Description: t.Description,
			Completed:   t.IsCompleted,
			CreatedAt:   t.CreatedAt.Local().Format(time.RFC3339),
			CompletedAt: formatTime(t.CompletedAt),
			Subtasks:    []jsonSubtask{},
		}
		for _, st := range t.Subtasks {
			jt.Subtasks = append(jt.Subtasks, jsonSubtask{Description: st.Description, Completed: st.IsCompleted})
		}
		export.Tasks = append(export.Tasks, jt)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
