package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/traetodo/internal/todo"
)

func ToCSV(tasks []todo.Task, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Description", "Completed", "Created", "Completed At", "Subtasks", "Subtasks Done"}); err != nil {
		return err
	}

	for _, t := range tasks {
		row := []string{
			t.Description,
			yesNo(t.IsCompleted),
			t.CreatedAt.Local().Format(time.RFC3339),
			formatTime(t.CompletedAt),
			strconv.Itoa(len(t.Subtasks)),
			strconv.Itoa(t.SubtasksDone()),
		}
		if err := w.Write(row); err != nil {
			return err
		}
		for _, st := range t.Subtasks {
			if err := w.Write([]string{"  - " + st.Description, yesNo(st.IsCompleted), "", "", "", ""}); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
