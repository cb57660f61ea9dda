package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/traetodo/internal/todo"
)

func newListCmd(e *env) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long:  "List tasks. Completed tasks are hidden when the hide_completed setting is on, unless --all is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hide := !all && e.ws.Settings().HideCompleted
			printTasks(cmd.OutOrStdout(), e.ws.Tasks(), hide)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed tasks")
	return cmd
}

// printTasks numbers tasks by their position in the full list so the
// numbers work with toggle even when some are hidden.
func printTasks(w io.Writer, tasks []todo.Task, hideCompleted bool) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks yet.")
		return
	}
	idx := todo.VisibleIndexes(tasks, hideCompleted)
	if len(idx) == 0 {
		fmt.Fprintln(w, "All tasks are completed. Use --all to show them.")
		return
	}
	for _, i := range idx {
		t := tasks[i]
		line := fmt.Sprintf("%2d. %s %s", i+1, mark(t.IsCompleted), t.Title())
		if len(t.Subtasks) > 0 {
			line += fmt.Sprintf(" (%d/%d)", t.SubtasksDone(), len(t.Subtasks))
		}
		fmt.Fprintln(w, line)
		for j, st := range t.Subtasks {
			fmt.Fprintf(w, "    %d.%d %s %s\n", i+1, j+1, mark(st.IsCompleted), st.Description)
		}
	}
	c := todo.Count(tasks)
	fmt.Fprintf(w, "\n%d open, %d done\n", c.Open, c.Completed)
}

func mark(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func newAddCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "add <description>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.ws.AddTask(strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Task added successfully!")
			return nil
		},
	}
}

func newToggleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <n>[.<m>]",
		Short: "Toggle a task (n) or one of its subtasks (n.m)",
		Example: `  traetodo toggle 2     # task 2
  traetodo toggle 2.1   # first subtask of task 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, j, err := parseRef(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if j < 0 {
				done, err := e.ws.ToggleTask(i)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, completionText("Task", done))
				return nil
			}
			changed, parentDone, err := e.ws.ToggleSubtask(i, j)
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintln(out, completionText("Task", parentDone))
				return nil
			}
			fmt.Fprintln(out, completionText("Subtask", e.ws.Tasks()[i].Subtasks[j].IsCompleted))
			return nil
		},
	}
}

// parseRef turns "3" into (2, -1) and "3.2" into (2, 1).
func parseRef(ref string) (int, int, error) {
	taskPart, subPart, hasSub := strings.Cut(strings.TrimSpace(ref), ".")
	i, err := strconv.Atoi(taskPart)
	if err != nil || i < 1 {
		return 0, 0, fmt.Errorf("invalid task number %q", ref)
	}
	if !hasSub {
		return i - 1, -1, nil
	}
	j, err := strconv.Atoi(subPart)
	if err != nil || j < 1 {
		return 0, 0, fmt.Errorf("invalid subtask number %q", ref)
	}
	return i - 1, j - 1, nil
}

func completionText(what string, done bool) string {
	if done {
		return what + " completed!"
	}
	return what + " marked as incomplete"
}

func newClearCmd(e *env) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:       "clear tasks|chat",
		Short:     "Delete all tasks or the chat history",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"tasks", "chat"},
		RunE: func(cmd *cobra.Command, args []string) error {
			what := args[0]
			prompt := "Delete all tasks? [y/N] "
			if what == "chat" {
				prompt = "Clear the whole chat history? [y/N] "
			}
			if !force && !confirm(cmd, prompt) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if what == "chat" {
				if err := e.ws.ClearChat(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Chat history cleared.")
				return nil
			}
			if err := e.ws.ClearTasks(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All tasks deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	return cmd
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
