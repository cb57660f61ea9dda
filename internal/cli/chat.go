package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(e *env) *cobra.Command {
	var addTask bool
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to the assistant and print the reply",
		Long: `Send one message to the assistant and print the reply.
The exchange is appended to the chat history shown in the UI.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := e.ws.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, reply)

			if addTask {
				ex, err := e.ws.AddFromMessage(reply)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, ex.Summary())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&addTask, "add-task", "t", false, "add the reply to the task list")
	return cmd
}
