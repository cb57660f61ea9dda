package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/traetodo/internal/export"
)

func newExportCmd(e *env) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks to CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = fmt.Sprintf("traetodo-export-%s.%s", time.Now().Format("2006-01-02"), format)
			}

			tasks := e.ws.Tasks()
			var err error
			switch format {
			case "csv":
				err = export.ToCSV(tasks, out)
			case "json":
				err = export.ToJSON(tasks, out)
			default:
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(tasks), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default traetodo-export-<date>.<format>)")
	return cmd
}
