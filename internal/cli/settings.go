package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sadopc/traetodo/internal/store"
)

func newSettingsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := e.ws.Store.GetAllSettings()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range all {
				v := s.Value
				if s.Key == store.KeyAPIKey {
					v = mask(v)
				}
				fmt.Fprintf(tw, "%s\t%s\n", s.Key, v)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Example: `  traetodo settings set solo_mode true
  traetodo settings set solo_interval 10
  traetodo settings set start_page TaskList`,
		Args: cobra.ExactArgs(2),
		ValidArgs: []string{
			store.KeyAPIKey, store.KeySoloMode, store.KeySoloInterval,
			store.KeyStartPage, store.KeyHideCompleted,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.ws.Store.UpdateSetting(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		},
	})
	return cmd
}

func mask(k string) string {
	if k == "" {
		return "(not set)"
	}
	if len(k) <= 4 {
		return strings.Repeat("*", len(k))
	}
	return strings.Repeat("*", 8) + k[len(k)-4:]
}
