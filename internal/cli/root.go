// Package cli is the traetodo command line. With no subcommand it starts the
// terminal UI.
package cli

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/traetodo/internal/config"
	"github.com/sadopc/traetodo/internal/logging"
	"github.com/sadopc/traetodo/internal/tui"
	"github.com/sadopc/traetodo/internal/workspace"
)

var version = "0.1.0"

// env is the state shared by every command of one invocation.
type env struct {
	configFile string
	dataDir    string

	cfg     *config.Config
	ws      *workspace.Workspace
	logFile io.Closer
}

func (e *env) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{ConfigFile: e.configFile, DataDir: e.dataDir})
	if err != nil {
		return err
	}
	e.cfg = cfg

	lf, err := logging.Setup(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	e.logFile = lf

	ws, err := workspace.Open(cfg)
	if err != nil {
		return err
	}
	e.ws = ws
	return nil
}

func (e *env) close(*cobra.Command, []string) error {
	var err error
	if e.ws != nil {
		err = e.ws.Close()
		e.ws = nil
	}
	if e.logFile != nil {
		e.logFile.Close()
		e.logFile = nil
	}
	return err
}

// newRootCmd builds the command tree. The returned env must be closed after
// Execute since cobra skips post-run hooks when a command fails.
func newRootCmd() (*cobra.Command, *env) {
	e := &env{}

	root := &cobra.Command{
		Use:     "traetodo",
		Short:   "AI chat assistant with a personal to-do list",
		Long:    "traetodo combines an AI chat assistant with a to-do list.\nRun without arguments to open the terminal UI.",
		Version: version,
		Args:    cobra.NoArgs,

		SilenceUsage:       true,
		PersistentPreRunE:  e.open,
		PersistentPostRunE: e.close,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tea.NewProgram(tui.NewApp(e.ws, ""), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run ui: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&e.configFile, "config", "c", "", "config file (default is <data dir>/config.yaml)")
	root.PersistentFlags().StringVar(&e.dataDir, "data-dir", "", "data directory (default is <user config dir>/traetodo)")

	root.AddCommand(
		newListCmd(e),
		newAddCmd(e),
		newToggleCmd(e),
		newAskCmd(e),
		newClearCmd(e),
		newExportCmd(e),
		newSettingsCmd(e),
	)
	return root, e
}

// Execute runs the command line. It is called by main.main().
func Execute() {
	root, e := newRootCmd()
	err := root.Execute()
	e.close(nil, nil)
	if err != nil {
		os.Exit(1)
	}
}
