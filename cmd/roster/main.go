package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/roster/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "roster: %v\n", err)
		return 1
	}
	return 0
}

// globalFlags are shared by the TUI and every headless subcommand.
type globalFlags struct {
	configPath string
	prefsPath  string
	apiBase    string
	logLevel   string
}

func (g *globalFlags) options(stderr io.Writer) app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		APIBase:    g.apiBase,
		LogLevel:   g.logLevel,
		Stderr:     stderr,
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "roster",
		Short: "Browse and edit a remote user directory",
		Long: `roster keeps a local copy of a JSONPlaceholder-style user directory
and lets you add, edit and delete users against it.

Without a subcommand it starts the terminal UI. The list, add, update and
delete subcommands run a single operation and print the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options(stderr))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is ~/.config/roster/config.toml)")
	root.PersistentFlags().StringVar(&flags.prefsPath, "prefs", "", "UI preferences file (default is ~/.config/roster/prefs.toml)")
	root.PersistentFlags().StringVar(&flags.apiBase, "api", "", "directory base URL, overrides api_base")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn or error")

	root.AddCommand(
		newListCmd(flags),
		newAddCmd(flags),
		newUpdateCmd(flags),
		newDeleteCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "roster %s\n", app.Version)
		},
	}
}
