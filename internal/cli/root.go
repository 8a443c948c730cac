// Package cli defines the cohort command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/cohortlab/cohort/internal/app"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Theme      string
	LogLevel   string
}

func (o *RootOptions) appOptions() app.Options {
	return app.Options{
		ConfigPath: o.ConfigPath,
		ThemeName:  o.Theme,
		LogLevel:   o.LogLevel,
	}
}

// NewRootCommand creates the root command for the cohort CLI. Running
// it with no subcommand opens the dashboard.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cohort",
		Short: "Terminal client for the cohort platform",
		Long: `cohort is a terminal client for the cohort learning platform.

It shows a shared post feed with comments, cohort rosters, and user
profiles, and keeps local state in step with the server after every
change. Run it with no arguments to open the dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), opts.appOptions())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file path (default ~/.config/cohort/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.Theme, "theme", "", "dashboard color theme")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (trace|debug|info|warn|error|disabled)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewDashboardCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewDevServerCommand(opts))

	return cmd
}
