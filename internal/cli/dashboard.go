package cli

import (
	"github.com/spf13/cobra"

	"github.com/cohortlab/cohort/internal/app"
)

// NewDashboardCommand creates the dashboard command. It duplicates the
// bare root invocation for people who prefer an explicit verb.
func NewDashboardCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dashboard",
		Short:         "Open the dashboard",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), rootOpts.appOptions())
		},
	}
}
