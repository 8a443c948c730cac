package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cohortlab/cohort/internal/app"
)

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "search <name>",
		Short:         "Find users by name",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := app.Search(cmd.Context(), rootOpts.appOptions(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "No users matching %q\n", args[0])
				return nil
			}
			for _, user := range results {
				role := "student"
				if user.IsTeacher() {
					role = "teacher"
				}
				fmt.Fprintf(out, "#%-5d %-25s %s\n", user.ID, user.FullName(), role)
			}
			return nil
		},
	}
}
