package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cohortlab/cohort/internal/app"
	"github.com/cohortlab/cohort/internal/profile"
)

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [user-id]",
		Short: "Show a user profile",
		Long: `Show a user profile. With no argument, shows your own.

The listing marks which fields you could edit from the dashboard given
your role.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid user id %q", args[0])
				}
				id = parsed
			}

			user, perms, err := app.Profile(cmd.Context(), rootOpts.appOptions(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (#%d)\n", user.FullName(), user.ID)
			rows := []struct{ label, value string }{
				{"Email", user.Email},
				{"Username", user.Username},
				{"Bio", fmt.Sprintf("%s  %s", user.Bio, profile.BioCounter(user.Bio))},
				{"GitHub", user.GithubURL},
				{"Mobile", user.Mobile},
				{"Specialism", user.Specialism},
			}
			for _, row := range rows {
				fmt.Fprintf(out, "  %-12s%s\n", row.label, row.value)
			}
			if perms.CanEdit {
				fmt.Fprintln(out, "  (editable from the dashboard)")
			}
			return nil
		},
	}
}
