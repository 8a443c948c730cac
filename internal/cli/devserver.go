package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cohortlab/cohort/internal/api"
	"github.com/cohortlab/cohort/internal/harness"
)

// NewDevServerCommand creates the dev-server command. It runs the
// in-memory server the client is developed and demoed against.
func NewDevServerCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string
	var seed bool

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run a local in-memory cohort server",
		Long: `Run a local in-memory cohort server for development and demos.

All data lives in memory and is gone when the process exits. With
--seed, a cohort and two accounts are created:

  teacher@example.com / teacher
  student@example.com / student`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := harness.New()

			if seed {
				cohortID := server.SeedCohort("Cohort 4")
				if _, err := server.SeedUser(api.User{
					Email: "teacher@example.com", FirstName: "Tessa", LastName: "Teacher",
					Role: api.RoleTeacher, CohortID: cohortID,
				}, "teacher"); err != nil {
					return err
				}
				if _, err := server.SeedUser(api.User{
					Email: "student@example.com", FirstName: "Sam", LastName: "Student",
					Role: api.RoleStudent, CohortID: cohortID,
				}, "student"); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cohort dev server listening on %s\n", addr)
			return server.ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:4000", "listen address")
	cmd.Flags().BoolVar(&seed, "seed", true, "seed a demo cohort and accounts")
	return cmd
}
