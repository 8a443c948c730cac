package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cohortlab/cohort/internal/app"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long: `Log in to the cohort server and store the session token locally.

Email and password are prompted for when not passed as flags. The
session is written to the configured session path and reused by every
other command until you log out.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = ensureEmail(cmd, email); err != nil {
				return err
			}
			if password, err = ensurePassword(cmd, password); err != nil {
				return err
			}

			user, err := app.Login(cmd.Context(), rootOpts.appOptions(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.FullName())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:           "register",
		Short:         "Create an account and log in",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = ensureEmail(cmd, email); err != nil {
				return err
			}
			if password, err = ensurePassword(cmd, password); err != nil {
				return err
			}

			user, err := app.Register(cmd.Context(), rootOpts.appOptions(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Discard the stored session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Logout(rootOpts.appOptions()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func ensureEmail(cmd *cobra.Command, email string) (string, error) {
	if email != "" {
		return email, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Email: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read email: %w", err)
	}
	email = strings.TrimSpace(line)
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	return email, nil
}

func ensurePassword(cmd *cobra.Command, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")

	// Hide the password when stdin is a terminal; fall back to a plain
	// read when input is piped.
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}
