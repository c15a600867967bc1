package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var credentials sessionmodel.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		Long: `Sign in with an e-mail and password.

When --password is omitted it is read from the first line of stdin.

Examples:
  reqctl login --email maria@example.com
  echo "$PASSWORD" | reqctl login --email maria@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if credentials.Password == "" {
				fmt.Fprint(opts.errOut, "Password: ")
				line, err := bufio.NewReader(opts.in).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				credentials.Password = strings.TrimRight(line, "\r\n")
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			identity, svcErr := a.session.Login(cmd.Context(), credentials)
			if svcErr != nil {
				return asError(svcErr)
			}

			if opts.output != outputTable {
				return renderIdentity(opts.out, opts.output, *identity)
			}
			fmt.Fprintf(opts.out, "Signed in as %s (%s)\n", identity.Name, identity.PrimaryRole())
			return nil
		},
	}

	cmd.Flags().StringVarP(&credentials.Email, "email", "e", "", "account e-mail")
	cmd.Flags().StringVarP(&credentials.Password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			_, _ = a.session.Restore(cmd.Context())
			if svcErr := a.session.Logout(cmd.Context()); svcErr != nil {
				return asError(svcErr)
			}
			fmt.Fprintln(opts.out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity and what it may do",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			identity, err := a.restore(cmd.Context())
			if err != nil {
				return err
			}
			return renderIdentity(opts.out, opts.output, *identity)
		},
	}
}
