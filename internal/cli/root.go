// Package cli implements reqctl, the terminal client of the request workflow.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configPath string
	output     string
	verbose    bool

	out    io.Writer
	errOut io.Writer
	in     io.Reader
}

// NewRootCommand builds the reqctl command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "reqctl",
		Short: "Submit and review workflow requests from the terminal",
		Long: `reqctl talks to the request API on behalf of a signed-in user.

Users submit requests and follow their own; managers see every request
and approve or reject the pending ones. The session is kept in the file
configured under session.file and reused until the token expires.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.out = cmd.OutOrStdout()
			opts.errOut = cmd.ErrOrStderr()
			opts.in = cmd.InOrStdin()
			return validateOutput(opts.output)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "configuration file")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "output format: table, json or yaml")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log gateway traffic to stderr")

	cmd.AddCommand(
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newListCommand(opts),
		newCategoriesCommand(opts),
		newShowCommand(opts),
		newHistoryCommand(opts),
		newCreateCommand(opts),
		newApproveCommand(opts),
		newRejectCommand(opts),
		newExportCommand(opts),
	)
	return cmd
}

// Execute runs reqctl and exits non-zero on failure
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}
