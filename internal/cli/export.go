package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/approvalflow/workflow-client/internal/report"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	flags := &listFlags{}
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the selected page of requests to a PDF file",
		Long: `Write one page of the request list to a PDF file.

Accepts the same filter, sort and paging flags as list.

Example:
  reqctl export --status pending --dir ./reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			identity, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if err := flags.apply(a.workspace); err != nil {
				return err
			}

			state := a.workspace.ListState()
			data, filename, err := report.BuildPagePDF(report.PageReport{
				GeneratedBy: identity.Name,
				Criteria:    state.Criteria,
				Page:        state.Page,
			})
			if err != nil {
				return fmt.Errorf("failed to build report: %w", err)
			}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			path := filepath.Join(dir, filename)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			fmt.Fprintln(opts.out, path)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&dir, "dir", ".", "directory the PDF is written to")
	return cmd
}
