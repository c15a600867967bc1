package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/approvalflow/workflow-client/internal/request/model"
)

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a request with its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.restore(cmd.Context()); err != nil {
				return err
			}
			detail, svcErr := a.workspace.Detail(cmd.Context(), args[0])
			if svcErr != nil {
				return asError(svcErr)
			}
			return renderDetail(opts.out, opts.output, *detail)
		},
	}
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the audit history of a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.restore(cmd.Context()); err != nil {
				return err
			}
			history, svcErr := a.workspace.History(cmd.Context(), args[0])
			if svcErr != nil {
				return asError(svcErr)
			}
			return renderHistory(opts.out, opts.output, history)
		},
	}
}

func newCreateCommand(opts *rootOptions) *cobra.Command {
	var draft struct {
		title       string
		description string
		category    string
		priority    string
	}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Submit a new request",
		Long: `Submit a new request for review.

Example:
  reqctl new --title "New laptop" --category IT --priority high \
    --description "The current one no longer boots"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.restore(cmd.Context()); err != nil {
				return err
			}
			created, svcErr := a.workspace.Create(cmd.Context(), model.Draft{
				Title:       draft.title,
				Description: draft.description,
				Category:    draft.category,
				Priority:    model.Priority(draft.priority),
			})
			if svcErr != nil {
				return asError(svcErr)
			}

			if created == nil {
				fmt.Fprintln(opts.out, "Request submitted")
				return nil
			}
			if done, err := writeStructured(opts.out, opts.output, created); done {
				return err
			}
			fmt.Fprintf(opts.out, "Request %s submitted\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&draft.title, "title", "t", "", "short title, at least 3 characters")
	cmd.Flags().StringVarP(&draft.description, "description", "d", "", "what is needed and why, at least 10 characters")
	cmd.Flags().StringVar(&draft.category, "category", "", "request category")
	cmd.Flags().StringVar(&draft.priority, "priority", string(model.PriorityMedium), "low, medium or high")
	return cmd
}

func newApproveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending request (managers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.restore(cmd.Context()); err != nil {
				return err
			}
			detail, svcErr := a.workspace.Approve(cmd.Context(), args[0])
			if svcErr != nil {
				return asError(svcErr)
			}
			if done, err := writeStructured(opts.out, opts.output, detail); done {
				return err
			}
			fmt.Fprintf(opts.out, "Request %s approved\n", args[0])
			return nil
		},
	}
}

func newRejectCommand(opts *rootOptions) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending request with a reason (managers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.restore(cmd.Context()); err != nil {
				return err
			}
			detail, svcErr := a.workspace.Reject(cmd.Context(), args[0], reason)
			if svcErr != nil {
				return asError(svcErr)
			}
			if done, err := writeStructured(opts.out, opts.output, detail); done {
				return err
			}
			fmt.Fprintf(opts.out, "Request %s rejected\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the request is rejected, at least 5 characters")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
