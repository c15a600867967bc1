package cli

import (
	"github.com/spf13/cobra"

	"github.com/approvalflow/workflow-client/internal/request/model"
	"github.com/approvalflow/workflow-client/internal/workspace"
)

// listFlags are the list view controls shared by list and export
type listFlags struct {
	status    string
	category  string
	priority  string
	search    string
	createdBy string
	orderBy   string
	direction string
	page      int
	pageSize  int
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "only requests in this status (pending, approved, rejected)")
	cmd.Flags().StringVar(&f.category, "category", "", "only requests in this category")
	cmd.Flags().StringVar(&f.priority, "priority", "", "only requests with this priority (low, medium, high)")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive text in title or description")
	cmd.Flags().StringVar(&f.createdBy, "created-by", "", "only requests created by this user id (managers)")
	cmd.Flags().StringVar(&f.orderBy, "sort", "", "order by created_at, title, category, priority or status")
	cmd.Flags().StringVar(&f.direction, "direction", "", "asc or desc")
	cmd.Flags().IntVar(&f.page, "page", 1, "page to show")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "requests per page")
}

func (f *listFlags) criteria() model.FilterCriteria {
	return model.FilterCriteria{
		Status:         model.Status(f.status),
		Category:       f.category,
		Priority:       model.Priority(f.priority),
		Search:         f.search,
		CreatedBy:      f.createdBy,
		OrderBy:        model.OrderField(f.orderBy),
		OrderDirection: model.OrderDirection(f.direction),
	}
}

// apply drives the workspace to the view described by the flags
func (f *listFlags) apply(ws *workspace.Workspace) error {
	if f.pageSize != 0 {
		if _, svcErr := ws.SetPageSize(f.pageSize); svcErr != nil {
			return asError(svcErr)
		}
	}
	if _, svcErr := ws.ApplyFilters(f.criteria()); svcErr != nil {
		return asError(svcErr)
	}
	ws.SetPage(f.page)
	return nil
}

func newListCommand(opts *rootOptions) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests",
		Long: `List requests one page at a time.

Users see their own requests; managers see every request.

Examples:
  reqctl list                                  # newest first
  reqctl list --status pending --sort priority --direction desc
  reqctl list --search laptop --page 2 --page-size 20
  reqctl list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.load(cmd.Context()); err != nil {
				return err
			}
			if err := flags.apply(a.workspace); err != nil {
				return err
			}

			state := a.workspace.ListState()
			return renderPage(opts.out, opts.output, listView{
				Page:        state.Page,
				Criteria:    state.Criteria,
				PageNumbers: state.PageNumbers,
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newCategoriesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories present in the visible requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.load(cmd.Context()); err != nil {
				return err
			}
			return renderCategories(opts.out, opts.output, a.workspace.Categories())
		},
	}
}
