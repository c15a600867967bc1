package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/approvalflow/workflow-client/internal/report"
	"github.com/approvalflow/workflow-client/internal/request/model"
	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
	"github.com/approvalflow/workflow-client/internal/system/utils"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q, use table, json or yaml", format)
}

// writeStructured encodes v as JSON or YAML. It reports false for table output.
func writeStructured(w io.Writer, format string, v interface{}) (bool, error) {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return true, encoder.Encode(v)
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return true, err
		}
		return true, encoder.Close()
	}
	return false, nil
}

type whoamiView struct {
	Identity     sessionmodel.Identity     `json:"identity" yaml:"identity"`
	Capabilities sessionmodel.Capabilities `json:"capabilities" yaml:"capabilities"`
}

func renderIdentity(w io.Writer, format string, identity sessionmodel.Identity) error {
	view := whoamiView{Identity: identity, Capabilities: sessionmodel.CapabilitiesOf(identity)}
	if done, err := writeStructured(w, format, view); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", identity.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", identity.Name)
	if identity.Email != "" {
		fmt.Fprintf(tw, "Email:\t%s\n", identity.Email)
	}
	fmt.Fprintf(tw, "Roles:\t%s\n", strings.Join(identity.Roles.Strings(), ", "))
	fmt.Fprintf(tw, "Can submit:\t%s\n", yesNo(view.Capabilities.CanSubmit))
	fmt.Fprintf(tw, "Can review:\t%s\n", yesNo(view.Capabilities.CanReview))
	return tw.Flush()
}

type listView struct {
	model.Page  `yaml:",inline"`
	Criteria    model.FilterCriteria `json:"criteria" yaml:"criteria"`
	PageNumbers []int                `json:"pageNumbers" yaml:"page_numbers"`
}

func renderPage(w io.Writer, format string, view listView) error {
	if done, err := writeStructured(w, format, view); done {
		return err
	}

	if len(view.Items) == 0 {
		fmt.Fprintln(w, "No requests found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRIORITY\tSTATUS\tCREATED BY\tCREATED")
	for _, record := range view.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			record.ID,
			shorten(record.Title, 40),
			record.Category,
			report.PriorityLabel(record.Priority),
			report.StatusLabel(record.Status),
			record.CreatorID,
			utils.FormatDisplayTime(record.CreatedAt),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	pages := make([]string, 0, len(view.PageNumbers))
	for _, number := range view.PageNumbers {
		label := strconv.Itoa(number)
		if number == view.Page.Page {
			label = "[" + label + "]"
		}
		pages = append(pages, label)
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d requests)  %s\n", view.Page.Page, view.TotalPages, view.TotalItems, strings.Join(pages, " "))
	return nil
}

func renderDetail(w io.Writer, format string, detail model.RequestDetail) error {
	if done, err := writeStructured(w, format, detail); done {
		return err
	}

	record := detail.Request
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", record.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", record.Title)
	fmt.Fprintf(tw, "Category:\t%s\n", record.Category)
	fmt.Fprintf(tw, "Priority:\t%s\n", report.PriorityLabel(record.Priority))
	fmt.Fprintf(tw, "Status:\t%s\n", report.StatusLabel(record.Status))
	fmt.Fprintf(tw, "Created by:\t%s\n", record.CreatorID)
	fmt.Fprintf(tw, "Created at:\t%s\n", utils.FormatDisplayTime(record.CreatedAt))
	if record.UpdatedAt != nil {
		fmt.Fprintf(tw, "Updated at:\t%s\n", utils.FormatDisplayTime(*record.UpdatedAt))
	}
	fmt.Fprintf(tw, "Can act:\t%s\n", yesNo(detail.CanAct))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n", record.Description)
	if len(detail.History) > 0 {
		fmt.Fprintln(w)
		return renderHistoryTable(w, detail.History)
	}
	return nil
}

func renderHistory(w io.Writer, format string, history []model.HistoryEntry) error {
	if done, err := writeStructured(w, format, history); done {
		return err
	}
	if len(history) == 0 {
		fmt.Fprintln(w, "No history recorded.")
		return nil
	}
	return renderHistoryTable(w, history)
}

func renderHistoryTable(w io.Writer, history []model.HistoryEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACTION\tBY\tDETAILS")
	for _, entry := range history {
		details := entry.Description
		if entry.OldValue != "" || entry.NewValue != "" {
			details = strings.TrimSpace(details + " " + entry.OldValue + " -> " + entry.NewValue)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", utils.FormatDisplayTime(entry.Timestamp), entry.Action, entry.ActorID, details)
	}
	return tw.Flush()
}

func renderCategories(w io.Writer, format string, categories []string) error {
	if done, err := writeStructured(w, format, map[string][]string{"categories": categories}); done {
		return err
	}
	for _, category := range categories {
		fmt.Fprintln(w, category)
	}
	return nil
}

func shorten(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
