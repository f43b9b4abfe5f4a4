package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/events"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

func printTask(w io.Writer, t *model.Task) {
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	fmt.Fprintf(w, "Status:      %s\n", ui.RenderStatus(t.Status))
	fmt.Fprintf(w, "Version:     %d\n", t.Version)
	if t.IsRoot() {
		fmt.Fprintf(w, "Parent:      %s\n", ui.RenderMuted("(root)"))
	} else {
		fmt.Fprintf(w, "Parent:      %s\n", t.ParentID)
	}
	if t.Assignee != "" {
		fmt.Fprintf(w, "Assignee:    %s\n", t.Assignee)
	}
	if t.Estimate != "" {
		fmt.Fprintf(w, "Estimate:    %s\n", t.Estimate)
	}
	if t.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", t.Description)
	}
	if t.Details != "" {
		fmt.Fprintf(w, "Details:     %s\n", t.Details)
	}
	fmt.Fprintf(w, "Created At:  %s\n", formatTime(t.CreatedAt))
	fmt.Fprintf(w, "Updated At:  %s\n", formatTime(t.UpdatedAt))

	if len(t.CompletionConditions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Completion conditions:")
		for _, c := range t.CompletionConditions {
			fmt.Fprintf(w, "  %d. %s\n", c.OrderIndex+1, c.Description)
		}
	}
	if len(t.Artifacts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Artifacts:")
		for _, a := range t.Artifacts {
			title := a.ArtifactID
			if a.Artifact != nil {
				title = a.Artifact.Title
			}
			line := fmt.Sprintf("  [%s] %s %s", a.Role, a.ArtifactID, title)
			if a.CRUDOperations != "" {
				line += " (" + a.CRUDOperations + ")"
			}
			fmt.Fprintln(w, line)
		}
	}
	printSummaries(w, "Depends on:", t.Dependencies)
	printSummaries(w, "Required by:", t.Dependents)
	if len(t.Children) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Children:")
		printTaskRows(w, t.Children)
	}
}

func printSummaries(w io.Writer, heading string, deps []*model.DependencySummary) {
	if len(deps) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range deps {
		arts := make([]string, 0, len(d.Artifacts))
		for _, a := range d.Artifacts {
			arts = append(arts, a.ArtifactID)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			d.DependencyID, d.TaskID, ui.RenderStatus(d.Status), d.Title, strings.Join(arts, ","))
	}
	tw.Flush()
}

func printTaskRows(w io.Writer, tasks []*model.Task) {
	titleWidth := max(ui.Width()-60, 20)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCHILDREN\tVERSION\tTITLE\tASSIGNEE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			t.ID,
			ui.RenderStatus(t.Status),
			t.ChildCount,
			t.Version,
			ui.Truncate(t.Title, titleWidth),
			t.Assignee,
		)
	}
	tw.Flush()
}

func printTaskList(w io.Writer, tasks []*model.Task) {
	printTaskRows(w, tasks)
	fmt.Fprintf(w, "\n%d tasks\n", len(tasks))
}

func printDependency(w io.Writer, d *model.Dependency) {
	fmt.Fprintf(w, "ID:          %s\n", d.ID)
	fmt.Fprintf(w, "From:        %s\n", d.FromTaskID)
	fmt.Fprintf(w, "To:          %s\n", d.ToTaskID)
	fmt.Fprintf(w, "Created At:  %s\n", formatTime(d.CreatedAt))
	if len(d.Artifacts) > 0 {
		ids := make([]string, 0, len(d.Artifacts))
		for _, a := range d.Artifacts {
			ids = append(ids, a.ArtifactID)
		}
		fmt.Fprintf(w, "Artifacts:   %s\n", strings.Join(ids, ", "))
	}
}

func printArtifact(w io.Writer, a *model.Artifact) {
	fmt.Fprintf(w, "ID:          %s\n", a.ID)
	fmt.Fprintf(w, "Title:       %s\n", a.Title)
	if a.URI != "" {
		fmt.Fprintf(w, "URI:         %s\n", a.URI)
	}
	if a.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", a.Description)
	}
	fmt.Fprintf(w, "Version:     %d\n", a.Version)
	fmt.Fprintf(w, "Updated At:  %s\n", formatTime(a.UpdatedAt))
}

func printArtifactList(w io.Writer, artifacts []*model.Artifact) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVERSION\tTITLE\tURI")
	for _, a := range artifacts {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", a.ID, a.Version, ui.Truncate(a.Title, 50), a.URI)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d artifacts\n", len(artifacts))
}

func printEvents(w io.Writer, evs []*model.Event) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range evs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			formatTime(e.CreatedAt), ui.RenderMuted(e.Topic), e.Actor, events.Summary(e))
	}
	tw.Flush()
}
