package main

import (
	"fmt"
	"strings"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/spf13/cobra"
)

// parseDependencies converts --dep values of the form
// "<task-id>[:<artifact-id>,<artifact-id>...]" into dependency inputs.
// Blank values are skipped, so `--dep ""` yields an empty, non-nil list.
func parseDependencies(values []string) ([]model.DependencyInput, error) {
	out := make([]model.DependencyInput, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		taskID, arts, _ := strings.Cut(v, ":")
		taskID = strings.TrimSpace(taskID)
		if taskID == "" {
			return nil, fmt.Errorf("invalid dependency %q: expected <task-id>[:<artifact-ids>]", v)
		}
		out = append(out, model.DependencyInput{TaskID: taskID, Artifacts: splitList(arts)})
	}
	return out, nil
}

// parseArtifactRefs converts --deliverable/--prerequisite values of the form
// "<artifact-id>[:<crud-operations>]" into artifact references.
func parseArtifactRefs(values []string) ([]model.ArtifactRef, error) {
	out := make([]model.ArtifactRef, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, crud, _ := strings.Cut(v, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("invalid artifact reference %q: expected <artifact-id>[:<crud>]", v)
		}
		out = append(out, model.ArtifactRef{ArtifactID: id, CRUDOperations: strings.TrimSpace(crud)})
	}
	return out, nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// relationFlags holds the collections shared by create and update.
type relationFlags struct {
	deps          []model.DependencyInput
	deliverables  []model.ArtifactRef
	prerequisites []model.ArtifactRef
	conditions    []string
}

func addRelationFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("dep", nil, "dependee task, optionally with artifacts: <task-id>[:<artifact-id>,...] (repeatable)")
	cmd.Flags().StringArray("deliverable", nil, "deliverable artifact: <artifact-id>[:<crud>] (repeatable)")
	cmd.Flags().StringArray("prerequisite", nil, "prerequisite artifact: <artifact-id>[:<crud>] (repeatable)")
	cmd.Flags().StringArray("condition", nil, "completion condition (repeatable)")
}

// readRelationFlags parses the relation flags. A collection is nil unless
// its flag was given, so that updates leave untouched collections alone.
func readRelationFlags(cmd *cobra.Command) (relationFlags, error) {
	var (
		rf  relationFlags
		err error
	)
	if cmd.Flags().Changed("dep") {
		values, _ := cmd.Flags().GetStringArray("dep")
		if rf.deps, err = parseDependencies(values); err != nil {
			return rf, err
		}
	}
	if cmd.Flags().Changed("deliverable") {
		values, _ := cmd.Flags().GetStringArray("deliverable")
		if rf.deliverables, err = parseArtifactRefs(values); err != nil {
			return rf, err
		}
	}
	if cmd.Flags().Changed("prerequisite") {
		values, _ := cmd.Flags().GetStringArray("prerequisite")
		if rf.prerequisites, err = parseArtifactRefs(values); err != nil {
			return rf, err
		}
	}
	if cmd.Flags().Changed("condition") {
		values, _ := cmd.Flags().GetStringArray("condition")
		rf.conditions = append([]string{}, values...)
	}
	return rf, nil
}

// optionalString returns a pointer to the flag value when the flag was given.
func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}
