package main

import (
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/lifecycle"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a task",
	Long: `Update the fields and collections of a task. Only the flags given are
changed. A collection flag replaces the whole collection; pass it once with
an empty value (e.g. --dep "") to clear it.`,
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rf, err := readRelationFlags(cmd)
		if err != nil {
			return err
		}

		in := lifecycle.UpdateTaskInput{
			Title:                optionalString(cmd, "title"),
			Description:          optionalString(cmd, "description"),
			Details:              optionalString(cmd, "details"),
			Assignee:             optionalString(cmd, "assignee"),
			Estimate:             optionalString(cmd, "estimate"),
			Dependencies:         rf.deps,
			Deliverables:         rf.deliverables,
			Prerequisites:        rf.prerequisites,
			CompletionConditions: rf.conditions,
		}
		if cmd.Flags().Changed("if-version") {
			v, _ := cmd.Flags().GetInt("if-version")
			in.IfVersion = &v
		}

		task, err := svc.UpdateTask(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), task)
		}
		printTask(cmd.OutOrStdout(), task)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringP("title", "t", "", "new title")
	updateCmd.Flags().StringP("description", "d", "", "new description")
	updateCmd.Flags().String("details", "", "new implementation details")
	updateCmd.Flags().StringP("assignee", "a", "", "new assignee")
	updateCmd.Flags().StringP("estimate", "e", "", "new estimate")
	updateCmd.Flags().Int("if-version", 0, "fail unless the stored version equals this value")
	addRelationFlags(updateCmd)
}
