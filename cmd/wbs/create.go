package main

import (
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/lifecycle"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Long: `Create a task, optionally under a parent, together with its dependencies,
artifacts and completion conditions. The new task starts as draft unless
title, description and estimate are all filled in.`,
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rf, err := readRelationFlags(cmd)
		if err != nil {
			return err
		}

		in := lifecycle.CreateTaskInput{Title: args[0]}
		in.Description, _ = cmd.Flags().GetString("description")
		in.Details, _ = cmd.Flags().GetString("details")
		in.ParentID, _ = cmd.Flags().GetString("parent")
		in.Assignee, _ = cmd.Flags().GetString("assignee")
		in.Estimate, _ = cmd.Flags().GetString("estimate")
		in.Dependencies = rf.deps
		in.Deliverables = rf.deliverables
		in.Prerequisites = rf.prerequisites
		in.CompletionConditions = rf.conditions

		task, err := svc.CreateTask(cmd.Context(), in)
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
	createCmd.Flags().StringP("description", "d", "", "task description")
	createCmd.Flags().String("details", "", "implementation details")
	createCmd.Flags().StringP("parent", "p", "", "parent task id")
	createCmd.Flags().StringP("assignee", "a", "", "assignee")
	createCmd.Flags().StringP("estimate", "e", "", "effort estimate (e.g. 3d)")
	addRelationFlags(createCmd)
}
