package main

import (
	"fmt"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list [parent-id]",
	Short:   "List the root tasks or the children of a task",
	GroupID: "tasks",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTaskList(cmd, args, false)
	},
}

var leavesCmd = &cobra.Command{
	Use:     "leaves [parent-id]",
	Short:   "List the tasks without children below a task (or in the whole tree)",
	GroupID: "tasks",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTaskList(cmd, args, true)
	},
}

func runTaskList(cmd *cobra.Command, args []string, leaves bool) error {
	parentID := ""
	if len(args) > 0 {
		parentID = args[0]
	}
	filter, _ := cmd.Flags().GetString("status")
	var st model.Status
	if filter != "" {
		parsed, ok := model.ParseStatus(filter)
		if !ok {
			return model.Invalid("status", fmt.Sprintf("invalid value %q", filter))
		}
		st = parsed
	}

	var (
		tasks []*model.Task
		err   error
	)
	if leaves {
		tasks, err = svc.LeafTaskList(cmd.Context(), parentID, st)
	} else {
		tasks, err = svc.ListTasks(cmd.Context(), parentID, st)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), tasks)
	}
	printTaskList(cmd.OutOrStdout(), tasks)
	return nil
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "only tasks with this status ("+statusNames+")")
	leavesCmd.Flags().StringP("status", "s", "", "only tasks with this status ("+statusNames+")")
}
