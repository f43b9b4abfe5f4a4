package main

import (
	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:     "move <id> [new-parent-id]",
	Short:   "Move a task under another parent (or to the root without one)",
	GroupID: "tasks",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parentID := ""
		if len(args) == 2 {
			parentID = args[1]
		}

		task, err := svc.MoveTask(cmd.Context(), args[0], parentID)
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
