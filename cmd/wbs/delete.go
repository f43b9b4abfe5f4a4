package main

import (
	"fmt"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a task and its whole subtree",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := svc.DeleteTask(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return model.NotFound("task", args[0])
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "deleted": true})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}
