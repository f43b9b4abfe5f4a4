package main

import (
	"fmt"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <id> [requested-status]",
	Short: "Recompute a task's status, optionally requesting or forcing one",
	Long: `Recompute the status of a task from its fields, dependees and children,
then propagate the result to its ancestors. A requested status steers the
fallback rules; with --force it is applied as-is.

Statuses: ` + statusNames + `.`,
	GroupID: "tasks",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var requested model.Status
		if len(args) == 2 {
			requested = model.Status(args[1])
		}
		force, _ := cmd.Flags().GetBool("force")
		if force && requested == "" {
			return model.Invalid("status", "--force needs a requested status")
		}

		decision, err := svc.UpdateTaskStatus(cmd.Context(), args[0], requested, force)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), decision)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%s)\n", args[0], ui.RenderStatus(decision.Status), decision.Reason)
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("force", false, "apply the requested status without evaluating the rules")
}
