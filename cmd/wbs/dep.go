package main

import (
	"fmt"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/spf13/cobra"
)

var depCmd = &cobra.Command{
	Use:     "dep",
	Short:   "Manage dependencies between tasks",
	GroupID: "relations",
}

var depAddCmd = &cobra.Command{
	Use:   "add <from-task-id> <to-task-id>",
	Short: "Make <to-task-id> depend on <from-task-id>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artifacts, _ := cmd.Flags().GetStringSlice("artifact")
		dep, err := svc.CreateDependency(cmd.Context(), args[0], args[1], artifacts)
		if err != nil {
			return err
		}
		return showDependency(cmd, dep)
	},
}

var depUpdateCmd = &cobra.Command{
	Use:   "update <dependency-id> <from-task-id> <to-task-id>",
	Short: "Change the endpoints and artifacts of a dependency",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		artifacts, _ := cmd.Flags().GetStringSlice("artifact")
		dep, err := svc.UpdateDependency(cmd.Context(), args[0], args[1], args[2], artifacts)
		if err != nil {
			return err
		}
		return showDependency(cmd, dep)
	},
}

var depRemoveCmd = &cobra.Command{
	Use:   "remove <dependency-id>",
	Short: "Remove a dependency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := svc.DeleteDependency(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return model.NotFound("dependency", args[0])
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "deleted": true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Removed dependency")
		return nil
	},
}

var depShowCmd = &cobra.Command{
	Use:   "show <dependency-id>",
	Short: "Show a dependency with its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dep, err := svc.GetDependency(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return showDependency(cmd, dep)
	},
}

func showDependency(cmd *cobra.Command, dep *model.Dependency) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), dep)
	}
	printDependency(cmd.OutOrStdout(), dep)
	return nil
}

func init() {
	depAddCmd.Flags().StringSlice("artifact", nil, "artifact ids handed over along the edge (comma-separated or repeatable)")
	depUpdateCmd.Flags().StringSlice("artifact", nil, "artifact ids handed over along the edge; replaces the current list")

	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depUpdateCmd)
	depCmd.AddCommand(depRemoveCmd)
	depCmd.AddCommand(depShowCmd)
}
