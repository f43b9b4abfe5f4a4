package main

import (
	"fmt"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/lifecycle"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/spf13/cobra"
)

var artifactCmd = &cobra.Command{
	Use:     "artifact",
	Aliases: []string{"art"},
	Short:   "Manage artifacts (documents and other work products)",
	GroupID: "relations",
}

var artifactAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Register an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := lifecycle.CreateArtifactInput{Title: args[0]}
		in.URI, _ = cmd.Flags().GetString("uri")
		in.Description, _ = cmd.Flags().GetString("description")

		a, err := svc.CreateArtifact(cmd.Context(), in)
		if err != nil {
			return err
		}
		return showArtifact(cmd, a)
	},
}

var artifactShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := svc.GetArtifact(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return showArtifact(cmd, a)
	},
}

var artifactListCmd = &cobra.Command{
	Use:   "list",
	Short: "List artifacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		artifacts, err := svc.ListArtifacts(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), artifacts)
		}
		printArtifactList(cmd.OutOrStdout(), artifacts)
		return nil
	},
}

var artifactUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := svc.UpdateArtifact(cmd.Context(), args[0], lifecycle.UpdateArtifactInput{
			Title:       optionalString(cmd, "title"),
			URI:         optionalString(cmd, "uri"),
			Description: optionalString(cmd, "description"),
		})
		if err != nil {
			return err
		}
		return showArtifact(cmd, a)
	},
}

var artifactRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an artifact and detach it from tasks and dependencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := svc.DeleteArtifact(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return model.NotFound("artifact", args[0])
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "deleted": true})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	},
}

func showArtifact(cmd *cobra.Command, a *model.Artifact) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), a)
	}
	printArtifact(cmd.OutOrStdout(), a)
	return nil
}

func init() {
	artifactAddCmd.Flags().String("uri", "", "location of the artifact")
	artifactAddCmd.Flags().StringP("description", "d", "", "artifact description")

	artifactUpdateCmd.Flags().StringP("title", "t", "", "new title")
	artifactUpdateCmd.Flags().String("uri", "", "new location")
	artifactUpdateCmd.Flags().StringP("description", "d", "", "new description")

	artifactCmd.AddCommand(artifactAddCmd)
	artifactCmd.AddCommand(artifactShowCmd)
	artifactCmd.AddCommand(artifactListCmd)
	artifactCmd.AddCommand(artifactUpdateCmd)
	artifactCmd.AddCommand(artifactRemoveCmd)
}
