package main

import (
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:     "events <task-id>",
	Short:   "Show the audit trail of a task",
	GroupID: "system",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		evs, err := svc.TaskEvents(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), evs)
		}
		printEvents(cmd.OutOrStdout(), evs)
		return nil
	},
}
