package main

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Inspect the effective configuration",
	GroupID: "system",
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration as TOML",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"store": "none"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), cfg.File())
		}
		return cfg.WriteTOML(cmd.OutOrStdout())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
