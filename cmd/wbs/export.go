package main

import (
	"fmt"
	"os"

	wbssync "github.com/nojaja/wbs-manager-mcp-sub001/internal/sync"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export all tasks and artifacts as JSONL",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" || output == "-" {
			return wbssync.ExportJSONL(cmd.Context(), db, cmd.OutOrStdout())
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		if err := wbssync.ExportJSONL(cmd.Context(), db, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", output, err)
		}
		logger.Info("export written", "path", output)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
}
