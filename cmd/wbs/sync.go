package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/config"
	wbssync "github.com/nojaja/wbs-manager-mcp-sub001/internal/sync"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the JSONL export to the configured S3 and git destinations",
	Long: `Export the store and write it to every configured destination. With
--watch the export repeats every sync interval until interrupted.`,
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dests, err := syncDestinations(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if len(dests) == 0 {
			return errors.New("no sync destination configured (set WBS_SYNC_S3_BUCKET or WBS_SYNC_GIT_REPO)")
		}

		watch, _ := cmd.Flags().GetBool("watch")
		scheduler := wbssync.NewScheduler(db, dests, cfg.SyncInterval, logger)
		if !watch {
			return scheduler.SyncOnce(cmd.Context())
		}
		if cfg.SyncInterval <= 0 {
			return errors.New("--watch needs a positive sync interval (WBS_SYNC_INTERVAL)")
		}

		scheduler.Start()
		logger.Info("sync scheduler started", "interval", cfg.SyncInterval, "destinations", len(dests))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		scheduler.Stop()
		logger.Info("sync scheduler stopped")
		return nil
	},
}

// syncDestinations builds the destinations enabled in cfg.
func syncDestinations(ctx context.Context, cfg *config.Config) ([]wbssync.Destination, error) {
	var dests []wbssync.Destination

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := wbssync.NewS3Destination(ctx,
			cfg.SyncS3Bucket,
			cfg.SyncS3Key,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			return nil, err
		}
		dests = append(dests, s3Dest)
		logger.Debug("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
	}

	if cfg.SyncGitRepo != "" {
		dests = append(dests, wbssync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Debug("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}

	return dests, nil
}

func init() {
	syncCmd.Flags().Bool("watch", false, "keep syncing every interval until interrupted")
}
