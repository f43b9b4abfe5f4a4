package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/config"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/lifecycle"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/store/sqlstore"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/ui"
	"github.com/spf13/cobra"
)

var (
	configPath string
	jsonOutput bool
	actor      string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
	db     *sqlstore.Store
	svc    *lifecycle.Service
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultConfigPath() string {
	if p := os.Getenv("WBS_CONFIG"); p != "" {
		return p
	}
	return ".wbs/config.toml"
}

var rootCmd = &cobra.Command{
	Use:           "wbs <command>",
	Short:         "Work-breakdown structure manager",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.ForceNoColor()
		} else {
			ui.Configure()
		}

		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return err
		}
		level, err := cfg.SlogLevel()
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

		if cmd.Annotations["store"] == "none" {
			return nil
		}

		pool, ok := sqlstore.PoolFrom(cmd.Context())
		if !ok {
			return errors.New("no store pool in command context")
		}
		driver, err := sqlstore.ParseDriver(cfg.DatabaseDriver)
		if err != nil {
			return err
		}
		db, err = pool.Open(cmd.Context(), driver, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open %s store: %w", driver, err)
		}
		logger.Debug("store opened", "driver", db.Driver())

		svc = lifecycle.New(db, logger)
		switch {
		case cmd.Flags().Changed("actor"):
			svc.SetActor(actor)
		case cfg.Actor != "":
			svc.SetActor(cfg.Actor)
		default:
			svc.SetActor(actor)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to the TOML config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name recorded on events")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Tasks:"},
		&cobra.Group{ID: "relations", Title: "Dependencies & Artifacts:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(helpFunc)

	// Tasks
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(leavesCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statusCmd)

	// Dependencies & Artifacts
	rootCmd.AddCommand(depCmd)
	rootCmd.AddCommand(artifactCmd)

	// System
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(configCmd)
}

// execute runs the root command with a fresh store pool and closes the pool
// afterwards, even when the command failed.
func execute(args []string) error {
	pool := sqlstore.NewPool()
	ctx := sqlstore.WithPool(context.Background(), pool)
	setContext(rootCmd, ctx)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if cerr := pool.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// setContext replaces the context of cmd and all its subcommands. Cobra only
// hands the root context to a subcommand that has none yet.
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(sub, ctx)
	}
}

func main() {
	if err := execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		os.Exit(1)
	}
}

// describeError prefixes domain errors with their kind.
func describeError(err error) string {
	var nf *model.NotFoundError
	var ce *model.ConflictError
	var ve *model.ValidationError
	if errors.As(err, &nf) || errors.As(err, &ce) || errors.As(err, &ve) {
		return fmt.Sprintf("[%s] %v", model.KindOf(err), err)
	}
	return err.Error()
}
