// Package config loads runtime settings from the environment, optionally
// layered over a TOML file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DatabaseDriver string // WBS_DATABASE_DRIVER (default "sqlite"; or "postgres")
	DatabaseURL    string // WBS_DATABASE_URL (default ".wbs/wbs.db")
	LogLevel       string // WBS_LOG_LEVEL (default "info")
	Actor          string // WBS_ACTOR (optional, recorded on audit events)

	// Sync settings
	SyncInterval   time.Duration // WBS_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // WBS_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // WBS_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // WBS_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // WBS_SYNC_S3_KEY (default "wbs/export.jsonl")
	SyncGitRepo    string        // WBS_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // WBS_SYNC_GIT_FILE (default "wbs.jsonl")
	SyncGitBranch  string        // WBS_SYNC_GIT_BRANCH (default "main")
}

// File is the on-disk TOML layout.
type File struct {
	Actor    string       `toml:"actor,omitempty"`
	Database DatabaseFile `toml:"database"`
	Log      LogFile      `toml:"log"`
	Sync     SyncFile     `toml:"sync"`
}

type DatabaseFile struct {
	Driver string `toml:"driver,omitempty"`
	URL    string `toml:"url,omitempty"`
}

type LogFile struct {
	Level string `toml:"level,omitempty"`
}

type SyncFile struct {
	Interval string      `toml:"interval,omitempty"`
	S3       SyncS3File  `toml:"s3"`
	Git      SyncGitFile `toml:"git"`
}

type SyncS3File struct {
	Bucket   string `toml:"bucket,omitempty"`
	Endpoint string `toml:"endpoint,omitempty"`
	Region   string `toml:"region,omitempty"`
	Key      string `toml:"key,omitempty"`
}

type SyncGitFile struct {
	Repo   string `toml:"repo,omitempty"`
	File   string `toml:"file,omitempty"`
	Branch string `toml:"branch,omitempty"`
}

// Load reads the configuration from the environment only.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads path (if non-empty and present) and overlays the
// environment on top of it. Environment variables win.
func LoadFile(path string) (*Config, error) {
	var f File
	if path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	c := &Config{
		DatabaseDriver: strings.ToLower(envOr("WBS_DATABASE_DRIVER", f.Database.Driver, "sqlite")),
		DatabaseURL:    envOr("WBS_DATABASE_URL", f.Database.URL, ".wbs/wbs.db"),
		LogLevel:       strings.ToLower(envOr("WBS_LOG_LEVEL", f.Log.Level, "info")),
		Actor:          envOr("WBS_ACTOR", f.Actor, ""),
		SyncS3Bucket:   envOr("WBS_SYNC_S3_BUCKET", f.Sync.S3.Bucket, ""),
		SyncS3Endpoint: envOr("WBS_SYNC_S3_ENDPOINT", f.Sync.S3.Endpoint, ""),
		SyncS3Region:   envOr("WBS_SYNC_S3_REGION", f.Sync.S3.Region, "us-east-1"),
		SyncS3Key:      envOr("WBS_SYNC_S3_KEY", f.Sync.S3.Key, "wbs/export.jsonl"),
		SyncGitRepo:    envOr("WBS_SYNC_GIT_REPO", f.Sync.Git.Repo, ""),
		SyncGitFile:    envOr("WBS_SYNC_GIT_FILE", f.Sync.Git.File, "wbs.jsonl"),
		SyncGitBranch:  envOr("WBS_SYNC_GIT_BRANCH", f.Sync.Git.Branch, "main"),
	}

	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("WBS_DATABASE_DRIVER: unsupported driver %q", c.DatabaseDriver)
	}
	if _, err := c.SlogLevel(); err != nil {
		return nil, fmt.Errorf("WBS_LOG_LEVEL: %w", err)
	}

	intervalStr := envOr("WBS_SYNC_INTERVAL", f.Sync.Interval, "0")
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("WBS_SYNC_INTERVAL: %w", err)
	}
	if d < 0 {
		return nil, fmt.Errorf("WBS_SYNC_INTERVAL: must not be negative")
	}
	c.SyncInterval = d

	return c, nil
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return l, nil
}

// File converts the configuration back into its TOML layout.
func (c *Config) File() File {
	f := File{
		Actor:    c.Actor,
		Database: DatabaseFile{Driver: c.DatabaseDriver, URL: c.DatabaseURL},
		Log:      LogFile{Level: c.LogLevel},
		Sync: SyncFile{
			S3: SyncS3File{
				Bucket:   c.SyncS3Bucket,
				Endpoint: c.SyncS3Endpoint,
				Region:   c.SyncS3Region,
				Key:      c.SyncS3Key,
			},
			Git: SyncGitFile{
				Repo:   c.SyncGitRepo,
				File:   c.SyncGitFile,
				Branch: c.SyncGitBranch,
			},
		},
	}
	if c.SyncInterval > 0 {
		f.Sync.Interval = c.SyncInterval.String()
	}
	return f
}

// WriteTOML encodes the configuration as TOML.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c.File())
}

// envOr returns the environment value of key, then fileVal, then fallback.
func envOr(key, fileVal, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if fileVal != "" {
		return fileVal
	}
	return fallback
}
