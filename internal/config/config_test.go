package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// allEnvVars lists every variable Load reads; they are cleared between tests.
var allEnvVars = []string{
	"WBS_DATABASE_DRIVER", "WBS_DATABASE_URL", "WBS_LOG_LEVEL", "WBS_ACTOR",
	"WBS_SYNC_INTERVAL", "WBS_SYNC_S3_BUCKET", "WBS_SYNC_S3_ENDPOINT",
	"WBS_SYNC_S3_REGION", "WBS_SYNC_S3_KEY", "WBS_SYNC_GIT_REPO",
	"WBS_SYNC_GIT_FILE", "WBS_SYNC_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name       string
		env        map[string]string
		wantErr    bool
		wantDriver string
		wantURL    string
		wantLevel  slog.Level
	}{
		{
			name:       "Defaults",
			env:        map[string]string{},
			wantDriver: "sqlite",
			wantURL:    ".wbs/wbs.db",
			wantLevel:  slog.LevelInfo,
		},
		{
			name: "Postgres",
			env: map[string]string{
				"WBS_DATABASE_DRIVER": "Postgres",
				"WBS_DATABASE_URL":    "postgres://db:5432/wbs",
				"WBS_LOG_LEVEL":       "DEBUG",
			},
			wantDriver: "postgres",
			wantURL:    "postgres://db:5432/wbs",
			wantLevel:  slog.LevelDebug,
		},
		{
			name:    "UnknownDriver",
			env:     map[string]string{"WBS_DATABASE_DRIVER": "mysql"},
			wantErr: true,
		},
		{
			name:    "BadLogLevel",
			env:     map[string]string{"WBS_LOG_LEVEL": "chatty"},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DatabaseDriver != tc.wantDriver {
				t.Errorf("DatabaseDriver = %q, want %q", cfg.DatabaseDriver, tc.wantDriver)
			}
			if cfg.DatabaseURL != tc.wantURL {
				t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, tc.wantURL)
			}
			level, err := cfg.SlogLevel()
			if err != nil || level != tc.wantLevel {
				t.Errorf("SlogLevel = %v, %v; want %v", level, err, tc.wantLevel)
			}
		})
	}
}

func TestLoadSyncDefaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 0 {
		t.Errorf("SyncInterval = %v, want 0", cfg.SyncInterval)
	}
	if cfg.SyncS3Region != "us-east-1" {
		t.Errorf("SyncS3Region = %q", cfg.SyncS3Region)
	}
	if cfg.SyncS3Key != "wbs/export.jsonl" {
		t.Errorf("SyncS3Key = %q", cfg.SyncS3Key)
	}
	if cfg.SyncGitFile != "wbs.jsonl" || cfg.SyncGitBranch != "main" {
		t.Errorf("git = %q on %q", cfg.SyncGitFile, cfg.SyncGitBranch)
	}
}

func TestLoadSyncInterval(t *testing.T) {
	for _, tc := range []struct {
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"90s", 90 * time.Second, false},
		{"0", 0, false},
		{"soon", 0, true},
		{"-1m", 0, true},
	} {
		t.Run(tc.value, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv("WBS_SYNC_INTERVAL", tc.value)

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.SyncInterval != tc.want {
				t.Errorf("SyncInterval = %v, want %v", cfg.SyncInterval, tc.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearAllEnv(t)
	path := filepath.Join(t.TempDir(), "wbs.toml")
	content := `
actor = "planner"

[database]
driver = "postgres"
url = "postgres://file/wbs"

[sync]
interval = "5m"

[sync.git]
repo = "/srv/wbs-backup"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WBS_DATABASE_URL", "postgres://env/wbs")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseDriver != "postgres" {
		t.Errorf("DatabaseDriver = %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL != "postgres://env/wbs" {
		t.Errorf("environment should win, DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Actor != "planner" || cfg.SyncInterval != 5*time.Minute || cfg.SyncGitRepo != "/srv/wbs-backup" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SyncGitBranch != "main" {
		t.Errorf("SyncGitBranch = %q", cfg.SyncGitBranch)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	clearAllEnv(t)
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Errorf("DatabaseDriver = %q", cfg.DatabaseDriver)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	clearAllEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[database\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestWriteTOMLRoundTrip(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("WBS_SYNC_INTERVAL", "2m")
	t.Setenv("WBS_SYNC_S3_BUCKET", "wbs-exports")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := cfg.WriteTOML(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `bucket = "wbs-exports"`) {
		t.Fatalf("encoded config:\n%s", buf.String())
	}

	path := filepath.Join(t.TempDir(), "wbs.toml")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	clearAllEnv(t)
	again, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if *again != *cfg {
		t.Fatalf("reloaded = %+v, want %+v", again, cfg)
	}
}
