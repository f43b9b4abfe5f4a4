// Package sqlstore implements the store.Store interface on a relational
// database. PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite) share the same
// queries; only the schema migrations differ per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/store"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Driver names a supported database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver validates a driver name.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case DriverSQLite, DriverPostgres:
		return d, nil
	case "":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

// sqlitePragmas are applied to every SQLite connection. Foreign keys must be
// on for the cascading deletes the schema relies on.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// Store implements store.Store backed by a *sql.DB.
type Store struct {
	queries
	db     *sql.DB
	driver Driver
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New opens a connection to the database, configures the connection pool,
// and runs any pending migrations. For SQLite the dsn is a file path.
func New(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dsn != "" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open database %s: %w", dsn, err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{queries: queries{db: db}, db: db, driver: driver}, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqlitePragmas
	}
	return path + "?" + sqlitePragmas
}

func runMigrations(db *sql.DB, driver Driver) error {
	sub, err := fs.Sub(migrationsFS, "migrations/"+string(driver))
	if err != nil {
		return fmt.Errorf("locate migrations: %w", err)
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	var dbDriver database.Driver
	switch driver {
	case DriverPostgres:
		dbDriver, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverSQLite:
		dbDriver, err = sqlite.WithInstance(db, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(driver), dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Driver reports the backend this store talks to.
func (s *Store) Driver() Driver {
	return s.driver
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w: %w", model.ErrStorage, err)
	}

	txS := &txStore{queries: queries{db: tx}, tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w: %w", model.ErrStorage, err)
	}
	return nil
}

// Multi-statement writes run in their own transaction when called on the
// top-level store, so edge and link rows are never left half written.

func (s *Store) MoveTask(ctx context.Context, id, newParentID string, at time.Time) (*model.Task, error) {
	var moved *model.Task
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		moved, err = tx.MoveTask(ctx, id, newParentID, at)
		return err
	})
	return moved, err
}

func (s *Store) CreateDependency(ctx context.Context, dep *model.Dependency, artifactIDs []string) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.CreateDependency(ctx, dep, artifactIDs)
	})
}

func (s *Store) UpdateDependency(ctx context.Context, dep *model.Dependency, artifactIDs []string) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.UpdateDependency(ctx, dep, artifactIDs)
	})
}

func (s *Store) SyncDependees(ctx context.Context, taskID string, deps []model.DependencyInput, at time.Time) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.SyncDependees(ctx, taskID, deps, at)
	})
}

func (s *Store) SyncArtifactAssignments(ctx context.Context, taskID string, role model.ArtifactRole, items []model.ArtifactRef, at time.Time) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.SyncArtifactAssignments(ctx, taskID, role, items, at)
	})
}

func (s *Store) SyncCompletionConditions(ctx context.Context, taskID string, descriptions []string, at time.Time) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.SyncCompletionConditions(ctx, taskID, descriptions, at)
	})
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	queries
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
