package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// taskRowColumns is the column list for scanTask results.
var taskRowColumns = []string{
	"id", "parent_id", "title", "description", "details",
	"assignee", "estimate", "status", "version", "created_at", "updated_at",
}

func TestPlaceholders(t *testing.T) {
	for _, tc := range []struct {
		start, n int
		want     string
	}{
		{1, 1, "$1"},
		{1, 3, "$1, $2, $3"},
		{4, 2, "$4, $5"},
		{1, 0, ""},
	} {
		if got := placeholders(tc.start, tc.n); got != tc.want {
			t.Errorf("placeholders(%d, %d) = %q, want %q", tc.start, tc.n, got, tc.want)
		}
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("dedupe = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedupe = %v, want %v", got, want)
		}
	}
}

func TestScanHelpers(t *testing.T) {
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("task-1"); !ns.Valid || ns.String != "task-1" {
		t.Errorf("nullString(\"task-1\") = %v", ns)
	}

	if jsonPayload(nil) != nil {
		t.Error("jsonPayload(nil) should be nil")
	}
	if jsonPayload(json.RawMessage{}) != nil {
		t.Error("jsonPayload({}) should be nil")
	}
	if got := jsonPayload(json.RawMessage(`{"k":"v"}`)); got != `{"k":"v"}` {
		t.Errorf("jsonPayload = %v", got)
	}

	if got := normalizeStatus("In-Progress"); got != model.StatusInProgress {
		t.Errorf("normalizeStatus(In-Progress) = %q", got)
	}
	if got := normalizeStatus("weird"); got != "weird" {
		t.Errorf("normalizeStatus(weird) = %q", got)
	}
}

func TestQueryGetTask(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(taskRowColumns).AddRow(
		"task-1", nil, "Design", "desc", "", "", "2d", "PENDING", 3, now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM tasks t WHERE t.id = \\$1").WithArgs("task-1").WillReturnRows(rows)

	got, err := queries{db: db}.GetTask(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ParentID != "" || got.Status != model.StatusPending || got.Version != 3 {
		t.Fatalf("got parent=%q status=%q version=%d", got.ParentID, got.Status, got.Version)
	}
}

func TestQueryGetTask_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM tasks t WHERE t.id = \\$1").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := queries{db: db}.GetTask(context.Background(), "nope")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryCreateTask_MissingParent(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT 1 FROM tasks WHERE id = \\$1").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	err := queries{db: db}.CreateTask(context.Background(), &model.Task{ID: "task-1", ParentID: "ghost", Title: "x"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestQueryCreateTask_InitialStatus(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	task := &model.Task{
		ID: "task-1", Title: "Build", Description: "the thing", Estimate: "3d",
		CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO tasks").
		WithArgs("task-1", sqlmock.AnyArg(), "Build", "the thing", "", "", "3d", "pending", 1, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := (queries{db: db}).CreateTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != model.StatusPending || task.Version != 1 {
		t.Fatalf("got status=%q version=%d", task.Status, task.Version)
	}
}

func TestQueryUpdateTask(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	task := &model.Task{ID: "task-1", Title: "New", UpdatedAt: now}

	mock.ExpectExec("UPDATE tasks SET .+ WHERE id = \\$1 AND version = \\$8").
		WithArgs("task-1", "New", "", "", "", "", now, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := (queries{db: db}).UpdateTask(context.Background(), task, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Version != 3 {
		t.Fatalf("version = %d, want 3", task.Version)
	}
}

func TestQueryUpdateTask_Conflict(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE tasks SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM tasks WHERE id = \\$1").WithArgs("task-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(5))

	err := queries{db: db}.UpdateTask(context.Background(), &model.Task{ID: "task-1", Title: "x", UpdatedAt: now}, 4)
	var ce *model.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if ce.Expected != 4 || ce.Actual != 5 {
		t.Fatalf("conflict = %+v", ce)
	}
}

func TestQueryUpdateTask_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE tasks SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM tasks WHERE id = \\$1").WithArgs("gone").WillReturnError(sql.ErrNoRows)

	err := queries{db: db}.UpdateTask(context.Background(), &model.Task{ID: "gone", Title: "x"}, 1)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuerySetTaskStatus(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE tasks SET status = \\$2, updated_at = \\$3 WHERE id = \\$1").
		WithArgs("task-1", "completed", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tasks SET status").
		WithArgs("gone", "draft", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	q := queries{db: db}
	if err := q.SetTaskStatus(context.Background(), "task-1", model.StatusCompleted, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.SetTaskStatus(context.Background(), "gone", model.StatusDraft, now); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryDeleteTask(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM tasks WHERE id = \\$1").WithArgs("task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM tasks WHERE id = \\$1").WithArgs("task-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	q := queries{db: db}
	if ok, err := q.DeleteTask(context.Background(), "task-1"); err != nil || !ok {
		t.Fatalf("first delete = %v, %v", ok, err)
	}
	if ok, err := q.DeleteTask(context.Background(), "task-1"); err != nil || ok {
		t.Fatalf("second delete = %v, %v", ok, err)
	}
}

func TestQueryListChildren_Filter(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	cols := append(append([]string{}, taskRowColumns...), "child_count")
	mock.ExpectQuery("FROM tasks t WHERE t.parent_id = \\$1 AND lower\\(t.status\\) = \\$2 ORDER BY t.created_at, t.id").
		WithArgs("task-root", "in-progress").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("task-a", "task-root", "A", "", "", "", "", "in-progress", 1, now, now, 2))

	got, err := queries{db: db}.ListChildren(context.Background(), model.TaskFilter{ParentID: "task-root", Status: "In-Progress"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ChildCount != 2 || got[0].ParentID != "task-root" {
		t.Fatalf("got %+v", got)
	}
}

func TestQueryListChildren_Roots(t *testing.T) {
	db, mock := newMockDB(t)
	cols := append(append([]string{}, taskRowColumns...), "child_count")
	mock.ExpectQuery("WHERE t.parent_id IS NULL ORDER BY").WillReturnRows(sqlmock.NewRows(cols))

	got, err := queries{db: db}.ListChildren(context.Background(), model.TaskFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestQueryCollectDependencies(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT from_task_id, to_task_id FROM dependencies").
		WithArgs("a", "b").
		WillReturnRows(sqlmock.NewRows([]string{"from_task_id", "to_task_id"}).
			AddRow("a", "b").
			AddRow("x", "a"))

	got, err := queries{db: db}.CollectDependencies(context.Background(), []string{"a", "b", "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if d := got["a"]; len(d.Dependees) != 1 || d.Dependees[0] != "x" || len(d.Dependents) != 1 || d.Dependents[0] != "b" {
		t.Fatalf("a = %+v", d)
	}
	if d := got["b"]; len(d.Dependees) != 1 || d.Dependees[0] != "a" || len(d.Dependents) != 0 {
		t.Fatalf("b = %+v", d)
	}
}

func TestQueryCollectDependencies_Empty(t *testing.T) {
	db, _ := newMockDB(t)
	got, err := queries{db: db}.CollectDependencies(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestQueryRecordEvent(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO events").
		WithArgs(sqlmock.AnyArg(), "wbs.task.created", "task-1", "cli", `{"title":"x"}`, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := &model.Event{Topic: "wbs.task.created", TaskID: "task-1", Actor: "cli", Payload: json.RawMessage(`{"title":"x"}`), CreatedAt: now}
	if err := (queries{db: db}).RecordEvent(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == "" {
		t.Fatal("expected generated event id")
	}
}

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	s := &Store{queries: queries{db: db}, db: db}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM tasks").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		if _, err := tx.DeleteTask(context.Background(), "task-1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunInTransaction_CommitFailureIsStorage(t *testing.T) {
	db, mock := newMockDB(t)
	s := &Store{queries: queries{db: db}, db: db}

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error { return nil })
	if !errors.Is(err, model.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if model.KindOf(err) != model.KindStorage {
		t.Fatalf("KindOf = %q", model.KindOf(err))
	}
}

func TestRunInTransaction_BeginFailureIsStorage(t *testing.T) {
	db, mock := newMockDB(t)
	s := &Store{queries: queries{db: db}, db: db}

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	called := false
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		called = true
		return nil
	})
	if !errors.Is(err, model.ErrStorage) || called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}

func TestTxStore_NestedTransactionReusesTx(t *testing.T) {
	db, mock := newMockDB(t)
	s := &Store{queries: queries{db: db}, db: db}

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.RunInTransaction(context.Background(), func(inner store.Store) error {
			if inner != tx {
				t.Error("nested transaction should reuse the outer store")
			}
			return inner.Close()
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseDriver(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{"", DriverSQLite, false},
		{"sqlite", DriverSQLite, false},
		{" Postgres ", DriverPostgres, false},
		{"mysql", "", true},
	} {
		got, err := ParseDriver(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseDriver(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN("/tmp/wbs.db"); got != "/tmp/wbs.db?"+sqlitePragmas {
		t.Errorf("sqliteDSN = %q", got)
	}
	if got := sqliteDSN("file:wbs.db?mode=rwc"); got != "file:wbs.db?mode=rwc&"+sqlitePragmas {
		t.Errorf("sqliteDSN = %q", got)
	}
}
