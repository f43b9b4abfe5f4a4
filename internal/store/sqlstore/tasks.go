package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// taskColumns is the column list used for SELECT statements on the tasks table.
const taskColumns = `t.id, t.parent_id, t.title, t.description, t.details,
	t.assignee, t.estimate, t.status, t.version, t.created_at, t.updated_at`

// childCountColumn counts the direct children of the row aliased t.
const childCountColumn = `(SELECT COUNT(*) FROM tasks c WHERE c.parent_id = t.id) AS child_count`

func (q queries) CreateTask(ctx context.Context, t *model.Task) error {
	if t.ParentID != "" {
		ok, err := q.taskExists(ctx, t.ParentID)
		if err != nil {
			return fmt.Errorf("check parent %s: %w", t.ParentID, err)
		}
		if !ok {
			return model.Invalid("parent_id", fmt.Sprintf("parent task %q does not exist", t.ParentID))
		}
	}
	if t.Status == "" {
		t.Status = model.InitialStatus(t.Title, t.Description, t.Estimate)
	}
	if t.Version < 1 {
		t.Version = 1
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, parent_id, title, description, details, assignee, estimate,
			status, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID,
		nullString(t.ParentID),
		t.Title,
		t.Description,
		t.Details,
		t.Assignee,
		t.Estimate,
		string(t.Status),
		t.Version,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", t.ID, err)
	}
	return nil
}

func (q queries) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, model.NotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// GetTaskDetail returns the task together with one level of children, the
// tasks on both sides of its dependency edges, its artifact assignments and
// its completion conditions.
func (q queries) GetTaskDetail(ctx context.Context, id string) (*model.Task, error) {
	t, err := q.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	children, err := q.ListChildren(ctx, model.TaskFilter{ParentID: id})
	if err != nil {
		return nil, err
	}
	t.Children = children
	t.ChildCount = len(children)

	t.Dependencies, err = q.dependencySummaries(ctx, id, true)
	if err != nil {
		return nil, err
	}
	t.Dependents, err = q.dependencySummaries(ctx, id, false)
	if err != nil {
		return nil, err
	}

	assignments, err := q.CollectArtifactAssignments(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	t.Artifacts = assignments[id]

	conditions, err := q.CollectCompletionConditions(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	t.CompletionConditions = conditions[id]

	return t, nil
}

// ListChildren lists the direct children of filter.ParentID (roots when
// empty), oldest first.
func (q queries) ListChildren(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	var (
		where []string
		args  []any
	)
	if filter.ParentID == "" {
		where = append(where, "t.parent_id IS NULL")
	} else {
		args = append(args, filter.ParentID)
		where = append(where, fmt.Sprintf("t.parent_id = $%d", len(args)))
	}
	if s := statusArg(filter.Status); s != "" {
		args = append(args, s)
		where = append(where, fmt.Sprintf("lower(t.status) = $%d", len(args)))
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT `+taskColumns+`, `+childCountColumn+` FROM tasks t WHERE `+
			strings.Join(where, " AND ")+` ORDER BY t.created_at, t.id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	return tasks, nil
}

// ListLeaves walks the subtree below filter.ParentID (the whole forest when
// empty) and returns the tasks without children. An unknown parent yields an
// empty list.
func (q queries) ListLeaves(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	var (
		seed string
		args []any
	)
	if filter.ParentID == "" {
		seed = "SELECT id FROM tasks WHERE parent_id IS NULL"
	} else {
		args = append(args, filter.ParentID)
		seed = "SELECT id FROM tasks WHERE parent_id = $1"
	}

	statusClause := ""
	if s := statusArg(filter.Status); s != "" {
		args = append(args, s)
		statusClause = fmt.Sprintf(" AND lower(t.status) = $%d", len(args))
	}

	// UNION (not UNION ALL) stops the walk if a cycle ever slipped into the tree.
	rows, err := q.db.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			`+seed+`
			UNION
			SELECT c.id FROM tasks c JOIN subtree s ON c.parent_id = s.id
		)
		SELECT `+taskColumns+`, 0 AS child_count
		FROM tasks t
		WHERE t.id IN (SELECT id FROM subtree)
		  AND NOT EXISTS (SELECT 1 FROM tasks k WHERE k.parent_id = t.id)`+statusClause+`
		ORDER BY t.created_at, t.id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	return tasks, nil
}

// ListAllTasks returns every task, oldest first.
func (q queries) ListAllTasks(ctx context.Context) ([]*model.Task, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+taskColumns+`, `+childCountColumn+` FROM tasks t ORDER BY t.created_at, t.id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask writes the task's editable fields and bumps its version, but
// only if the stored version still equals ifVersion.
func (q queries) UpdateTask(ctx context.Context, t *model.Task, ifVersion int) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = $2, description = $3, details = $4, assignee = $5, estimate = $6,
			version = version + 1, updated_at = $7
		WHERE id = $1 AND version = $8`,
		t.ID,
		t.Title,
		t.Description,
		t.Details,
		t.Assignee,
		t.Estimate,
		t.UpdatedAt,
		ifVersion,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if n == 0 {
		return q.versionMismatch(ctx, t.ID, ifVersion)
	}
	t.Version = ifVersion + 1
	return nil
}

// versionMismatch explains why a version-guarded write touched no row.
func (q queries) versionMismatch(ctx context.Context, id string, expected int) error {
	var actual int
	err := q.db.QueryRowContext(ctx, `SELECT version FROM tasks WHERE id = $1`, id).Scan(&actual)
	if err == sql.ErrNoRows {
		return model.NotFound("task", id)
	}
	if err != nil {
		return fmt.Errorf("read version of task %s: %w", id, err)
	}
	return &model.ConflictError{ID: id, Expected: expected, Actual: actual}
}

// SetTaskStatus persists a status decision. The version is left untouched.
func (q queries) SetTaskStatus(ctx context.Context, id string, status model.Status, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), at,
	)
	if err != nil {
		return fmt.Errorf("set status of task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set status of task %s: %w", id, err)
	}
	if n == 0 {
		return model.NotFound("task", id)
	}
	return nil
}

// MoveTask re-parents id under newParentID (a root when empty). The target
// is rejected when it is the task itself, does not exist, or lies inside the
// task's own subtree.
func (q queries) MoveTask(ctx context.Context, id, newParentID string, at time.Time) (*model.Task, error) {
	t, err := q.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.validateMove(ctx, id, newParentID); err != nil {
		return nil, err
	}
	if t.ParentID == newParentID {
		return t, nil
	}

	_, err = q.db.ExecContext(ctx,
		`UPDATE tasks SET parent_id = $2, version = version + 1, updated_at = $3 WHERE id = $1`,
		id, nullString(newParentID), at,
	)
	if err != nil {
		return nil, fmt.Errorf("move task %s: %w", id, err)
	}

	t.ParentID = newParentID
	t.Version++
	t.UpdatedAt = at
	return t, nil
}

func (q queries) validateMove(ctx context.Context, id, target string) error {
	if target == "" {
		return nil
	}
	if target == id {
		return model.Invalid("parent_id", "a task cannot be its own parent")
	}

	parent, ok, err := q.parentOf(ctx, target)
	if err != nil {
		return err
	}
	if !ok {
		return model.Invalid("parent_id", fmt.Sprintf("parent task %q does not exist", target))
	}

	// Start from the target's parent so that moving under a direct child is
	// caught as well.
	visited := map[string]bool{target: true}
	for parent != "" && !visited[parent] {
		if parent == id {
			return model.Invalid("parent_id", fmt.Sprintf("task %q is a descendant of %q", target, id))
		}
		visited[parent] = true
		next, ok, err := q.parentOf(ctx, parent)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		parent = next
	}
	return nil
}

// parentOf returns the parent id of a task; ok is false when the task is absent.
func (q queries) parentOf(ctx context.Context, id string) (string, bool, error) {
	var parent sql.NullString
	err := q.db.QueryRowContext(ctx, `SELECT parent_id FROM tasks WHERE id = $1`, id).Scan(&parent)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read parent of task %s: %w", id, err)
	}
	return parent.String, true, nil
}

// DeleteTask removes the task; descendants, edges, assignments and
// conditions go with it through ON DELETE CASCADE.
func (q queries) DeleteTask(ctx context.Context, id string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}
	return n > 0, nil
}

func (q queries) taskExists(ctx context.Context, id string) (bool, error) {
	return rowExists(ctx, q.db, `SELECT 1 FROM tasks WHERE id = $1 LIMIT 1`, id)
}

// statusArg lower-cases a status filter for comparison with lower(status).
func statusArg(s model.Status) string {
	return strings.ToLower(strings.TrimSpace(string(s)))
}
