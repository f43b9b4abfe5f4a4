package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/idgen"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

const artifactColumns = `id, title, uri, description, version, created_at, updated_at`

func (q queries) CreateArtifact(ctx context.Context, a *model.Artifact) error {
	if a.Version < 1 {
		a.Version = 1
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, title, uri, description, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Title, a.URI, a.Description, a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert artifact %s: %w", a.ID, err)
	}
	return nil
}

func (q queries) GetArtifact(ctx context.Context, id string) (*model.Artifact, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = $1`, id)
	a, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, model.NotFound("artifact", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %s: %w", id, err)
	}
	return a, nil
}

func (q queries) ListArtifacts(ctx context.Context) ([]*model.Artifact, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+artifactColumns+` FROM artifacts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()
	return scanArtifacts(rows)
}

// UpdateArtifact overwrites the artifact's fields and bumps its version.
func (q queries) UpdateArtifact(ctx context.Context, a *model.Artifact) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE artifacts SET title = $2, uri = $3, description = $4,
			version = version + 1, updated_at = $5
		WHERE id = $1`,
		a.ID, a.Title, a.URI, a.Description, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update artifact %s: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update artifact %s: %w", a.ID, err)
	}
	if n == 0 {
		return model.NotFound("artifact", a.ID)
	}
	a.Version++
	return nil
}

// DeleteArtifact removes the artifact; assignments and dependency links
// referencing it cascade.
func (q queries) DeleteArtifact(ctx context.Context, id string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete artifact %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete artifact %s: %w", id, err)
	}
	return n > 0, nil
}

// SyncArtifactAssignments replaces the task's assignments for one role with
// items, in order.
func (q queries) SyncArtifactAssignments(ctx context.Context, taskID string, role model.ArtifactRole, items []model.ArtifactRef, at time.Time) error {
	if !role.IsValid() {
		return model.Invalid("role", fmt.Sprintf("invalid value %q", role))
	}
	ok, err := q.taskExists(ctx, taskID)
	if err != nil {
		return fmt.Errorf("check task %s: %w", taskID, err)
	}
	if !ok {
		return model.NotFound("task", taskID)
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ArtifactID
	}
	found, err := existingIDs(ctx, q.db, "artifacts", ids)
	if err != nil {
		return fmt.Errorf("check artifacts: %w", err)
	}
	for _, it := range items {
		if !found[it.ArtifactID] {
			return model.NotFound("artifact", it.ArtifactID)
		}
	}

	_, err = q.db.ExecContext(ctx,
		`DELETE FROM task_artifacts WHERE task_id = $1 AND role = $2`,
		taskID, string(role),
	)
	if err != nil {
		return fmt.Errorf("clear %s artifacts of %s: %w", role, taskID, err)
	}

	for i, it := range items {
		id, err := idgen.Generate(idgen.PrefixAssignment)
		if err != nil {
			return err
		}
		_, err = q.db.ExecContext(ctx, `
			INSERT INTO task_artifacts (
				id, task_id, artifact_id, role, crud_operations, order_index, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, taskID, it.ArtifactID, string(role), it.CRUDOperations, i, at, at,
		)
		if err != nil {
			return fmt.Errorf("assign artifact %s to %s: %w", it.ArtifactID, taskID, err)
		}
	}
	return nil
}

// CollectArtifactAssignments returns the assignments of every requested
// task, grouped by role and ordered. Each id gets an entry.
func (q queries) CollectArtifactAssignments(ctx context.Context, taskIDs []string) (map[string][]*model.ArtifactAssignment, error) {
	out := make(map[string][]*model.ArtifactAssignment, len(taskIDs))
	for _, id := range taskIDs {
		out[id] = []*model.ArtifactAssignment{}
	}
	ids := dedupe(taskIDs)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT ta.id, ta.task_id, ta.artifact_id, ta.role, ta.crud_operations, ta.order_index, `+artifactJoinColumns+`
		FROM task_artifacts ta JOIN artifacts a ON a.id = ta.artifact_id
		WHERE ta.task_id IN (`+placeholders(1, len(ids))+`)
		ORDER BY ta.task_id, ta.role, ta.order_index`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("collect artifact assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		as, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact assignment: %w", err)
		}
		out[as.TaskID] = append(out[as.TaskID], as)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
