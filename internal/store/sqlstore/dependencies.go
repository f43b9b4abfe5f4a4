package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/idgen"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

const artifactJoinColumns = `a.id, a.title, a.uri, a.description, a.version, a.created_at, a.updated_at`

// CreateDependency inserts the edge and its artifact links. Both endpoint
// tasks and every artifact must exist, and the ordered pair must be new.
func (q queries) CreateDependency(ctx context.Context, dep *model.Dependency, artifactIDs []string) error {
	if dep.ID == "" {
		id, err := idgen.Generate(idgen.PrefixDependency)
		if err != nil {
			return err
		}
		dep.ID = id
	}
	if dep.CreatedAt.IsZero() {
		dep.CreatedAt = time.Now().UTC()
	}
	if err := q.validateDependency(ctx, dep, artifactIDs); err != nil {
		return err
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO dependencies (id, from_task_id, to_task_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		dep.ID, dep.FromTaskID, dep.ToTaskID, dep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dependency %s: %w", dep.ID, err)
	}

	links, err := q.insertDependencyLinks(ctx, dep.ID, artifactIDs, dep.CreatedAt)
	if err != nil {
		return err
	}
	dep.Artifacts = links
	return nil
}

// UpdateDependency rewrites the endpoints of an existing edge and replaces
// all of its artifact links.
func (q queries) UpdateDependency(ctx context.Context, dep *model.Dependency, artifactIDs []string) error {
	var createdAt time.Time
	err := q.db.QueryRowContext(ctx, `SELECT created_at FROM dependencies WHERE id = $1`, dep.ID).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return model.NotFound("dependency", dep.ID)
	}
	if err != nil {
		return fmt.Errorf("get dependency %s: %w", dep.ID, err)
	}
	dep.CreatedAt = createdAt

	if err := q.validateDependency(ctx, dep, artifactIDs); err != nil {
		return err
	}

	_, err = q.db.ExecContext(ctx,
		`UPDATE dependencies SET from_task_id = $2, to_task_id = $3 WHERE id = $1`,
		dep.ID, dep.FromTaskID, dep.ToTaskID,
	)
	if err != nil {
		return fmt.Errorf("update dependency %s: %w", dep.ID, err)
	}

	if _, err := q.db.ExecContext(ctx, `DELETE FROM dependency_artifacts WHERE dependency_id = $1`, dep.ID); err != nil {
		return fmt.Errorf("clear links of dependency %s: %w", dep.ID, err)
	}
	links, err := q.insertDependencyLinks(ctx, dep.ID, artifactIDs, time.Now().UTC())
	if err != nil {
		return err
	}
	dep.Artifacts = links
	return nil
}

func (q queries) validateDependency(ctx context.Context, dep *model.Dependency, artifactIDs []string) error {
	for _, side := range []struct {
		name string
		id   string
	}{
		{"from task", dep.FromTaskID},
		{"to task", dep.ToTaskID},
	} {
		ok, err := q.taskExists(ctx, side.id)
		if err != nil {
			return fmt.Errorf("check %s %s: %w", side.name, side.id, err)
		}
		if !ok {
			return model.NotFound(side.name, side.id)
		}
	}

	found, err := existingIDs(ctx, q.db, "artifacts", artifactIDs)
	if err != nil {
		return fmt.Errorf("check artifacts: %w", err)
	}
	var missing []string
	for _, id := range dedupe(artifactIDs) {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return model.Invalid("artifacts", "unknown artifact ids: "+strings.Join(missing, ", "))
	}

	var existing string
	err = q.db.QueryRowContext(ctx,
		`SELECT id FROM dependencies WHERE from_task_id = $1 AND to_task_id = $2`,
		dep.FromTaskID, dep.ToTaskID,
	).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return fmt.Errorf("check duplicate dependency: %w", err)
	case existing != dep.ID:
		return &model.ConflictError{
			ID:     existing,
			Reason: fmt.Sprintf("dependency from %q to %q already exists", dep.FromTaskID, dep.ToTaskID),
		}
	}
	return nil
}

func (q queries) insertDependencyLinks(ctx context.Context, depID string, artifactIDs []string, at time.Time) ([]*model.DependencyArtifact, error) {
	links := []*model.DependencyArtifact{}
	for i, artifactID := range dedupe(artifactIDs) {
		id, err := idgen.Generate(idgen.PrefixLink)
		if err != nil {
			return nil, err
		}
		_, err = q.db.ExecContext(ctx, `
			INSERT INTO dependency_artifacts (id, dependency_id, artifact_id, order_index, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			id, depID, artifactID, i, at,
		)
		if err != nil {
			return nil, fmt.Errorf("link artifact %s to dependency %s: %w", artifactID, depID, err)
		}
		links = append(links, &model.DependencyArtifact{
			ID:           id,
			DependencyID: depID,
			ArtifactID:   artifactID,
			OrderIndex:   i,
		})
	}
	return links, nil
}

// GetDependency returns the edge with its artifact links in order.
func (q queries) GetDependency(ctx context.Context, id string) (*model.Dependency, error) {
	var d model.Dependency
	err := q.db.QueryRowContext(ctx,
		`SELECT id, from_task_id, to_task_id, created_at FROM dependencies WHERE id = $1`, id,
	).Scan(&d.ID, &d.FromTaskID, &d.ToTaskID, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, model.NotFound("dependency", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get dependency %s: %w", id, err)
	}

	links, err := q.dependencyLinks(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	d.Artifacts = links[id]
	if d.Artifacts == nil {
		d.Artifacts = []*model.DependencyArtifact{}
	}
	return &d, nil
}

// DeleteDependency removes the edge; its links cascade.
func (q queries) DeleteDependency(ctx context.Context, id string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM dependencies WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete dependency %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete dependency %s: %w", id, err)
	}
	return n > 0, nil
}

// DependeesOf returns the upstream task ids of taskID.
func (q queries) DependeesOf(ctx context.Context, taskID string) ([]string, error) {
	return q.neighbours(ctx, `
		SELECT from_task_id FROM dependencies
		WHERE to_task_id = $1
		ORDER BY created_at, id`, taskID)
}

// DependentsOf returns the downstream task ids of taskID.
func (q queries) DependentsOf(ctx context.Context, taskID string) ([]string, error) {
	return q.neighbours(ctx, `
		SELECT to_task_id FROM dependencies
		WHERE from_task_id = $1
		ORDER BY created_at, id`, taskID)
}

func (q queries) neighbours(ctx context.Context, query, taskID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies of %s: %w", taskID, err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// CollectDependencies returns the neighbours of every requested task. Each
// id gets an entry, even when it has no edges.
func (q queries) CollectDependencies(ctx context.Context, taskIDs []string) (map[string]*model.DependencySet, error) {
	out := make(map[string]*model.DependencySet, len(taskIDs))
	for _, id := range taskIDs {
		out[id] = &model.DependencySet{Dependees: []string{}, Dependents: []string{}}
	}
	ids := dedupe(taskIDs)
	if len(ids) == 0 {
		return out, nil
	}

	in := placeholders(1, len(ids))
	rows, err := q.db.QueryContext(ctx, `
		SELECT from_task_id, to_task_id FROM dependencies
		WHERE from_task_id IN (`+in+`) OR to_task_id IN (`+in+`)
		ORDER BY created_at, id`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("collect dependencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		if set, ok := out[to]; ok {
			set.Dependees = append(set.Dependees, from)
		}
		if set, ok := out[from]; ok {
			set.Dependents = append(set.Dependents, to)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collect dependencies: %w", err)
	}
	return out, nil
}

// SyncDependees replaces every edge whose downstream side is taskID. A
// dependee listed more than once yields a single edge carrying the union of
// its artifacts.
func (q queries) SyncDependees(ctx context.Context, taskID string, deps []model.DependencyInput, at time.Time) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM dependencies WHERE to_task_id = $1`, taskID); err != nil {
		return fmt.Errorf("clear dependees of %s: %w", taskID, err)
	}
	for _, in := range mergeDependees(deps) {
		dep := &model.Dependency{FromTaskID: in.TaskID, ToTaskID: taskID, CreatedAt: at}
		if err := q.CreateDependency(ctx, dep, in.Artifacts); err != nil {
			return err
		}
	}
	return nil
}

// mergeDependees folds repeated dependee ids into their first occurrence.
func mergeDependees(deps []model.DependencyInput) []model.DependencyInput {
	out := make([]model.DependencyInput, 0, len(deps))
	index := make(map[string]int, len(deps))
	for _, in := range deps {
		if i, ok := index[in.TaskID]; ok {
			out[i].Artifacts = append(out[i].Artifacts, in.Artifacts...)
			continue
		}
		index[in.TaskID] = len(out)
		out = append(out, model.DependencyInput{
			TaskID:    in.TaskID,
			Artifacts: append([]string(nil), in.Artifacts...),
		})
	}
	return out
}

// dependencySummaries describes the tasks on the other side of id's edges:
// dependees when upstream is true, dependents otherwise.
func (q queries) dependencySummaries(ctx context.Context, id string, upstream bool) ([]*model.DependencySummary, error) {
	join, match := "d.to_task_id", "d.from_task_id"
	if upstream {
		join, match = "d.from_task_id", "d.to_task_id"
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT d.id, t.id, t.title, t.status
		FROM dependencies d JOIN tasks t ON t.id = `+join+`
		WHERE `+match+` = $1
		ORDER BY d.created_at, d.id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list dependency summaries of %s: %w", id, err)
	}
	defer rows.Close()

	summaries := []*model.DependencySummary{}
	var edgeIDs []string
	for rows.Next() {
		var (
			s      model.DependencySummary
			status string
		)
		if err := rows.Scan(&s.DependencyID, &s.TaskID, &s.Title, &status); err != nil {
			return nil, fmt.Errorf("scan dependency summary: %w", err)
		}
		s.Status = normalizeStatus(status)
		summaries = append(summaries, &s)
		edgeIDs = append(edgeIDs, s.DependencyID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	links, err := q.dependencyLinks(ctx, edgeIDs)
	if err != nil {
		return nil, err
	}
	for _, s := range summaries {
		s.Artifacts = links[s.DependencyID]
	}
	return summaries, nil
}

// dependencyLinks loads the artifact links of the given edges, in order.
func (q queries) dependencyLinks(ctx context.Context, depIDs []string) (map[string][]*model.DependencyArtifact, error) {
	out := make(map[string][]*model.DependencyArtifact, len(depIDs))
	if len(depIDs) == 0 {
		return out, nil
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT l.id, l.dependency_id, l.artifact_id, l.order_index, `+artifactJoinColumns+`
		FROM dependency_artifacts l JOIN artifacts a ON a.id = l.artifact_id
		WHERE l.dependency_id IN (`+placeholders(1, len(depIDs))+`)
		ORDER BY l.dependency_id, l.order_index`,
		stringArgs(depIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("list dependency artifacts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanDependencyArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dependency artifact: %w", err)
		}
		out[l.DependencyID] = append(out[l.DependencyID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
