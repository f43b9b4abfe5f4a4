package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/events"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/idgen"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/status"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/store"
)

// CreateTaskInput holds the parameters for creating a task.
type CreateTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Details     string `json:"details,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	Estimate    string `json:"estimate,omitempty"`

	Dependencies         []model.DependencyInput `json:"dependencies,omitempty"`
	Deliverables         []model.ArtifactRef     `json:"deliverables,omitempty"`
	Prerequisites        []model.ArtifactRef     `json:"prerequisites,omitempty"`
	CompletionConditions []string                `json:"completion_conditions,omitempty"`
}

// UpdateTaskInput holds a partial update. Nil fields are left unchanged; a
// nil collection is left unchanged while an empty non-nil one clears it.
type UpdateTaskInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Details     *string `json:"details,omitempty"`
	Assignee    *string `json:"assignee,omitempty"`
	Estimate    *string `json:"estimate,omitempty"`

	// IfVersion, when set, must equal the stored version.
	IfVersion *int `json:"if_version,omitempty"`

	Dependencies         []model.DependencyInput `json:"dependencies,omitempty"`
	Deliverables         []model.ArtifactRef     `json:"deliverables,omitempty"`
	Prerequisites        []model.ArtifactRef     `json:"prerequisites,omitempty"`
	CompletionConditions []string                `json:"completion_conditions,omitempty"`
}

func (in UpdateTaskInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.Details == nil &&
		in.Assignee == nil && in.Estimate == nil &&
		in.Dependencies == nil && in.Deliverables == nil && in.Prerequisites == nil &&
		in.CompletionConditions == nil
}

// CreateTask inserts a task and its child records in one transaction, then
// recomputes its status.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*model.Task, error) {
	id, err := idgen.Generate(idgen.PrefixTask)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	now := s.now()
	task := &model.Task{
		ID:          id,
		ParentID:    in.ParentID,
		Title:       in.Title,
		Description: in.Description,
		Details:     in.Details,
		Assignee:    in.Assignee,
		Estimate:    in.Estimate,
		Status:      model.InitialStatus(in.Title, in.Description, in.Estimate),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := model.ValidateTask(task); err != nil {
		return nil, err
	}

	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.CreateTask(ctx, task); err != nil {
			return err
		}
		return syncChildren(ctx, tx, id, childRecords{
			dependencies:  in.Dependencies,
			deliverables:  in.Deliverables,
			prerequisites: in.Prerequisites,
			conditions:    in.CompletionConditions,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, events.TopicTaskCreated, id, events.TaskCreated{Task: task})
	s.recompute(ctx, id)

	return s.store.GetTaskDetail(ctx, id)
}

// GetTask returns the task with its children, dependency summaries,
// artifacts and completion conditions.
func (s *Service) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return s.store.GetTaskDetail(ctx, id)
}

// ListTasks lists the children of parentID, or the roots when it is empty.
func (s *Service) ListTasks(ctx context.Context, parentID string, st model.Status) ([]*model.Task, error) {
	return s.store.ListChildren(ctx, model.TaskFilter{ParentID: parentID, Status: st})
}

// LeafTaskList lists the childless tasks below parentID (everywhere when empty).
func (s *Service) LeafTaskList(ctx context.Context, parentID string, st model.Status) ([]*model.Task, error) {
	return s.store.ListLeaves(ctx, model.TaskFilter{ParentID: parentID, Status: st})
}

// UpdateTask applies a partial update. A stale IfVersion is a conflict; the
// version is bumped by exactly one when anything was supplied.
func (s *Service) UpdateTask(ctx context.Context, id string, in UpdateTaskInput) (*model.Task, error) {
	current, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.IfVersion != nil && *in.IfVersion != current.Version {
		return nil, &model.ConflictError{ID: id, Expected: *in.IfVersion, Actual: current.Version}
	}
	if in.empty() {
		return s.store.GetTaskDetail(ctx, id)
	}

	now := s.now()
	task := *current
	task.UpdatedAt = now
	changes := make(map[string]any)
	for _, f := range []struct {
		name string
		src  *string
		dst  *string
	}{
		{"title", in.Title, &task.Title},
		{"description", in.Description, &task.Description},
		{"details", in.Details, &task.Details},
		{"assignee", in.Assignee, &task.Assignee},
		{"estimate", in.Estimate, &task.Estimate},
	} {
		if f.src != nil {
			*f.dst = *f.src
			changes[f.name] = *f.src
		}
	}
	if in.Dependencies != nil {
		changes["dependencies"] = in.Dependencies
	}
	if in.Deliverables != nil {
		changes["deliverables"] = in.Deliverables
	}
	if in.Prerequisites != nil {
		changes["prerequisites"] = in.Prerequisites
	}
	if in.CompletionConditions != nil {
		changes["completion_conditions"] = model.NormalizeConditions(in.CompletionConditions)
	}

	if err := model.ValidateTask(&task); err != nil {
		return nil, err
	}

	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		// The stored version doubles as the guard against a concurrent writer
		// between the read above and this update.
		if err := tx.UpdateTask(ctx, &task, current.Version); err != nil {
			return err
		}
		return syncChildren(ctx, tx, id, childRecords{
			dependencies:  in.Dependencies,
			deliverables:  in.Deliverables,
			prerequisites: in.Prerequisites,
			conditions:    in.CompletionConditions,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, events.TopicTaskUpdated, id, events.TaskUpdated{Task: &task, Changes: changes})
	s.recompute(ctx, id)

	return s.store.GetTaskDetail(ctx, id)
}

// MoveTask re-parents a task (to the roots when newParentID is empty) and
// recomputes the new and the old parent. The moved task keeps its status.
func (s *Service) MoveTask(ctx context.Context, id, newParentID string) (*model.Task, error) {
	before, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	moved, err := s.store.MoveTask(ctx, id, newParentID, s.now())
	if err != nil {
		return nil, err
	}

	if moved.Version != before.Version {
		s.record(ctx, events.TopicTaskMoved, id, events.TaskMoved{
			TaskID:    id,
			OldParent: before.ParentID,
			NewParent: moved.ParentID,
			Version:   moved.Version,
		})
		s.recompute(ctx, moved.ParentID)
		s.recompute(ctx, before.ParentID)
	}

	return s.store.GetTaskDetail(ctx, id)
}

// DeleteTask removes a task and its subtree. It reports false when the task
// did not exist.
func (s *Service) DeleteTask(ctx context.Context, id string) (bool, error) {
	task, err := s.store.GetTask(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	dependents, err := s.outsideDependents(ctx, id)
	if err != nil {
		return false, err
	}

	ok, err := s.store.DeleteTask(ctx, id)
	if err != nil || !ok {
		return ok, err
	}

	s.record(ctx, events.TopicTaskDeleted, id, events.TaskDeleted{TaskID: id})
	s.recompute(ctx, task.ParentID)
	for _, d := range dependents {
		s.recompute(ctx, d)
	}
	return true, nil
}

// outsideDependents returns the tasks outside id's subtree that depend on a
// task inside it. They lose a dependee when the subtree is deleted.
func (s *Service) outsideDependents(ctx context.Context, id string) ([]string, error) {
	subtree := map[string]bool{id: true}
	ids := []string{id}
	for queue := []string{id}; len(queue) > 0; queue = queue[1:] {
		children, err := s.store.ListChildren(ctx, model.TaskFilter{ParentID: queue[0]})
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if !subtree[c.ID] {
				subtree[c.ID] = true
				ids = append(ids, c.ID)
				queue = append(queue, c.ID)
			}
		}
	}

	sets, err := s.store.CollectDependencies(ctx, ids)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := make(map[string]bool)
	for _, tid := range ids {
		for _, d := range sets[tid].Dependents {
			if !subtree[d] && !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// UpdateTaskStatus recomputes a task's status on request. With force and a
// status the rules are bypassed; otherwise requested only steers the
// fallback rules.
func (s *Service) UpdateTaskStatus(ctx context.Context, id string, requested model.Status, force bool) (status.Decision, error) {
	if requested != "" {
		st, ok := model.ParseStatus(string(requested))
		if !ok {
			return status.Decision{}, model.Invalid("status", fmt.Sprintf("invalid value %q", requested))
		}
		requested = st
	}
	return s.engine.Recompute(ctx, id, requested, force, nil)
}

// childRecords are the collections synced alongside a task row. A nil
// slice means "leave as is".
type childRecords struct {
	dependencies  []model.DependencyInput
	deliverables  []model.ArtifactRef
	prerequisites []model.ArtifactRef
	conditions    []string
}

func syncChildren(ctx context.Context, tx store.Store, taskID string, c childRecords, at time.Time) error {
	if c.dependencies != nil {
		if err := tx.SyncDependees(ctx, taskID, c.dependencies, at); err != nil {
			return err
		}
	}
	if c.deliverables != nil {
		if err := tx.SyncArtifactAssignments(ctx, taskID, model.RoleDeliverable, c.deliverables, at); err != nil {
			return err
		}
	}
	if c.prerequisites != nil {
		if err := tx.SyncArtifactAssignments(ctx, taskID, model.RolePrerequisite, c.prerequisites, at); err != nil {
			return err
		}
	}
	if c.conditions != nil {
		if err := tx.SyncCompletionConditions(ctx, taskID, c.conditions, at); err != nil {
			return err
		}
	}
	return nil
}
