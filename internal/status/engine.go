package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// Store is the subset of store.Store the engine reads and writes.
type Store interface {
	GetTask(ctx context.Context, id string) (*model.Task, error)
	DependeesOf(ctx context.Context, taskID string) ([]string, error)
	ListChildren(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error)
	CollectCompletionConditions(ctx context.Context, taskIDs []string) (map[string][]*model.CompletionCondition, error)
	CollectArtifactAssignments(ctx context.Context, taskIDs []string) (map[string][]*model.ArtifactAssignment, error)
	SetTaskStatus(ctx context.Context, id string, status model.Status, at time.Time) error
}

// ChangeFunc is called after a recompute persisted a status different from
// the stored one.
type ChangeFunc func(ctx context.Context, taskID string, from model.Status, to Decision)

// Engine recomputes task statuses and propagates them to ancestors.
type Engine struct {
	store    Store
	logger   *slog.Logger
	now      func() time.Time
	onChange ChangeFunc
}

// NewEngine creates an Engine. A nil logger falls back to slog.Default().
func NewEngine(s Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  s,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for updated_at.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// OnChange registers fn to be told about every status change the engine
// persists, including those on ancestors.
func (e *Engine) OnChange(fn ChangeFunc) {
	e.onChange = fn
}

// Decide evaluates taskID without persisting anything.
func (e *Engine) Decide(ctx context.Context, taskID string, requested model.Status) (Decision, error) {
	if err := checkRequested(requested); err != nil {
		return Decision{}, err
	}
	snap, err := e.snapshot(ctx, taskID)
	if err != nil {
		return Decision{}, err
	}
	return Evaluate(snap, requested), nil
}

// Recompute decides taskID's status, persists it and walks up to the parent.
// visited carries the ids already handled in this chain; pass nil to start a
// new chain. With force and a requested status the rules are skipped.
// Failures while updating ancestors are logged, never returned.
func (e *Engine) Recompute(ctx context.Context, taskID string, requested model.Status, force bool, visited map[string]bool) (Decision, error) {
	if err := checkRequested(requested); err != nil {
		return Decision{}, err
	}
	if visited == nil {
		visited = make(map[string]bool)
	}

	if visited[taskID] {
		current := model.StatusDraft
		if t, err := e.store.GetTask(ctx, taskID); err == nil {
			current = t.Status
		}
		return Decision{Status: or(requested, current), Reason: ReasonCycleDetected}, nil
	}
	visited[taskID] = true

	var (
		task     *model.Task
		decision Decision
	)
	if force && requested != "" {
		t, err := e.store.GetTask(ctx, taskID)
		if errors.Is(err, model.ErrNotFound) {
			return Decision{Status: requested, Reason: ReasonTaskNotFound}, nil
		}
		if err != nil {
			return Decision{}, err
		}
		task = t
		decision = Decision{Status: requested, Reason: ReasonForced}
	} else {
		snap, err := e.snapshot(ctx, taskID)
		if err != nil {
			return Decision{}, err
		}
		decision = Evaluate(snap, requested)
		if snap.Task == nil {
			return decision, nil
		}
		task = snap.Task
	}

	if err := e.store.SetTaskStatus(ctx, taskID, decision.Status, e.now()); err != nil {
		return Decision{}, fmt.Errorf("persist status of %s: %w", taskID, err)
	}
	if task.Status != decision.Status && e.onChange != nil {
		e.onChange(ctx, taskID, task.Status, decision)
	}

	if task.ParentID != "" {
		if _, err := e.Recompute(ctx, task.ParentID, "", false, visited); err != nil {
			e.logger.Warn("failed to propagate status to parent",
				"task_id", taskID, "parent_id", task.ParentID, "error", err)
		}
	}
	return decision, nil
}

func (e *Engine) snapshot(ctx context.Context, taskID string) (Snapshot, error) {
	var snap Snapshot

	task, err := e.store.GetTask(ctx, taskID)
	if errors.Is(err, model.ErrNotFound) {
		return snap, nil
	}
	if err != nil {
		return snap, err
	}
	snap.Task = task

	dependees, err := e.store.DependeesOf(ctx, taskID)
	if err != nil {
		return snap, err
	}
	for _, id := range dependees {
		dep, err := e.store.GetTask(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return snap, err
		}
		snap.Dependees = append(snap.Dependees, dep.Status)
	}

	children, err := e.store.ListChildren(ctx, model.TaskFilter{ParentID: taskID})
	if err != nil {
		return snap, err
	}
	for _, c := range children {
		snap.Children = append(snap.Children, c.Status)
	}

	conditions, err := e.store.CollectCompletionConditions(ctx, []string{taskID})
	if err != nil {
		return snap, err
	}
	snap.Conditions = len(conditions[taskID])

	assignments, err := e.store.CollectArtifactAssignments(ctx, []string{taskID})
	if err != nil {
		return snap, err
	}
	snap.Assignments = len(assignments[taskID])

	return snap, nil
}

func checkRequested(s model.Status) error {
	if s != "" && !s.IsValid() {
		return model.Invalid("status", fmt.Sprintf("invalid value %q", s))
	}
	return nil
}
