package status

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	tasks       map[string]*model.Task
	edges       map[string][]string // to -> from
	conditions  map[string]int
	assignments map[string]int
	failStatus  map[string]error
	writes      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:       map[string]*model.Task{},
		edges:       map[string][]string{},
		conditions:  map[string]int{},
		assignments: map[string]int{},
		failStatus:  map[string]error{},
	}
}

func (f *fakeStore) add(id, parent string, status model.Status) *model.Task {
	t := &model.Task{ID: id, ParentID: parent, Title: id, Status: status, Version: 1}
	f.tasks[id] = t
	return t
}

func (f *fakeStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, model.NotFound("task", id)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) DependeesOf(_ context.Context, id string) ([]string, error) {
	return f.edges[id], nil
}

func (f *fakeStore) ListChildren(_ context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	var out []*model.Task
	for _, t := range f.tasks {
		if t.ParentID == filter.ParentID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) CollectCompletionConditions(_ context.Context, ids []string) (map[string][]*model.CompletionCondition, error) {
	out := map[string][]*model.CompletionCondition{}
	for _, id := range ids {
		out[id] = make([]*model.CompletionCondition, f.conditions[id])
	}
	return out, nil
}

func (f *fakeStore) CollectArtifactAssignments(_ context.Context, ids []string) (map[string][]*model.ArtifactAssignment, error) {
	out := map[string][]*model.ArtifactAssignment{}
	for _, id := range ids {
		out[id] = make([]*model.ArtifactAssignment, f.assignments[id])
	}
	return out, nil
}

func (f *fakeStore) SetTaskStatus(_ context.Context, id string, status model.Status, _ time.Time) error {
	if err := f.failStatus[id]; err != nil {
		return err
	}
	t, ok := f.tasks[id]
	if !ok {
		return model.NotFound("task", id)
	}
	t.Status = status
	f.writes = append(f.writes, id)
	return nil
}

func quietEngine(s Store) *Engine {
	return NewEngine(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRecompute_PropagatesToAncestors(t *testing.T) {
	f := newFakeStore()
	f.add("root", "", model.StatusDraft)
	f.add("mid", "root", model.StatusDraft)
	f.add("leaf", "mid", model.StatusPending)

	e := quietEngine(f)
	d, err := e.Recompute(context.Background(), "leaf", model.StatusCompleted, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d != (Decision{model.StatusCompleted, ReasonForced}) {
		t.Fatalf("decision = %+v", d)
	}
	for _, id := range []string{"leaf", "mid", "root"} {
		if f.tasks[id].Status != model.StatusCompleted {
			t.Errorf("%s status = %s", id, f.tasks[id].Status)
		}
	}
	if len(f.writes) != 3 {
		t.Fatalf("writes = %v", f.writes)
	}
	if f.tasks["leaf"].Version != 1 {
		t.Fatalf("status update changed version to %d", f.tasks["leaf"].Version)
	}
}

func TestRecompute_CycleGuard(t *testing.T) {
	f := newFakeStore()
	// A corrupted tree: a and b are each other's parent.
	f.add("a", "b", model.StatusPending)
	f.add("b", "a", model.StatusPending)

	e := quietEngine(f)
	if _, err := e.Recompute(context.Background(), "a", "", false, nil); err != nil {
		t.Fatal(err)
	}
	if len(f.writes) != 2 {
		t.Fatalf("writes = %v, expected one per task", f.writes)
	}

	visited := map[string]bool{"a": true}
	d, err := e.Recompute(context.Background(), "a", "", false, visited)
	if err != nil {
		t.Fatal(err)
	}
	if d.Reason != ReasonCycleDetected {
		t.Fatalf("decision = %+v", d)
	}
}

func TestRecompute_ParentFailureIsSwallowed(t *testing.T) {
	f := newFakeStore()
	f.add("parent", "", model.StatusDraft)
	f.add("child", "parent", model.StatusDraft)
	f.failStatus["parent"] = errors.New("disk on fire")

	e := quietEngine(f)
	d, err := e.Recompute(context.Background(), "child", model.StatusInProgress, true, nil)
	if err != nil {
		t.Fatalf("parent failure leaked: %v", err)
	}
	if d.Status != model.StatusInProgress || f.tasks["child"].Status != model.StatusInProgress {
		t.Fatalf("decision = %+v, stored = %s", d, f.tasks["child"].Status)
	}
}

func TestRecompute_OwnFailureIsReturned(t *testing.T) {
	f := newFakeStore()
	f.add("t", "", model.StatusDraft)
	f.failStatus["t"] = errors.New("locked")

	if _, err := quietEngine(f).Recompute(context.Background(), "t", "", false, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecompute_UnknownTask(t *testing.T) {
	f := newFakeStore()
	e := quietEngine(f)

	d, err := e.Recompute(context.Background(), "ghost", "", false, nil)
	if err != nil || d != (Decision{model.StatusDraft, ReasonTaskNotFound}) {
		t.Fatalf("decision = %+v, err = %v", d, err)
	}
	d, err = e.Recompute(context.Background(), "ghost", model.StatusCompleted, true, nil)
	if err != nil || d != (Decision{model.StatusCompleted, ReasonTaskNotFound}) {
		t.Fatalf("forced decision = %+v, err = %v", d, err)
	}
	if len(f.writes) != 0 {
		t.Fatalf("writes = %v", f.writes)
	}
}

func TestRecompute_DependeeCompletedUnblocks(t *testing.T) {
	f := newFakeStore()
	f.add("a", "", model.StatusPending)
	b := f.add("b", "", model.StatusDraft)
	b.Description, b.Details, b.Estimate = "d", "x", "1d"
	f.conditions["b"] = 1
	f.assignments["b"] = 1
	f.edges["b"] = []string{"a", "dangling"}

	e := quietEngine(f)
	ctx := context.Background()

	d, _ := e.Recompute(ctx, "b", "", false, nil)
	if d.Reason != ReasonWaitingDependees {
		t.Fatalf("before: %+v", d)
	}

	if _, err := e.Recompute(ctx, "a", model.StatusCompleted, true, nil); err != nil {
		t.Fatal(err)
	}
	d, _ = e.Recompute(ctx, "b", "", false, nil)
	if d != (Decision{model.StatusPending, ReasonFallback}) {
		t.Fatalf("after: %+v", d)
	}
}

func TestRecompute_InvalidRequest(t *testing.T) {
	f := newFakeStore()
	f.add("t", "", model.StatusDraft)
	_, err := quietEngine(f).Recompute(context.Background(), "t", "done", true, nil)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOnChange(t *testing.T) {
	f := newFakeStore()
	f.add("p", "", model.StatusDraft)
	f.add("c", "p", model.StatusDraft)

	e := quietEngine(f)
	var changed []string
	e.OnChange(func(_ context.Context, id string, from model.Status, to Decision) {
		changed = append(changed, id+":"+string(from)+"->"+string(to.Status))
	})

	if _, err := e.Recompute(context.Background(), "c", model.StatusCompleted, true, nil); err != nil {
		t.Fatal(err)
	}
	if len(changed) != 2 || changed[0] != "c:draft->completed" || changed[1] != "p:draft->completed" {
		t.Fatalf("changes = %v", changed)
	}

	changed = nil
	if _, err := e.Recompute(context.Background(), "c", model.StatusCompleted, true, nil); err != nil {
		t.Fatal(err)
	}
	if len(changed) != 0 {
		t.Fatalf("unchanged status reported: %v", changed)
	}
}

func TestDecide_DoesNotPersist(t *testing.T) {
	f := newFakeStore()
	f.add("t", "", model.StatusCompleted)

	d, err := quietEngine(f).Decide(context.Background(), "t", "")
	if err != nil {
		t.Fatal(err)
	}
	if d.Status != model.StatusDraft || len(f.writes) != 0 || f.tasks["t"].Status != model.StatusCompleted {
		t.Fatalf("decision = %+v writes = %v", d, f.writes)
	}
}
