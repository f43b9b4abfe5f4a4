package sync

import (
	"context"
	"errors"
	"sort"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// mockSource is a minimal in-memory Source for sync tests.
type mockSource struct {
	tasks      map[string]*model.Task
	artifacts  map[string]*model.Artifact
	deps       map[string][]*model.DependencySummary
	conditions map[string][]*model.CompletionCondition
	assigned   map[string][]*model.ArtifactAssignment
	failDetail bool
}

func newMockSource() *mockSource {
	return &mockSource{
		tasks:      make(map[string]*model.Task),
		artifacts:  make(map[string]*model.Artifact),
		deps:       make(map[string][]*model.DependencySummary),
		conditions: make(map[string][]*model.CompletionCondition),
		assigned:   make(map[string][]*model.ArtifactAssignment),
	}
}

func (m *mockSource) ListAllTasks(_ context.Context) ([]*model.Task, error) {
	result := make([]*model.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		result = append(result, t)
	}
	// Reverse order so the export has to sort.
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (m *mockSource) GetTaskDetail(_ context.Context, id string) (*model.Task, error) {
	if m.failDetail {
		return nil, errors.New("boom")
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, model.NotFound("task", id)
	}
	cp := *t
	cp.Dependencies = m.deps[id]
	cp.CompletionConditions = m.conditions[id]
	cp.Artifacts = m.assigned[id]
	cp.Children = []*model.Task{{ID: "child-of-" + id}}
	cp.Dependents = []*model.DependencySummary{{TaskID: "downstream"}}
	return &cp, nil
}

func (m *mockSource) ListArtifacts(_ context.Context) ([]*model.Artifact, error) {
	result := make([]*model.Artifact, 0, len(m.artifacts))
	for _, a := range m.artifacts {
		result = append(result, a)
	}
	return result, nil
}
