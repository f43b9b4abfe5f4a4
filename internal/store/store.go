package store

import (
	"context"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// Store defines the persistence interface for the work-breakdown structure.
type Store interface {
	// Task hierarchy
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	GetTaskDetail(ctx context.Context, id string) (*model.Task, error)
	ListChildren(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error)
	ListLeaves(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error)
	ListAllTasks(ctx context.Context) ([]*model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task, ifVersion int) error
	SetTaskStatus(ctx context.Context, id string, status model.Status, at time.Time) error
	MoveTask(ctx context.Context, id, newParentID string, at time.Time) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) (bool, error)

	// Dependency graph
	CreateDependency(ctx context.Context, dep *model.Dependency, artifactIDs []string) error
	UpdateDependency(ctx context.Context, dep *model.Dependency, artifactIDs []string) error
	GetDependency(ctx context.Context, id string) (*model.Dependency, error)
	DeleteDependency(ctx context.Context, id string) (bool, error)
	DependeesOf(ctx context.Context, taskID string) ([]string, error)
	DependentsOf(ctx context.Context, taskID string) ([]string, error)
	CollectDependencies(ctx context.Context, taskIDs []string) (map[string]*model.DependencySet, error)
	SyncDependees(ctx context.Context, taskID string, deps []model.DependencyInput, at time.Time) error

	// Artifacts
	CreateArtifact(ctx context.Context, artifact *model.Artifact) error
	GetArtifact(ctx context.Context, id string) (*model.Artifact, error)
	ListArtifacts(ctx context.Context) ([]*model.Artifact, error)
	UpdateArtifact(ctx context.Context, artifact *model.Artifact) error
	DeleteArtifact(ctx context.Context, id string) (bool, error)
	SyncArtifactAssignments(ctx context.Context, taskID string, role model.ArtifactRole, items []model.ArtifactRef, at time.Time) error
	CollectArtifactAssignments(ctx context.Context, taskIDs []string) (map[string][]*model.ArtifactAssignment, error)

	// Completion conditions
	SyncCompletionConditions(ctx context.Context, taskID string, descriptions []string, at time.Time) error
	CollectCompletionConditions(ctx context.Context, taskIDs []string) (map[string][]*model.CompletionCondition, error)

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, taskID string) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
