package model

import "time"

// Dependency is a precedence edge: ToTaskID cannot finish before FromTaskID.
type Dependency struct {
	ID         string                `json:"id"`
	FromTaskID string                `json:"from_task_id"` // dependee (upstream)
	ToTaskID   string                `json:"to_task_id"`   // dependent (downstream)
	CreatedAt  time.Time             `json:"created_at"`
	Artifacts  []*DependencyArtifact `json:"artifacts,omitempty"`
}

// DependencyArtifact ties an artifact to a dependency edge.
type DependencyArtifact struct {
	ID           string    `json:"id"`
	DependencyID string    `json:"dependency_id"`
	ArtifactID   string    `json:"artifact_id"`
	OrderIndex   int       `json:"order_index"`
	Artifact     *Artifact `json:"artifact,omitempty"`
}

// DependencySummary describes the task on the other side of an edge, as seen
// from the task being read.
type DependencySummary struct {
	DependencyID string                `json:"dependency_id"`
	TaskID       string                `json:"task_id"`
	Title        string                `json:"title"`
	Status       Status                `json:"status"`
	Artifacts    []*DependencyArtifact `json:"artifacts,omitempty"`
}

// DependencySet holds the neighbour ids of one task.
type DependencySet struct {
	Dependees  []string `json:"dependees"`
	Dependents []string `json:"dependents"`
}

// DependencyInput names a dependee task and the artifacts it hands over.
type DependencyInput struct {
	TaskID    string   `json:"task_id"`
	Artifacts []string `json:"artifacts,omitempty"`
}
