package model

import "time"

// ArtifactRole says how a task relates to an artifact.
type ArtifactRole string

const (
	RoleDeliverable  ArtifactRole = "deliverable"
	RolePrerequisite ArtifactRole = "prerequisite"
)

// String returns the string representation of the role.
func (r ArtifactRole) String() string {
	return string(r)
}

// IsValid checks whether the role is a known value.
func (r ArtifactRole) IsValid() bool {
	switch r {
	case RoleDeliverable, RolePrerequisite:
		return true
	}
	return false
}

// Artifact is a document or other work product referenced by tasks and edges.
type Artifact struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URI         string    `json:"uri,omitempty"`
	Description string    `json:"description,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ArtifactAssignment attaches an artifact to a task under a role.
type ArtifactAssignment struct {
	ID             string       `json:"id"`
	TaskID         string       `json:"task_id"`
	ArtifactID     string       `json:"artifact_id"`
	Role           ArtifactRole `json:"role"`
	CRUDOperations string       `json:"crud_operations,omitempty"`
	OrderIndex     int          `json:"order_index"`
	Artifact       *Artifact    `json:"artifact,omitempty"`
}

// ArtifactRef is one entry of an assignment sync.
type ArtifactRef struct {
	ArtifactID     string `json:"artifact_id"`
	CRUDOperations string `json:"crud_operations,omitempty"`
}

// CompletionCondition is a free-text acceptance criterion of a task.
type CompletionCondition struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
}
