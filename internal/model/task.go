package model

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus normalizes s (case-insensitive, surrounding space ignored) and
// returns the matching Status. ok is false for unknown values.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", false
	}
	return st, true
}

// Task is a node of the work-breakdown structure.
type Task struct {
	ID          string    `json:"id"`
	ParentID    string    `json:"parent_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Details     string    `json:"details,omitempty"`
	Assignee    string    `json:"assignee,omitempty"`
	Estimate    string    `json:"estimate,omitempty"`
	Status      Status    `json:"status"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relational data -- populated by queries, not stored in the tasks table.
	ChildCount           int                    `json:"child_count"`
	Children             []*Task                `json:"children,omitempty"`
	Dependencies         []*DependencySummary   `json:"dependencies,omitempty"`
	Dependents           []*DependencySummary   `json:"dependents,omitempty"`
	Artifacts            []*ArtifactAssignment  `json:"artifacts,omitempty"`
	CompletionConditions []*CompletionCondition `json:"completion_conditions,omitempty"`
}

// IsRoot reports whether the task has no parent.
func (t *Task) IsRoot() bool {
	return t.ParentID == ""
}

// InitialStatus returns the status a freshly created task starts in: pending
// when title, description and estimate are all filled in, draft otherwise.
// Children and dependencies cannot exist yet, so nothing else is consulted.
func InitialStatus(title, description, estimate string) Status {
	if blank(title) || blank(description) || blank(estimate) {
		return StatusDraft
	}
	return StatusPending
}

// TaskFilter holds criteria for listing tasks.
type TaskFilter struct {
	ParentID string // empty = roots
	Status   Status // empty = any; matched case-insensitively
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
