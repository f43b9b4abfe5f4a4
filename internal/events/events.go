// Package events defines the audit-log topics and payloads recorded after
// committed WBS mutations.
package events

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// Event topic constants
const (
	TopicTaskCreated       = "wbs.task.created"
	TopicTaskUpdated       = "wbs.task.updated"
	TopicTaskMoved         = "wbs.task.moved"
	TopicTaskDeleted       = "wbs.task.deleted"
	TopicTaskStatusChanged = "wbs.task.status_changed"

	TopicDependencyCreated = "wbs.dependency.created"
	TopicDependencyUpdated = "wbs.dependency.updated"
	TopicDependencyDeleted = "wbs.dependency.deleted"

	TopicArtifactCreated = "wbs.artifact.created"
	TopicArtifactUpdated = "wbs.artifact.updated"
	TopicArtifactDeleted = "wbs.artifact.deleted"
)

// Event types

type TaskCreated struct {
	Task *model.Task `json:"task"`
}

type TaskUpdated struct {
	Task    *model.Task    `json:"task"`
	Changes map[string]any `json:"changes"` // field name -> new value
}

type TaskMoved struct {
	TaskID    string `json:"task_id"`
	OldParent string `json:"old_parent_id,omitempty"`
	NewParent string `json:"new_parent_id,omitempty"`
	Version   int    `json:"version"`
}

type TaskDeleted struct {
	TaskID string `json:"task_id"`
}

type TaskStatusChanged struct {
	TaskID string       `json:"task_id"`
	From   model.Status `json:"from"`
	To     model.Status `json:"to"`
	Reason string       `json:"reason_code"`
}

type DependencyCreated struct {
	Dependency *model.Dependency `json:"dependency"`
}

type DependencyUpdated struct {
	Dependency *model.Dependency `json:"dependency"`
}

type DependencyDeleted struct {
	DependencyID string `json:"dependency_id"`
	FromTaskID   string `json:"from_task_id,omitempty"`
	ToTaskID     string `json:"to_task_id,omitempty"`
}

type ArtifactCreated struct {
	Artifact *model.Artifact `json:"artifact"`
}

type ArtifactUpdated struct {
	Artifact *model.Artifact `json:"artifact"`
}

type ArtifactDeleted struct {
	ArtifactID string `json:"artifact_id"`
}

// Summary renders an event as a one-line description for listings.
func Summary(e *model.Event) string {
	switch e.Topic {
	case TopicTaskStatusChanged:
		var p TaskStatusChanged
		if json.Unmarshal(e.Payload, &p) == nil {
			return string(p.From) + " -> " + string(p.To) + " (" + p.Reason + ")"
		}
	case TopicTaskMoved:
		var p TaskMoved
		if json.Unmarshal(e.Payload, &p) == nil {
			return orRoot(p.OldParent) + " -> " + orRoot(p.NewParent)
		}
	case TopicTaskUpdated:
		var p TaskUpdated
		if json.Unmarshal(e.Payload, &p) == nil && len(p.Changes) > 0 {
			keys := make([]string, 0, len(p.Changes))
			for k := range p.Changes {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			return "changed " + strings.Join(keys, ", ")
		}
	}
	return ""
}

func orRoot(id string) string {
	if id == "" {
		return "(root)"
	}
	return id
}
