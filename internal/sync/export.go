package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// Source is the read side of the store that an export needs.
type Source interface {
	ListAllTasks(ctx context.Context) ([]*model.Task, error)
	GetTaskDetail(ctx context.Context, id string) (*model.Task, error)
	ListArtifacts(ctx context.Context) ([]*model.Artifact, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	TaskCount     int       `json:"task_count"`
	ArtifactCount int       `json:"artifact_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every artifact and task from the store as JSONL to w.
// Artifacts come first so that a reader meets them before the tasks that
// reference them. Tasks are sorted by ID and carry their completion
// conditions, artifact assignments and upstream dependency edges.
func ExportJSONL(ctx context.Context, s Source, w io.Writer) error {
	artifacts, err := s.ListArtifacts(ctx)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}
	slices.SortFunc(artifacts, func(a, b *model.Artifact) int {
		return strings.Compare(a.ID, b.ID)
	})

	tasks, err := s.ListAllTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	detailed := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		d, err := s.GetTaskDetail(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("get task %s: %w", t.ID, err)
		}
		// The tree is rebuilt from parent_id and edges are listed on the
		// downstream side only.
		d.Children = nil
		d.Dependents = nil
		detailed = append(detailed, d)
	}
	slices.SortFunc(detailed, func(a, b *model.Task) int {
		return strings.Compare(a.ID, b.ID)
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       "1",
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		TaskCount:     len(detailed),
		ArtifactCount: len(artifacts),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, a := range artifacts {
		if err := enc.Encode(record{Type: "artifact", Data: a}); err != nil {
			return fmt.Errorf("encode artifact %s: %w", a.ID, err)
		}
	}
	for _, t := range detailed {
		if err := enc.Encode(record{Type: "task", Data: t}); err != nil {
			return fmt.Errorf("encode task %s: %w", t.ID, err)
		}
	}
	return nil
}
