package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/events"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/idgen"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// CreateDependency adds the edge from -> to (to waits for from) with the
// given artifact links, then recomputes the downstream task.
func (s *Service) CreateDependency(ctx context.Context, fromID, toID string, artifactIDs []string) (*model.Dependency, error) {
	id, err := idgen.Generate(idgen.PrefixDependency)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	dep := &model.Dependency{ID: id, FromTaskID: fromID, ToTaskID: toID, CreatedAt: s.now()}
	if err := s.store.CreateDependency(ctx, dep, artifactIDs); err != nil {
		return nil, err
	}

	created, err := s.store.GetDependency(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, events.TopicDependencyCreated, toID, events.DependencyCreated{Dependency: created})
	s.recompute(ctx, toID)
	return created, nil
}

// UpdateDependency rewrites an edge's endpoints and replaces its artifact
// links. Both the old and the new downstream task are recomputed.
func (s *Service) UpdateDependency(ctx context.Context, id, fromID, toID string, artifactIDs []string) (*model.Dependency, error) {
	before, err := s.store.GetDependency(ctx, id)
	if err != nil {
		return nil, err
	}
	dep := &model.Dependency{ID: id, FromTaskID: fromID, ToTaskID: toID}
	if err := s.store.UpdateDependency(ctx, dep, artifactIDs); err != nil {
		return nil, err
	}

	updated, err := s.store.GetDependency(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, events.TopicDependencyUpdated, toID, events.DependencyUpdated{Dependency: updated})
	s.recompute(ctx, toID)
	if before.ToTaskID != toID {
		s.recompute(ctx, before.ToTaskID)
	}
	return updated, nil
}

// DeleteDependency removes an edge. It reports false when the edge did not exist.
func (s *Service) DeleteDependency(ctx context.Context, id string) (bool, error) {
	dep, err := s.store.GetDependency(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ok, err := s.store.DeleteDependency(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.record(ctx, events.TopicDependencyDeleted, dep.ToTaskID, events.DependencyDeleted{
		DependencyID: id,
		FromTaskID:   dep.FromTaskID,
		ToTaskID:     dep.ToTaskID,
	})
	s.recompute(ctx, dep.ToTaskID)
	return true, nil
}

// GetDependency returns an edge with its artifact links.
func (s *Service) GetDependency(ctx context.Context, id string) (*model.Dependency, error) {
	return s.store.GetDependency(ctx, id)
}

// CreateArtifactInput holds the parameters for registering an artifact.
type CreateArtifactInput struct {
	Title       string `json:"title"`
	URI         string `json:"uri,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateArtifactInput holds a partial artifact update; nil means unchanged.
type UpdateArtifactInput struct {
	Title       *string `json:"title,omitempty"`
	URI         *string `json:"uri,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (s *Service) CreateArtifact(ctx context.Context, in CreateArtifactInput) (*model.Artifact, error) {
	id, err := idgen.Generate(idgen.PrefixArtifact)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	now := s.now()
	a := &model.Artifact{
		ID:          id,
		Title:       in.Title,
		URI:         in.URI,
		Description: in.Description,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := model.ValidateArtifact(a); err != nil {
		return nil, err
	}
	if err := s.store.CreateArtifact(ctx, a); err != nil {
		return nil, err
	}
	s.record(ctx, events.TopicArtifactCreated, "", events.ArtifactCreated{Artifact: a})
	return a, nil
}

func (s *Service) GetArtifact(ctx context.Context, id string) (*model.Artifact, error) {
	return s.store.GetArtifact(ctx, id)
}

func (s *Service) ListArtifacts(ctx context.Context) ([]*model.Artifact, error) {
	return s.store.ListArtifacts(ctx)
}

func (s *Service) UpdateArtifact(ctx context.Context, id string, in UpdateArtifactInput) (*model.Artifact, error) {
	a, err := s.store.GetArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.URI != nil {
		a.URI = *in.URI
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if err := model.ValidateArtifact(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = s.now()
	if err := s.store.UpdateArtifact(ctx, a); err != nil {
		return nil, err
	}
	s.record(ctx, events.TopicArtifactUpdated, "", events.ArtifactUpdated{Artifact: a})
	return a, nil
}

// DeleteArtifact removes an artifact together with every assignment and
// dependency link that references it.
func (s *Service) DeleteArtifact(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.DeleteArtifact(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.record(ctx, events.TopicArtifactDeleted, "", events.ArtifactDeleted{ArtifactID: id})
	return true, nil
}
