// Package lifecycle is the entry point for every WBS mutation. It wraps
// multi-table writes in one transaction, enforces optimistic concurrency and
// recomputes statuses once the write has committed.
package lifecycle

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/events"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/status"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/store"
)

// Service implements the task lifecycle operations on top of a store.
type Service struct {
	store  store.Store
	engine *status.Engine
	logger *slog.Logger
	now    func() time.Time
	actor  string
}

// New creates a Service backed by s. A nil logger falls back to slog.Default().
func New(s store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		store:  s,
		engine: status.NewEngine(s, logger),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	svc.engine.OnChange(svc.statusChanged)
	return svc
}

// SetClock replaces the time source for timestamps written by the service
// and its status engine.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.engine.SetClock(now)
}

// SetActor names who is making changes; it is stored on audit events.
func (s *Service) SetActor(actor string) {
	s.actor = actor
}

// Engine exposes the status engine, e.g. for dry-run decisions.
func (s *Service) Engine() *status.Engine {
	return s.engine
}

// recompute runs the status engine after a committed write. Failures are
// logged; the write itself already succeeded.
func (s *Service) recompute(ctx context.Context, taskID string) {
	if taskID == "" {
		return
	}
	if _, err := s.engine.Recompute(ctx, taskID, "", false, nil); err != nil {
		s.logger.Warn("failed to recompute status", "task_id", taskID, "error", err)
	}
}

func (s *Service) statusChanged(ctx context.Context, taskID string, from model.Status, to status.Decision) {
	s.record(ctx, events.TopicTaskStatusChanged, taskID, events.TaskStatusChanged{
		TaskID: taskID,
		From:   from,
		To:     to.Status,
		Reason: string(to.Reason),
	})
}

// record appends an audit event. Failures are logged and swallowed.
func (s *Service) record(ctx context.Context, topic, taskID string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event", "topic", topic, "task_id", taskID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:     topic,
		TaskID:    taskID,
		Actor:     s.actor,
		Payload:   payload,
		CreatedAt: s.now(),
	}); err != nil {
		s.logger.Warn("failed to record event", "topic", topic, "task_id", taskID, "error", err)
	}
}

// TaskEvents returns the audit trail of a task, oldest first.
func (s *Service) TaskEvents(ctx context.Context, taskID string) ([]*model.Event, error) {
	return s.store.GetEvents(ctx, taskID)
}
