package sqlstore

import (
	"context"
	"fmt"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/idgen"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

func (q queries) RecordEvent(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		id, err := idgen.Generate(idgen.PrefixEvent)
		if err != nil {
			return err
		}
		e.ID = id
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO events (id, topic, task_id, actor, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Topic, e.TaskID, e.Actor, jsonPayload(e.Payload), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record event %s: %w", e.Topic, err)
	}
	return nil
}

func (q queries) GetEvents(ctx context.Context, taskID string) ([]*model.Event, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, topic, task_id, actor, payload, created_at
		FROM events
		WHERE task_id = $1
		ORDER BY created_at ASC, id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("get events of %s: %w", taskID, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}
