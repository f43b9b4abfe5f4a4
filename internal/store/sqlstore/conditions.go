package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/idgen"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// SyncCompletionConditions replaces the task's conditions. Descriptions are
// trimmed and blank ones dropped.
func (q queries) SyncCompletionConditions(ctx context.Context, taskID string, descriptions []string, at time.Time) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM task_completion_conditions WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("clear completion conditions of %s: %w", taskID, err)
	}

	for i, d := range model.NormalizeConditions(descriptions) {
		id, err := idgen.Generate(idgen.PrefixCondition)
		if err != nil {
			return err
		}
		_, err = q.db.ExecContext(ctx, `
			INSERT INTO task_completion_conditions (id, task_id, description, order_index, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, taskID, d, i, at, at,
		)
		if err != nil {
			return fmt.Errorf("insert completion condition for %s: %w", taskID, err)
		}
	}
	return nil
}

// CollectCompletionConditions returns the ordered conditions of every
// requested task. Each id gets an entry.
func (q queries) CollectCompletionConditions(ctx context.Context, taskIDs []string) (map[string][]*model.CompletionCondition, error) {
	out := make(map[string][]*model.CompletionCondition, len(taskIDs))
	for _, id := range taskIDs {
		out[id] = []*model.CompletionCondition{}
	}
	ids := dedupe(taskIDs)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT id, task_id, description, order_index, created_at
		FROM task_completion_conditions
		WHERE task_id IN (`+placeholders(1, len(ids))+`)
		ORDER BY task_id, order_index`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("collect completion conditions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCondition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion condition: %w", err)
		}
		out[c.TaskID] = append(out[c.TaskID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
