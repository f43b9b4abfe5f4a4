package model

import (
	"encoding/json"
	"time"
)

// Event is a persisted audit record of a lifecycle mutation.
type Event struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	TaskID    string          `json:"task_id,omitempty"`
	Actor     string          `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
