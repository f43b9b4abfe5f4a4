package sqlstore

import (
	"database/sql"
	"encoding/json"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanTask scans a single row into a model.Task.
// The row must contain columns in the order defined by taskColumns.
func scanTask(row scannable) (*model.Task, error) {
	var t model.Task
	var (
		parentID sql.NullString
		status   string
	)

	err := row.Scan(
		&t.ID,
		&parentID,
		&t.Title,
		&t.Description,
		&t.Details,
		&t.Assignee,
		&t.Estimate,
		&status,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.ParentID = parentID.String
	t.Status = normalizeStatus(status)
	return &t, nil
}

// scanTaskWithChildCount scans taskColumns followed by a child_count column.
func scanTaskWithChildCount(row scannable) (*model.Task, error) {
	var t model.Task
	var (
		parentID sql.NullString
		status   string
	)

	err := row.Scan(
		&t.ID,
		&parentID,
		&t.Title,
		&t.Description,
		&t.Details,
		&t.Assignee,
		&t.Estimate,
		&status,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ChildCount,
	)
	if err != nil {
		return nil, err
	}

	t.ParentID = parentID.String
	t.Status = normalizeStatus(status)
	return &t, nil
}

// scanTasks scans rows produced with a child_count column.
func scanTasks(rows *sql.Rows) ([]*model.Task, error) {
	tasks := []*model.Task{}
	for rows.Next() {
		t, err := scanTaskWithChildCount(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// normalizeStatus maps a stored status onto the canonical lowercase value.
// Rows written by older tools may carry other spellings.
func normalizeStatus(s string) model.Status {
	if st, ok := model.ParseStatus(s); ok {
		return st
	}
	return model.Status(s)
}

// scanArtifact scans a single row into a model.Artifact.
// The row must contain columns in the order defined by artifactColumns.
func scanArtifact(row scannable) (*model.Artifact, error) {
	var a model.Artifact
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.URI,
		&a.Description,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// scanArtifacts scans multiple rows into a slice of model.Artifact pointers.
func scanArtifacts(rows *sql.Rows) ([]*model.Artifact, error) {
	artifacts := []*model.Artifact{}
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// scanAssignment scans an assignment row joined with its artifact columns.
func scanAssignment(row scannable) (*model.ArtifactAssignment, error) {
	var (
		as   model.ArtifactAssignment
		a    model.Artifact
		role string
	)
	err := row.Scan(
		&as.ID,
		&as.TaskID,
		&as.ArtifactID,
		&role,
		&as.CRUDOperations,
		&as.OrderIndex,
		&a.ID,
		&a.Title,
		&a.URI,
		&a.Description,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	as.Role = model.ArtifactRole(role)
	as.Artifact = &a
	return &as, nil
}

// scanDependencyArtifact scans a dependency link row joined with its artifact.
func scanDependencyArtifact(row scannable) (*model.DependencyArtifact, error) {
	var (
		l model.DependencyArtifact
		a model.Artifact
	)
	err := row.Scan(
		&l.ID,
		&l.DependencyID,
		&l.ArtifactID,
		&l.OrderIndex,
		&a.ID,
		&a.Title,
		&a.URI,
		&a.Description,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Artifact = &a
	return &l, nil
}

// scanCondition scans a single row into a model.CompletionCondition.
func scanCondition(row scannable) (*model.CompletionCondition, error) {
	var c model.CompletionCondition
	err := row.Scan(&c.ID, &c.TaskID, &c.Description, &c.OrderIndex, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var payload []byte
	err := row.Scan(&e.ID, &e.Topic, &e.TaskID, &e.Actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	events := []*model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// scanStrings collects a single text column.
func scanStrings(rows *sql.Rows) ([]string, error) {
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonPayload converts json.RawMessage to a value suitable for the payload
// column. Text is accepted by both JSONB and BLOB columns.
func jsonPayload(m json.RawMessage) any {
	if len(m) == 0 {
		return nil
	}
	return string(m)
}
