package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements the read and write methods of store.Store on top of an
// executor. Store and txStore embed it and add transaction handling.
type queries struct {
	db executor
}

// placeholders returns "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ps, ", ")
}

// stringArgs converts ids into query arguments.
func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// dedupe returns ids without duplicates or blanks, keeping the first occurrence.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// rowExists reports whether query (expected to select a single column with
// LIMIT 1) returns a row.
func rowExists(ctx context.Context, db executor, query string, args ...any) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// existingIDs returns the subset of ids present in table.
func existingIDs(ctx context.Context, db executor, table string, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	ids = dedupe(ids)
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id FROM `+table+` WHERE id IN (`+placeholders(1, len(ids))+`)`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	present, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}
	for _, id := range present {
		found[id] = true
	}
	return found, nil
}
