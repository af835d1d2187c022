package postgres

import (
	"context"
	_ "embed"
)

//go:embed schema.sql
var schema string

// EnsureSchema creates the tables if they do not exist yet. Safe to run on
// every start.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}
