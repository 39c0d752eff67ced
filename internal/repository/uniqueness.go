package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// EntityKind names a table guarded against duplicate values.
type EntityKind string

const (
	EntityCategory  EntityKind = "category"
	EntityAttribute EntityKind = "attribute"
)

// guardedFields whitelists the columns that may be looked up per table, so
// no caller-supplied identifier ever reaches the query text.
var guardedFields = map[EntityKind]map[string]bool{
	EntityCategory:  {"name": true},
	EntityAttribute: {"value": true, "type": true},
}

// Filter narrows a uniqueness lookup to rows whose Field equals Value.
type Filter struct {
	Field string
	Value string
}

// UniquenessGuard answers "does a row with this value already exist" before
// an insert. It is a check-then-act pre-check: the unique constraints in the
// schema remain the final arbiter and surface as duplicate-value errors.
type UniquenessGuard interface {
	ExistsWithValue(ctx context.Context, kind EntityKind, field, value string, scope ...Filter) (bool, error)
}

type uniquenessGuard struct {
	db DBTX
}

// NewUniquenessGuard creates a new instance of UniquenessGuard
func NewUniquenessGuard(db DBTX) UniquenessGuard {
	return &uniquenessGuard{db: db}
}

// ExistsWithValue performs an exact-match, case-sensitive lookup of one row.
func (g *uniquenessGuard) ExistsWithValue(ctx context.Context, kind EntityKind, field, value string, scope ...Filter) (bool, error) {
	fields, ok := guardedFields[kind]
	if !ok {
		return false, fmt.Errorf("uniqueness guard: unknown entity %q", kind)
	}

	conditions := make([]string, 0, len(scope)+1)
	args := make([]interface{}, 0, len(scope)+1)

	for i, f := range append([]Filter{{Field: field, Value: value}}, scope...) {
		if !fields[f.Field] {
			return false, fmt.Errorf("uniqueness guard: field %q is not guarded on %s", f.Field, kind)
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", pgx.Identifier{f.Field}.Sanitize(), i+1))
		args = append(args, f.Value)
	}

	query := fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM %s WHERE %s)",
		pgx.Identifier{string(kind)}.Sanitize(),
		strings.Join(conditions, " AND "),
	)

	var exists bool
	if err := g.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, storageError(err, fmt.Sprintf("failed to check existing %s", kind))
	}

	return exists, nil
}
