package sqlstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/taskorbit/taskorbit/internal/store"
)

// The functions here are the entity-generic gateway operations. Typed
// repositories wrap them; nothing outside this package builds SQL.

// fetchWhere selects all rows of d matching the conjunctive filters,
// scanned into R. Zero matches yield an empty slice, never an error.
func fetchWhere[R any](ctx context.Context, r runner, d store.Descriptor, f store.Filters, orderBy string) ([]R, error) {
	where, args, err := buildWhere(d, f)
	if err != nil {
		return nil, err
	}

	q := "SELECT " + strings.Join(d.Columns, ", ") + " FROM " + r.table(d)
	if where != "" {
		q += " WHERE " + where
	}
	if orderBy != "" {
		q += " ORDER BY " + orderBy
	}

	q, expanded, err := expand(q, args)
	if err != nil {
		return nil, err
	}

	out := []R{}
	if err := sqlx.SelectContext(ctx, r.ext, &out, r.ext.Rebind(q), expanded...); err != nil {
		return nil, r.opt.mapError(err)
	}
	return out, nil
}

// fetchOne looks a row up by primary key. store.ErrNotFound when absent.
func fetchOne[R any](ctx context.Context, r runner, d store.Descriptor, id string) (R, error) {
	var row R
	q := "SELECT " + strings.Join(d.Columns, ", ") + " FROM " + r.table(d) +
		" WHERE " + d.Primary + " = ?"
	if err := sqlx.GetContext(ctx, r.ext, &row, r.ext.Rebind(q), id); err != nil {
		return row, r.opt.mapError(err)
	}
	return row, nil
}

// insertRow inserts one row built from a column/value payload. Ids are
// assigned by the caller, so nothing needs to be read back.
func insertRow(ctx context.Context, r runner, d store.Descriptor, payload map[string]any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty insert payload", store.ErrBadField)
	}

	cols := sortedColumns(payload)
	if err := checkColumns(d, cols); err != nil {
		return err
	}

	args := make([]any, 0, len(cols))
	marks := make([]string, 0, len(cols))
	for _, c := range cols {
		args = append(args, payload[c])
		marks = append(marks, "?")
	}

	q := "INSERT INTO " + r.table(d) + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(marks, ", ") + ")"
	if _, err := r.ext.ExecContext(ctx, r.ext.Rebind(q), args...); err != nil {
		return r.opt.mapError(err)
	}
	return nil
}

// updateWhere applies updates to every row matching the AND of match.
// An empty match map is rejected outright so a typo can never rewrite the
// whole table. updated_at is bumped automatically.
func updateWhere(ctx context.Context, r runner, d store.Descriptor, match map[string]any, updates map[string]any) error {
	if len(match) == 0 {
		return store.ErrEmptyMatch
	}
	if len(updates) == 0 {
		return fmt.Errorf("%w: empty update payload", store.ErrBadField)
	}

	cols := sortedColumns(updates)
	if err := checkColumns(d, cols); err != nil {
		return err
	}

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = ?")
		args = append(args, updates[c])
	}
	if _, explicit := updates["updated_at"]; !explicit && d.HasColumn("updated_at") {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC())
	}

	where, whereArgs, err := buildWhere(d, match)
	if err != nil {
		return err
	}
	args = append(args, whereArgs...)

	q := "UPDATE " + r.table(d) + " SET " + strings.Join(sets, ", ") + " WHERE " + where
	q, args, err = expand(q, args)
	if err != nil {
		return err
	}
	if _, err := r.ext.ExecContext(ctx, r.ext.Rebind(q), args...); err != nil {
		return r.opt.mapError(err)
	}
	return nil
}

// deleteWhere removes every row matching the AND of match, with the same
// empty-match guard as updateWhere.
func deleteWhere(ctx context.Context, r runner, d store.Descriptor, match map[string]any) error {
	if len(match) == 0 {
		return store.ErrEmptyMatch
	}

	where, args, err := buildWhere(d, match)
	if err != nil {
		return err
	}

	q := "DELETE FROM " + r.table(d) + " WHERE " + where
	q, args, err = expand(q, args)
	if err != nil {
		return err
	}
	if _, err := r.ext.ExecContext(ctx, r.ext.Rebind(q), args...); err != nil {
		return r.opt.mapError(err)
	}
	return nil
}

// sqlxSelect runs a hand-written query through the runner's binder and
// error mapping. Used by the task-specific list and search operations.
func sqlxSelect(ctx context.Context, r runner, dest any, q string, args ...any) error {
	if err := sqlx.SelectContext(ctx, r.ext, dest, r.ext.Rebind(q), args...); err != nil {
		return r.opt.mapError(err)
	}
	return nil
}

// buildWhere renders filters as an AND of per-column clauses with "?"
// placeholders. Scalars compare for equality; slices become membership
// tests (expanded later by sqlx.In). Filter order is made deterministic by
// sorting column names.
func buildWhere(d store.Descriptor, f store.Filters) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}

	cols := sortedColumns(f)
	if err := checkColumns(d, cols); err != nil {
		return "", nil, err
	}

	clauses := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		switch v := f[c].(type) {
		case []string:
			if len(v) == 0 {
				clauses = append(clauses, "1 = 0") // empty set matches nothing
				continue
			}
			clauses = append(clauses, c+" IN (?)")
			args = append(args, v)
		case []any:
			if len(v) == 0 {
				clauses = append(clauses, "1 = 0")
				continue
			}
			clauses = append(clauses, c+" IN (?)")
			args = append(args, v)
		default:
			clauses = append(clauses, c+" = ?")
			args = append(args, v)
		}
	}

	return strings.Join(clauses, " AND "), args, nil
}

// expand runs sqlx.In to unroll slice arguments into positional ones.
func expand(q string, args []any) (string, []any, error) {
	if len(args) == 0 {
		return q, args, nil
	}
	q, expanded, err := sqlx.In(q, args...)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", store.ErrBadField, err)
	}
	return q, expanded, nil
}

func sortedColumns[V any](m map[string]V) []string {
	cols := make([]string, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func checkColumns(d store.Descriptor, cols []string) error {
	for _, c := range cols {
		if !d.HasColumn(c) {
			return fmt.Errorf("%w: %s.%s", store.ErrBadField, d.Name, c)
		}
	}
	return nil
}
