package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ormdriver "github.com/faciam-dev/goquent/orm/driver"
	"github.com/faciam-dev/goquent/orm/query"

	"github.com/entwire/entwire/internal/permission"
	"github.com/entwire/entwire/pkg/model"
	"github.com/entwire/entwire/pkg/schema"
)

// ErrNotFound marks an operation targeting a row that does not exist, or is
// soft-deleted for a caller without the include-inactive override.
var ErrNotFound = errors.New("row not found")

// ReferenceViolationError reports a create/update pointing at a non-existent
// target row. Kept distinct from shape validation failures.
type ReferenceViolationError struct {
	Field  string
	Target string
	Value  any
}

func (e *ReferenceViolationError) Error() string {
	return fmt.Sprintf("field %q: no %s row with value %v", e.Field, e.Target, e.Value)
}

// Store executes the generated CRUD surface against a relational database.
// It holds no row-level locks itself; per-row atomicity is delegated to the
// storage engine's transactional guarantees.
type Store struct {
	DB      *sql.DB
	Driver  string
	Dialect ormdriver.Dialect
}

// ListOptions controls listing behavior per request.
type ListOptions struct {
	// OrderBy names a response-shape field; empty keeps persisted order.
	OrderBy string
	Desc    bool
	// IncludeInactive lifts the soft-delete filter. Callers gate this on the
	// superuser capability.
	IncludeInactive bool
}

func (s *Store) ph(n int) string {
	if s.Driver == "postgres" {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (s *Store) quote(ident string) string {
	switch s.Driver {
	case "postgres", "sqlite3":
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	case "mysql":
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	default:
		return ident
	}
}

func columnList(s *Store, cols []model.Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = s.quote(c.Name)
	}
	return strings.Join(names, ", ")
}

// List returns rows of the entity in persisted order unless opts.OrderBy is
// given. Soft-deleted rows are excluded unless opts.IncludeInactive.
func (s *Store) List(ctx context.Context, ms model.ModelSet, sd permission.SoftDeletePolicy, opts ListOptions) ([]map[string]any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", columnList(s, ms.Persistence), s.quote(ms.Table))
	var args []any
	if sd.AppliesTo(ms.Entity) && !opts.IncludeInactive {
		fmt.Fprintf(&sb, " WHERE %s = %s", s.quote(sd.Field), s.ph(1))
		args = append(args, true)
	}
	if opts.OrderBy != "" {
		dir := "ASC"
		if opts.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", s.quote(opts.OrderBy), dir)
	}
	rows, err := s.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", ms.Entity, err)
	}
	defer rows.Close()
	var out []map[string]any
	for rows.Next() {
		rec, err := scanRow(rows, ms.Persistence)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns one row by primary key, honoring the soft-delete filter.
func (s *Store) Get(ctx context.Context, ms model.ModelSet, sd permission.SoftDeletePolicy, id any, includeInactive bool) (map[string]any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s WHERE %s = %s", columnList(s, ms.Persistence), s.quote(ms.Table), s.quote(ms.PKColumn), s.ph(1))
	args := []any{id}
	if sd.AppliesTo(ms.Entity) && !includeInactive {
		fmt.Fprintf(&sb, " AND %s = %s", s.quote(sd.Field), s.ph(2))
		args = append(args, true)
	}
	rows, err := s.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ms.Entity, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanRow(rows, ms.Persistence)
}

// Insert writes a validated create payload and returns the new primary key.
func (s *Store) Insert(ctx context.Context, ms model.ModelSet, values map[string]any) (int64, error) {
	var cols []string
	var args []any
	for _, c := range ms.Persistence {
		v, ok := values[c.Name]
		if !ok || c.PrimaryKey {
			continue
		}
		cols = append(cols, s.quote(c.Name))
		args = append(args, v)
	}
	if len(cols) == 0 {
		return 0, &model.ValidationError{Field: ms.Entity, Reason: "empty payload"}
	}
	phs := make([]string, len(cols))
	for i := range cols {
		phs[i] = s.ph(i + 1)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.quote(ms.Table), strings.Join(cols, ", "), strings.Join(phs, ", "))
	if s.Driver == "postgres" {
		var id int64
		q += " RETURNING " + s.quote(ms.PKColumn)
		if err := s.DB.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert %s: %w", ms.Entity, err)
		}
		return id, nil
	}
	res, err := s.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", ms.Entity, err)
	}
	return res.LastInsertId()
}

// Update applies a validated partial payload to one row by primary key.
func (s *Store) Update(ctx context.Context, ms model.ModelSet, id any, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	exists, err := s.Exists(ctx, ms.Table, ms.PKColumn, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	var sets []string
	var args []any
	n := 1
	for _, c := range ms.Persistence {
		v, ok := values[c.Name]
		if !ok || c.PrimaryKey {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", s.quote(c.Name), s.ph(n)))
		args = append(args, v)
		n++
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s", s.quote(ms.Table), strings.Join(sets, ", "), s.quote(ms.PKColumn), s.ph(n))
	args = append(args, id)
	if _, err := s.DB.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("update %s: %w", ms.Entity, err)
	}
	return nil
}

// Delete removes one row by primary key. When the soft-delete policy applies
// to the entity the enabled flag is cleared instead; repeating the delete is
// a no-op that still succeeds.
func (s *Store) Delete(ctx context.Context, ms model.ModelSet, sd permission.SoftDeletePolicy, id any) error {
	if sd.AppliesTo(ms.Entity) {
		exists, err := s.Exists(ctx, ms.Table, ms.PKColumn, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		q := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s",
			s.quote(ms.Table), s.quote(sd.Field), s.ph(1), s.quote(ms.PKColumn), s.ph(2))
		if _, err := s.DB.ExecContext(ctx, q, false, id); err != nil {
			return fmt.Errorf("soft delete %s: %w", ms.Entity, err)
		}
		return nil
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", s.quote(ms.Table), s.quote(ms.PKColumn), s.ph(1))
	res, err := s.DB.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", ms.Entity, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether any row has the given value in the column.
func (s *Store) Exists(ctx context.Context, table, column string, v any) (bool, error) {
	q := query.New(s.DB, table, s.Dialect).
		SelectRaw("COUNT(*) AS cnt").
		WhereRaw(column+" = :v", map[string]any{"v": v}).
		WithContext(ctx)
	var res struct{ Cnt int }
	if err := q.First(&res); err != nil {
		return false, fmt.Errorf("exists %s.%s: %w", table, column, err)
	}
	return res.Cnt > 0, nil
}

// Count returns the number of rows in a table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	q := query.New(s.DB, table, s.Dialect).
		SelectRaw("COUNT(*) AS cnt").
		WithContext(ctx)
	var res struct{ Cnt int }
	if err := q.First(&res); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return res.Cnt, nil
}

// ValidateRefs checks every foreign key value in a validated payload against
// the target table, returning a ReferenceViolationError on the first miss.
func (s *Store) ValidateRefs(ctx context.Context, set *schema.Set, models map[string]model.ModelSet, entity string, values map[string]any) error {
	for name, v := range values {
		if v == nil {
			continue
		}
		rel := set.RelationFor(entity, name)
		if rel == nil {
			continue
		}
		target := models[rel.TargetEntity]
		ok, err := s.Exists(ctx, target.Table, rel.TargetField, v)
		if err != nil {
			return err
		}
		if !ok {
			return &ReferenceViolationError{Field: name, Target: rel.TargetEntity + "." + rel.TargetField, Value: v}
		}
	}
	return nil
}

// scanRow reads the current row into a map keyed by column name, converting
// driver values into the canonical representations the response shape uses.
func scanRow(rows *sql.Rows, cols []model.Column) (map[string]any, error) {
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	rec := make(map[string]any, len(cols))
	for i, c := range cols {
		rec[c.Name] = convertValue(c.Type, vals[i])
	}
	return rec, nil
}

func convertValue(t schema.FieldType, v any) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch t {
	case schema.TypeInteger:
		switch n := v.(type) {
		case int64:
			return n
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i
			}
		}
	case schema.TypeFloat:
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	case schema.TypeBoolean:
		switch b := v.(type) {
		case bool:
			return b
		case int64:
			return b != 0
		case string:
			return b == "1" || b == "true" || b == "t"
		}
	case schema.TypeDatetime, schema.TypeDate:
		switch ts := v.(type) {
		case time.Time:
			return ts
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
				if parsed, err := time.Parse(layout, ts); err == nil {
					return parsed
				}
			}
		}
	case schema.TypeJSON:
		if s, ok := v.(string); ok {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return decoded
			}
		}
	}
	return v
}
