package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/entwire/entwire/internal/store"
	"github.com/entwire/entwire/pkg/model"
)

// Seed inserts bootstrap identity rows, but only when the identity table is
// empty; existing rows are never overwritten. Passwords are bcrypt-hashed,
// falling back to the configured default password when a record omits one.
// Role values given by name are resolved through the role foreign key,
// creating the role row on first use.
func Seed(ctx context.Context, st *store.Store, b *Bound, models map[string]model.ModelSet, records []map[string]any) error {
	if len(records) == 0 {
		return nil
	}
	ms := models[b.Entity.Name]
	n, err := st.Count(ctx, ms.Table)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, rec := range records {
		values := make(map[string]any, len(rec))
		for k, v := range rec {
			values[k] = v
		}
		pw, _ := values[b.PasswordColumn].(string)
		if pw == "" {
			pw = b.DefaultPass
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		values[b.PasswordColumn] = string(hash)
		if b.SoftDelete.AppliesTo(b.Entity.Name) {
			if _, ok := values[b.SoftDelete.Field]; !ok {
				values[b.SoftDelete.Field] = true
			}
		}
		if b.RoleRef != nil {
			if name, ok := values[b.RoleColumn].(string); ok {
				id, err := ensureRole(ctx, st, b, models, name)
				if err != nil {
					return err
				}
				values[b.RoleColumn] = id
			}
		}
		coerced, err := coerceSeed(ms, values)
		if err != nil {
			return fmt.Errorf("seed %s: %w", b.Entity.Name, err)
		}
		if _, err := st.Insert(ctx, ms, coerced); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser inserts a single identity row with a bcrypt-hashed password.
// Unlike Seed it does not care whether the table already has rows.
func CreateUser(ctx context.Context, st *store.Store, b *Bound, models map[string]model.ModelSet, username, password, role string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	values := map[string]any{
		b.UserColumn:     username,
		b.PasswordColumn: string(hash),
	}
	if b.SoftDelete.AppliesTo(b.Entity.Name) {
		values[b.SoftDelete.Field] = true
	}
	if role != "" {
		if b.RoleRef != nil {
			id, err := ensureRole(ctx, st, b, models, role)
			if err != nil {
				return 0, err
			}
			values[b.RoleColumn] = id
		} else {
			values[b.RoleColumn] = role
		}
	}
	ms := models[b.Entity.Name]
	coerced, err := coerceSeed(ms, values)
	if err != nil {
		return 0, err
	}
	return st.Insert(ctx, ms, coerced)
}

// ensureRole returns the primary key of the role row with the given name,
// inserting it when missing.
func ensureRole(ctx context.Context, st *store.Store, b *Bound, models map[string]model.ModelSet, name string) (int64, error) {
	target := models[b.RoleRef.TargetEntity]
	rows, err := st.List(ctx, target, b.SoftDelete, store.ListOptions{})
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		if row[b.RoleNameCol] == name {
			if id, ok := row[target.PKColumn].(int64); ok {
				return id, nil
			}
		}
	}
	return st.Insert(ctx, target, map[string]any{b.RoleNameCol: name})
}

// coerceSeed runs seed values through per-column coercion. Seed records come
// from configuration, so unknown keys fail the whole seed.
func coerceSeed(ms model.ModelSet, values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for name, v := range values {
		var found bool
		for _, c := range ms.Persistence {
			if c.Name != name {
				continue
			}
			found = true
			if c.PrimaryKey || v == nil {
				break
			}
			cv, err := model.CoerceValue(c.Type, v)
			if err != nil {
				return nil, &model.ValidationError{Field: name, Reason: err.Error()}
			}
			out[name] = cv
		}
		if !found {
			return nil, &model.ValidationError{Field: name, Reason: "unknown field"}
		}
	}
	return out, nil
}
