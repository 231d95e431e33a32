package auth

import (
	"fmt"

	"github.com/entwire/entwire/internal/config"
	"github.com/entwire/entwire/internal/permission"
	"github.com/entwire/entwire/pkg/schema"
)

// Bound is the AUTH configuration resolved against the loaded schema: the
// identity entity and its columns, verified to exist. Binding failures are
// fatal at startup; the service never falls back to a hard-coded table.
type Bound struct {
	Entity         *schema.EntityDef
	UserColumn     string
	PasswordColumn string
	RoleColumn     string
	Superuser      string
	DefaultPass    string
	SoftDelete     permission.SoftDeletePolicy

	// RoleRef is set when the role column is a foreign key; role names are
	// then read from the referenced entity's first text field.
	RoleRef     *schema.Relation
	RoleNameCol string
}

// Bind validates the AUTH block against the schema set.
func Bind(cfg config.AuthConfig, set *schema.Set) (*Bound, error) {
	e := set.Entity(cfg.Table)
	if e == nil {
		return nil, fmt.Errorf("auth: identity table %q not found in schema", cfg.Table)
	}
	b := &Bound{
		Entity:         e,
		UserColumn:     cfg.UserColumn,
		PasswordColumn: cfg.PasswordColumn,
		RoleColumn:     cfg.RoleColumn,
		Superuser:      cfg.Superuser,
		DefaultPass:    cfg.DefaultPassword,
	}
	if e.Field(cfg.UserColumn) == nil {
		return nil, fmt.Errorf("auth: entity %s has no username field %q", e.Name, cfg.UserColumn)
	}
	if e.Field(cfg.PasswordColumn) == nil {
		return nil, fmt.Errorf("auth: entity %s has no password field %q", e.Name, cfg.PasswordColumn)
	}
	if cfg.DeleteMode == string(permission.SoftDeleteBoolean) {
		f := e.Field(cfg.DeleteColumn)
		if f == nil {
			return nil, fmt.Errorf("auth: entity %s has no soft-delete field %q", e.Name, cfg.DeleteColumn)
		}
		if f.Type != schema.TypeBoolean {
			return nil, fmt.Errorf("auth: soft-delete field %s.%s must be boolean, is %s", e.Name, cfg.DeleteColumn, f.Type)
		}
		b.SoftDelete = permission.SoftDeletePolicy{
			Mode:   permission.SoftDeleteBoolean,
			Entity: e.Name,
			Field:  cfg.DeleteColumn,
		}
	}
	if cfg.RoleColumn != "" {
		if e.Field(cfg.RoleColumn) == nil {
			return nil, fmt.Errorf("auth: entity %s has no role field %q", e.Name, cfg.RoleColumn)
		}
		if rel := set.RelationFor(e.Name, cfg.RoleColumn); rel != nil {
			target := set.Entities[rel.TargetEntity]
			for i := range target.Fields {
				f := &target.Fields[i]
				if !f.PrimaryKey && (f.Type == schema.TypeString || f.Type == schema.TypeText) {
					b.RoleRef = rel
					b.RoleNameCol = f.Name
					break
				}
			}
			if b.RoleRef == nil {
				return nil, fmt.Errorf("auth: role entity %s has no text field to name roles by", rel.TargetEntity)
			}
		}
	}
	return b, nil
}
