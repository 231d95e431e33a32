package permission

import (
	"errors"
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"github.com/entwire/entwire/pkg/schema"
)

// ErrForbidden marks a role lacking the capability for an operation. It is
// surfaced to the caller as-is, never merged with not-found or validation
// failures, and never retried.
var ErrForbidden = errors.New("forbidden")

// SoftDeleteMode says how delete behaves for the entity owning the flag field.
type SoftDeleteMode string

const (
	SoftDeleteNone    SoftDeleteMode = ""
	SoftDeleteBoolean SoftDeleteMode = "boolean"
)

// SoftDeletePolicy is the typed form of the configured soft-delete column,
// resolved once at load time. It applies only to the entity that owns the
// flag field; every other entity deletes physically.
type SoftDeletePolicy struct {
	Mode   SoftDeleteMode
	Entity string
	Field  string
}

// AppliesTo reports whether deletes on the entity flip the flag instead of
// removing the row.
func (p SoftDeletePolicy) AppliesTo(entity string) bool {
	return p.Mode == SoftDeleteBoolean && p.Entity == entity
}

// Resolver answers role × entity × capability questions from the compiled
// permission matrix. The matrix is loaded into an in-memory casbin enforcer
// once per schema load; absent roles deny, the superuser identity always
// authorizes.
type Resolver struct {
	enf       *casbin.Enforcer
	superuser string
}

// New compiles the permission matrices of every entity into a Resolver.
func New(set *schema.Set, superuser string) (*Resolver, error) {
	m := casbinmodel.NewModel()
	m.AddDef("r", "r", "sub, obj, act")
	m.AddDef("p", "p", "sub, obj, act")
	m.AddDef("e", "e", "some(where (p.eft == allow))")
	m.AddDef("m", "m", "r.sub == p.sub && r.obj == p.obj && r.act == p.act")
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	for _, name := range set.Names {
		e := set.Entities[name]
		for role, caps := range e.Permissions {
			for _, c := range caps {
				if _, err := enf.AddPolicy(role, e.Name, string(c)); err != nil {
					return nil, fmt.Errorf("add policy %s/%s/%s: %w", role, e.Name, c, err)
				}
			}
		}
	}
	return &Resolver{enf: enf, superuser: superuser}, nil
}

// Authorize reports whether the role may perform the capability on the
// entity. The configured superuser identity bypasses the matrix entirely.
// Capabilities are literal: write does not imply read.
func (r *Resolver) Authorize(role, entity string, cap schema.Capability) bool {
	if r.superuser != "" && role == r.superuser {
		return true
	}
	ok, err := r.enf.Enforce(role, entity, string(cap))
	return err == nil && ok
}

// IsSuperuser reports whether the identity bypasses the matrix.
func (r *Resolver) IsSuperuser(role string) bool {
	return r.superuser != "" && role == r.superuser
}
