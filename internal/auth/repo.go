package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/entwire/entwire/pkg/model"
)

var (
	// ErrInvalidCredentials covers unknown identifiers and wrong secrets.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactive marks an identity row disabled by the soft-delete flag.
	ErrInactive = errors.New("identity disabled")
)

// Repo reads the bound identity entity. Table and column names come from the
// validated binding, never from request input. Current is consulted per call
// so logins always see the schema version serving requests.
type Repo struct {
	DB      *sql.DB
	Driver  string
	Current func() (*Bound, map[string]model.ModelSet)
}

type identity struct {
	PK           any
	PasswordHash string
	Enabled      bool
	RoleValue    any
}

func (r *Repo) quote(ident string) string {
	switch r.Driver {
	case "mysql":
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

func (r *Repo) ph(n int) string {
	if r.Driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// getByUsername returns the identity row for the given identifier, or nil.
func (r *Repo) getByUsername(ctx context.Context, name string) (*identity, error) {
	b, models := r.Current()
	ms := models[b.Entity.Name]
	cols := []string{r.quote(ms.PKColumn), r.quote(b.PasswordColumn)}
	hasFlag := b.SoftDelete.AppliesTo(b.Entity.Name)
	if hasFlag {
		cols = append(cols, r.quote(b.SoftDelete.Field))
	}
	hasRole := b.RoleColumn != "" && b.Entity.Field(b.RoleColumn) != nil
	if hasRole {
		cols = append(cols, r.quote(b.RoleColumn))
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(cols, ", "), r.quote(ms.Table), r.quote(b.UserColumn), r.ph(1))
	row := r.DB.QueryRowContext(ctx, q, name)

	var id identity
	var hash sql.NullString
	var flag sql.NullBool
	var role any
	dest := []any{&id.PK, &hash}
	if hasFlag {
		dest = append(dest, &flag)
	}
	if hasRole {
		dest = append(dest, &role)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	id.PasswordHash = hash.String
	id.Enabled = !hasFlag || flag.Bool
	if b, ok := role.([]byte); ok {
		role = string(b)
	}
	id.RoleValue = role
	return &id, nil
}

// roleName resolves the role column value to a role name, following the
// foreign key into the role entity when the binding declares one.
func (r *Repo) roleName(ctx context.Context, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, models := r.Current()
	if b.RoleRef == nil {
		return fmt.Sprint(v), nil
	}
	target := models[b.RoleRef.TargetEntity]
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		r.quote(b.RoleNameCol), r.quote(target.Table), r.quote(b.RoleRef.TargetField), r.ph(1))
	var name string
	if err := r.DB.QueryRowContext(ctx, q, v).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

// VerifyCredentials checks an identifier/secret pair against the bound
// identity entity. The secret comparison is one-way via bcrypt; rows marked
// inactive by the soft-delete flag are rejected.
func (r *Repo) VerifyCredentials(ctx context.Context, identifier, secret string) (string, error) {
	id, err := r.getByUsername(ctx, identifier)
	if err != nil {
		return "", err
	}
	if id == nil {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(secret)) != nil {
		return "", ErrInvalidCredentials
	}
	if !id.Enabled {
		return "", ErrInactive
	}
	return r.roleName(ctx, id.RoleValue)
}
