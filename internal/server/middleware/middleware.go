package middleware

import "context"

type ctxKey string

const (
	userKey ctxKey = "user"
	roleKey ctxKey = "role"
)

// UserKey returns the context key holding the authenticated subject.
func UserKey() any { return userKey }

// RoleKey returns the context key holding the resolved role.
func RoleKey() any { return roleKey }

// UserFromContext returns the authenticated subject or empty string.
func UserFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userKey).(string)
	return v
}

// RoleFromContext returns the caller's role or empty string.
func RoleFromContext(ctx context.Context) string {
	v, _ := ctx.Value(roleKey).(string)
	return v
}
