package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"

	sm "github.com/entwire/entwire/internal/server/middleware"
)

// Middleware validates bearer tokens and stores subject and role in context.
func Middleware(api huma.API, j *JWT) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)
		authHdr := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHdr, "Bearer ") {
			huma.WriteErr(api, ctx, http.StatusUnauthorized, "unauthorized")
			return
		}
		claims, err := j.Validate(strings.TrimPrefix(authHdr, "Bearer "))
		if err != nil {
			huma.WriteErr(api, ctx, http.StatusUnauthorized, "unauthorized")
			return
		}
		c := context.WithValue(r.Context(), sm.UserKey(), claims.Subject)
		c = context.WithValue(c, sm.RoleKey(), claims.Role)
		next(humachi.NewContext(ctx.Operation(), r.WithContext(c), w))
	}
}

// UserFromContext returns the subject stored in the context.
func UserFromContext(ctx context.Context) string { return sm.UserFromContext(ctx) }

// RoleFromContext returns the role stored in the context.
func RoleFromContext(ctx context.Context) string { return sm.RoleFromContext(ctx) }
