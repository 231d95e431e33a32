package middleware

import (
	"context"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/e/productos/42": "/v1/e/productos/:id",
		"/v1/e/productos":    "/v1/e/productos",
		"/v1/meta":           "/v1/meta",
		"/v1/e/pedidos/7/99": "/v1/e/pedidos/:id/:id",
		"/v1/e/linea2/8":     "/v1/e/linea2/:id",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	if UserFromContext(ctx) != "" || RoleFromContext(ctx) != "" {
		t.Fatal("empty context must yield empty identity")
	}
	ctx = context.WithValue(ctx, UserKey(), "ana")
	ctx = context.WithValue(ctx, RoleKey(), "admin")
	if UserFromContext(ctx) != "ana" || RoleFromContext(ctx) != "admin" {
		t.Fatal("context round trip failed")
	}
}
