package handler

import (
	"testing"

	"github.com/entwire/entwire/internal/runtime"
)

func TestMetaList(t *testing.T) {
	h := &MetaHandler{State: runtime.NewState(compiledFixture(t))}

	out, err := h.list(asRole("viewer"), &struct{}{})
	if err != nil {
		t.Fatalf("meta list: %v", err)
	}
	if len(out.Body) != 2 {
		t.Fatalf("entities = %d", len(out.Body))
	}
	if out.Body[0].Name != "Rol" || out.Body[0].Table != "roles" {
		t.Fatalf("first = %+v", out.Body[0])
	}
}

func TestMetaGetRequiresRead(t *testing.T) {
	h := &MetaHandler{State: runtime.NewState(compiledFixture(t))}

	out, err := h.get(asRole("viewer"), &metaGetInput{Entity: "Usuario"})
	if err != nil {
		t.Fatalf("meta get: %v", err)
	}
	if out.Body.Entity != "Usuario" || out.Body.PKColumn != "id" {
		t.Fatalf("body = %+v", out.Body)
	}
	if len(out.Body.Create.Fields) == 0 || len(out.Body.Update.Fields) == 0 {
		t.Fatal("derived shapes missing")
	}

	// viewer has no grant on Rol.
	if _, err := h.get(asRole("viewer"), &metaGetInput{Entity: "Rol"}); statusOf(t, err) != 403 {
		t.Fatalf("status = %d", statusOf(t, err))
	}

	if _, err := h.get(asRole("viewer"), &metaGetInput{Entity: "fantasma"}); statusOf(t, err) != 404 {
		t.Fatalf("status = %d", statusOf(t, err))
	}
}
