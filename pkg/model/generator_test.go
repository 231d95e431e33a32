package model

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/entwire/entwire/pkg/schema"
)

func strPtr(s string) *string { return &s }

func testSet(t *testing.T) *schema.Set {
	t.Helper()
	set := &schema.Set{
		Entities: map[string]*schema.EntityDef{
			"Rol": {
				Name:  "Rol",
				Table: "roles",
				Fields: []schema.FieldDef{
					{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
					{Name: "nombre", Type: schema.TypeString, MaxLength: 50},
				},
			},
			"Usuario": {
				Name:  "Usuario",
				Table: "usuarios",
				Fields: []schema.FieldDef{
					{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
					{Name: "nombre", Type: schema.TypeString, MaxLength: 100},
					{Name: "password", Type: schema.TypeString},
					{Name: "habilitado", Type: schema.TypeBoolean, Default: strPtr("true")},
					{Name: "apodo", Type: schema.TypeString, Nullable: true},
					{Name: "rol", Type: schema.TypeString, Ref: "Rol.id"},
				},
			},
		},
		Names: []string{"Rol", "Usuario"},
	}
	if err := schema.ResolveRelations(set); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return set
}

func TestGenerateShapes(t *testing.T) {
	set := testSet(t)
	ms := Generate(set.Entities["Usuario"], set)

	if ms.Table != "usuarios" || ms.PKColumn != "id" {
		t.Fatalf("table=%q pk=%q", ms.Table, ms.PKColumn)
	}
	if f := ms.Create.Field("id"); f != nil {
		t.Fatal("create shape must not expose the primary key")
	}
	if f := ms.Create.Field("nombre"); f == nil || !f.Required || f.MaxLength != 100 {
		t.Fatalf("create nombre = %+v", f)
	}
	// Defaulted and nullable fields are optional on create.
	if f := ms.Create.Field("habilitado"); f == nil || f.Required {
		t.Fatalf("create habilitado = %+v", f)
	}
	if f := ms.Create.Field("apodo"); f == nil || f.Required {
		t.Fatalf("create apodo = %+v", f)
	}
	if f := ms.Response.Field("id"); f == nil || !f.Required {
		t.Fatalf("response id = %+v", f)
	}
	if got, want := len(ms.Response.Fields), len(set.Entities["Usuario"].Fields); got != want {
		t.Fatalf("response fields = %d, want %d", got, want)
	}
}

func TestGenerateUpdateAllOptional(t *testing.T) {
	set := testSet(t)
	for _, name := range set.Names {
		ms := Generate(set.Entities[name], set)
		for _, f := range ms.Update.Fields {
			if f.Required {
				t.Fatalf("%s update field %q marked required", name, f.Name)
			}
		}
		if f := ms.Update.Field(ms.PKColumn); f != nil {
			t.Fatalf("%s update shape exposes the primary key", name)
		}
	}
}

func TestGenerateForeignKeyTyping(t *testing.T) {
	set := testSet(t)
	ms := Generate(set.Entities["Usuario"], set)

	// The rol field is declared string but references Rol.id, so every shape
	// carries the target's integer type.
	f := ms.Create.Field("rol")
	if f == nil || f.Type != schema.TypeInteger || f.Ref != "Rol.id" {
		t.Fatalf("create rol = %+v", f)
	}
	if u := ms.Update.Field("rol"); u == nil || u.Type != schema.TypeInteger {
		t.Fatalf("update rol = %+v", u)
	}
	var col *Column
	for i := range ms.Persistence {
		if ms.Persistence[i].Name == "rol" {
			col = &ms.Persistence[i]
		}
	}
	if col == nil || col.Ref == nil || col.Ref.TargetEntity != "Rol" || col.Type != schema.TypeInteger {
		t.Fatalf("persistence rol = %+v", col)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	set := testSet(t)

	a := GenerateAll(set)
	b := GenerateAll(set)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("model sets differ between runs (-a +b)\n%s", diff)
	}

	ya, err := EncodeYAML(set, a)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	yb, err := EncodeYAML(set, b)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(ya, yb) {
		t.Fatal("exported YAML differs between runs")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	set := testSet(t)
	models := GenerateAll(set)
	data, err := EncodeYAML(set, models)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeYAML(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(set.Names) {
		t.Fatalf("decoded %d models, want %d", len(decoded), len(set.Names))
	}
	if decoded[0].Entity != "Rol" || decoded[1].Entity != "Usuario" {
		t.Fatalf("order = %s, %s", decoded[0].Entity, decoded[1].Entity)
	}
}
