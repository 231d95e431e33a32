package model

import (
	"github.com/entwire/entwire/pkg/schema"
)

// ShapeKind names one of the derived payload shapes.
type ShapeKind string

const (
	ShapeCreate   ShapeKind = "create"
	ShapeUpdate   ShapeKind = "update"
	ShapeResponse ShapeKind = "response"
)

// ShapeField is one field of a derived payload shape: ordinary data, ready
// for whatever serialization layer sits on top.
type ShapeField struct {
	Name     string           `json:"name" yaml:"name"`
	Type     schema.FieldType `json:"type" yaml:"type"`
	Required bool             `json:"required" yaml:"required"`
	// MaxLength carries the declared length constraint for string fields.
	MaxLength int `json:"max,omitempty" yaml:"max,omitempty"`
	// Ref marks foreign key fields; the value is the scalar type of the
	// referenced field, already folded into Type.
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// Shape is a derived payload structure for one entity and operation family.
type Shape struct {
	Entity string       `json:"entity" yaml:"entity"`
	Kind   ShapeKind    `json:"kind" yaml:"kind"`
	Fields []ShapeField `json:"fields" yaml:"fields"`
}

// Field returns the shape field with the given name or nil.
func (s *Shape) Field(name string) *ShapeField {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// Column is one column of the persistence shape, in declared order.
type Column struct {
	Name       string           `json:"name" yaml:"name"`
	Type       schema.FieldType `json:"type" yaml:"type"`
	PrimaryKey bool             `json:"pk,omitempty" yaml:"pk,omitempty"`
	MaxLength  int              `json:"max,omitempty" yaml:"max,omitempty"`
	Nullable   bool             `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Default    *string          `json:"default,omitempty" yaml:"default,omitempty"`
	Ref        *schema.Relation `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// ModelSet bundles the derived shapes of one entity. Derived once per schema
// load and immutable afterward; a reload regenerates every set wholesale.
type ModelSet struct {
	Entity      string   `json:"entity" yaml:"entity"`
	Table       string   `json:"table" yaml:"table"`
	PKColumn    string   `json:"pkColumn" yaml:"pkColumn"`
	Persistence []Column `json:"persistence" yaml:"persistence"`
	Create      Shape    `json:"create" yaml:"create"`
	Update      Shape    `json:"update" yaml:"update"`
	Response    Shape    `json:"response" yaml:"response"`
}

// Generate derives the persistence shape and the Create/Update/Response
// payload shapes for one entity. The relation graph is consulted only to type
// foreign key fields after their referenced scalar; references are never
// expanded into nested objects. Output is deterministic: same definition,
// same shapes, field for field.
func Generate(e *schema.EntityDef, set *schema.Set) ModelSet {
	ms := ModelSet{
		Entity:   e.Name,
		Table:    e.Table,
		Create:   Shape{Entity: e.Name, Kind: ShapeCreate},
		Update:   Shape{Entity: e.Name, Kind: ShapeUpdate},
		Response: Shape{Entity: e.Name, Kind: ShapeResponse},
	}
	for i := range e.Fields {
		f := &e.Fields[i]
		typ := f.Type
		ref := ""
		rel := set.RelationFor(e.Name, f.Name)
		if rel != nil {
			ref = rel.TargetEntity + "." + rel.TargetField
			if tf := set.Entities[rel.TargetEntity].Field(rel.TargetField); tf != nil {
				typ = tf.Type
			}
		}
		ms.Persistence = append(ms.Persistence, Column{
			Name:       f.Name,
			Type:       typ,
			PrimaryKey: f.PrimaryKey,
			MaxLength:  f.MaxLength,
			Nullable:   f.Nullable,
			Default:    f.Default,
			Ref:        rel,
		})
		if f.PrimaryKey {
			ms.PKColumn = f.Name
			ms.Response.Fields = append(ms.Response.Fields, ShapeField{Name: f.Name, Type: typ, Required: true, Ref: ref})
			continue
		}
		required := !f.Nullable && f.Default == nil
		ms.Create.Fields = append(ms.Create.Fields, ShapeField{Name: f.Name, Type: typ, Required: required, MaxLength: f.MaxLength, Ref: ref})
		ms.Update.Fields = append(ms.Update.Fields, ShapeField{Name: f.Name, Type: typ, Required: false, MaxLength: f.MaxLength, Ref: ref})
		ms.Response.Fields = append(ms.Response.Fields, ShapeField{Name: f.Name, Type: typ, Required: true, MaxLength: f.MaxLength, Ref: ref})
	}
	return ms
}

// GenerateAll derives model sets for every entity in the schema, keyed by
// entity name.
func GenerateAll(set *schema.Set) map[string]ModelSet {
	out := make(map[string]ModelSet, len(set.Entities))
	for _, name := range set.Names {
		out[name] = Generate(set.Entities[name], set)
	}
	return out
}
