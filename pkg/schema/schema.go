package schema

// FieldDef is one declared field of an entity.
type FieldDef struct {
	Name       string
	Type       FieldType
	PrimaryKey bool
	MaxLength  int
	Nullable   bool
	Default    *string
	// Ref is the raw "Entity.field" foreign key reference as declared.
	// It is resolved into a typed Relation by ResolveRelations; nothing
	// downstream re-parses this string.
	Ref string
}

// EntityDef is one declared entity: a storage table plus a permission matrix.
// Fields keeps declaration order, which is the canonical column order.
type EntityDef struct {
	Name        string
	Table       string
	Fields      []FieldDef
	Permissions map[string][]Capability
}

// Field returns the field with the given name or nil.
func (e *EntityDef) Field(name string) *FieldDef {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// PK returns the primary key field. The loader guarantees exactly one exists.
func (e *EntityDef) PK() *FieldDef {
	for i := range e.Fields {
		if e.Fields[i].PrimaryKey {
			return &e.Fields[i]
		}
	}
	return nil
}

// Relation is a resolved foreign key edge between two entities.
type Relation struct {
	SourceEntity string
	SourceField  string
	TargetEntity string
	TargetField  string
}

// Set is a fully loaded and resolved schema: the unit swapped in on reload.
type Set struct {
	Entities map[string]*EntityDef
	// Names keeps entity load order for deterministic iteration.
	Names     []string
	Relations []Relation

	relIndex map[string]*Relation
}

// Entity looks an entity up by logical name or storage table name.
func (s *Set) Entity(name string) *EntityDef {
	if e, ok := s.Entities[name]; ok {
		return e
	}
	for _, e := range s.Entities {
		if e.Table == name {
			return e
		}
	}
	return nil
}

// RelationFor returns the resolved edge for entity.field, or nil when the
// field carries no foreign key.
func (s *Set) RelationFor(entity, field string) *Relation {
	return s.relIndex[entity+"."+field]
}
