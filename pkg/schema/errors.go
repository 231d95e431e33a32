package schema

import "fmt"

// SchemaError reports a malformed or incomplete entity source. Fatal at load.
type SchemaError struct {
	File   string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema %s: field %q: %s", e.File, e.Field, e.Reason)
	}
	return fmt.Sprintf("schema %s: %s", e.File, e.Reason)
}

// UnsupportedTypeError reports a field type outside the supported enumeration.
type UnsupportedTypeError struct {
	Entity string
	Field  string
	Type   string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("entity %s: field %q declares unsupported type %q", e.Entity, e.Field, e.Type)
}

// MalformedReferenceError reports a foreign key reference that does not have
// the required "Entity.field" shape.
type MalformedReferenceError struct {
	Entity string
	Field  string
	Ref    string
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("entity %s: field %q: malformed reference %q, want \"Entity.field\"", e.Entity, e.Field, e.Ref)
}

// DanglingReferenceError reports a foreign key whose target entity or field
// does not exist in the loaded schema set.
type DanglingReferenceError struct {
	Entity string
	Field  string
	Target string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("entity %s: field %q references unknown %q", e.Entity, e.Field, e.Target)
}
