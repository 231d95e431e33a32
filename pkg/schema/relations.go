package schema

import "strings"

// ResolveRelations walks every field carrying a foreign key reference and
// builds the typed relation graph on the set. Each reference is resolved in a
// single pass; self-reference and mutual reference are valid shapes, only
// existence is validated.
func ResolveRelations(set *Set) error {
	set.Relations = nil
	set.relIndex = map[string]*Relation{}
	for _, name := range set.Names {
		e := set.Entities[name]
		for i := range e.Fields {
			f := &e.Fields[i]
			if f.Ref == "" {
				continue
			}
			target, field, ok := strings.Cut(f.Ref, ".")
			if !ok || target == "" || field == "" || strings.Contains(field, ".") {
				return &MalformedReferenceError{Entity: e.Name, Field: f.Name, Ref: f.Ref}
			}
			te, exists := set.Entities[target]
			if !exists {
				return &DanglingReferenceError{Entity: e.Name, Field: f.Name, Target: f.Ref}
			}
			if te.Field(field) == nil {
				return &DanglingReferenceError{Entity: e.Name, Field: f.Name, Target: f.Ref}
			}
			set.Relations = append(set.Relations, Relation{
				SourceEntity: e.Name,
				SourceField:  f.Name,
				TargetEntity: target,
				TargetField:  field,
			})
		}
	}
	for i := range set.Relations {
		r := &set.Relations[i]
		set.relIndex[r.SourceEntity+"."+r.SourceField] = r
	}
	return nil
}
