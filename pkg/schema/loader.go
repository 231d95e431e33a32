package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"
)

// DefaultPKName is the identity column added when an entity declares no
// primary key.
const DefaultPKName = "id"

type entityFile struct {
	Entidad  string              `yaml:"entidad"`
	Tabla    string              `yaml:"tabla"`
	Campos   yaml.Node           `yaml:"campos"`
	Permisos map[string][]string `yaml:"permisos"`
}

type fieldSpec struct {
	Tipo     string  `yaml:"tipo"`
	PK       bool    `yaml:"pk"`
	Max      int     `yaml:"max"`
	Nullable bool    `yaml:"nullable"`
	Default  *string `yaml:"default"`
	FK       string  `yaml:"fk"`
}

// Load reads every .yaml/.yml file under dir into a resolved Set. Each file
// holds one or more YAML documents, one entity per document. Local validation
// happens per document; referential integrity is checked once over the whole
// set, so forward references between files are legal. Any error rejects the
// entire load.
func Load(dir string) (*Set, error) {
	set := &Set{Entities: map[string]*EntityDef{}}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		ents, err := parseFile(path, data)
		if err != nil {
			return err
		}
		for _, e := range ents {
			if _, exists := set.Entities[e.Name]; exists {
				return &SchemaError{File: path, Reason: fmt.Sprintf("duplicate entity %q", e.Name)}
			}
			set.Entities[e.Name] = e
			set.Names = append(set.Names, e.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(set.Entities) == 0 {
		return nil, &SchemaError{File: dir, Reason: "no entity definitions found"}
	}
	if err := ResolveRelations(set); err != nil {
		return nil, err
	}
	return set, nil
}

// parseFile decodes all YAML documents in data into EntityDefs, validating
// locally: required keys, supported types, unique field names, at most one
// primary key. Foreign key targets are not checked here. The decoder iterates
// documents natively, so separators inside block scalars stay intact.
func parseFile(path string, data []byte) ([]*EntityDef, error) {
	var ents []*EntityDef
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &SchemaError{File: path, Reason: err.Error()}
		}
		if len(doc.Content) == 0 || doc.Content[0].Tag == "!!null" {
			continue
		}
		var ef entityFile
		if err := doc.Decode(&ef); err != nil {
			return nil, &SchemaError{File: path, Reason: err.Error()}
		}
		if ef.Entidad == "" {
			return nil, &SchemaError{File: path, Reason: "missing required key \"entidad\""}
		}
		e := &EntityDef{Name: ef.Entidad, Table: ef.Tabla, Permissions: map[string][]Capability{}}
		if e.Table == "" {
			e.Table = inflection.Plural(strcase.ToSnake(e.Name))
		}
		if ef.Campos.Kind != yaml.MappingNode || len(ef.Campos.Content) == 0 {
			return nil, &SchemaError{File: path, Reason: fmt.Sprintf("entity %q: missing or empty \"campos\" mapping", e.Name)}
		}
		pkSeen := false
		for i := 0; i+1 < len(ef.Campos.Content); i += 2 {
			name := ef.Campos.Content[i].Value
			if e.Field(name) != nil {
				return nil, &SchemaError{File: path, Field: name, Reason: fmt.Sprintf("entity %q: duplicate field", e.Name)}
			}
			var fs fieldSpec
			if err := ef.Campos.Content[i+1].Decode(&fs); err != nil {
				return nil, &SchemaError{File: path, Field: name, Reason: err.Error()}
			}
			if fs.Tipo == "" {
				return nil, &SchemaError{File: path, Field: name, Reason: "missing required key \"tipo\""}
			}
			ft, ok := ParseFieldType(fs.Tipo)
			if !ok {
				return nil, &UnsupportedTypeError{Entity: e.Name, Field: name, Type: fs.Tipo}
			}
			if fs.PK {
				if ft != TypeInteger {
					return nil, &SchemaError{File: path, Field: name, Reason: fmt.Sprintf("entity %q: primary key must be integer, is %s", e.Name, fs.Tipo)}
				}
				if pkSeen {
					return nil, &SchemaError{File: path, Field: name, Reason: fmt.Sprintf("entity %q: multiple primary keys", e.Name)}
				}
				pkSeen = true
			}
			e.Fields = append(e.Fields, FieldDef{
				Name:       name,
				Type:       ft,
				PrimaryKey: fs.PK,
				MaxLength:  fs.Max,
				Nullable:   fs.Nullable,
				Default:    fs.Default,
				Ref:        fs.FK,
			})
		}
		if !pkSeen {
			if e.Field(DefaultPKName) != nil {
				return nil, &SchemaError{File: path, Field: DefaultPKName, Reason: fmt.Sprintf("entity %q: no primary key declared and %q is taken", e.Name, DefaultPKName)}
			}
			e.Fields = append([]FieldDef{{Name: DefaultPKName, Type: TypeInteger, PrimaryKey: true}}, e.Fields...)
		}
		for role, letters := range ef.Permisos {
			caps := make([]Capability, 0, len(letters))
			for _, l := range letters {
				c, ok := ParseCapability(l)
				if !ok {
					return nil, &SchemaError{File: path, Reason: fmt.Sprintf("entity %q: role %q: unknown capability %q", e.Name, role, l)}
				}
				caps = append(caps, c)
			}
			e.Permissions[role] = caps
		}
		ents = append(ents, e)
	}
	return ents, nil
}
