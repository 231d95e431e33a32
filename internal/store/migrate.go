package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/entwire/entwire/pkg/model"
	"github.com/entwire/entwire/pkg/schema"
)

// columnType maps a field type onto the DDL type for the driver.
func (s *Store) columnType(c model.Column) string {
	switch c.Type {
	case schema.TypeInteger:
		if c.PrimaryKey {
			switch s.Driver {
			case "postgres":
				return "SERIAL"
			case "sqlite3":
				return "INTEGER"
			default:
				return "INT NOT NULL AUTO_INCREMENT"
			}
		}
		if s.Driver == "mysql" {
			return "INT"
		}
		return "INTEGER"
	case schema.TypeString:
		max := c.MaxLength
		if max <= 0 {
			max = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", max)
	case schema.TypeText:
		return "TEXT"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeDatetime:
		switch s.Driver {
		case "postgres":
			return "TIMESTAMP"
		case "sqlite3":
			return "DATETIME"
		default:
			return "DATETIME"
		}
	case schema.TypeDate:
		return "DATE"
	case schema.TypeFloat:
		if s.Driver == "postgres" {
			return "DOUBLE PRECISION"
		}
		if s.Driver == "sqlite3" {
			return "REAL"
		}
		return "DOUBLE"
	case schema.TypeJSON:
		switch s.Driver {
		case "postgres":
			return "JSONB"
		case "sqlite3":
			return "TEXT"
		default:
			return "JSON"
		}
	default:
		return "TEXT"
	}
}

// CreateTableSQL renders the CREATE TABLE statement for one persistence
// shape. Referential integrity is enforced by the application, not by DDL
// constraints, so cyclic references never block installation order.
func (s *Store) CreateTableSQL(ms model.ModelSet) string {
	var defs []string
	for _, c := range ms.Persistence {
		parts := []string{s.quote(c.Name), s.columnType(c)}
		if c.PrimaryKey {
			parts = append(parts, "PRIMARY KEY")
			if s.Driver == "sqlite3" {
				parts = append(parts, "AUTOINCREMENT")
			}
		} else if !c.Nullable {
			parts = append(parts, "NOT NULL")
		}
		if c.Default != nil && !c.PrimaryKey {
			parts = append(parts, "DEFAULT "+defaultLiteral(c))
		}
		defs = append(defs, strings.Join(parts, " "))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.quote(ms.Table), strings.Join(defs, ", "))
}

// defaultLiteral renders a declared default. Boolean and numeric defaults go
// unquoted; MySQL rejects quoted literals on those column types.
func defaultLiteral(c model.Column) string {
	switch c.Type {
	case schema.TypeBoolean, schema.TypeInteger, schema.TypeFloat:
		return *c.Default
	default:
		return "'" + strings.ReplaceAll(*c.Default, "'", "''") + "'"
	}
}

// Install creates the storage table of every entity in load order.
func (s *Store) Install(ctx context.Context, set *schema.Set, models map[string]model.ModelSet) error {
	for _, name := range set.Names {
		ms := models[name]
		if _, err := s.DB.ExecContext(ctx, s.CreateTableSQL(ms)); err != nil {
			return fmt.Errorf("create table %s: %w", ms.Table, err)
		}
	}
	return nil
}
