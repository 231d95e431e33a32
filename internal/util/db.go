package util

import (
	"fmt"
	"strings"

	ormdriver "github.com/faciam-dev/goquent/orm/driver"
)

// SQLiteDialect quotes identifiers with double quotes and uses ? placeholders.
type SQLiteDialect struct{}

func (SQLiteDialect) Placeholder(int) string { return "?" }

func (SQLiteDialect) QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// DetectDriver returns the database driver name based on the DSN shape.
// Supported: mysql, postgres/postgresql and sqlite3 (file: or plain path DSNs).
func DetectDriver(dsn string) (string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", nil
	case strings.HasPrefix(dsn, "mysql://"):
		return "mysql", nil
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), dsn == ":memory:":
		return "sqlite3", nil
	case strings.Contains(dsn, "@tcp("), strings.Contains(dsn, "@unix("):
		return "mysql", nil
	default:
		return "", fmt.Errorf("cannot detect driver from DSN %q", dsn)
	}
}

// DialectFromDriver returns the goquent dialect corresponding to a driver.
func DialectFromDriver(d string) ormdriver.Dialect {
	switch d {
	case "postgres":
		return ormdriver.PostgresDialect{}
	case "mysql":
		return ormdriver.MySQLDialect{}
	default:
		return SQLiteDialect{}
	}
}

// TrimMySQLScheme strips the optional mysql:// prefix which database/sql's
// mysql driver does not understand.
func TrimMySQLScheme(dsn string) string {
	return strings.TrimPrefix(dsn, "mysql://")
}
