package store

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/entwire/entwire/pkg/model"
	"github.com/entwire/entwire/pkg/schema"
)

func TestCreateTableSQLPostgres(t *testing.T) {
	_, models, _ := fixture(t)
	s, _ := newStore(t, "postgres")

	got := s.CreateTableSQL(models["Usuario"])
	want := `CREATE TABLE IF NOT EXISTS "usuarios" (` +
		`"id" SERIAL PRIMARY KEY, ` +
		`"nombre" VARCHAR(100) NOT NULL, ` +
		`"habilitado" BOOLEAN NOT NULL DEFAULT true, ` +
		`"rol" INTEGER NOT NULL)`
	if got != want {
		t.Fatalf("sql = %s\nwant %s", got, want)
	}
}

func TestCreateTableSQLMySQL(t *testing.T) {
	_, models, _ := fixture(t)
	s, _ := newStore(t, "mysql")

	got := s.CreateTableSQL(models["Rol"])
	if !strings.Contains(got, "`id` INT NOT NULL AUTO_INCREMENT PRIMARY KEY") {
		t.Fatalf("sql = %s", got)
	}
	if !strings.Contains(got, "`nombre` VARCHAR(50) NOT NULL") {
		t.Fatalf("sql = %s", got)
	}
}

func TestCreateTableSQLMySQLDefaults(t *testing.T) {
	set := &schema.Set{
		Entities: map[string]*schema.EntityDef{
			"Ajuste": {
				Name:  "Ajuste",
				Table: "ajustes",
				Fields: []schema.FieldDef{
					{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
					{Name: "habilitado", Type: schema.TypeBoolean, Default: strPtr("true")},
					{Name: "intentos", Type: schema.TypeInteger, Default: strPtr("3")},
					{Name: "factor", Type: schema.TypeFloat, Default: strPtr("1.5")},
					{Name: "modo", Type: schema.TypeString, Default: strPtr("normal")},
				},
			},
		},
		Names: []string{"Ajuste"},
	}
	models := model.GenerateAll(set)
	s, _ := newStore(t, "mysql")

	got := s.CreateTableSQL(models["Ajuste"])
	for _, want := range []string{
		"`habilitado` BOOLEAN NOT NULL DEFAULT true",
		"`intentos` INT NOT NULL DEFAULT 3",
		"`factor` DOUBLE NOT NULL DEFAULT 1.5",
		"`modo` VARCHAR(255) NOT NULL DEFAULT 'normal'",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("sql = %s\nmissing %s", got, want)
		}
	}
}

func TestCreateTableSQLSQLite(t *testing.T) {
	_, models, _ := fixture(t)
	s, _ := newStore(t, "sqlite3")

	got := s.CreateTableSQL(models["Rol"])
	if !strings.Contains(got, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`) {
		t.Fatalf("sql = %s", got)
	}
}

func TestInstallRunsInLoadOrder(t *testing.T) {
	set, models, _ := fixture(t)
	s, mock := newStore(t, "mysql")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS `roles`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS `usuarios`")).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Install(context.Background(), set, models); err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
