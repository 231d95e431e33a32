package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/entwire/entwire/internal/permission"
	"github.com/entwire/entwire/internal/util"
	"github.com/entwire/entwire/pkg/model"
	"github.com/entwire/entwire/pkg/schema"
)

func strPtr(s string) *string { return &s }

func fixture(t *testing.T) (*schema.Set, map[string]model.ModelSet, permission.SoftDeletePolicy) {
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
					{Name: "habilitado", Type: schema.TypeBoolean, Default: strPtr("true")},
					{Name: "rol", Type: schema.TypeInteger, Ref: "Rol.id"},
				},
			},
		},
		Names: []string{"Rol", "Usuario"},
	}
	if err := schema.ResolveRelations(set); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	sd := permission.SoftDeletePolicy{Mode: permission.SoftDeleteBoolean, Entity: "Usuario", Field: "habilitado"}
	return set, model.GenerateAll(set), sd
}

func newStore(t *testing.T, driver string) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db, Driver: driver, Dialect: util.DialectFromDriver(driver)}, mock
}

func TestListFiltersSoftDeleted(t *testing.T) {
	_, models, sd := fixture(t)
	s, mock := newStore(t, "mysql")

	rows := sqlmock.NewRows([]string{"id", "nombre", "habilitado", "rol"}).
		AddRow(1, "ana", int64(1), 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`, `nombre`, `habilitado`, `rol` FROM `usuarios` WHERE `habilitado` = ?")).
		WithArgs(true).WillReturnRows(rows)

	out, err := s.List(context.Background(), models["Usuario"], sd, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("rows = %d", len(out))
	}
	if v, ok := out[0]["habilitado"].(bool); !ok || !v {
		t.Fatalf("habilitado = %v (%T)", out[0]["habilitado"], out[0]["habilitado"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListIncludeInactiveSkipsFilter(t *testing.T) {
	_, models, sd := fixture(t)
	s, mock := newStore(t, "mysql")

	rows := sqlmock.NewRows([]string{"id", "nombre", "habilitado", "rol"}).
		AddRow(1, "ana", int64(0), 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`, `nombre`, `habilitado`, `rol` FROM `usuarios` ORDER BY `nombre` DESC")).
		WillReturnRows(rows)

	out, err := s.List(context.Background(), models["Usuario"], sd, ListOptions{OrderBy: "nombre", Desc: true, IncludeInactive: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("rows = %d", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListNoPolicyForOtherEntity(t *testing.T) {
	_, models, sd := fixture(t)
	s, mock := newStore(t, "mysql")

	// The flag lives on Usuario, so Rol listings never filter.
	rows := sqlmock.NewRows([]string{"id", "nombre"}).AddRow(1, "admin")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`, `nombre` FROM `roles`")).WillReturnRows(rows)

	if _, err := s.List(context.Background(), models["Rol"], sd, ListOptions{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	_, models, sd := fixture(t)
	s, mock := newStore(t, "postgres")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "nombre", "habilitado", "rol" FROM "usuarios" WHERE "id" = $1 AND "habilitado" = $2`)).
		WithArgs(int64(9), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "habilitado", "rol"}))

	_, err := s.Get(context.Background(), models["Usuario"], sd, int64(9), false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertPostgresReturning(t *testing.T) {
	_, models, _ := fixture(t)
	s, mock := newStore(t, "postgres")

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "usuarios" ("nombre", "habilitado", "rol") VALUES ($1, $2, $3) RETURNING "id"`)).
		WithArgs("ana", true, int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := s.Insert(context.Background(), models["Usuario"], map[string]any{
		"nombre": "ana", "habilitado": true, "rol": int64(2),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertMySQLLastInsertID(t *testing.T) {
	_, models, _ := fixture(t)
	s, mock := newStore(t, "mysql")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `roles` (`nombre`) VALUES (?)")).
		WithArgs("admin").
		WillReturnResult(sqlmock.NewResult(3, 1))

	id, err := s.Insert(context.Background(), models["Rol"], map[string]any{"nombre": "admin"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != 3 {
		t.Fatalf("id = %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateMissingRow(t *testing.T) {
	_, models, _ := fixture(t)
	s, mock := newStore(t, "mysql")

	mock.ExpectQuery("cnt").WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))

	err := s.Update(context.Background(), models["Usuario"], int64(9), map[string]any{"nombre": "eva"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateExistingRow(t *testing.T) {
	_, models, _ := fixture(t)
	s, mock := newStore(t, "mysql")

	mock.ExpectQuery("cnt").WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `usuarios` SET `nombre` = ? WHERE `id` = ?")).
		WithArgs("eva", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Update(context.Background(), models["Usuario"], int64(5), map[string]any{"nombre": "eva"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteSoftFlipsFlag(t *testing.T) {
	_, models, sd := fixture(t)
	s, mock := newStore(t, "mysql")

	mock.ExpectQuery("cnt").WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `usuarios` SET `habilitado` = ? WHERE `id` = ?")).
		WithArgs(false, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Delete(context.Background(), models["Usuario"], sd, int64(5)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteSoftIdempotent(t *testing.T) {
	_, models, sd := fixture(t)
	s, mock := newStore(t, "mysql")

	// Row exists but is already inactive; the repeat delete still succeeds.
	mock.ExpectQuery("cnt").WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `usuarios` SET `habilitado` = ?")).
		WithArgs(false, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Delete(context.Background(), models["Usuario"], sd, int64(5)); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestDeleteSoftMissingRow(t *testing.T) {
	_, models, sd := fixture(t)
	s, mock := newStore(t, "mysql")

	mock.ExpectQuery("cnt").WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))

	err := s.Delete(context.Background(), models["Usuario"], sd, int64(9))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteHard(t *testing.T) {
	_, models, sd := fixture(t)
	s, mock := newStore(t, "mysql")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `roles` WHERE `id` = ?")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Delete(context.Background(), models["Rol"], sd, int64(2)); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `roles` WHERE `id` = ?")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Delete(context.Background(), models["Rol"], sd, int64(2)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestValidateRefs(t *testing.T) {
	set, models, _ := fixture(t)
	s, mock := newStore(t, "mysql")

	mock.ExpectQuery("cnt").WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))

	err := s.ValidateRefs(context.Background(), set, models, "Usuario", map[string]any{"nombre": "ana", "rol": int64(99)})
	var rve *ReferenceViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("err = %v, want ReferenceViolationError", err)
	}
	if rve.Field != "rol" || rve.Target != "Rol.id" {
		t.Fatalf("violation = %+v", rve)
	}

	mock.ExpectQuery("cnt").WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(1))
	if err := s.ValidateRefs(context.Background(), set, models, "Usuario", map[string]any{"rol": int64(2)}); err != nil {
		t.Fatalf("valid ref rejected: %v", err)
	}

	// Null references are legal; nothing to look up.
	if err := s.ValidateRefs(context.Background(), set, models, "Usuario", map[string]any{"rol": nil}); err != nil {
		t.Fatalf("null ref rejected: %v", err)
	}
}
