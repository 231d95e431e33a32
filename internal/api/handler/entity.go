package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/entwire/entwire/internal/runtime"
	sm "github.com/entwire/entwire/internal/server/middleware"
	"github.com/entwire/entwire/internal/store"
	"github.com/entwire/entwire/pkg/model"
	"github.com/entwire/entwire/pkg/schema"
)

// EntityHandler serves the generated CRUD surface. Entities are resolved per
// request from the current compiled state, so a schema reload takes effect
// without re-registering routes.
type EntityHandler struct {
	Store *store.Store
	State *runtime.State
}

type listInput struct {
	Entity          string `path:"entity"`
	Order           string `query:"order"`
	Desc            bool   `query:"desc"`
	IncludeInactive bool   `query:"include_inactive"`
}

type listOutput struct {
	Body []map[string]any
}

type getInput struct {
	Entity          string `path:"entity"`
	ID              int64  `path:"id"`
	IncludeInactive bool   `query:"include_inactive"`
}

type recordOutput struct {
	Body map[string]any
}

type createInput struct {
	Entity string `path:"entity"`
	Body   map[string]any
}

type updateInput struct {
	Entity string `path:"entity"`
	ID     int64  `path:"id"`
	Body   map[string]any
}

type deleteInput struct {
	Entity string `path:"entity"`
	ID     int64  `path:"id"`
}

type deleteOutput struct{}

func Register(api huma.API, h *EntityHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "listRecords",
		Method:      http.MethodGet,
		Path:        "/v1/e/{entity}",
		Summary:     "List records",
		Tags:        []string{"Entities"},
	}, h.list)
	huma.Register(api, huma.Operation{
		OperationID: "getRecord",
		Method:      http.MethodGet,
		Path:        "/v1/e/{entity}/{id}",
		Summary:     "Get record",
		Tags:        []string{"Entities"},
	}, h.get)
	huma.Register(api, huma.Operation{
		OperationID:   "createRecord",
		Method:        http.MethodPost,
		Path:          "/v1/e/{entity}",
		Summary:       "Create record",
		Tags:          []string{"Entities"},
		Errors:        []int{http.StatusForbidden, http.StatusConflict, http.StatusUnprocessableEntity},
		DefaultStatus: http.StatusCreated,
	}, h.create)
	huma.Register(api, huma.Operation{
		OperationID: "updateRecord",
		Method:      http.MethodPut,
		Path:        "/v1/e/{entity}/{id}",
		Summary:     "Update record",
		Tags:        []string{"Entities"},
		Errors:      []int{http.StatusForbidden, http.StatusConflict, http.StatusUnprocessableEntity},
	}, h.update)
	huma.Register(api, huma.Operation{
		OperationID:   "deleteRecord",
		Method:        http.MethodDelete,
		Path:          "/v1/e/{entity}/{id}",
		Summary:       "Delete record",
		Tags:          []string{"Entities"},
		Errors:        []int{http.StatusForbidden},
		DefaultStatus: http.StatusNoContent,
	}, h.delete)
}

// resolve finds the entity by logical or storage name in the current schema.
func (h *EntityHandler) resolve(name string) (*runtime.Compiled, *schema.EntityDef, error) {
	c := h.State.Current()
	e := c.Schema.Entity(name)
	if e == nil {
		return nil, nil, huma.Error404NotFound(fmt.Sprintf("unknown entity %q", name))
	}
	return c, e, nil
}

// authorize checks the capability for the caller's role. The authenticated
// subject never reaches the matrix; its only power is matching the configured
// superuser identity.
func authorize(ctx context.Context, c *runtime.Compiled, entity string, cap schema.Capability) error {
	role := sm.RoleFromContext(ctx)
	if c.Perms.Authorize(role, entity, cap) || c.Perms.IsSuperuser(sm.UserFromContext(ctx)) {
		return nil
	}
	return huma.Error403Forbidden(fmt.Sprintf("role %q may not %s %s", role, capVerb(cap), entity))
}

func capVerb(cap schema.Capability) string {
	switch cap {
	case schema.CapRead:
		return "read"
	case schema.CapWrite:
		return "write"
	default:
		return "delete"
	}
}

func isSuperuser(ctx context.Context, c *runtime.Compiled) bool {
	return c.Perms.IsSuperuser(sm.RoleFromContext(ctx)) || c.Perms.IsSuperuser(sm.UserFromContext(ctx))
}

// mapErr translates storage and validation errors into the response taxonomy
// without collapsing them into one generic failure.
func mapErr(err error) error {
	var ve *model.ValidationError
	var rve *store.ReferenceViolationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return huma.Error404NotFound("record not found")
	case errors.As(err, &ve):
		return huma.NewError(http.StatusUnprocessableEntity, ve.Error(), &huma.ErrorDetail{Location: "body." + ve.Field, Message: ve.Reason})
	case errors.As(err, &rve):
		return huma.NewError(http.StatusConflict, rve.Error(), &huma.ErrorDetail{Location: "body." + rve.Field, Message: rve.Error()})
	default:
		return err
	}
}

func (h *EntityHandler) list(ctx context.Context, in *listInput) (*listOutput, error) {
	c, e, err := h.resolve(in.Entity)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, c, e.Name, schema.CapRead); err != nil {
		return nil, err
	}
	if in.IncludeInactive && !isSuperuser(ctx, c) {
		return nil, huma.Error403Forbidden("include_inactive requires the superuser identity")
	}
	ms := c.Models[e.Name]
	if in.Order != "" && ms.Response.Field(in.Order) == nil {
		return nil, mapErr(&model.ValidationError{Field: in.Order, Reason: "unknown order field"})
	}
	rows, err := h.Store.List(ctx, ms, c.Bound.SoftDelete, store.ListOptions{
		OrderBy:         in.Order,
		Desc:            in.Desc,
		IncludeInactive: in.IncludeInactive,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return &listOutput{Body: rows}, nil
}

func (h *EntityHandler) get(ctx context.Context, in *getInput) (*recordOutput, error) {
	c, e, err := h.resolve(in.Entity)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, c, e.Name, schema.CapRead); err != nil {
		return nil, err
	}
	if in.IncludeInactive && !isSuperuser(ctx, c) {
		return nil, huma.Error403Forbidden("include_inactive requires the superuser identity")
	}
	row, err := h.Store.Get(ctx, c.Models[e.Name], c.Bound.SoftDelete, in.ID, in.IncludeInactive)
	if err != nil {
		return nil, mapErr(err)
	}
	return &recordOutput{Body: row}, nil
}

func (h *EntityHandler) create(ctx context.Context, in *createInput) (*recordOutput, error) {
	c, e, err := h.resolve(in.Entity)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, c, e.Name, schema.CapWrite); err != nil {
		return nil, err
	}
	ms := c.Models[e.Name]
	values, err := ms.Create.Validate(in.Body)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := h.Store.ValidateRefs(ctx, c.Schema, c.Models, e.Name, values); err != nil {
		return nil, mapErr(err)
	}
	id, err := h.Store.Insert(ctx, ms, values)
	if err != nil {
		return nil, mapErr(err)
	}
	row, err := h.Store.Get(ctx, ms, c.Bound.SoftDelete, id, true)
	if err != nil {
		return nil, mapErr(err)
	}
	return &recordOutput{Body: row}, nil
}

func (h *EntityHandler) update(ctx context.Context, in *updateInput) (*recordOutput, error) {
	c, e, err := h.resolve(in.Entity)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, c, e.Name, schema.CapWrite); err != nil {
		return nil, err
	}
	ms := c.Models[e.Name]
	values, err := ms.Update.Validate(in.Body)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := h.Store.ValidateRefs(ctx, c.Schema, c.Models, e.Name, values); err != nil {
		return nil, mapErr(err)
	}
	if err := h.Store.Update(ctx, ms, in.ID, values); err != nil {
		return nil, mapErr(err)
	}
	row, err := h.Store.Get(ctx, ms, c.Bound.SoftDelete, in.ID, true)
	if err != nil {
		return nil, mapErr(err)
	}
	return &recordOutput{Body: row}, nil
}

func (h *EntityHandler) delete(ctx context.Context, in *deleteInput) (*deleteOutput, error) {
	c, e, err := h.resolve(in.Entity)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, c, e.Name, schema.CapDelete); err != nil {
		return nil, err
	}
	if err := h.Store.Delete(ctx, c.Models[e.Name], c.Bound.SoftDelete, in.ID); err != nil {
		return nil, mapErr(err)
	}
	return &deleteOutput{}, nil
}
