package handler

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/entwire/entwire/internal/runtime"
	"github.com/entwire/entwire/pkg/model"
	"github.com/entwire/entwire/pkg/schema"
)

// MetaHandler exposes the compiled schema: entity names and their derived
// shape descriptors.
type MetaHandler struct {
	State *runtime.State
}

type metaEntity struct {
	Name  string `json:"name"`
	Table string `json:"table"`
}

type metaListOutput struct {
	Body []metaEntity
}

type metaGetInput struct {
	Entity string `path:"entity"`
}

type metaGetOutput struct {
	Body model.ModelSet
}

func RegisterMeta(api huma.API, h *MetaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "listEntities",
		Method:      http.MethodGet,
		Path:        "/v1/meta",
		Summary:     "List compiled entities",
		Tags:        []string{"Meta"},
	}, h.list)
	huma.Register(api, huma.Operation{
		OperationID: "getEntityModels",
		Method:      http.MethodGet,
		Path:        "/v1/meta/{entity}",
		Summary:     "Get derived shapes for one entity",
		Tags:        []string{"Meta"},
	}, h.get)
}

func (h *MetaHandler) list(ctx context.Context, _ *struct{}) (*metaListOutput, error) {
	c := h.State.Current()
	out := make([]metaEntity, 0, len(c.Schema.Names))
	for _, name := range c.Schema.Names {
		out = append(out, metaEntity{Name: name, Table: c.Schema.Entities[name].Table})
	}
	return &metaListOutput{Body: out}, nil
}

func (h *MetaHandler) get(ctx context.Context, in *metaGetInput) (*metaGetOutput, error) {
	c := h.State.Current()
	e := c.Schema.Entity(in.Entity)
	if e == nil {
		return nil, huma.Error404NotFound("unknown entity " + in.Entity)
	}
	if err := authorize(ctx, c, e.Name, schema.CapRead); err != nil {
		return nil, err
	}
	return &metaGetOutput{Body: c.Models[e.Name]}, nil
}
