package runtime

import (
	"sync/atomic"

	"github.com/entwire/entwire/internal/auth"
	"github.com/entwire/entwire/internal/config"
	"github.com/entwire/entwire/internal/metrics"
	"github.com/entwire/entwire/internal/permission"
	"github.com/entwire/entwire/pkg/model"
	"github.com/entwire/entwire/pkg/schema"
)

// Compiled is the product of one full schema compilation: the resolved
// entity set, the derived model shapes, the permission resolver, and the
// validated auth binding. It is immutable once built.
type Compiled struct {
	Schema *schema.Set
	Models map[string]model.ModelSet
	Perms  *permission.Resolver
	Bound  *auth.Bound
}

// Compile runs the whole pipeline: parse, resolve references, generate
// shapes, compile permissions, bind auth. Any failure rejects the entire
// compilation; partial schemas are never produced.
func Compile(entitiesPath string, authCfg config.AuthConfig) (*Compiled, error) {
	set, err := schema.Load(entitiesPath)
	if err != nil {
		return nil, err
	}
	bound, err := auth.Bind(authCfg, set)
	if err != nil {
		return nil, err
	}
	perms, err := permission.New(set, authCfg.Superuser)
	if err != nil {
		return nil, err
	}
	return &Compiled{
		Schema: set,
		Models: model.GenerateAll(set),
		Perms:  perms,
		Bound:  bound,
	}, nil
}

// State hands the current Compiled set to request handlers and swaps in a
// replacement atomically on reload. In-flight requests keep the pointer they
// read and finish against that schema version.
type State struct {
	ptr atomic.Pointer[Compiled]
}

// NewState returns a State seeded with the initial compilation.
func NewState(c *Compiled) *State {
	s := &State{}
	s.Swap(c)
	return s
}

// Current returns the compiled set serving requests right now.
func (s *State) Current() *Compiled {
	return s.ptr.Load()
}

// Swap replaces the compiled set wholesale.
func (s *State) Swap(c *Compiled) {
	s.ptr.Store(c)
	metrics.Entities.Set(float64(len(c.Schema.Entities)))
}
