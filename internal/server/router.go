package server

import (
	"database/sql"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/entwire/entwire/internal/api/handler"
	"github.com/entwire/entwire/internal/auth"
	"github.com/entwire/entwire/internal/config"
	"github.com/entwire/entwire/internal/runtime"
	"github.com/entwire/entwire/internal/server/middleware"
	"github.com/entwire/entwire/internal/store"
	"github.com/entwire/entwire/internal/util"
	"github.com/entwire/entwire/pkg/model"
)

// New builds the HTTP surface over the compiled schema state: login and
// refresh stay public, everything else sits behind the JWT middleware.
func New(db *sql.DB, cfg config.Config, st *runtime.State) huma.API {
	r := chi.NewRouter()

	origins := strings.Split(util.GetEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	api := humachi.New(r, huma.DefaultConfig("Entwire API", "1.0.0"))

	s := &store.Store{DB: db, Driver: cfg.DB.Driver, Dialect: util.DialectFromDriver(cfg.DB.Driver)}
	jwtHandler := auth.NewJWT(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireMinutes)*time.Minute)

	// Login and refresh register before the auth middleware so they stay
	// publicly accessible; refresh validates its own bearer token.
	auth.Register(api, &auth.Handler{
		Repo: &auth.Repo{DB: db, Driver: cfg.DB.Driver, Current: func() (*auth.Bound, map[string]model.ModelSet) {
			c := st.Current()
			return c.Bound, c.Models
		}},
		JWT: jwtHandler,
	})

	api.UseMiddleware(auth.Middleware(api, jwtHandler))
	api.UseMiddleware(middleware.MetricsMW)

	handler.Register(api, &handler.EntityHandler{Store: s, State: st})
	handler.RegisterMeta(api, &handler.MetaHandler{State: st})

	return api
}
