package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/entwire/entwire/internal/auth"
	"github.com/entwire/entwire/internal/config"
	"github.com/entwire/entwire/internal/logger"
	"github.com/entwire/entwire/internal/runtime"
	"github.com/entwire/entwire/internal/server"
	"github.com/entwire/entwire/internal/store"
	"github.com/entwire/entwire/internal/util"
)

func main() {
	cfgPath := flag.String("config", util.GetEnv("CONFIG_PATH", "config.yaml"), "configuration file")
	install := flag.Bool("install", false, "create entity tables before serving")
	openapi := flag.String("openapi", "", "write OpenAPI JSON and exit")
	flag.Parse()

	logger.Init()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.L.Error("load config", "err", err)
		os.Exit(1)
	}
	if *install {
		cfg.Install = true
	}

	if cfg.DB.Driver == "" {
		detected, err := util.DetectDriver(cfg.DB.DSN)
		if err != nil {
			logger.L.Error("detect driver", "dsn", cfg.DB.DSN, "err", err)
			os.Exit(1)
		}
		cfg.DB.Driver = detected
	}
	dsn := cfg.DB.DSN
	if cfg.DB.Driver == "mysql" {
		dsn = util.TrimMySQLScheme(dsn)
	}

	db, err := sql.Open(cfg.DB.Driver, dsn)
	if err != nil {
		logger.L.Error("db open", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	compiled, err := runtime.Compile(cfg.EntitiesPath, cfg.Auth)
	if err != nil {
		logger.L.Error("compile entities", "path", cfg.EntitiesPath, "err", err)
		os.Exit(1)
	}
	st := runtime.NewState(compiled)
	logger.L.Info("entities compiled", "count", len(compiled.Schema.Entities))

	s := &store.Store{DB: db, Driver: cfg.DB.Driver, Dialect: util.DialectFromDriver(cfg.DB.Driver)}
	ctx := context.Background()
	if cfg.Install {
		if err := s.Install(ctx, compiled.Schema, compiled.Models); err != nil {
			logger.L.Error("install tables", "err", err)
			os.Exit(1)
		}
		logger.L.Info("tables installed")
	}
	if len(cfg.InitialUsers) > 0 {
		if err := auth.Seed(ctx, s, compiled.Bound, compiled.Models, cfg.InitialUsers); err != nil {
			logger.L.Error("seed users", "err", err)
			os.Exit(1)
		}
	}

	api := server.New(db, cfg, st)

	if *openapi != "" {
		data, err := json.MarshalIndent(api.OpenAPI(), "", "  ")
		if err != nil {
			logger.L.Error("marshal openapi", "err", err)
			os.Exit(1)
		}
		p := filepath.Clean(*openapi)
		if err := os.WriteFile(p, data, 0o600); err != nil {
			logger.L.Error("write openapi", "err", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Watch {
		w := server.NewWatcher(cfg, st)
		if err := w.Start(ctx); err != nil {
			logger.L.Error("watch entities", "path", cfg.EntitiesPath, "err", err)
			os.Exit(1)
		}
		logger.L.Info("watching entities", "path", cfg.EntitiesPath)
	}

	logger.L.Info("listening", "addr", cfg.Addr)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.Adapter(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.L.Error("server error", "err", err)
		os.Exit(1)
	}
}
