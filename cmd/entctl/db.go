package main

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/entwire/entwire/internal/config"
	"github.com/entwire/entwire/internal/store"
	"github.com/entwire/entwire/internal/util"
)

// openStore loads the configuration file and opens the database it points at.
func openStore(cfgPath string) (config.Config, *store.Store, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, nil, err
	}
	if cfg.DB.Driver == "" {
		cfg.DB.Driver, err = util.DetectDriver(cfg.DB.DSN)
		if err != nil {
			return cfg, nil, err
		}
	}
	dsn := cfg.DB.DSN
	if cfg.DB.Driver == "mysql" {
		dsn = util.TrimMySQLScheme(dsn)
	}
	db, err := sql.Open(cfg.DB.Driver, dsn)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, &store.Store{DB: db, Driver: cfg.DB.Driver, Dialect: util.DialectFromDriver(cfg.DB.Driver)}, nil
}
