package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/entwire/entwire/internal/util"
)

// AuthConfig is the AUTH block naming the identity table and columns. Keys
// follow the declarative source convention.
type AuthConfig struct {
	Table           string `yaml:"tabla"`
	UserColumn      string `yaml:"columna_usuario"`
	PasswordColumn  string `yaml:"columna_password"`
	Superuser       string `yaml:"superusuario"`
	DefaultPassword string `yaml:"password_default"`
	DeleteColumn    string `yaml:"columna_borrado"`
	DeleteMode      string `yaml:"borrado_logico"`
	RoleColumn      string `yaml:"columna_rol"`
}

// JWTConfig holds token signing parameters.
type JWTConfig struct {
	Secret        string `yaml:"secret"`
	ExpireMinutes int    `yaml:"expire_minutes"`
}

// DBConfig holds database connection parameters.
type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Config is the immutable runtime configuration, constructed once at startup
// and passed by reference into the compiler and server. A schema reload takes
// the same Config and produces a new compiled set; nothing mutates it in
// place.
type Config struct {
	DB           DBConfig         `yaml:"db"`
	Addr         string           `yaml:"addr"`
	EntitiesPath string           `yaml:"entities_path"`
	Install      bool             `yaml:"install"`
	Watch        bool             `yaml:"watch"`
	JWT          JWTConfig        `yaml:"jwt"`
	Auth         AuthConfig       `yaml:"auth"`
	InitialUsers []map[string]any `yaml:"initial_users"`
}

func defaults() Config {
	return Config{
		Addr:         ":8080",
		EntitiesPath: "entidades",
		JWT:          JWTConfig{ExpireMinutes: 30},
		Auth: AuthConfig{
			UserColumn:     "nombre",
			PasswordColumn: "password",
			RoleColumn:     "rol",
		},
	}
}

// Load reads the YAML configuration file, then applies environment overrides.
// An empty path loads defaults plus environment only.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.DB.Driver = util.GetEnv("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.DSN = util.GetEnv("DB_DSN", cfg.DB.DSN)
	cfg.Addr = util.GetEnv("LISTEN_ADDR", cfg.Addr)
	cfg.EntitiesPath = util.GetEnv("ENTITIES_PATH", cfg.EntitiesPath)
	cfg.JWT.Secret = util.GetEnv("JWT_SECRET", cfg.JWT.Secret)
	if v := os.Getenv("JWT_EXPIRE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.JWT.ExpireMinutes = n
		}
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret (or JWT_SECRET) is required")
	}
	if c.Auth.Table == "" {
		return fmt.Errorf("auth.tabla is required")
	}
	if c.Auth.DeleteMode != "" && c.Auth.DeleteMode != "boolean" {
		return fmt.Errorf("auth.borrado_logico: unsupported mode %q", c.Auth.DeleteMode)
	}
	return nil
}
