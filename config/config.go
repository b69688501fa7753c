package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MOVIES_"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	BackendMemory = "memory"
	BackendGorm   = "gorm"
	BackendSQL    = "sql"
)

// Actor delete policies.
const (
	DeleteDangle   = "dangle"
	DeleteRestrict = "restrict"
	DeleteCascade  = "cascade"
)

// Config is read from MOVIES_ prefixed environment variables.
// MOVIES_SERVER_READ_TIMEOUT maps to server.read_timeout.
type Config struct {
	Primary  Primary        `koanf:"primary"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Limiter  LimiterConfig  `koanf:"limiter"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Log      LogConfig      `koanf:"log"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=development production test"`
}

type ServerConfig struct {
	Port               string        `koanf:"port" validate:"required,numeric"`
	ReadTimeout        time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout       time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout        time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

type DatabaseConfig struct {
	Backend         string        `koanf:"backend" validate:"required,oneof=memory gorm sql"`
	Driver          string        `koanf:"driver" validate:"required,oneof=sqlite3 postgres"`
	DSN             string        `koanf:"dsn" validate:"required_unless=Backend memory"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"min=0"`
}

type LimiterConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps" validate:"gt=0"`
	Burst   int     `koanf:"burst" validate:"gt=0"`
}

type CatalogConfig struct {
	ActorDeletePolicy string `koanf:"actor_delete_policy" validate:"required,oneof=dangle restrict cascade"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"required,oneof=trace debug info warn error"`
}

// Default returns the configuration used for anything the environment leaves unset.
func Default() Config {
	return Config{
		Primary: Primary{Env: EnvProduction},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			IdleTimeout:        120 * time.Second,
			CORSAllowedOrigins: []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Backend:         BackendMemory,
			Driver:          "sqlite3",
			DSN:             "movies.db",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
		},
		Limiter: LimiterConfig{
			Enabled: true,
			RPS:     20,
			Burst:   40,
		},
		Catalog: CatalogConfig{ActorDeletePolicy: DeleteDangle},
		Log:     LogConfig{Level: "info"},
	}
}

// envKey maps MOVIES_SERVER_READ_TIMEOUT to server.read_timeout. Only the first
// underscore after the prefix separates the section.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// LoadConfig reads .env (when present) and the environment over the defaults
// and validates the result.
func LoadConfig() (*Config, error) {
	// a missing .env is fine, the process environment is enough
	_ = godotenv.Load()
	return load()
}

func load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	cfg := Default()
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Address is the listen address for the HTTP server.
func (c *Config) Address() string {
	return ":" + c.Server.Port
}

// IsDevelopment reports whether internal error text may reach clients.
func (c *Config) IsDevelopment() bool {
	return c.Primary.Env == EnvDevelopment
}
