package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Remote store backends.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"statatics-quiz"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" envDefault:"20s"`

	Remote   Remote
	Redis    Redis
	Postgres Postgres
	Local    Local
	Admin    Admin
	Quiz     Quiz
}

// Remote selects the document store backend. "none" runs local-only.
type Remote struct {
	Backend string `env:"REMOTE_BACKEND" envDefault:"none"`
}

// Redis holds connection info for the Redis document store.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Postgres captures connection info for the SQL document store.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// DSN builds a key/value connection string for pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Local configures the on-disk fallback store.
type Local struct {
	Path string `env:"LOCAL_STORE_PATH" envDefault:"quiz-local.db"`
}

// Admin holds the credential pair and token signing secret for the admin panel.
type Admin struct {
	ID           string        `env:"ADMIN_ID" envDefault:"admin"`
	PasswordHash string        `env:"ADMIN_PASSWORD_HASH,notEmpty"`
	JWTSecret    string        `env:"ADMIN_JWT_SECRET,notEmpty"`
	TokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`
}

// Quiz groups gameplay defaults used until the admin saves settings.
type Quiz struct {
	DefaultQuestionCount   int `env:"DEFAULT_QUESTION_COUNT" envDefault:"10"`
	DefaultDurationMinutes int `env:"DEFAULT_DURATION_MINUTES" envDefault:"30"`
}

// Load parses environment variables into App config.
func Load() (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	switch cfg.Remote.Backend {
	case BackendRedis, BackendPostgres, BackendNone:
	default:
		return nil, fmt.Errorf("unknown remote backend %q", cfg.Remote.Backend)
	}
	return cfg, nil
}
