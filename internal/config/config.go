package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	CDP      CDPConfig
	Cookies  CookieConfig
	Content  ContentConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"personalisation-service"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	// CommitStrategy selects how a persona change is committed: "reload" or "fragment".
	CommitStrategy string `env:"COMMIT_STRATEGY" envDefault:"reload"`
	HomePath       string `env:"HOME_PATH" envDefault:"/"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	MigrationsDir  string `env:"POSTGRES_MIGRATIONS_DIR" envDefault:"migrations"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters for the audit endpoints.
type AuthConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
	// VisitorHashKey keys the BLAKE2b hash applied to visitor ids before they are stored.
	VisitorHashKey string `env:"AUTH_VISITOR_HASH_KEY" envDefault:"dev-visitor-key"`
}

// CDPConfig configures the customer data platform client.
type CDPConfig struct {
	BaseURL         string `env:"CDP_BASE_URL"`
	SigningSecret   string `env:"CDP_SIGNING_SECRET" envDefault:"dev-cdp-secret"`
	TimeoutMillis   int    `env:"CDP_TIMEOUT_MILLIS" envDefault:"2000"`
	Queued          bool   `env:"CDP_QUEUED" envDefault:"true"`
	QueueKey        string `env:"CDP_QUEUE_KEY" envDefault:"cdp:calls"`
	Workers         int    `env:"CDP_WORKERS" envDefault:"2"`
	PollWaitSeconds int    `env:"CDP_POLL_WAIT_SECONDS" envDefault:"5"`
}

// CookieConfig controls the preference cookies.
type CookieConfig struct {
	Domain        string `env:"COOKIE_DOMAIN"`
	MaxAgeDays    int    `env:"COOKIE_MAX_AGE_DAYS" envDefault:"130"`
	TrustForwards bool   `env:"COOKIE_TRUST_FORWARDED_PROTO" envDefault:"false"`
}

// ContentConfig points at the header content file.
type ContentConfig struct {
	Path string `env:"CONTENT_PATH" envDefault:"content/header.yaml"`
}

// Load reads configuration from the environment, applying defaults where possible.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Cookies.MaxAgeDays <= 0 {
		return nil, fmt.Errorf("invalid COOKIE_MAX_AGE_DAYS: %d", cfg.Cookies.MaxAgeDays)
	}
	switch cfg.App.CommitStrategy {
	case "reload", "fragment":
	default:
		return nil, fmt.Errorf("invalid COMMIT_STRATEGY: %q", cfg.App.CommitStrategy)
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the audit token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// Timeout returns the per-call CDP timeout.
func (c CDPConfig) Timeout() time.Duration {
	if c.TimeoutMillis <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// Enabled reports whether CDP calls leave the process.
func (c CDPConfig) Enabled() bool {
	return c.BaseURL != ""
}

// MaxAge returns the preference cookie lifetime.
func (c CookieConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}
