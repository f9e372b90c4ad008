package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresUser   string `toml:"postgres_user"`
	PostgresDBName string `toml:"postgres_db_name"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// prometheus
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// http api
	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`
	// reverse proxies (IPs or CIDRs) allowed to set X-Real-Ip / X-Forwarded-For
	TrustedProxies []string `toml:"trusted_proxies"`
	// rate limiting, per client ip, on all /api/ routes
	RateLimitRequests     int           `toml:"rate_limit_requests"`
	RateLimitWindow       time.Duration `toml:"rate_limit_window"`
	BcryptCost            int           `toml:"bcrypt_cost"`
	TokenTTL              time.Duration `toml:"token_ttl"`
	TokenIssuer           string        `toml:"token_issuer"`
	GracefulShutdownAfter time.Duration `toml:"graceful_shutdown_after"`
}

// Secrets are never stored in the TOML file, only read from the environment.
type Secrets struct {
	JWTSecret        string `env:"PORTFOLIO_JWT_SECRET, required"`
	RedisPassword    string `env:"PORTFOLIO_REDIS_PASS"`
	SentryDSN        string `env:"SENTRY_DSN"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED, default=false"`
}

// SeedAdmin holds the credentials used to provision the administrator.
type SeedAdmin struct {
	Email    string `env:"ADMIN_EMAIL, default=admin@portfolio.com"`
	Password string `env:"ADMIN_PASSWORD"`
}

type Toml struct {
	Development *Config
	Production  *Config
	DockerDev   *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	case "ddev", "dockerdev":
		cfg = t.DockerDev
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if len(c.CorsAllowedOrigins) == 0 {
		c.CorsAllowedOrigins = []string{"http://localhost:5173"}
	}
	if c.RateLimitRequests == 0 {
		c.RateLimitRequests = 100
	}
	if c.RateLimitWindow == 0 {
		c.RateLimitWindow = 15 * time.Minute
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 7 * 24 * time.Hour
	}
	if c.TokenIssuer == "" {
		c.TokenIssuer = "portfolio-api"
	}
	if c.GracefulShutdownAfter == 0 {
		c.GracefulShutdownAfter = 15 * time.Second
	}
}

func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Environment) {
	case "prod", "production":
		return true
	}
	return false
}

func Load(env, path string) (*Config, error) {
	tomlBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(env, string(tomlBytes))
}

func Parse(env, tomlData string) (*Config, error) {
	var cfgToml Toml
	if _, err := toml.Decode(tomlData, &cfgToml); err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}

	cfg, err := cfgToml.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = env
	}

	return cfg, nil
}

var ErrWeakJWTSecret = errors.New("jwt secret must be at least 32 bytes long")

func LoadSecrets(ctx context.Context) (*Secrets, error) {
	return loadSecrets(ctx, envconfig.OsLookuper())
}

func loadSecrets(ctx context.Context, lookuper envconfig.Lookuper) (*Secrets, error) {
	var secrets Secrets
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &secrets,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}

	if len(secrets.JWTSecret) < 32 {
		return nil, ErrWeakJWTSecret
	}

	return &secrets, nil
}

func LoadSeedAdmin(ctx context.Context) (*SeedAdmin, error) {
	return loadSeedAdmin(ctx, envconfig.OsLookuper())
}

func loadSeedAdmin(ctx context.Context, lookuper envconfig.Lookuper) (*SeedAdmin, error) {
	var seed SeedAdmin
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &seed,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env seed admin: %w", err)
	}
	return &seed, nil
}
