// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all LeadPing configuration.
type Config struct {
	Mode string `env:"APP_MODE" envDefault:"api"`

	// Server
	Host string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"APP_PORT" envDefault:"8080"`

	// Database
	DatabaseURL   string `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/leadping?sslmode=disable"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	// Redis
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Identity provider (GoTrue-style REST API)
	IdentityURL        string `env:"IDENTITY_URL" envDefault:"http://localhost:9999"`
	IdentityServiceKey string `env:"IDENTITY_SERVICE_KEY"`

	// OIDC bearer-token verification against the identity provider
	OIDCIssuerURL string `env:"OIDC_ISSUER"`
	OIDCClientID  string `env:"OIDC_CLIENT_ID"`

	// Outbound messaging gateway
	GatewayURL   string `env:"GATEWAY_URL"`
	GatewayToken string `env:"GATEWAY_TOKEN"`

	// Public base URL used to build per-account webhook URLs shown to users.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Metrics
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Slack ops notifications (dispatch failures)
	SlackBotToken   string `env:"SLACK_BOT_TOKEN"`
	SlackOpsChannel string `env:"SLACK_OPS_CHANNEL"`

	// Dev mode
	DevMode bool `env:"DEV_MODE" envDefault:"false"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from env: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the address the HTTP server should listen on.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
