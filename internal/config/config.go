package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/marque-api/internal/domain"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"3000"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// SQLLogLevel is one of silent, error, warn, info.
	SQLLogLevel string `env:"SQL_LOG_LEVEL" envDefault:"warn"`

	KGStore     StoreConfig `envPrefix:"KG_"`
	USStore     StoreConfig `envPrefix:"US_"`
	AutoMigrate bool        `env:"AUTO_MIGRATE" envDefault:"false"`

	JWTSecret         string        `env:"JWT_SECRET"`
	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"30m"`

	VerificationCodeTTL  time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"10m"`
	VerificationSweep    time.Duration `env:"VERIFICATION_SWEEP_INTERVAL" envDefault:"1h"`
	PhoneSendLimit       int           `env:"PHONE_SEND_LIMIT" envDefault:"3"`
	PhoneSendLimitWindow time.Duration `env:"PHONE_SEND_LIMIT_WINDOW" envDefault:"15m"`

	Session SessionConfig `envPrefix:"SESSION_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`

	AWSRegion           string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL      string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID      string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey        string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoSessionsTable string `env:"DYNAMO_TABLE_ADMIN_SESSIONS" envDefault:"admin_sessions"`

	// SMSProvider is "log" (codes are written to the log) or "sns".
	SMSProvider string `env:"SMS_PROVIDER" envDefault:"log"`
	SNSRegion   string `env:"SNS_REGION" envDefault:"us-east-1"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// StoreConfig describes one market's relational store and its connection pool.
type StoreConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"` // postgres | sqlite
	DSN             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"30"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	AcquireTimeout  time.Duration `env:"DB_ACQUIRE_TIMEOUT" envDefault:"30s"`
}

// SessionConfig controls operator sessions.
type SessionConfig struct {
	Backend      string        `env:"BACKEND" envDefault:"memory"` // memory | redis | dynamo
	TTL          time.Duration `env:"TTL" envDefault:"12h"`
	CookieName   string        `env:"COOKIE_NAME" envDefault:"marque_admin_session"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PhoneSendLimit < 1 {
		return nil, fmt.Errorf("PHONE_SEND_LIMIT must be at least 1, got %d", cfg.PhoneSendLimit)
	}
	if cfg.PhoneSendLimitWindow <= 0 {
		return nil, fmt.Errorf("PHONE_SEND_LIMIT_WINDOW must be positive, got %s", cfg.PhoneSendLimitWindow)
	}
	return &cfg, nil
}

// Stores returns the store configuration keyed by market.
func (c *Config) Stores() map[domain.Market]StoreConfig {
	return map[domain.Market]StoreConfig{
		domain.MarketKG: c.KGStore,
		domain.MarketUS: c.USStore,
	}
}
