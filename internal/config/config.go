package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	RecordStore RecordStoreConfig `yaml:"record_store"`
	CollabStore CollabStoreConfig `yaml:"collab_store"`
	Auth        AuthConfig        `yaml:"auth"`
	Cache       CacheConfig       `yaml:"cache"`
	Retry       RetryConfig       `yaml:"retry"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	CORS        CORSConfig        `yaml:"cors"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"              env:"SERVER_HOST"              env-default:"0.0.0.0"`
	Port            int           `yaml:"port"              env:"SERVER_PORT"              env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"      env:"SERVER_READ_TIMEOUT"      env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"     env:"SERVER_WRITE_TIMEOUT"     env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"      env:"SERVER_IDLE_TIMEOUT"      env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"  env:"SERVER_SHUTDOWN_TIMEOUT"  env-default:"10s"`
	PublicPerMinute int           `yaml:"public_per_minute" env:"SERVER_PUBLIC_PER_MINUTE" env-default:"60"`
	AuthedPerMinute int           `yaml:"authed_per_minute" env:"SERVER_AUTHED_PER_MINUTE" env-default:"300"`
}

// RecordStoreConfig holds the hosted record-store connection settings.
type RecordStoreConfig struct {
	BaseURL       string        `yaml:"base_url"        env:"RECORD_STORE_BASE_URL"        env-required:"true"`
	APIToken      string        `yaml:"api_token"       env:"RECORD_STORE_API_TOKEN"       env-required:"true"`
	Timeout       time.Duration `yaml:"timeout"         env:"RECORD_STORE_TIMEOUT"         env-default:"30s"`
	RatePerSecond float64       `yaml:"rate_per_second" env:"RECORD_STORE_RATE_PER_SECOND" env-default:"4"`
	Burst         int           `yaml:"burst"           env:"RECORD_STORE_BURST"           env-default:"8"`
}

// CollabStoreConfig holds the relational collaboration-store settings.
type CollabStoreConfig struct {
	BaseURL string `yaml:"base_url" env:"COLLAB_STORE_BASE_URL" env-required:"true"`
	APIKey  string `yaml:"api_key"  env:"COLLAB_STORE_API_KEY"  env-required:"true"`
}

// AuthConfig holds token and password settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"clientspace"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"15m"`
	HashCost       int           `yaml:"hash_cost"        env:"AUTH_HASH_COST"        env-default:"10"`
}

// CacheConfig holds per-kind cache lifetimes.
type CacheConfig struct {
	RecordTTL time.Duration `yaml:"record_ttl" env:"CACHE_RECORD_TTL" env-default:"30s"`
	StatsTTL  time.Duration `yaml:"stats_ttl"  env:"CACHE_STATS_TTL"  env-default:"5m"`
	ShareTTL  time.Duration `yaml:"share_ttl"  env:"CACHE_SHARE_TTL"  env-default:"1m"`
}

// RetryConfig holds the rate-limit retry policy.
type RetryConfig struct {
	// Delay is the single fixed delay before a rate-limited fetch is
	// retried. Bounded to 5s..15s by validation.
	Delay time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"10s"`
}

// WebhookConfig holds webhook ingress settings.
type WebhookConfig struct {
	EndpointKeysRaw string `yaml:"endpoint_keys" env:"WEBHOOK_ENDPOINT_KEYS"`
	Secret          string `yaml:"secret"        env:"WEBHOOK_SECRET"`
}

// EndpointKeys returns the comma-separated endpoint keys as a slice.
func (c WebhookConfig) EndpointKeys() []string {
	if strings.TrimSpace(c.EndpointKeysRaw) == "" {
		return nil
	}
	parts := strings.Split(c.EndpointKeysRaw, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

// Origins returns the comma-separated allowed origins as a slice.
func (c CORSConfig) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
