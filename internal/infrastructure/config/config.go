package config

import (
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Governor    GovernorConfig    `yaml:"governor" mapstructure:"governor"`
	Exchanges   ExchangesConfig   `yaml:"exchanges" mapstructure:"exchanges"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Auth        AuthConfig        `yaml:"auth" mapstructure:"auth"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// CacheConfig contains mid-price cache configuration
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	RefreshAttempts int           `yaml:"refresh_attempts" mapstructure:"refresh_attempts"`
	GracePeriod     time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
	// MaxStaleness limita la antigüedad de un precio servido como fallback (0 = sin límite)
	MaxStaleness time.Duration `yaml:"max_staleness" mapstructure:"max_staleness"`
	DefaultDepth int           `yaml:"default_depth" mapstructure:"default_depth"`
}

// GovernorConfig contains outbound throttling and retry configuration
type GovernorConfig struct {
	Retries         int                    `yaml:"retries" mapstructure:"retries"`
	GracePeriod     time.Duration          `yaml:"grace_period" mapstructure:"grace_period"`
	DefaultLimit    int                    `yaml:"default_limit" mapstructure:"default_limit"`
	DefaultInterval time.Duration          `yaml:"default_interval" mapstructure:"default_interval"`
	Limits          map[string]LimitConfig `yaml:"limits" mapstructure:"limits"`
}

// LimitConfig overrides the request window for a single exchange
type LimitConfig struct {
	Requests int           `yaml:"requests" mapstructure:"requests"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ExchangesConfig contains upstream exchange configuration
type ExchangesConfig struct {
	Enabled []string      `yaml:"enabled" mapstructure:"enabled"`
	Kraken  KrakenConfig  `yaml:"kraken" mapstructure:"kraken"`
	Binance BinanceConfig `yaml:"binance" mapstructure:"binance"`
}

// KrakenConfig contains Kraken-specific configuration
type KrakenConfig struct {
	RestURL string        `yaml:"rest_url" mapstructure:"rest_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// BinanceConfig contains Binance-specific configuration
type BinanceConfig struct {
	RestURL string        `yaml:"rest_url" mapstructure:"rest_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RateLimitConfig contains inbound rate limiting configuration
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Limit    int           `yaml:"limit" mapstructure:"limit"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// AuthConfig contains authentication configuration for administrative routes
type AuthConfig struct {
	Enabled         bool     `yaml:"enabled" mapstructure:"enabled"`
	APIKey          string   `yaml:"api_key" mapstructure:"api_key"`
	HeaderName      string   `yaml:"header_name" mapstructure:"header_name"`
	ProtectedPrefix []string `yaml:"protected_prefix" mapstructure:"protected_prefix"`
}

// LoggingConfig contains logging system configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DevelopmentConfig contiene configuraciones para desarrollo y testing
type DevelopmentConfig struct {
	MockMode  bool `yaml:"mock_mode" mapstructure:"mock_mode"`
	DebugMode bool `yaml:"debug_mode" mapstructure:"debug_mode"`
}

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second, // Governed calls may retry for ~15s
			ShutdownTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:             60 * time.Second,
			RefreshAttempts: 2,
			GracePeriod:     5 * time.Second,
			MaxStaleness:    0,
			DefaultDepth:    10,
		},
		Governor: GovernorConfig{
			Retries:         3,
			GracePeriod:     5 * time.Second,
			DefaultLimit:    100,
			DefaultInterval: time.Second,
			Limits: map[string]LimitConfig{
				"coincap":       {Requests: 10, Interval: 60 * time.Second},
				"coinmarketcap": {Requests: 10, Interval: 60 * time.Second},
			},
		},
		Exchanges: ExchangesConfig{
			Enabled: []string{"kraken", "binance"},
			Kraken: KrakenConfig{
				RestURL: "https://api.kraken.com/0/public",
				Timeout: 10 * time.Second,
			},
			Binance: BinanceConfig{
				RestURL: "https://api.binance.com",
				Timeout: 10 * time.Second,
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Limit:    100,
			Interval: time.Second,
		},
		Auth: AuthConfig{
			Enabled:         false, // Disabled by default
			APIKey:          "",
			HeaderName:      "X-API-Key",
			ProtectedPrefix: []string{"/api/v1/"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Development: DevelopmentConfig{
			MockMode:  false,
			DebugMode: false,
		},
	}
}

// LimitFor returns the request window configured for an exchange
func (g GovernorConfig) LimitFor(exchange string) (int, time.Duration) {
	if l, ok := g.Limits[strings.ToLower(exchange)]; ok && l.Requests > 0 && l.Interval > 0 {
		return l.Requests, l.Interval
	}
	return g.DefaultLimit, g.DefaultInterval
}
