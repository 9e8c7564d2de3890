package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading using Viper
type Loader struct {
	v    *viper.Viper
	file string
}

// NewLoader creates a new configuration loader instance
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// NewLoaderWithFile creates a loader that reads an explicit config file
// instead of searching the default locations
func NewLoaderWithFile(path string) *Loader {
	return &Loader{
		v:    viper.New(),
		file: path,
	}
}

// Load loads configuration from files and environment variables
func (l *Loader) Load() (*Config, error) {
	// 1. Configure Viper
	l.setupViper()

	// 2. Read configuration
	if err := l.v.ReadInConfig(); err != nil {
		// If config.yaml doesn't exist, use only env vars and defaults
		var notFound viper.ConfigFileNotFoundError
		if l.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 3. Unmarshal into defaults
	config := GetDefaultConfig()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 4. Override with specific env vars
	l.overrideWithEnvVars(config)

	return config, nil
}

// ConfigFileUsed returns the file that was read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// setupViper configures Viper to read files and env vars
func (l *Loader) setupViper() {
	if l.file != "" {
		l.v.SetConfigFile(l.file)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")

		// Search for configuration files in:
		l.v.AddConfigPath("./configs")  // Configs directory in root
		l.v.AddConfigPath("../configs") // For when running from cmd/
		l.v.AddConfigPath(".")          // Current directory
		l.v.AddConfigPath("/etc/exapi") // System (production)
	}

	// Automatic environment variables
	l.v.AutomaticEnv()
	l.v.SetEnvPrefix("EXAPI") // Prefix for env vars: EXAPI_SERVER_PORT
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.bindEnvVars()
}

// bindEnvVars maps specific environment variables to configuration keys
func (l *Loader) bindEnvVars() {
	envMappings := map[string]string{
		"server.port":                "PORT",
		"cache.ttl":                  "CACHE_TTL",
		"cache.max_staleness":        "CACHE_MAX_STALENESS",
		"governor.retries":           "API_RETRIES",
		"governor.grace_period":      "GRACE_TIME",
		"exchanges.kraken.rest_url":  "KRAKEN_BASE_URL",
		"exchanges.binance.rest_url": "BINANCE_BASE_URL",
		"logging.level":              "LOG_LEVEL",
		"logging.format":             "LOG_FORMAT",
		"rate_limit.enabled":         "RATE_LIMIT_ENABLED",
		"rate_limit.limit":           "RATE_LIMIT_LIMIT",
		"auth.enabled":               "AUTH_ENABLED",
		"auth.api_key":               "API_KEY",
	}

	for configKey, envVar := range envMappings {
		_ = l.v.BindEnv(configKey, envVar)
	}
}

// overrideWithEnvVars maneja casos especiales de env vars
func (l *Loader) overrideWithEnvVars(config *Config) {
	// EXCHANGES como string separado por comas
	if exchangesEnv := os.Getenv("EXCHANGES"); exchangesEnv != "" {
		var enabled []string
		for _, name := range strings.Split(exchangesEnv, ",") {
			name = strings.TrimSpace(strings.ToLower(name))
			if name != "" {
				enabled = append(enabled, name)
			}
		}

		if len(enabled) > 0 {
			config.Exchanges.Enabled = enabled
		}
	}

	// Development mode env vars
	if mockMode := os.Getenv("MOCK_MODE"); mockMode == "true" || mockMode == "1" {
		config.Development.MockMode = true
	}
	if debugMode := os.Getenv("DEBUG_MODE"); debugMode == "true" || debugMode == "1" {
		config.Development.DebugMode = true
		config.Logging.Level = "debug"
	}
}

// GetEnvironment determina el entorno actual desde ENV vars
func GetEnvironment() string {
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		env = strings.ToLower(os.Getenv("ENVIRONMENT"))
	}
	if env == "" {
		env = "development" // Default
	}
	return env
}
