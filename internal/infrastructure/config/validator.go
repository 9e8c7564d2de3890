package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validator valida la configuración cargada
type Validator struct{}

// NewValidator crea una nueva instancia del validador
func NewValidator() *Validator {
	return &Validator{}
}

// Validate valida toda la configuración
func (v *Validator) Validate(config *Config) error {
	if err := v.validateServer(config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := v.validateCache(config.Cache); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}

	if err := v.validateGovernor(config.Governor); err != nil {
		return fmt.Errorf("governor config validation failed: %w", err)
	}

	if err := v.validateExchanges(config.Exchanges, config.Development.MockMode); err != nil {
		return fmt.Errorf("exchanges config validation failed: %w", err)
	}

	if err := v.validateRateLimit(config.RateLimit); err != nil {
		return fmt.Errorf("rate limit config validation failed: %w", err)
	}

	if err := v.validateAuth(config.Auth); err != nil {
		return fmt.Errorf("auth config validation failed: %w", err)
	}

	if err := v.validateLogging(config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	return nil
}

// validateServer valida la configuración del servidor
func (v *Validator) validateServer(config ServerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be between 1-65535", config.Port)
	}

	if config.ReadTimeout <= 0 || config.WriteTimeout <= 0 {
		return fmt.Errorf("read_timeout and write_timeout must be positive")
	}

	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got: %v", config.ShutdownTimeout)
	}

	if config.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown_timeout too long: %v, max 5 minutes", config.ShutdownTimeout)
	}

	return nil
}

// validateCache valida la configuración del cache de precios
func (v *Validator) validateCache(config CacheConfig) error {
	if config.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %v", config.TTL)
	}

	if config.TTL > 24*time.Hour {
		return fmt.Errorf("cache TTL too long: %v, max 24 hours", config.TTL)
	}

	if config.RefreshAttempts < 1 || config.RefreshAttempts > 10 {
		return fmt.Errorf("refresh_attempts must be between 1-10, got: %d", config.RefreshAttempts)
	}

	if config.GracePeriod < 0 {
		return fmt.Errorf("cache grace_period cannot be negative, got: %v", config.GracePeriod)
	}

	if config.MaxStaleness < 0 {
		return fmt.Errorf("max_staleness cannot be negative, got: %v", config.MaxStaleness)
	}

	if config.MaxStaleness > 0 && config.MaxStaleness < config.TTL {
		return fmt.Errorf("max_staleness (%v) must be zero or at least the TTL (%v)", config.MaxStaleness, config.TTL)
	}

	if config.DefaultDepth < 1 || config.DefaultDepth > 1000 {
		return fmt.Errorf("default_depth must be between 1-1000, got: %d", config.DefaultDepth)
	}

	return nil
}

// validateGovernor valida límites y reintentos hacia los exchanges
func (v *Validator) validateGovernor(config GovernorConfig) error {
	if config.Retries < 0 || config.Retries > 10 {
		return fmt.Errorf("governor retries must be between 0-10, got: %d", config.Retries)
	}

	if config.GracePeriod < 0 {
		return fmt.Errorf("governor grace_period cannot be negative, got: %v", config.GracePeriod)
	}

	if err := v.validateLimit("default", config.DefaultLimit, config.DefaultInterval); err != nil {
		return err
	}

	for exchange, limit := range config.Limits {
		if err := v.validateLimit(exchange, limit.Requests, limit.Interval); err != nil {
			return err
		}
	}

	return nil
}

func (v *Validator) validateLimit(name string, requests int, interval time.Duration) error {
	if requests <= 0 {
		return fmt.Errorf("%s limit must be positive, got: %d", name, requests)
	}
	if interval <= 0 {
		return fmt.Errorf("%s interval must be positive, got: %v", name, interval)
	}
	return nil
}

// validateExchanges valida la configuración de exchanges
func (v *Validator) validateExchanges(config ExchangesConfig, mockMode bool) error {
	if len(config.Enabled) == 0 && !mockMode {
		return fmt.Errorf("at least one exchange must be enabled")
	}

	known := []string{"kraken", "binance", "mock"}
	for _, name := range config.Enabled {
		if !contains(known, name) {
			return fmt.Errorf("unknown exchange: %s, must be one of: %v", name, known)
		}
	}

	if contains(config.Enabled, "kraken") {
		if err := v.validateURL(config.Kraken.RestURL, "kraken rest_url"); err != nil {
			return err
		}
		if config.Kraken.Timeout <= 0 {
			return fmt.Errorf("kraken timeout must be positive, got: %v", config.Kraken.Timeout)
		}
	}

	if contains(config.Enabled, "binance") {
		if err := v.validateURL(config.Binance.RestURL, "binance rest_url"); err != nil {
			return err
		}
		if config.Binance.Timeout <= 0 {
			return fmt.Errorf("binance timeout must be positive, got: %v", config.Binance.Timeout)
		}
	}

	return nil
}

// validateRateLimit valida la configuración de rate limiting entrante
func (v *Validator) validateRateLimit(config RateLimitConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.Limit <= 0 {
		return fmt.Errorf("rate_limit limit must be positive when enabled, got: %d", config.Limit)
	}

	if config.Limit > 10000 {
		return fmt.Errorf("rate_limit limit too high: %d, max 10000", config.Limit)
	}

	if config.Interval <= 0 {
		return fmt.Errorf("rate_limit interval must be positive when enabled, got: %v", config.Interval)
	}

	return nil
}

// validateAuth valida la configuración de autenticación
func (v *Validator) validateAuth(config AuthConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty when auth is enabled")
	}

	if config.HeaderName == "" {
		return fmt.Errorf("header_name cannot be empty when auth is enabled")
	}

	return nil
}

// validateLogging valida la configuración de logging
func (v *Validator) validateLogging(config LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(config.Level)) {
		return fmt.Errorf("invalid log level: %s, must be one of: %v", config.Level, validLevels)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, strings.ToLower(config.Format)) {
		return fmt.Errorf("invalid log format: %s, must be one of: %v", config.Format, validFormats)
	}

	return nil
}

// validateURL valida que una URL sea válida para HTTP/HTTPS
func (v *Validator) validateURL(rawURL, fieldName string) error {
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %s, error: %v", fieldName, rawURL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid %s scheme: %s, must be http or https", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must have a host", fieldName)
	}

	return nil
}

// contains verifica si un slice contiene un elemento
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
