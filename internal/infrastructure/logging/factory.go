package logging

import (
	"fmt"
	"os"
	"sync"
)

// LoggerFactory facilita la creación de diferentes tipos de loggers
type LoggerFactory struct {
	baseLogger Logger
}

// NewLoggerFactory crea una nueva factory de loggers
func NewLoggerFactory(config *LoggerConfig) (*LoggerFactory, error) {
	baseLogger, err := NewStructuredLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create base logger: %w", err)
	}

	return NewLoggerFactoryFromLogger(baseLogger), nil
}

// NewLoggerFactoryFromLogger crea una factory sobre un logger ya construido
func NewLoggerFactoryFromLogger(baseLogger Logger) *LoggerFactory {
	return &LoggerFactory{
		baseLogger: baseLogger,
	}
}

// GetHTTPLogger retorna un logger especializado para HTTP
func (f *LoggerFactory) GetHTTPLogger() HTTPLogger {
	return NewHTTPLogger(f.baseLogger)
}

// GetExternalAPILogger retorna un logger especializado para los exchanges
func (f *LoggerFactory) GetExternalAPILogger() ExternalAPILogger {
	return NewExternalAPILogger(f.baseLogger)
}

// GetGovernorLogger retorna un logger especializado para el governor
func (f *LoggerFactory) GetGovernorLogger() GovernorLogger {
	return NewGovernorLogger(f.baseLogger)
}

// GetCacheLogger retorna un logger especializado para cache
func (f *LoggerFactory) GetCacheLogger() CacheLogger {
	return NewCacheLogger(f.baseLogger)
}

// GetSecurityLogger retorna un logger especializado para seguridad
func (f *LoggerFactory) GetSecurityLogger() SecurityLogger {
	return NewSecurityLogger(f.baseLogger)
}

// LoggerSet contiene todos los loggers especializados
type LoggerSet struct {
	Base        Logger
	HTTP        HTTPLogger
	ExternalAPI ExternalAPILogger
	Governor    GovernorLogger
	Cache       CacheLogger
	Security    SecurityLogger
}

// GetLoggerSet retorna un set completo de loggers especializados
func (f *LoggerFactory) GetLoggerSet() *LoggerSet {
	return &LoggerSet{
		Base:        f.baseLogger,
		HTTP:        f.GetHTTPLogger(),
		ExternalAPI: f.GetExternalAPILogger(),
		Governor:    f.GetGovernorLogger(),
		Cache:       f.GetCacheLogger(),
		Security:    f.GetSecurityLogger(),
	}
}

// Global factory instance y loggers globales
var (
	globalMu      sync.RWMutex
	globalLoggers *LoggerSet
)

// InitializeGlobalLoggers inicializa los loggers globales
func InitializeGlobalLoggers(config *LoggerConfig) error {
	factory, err := NewLoggerFactory(config)
	if err != nil {
		return fmt.Errorf("failed to initialize global loggers: %w", err)
	}

	SetGlobalFactory(factory)
	return nil
}

// SetGlobalFactory reemplaza la factory global (tests incluidos)
func SetGlobalFactory(factory *LoggerFactory) {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalLoggers = factory.GetLoggerSet()
}

// GetGlobalLoggers retorna todos los loggers globales
func GetGlobalLoggers() *LoggerSet {
	globalMu.RLock()
	loggers := globalLoggers
	globalMu.RUnlock()

	if loggers != nil {
		return loggers
	}

	// Fallback en caso de que no se hayan inicializado los loggers globales
	_ = InitializeGlobalLoggers(NewConfig("exapi-service", "dev", environmentFromEnv()))

	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLoggers
}

// GetGlobalLogger retorna el logger base global
func GetGlobalLogger() Logger {
	return GetGlobalLoggers().Base
}

// environmentFromEnv obtiene el entorno desde ENVIRONMENT o usa development
func environmentFromEnv() string {
	if value := os.Getenv("ENVIRONMENT"); value != "" {
		return value
	}
	return "development"
}
