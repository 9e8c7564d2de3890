package logging

import (
	"context"
	"time"
)

// Logger define la interfaz principal para logging estructurado
type Logger interface {
	// Métodos básicos de logging por nivel
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)

	// Métodos con error incluido
	InfoWithError(ctx context.Context, message string, err error, fields Fields)
	WarnWithError(ctx context.Context, message string, err error, fields Fields)
	ErrorWithError(ctx context.Context, message string, err error, fields Fields)

	// Configuración
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// DomainLogger representa loggers especializados por dominio
type DomainLogger interface {
	Logger

	// Identificador del dominio
	Domain() string
}

// HTTPLogger especializado para logs relacionados con HTTP
type HTTPLogger interface {
	DomainLogger

	RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string)
	RequestCompleted(ctx context.Context, method, path string, statusCode int, duration float64)
	RequestFailed(ctx context.Context, method, path string, statusCode int, err error, duration float64)
}

// ExternalAPILogger especializado para llamadas a los exchanges
type ExternalAPILogger interface {
	DomainLogger

	RequestStarted(ctx context.Context, service, endpoint, method string)
	RequestCompleted(ctx context.Context, service, endpoint string, statusCode int, duration float64)
	RequestFailed(ctx context.Context, service, endpoint string, statusCode int, err error, duration float64)
}

// GovernorLogger registra el ciclo de vida de una llamada gobernada
type GovernorLogger interface {
	DomainLogger

	Attempt(ctx context.Context, identity string, attempt, maxAttempts int)
	Throttled(ctx context.Context, identity string, wait time.Duration)
	RetryScheduled(ctx context.Context, identity string, attempt int, grace time.Duration, err error)
	Terminal(ctx context.Context, identity string, kind string, attempts int, err error)
	Unclassified(ctx context.Context, identity string, err error)
}

// CacheLogger especializado para el cache de precios medios
type CacheLogger interface {
	DomainLogger

	Hit(ctx context.Context, key string)
	Miss(ctx context.Context, key string)
	Stored(ctx context.Context, key string, price string, ttl time.Duration)
	RefreshFailed(ctx context.Context, key string, attempt int, err error)
	StaleServed(ctx context.Context, key string, age time.Duration)
	Unavailable(ctx context.Context, key string, err error)
}

// SecurityLogger especializado para logs relacionados con seguridad
type SecurityLogger interface {
	DomainLogger

	RateLimitExceeded(ctx context.Context, clientIP string, endpoint string)
	AuthenticationFailed(ctx context.Context, clientIP string, reason string)
	SuspiciousActivity(ctx context.Context, clientIP string, pattern string)
}
