package logging

import (
	"context"
	"time"
)

// BaseDomainLogger implementa funcionalidad común para loggers de dominio
type BaseDomainLogger struct {
	Logger
	domain string
}

func newBaseDomainLogger(base Logger, domain string) *BaseDomainLogger {
	return &BaseDomainLogger{Logger: base, domain: domain}
}

// Domain retorna el dominio del logger
func (dl *BaseDomainLogger) Domain() string {
	return dl.domain
}

// withDomain copia los campos y agrega el dominio
func (dl *BaseDomainLogger) withDomain(fields Fields) Fields {
	out := make(Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[FieldDomain] = dl.domain
	return out
}

// logWithDomain agrega el campo de dominio a los logs
func (dl *BaseDomainLogger) logWithDomain(ctx context.Context, level LogLevel, message string, fields Fields) {
	fields = dl.withDomain(fields)

	switch level {
	case LevelDebug:
		dl.Logger.Debug(ctx, message, fields)
	case LevelInfo:
		dl.Logger.Info(ctx, message, fields)
	case LevelWarn:
		dl.Logger.Warn(ctx, message, fields)
	case LevelError:
		dl.Logger.Error(ctx, message, fields)
	}
}

// Override métodos base para incluir dominio
func (dl *BaseDomainLogger) Debug(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelDebug, message, fields)
}

func (dl *BaseDomainLogger) Info(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelInfo, message, fields)
}

func (dl *BaseDomainLogger) Warn(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelWarn, message, fields)
}

func (dl *BaseDomainLogger) Error(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelError, message, fields)
}

func (dl *BaseDomainLogger) InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.InfoWithError(ctx, message, err, dl.withDomain(fields))
}

func (dl *BaseDomainLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.WarnWithError(ctx, message, err, dl.withDomain(fields))
}

func (dl *BaseDomainLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.ErrorWithError(ctx, message, err, dl.withDomain(fields))
}

func levelForStatus(statusCode int) LogLevel {
	switch {
	case statusCode >= 500:
		return LevelError
	case statusCode >= 400:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// HTTPDomainLogger especializado para logs HTTP
type HTTPDomainLogger struct {
	*BaseDomainLogger
}

// NewHTTPLogger crea un nuevo logger HTTP
func NewHTTPLogger(baseLogger Logger) HTTPLogger {
	return &HTTPDomainLogger{BaseDomainLogger: newBaseDomainLogger(baseLogger, "http")}
}

func (hl *HTTPDomainLogger) RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldHTTPMethod, method).
		WithCustomField(FieldHTTPPath, path).
		WithUserAgent(userAgent).
		WithRemoteIP(remoteIP).
		Build()

	hl.Debug(ctx, "HTTP request received", fields)
}

func (hl *HTTPDomainLogger) RequestCompleted(ctx context.Context, method, path string, statusCode int, duration float64) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, statusCode).
		WithCustomField(FieldDuration, duration).
		Build()

	hl.logWithDomain(ctx, levelForStatus(statusCode), "HTTP request completed", fields)
}

func (hl *HTTPDomainLogger) RequestFailed(ctx context.Context, method, path string, statusCode int, err error, duration float64) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, statusCode).
		WithCustomField(FieldDuration, duration).
		Build()

	hl.ErrorWithError(ctx, "HTTP request failed", err, fields)
}

// ExternalAPIDomainLogger especializado para APIs externas
type ExternalAPIDomainLogger struct {
	*BaseDomainLogger
}

// NewExternalAPILogger crea un nuevo logger para APIs externas
func NewExternalAPILogger(baseLogger Logger) ExternalAPILogger {
	return &ExternalAPIDomainLogger{BaseDomainLogger: newBaseDomainLogger(baseLogger, "external_api")}
}

func (el *ExternalAPIDomainLogger) RequestStarted(ctx context.Context, service, endpoint, method string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalMethod, method).
		Build()

	el.Debug(ctx, "External API request started", fields)
}

func (el *ExternalAPIDomainLogger) RequestCompleted(ctx context.Context, service, endpoint string, statusCode int, duration float64) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalStatus, statusCode).
		WithCustomField(FieldExternalDuration, duration).
		Build()

	// Los errores del exchange se clasifican en el governor; aquí basta debug/warn
	level := LevelDebug
	if statusCode >= 400 {
		level = LevelWarn
	}
	el.logWithDomain(ctx, level, "External API request completed", fields)
}

func (el *ExternalAPIDomainLogger) RequestFailed(ctx context.Context, service, endpoint string, statusCode int, err error, duration float64) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalStatus, statusCode).
		WithCustomField(FieldExternalDuration, duration).
		Build()

	el.WarnWithError(ctx, "External API request failed", err, fields)
}

// GovernorDomainLogger registra intentos, esperas y clasificaciones del governor
type GovernorDomainLogger struct {
	*BaseDomainLogger
}

// NewGovernorLogger crea un nuevo logger para el governor
func NewGovernorLogger(baseLogger Logger) GovernorLogger {
	return &GovernorDomainLogger{BaseDomainLogger: newBaseDomainLogger(baseLogger, "governor")}
}

func (gl *GovernorDomainLogger) Attempt(ctx context.Context, identity string, attempt, maxAttempts int) {
	fields := NewFieldBuilder().
		WithCustomField(FieldIdentity, identity).
		WithAttempt(attempt, maxAttempts).
		Build()

	gl.Debug(ctx, "Governed call attempt", fields)
}

func (gl *GovernorDomainLogger) Throttled(ctx context.Context, identity string, wait time.Duration) {
	fields := NewFieldBuilder().
		WithCustomField(FieldIdentity, identity).
		WithCustomField(FieldWaitMs, wait.Milliseconds()).
		Build()

	gl.Info(ctx, "Request limit reached, waiting for next window", fields)
}

func (gl *GovernorDomainLogger) RetryScheduled(ctx context.Context, identity string, attempt int, grace time.Duration, err error) {
	fields := NewFieldBuilder().
		WithCustomField(FieldIdentity, identity).
		WithAttempt(attempt, 0).
		WithCustomField(FieldGraceMs, grace.Milliseconds()).
		WithError(err).
		Build()

	gl.Debug(ctx, "Transient upstream failure, retrying after grace period", fields)
}

func (gl *GovernorDomainLogger) Terminal(ctx context.Context, identity string, kind string, attempts int, err error) {
	fields := NewFieldBuilder().
		WithCustomField(FieldIdentity, identity).
		WithCustomField(FieldKind, kind).
		WithAttempt(attempts, 0).
		Build()

	gl.WarnWithError(ctx, "Governed call failed", err, fields)
}

func (gl *GovernorDomainLogger) Unclassified(ctx context.Context, identity string, err error) {
	fields := NewFieldBuilder().
		WithCustomField(FieldIdentity, identity).
		Build()

	gl.WarnWithError(ctx, "Unclassified upstream error", err, fields)
}

// CacheDomainLogger especializado para el cache de precios
type CacheDomainLogger struct {
	*BaseDomainLogger
}

// NewCacheLogger crea un nuevo logger de cache
func NewCacheLogger(baseLogger Logger) CacheLogger {
	return &CacheDomainLogger{BaseDomainLogger: newBaseDomainLogger(baseLogger, "cache")}
}

func (cl *CacheDomainLogger) Hit(ctx context.Context, key string) {
	cl.Debug(ctx, "Cache hit", NewFieldBuilder().WithCache(CacheOpGet, key, true).Build())
}

func (cl *CacheDomainLogger) Miss(ctx context.Context, key string) {
	cl.Debug(ctx, "Cache miss", NewFieldBuilder().WithCache(CacheOpGet, key, false).Build())
}

func (cl *CacheDomainLogger) Stored(ctx context.Context, key string, price string, ttl time.Duration) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheOperation, CacheOpSet).
		WithCustomField(FieldCacheKey, key).
		WithCustomField(FieldPrice, price).
		WithCustomField(FieldCacheTTL, ttl.Seconds()).
		Build()

	cl.Debug(ctx, "Mid price cached", fields)
}

func (cl *CacheDomainLogger) RefreshFailed(ctx context.Context, key string, attempt int, err error) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheOperation, CacheOpRefresh).
		WithCustomField(FieldCacheKey, key).
		WithAttempt(attempt, 0).
		Build()

	cl.InfoWithError(ctx, "Mid price refresh attempt failed", err, fields)
}

func (cl *CacheDomainLogger) StaleServed(ctx context.Context, key string, age time.Duration) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheKey, key).
		WithCustomField(FieldCacheAge, age.Seconds()).
		Build()

	cl.Warn(ctx, "Returning stale price", fields)
}

func (cl *CacheDomainLogger) Unavailable(ctx context.Context, key string, err error) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheKey, key).
		Build()

	cl.ErrorWithError(ctx, "Price unavailable", err, fields)
}

// SecurityDomainLogger especializado para seguridad
type SecurityDomainLogger struct {
	*BaseDomainLogger
}

// NewSecurityLogger crea un nuevo logger de seguridad
func NewSecurityLogger(baseLogger Logger) SecurityLogger {
	return &SecurityDomainLogger{BaseDomainLogger: newBaseDomainLogger(baseLogger, "security")}
}

func (sl *SecurityDomainLogger) RateLimitExceeded(ctx context.Context, clientIP string, endpoint string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField("endpoint", endpoint).
		Build()

	sl.Warn(ctx, "Rate limit exceeded", fields)
}

func (sl *SecurityDomainLogger) AuthenticationFailed(ctx context.Context, clientIP string, reason string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField("reason", reason).
		Build()

	sl.Warn(ctx, "API key authentication failed", fields)
}

func (sl *SecurityDomainLogger) SuspiciousActivity(ctx context.Context, clientIP string, pattern string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField("pattern", pattern).
		Build()

	sl.Warn(ctx, "Suspicious request detected", fields)
}
