package governor

import (
	"context"
	"strings"
	"time"

	"exapi-service/internal/infrastructure/config"
	"exapi-service/internal/infrastructure/logging"
	"exapi-service/internal/infrastructure/metrics"
	"exapi-service/internal/infrastructure/ratelimit"
	"exapi-service/pkg/utils"

	"github.com/avast/retry-go/v4"
)

// Identity is the upstream principal a request window belongs to
type Identity struct {
	Exchange string
	Account  string
}

// Key is the identity's window key
func (id Identity) Key() string {
	exchange := strings.ToLower(id.Exchange)
	if id.Account == "" {
		return exchange
	}
	return exchange + "/" + id.Account
}

func (id Identity) String() string {
	return id.Key()
}

// Operation is one upstream call. It must report failures as *CallError
// so the governor can classify them.
type Operation func(ctx context.Context) (interface{}, error)

// Config holds the governor settings
type Config struct {
	Retries     int
	GracePeriod time.Duration
	// LimitFor resolves the request window of an exchange
	LimitFor ratelimit.LimitFunc
}

// ConfigFrom builds a governor Config from the application config
func ConfigFrom(cfg config.GovernorConfig) Config {
	return Config{
		Retries:     cfg.Retries,
		GracePeriod: cfg.GracePeriod,
		LimitFor:    cfg.LimitFor,
	}
}

// Governor throttles, retries and classifies calls to exchanges
type Governor struct {
	retries int
	grace   time.Duration
	windows *ratelimit.WindowCollection
	clock   utils.Clock
	logger  logging.GovernorLogger
}

// New creates a Governor
func New(cfg Config, clock utils.Clock, logger logging.GovernorLogger) *Governor {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if logger == nil {
		logger = logging.Governor()
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.GracePeriod < 0 {
		cfg.GracePeriod = 0
	}

	limitFor := cfg.LimitFor
	if limitFor == nil {
		limitFor = ratelimit.FixedLimit(100, time.Second)
	}

	// Windows are keyed by identity but limits are configured per exchange
	byExchange := func(key string) (int, time.Duration) {
		exchange, _, _ := strings.Cut(key, "/")
		return limitFor(exchange)
	}

	return &Governor{
		retries: cfg.Retries,
		grace:   cfg.GracePeriod,
		windows: ratelimit.NewWindowCollection(byExchange, clock),
		clock:   clock,
		logger:  logger,
	}
}

// MaxAttempts is the number of times an operation may be invoked per Execute
func (g *Governor) MaxAttempts() int {
	return g.retries + 1
}

// Execute runs op under the identity's request window with bounded retries.
// Cancelling ctx does not interrupt an in-flight Execute; its values are kept.
func (g *Governor) Execute(ctx context.Context, id Identity, op Operation) Outcome {
	ctx = context.WithoutCancel(ctx)
	key := id.Key()
	exchange := strings.ToLower(id.Exchange)
	maxAttempts := g.MaxAttempts()

	attempts := 0
	value, err := retry.DoWithData(
		func() (interface{}, error) {
			attempts++
			g.throttle(ctx, key, exchange)
			g.logger.Attempt(ctx, key, attempts, maxAttempts)
			return op(ctx)
		},
		retry.Attempts(uint(maxAttempts)),
		retry.Delay(g.grace),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(func(err error) bool {
			return classify(err).retryable
		}),
		retry.OnRetry(func(n uint, err error) {
			// Also called after the last attempt, when no retry follows
			if int(n)+1 >= maxAttempts {
				return
			}
			g.logger.RetryScheduled(ctx, key, int(n)+1, g.grace, err)
			metrics.RecordGovernorRetry(exchange, CategoryOf(err).String())
		}),
		retry.LastErrorOnly(true),
		retry.WithTimer(g.clock),
		retry.Context(ctx),
	)

	if err == nil {
		metrics.RecordGovernorCall(exchange, "success", attempts)
		return Outcome{Value: value, Attempts: attempts, identity: key}
	}

	c := classify(err)
	if c.notFound {
		metrics.RecordGovernorCall(exchange, "not_found", attempts)
		return Outcome{Value: false, NotFound: true, Attempts: attempts, identity: key}
	}
	if !c.classified {
		g.logger.Unclassified(ctx, key, err)
	}

	g.logger.Terminal(ctx, key, c.kind.String(), attempts, err)
	metrics.RecordGovernorCall(exchange, c.kind.String(), attempts)

	return Outcome{
		Kind:     c.kind,
		Detail:   err.Error(),
		Cause:    err,
		Attempts: attempts,
		identity: key,
	}
}

// throttle blocks until the identity's window has room
func (g *Governor) throttle(ctx context.Context, key, exchange string) {
	if waited := g.windows.Acquire(key); waited > 0 {
		g.logger.Throttled(ctx, key, waited)
		metrics.RecordThrottleWait(exchange, waited.Seconds())
	}
}

// Windows returns the current state of every request window
func (g *Governor) Windows() map[string]ratelimit.WindowState {
	return g.windows.States()
}

// Do is a typed wrapper around Execute. found is false when the upstream
// reported the target as not found; err is the terminal failure, if any.
func Do[T any](ctx context.Context, g *Governor, id Identity, op func(ctx context.Context) (T, error)) (value T, found bool, err error) {
	outcome := g.Execute(ctx, id, func(ctx context.Context) (interface{}, error) {
		return op(ctx)
	})

	if err := outcome.Err(); err != nil {
		return value, false, err
	}
	if outcome.NotFound {
		return value, false, nil
	}

	value, _ = outcome.Value.(T)
	return value, true, nil
}
