package governor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"exapi-service/internal/infrastructure/logging"
	"exapi-service/internal/infrastructure/ratelimit"
	"exapi-service/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const grace = 5 * time.Second

func newTestGovernor(retries int, limit ratelimit.LimitFunc) (*Governor, *utils.FakeClock) {
	clock := utils.NewFakeClock(epoch)
	if limit == nil {
		limit = ratelimit.FixedLimit(1000, time.Second)
	}
	g := New(Config{Retries: retries, GracePeriod: grace, LimitFor: limit}, clock, logging.NewGovernorLogger(logging.NewDiscardLogger()))
	return g, clock
}

// scripted returns an operation that fails with errs in order and then succeeds
func scripted(calls *int32, value interface{}, errs ...error) Operation {
	return func(ctx context.Context) (interface{}, error) {
		n := int(atomic.AddInt32(calls, 1))
		if n <= len(errs) && errs[n-1] != nil {
			return nil, errs[n-1]
		}
		return value, nil
	}
}

func transient() error {
	return NewCallError(CategoryNetworkError, errors.New("connection reset"))
}

var kraken = Identity{Exchange: "kraken"}

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	g, clock := newTestGovernor(3, nil)
	var calls int32

	outcome := g.Execute(context.Background(), kraken, scripted(&calls, "book"))

	assert.True(t, outcome.OK())
	assert.False(t, outcome.NotFound)
	assert.Equal(t, "book", outcome.Value)
	assert.Equal(t, 1, outcome.Attempts)
	assert.NoError(t, outcome.Err())
	assert.Empty(t, clock.Sleeps())
}

func TestExecute_RetriesTransientFailures(t *testing.T) {
	g, clock := newTestGovernor(3, nil)
	var calls int32

	outcome := g.Execute(context.Background(), kraken, scripted(&calls, 42, transient(), transient(), transient()))

	require.True(t, outcome.OK())
	assert.Equal(t, 42, outcome.Value)
	assert.Equal(t, 4, outcome.Attempts)
	assert.Equal(t, []time.Duration{grace, grace, grace}, clock.Sleeps())
}

func TestExecute_ExhaustedRetriesAreServiceUnavailable(t *testing.T) {
	g, clock := newTestGovernor(3, nil)
	var calls int32

	outcome := g.Execute(context.Background(), kraken, scripted(&calls, nil,
		transient(), transient(), transient(), transient(), transient()))

	assert.False(t, outcome.OK())
	assert.Equal(t, KindServiceUnavailable, outcome.Kind)
	assert.Equal(t, 4, outcome.Attempts)
	assert.Equal(t, int32(4), calls)
	// No grace sleep after the last attempt
	assert.Equal(t, 3*grace, clock.TotalSlept())

	var terminal *TerminalError
	require.ErrorAs(t, outcome.Err(), &terminal)
	assert.Equal(t, "kraken", terminal.Identity)
	assert.Equal(t, CategoryNetworkError, CategoryOf(outcome.Err()))
}

func TestExecute_Classification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      Kind
		notFound  bool
		attempts  int
		sleptTime time.Duration
	}{
		{"orden no encontrada", NewCallError(CategoryOrderNotFound, errors.New("unknown order")), KindNone, true, 1, 0},
		{"orden inválida", NewCallError(CategoryInvalidOrder, errors.New("bad volume")), KindInvalidRequest, false, 1, 0},
		{"autenticación", NewCallError(CategoryAuthentication, errors.New("invalid key")), KindAuthenticationFailed, false, 1, 0},
		{"permiso denegado", NewCallError(CategoryPermissionDenied, errors.New("denied")), KindPermissionDenied, false, 1, 0},
		{"nonce inválido", NewCallError(CategoryInvalidNonce, errors.New("nonce")), KindRateLimited, false, 1, 0},
		{"error del exchange", NewCallError(CategoryExchangeError, errors.New("unknown pair")), KindExchangeRejected, false, 1, 0},
		{"desconexión remota", NewCallError(CategoryRemoteDisconnected, errors.New("eof")), KindServiceUnavailable, false, 4, 3 * grace},
		{"exchange no disponible", NewCallError(CategoryExchangeNotAvailable, errors.New("busy")), KindServiceUnavailable, false, 4, 3 * grace},
		{"servicio no disponible", NewCallError(CategoryServiceUnavailable, errors.New("502")), KindServiceUnavailable, false, 4, 3 * grace},
		{"error sin clasificar", errors.New("weird"), KindServiceUnavailable, false, 1, 0},
		{"categoría envuelta", fmt.Errorf("depth: %w", NewCallError(CategoryAuthentication, errors.New("x"))), KindAuthenticationFailed, false, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, clock := newTestGovernor(3, nil)
			op := func(ctx context.Context) (interface{}, error) { return nil, tt.err }

			outcome := g.Execute(context.Background(), kraken, op)

			assert.Equal(t, tt.kind, outcome.Kind)
			assert.Equal(t, tt.notFound, outcome.NotFound)
			assert.Equal(t, tt.attempts, outcome.Attempts)
			assert.Equal(t, tt.sleptTime, clock.TotalSlept())
			if tt.notFound {
				assert.Equal(t, false, outcome.Value)
				assert.NoError(t, outcome.Err())
			}
		})
	}
}

func TestExecute_ThrottlesPerIdentity(t *testing.T) {
	g, clock := newTestGovernor(0, ratelimit.FixedLimit(2, time.Second))
	var calls int32
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, g.Execute(ctx, kraken, scripted(&calls, i)).OK())
	}
	assert.Equal(t, []time.Duration{time.Second}, clock.Sleeps())

	// A different identity has its own window
	require.True(t, g.Execute(ctx, Identity{Exchange: "kraken", Account: "alt"}, scripted(&calls, 0)).OK())
	assert.Len(t, clock.Sleeps(), 1)
	assert.Len(t, g.Windows(), 2)
}

func TestExecute_ThrottleAppliesToEveryAttempt(t *testing.T) {
	clock := utils.NewFakeClock(epoch)
	g := New(Config{Retries: 2, GracePeriod: 0, LimitFor: ratelimit.FixedLimit(1, 10*time.Second)},
		clock, logging.NewGovernorLogger(logging.NewDiscardLogger()))
	var calls int32

	outcome := g.Execute(context.Background(), kraken, scripted(&calls, "ok", transient(), transient()))

	require.True(t, outcome.OK())
	assert.Equal(t, 3, outcome.Attempts)
	// Each retry waits for a fresh window since only one call fits per window
	assert.Equal(t, 20*time.Second, clock.TotalSlept())
}

func TestExecute_PerExchangeLimits(t *testing.T) {
	limits := func(exchange string) (int, time.Duration) {
		if exchange == "coincap" {
			return 1, time.Minute
		}
		return 100, time.Second
	}
	g, clock := newTestGovernor(0, limits)
	var calls int32
	ctx := context.Background()

	g.Execute(ctx, Identity{Exchange: "CoinCap"}, scripted(&calls, 1))
	g.Execute(ctx, Identity{Exchange: "coincap", Account: "a"}, scripted(&calls, 1))
	g.Execute(ctx, Identity{Exchange: "coincap"}, scripted(&calls, 1))

	assert.Equal(t, []time.Duration{time.Minute}, clock.Sleeps())
	assert.Equal(t, 1, g.Windows()["coincap/a"].Limit)
}

func TestExecute_IgnoresCallerCancellation(t *testing.T) {
	g, _ := newTestGovernor(3, nil)
	ctx, cancel := context.WithCancel(logging.WithRequestID(context.Background(), "req_1"))
	cancel()

	var seen []string
	var calls int32
	op := func(ctx context.Context) (interface{}, error) {
		seen = append(seen, logging.GetRequestID(ctx))
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, transient()
		}
		return "done", ctx.Err()
	}

	outcome := g.Execute(ctx, kraken, op)

	require.True(t, outcome.OK())
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, []string{"req_1", "req_1", "req_1"}, seen)
}

func TestExecute_ConcurrentCallersShareWindow(t *testing.T) {
	g, clock := newTestGovernor(0, ratelimit.FixedLimit(5, time.Second))
	var calls int32

	const callers = 20
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, g.Execute(context.Background(), kraken, scripted(&calls, 1)).OK())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(callers), calls)
	// 20 calls at 5 per window need three window resets
	assert.Len(t, clock.Sleeps(), 3)
}

func TestDo_Typed(t *testing.T) {
	g, _ := newTestGovernor(3, nil)
	ctx := context.Background()

	value, found, err := Do(ctx, g, kraken, func(ctx context.Context) (string, error) {
		return "mid", nil
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "mid", value)

	_, found, err = Do(ctx, g, kraken, func(ctx context.Context) (string, error) {
		return "", NewCallError(CategoryOrderNotFound, errors.New("gone"))
	})
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = Do(ctx, g, kraken, func(ctx context.Context) (int, error) {
		return 0, Errorf(CategoryPermissionDenied, "no access to %s", "depth")
	})
	require.Error(t, err)
	assert.Equal(t, KindPermissionDenied, KindOf(err))
	assert.Contains(t, err.Error(), "no access to depth")
}

func TestKind_HTTPStatus(t *testing.T) {
	assert.Equal(t, 400, KindInvalidRequest.HTTPStatus())
	assert.Equal(t, 403, KindAuthenticationFailed.HTTPStatus())
	assert.Equal(t, 403, KindPermissionDenied.HTTPStatus())
	assert.Equal(t, 503, KindRateLimited.HTTPStatus())
	assert.Equal(t, 503, KindServiceUnavailable.HTTPStatus())
	assert.Equal(t, 404, KindExchangeRejected.HTTPStatus())
	assert.Equal(t, 404, KindNotFound.HTTPStatus())
	assert.Equal(t, KindServiceUnavailable, KindOf(errors.New("plain")))
	assert.Equal(t, KindNone, KindOf(nil))
}

// TestExecute_MatchesRetryModel drives Execute with random upstream
// behaviour and compares the outcome against a direct model of the loop.
func TestExecute_MatchesRetryModel(t *testing.T) {
	categories := []Category{
		CategoryUnknown, // success marker
		CategoryOrderNotFound,
		CategoryInvalidOrder,
		CategoryAuthentication,
		CategoryInvalidNonce,
		CategoryExchangeError,
		CategoryNetworkError,
		CategoryServiceUnavailable,
	}

	rapid.Check(t, func(rt *rapid.T) {
		retries := rapid.IntRange(0, 4).Draw(rt, "retries")
		script := rapid.SliceOfN(rapid.SampledFrom(categories), retries+1, retries+1).Draw(rt, "script")

		clock := utils.NewFakeClock(epoch)
		g := New(Config{Retries: retries, GracePeriod: grace, LimitFor: ratelimit.FixedLimit(1000, time.Hour)},
			clock, logging.NewGovernorLogger(logging.NewDiscardLogger()))

		var calls int
		outcome := g.Execute(context.Background(), kraken, func(ctx context.Context) (interface{}, error) {
			c := script[calls]
			calls++
			if c == CategoryUnknown {
				return "ok", nil
			}
			return nil, NewCallError(c, errors.New("scripted"))
		})

		// Model
		wantAttempts, wantKind, wantNotFound := 0, KindNone, false
		for i, c := range script {
			wantAttempts = i + 1
			if c == CategoryUnknown {
				wantKind = KindNone
				break
			}
			cl := classify(NewCallError(c, nil))
			if !cl.retryable {
				wantKind, wantNotFound = cl.kind, cl.notFound
				break
			}
			wantKind = KindServiceUnavailable
		}

		if outcome.Attempts != wantAttempts || outcome.Kind != wantKind || outcome.NotFound != wantNotFound {
			rt.Fatalf("script %v: got attempts=%d kind=%s notFound=%v, want %d %s %v",
				script, outcome.Attempts, outcome.Kind, outcome.NotFound, wantAttempts, wantKind, wantNotFound)
		}
		if outcome.Attempts > retries+1 {
			rt.Fatalf("attempts %d exceed limit %d", outcome.Attempts, retries+1)
		}
		if got, want := clock.TotalSlept(), time.Duration(wantAttempts-1)*grace; got != want {
			rt.Fatalf("slept %v, want %v", got, want)
		}
	})
}
