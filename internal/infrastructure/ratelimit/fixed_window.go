package ratelimit

import (
	"sync"
	"time"

	"exapi-service/pkg/utils"
)

// RateWindow implements a fixed-window request counter.
// At most limit requests are admitted per window; the window restarts the
// first time a request arrives at or after windowEnd.
type RateWindow struct {
	mu        sync.Mutex
	limit     int           // Maximum requests per window
	interval  time.Duration // Window length
	count     int           // Requests admitted in the current window
	windowEnd time.Time     // Zero until the first request
	clock     utils.Clock
}

// WindowState is a point-in-time copy of a window's counters
type WindowState struct {
	Limit     int
	Interval  time.Duration
	Count     int
	WindowEnd time.Time
}

// NewRateWindow creates a window admitting limit requests per interval
func NewRateWindow(limit int, interval time.Duration, clock utils.Clock) *RateWindow {
	if limit < 1 {
		limit = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}

	return &RateWindow{
		limit:    limit,
		interval: interval,
		clock:    clock,
	}
}

// Acquire claims a slot in the current window, blocking until the window
// ends when it is already full. It returns how long the caller waited.
// The window stays locked while waiting so callers are admitted in order.
func (w *RateWindow) Acquire() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	w.resetIfExpired(now)

	var waited time.Duration
	if w.count >= w.limit {
		waited = w.windowEnd.Sub(now)
		if waited > 0 {
			<-w.clock.After(waited)
		}
		w.reset(w.clock.Now())
	}

	w.count++
	return waited
}

// Allow claims a slot only if one is free, never blocking
func (w *RateWindow) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.resetIfExpired(w.clock.Now())
	if w.count >= w.limit {
		return false
	}

	w.count++
	return true
}

// Remaining returns the free slots left in the current window
func (w *RateWindow) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.resetIfExpired(w.clock.Now())
	return w.limit - w.count
}

// RetryAfter returns the time left until the current window ends
func (w *RateWindow) RetryAfter() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := w.windowEnd.Sub(w.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

// State returns a copy of the window counters
func (w *RateWindow) State() WindowState {
	w.mu.Lock()
	defer w.mu.Unlock()

	return WindowState{
		Limit:     w.limit,
		Interval:  w.interval,
		Count:     w.count,
		WindowEnd: w.windowEnd,
	}
}

// resetIfExpired must be called with lock held
func (w *RateWindow) resetIfExpired(now time.Time) {
	if !now.Before(w.windowEnd) {
		w.reset(now)
	}
}

// reset must be called with lock held
func (w *RateWindow) reset(now time.Time) {
	w.windowEnd = now.Add(w.interval)
	w.count = 0
}

// LimitFunc resolves the limit and interval for a key
type LimitFunc func(key string) (limit int, interval time.Duration)

// WindowCollection manages one RateWindow per key.
// Windows are created on first use and live for the life of the process.
type WindowCollection struct {
	mu       sync.RWMutex
	windows  map[string]*RateWindow
	limitFor LimitFunc
	clock    utils.Clock
}

// NewWindowCollection creates an empty collection
func NewWindowCollection(limitFor LimitFunc, clock utils.Clock) *WindowCollection {
	if clock == nil {
		clock = utils.SystemClock{}
	}

	return &WindowCollection{
		windows:  make(map[string]*RateWindow),
		limitFor: limitFor,
		clock:    clock,
	}
}

// Get returns the window for key, creating it if needed
func (wc *WindowCollection) Get(key string) *RateWindow {
	// Try read lock first for better performance
	wc.mu.RLock()
	window, exists := wc.windows[key]
	wc.mu.RUnlock()

	if exists {
		return window
	}

	wc.mu.Lock()
	defer wc.mu.Unlock()

	// Double-check pattern - another goroutine might have created it
	if window, exists := wc.windows[key]; exists {
		return window
	}

	limit, interval := wc.limitFor(key)
	window = NewRateWindow(limit, interval, wc.clock)
	wc.windows[key] = window

	return window
}

// Acquire blocks until key has a free slot
func (wc *WindowCollection) Acquire(key string) time.Duration {
	return wc.Get(key).Acquire()
}

// Allow claims a slot for key without blocking
func (wc *WindowCollection) Allow(key string) bool {
	return wc.Get(key).Allow()
}

// Len returns the number of tracked keys
func (wc *WindowCollection) Len() int {
	wc.mu.RLock()
	defer wc.mu.RUnlock()
	return len(wc.windows)
}

// States returns a snapshot of every tracked window
func (wc *WindowCollection) States() map[string]WindowState {
	wc.mu.RLock()
	windows := make(map[string]*RateWindow, len(wc.windows))
	for key, window := range wc.windows {
		windows[key] = window
	}
	wc.mu.RUnlock()

	states := make(map[string]WindowState, len(windows))
	for key, window := range windows {
		states[key] = window.State()
	}
	return states
}

// FixedLimit returns a LimitFunc that applies the same limit to every key
func FixedLimit(limit int, interval time.Duration) LimitFunc {
	return func(string) (int, time.Duration) {
		return limit, interval
	}
}
