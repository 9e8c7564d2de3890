package utils

import (
	"sync"
	"time"
)

// Clock abstrae el tiempo para poder controlar esperas y expiraciones en tests.
// After tiene la misma firma que retry.Timer, por lo que un Clock se puede
// pasar directamente a retry.WithTimer.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock usa el reloj real del proceso
type SystemClock struct{}

// Now retorna la hora actual
func (SystemClock) Now() time.Time {
	return time.Now()
}

// After espera d en tiempo real
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// IsTimestampStale checks if a timestamp is older than maxAge at instant now
func IsTimestampStale(now, timestamp time.Time, maxAge time.Duration) bool {
	return now.Sub(timestamp) > maxAge
}

// FakeClock es un reloj manual que avanza solo cuando alguien duerme sobre él.
// Cada llamada a After avanza el reloj en d y devuelve un canal ya disparado,
// de modo que las esperas son instantáneas y quedan registradas.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewFakeClock crea un reloj manual que empieza en start
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now retorna la hora simulada
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After avanza el reloj en d y retorna un canal listo para leer
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d > 0 {
		c.now = c.now.Add(d)
	}
	c.sleeps = append(c.sleeps, d)

	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// Advance mueve el reloj hacia adelante sin registrar una espera
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sleeps retorna una copia de las esperas registradas
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// TotalSlept suma todas las esperas registradas
func (c *FakeClock) TotalSlept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total time.Duration
	for _, d := range c.sleeps {
		total += d
	}
	return total
}
