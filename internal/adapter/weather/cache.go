package weather

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

// CachedSignal wraps a WeatherSignal and reuses the last good reading for ttl.
type CachedSignal struct {
	inner domain.WeatherSignal
	ttl   time.Duration
	clock clockwork.Clock

	mu        sync.Mutex
	reading   domain.WindReading
	fetchedAt time.Time
	valid     bool
}

// NewCachedSignal creates a cache decorator around a weather signal.
func NewCachedSignal(inner domain.WeatherSignal, ttl time.Duration, clock clockwork.Clock) *CachedSignal {
	return &CachedSignal{
		inner: inner,
		ttl:   ttl,
		clock: clock,
	}
}

func (c *CachedSignal) Current(ctx context.Context) (domain.WindReading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.valid && now.Sub(c.fetchedAt) < c.ttl {
		return c.reading, nil
	}

	reading, err := c.inner.Current(ctx)
	if err != nil {
		// Errors are not cached so the next page load retries.
		return reading, err
	}
	c.reading = reading
	c.fetchedAt = now
	c.valid = true
	return reading, nil
}
