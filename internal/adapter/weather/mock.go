// Package weather provides wind-speed signals: a random mock, a fixed reading
// for tests and demos, and an HTTP client for a real weather API.
package weather

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

// Random returns a uniformly distributed wind speed on every call. The
// default range straddles the stoppage threshold so both banners can be seen.
type Random struct {
	mu       sync.Mutex
	rng      *rand.Rand
	min, max float64
}

// NewRandom creates a Random signal in [2.0, 12.0) m/s.
func NewRandom(src rand.Source) *Random {
	return &Random{rng: rand.New(src), min: 2.0, max: 12.0}
}

func (r *Random) Current(_ context.Context) (domain.WindReading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.WindReading{SpeedMetersPerSecond: r.min + r.rng.Float64()*(r.max-r.min)}, nil
}

// Fixed always reports the same wind speed in m/s.
type Fixed float64

func (f Fixed) Current(_ context.Context) (domain.WindReading, error) {
	return domain.WindReading{SpeedMetersPerSecond: float64(f)}, nil
}
