// Package desk runs the safety workflow for every live session. It owns the
// session registry and turns form submissions into domain operations,
// archival calls, notices, logs and metrics.
package desk

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/site-safety-desk/internal/catalog"
	"github.com/couchcryptid/site-safety-desk/internal/domain"
	"github.com/couchcryptid/site-safety-desk/internal/observability"
)

// ErrSessionNotFound is returned for ids that were never opened or have expired.
var ErrSessionNotFound = errors.New("session not found")

// Deps are the collaborators a Desk is built from.
type Deps struct {
	Catalog    *catalog.Catalog
	Archive    domain.ArchivalGateway
	Weather    domain.WeatherSignal
	Clock      clockwork.Clock
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	SessionTTL time.Duration
}

// Desk is safe for concurrent use. Each session serializes its own actions.
type Desk struct {
	catalog *catalog.Catalog
	archive domain.ArchivalGateway // instrumented
	backend domain.ArchivalGateway
	weather domain.WeatherSignal
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	ttl     time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	session  *domain.Session
	notice   *Notice
	lastSeen time.Time // guarded by Desk.mu
}

// New creates a Desk. A nil Clock defaults to the real clock.
func New(deps Deps) *Desk {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Desk{
		catalog:  deps.Catalog,
		archive:  newInstrumentedGateway(deps.Archive, clock, deps.Logger, deps.Metrics),
		backend:  deps.Archive,
		weather:  deps.Weather,
		clock:    clock,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		ttl:      deps.SessionTTL,
		sessions: make(map[string]*entry),
	}
}

// Open returns id if it names a live session, otherwise it creates a new
// session and returns its id with created set. Expired sessions are swept
// on every call.
func (d *Desk) Open(id string) (sid string, created bool) {
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.sweepLocked(now)
	if e, ok := d.sessions[id]; ok {
		e.lastSeen = now
		return id, false
	}

	sid = uuid.NewString()
	d.sessions[sid] = &entry{
		session:  domain.NewSession(sid, now, d.catalog.Sites[0].ID),
		lastSeen: now,
	}
	d.metrics.ActiveSessions.Set(float64(len(d.sessions)))
	d.logger.Info("session opened", "session_id", sid)
	return sid, true
}

// CheckReadiness reports whether the archive backend is reachable, for
// backends that can tell.
func (d *Desk) CheckReadiness(ctx context.Context) error {
	p, ok := d.backend.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

func (d *Desk) sweepLocked(now time.Time) {
	swept := 0
	for id, e := range d.sessions {
		if d.expired(e, now) {
			delete(d.sessions, id)
			swept++
		}
	}
	if swept > 0 {
		d.metrics.ActiveSessions.Set(float64(len(d.sessions)))
		d.logger.Debug("expired sessions swept", "count", swept)
	}
}

func (d *Desk) expired(e *entry, now time.Time) bool {
	return d.ttl > 0 && now.Sub(e.lastSeen) > d.ttl
}

// with runs fn holding the session's lock.
func (d *Desk) with(id string, fn func(*entry) error) error {
	now := d.clock.Now()

	d.mu.Lock()
	e, ok := d.sessions[id]
	if ok && d.expired(e, now) {
		delete(d.sessions, id)
		d.metrics.ActiveSessions.Set(float64(len(d.sessions)))
		ok = false
	}
	if ok {
		e.lastSeen = now
	}
	d.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e)
}
