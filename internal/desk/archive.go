package desk

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/site-safety-desk/internal/domain"
	"github.com/couchcryptid/site-safety-desk/internal/observability"
)

// instrumentedGateway records call outcomes and latency around a gateway.
type instrumentedGateway struct {
	inner   domain.ArchivalGateway
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

func newInstrumentedGateway(inner domain.ArchivalGateway, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *instrumentedGateway {
	return &instrumentedGateway{inner: inner, clock: clock, logger: logger, metrics: metrics}
}

func (g *instrumentedGateway) Record(ctx context.Context, entry domain.Entry) error {
	start := g.clock.Now()
	err := g.inner.Record(ctx, entry)
	g.metrics.ArchiveDuration.Observe(g.clock.Since(start).Seconds())

	if err != nil {
		g.metrics.ArchiveRecords.WithLabelValues(entry.Category, "error").Inc()
		g.logger.Error("archive record failed",
			"site", entry.Site,
			"category", entry.Category,
			"error", err,
		)
		return err
	}
	g.metrics.ArchiveRecords.WithLabelValues(entry.Category, "success").Inc()
	g.logger.Info("archived", "path", entry.Path(), "category", entry.Category, "attachment", entry.Attachment != nil)
	return nil
}
