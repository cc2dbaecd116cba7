package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/site-safety-desk/internal/adapter/archive"
	httpadapter "github.com/couchcryptid/site-safety-desk/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/site-safety-desk/internal/adapter/kafka"
	"github.com/couchcryptid/site-safety-desk/internal/adapter/weather"
	"github.com/couchcryptid/site-safety-desk/internal/adapter/web"
	"github.com/couchcryptid/site-safety-desk/internal/catalog"
	"github.com/couchcryptid/site-safety-desk/internal/config"
	"github.com/couchcryptid/site-safety-desk/internal/desk"
	"github.com/couchcryptid/site-safety-desk/internal/domain"
	"github.com/couchcryptid/site-safety-desk/internal/observability"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	logger.Info("catalog loaded", "sites", len(cat.Sites), "work_types", len(cat.WorkTypes))

	gateway, closer, err := newArchive(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize archive", "backend", cfg.ArchiveBackend, "error", err)
		os.Exit(1)
	}

	d := desk.New(desk.Deps{
		Catalog:    cat,
		Archive:    gateway,
		Weather:    newWeather(cfg, clock, logger),
		Clock:      clock,
		Logger:     logger,
		Metrics:    metrics,
		SessionTTL: cfg.SessionTTL,
	})

	if cfg.SessionKey == "" {
		logger.Warn("SESSION_KEY not set, using a random key; sessions will not survive a restart")
	}
	app, err := web.NewHandler(d, web.Options{
		SessionKey:     []byte(cfg.SessionKey),
		SessionTTL:     cfg.SessionTTL,
		CookieSecure:   cfg.CookieSecure,
		CSRFKey:        []byte(cfg.CSRFKey),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logger)
	if err != nil {
		logger.Error("failed to build web handler", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, d, app, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			logger.Error("archive close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newArchive selects the archival backend. The returned closer is nil for
// backends that hold no connections.
func newArchive(cfg *config.Config, logger *slog.Logger) (domain.ArchivalGateway, io.Closer, error) {
	switch cfg.ArchiveBackend {
	case config.ArchiveNAS:
		nas, err := archive.NewNAS(cfg.NASRoot, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("archiving to NAS", "root", cfg.NASRoot)
		return nas, nil, nil
	case config.ArchiveKafka:
		gw := kafkaadapter.NewGateway(cfg, logger)
		logger.Info("archiving to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaArchiveTopic)
		return gw, gw, nil
	default:
		logger.Info("archiving to memory")
		return archive.NewMemory(), nil, nil
	}
}

func newWeather(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) domain.WeatherSignal {
	if cfg.WeatherBackend == config.WeatherAPI {
		client := weather.NewClient(cfg.WeatherAPIURL, cfg.WeatherAPIKey, cfg.WeatherLat, cfg.WeatherLon, cfg.WeatherTimeout, logger)
		logger.Info("wind readings from api", "cache_ttl", cfg.WeatherCacheTTL, "timeout", cfg.WeatherTimeout)
		return weather.NewCachedSignal(client, cfg.WeatherCacheTTL, clock)
	}
	logger.Info("wind readings simulated")
	seed := uint64(time.Now().UnixNano())
	return weather.NewRandom(rand.NewPCG(seed, seed>>32))
}
