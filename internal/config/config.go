package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Archive backends.
const (
	ArchiveMemory = "memory"
	ArchiveNAS    = "nas"
	ArchiveKafka  = "kafka"
)

// Weather backends.
const (
	WeatherRandom = "random"
	WeatherAPI    = "api"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Sessions and forms.
	SessionKey     string
	SessionTTL     time.Duration
	CookieSecure   bool
	CSRFKey        string
	MaxUploadBytes int64
	CatalogPath    string

	// Archival storage.
	ArchiveBackend    string
	NASRoot           string
	KafkaBrokers      []string
	KafkaArchiveTopic string

	// Wind readings.
	WeatherBackend  string
	WeatherAPIURL   string
	WeatherAPIKey   string
	WeatherLat      float64
	WeatherLon      float64
	WeatherTimeout  time.Duration
	WeatherCacheTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sessionTTL, err := parsePositiveDuration("SESSION_TTL", "12h")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	weatherCacheTTL, err := parsePositiveDuration("WEATHER_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}

	maxUpload, err := strconv.ParseInt(sharedcfg.EnvOrDefault("MAX_UPLOAD_BYTES", "10485760"), 10, 64)
	if err != nil || maxUpload <= 0 {
		return nil, errors.New("invalid MAX_UPLOAD_BYTES")
	}

	lat, err := parseFloat("WEATHER_LAT", "37.0080", -90, 90)
	if err != nil {
		return nil, err
	}
	lon, err := parseFloat("WEATHER_LON", "127.2797", -180, 180)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SessionKey:     os.Getenv("SESSION_KEY"),
		SessionTTL:     sessionTTL,
		CookieSecure:   os.Getenv("COOKIE_SECURE") == "true",
		CSRFKey:        os.Getenv("CSRF_KEY"),
		MaxUploadBytes: maxUpload,
		CatalogPath:    os.Getenv("CATALOG_PATH"),

		ArchiveBackend:    sharedcfg.EnvOrDefault("ARCHIVE_BACKEND", ArchiveMemory),
		NASRoot:           sharedcfg.EnvOrDefault("NAS_ROOT", "./nas/Safety_Data"),
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaArchiveTopic: sharedcfg.EnvOrDefault("KAFKA_ARCHIVE_TOPIC", "safety-archive"),

		WeatherBackend:  sharedcfg.EnvOrDefault("WEATHER_BACKEND", WeatherRandom),
		WeatherAPIURL:   sharedcfg.EnvOrDefault("WEATHER_API_URL", "https://api.openweathermap.org/data/2.5/weather"),
		WeatherAPIKey:   os.Getenv("WEATHER_API_KEY"),
		WeatherLat:      lat,
		WeatherLon:      lon,
		WeatherTimeout:  weatherTimeout,
		WeatherCacheTTL: weatherCacheTTL,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionKey != "" && len(c.SessionKey) < 32 {
		return errors.New("SESSION_KEY must be at least 32 bytes")
	}
	if c.CSRFKey != "" && len(c.CSRFKey) != 32 {
		return errors.New("CSRF_KEY must be exactly 32 bytes")
	}

	switch c.ArchiveBackend {
	case ArchiveMemory:
	case ArchiveNAS:
		if c.NASRoot == "" {
			return errors.New("NAS_ROOT is required when ARCHIVE_BACKEND is nas")
		}
	case ArchiveKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when ARCHIVE_BACKEND is kafka")
		}
		if c.KafkaArchiveTopic == "" {
			return errors.New("KAFKA_ARCHIVE_TOPIC is required when ARCHIVE_BACKEND is kafka")
		}
	default:
		return fmt.Errorf("invalid ARCHIVE_BACKEND %q", c.ArchiveBackend)
	}

	switch c.WeatherBackend {
	case WeatherRandom:
	case WeatherAPI:
		if c.WeatherAPIKey == "" {
			return errors.New("WEATHER_BACKEND is api but WEATHER_API_KEY is not set")
		}
	default:
		return fmt.Errorf("invalid WEATHER_BACKEND %q", c.WeatherBackend)
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string, lo, hi float64) (float64, error) {
	f, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || f < lo || f > hi {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}
