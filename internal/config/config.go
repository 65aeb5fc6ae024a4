package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MatchPolicy selects how special requirements are compared against a
// driver's accessibility features.
type MatchPolicy string

const (
	// MatchAny assigns a driver carrying at least one requested feature.
	// This mirrors the behavior shipped to production today.
	MatchAny MatchPolicy = "any"
	// MatchAll requires every requested feature to be present.
	MatchAll MatchPolicy = "all"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string

	KafkaBrokers []string
	KafkaTopic   string

	PGDSN string

	MatchPolicy        MatchPolicy
	ArrivalLeadTime    time.Duration
	DefaultSpeedMps    float64
	NearbyRadiusMeters float64

	OSRMEndpoint string
	PushEndpoint string
	FCMEndpoint  string
	FCMKey       string

	StripeAPIKey string
	FareCurrency string

	AuthSecret string

	SeedDrivers bool

	LogLevel      string
	RunMigrations bool
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:           ":8080",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        120 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		RedisGeoKey:        "drivers_geo",
		KafkaTopic:         "driver-locations",
		MatchPolicy:        MatchAny,
		ArrivalLeadTime:    15 * time.Minute,
		DefaultSpeedMps:    10,
		NearbyRadiusMeters: 5000,
		FareCurrency:       "usd",
		LogLevel:           "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("MATCH_POLICY"))); v != "" {
		switch MatchPolicy(v) {
		case MatchAny, MatchAll:
			cfg.MatchPolicy = MatchPolicy(v)
		default:
			errs = append(errs, fmt.Errorf("invalid MATCH_POLICY: %q", v))
		}
	}
	setDurationFromEnv(&cfg.ArrivalLeadTime, "ARRIVAL_LEAD_TIME", &errs)
	setFloatFromEnv(&cfg.DefaultSpeedMps, "MATCHER_DEFAULT_SPEED_MPS", &errs)
	setFloatFromEnv(&cfg.NearbyRadiusMeters, "NEARBY_RADIUS_METERS", &errs)

	setStringFromEnv(&cfg.OSRMEndpoint, "OSRM_ENDPOINT")
	setStringFromEnv(&cfg.PushEndpoint, "PUSH_ENDPOINT")
	setStringFromEnv(&cfg.FCMEndpoint, "FCM_ENDPOINT")
	cfg.FCMKey = os.Getenv("FCM_KEY")

	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")
	setStringFromEnv(&cfg.FareCurrency, "FARE_CURRENCY")

	cfg.AuthSecret = os.Getenv("AUTH_JWT_SECRET")

	cfg.SeedDrivers = strings.EqualFold(os.Getenv("SEED_DRIVERS"), "true")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	if cfg.ArrivalLeadTime <= 0 {
		errs = append(errs, fmt.Errorf("ARRIVAL_LEAD_TIME must be > 0"))
	}
	if cfg.NearbyRadiusMeters <= 0 {
		errs = append(errs, fmt.Errorf("NEARBY_RADIUS_METERS must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
