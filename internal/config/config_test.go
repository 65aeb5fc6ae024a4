package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected error with empty env: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.HTTPAddr)
	}
	if cfg.MatchPolicy != MatchAny {
		t.Fatalf("expected any-match default, got %s", cfg.MatchPolicy)
	}
	if cfg.ArrivalLeadTime != 15*time.Minute {
		t.Fatalf("expected 15m lead time, got %s", cfg.ArrivalLeadTime)
	}
	if cfg.NearbyRadiusMeters != 5000 {
		t.Fatalf("expected 5000m radius, got %f", cfg.NearbyRadiusMeters)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MATCH_POLICY", "all")
	t.Setenv("ARRIVAL_LEAD_TIME", "20m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MatchPolicy != MatchAll {
		t.Fatalf("expected all-match, got %s", cfg.MatchPolicy)
	}
	if cfg.ArrivalLeadTime != 20*time.Minute {
		t.Fatalf("expected 20m, got %s", cfg.ArrivalLeadTime)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("broker list not trimmed: %v", cfg.KafkaBrokers)
	}
}

func TestInvalidValuesReported(t *testing.T) {
	t.Setenv("MATCH_POLICY", "some")
	t.Setenv("HTTP_READ_TIMEOUT", "soon")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatal("expected joined errors for invalid env values")
	}
}
