package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.StorageMode != "memory" {
		t.Errorf("StorageMode = %q, want memory", cfg.StorageMode)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %s, want 24h", cfg.SessionTTL)
	}
	if cfg.IdempotencyTTL != 168*time.Hour {
		t.Errorf("IdempotencyTTL = %s, want 168h", cfg.IdempotencyTTL)
	}
	if cfg.OutboxPollInterval != 500*time.Millisecond {
		t.Errorf("OutboxPollInterval = %s, want 500ms", cfg.OutboxPollInterval)
	}
	if len(cfg.RetryBackoff) != 3 || cfg.RetryBackoff[0] != time.Second || cfg.RetryBackoff[2] != 30*time.Second {
		t.Errorf("RetryBackoff = %v, want [1s 5s 30s]", cfg.RetryBackoff)
	}
	if cfg.RateLimitPerSec != 20 || cfg.RateLimitBurst != 40 {
		t.Errorf("rate limit = %v/%v, want 20/40", cfg.RateLimitPerSec, cfg.RateLimitBurst)
	}
}

func TestLoadValidatesStorageMode(t *testing.T) {
	t.Setenv("STORAGE_MODE", "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("unknown storage mode must fail")
	}

	t.Setenv("STORAGE_MODE", "mongo")
	t.Setenv("MONGO_URI", "")
	if _, err := Load(); err == nil {
		t.Fatal("mongo mode without MONGO_URI must fail")
	}

	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MongoDB != "staybook" {
		t.Errorf("MongoDB = %q, want staybook", cfg.MongoDB)
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("RETRY_BACKOFF", "2s, 10s")
	t.Setenv("RATE_LIMIT_PER_SEC", "5.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Errorf("SessionTTL = %s, want 90m", cfg.SessionTTL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if len(cfg.RetryBackoff) != 2 || cfg.RetryBackoff[1] != 10*time.Second {
		t.Errorf("RetryBackoff = %v, want [2s 10s]", cfg.RetryBackoff)
	}
	if cfg.RateLimitPerSec != 5.5 {
		t.Errorf("RateLimitPerSec = %v, want 5.5", cfg.RateLimitPerSec)
	}

	t.Setenv("SESSION_TTL", "never")
	if _, err := Load(); err == nil {
		t.Fatal("invalid duration must fail")
	}
}
