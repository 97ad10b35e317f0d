package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8082" {
		t.Errorf("Port = %q, want 8082", cfg.Port)
	}
	if cfg.CacheTTL != 5*time.Second {
		t.Errorf("CacheTTL = %v, want 5s", cfg.CacheTTL)
	}
	if cfg.AMQPQueue != "notifications" {
		t.Errorf("AMQPQueue = %q, want notifications", cfg.AMQPQueue)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "10s")
	t.Setenv("JOB_CONCURRENCY", "4")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.CacheTTL != 10*time.Second {
		t.Errorf("CacheTTL = %v, want 10s", cfg.CacheTTL)
	}
	if cfg.JobConcurrency != 4 {
		t.Errorf("JobConcurrency = %d, want 4", cfg.JobConcurrency)
	}
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		cfg := Load()
		cfg.SQLiteDBPath = t.TempDir() + "/pennywise.db"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := Load()
		cfg.Port = "not-a-port"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "invalid port") {
			t.Errorf("error = %v, want invalid port", err)
		}
	})

	t.Run("bad AMQP scheme", func(t *testing.T) {
		cfg := Load()
		cfg.SQLiteDBPath = t.TempDir() + "/pennywise.db"
		cfg.AMQPURL = "http://localhost:5672/"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "AMQP URL scheme") {
			t.Errorf("error = %v, want AMQP scheme error", err)
		}
	})

	t.Run("multiple errors collected", func(t *testing.T) {
		cfg := Load()
		cfg.SQLiteDBPath = t.TempDir() + "/pennywise.db"
		cfg.Port = "0"
		cfg.CacheTTL = 0
		cfg.JobConcurrency = 0
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error")
		}
		for _, want := range []string{"port", "cache TTL", "concurrency"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q missing %q", err.Error(), want)
			}
		}
	})
}
