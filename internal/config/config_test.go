package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if want := []string{"http://gateway:3000/broadcast", "http://localhost:3000/broadcast"}; !reflect.DeepEqual(cfg.Gateway.Endpoints, want) {
		t.Fatalf("endpoints = %v, want %v", cfg.Gateway.Endpoints, want)
	}
	if cfg.Gateway.AttemptTimeout != 5*time.Second || cfg.Gateway.DeliveryBudget != 10*time.Second {
		t.Fatalf("unexpected gateway timeouts %+v", cfg.Gateway)
	}
	if cfg.Gateway.HedgeDelay != 0 {
		t.Fatalf("hedging must be off by default")
	}
	if cfg.Gateway.BreakerFailures != 0 {
		t.Fatalf("breakers must be opt-in, got threshold %d", cfg.Gateway.BreakerFailures)
	}
	if cfg.Tenant.DefaultOwnerID != 1 || cfg.Tenant.DefaultStreamID != 1 {
		t.Fatalf("unexpected tenant defaults %+v", cfg.Tenant)
	}
	if cfg.Ingest.Deadline != 20*time.Second {
		t.Fatalf("deadline = %v", cfg.Ingest.Deadline)
	}
	if cfg.Spool.Enabled {
		t.Fatal("spool must be opt-in")
	}
	if !strings.Contains(cfg.Database.URL, ":secret@localhost:5432/") {
		t.Fatalf("database url = %s", cfg.Database.URL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GATEWAY_ENDPOINTS", " redis://cache:6379/0 , http://gw/broadcast,")
	t.Setenv("GATEWAY_ATTEMPT_TIMEOUT", "2")
	t.Setenv("GATEWAY_DELIVERY_BUDGET", "3s")
	t.Setenv("GATEWAY_HEDGE_DELAY", "150ms")
	t.Setenv("DEFAULT_OWNER_ID", "42")
	t.Setenv("SPOOL_ENABLED", "true")
	t.Setenv("RULE_CACHE_TTL", "1m")
	t.Setenv("GATEWAY_BREAKER_FAILURES", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := []string{"redis://cache:6379/0", "http://gw/broadcast"}; !reflect.DeepEqual(cfg.Gateway.Endpoints, want) {
		t.Fatalf("endpoints = %v", cfg.Gateway.Endpoints)
	}
	if cfg.Gateway.AttemptTimeout != 2*time.Second || cfg.Gateway.DeliveryBudget != 3*time.Second {
		t.Fatalf("unexpected timeouts %+v", cfg.Gateway)
	}
	if cfg.Gateway.HedgeDelay != 150*time.Millisecond || cfg.Gateway.BreakerFailures != 4 {
		t.Fatalf("hedge = %v, breaker = %d", cfg.Gateway.HedgeDelay, cfg.Gateway.BreakerFailures)
	}
	if cfg.Tenant.DefaultOwnerID != 42 || !cfg.Spool.Enabled || cfg.Rules.CacheTTL != time.Minute {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
}

func TestLoad_EmptyEndpointList(t *testing.T) {
	t.Setenv("GATEWAY_ENDPOINTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Gateway.Endpoints) != 0 {
		t.Fatalf("expected no endpoints, got %v", cfg.Gateway.Endpoints)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "owner", key: "DEFAULT_OWNER_ID", val: "0"},
		{name: "budget shorter than attempt", key: "GATEWAY_DELIVERY_BUDGET", val: "1s"},
		{name: "negative hedge", key: "GATEWAY_HEDGE_DELAY", val: "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}
