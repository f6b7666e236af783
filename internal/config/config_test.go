package config

import (
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.StoreURL != "localhost:6379" {
		t.Errorf("expected default store url localhost:6379, got %s", cfg.StoreURL)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default http addr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.CascadeFail {
		t.Error("expected cascade fail to default to false")
	}
	if cfg.ClaimTimeout != 30*time.Second {
		t.Errorf("expected default claim timeout 30s, got %v", cfg.ClaimTimeout)
	}
	if !cfg.KnownService("text-service") {
		t.Error("expected text-service to be a known default service")
	}
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv("STORE_URL", "redis.internal:6380")
	t.Setenv("SERVICE_NAMES", "a-service, b-service")
	t.Setenv("CASCADE_FAIL", "true")
	t.Setenv("JANITOR_HORIZON", "5m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreURL != "redis.internal:6380" {
		t.Errorf("expected overridden store url, got %s", cfg.StoreURL)
	}
	if len(cfg.ServiceNames) != 2 || cfg.ServiceNames[0] != "a-service" || cfg.ServiceNames[1] != "b-service" {
		t.Errorf("expected parsed service names, got %v", cfg.ServiceNames)
	}
	if !cfg.CascadeFail {
		t.Error("expected cascade fail to be enabled by env override")
	}
	if cfg.JanitorHorizon != 5*time.Minute {
		t.Errorf("expected overridden janitor horizon, got %v", cfg.JanitorHorizon)
	}
}

func TestLoadIgnoresMissingConfigFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/to/config.yaml")
	if err != nil {
		t.Fatalf("expected missing config file to be tolerated, got error: %v", err)
	}
	if cfg.StoreURL != "localhost:6379" {
		t.Errorf("expected defaults to still apply, got %s", cfg.StoreURL)
	}
}

func TestKnownServiceRejectsUnknownName(t *testing.T) {
	cfg := Default()
	if cfg.KnownService("not-a-real-service") {
		t.Error("expected unknown service name to be rejected")
	}
}
