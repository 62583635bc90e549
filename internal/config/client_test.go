package config

import (
	"testing"
	"time"
)

func TestLoadClientDefaults(t *testing.T) {
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error = %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Fatalf("APIBaseURL = %q, want http://localhost:8080", cfg.APIBaseURL)
	}
	if cfg.ClientVersion != "go-dev" {
		t.Fatalf("ClientVersion = %q, want go-dev", cfg.ClientVersion)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("HTTPTimeout = %v, want 10s", cfg.HTTPTimeout)
	}
	if !cfg.Consented {
		t.Fatal("Consented = false, want true by default")
	}
}

func TestLoadClientOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("VIRAL_MODULE_ID", "mod-123")
	t.Setenv("CONSENTED", "false")
	t.Setenv("HTTP_TIMEOUT", "3s")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error = %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.ViralModuleID != "mod-123" || cfg.Consented || cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("unexpected client config: %+v", cfg)
	}
}

func TestLoadDevServerDefaults(t *testing.T) {
	cfg, err := LoadDevServer()
	if err != nil {
		t.Fatalf("LoadDevServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.SeedTargets != 5 {
		t.Fatalf("SeedTargets = %d, want 5", cfg.SeedTargets)
	}
}
