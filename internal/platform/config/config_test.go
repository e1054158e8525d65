package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("port: %q", cfg.Server.Port)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Fatalf("upstream timeout: %v", cfg.Upstream.Timeout)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level: %q", cfg.Log.Level)
	}
	if cfg.Site.BaseURL != "https://voltrally.example" {
		t.Fatalf("site url: %q", cfg.Site.BaseURL)
	}
	if cfg.Redis.URL != "" {
		t.Fatalf("redis url should default empty, got %q", cfg.Redis.URL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VOLTRALLY_SERVER_PORT", "9090")
	t.Setenv("VOLTRALLY_UPSTREAM_BASE_URL", "https://api.voltrally.example/")
	t.Setenv("VOLTRALLY_SITE_BASE_URL", "https://mx.voltrally.example/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port: %q", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "https://api.voltrally.example" {
		t.Fatalf("base url not trimmed: %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.MockBaseURL != cfg.Upstream.BaseURL {
		t.Fatalf("mock url should default to base url, got %q", cfg.Upstream.MockBaseURL)
	}
	if cfg.Site.BaseURL != "https://mx.voltrally.example" {
		t.Fatalf("site url not trimmed: %q", cfg.Site.BaseURL)
	}
}

func TestPlatformPortFallback(t *testing.T) {
	t.Setenv("PORT", "7777")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7777" {
		t.Fatalf("port: %q", cfg.Server.Port)
	}

	// An explicit service port wins over the platform variable.
	t.Setenv("VOLTRALLY_SERVER_PORT", "8088")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8088" {
		t.Fatalf("port: %q", cfg.Server.Port)
	}
}
