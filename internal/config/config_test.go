package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.HTTPPort)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("expected default poll interval 30s, got %s", cfg.PollInterval)
	}
	if cfg.StalenessThreshold != 5*time.Minute {
		t.Errorf("expected default staleness threshold 5m, got %s", cfg.StalenessThreshold)
	}
	if cfg.MaxPollFailures != 3 {
		t.Errorf("expected default max failures 3, got %d", cfg.MaxPollFailures)
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("expected default retention 90 days, got %d", cfg.RetentionDays)
	}
	if !cfg.Filter.IsZero() {
		t.Errorf("expected zero filter without FILTER_FILE, got %+v", cfg.Filter)
	}
	if cfg.JWTSecret != "test-secret" {
		t.Error("JWT_SECRET env var should take priority")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("POLL_INTERVAL", "15s")
	t.Setenv("STALENESS_THRESHOLD", "120")
	t.Setenv("STATUS_FILE", "/tmp/status.dat")
	t.Setenv("MAX_POLL_FAILURES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Errorf("expected 15s poll interval, got %s", cfg.PollInterval)
	}
	// Bare integers are seconds
	if cfg.StalenessThreshold != 2*time.Minute {
		t.Errorf("expected 120s staleness threshold, got %s", cfg.StalenessThreshold)
	}
	if cfg.StatusFilePath != "/tmp/status.dat" {
		t.Errorf("unexpected status file path: %s", cfg.StatusFilePath)
	}
	if cfg.MaxPollFailures != 5 {
		t.Errorf("expected max failures 5, got %d", cfg.MaxPollFailures)
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://status.example.com, https://ops.example.com ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"https://status.example.com", "https://ops.example.com"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	for i, origin := range want {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Errorf("origin %d = %q, want %q", i, cfg.CORSAllowedOrigins[i], origin)
		}
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("POLL_INTERVAL", "-5s")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a negative poll interval")
	}
}

func TestLoadFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.yaml")
	content := `hostgroups:
  - public-status
servicegroups:
  - public-status-services
hosts:
  - standalone01
services:
  - host: web01
    service: HTTP
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write filter file: %v", err)
	}

	filter, err := LoadFilter(path)
	if err != nil {
		t.Fatalf("LoadFilter failed: %v", err)
	}

	if len(filter.Hostgroups) != 1 || filter.Hostgroups[0] != "public-status" {
		t.Errorf("unexpected hostgroups: %v", filter.Hostgroups)
	}
	if len(filter.Hosts) != 1 || filter.Hosts[0] != "standalone01" {
		t.Errorf("unexpected hosts: %v", filter.Hosts)
	}
	if len(filter.Services) != 1 || filter.Services[0].HostName != "web01" || filter.Services[0].ServiceDescription != "HTTP" {
		t.Errorf("unexpected services: %v", filter.Services)
	}
}

func TestLoadFilterEmptyFileSelectsEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.yaml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write filter file: %v", err)
	}

	filter, err := LoadFilter(path)
	if err != nil {
		t.Fatalf("LoadFilter failed: %v", err)
	}
	if !filter.IsZero() {
		t.Errorf("empty file should yield the zero filter, got %+v", filter)
	}
}

func TestLoadFilterRejectsIncompleteServiceEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.yaml")
	content := "services:\n  - host: web01\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write filter file: %v", err)
	}

	if _, err := LoadFilter(path); err == nil {
		t.Fatal("expected an error for a service entry without a description")
	}
}

func TestLoadFilterMissingFile(t *testing.T) {
	if _, err := LoadFilter(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing filter file")
	}
}
