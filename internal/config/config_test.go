package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Addr() != "0.0.0.0:8080" || cfg.GRPC.Port != 50051 || !cfg.GRPC.Enabled {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Service.SessionTTL != 1800 || cfg.Service.SearchTTL != 600 {
		t.Fatalf("unexpected ttls %+v", cfg.Service)
	}
	if cfg.Rules.Profile != "default" || cfg.Logger.Format != "json" || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "http:\n  port: 9000\nrules:\n  profile: galley\nlogger:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENHANCESIM_GRPC_PORT", "6000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 9000 || cfg.Rules.Profile != "galley" || cfg.Logger.Level != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.GRPC.Port != 6000 {
		t.Fatalf("env override not applied: %d", cfg.GRPC.Port)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("ENHANCESIM_HTTP_PORT", "70000")
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "invalid HTTP port") {
		t.Fatalf("want port error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing explicit config file must fail")
	}
}
