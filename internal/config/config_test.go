package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("a missing config file should not be an error: %s", err)
	}
	if cfg.Scheduler.IntervalHours != 12 || cfg.Scheduler.ThresholdDays != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.Interval() != 12*time.Hour {
		t.Fatalf("unexpected interval: %s", cfg.Scheduler.Interval())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promowatch.yml")
	raw := []byte(`
wiki:
  url: https://wiki.example.com/wiki/Event
  rewards: true
store:
  path: /var/lib/promowatch/events.json
scheduler:
  intervalHours: 6
  thresholdDays: 5
webhook:
  url: https://hooks.example.com/T1
`)
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatalf("write: %s", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if cfg.Wiki.URL != "https://wiki.example.com/wiki/Event" || !cfg.Wiki.Rewards {
		t.Errorf("unexpected wiki config: %+v", cfg.Wiki)
	}
	if cfg.Store.Path != "/var/lib/promowatch/events.json" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Scheduler.Interval() != 6*time.Hour || cfg.Scheduler.ThresholdDays != 5 {
		t.Errorf("unexpected scheduler config: %+v", cfg.Scheduler)
	}
	if cfg.Webhook.URL != "https://hooks.example.com/T1" {
		t.Errorf("unexpected webhook config: %+v", cfg.Webhook)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promowatch.yml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0600); err != nil {
		t.Fatalf("write: %s", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for malformed config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROMOWATCH_STORE", "/tmp/override.bdb")
	t.Setenv("PROMOWATCH_WIKI_URL", "https://other.example.com/wiki/Event")
	t.Setenv("PROMOWATCH_WEBHOOK_URL", "https://hooks.example.com/T2")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if cfg.Store.Path != "/tmp/override.bdb" {
		t.Errorf("store override ignored: %+v", cfg.Store)
	}
	if cfg.Wiki.URL != "https://other.example.com/wiki/Event" {
		t.Errorf("wiki override ignored: %+v", cfg.Wiki)
	}
	if cfg.Webhook.URL != "https://hooks.example.com/T2" {
		t.Errorf("webhook override ignored: %+v", cfg.Webhook)
	}
}
