package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "PROMOWATCH_CONFIG"
	storePathEnv  = "PROMOWATCH_STORE"
	wikiURLEnv    = "PROMOWATCH_WIKI_URL"
	webhookEnv    = "PROMOWATCH_WEBHOOK_URL"
)

// Config holds the externally supplied knobs of the watcher. The core
// stores none of this itself; it all arrives from file, env or flags.
type Config struct {
	Wiki      WikiConfig      `yaml:"wiki"`
	Store     StoreConfig     `yaml:"store"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Webhook   WebhookConfig   `yaml:"webhook"`
}

// WikiConfig describes the scrape source.
type WikiConfig struct {
	URL     string `yaml:"url"`
	Rewards bool   `yaml:"rewards"`
}

// StoreConfig points at the persisted snapshot; a .bdb extension selects
// the boltdb backend, anything else the JSON file one.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines the evaluation cadence and alert window.
type SchedulerConfig struct {
	IntervalHours int `yaml:"intervalHours"`
	ThresholdDays int `yaml:"thresholdDays"`
}

func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalHours) * time.Hour
}

// WebhookConfig wires the webhook notification sink.
type WebhookConfig struct {
	URL string `yaml:"url"`
}

func defaultConfig() Config {
	return Config{
		Scheduler: SchedulerConfig{IntervalHours: 12, ThresholdDays: 3},
	}
}

// Load reads YAML configuration when present and applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("unable to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("unable to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Scheduler.IntervalHours <= 0 {
		cfg.Scheduler.IntervalHours = 12
	}
	if cfg.Scheduler.ThresholdDays < 0 {
		cfg.Scheduler.ThresholdDays = 3
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(storePathEnv); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(wikiURLEnv); v != "" {
		c.Wiki.URL = v
	}
	if v := os.Getenv(webhookEnv); v != "" {
		c.Webhook.URL = v
	}
}
