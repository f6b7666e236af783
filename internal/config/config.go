// Package config loads orchestrator configuration from an optional YAML
// file with environment-variable overrides, following the pattern the
// pack favors: a struct of defaults, optionally loaded from a file, then
// overridden by the process environment (spec.md 6, "environment
// configuration").
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every environment-tunable value the core reads.
type Config struct {
	StoreURL        string        `yaml:"store_url"`
	ServiceNames    []string      `yaml:"service_names"`
	HTTPAddr        string        `yaml:"http_addr"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	TemplateDir     string        `yaml:"template_dir"`
	JanitorHorizon  time.Duration `yaml:"janitor_horizon"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	CascadeFail     bool          `yaml:"cascade_fail"`
	ClaimTimeout    time.Duration `yaml:"claim_timeout"`
}

// Default returns the built-in defaults, matching the teacher's
// hardcoded localhost values but expressed as overridable fields.
func Default() Config {
	return Config{
		StoreURL:        "localhost:6379",
		ServiceNames:    []string{"text-service", "audio-service", "image-service", "video-service"},
		HTTPAddr:        ":8080",
		MetricsAddr:     ":9090",
		TemplateDir:     "./templates",
		JanitorHorizon:  10 * time.Minute,
		JanitorInterval: time.Minute,
		CascadeFail:     false,
		ClaimTimeout:    30 * time.Second,
	}
}

// Load starts from Default(), overlays path's YAML contents if it
// exists, then applies environment variable overrides. path may be
// empty, in which case only defaults + environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STORE_URL"); v != "" {
		cfg.StoreURL = v
	}
	if v := os.Getenv("SERVICE_NAMES"); v != "" {
		cfg.ServiceNames = splitComma(v)
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("TEMPLATE_DIR"); v != "" {
		cfg.TemplateDir = v
	}
	if v := os.Getenv("JANITOR_HORIZON"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JanitorHorizon = d
		}
	}
	if v := os.Getenv("JANITOR_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JanitorInterval = d
		}
	}
	if v := os.Getenv("CASCADE_FAIL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CascadeFail = b
		}
	}
	if v := os.Getenv("CLAIM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ClaimTimeout = d
		}
	}
}

func splitComma(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// KnownService reports whether name is one of the configured service
// names (template validation, spec.md 6).
func (c Config) KnownService(name string) bool {
	for _, s := range c.ServiceNames {
		if s == name {
			return true
		}
	}
	return false
}
