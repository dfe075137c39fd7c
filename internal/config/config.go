// Package config loads the YAML run configuration. Secrets are referenced as
// ${VAR} placeholders and resolved from the environment at load time, so the
// agent core only ever sees already-resolved values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fully resolved run configuration handed to the driver.
type Config struct {
	Model         string       `yaml:"model"`
	MaxIterations int          `yaml:"max_iterations"`
	Recipient     string       `yaml:"recipient"`
	Goal          string       `yaml:"goal"`
	Search        SearchConfig `yaml:"search"`
	Email         EmailConfig  `yaml:"email"`
}

// SearchConfig configures the job-search upstream.
type SearchConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// EmailConfig configures SMTP delivery.
type EmailConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	From           string   `yaml:"from"`
	Password       string   `yaml:"password"`
	AllowedDomains []string `yaml:"allowed_domains"`
}

const (
	defaultMaxIterations = 8
	defaultSearchTimeout = 15
	defaultSMTPHost      = "smtp.gmail.com"
	defaultSMTPPort      = 587
)

// Load reads path, expands ${VAR} and ${VAR:-default} placeholders from the
// environment, unmarshals, applies defaults, and validates.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := expandEnv(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = defaultMaxIterations
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = defaultSearchTimeout
	}
	if c.Email.Host == "" {
		c.Email.Host = defaultSMTPHost
	}
	if c.Email.Port <= 0 {
		c.Email.Port = defaultSMTPPort
	}
}

func (c *Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.Recipient) == "" {
		missing = append(missing, "recipient")
	}
	if strings.TrimSpace(c.Search.APIKey) == "" {
		missing = append(missing, "search.api_key")
	}
	if strings.TrimSpace(c.Email.From) == "" {
		missing = append(missing, "email.from")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SearchTimeout returns the per-invocation search timeout as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// expandEnv substitutes ${VAR} and ${VAR:-default}. Unset variables without
// a default expand to the empty string; validation catches required gaps.
func expandEnv(s string) string {
	return os.Expand(s, func(ref string) string {
		name, fallback, hasFallback := strings.Cut(ref, ":-")
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
		if hasFallback {
			return fallback
		}
		return ""
	})
}
