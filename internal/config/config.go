// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DialpadConfig holds Dialpad API credentials and tuning.
type DialpadConfig struct {
	BearerToken       string
	BaseURL           string
	RequestsPerSecond float64
}

// GraphConfig holds the Microsoft Graph app registration and the
// mailboxes the email history view queries.
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	BaseURL      string
	Mailboxes    []string
}

// Config holds all configuration for the aggregation service.
type Config struct {
	Dialpad DialpadConfig
	Graph   GraphConfig

	// Redis
	RedisURL   string
	SessionTTL time.Duration

	// Pipeline tuning
	FanOutLimit     int
	PageItemCap     int
	PollMaxAttempts int
	PollBaseDelay   time.Duration
	RetryAttempts   int
	OutboundTimeout time.Duration
	LookbackDays    int

	// Stats cache
	CacheSize int
	CacheTTL  time.Duration

	// Server
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Dialpad struct {
		BearerToken       string  `yaml:"bearer_token"`
		BaseURL           string  `yaml:"base_url"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"dialpad"`
	Graph struct {
		TenantID     string   `yaml:"tenant_id"`
		ClientID     string   `yaml:"client_id"`
		ClientSecret string   `yaml:"client_secret"`
		RedirectURL  string   `yaml:"redirect_url"`
		BaseURL      string   `yaml:"base_url"`
		Mailboxes    []string `yaml:"mailboxes"`
	} `yaml:"graph"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "/app/config/config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		Dialpad: DialpadConfig{
			BearerToken:       raw.Dialpad.BearerToken,
			BaseURL:           raw.Dialpad.BaseURL,
			RequestsPerSecond: raw.Dialpad.RequestsPerSecond,
		},
		Graph: GraphConfig{
			TenantID:     raw.Graph.TenantID,
			ClientID:     raw.Graph.ClientID,
			ClientSecret: raw.Graph.ClientSecret,
			RedirectURL:  raw.Graph.RedirectURL,
			BaseURL:      raw.Graph.BaseURL,
			Mailboxes:    raw.Graph.Mailboxes,
		},
		RedisURL:        firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		SessionTTL:      envOrDefaultDuration("SESSION_TTL", 24*time.Hour),
		FanOutLimit:     envOrDefaultInt("FANOUT_LIMIT", 5),
		PageItemCap:     envOrDefaultInt("PAGE_ITEM_CAP", 2000),
		PollMaxAttempts: envOrDefaultInt("POLL_MAX_ATTEMPTS", 8),
		PollBaseDelay:   envOrDefaultDuration("POLL_BASE_DELAY", 500*time.Millisecond),
		RetryAttempts:   envOrDefaultInt("RETRY_ATTEMPTS", 3),
		OutboundTimeout: envOrDefaultDuration("OUTBOUND_TIMEOUT", 2*time.Minute),
		LookbackDays:    envOrDefaultInt("DEFAULT_LOOKBACK_DAYS", 30),
		CacheSize:       envOrDefaultInt("CACHE_SIZE", 500),
		CacheTTL:        envOrDefaultDuration("CACHE_TTL", time.Hour),
		Port:            envOrDefaultInt("PORT", 8080),
	}

	if cfg.Dialpad.BearerToken == "" {
		return nil, fmt.Errorf("dialpad.bearer_token is required (set DIALPAD_BEARER_TOKEN)")
	}
	if cfg.Graph.TenantID == "" || cfg.Graph.ClientID == "" || cfg.Graph.ClientSecret == "" {
		return nil, fmt.Errorf("graph tenant_id, client_id and client_secret are required")
	}
	if cfg.Graph.RedirectURL == "" {
		cfg.Graph.RedirectURL = fmt.Sprintf("http://localhost:%d/auth/callback", cfg.Port)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
