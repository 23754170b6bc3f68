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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testYAML = `
dialpad:
  bearer_token: ${DIALPAD_BEARER_TOKEN}
  requests_per_second: 4
graph:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: ${GRAPH_CLIENT_SECRET}
  mailboxes:
    - shared@example.com
    - support@example.com
redis:
  url: redis://test:6379/1
`

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoad(t *testing.T) {
	writeConfig(t, testYAML)
	t.Setenv("DIALPAD_BEARER_TOKEN", "dp-secret")
	t.Setenv("GRAPH_CLIENT_SECRET", "graph-secret")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("FANOUT_LIMIT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Dialpad.BearerToken != "dp-secret" {
		t.Errorf("BearerToken = %q, want env expansion", cfg.Dialpad.BearerToken)
	}
	if cfg.Dialpad.RequestsPerSecond != 4 {
		t.Errorf("RequestsPerSecond = %v", cfg.Dialpad.RequestsPerSecond)
	}
	if cfg.Graph.ClientSecret != "graph-secret" {
		t.Errorf("ClientSecret = %q, want env expansion", cfg.Graph.ClientSecret)
	}
	if len(cfg.Graph.Mailboxes) != 2 {
		t.Errorf("Mailboxes = %v", cfg.Graph.Mailboxes)
	}
	if cfg.RedisURL != "redis://test:6379/1" {
		t.Errorf("RedisURL = %q, want YAML value over default", cfg.RedisURL)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.FanOutLimit != 3 {
		t.Errorf("FanOutLimit = %d", cfg.FanOutLimit)
	}
	// Untouched knobs keep their defaults.
	if cfg.PollMaxAttempts != 8 || cfg.LookbackDays != 30 || cfg.Port != 8080 {
		t.Errorf("defaults = %d/%d/%d", cfg.PollMaxAttempts, cfg.LookbackDays, cfg.Port)
	}
	if cfg.Graph.RedirectURL != "http://localhost:8080/auth/callback" {
		t.Errorf("RedirectURL = %q, want derived default", cfg.Graph.RedirectURL)
	}
}

func TestLoad_MissingDialpadToken(t *testing.T) {
	writeConfig(t, testYAML)
	t.Setenv("DIALPAD_BEARER_TOKEN", "")
	t.Setenv("GRAPH_CLIENT_SECRET", "graph-secret")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without a Dialpad token")
	}
}

func TestLoad_MissingGraphCredentials(t *testing.T) {
	writeConfig(t, `
dialpad:
  bearer_token: dp-secret
graph:
  tenant_id: tenant-1
`)
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded with incomplete Graph credentials")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded with no config file")
	}
}
