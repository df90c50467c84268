package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_CLIENT_SECRET", "s3cret-from-env")

	path := writeTempConfig(t, `
listen_addr: ":9443"
app_url: https://app.example.com
upstream: http://127.0.0.1:3000
provider:
  name: google
  client_id: web-client
  client_secret: ${TEST_CLIENT_SECRET}
redirect_policy:
  mode: except
  prefixes: ["/api"]
tls:
  domains: [app.example.com]
  email: ops@example.com
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.ListenAddr != ":9443" {
		t.Errorf("listen_addr = %q", cfg.ListenAddr)
	}
	if cfg.Provider.ClientSecret != "s3cret-from-env" {
		t.Errorf("env expansion failed, got %q", cfg.Provider.ClientSecret)
	}
	if !cfg.Provider.useRefresh() {
		t.Errorf("use_refresh_token must default to true")
	}
	if cfg.Redirect.Mode != "except" || len(cfg.Redirect.Prefixes) != 1 {
		t.Errorf("redirect policy not parsed: %+v", cfg.Redirect)
	}
	if cfg.TLS.CacheDir != "./autocert-cache" {
		t.Errorf("cache_dir default missing, got %q", cfg.TLS.CacheDir)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTempConfig(t, `
app_url: https://app.example.com
upstream: http://127.0.0.1:3000
provider:
  name: keycloak
  use_refresh_token: false
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen_addr default missing, got %q", cfg.ListenAddr)
	}
	if cfg.Redirect.Mode != "always" {
		t.Errorf("redirect mode default missing, got %q", cfg.Redirect.Mode)
	}
	if cfg.Provider.useRefresh() {
		t.Errorf("explicit use_refresh_token: false ignored")
	}
}

func TestLoadConfigMissingFields(t *testing.T) {
	path := writeTempConfig(t, `
listen_addr: ":8080"
`)

	_, err := loadConfig(path)
	if err == nil {
		t.Fatalf("expected error for incomplete config")
	}
	for _, want := range []string{"app_url", "upstream", "provider.name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not name %s", err, want)
		}
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := writeTempConfig(t, `
app_url: https://app.example.com
upstream: http://127.0.0.1:3000
provider:
  name: google
listen_adr: ":8080"
`)

	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected error for misspelled field")
	}
}

func TestBuildPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PolicyConfig
		path    string
		want    bool
		wantErr bool
	}{
		{"default always", PolicyConfig{}, "/anything", true, false},
		{"explicit always", PolicyConfig{Mode: "always"}, "/anything", true, false},
		{"only hit", PolicyConfig{Mode: "only", Prefixes: []string{"/admin"}}, "/admin/x", true, false},
		{"only miss", PolicyConfig{Mode: "only", Prefixes: []string{"/admin"}}, "/api/x", false, false},
		{"except hit", PolicyConfig{Mode: "except", Prefixes: []string{"/api"}}, "/api/x", false, false},
		{"unknown mode", PolicyConfig{Mode: "sometimes"}, "", false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			policy, err := buildPolicy(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildPolicy: %v", err)
			}
			if got := policy.ShouldRedirect(tc.path); got != tc.want {
				t.Fatalf("ShouldRedirect(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestBuildClientUnknownProvider(t *testing.T) {
	cfg := Config{Provider: ProviderConfig{Name: "okta"}}
	if _, err := buildClient(context.Background(), cfg, discardLogger()); err == nil {
		t.Fatalf("expected error for provider outside the supported set")
	}
}

func TestNewUpstreamProxy(t *testing.T) {
	if _, err := newUpstreamProxy("http://127.0.0.1:3000"); err != nil {
		t.Fatalf("valid upstream rejected: %v", err)
	}
	if _, err := newUpstreamProxy("127.0.0.1:3000"); err == nil {
		t.Fatalf("relative upstream must be rejected")
	}
	if _, err := newUpstreamProxy("://bad"); err == nil {
		t.Fatalf("unparsable upstream must be rejected")
	}
}
