package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"passgate/auth"
	"passgate/session"
)

// Config is the proxy configuration loaded from YAML. ${VAR} references are
// expanded from the environment before parsing so secrets can stay out of the
// file.
type Config struct {
	ListenAddr string         `yaml:"listen_addr"`
	AppURL     string         `yaml:"app_url"`
	Upstream   string         `yaml:"upstream"`
	Provider   ProviderConfig `yaml:"provider"`
	Redirect   PolicyConfig   `yaml:"redirect_policy"`
	TLS        TLSConfig      `yaml:"tls"`
}

// ProviderConfig selects and configures one identity provider from the closed
// set: google, entra, or keycloak.
type ProviderConfig struct {
	Name         string `yaml:"name"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// TenantID applies to entra only.
	TenantID string `yaml:"tenant_id"`
	// Realm and BaseURL apply to keycloak only.
	Realm   string `yaml:"realm"`
	BaseURL string `yaml:"base_url"`
	// UseRefreshToken defaults to true when omitted.
	UseRefreshToken *bool `yaml:"use_refresh_token"`
}

// PolicyConfig maps onto session.RedirectPolicy.
type PolicyConfig struct {
	Mode     string   `yaml:"mode"` // always (default), only, except
	Prefixes []string `yaml:"prefixes"`
}

// TLSConfig enables autocert when domains are set.
type TLSConfig struct {
	Domains  []string `yaml:"domains"`
	Email    string   `yaml:"email"`
	CacheDir string   `yaml:"cache_dir"`
}

func loadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(b))

	cfg := Config{
		ListenAddr: ":8080",
		Redirect:   PolicyConfig{Mode: "always"},
		TLS:        TLSConfig{CacheDir: "./autocert-cache"},
	}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	var missing []string
	if cfg.AppURL == "" {
		missing = append(missing, "app_url")
	}
	if cfg.Upstream == "" {
		missing = append(missing, "upstream")
	}
	if cfg.Provider.Name == "" {
		missing = append(missing, "provider.name")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func (p ProviderConfig) useRefresh() bool {
	if p.UseRefreshToken == nil {
		return true
	}
	return *p.UseRefreshToken
}

// buildClient constructs the configured adapter. The provider set is closed;
// anything else is a configuration error.
func buildClient(ctx context.Context, cfg Config, logger *slog.Logger) (auth.Client, error) {
	switch cfg.Provider.Name {
	case "google":
		return auth.NewGoogle(ctx, auth.GoogleConfig{
			ClientID:        cfg.Provider.ClientID,
			ClientSecret:    cfg.Provider.ClientSecret,
			AppURL:          cfg.AppURL,
			UseRefreshToken: cfg.Provider.useRefresh(),
			Logger:          logger,
		})
	case "entra":
		return auth.NewEntra(ctx, auth.EntraConfig{
			ClientID:        cfg.Provider.ClientID,
			ClientSecret:    cfg.Provider.ClientSecret,
			TenantID:        cfg.Provider.TenantID,
			AppURL:          cfg.AppURL,
			UseRefreshToken: cfg.Provider.useRefresh(),
			Logger:          logger,
		})
	case "keycloak":
		return auth.NewKeycloak(ctx, auth.KeycloakConfig{
			ClientID:        cfg.Provider.ClientID,
			ClientSecret:    cfg.Provider.ClientSecret,
			BaseURL:         cfg.Provider.BaseURL,
			Realm:           cfg.Provider.Realm,
			AppURL:          cfg.AppURL,
			UseRefreshToken: cfg.Provider.useRefresh(),
			Logger:          logger,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: google, entra, keycloak)", cfg.Provider.Name)
	}
}

func buildPolicy(cfg PolicyConfig) (session.RedirectPolicy, error) {
	switch cfg.Mode {
	case "", "always":
		return session.Always{}, nil
	case "only":
		return session.Only(cfg.Prefixes), nil
	case "except":
		return session.Except(cfg.Prefixes), nil
	default:
		return nil, fmt.Errorf("unknown redirect policy mode %q (supported: always, only, except)", cfg.Mode)
	}
}

// newUpstreamProxy builds the reverse proxy that forwards authenticated
// requests to the protected application.
func newUpstreamProxy(target string) (http.Handler, error) {
	targetURL, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if targetURL.Scheme == "" || targetURL.Host == "" {
		return nil, fmt.Errorf("upstream URL must be absolute, got %q", target)
	}

	proxy := httputil.NewSingleHostReverseProxy(targetURL)
	proxy.Transport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return proxy, nil
}
