package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// KeycloakConfig configures the Keycloak adapter.
type KeycloakConfig struct {
	ClientID     string
	ClientSecret string
	// BaseURL is the Keycloak server root, e.g. https://sso.example.com.
	BaseURL string
	// Realm scopes the issuer; Keycloak endpoints are per realm.
	Realm  string
	AppURL string
	// UseRefreshToken enables refresh exchange. Keycloak issues refresh
	// tokens for confidential clients without extra scopes.
	UseRefreshToken bool
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// KeycloakClient implements Client against one Keycloak realm.
// Keycloak rotates refresh tokens when the realm is configured to; a refresh
// exchange that returns none is treated as the old token being spent.
type KeycloakClient struct {
	*provider
}

// NewKeycloak discovers the realm's endpoints, eagerly fetches its key set,
// and returns a ready adapter. Every missing configuration value is reported.
func NewKeycloak(ctx context.Context, cfg KeycloakConfig) (*KeycloakClient, error) {
	var missing []string
	if cfg.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if cfg.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if cfg.Realm == "" {
		missing = append(missing, "realm")
	}
	if cfg.AppURL == "" {
		missing = append(missing, "app_url")
	}
	if len(missing) > 0 {
		return nil, &MissingConfigError{Provider: "keycloak", Missing: missing}
	}

	p, err := newDiscoveredProvider(ctx, discoveryConfig{
		name:         "keycloak",
		issuer:       keycloakIssuer(cfg.BaseURL, cfg.Realm),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		appURL:       cfg.AppURL,
		scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		useRefresh:   cfg.UseRefreshToken,
		httpClient:   cfg.HTTPClient,
		logger:       cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &KeycloakClient{provider: p}, nil
}

// KeycloakFromEnv builds the Keycloak adapter from environment variables:
//
//   - PASSGATE_KEYCLOAK_CLIENT_ID
//   - PASSGATE_KEYCLOAK_CLIENT_SECRET
//   - PASSGATE_KEYCLOAK_URL
//   - PASSGATE_KEYCLOAK_REALM
//   - PASSGATE_APP_URL
//   - PASSGATE_KEYCLOAK_USE_REFRESH_TOKEN (optional bool, default true)
//
// A MissingConfigError lists every absent variable.
func KeycloakFromEnv(ctx context.Context) (*KeycloakClient, error) {
	logger := slog.Default()
	env := &envCollector{}

	cfg := KeycloakConfig{
		ClientID:        env.get("PASSGATE_KEYCLOAK_CLIENT_ID"),
		ClientSecret:    env.get("PASSGATE_KEYCLOAK_CLIENT_SECRET"),
		BaseURL:         env.get("PASSGATE_KEYCLOAK_URL"),
		Realm:           env.get("PASSGATE_KEYCLOAK_REALM"),
		AppURL:          env.get("PASSGATE_APP_URL"),
		UseRefreshToken: envBool("PASSGATE_KEYCLOAK_USE_REFRESH_TOKEN", true, logger),
		Logger:          logger,
	}
	if err := env.err("keycloak"); err != nil {
		return nil, err
	}
	return NewKeycloak(ctx, cfg)
}

func keycloakIssuer(baseURL, realm string) string {
	return strings.TrimSuffix(baseURL, "/") + "/realms/" + realm
}
