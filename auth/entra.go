package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// EntraConfig configures the Microsoft Entra ID adapter.
type EntraConfig struct {
	ClientID     string
	ClientSecret string
	// TenantID scopes the issuer; Entra endpoints are per tenant.
	TenantID string
	AppURL   string
	// UseRefreshToken enables refresh exchange; the offline_access scope is
	// requested so Entra actually issues refresh tokens.
	UseRefreshToken bool
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// EntraClient implements Client against a Microsoft Entra ID tenant.
// Entra rotates refresh tokens: each refresh exchange returns a new one.
type EntraClient struct {
	*provider
}

// NewEntra discovers the tenant's endpoints, eagerly fetches its key set, and
// returns a ready adapter. Every missing configuration value is reported.
func NewEntra(ctx context.Context, cfg EntraConfig) (*EntraClient, error) {
	var missing []string
	if cfg.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if cfg.TenantID == "" {
		missing = append(missing, "tenant_id")
	}
	if cfg.AppURL == "" {
		missing = append(missing, "app_url")
	}
	if len(missing) > 0 {
		return nil, &MissingConfigError{Provider: "entra", Missing: missing}
	}

	scopes := []string{oidc.ScopeOpenID, "profile", "email"}
	if cfg.UseRefreshToken {
		scopes = append(scopes, oidc.ScopeOfflineAccess)
	}

	p, err := newDiscoveredProvider(ctx, discoveryConfig{
		name:         "entra",
		issuer:       entraIssuer(cfg.TenantID),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		appURL:       cfg.AppURL,
		scopes:       scopes,
		useRefresh:   cfg.UseRefreshToken,
		httpClient:   cfg.HTTPClient,
		logger:       cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &EntraClient{provider: p}, nil
}

// EntraFromEnv builds the Entra ID adapter from environment variables:
//
//   - PASSGATE_ENTRA_CLIENT_ID
//   - PASSGATE_ENTRA_CLIENT_SECRET
//   - PASSGATE_ENTRA_TENANT_ID
//   - PASSGATE_APP_URL
//   - PASSGATE_ENTRA_USE_REFRESH_TOKEN (optional bool, default true)
//
// A MissingConfigError lists every absent variable.
func EntraFromEnv(ctx context.Context) (*EntraClient, error) {
	logger := slog.Default()
	env := &envCollector{}

	cfg := EntraConfig{
		ClientID:        env.get("PASSGATE_ENTRA_CLIENT_ID"),
		ClientSecret:    env.get("PASSGATE_ENTRA_CLIENT_SECRET"),
		TenantID:        env.get("PASSGATE_ENTRA_TENANT_ID"),
		AppURL:          env.get("PASSGATE_APP_URL"),
		UseRefreshToken: envBool("PASSGATE_ENTRA_USE_REFRESH_TOKEN", true, logger),
		Logger:          logger,
	}
	if err := env.err("entra"); err != nil {
		return nil, err
	}
	return NewEntra(ctx, cfg)
}

func entraIssuer(tenantID string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/v2.0"
}
