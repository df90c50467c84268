package auth

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
)

// Google publishes fixed, globally stable endpoints; no discovery needed.
const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
	googleJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"
)

var googleScopes = []string{"openid", "email", "profile"}

// GoogleConfig configures the Google adapter.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	// AppURL is the application base URL; the OAuth redirect URI is derived
	// from it by appending CallbackPath.
	AppURL string
	// UseRefreshToken enables refresh exchange and offline access.
	UseRefreshToken bool
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// GoogleClient implements Client against Google's OAuth2/OIDC endpoints.
//
// Google does not rotate refresh tokens: a refresh exchange that returns no
// new token leaves the redeemed one valid, so it is carried forward.
type GoogleClient struct {
	*provider
}

// NewGoogle validates the configuration, eagerly fetches Google's key set,
// and returns a ready adapter. Every missing configuration value is reported,
// not just the first.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	var missing []string
	if cfg.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if cfg.AppURL == "" {
		missing = append(missing, "app_url")
	}
	if len(missing) > 0 {
		return nil, &MissingConfigError{Provider: "google", Missing: missing}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	keys, err := NewKeyCache(ctx, googleJWKSURL, httpClient, logger)
	if err != nil {
		return nil, err
	}

	return &GoogleClient{provider: &provider{
		name: "google",
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURL(cfg.AppURL),
			Endpoint: oauth2.Endpoint{
				AuthURL:  googleAuthURL,
				TokenURL: googleTokenURL,
			},
			Scopes: googleScopes,
		},
		http:         httpClient,
		keys:         keys,
		clientID:     cfg.ClientID,
		useRefresh:   cfg.UseRefreshToken,
		reuseRefresh: true,
		// Offline access with forced consent guarantees refresh-token
		// issuance on every login, not just the first.
		authParams: []oauth2.AuthCodeOption{
			oauth2.AccessTypeOffline,
			oauth2.SetAuthURLParam("prompt", "consent"),
		},
		logger: logger,
	}}, nil
}

// GoogleFromEnv builds the Google adapter from environment variables:
//
//   - PASSGATE_GOOGLE_CLIENT_ID
//   - PASSGATE_GOOGLE_CLIENT_SECRET
//   - PASSGATE_APP_URL
//   - PASSGATE_GOOGLE_USE_REFRESH_TOKEN (optional bool, default true)
//
// A MissingConfigError lists every absent variable.
func GoogleFromEnv(ctx context.Context) (*GoogleClient, error) {
	logger := slog.Default()
	env := &envCollector{}

	cfg := GoogleConfig{
		ClientID:        env.get("PASSGATE_GOOGLE_CLIENT_ID"),
		ClientSecret:    env.get("PASSGATE_GOOGLE_CLIENT_SECRET"),
		AppURL:          env.get("PASSGATE_APP_URL"),
		UseRefreshToken: envBool("PASSGATE_GOOGLE_USE_REFRESH_TOKEN", true, logger),
		Logger:          logger,
	}
	if err := env.err("google"); err != nil {
		return nil, err
	}
	return NewGoogle(ctx, cfg)
}
