package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// provider implements Client against one configured identity provider. The
// exported adapter types are thin provider-specific constructors over this
// shared core; construction is the only place they differ.
type provider struct {
	name     string
	oauth    *oauth2.Config
	http     *http.Client
	keys     *KeyCache
	clientID string
	logger   *slog.Logger

	// useRefresh gates refresh exchange entirely.
	useRefresh bool
	// reuseRefresh marks providers that do not rotate refresh tokens: the
	// redeemed token stays valid and is carried forward in the Response.
	reuseRefresh bool
	// authParams are provider-specific extras on the consent URL.
	authParams []oauth2.AuthCodeOption
}

// httpContext routes all oauth2 round trips through the adapter's transport.
func (p *provider) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.http)
}

func (p *provider) ExchangeCode(ctx context.Context, code string) (*Response, error) {
	tok, err := p.oauth.Exchange(p.httpContext(ctx), code)
	if err != nil {
		return nil, exchangeError(p.name+": exchange code", err)
	}

	resp, err := p.verifyTokenResponse(ctx, tok)
	if err != nil {
		return nil, err
	}
	if p.useRefresh {
		resp.RefreshToken = tok.RefreshToken
	}
	return resp, nil
}

func (p *provider) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*Response, error) {
	if !p.useRefresh {
		return nil, ErrRefreshDisabled
	}

	src := p.oauth.TokenSource(p.httpContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, exchangeError(p.name+": exchange refresh token", err)
	}

	resp, err := p.verifyTokenResponse(ctx, tok)
	if err != nil {
		return nil, err
	}

	// x/oauth2 backfills the request's refresh token when the provider omits
	// one, so an echo of the old value means no rotation happened.
	switch {
	case tok.RefreshToken != "" && tok.RefreshToken != refreshToken:
		resp.RefreshToken = tok.RefreshToken
	case p.reuseRefresh:
		resp.RefreshToken = refreshToken
	}
	return resp, nil
}

func (p *provider) DecodeAccessToken(accessToken string) (*Response, error) {
	fields, err := p.verify(context.Background(), accessToken, false)
	if err != nil {
		return nil, err
	}
	return &Response{AccessToken: accessToken, Fields: fields}, nil
}

func (p *provider) AuthorizationURL() string {
	return p.oauth.AuthCodeURL(randomState(), p.authParams...)
}

// verifyTokenResponse extracts the signed identity token from an exchange
// reply and verifies it, refreshing the key set once if its kid is unknown.
// The identity token, not the opaque access token, is what the session
// carries and later re-verifies locally.
func (p *provider) verifyTokenResponse(ctx context.Context, tok *oauth2.Token) (*Response, error) {
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, &TokenError{Reason: p.name + ": id_token missing in token response"}
	}
	fields, err := p.verify(ctx, rawIDToken, true)
	if err != nil {
		return nil, err
	}
	return &Response{AccessToken: rawIDToken, Fields: fields}, nil
}

// redirectURL derives the OAuth redirect URI from the application base URL.
func redirectURL(appURL string) string {
	return strings.TrimSuffix(appURL, "/") + CallbackPath
}

func randomState() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "state"
	}
	return hex.EncodeToString(buf)
}

// discoveryConfig feeds newDiscoveredProvider for adapters whose endpoints
// come from OIDC discovery rather than fixed constants.
type discoveryConfig struct {
	name         string
	issuer       string
	clientID     string
	clientSecret string
	appURL       string
	scopes       []string
	useRefresh   bool
	httpClient   *http.Client
	logger       *slog.Logger
}

// newDiscoveredProvider resolves the issuer's authorization, token, and JWKS
// endpoints via OIDC discovery and builds the shared core around them.
func newDiscoveredProvider(ctx context.Context, cfg discoveryConfig) (*provider, error) {
	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	op, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), cfg.issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: discover provider: %w", cfg.name, err)
	}

	var meta struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := op.Claims(&meta); err != nil {
		return nil, fmt.Errorf("%s: read provider metadata: %w", cfg.name, err)
	}
	if meta.JWKSURL == "" {
		return nil, fmt.Errorf("%s: provider metadata missing jwks_uri", cfg.name)
	}

	keys, err := NewKeyCache(ctx, meta.JWKSURL, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.name, err)
	}

	return &provider{
		name: cfg.name,
		oauth: &oauth2.Config{
			ClientID:     cfg.clientID,
			ClientSecret: cfg.clientSecret,
			RedirectURL:  redirectURL(cfg.appURL),
			Endpoint:     op.Endpoint(),
			Scopes:       cfg.scopes,
		},
		http:       httpClient,
		keys:       keys,
		clientID:   cfg.clientID,
		useRefresh: cfg.useRefresh,
		logger:     logger,
	}, nil
}
