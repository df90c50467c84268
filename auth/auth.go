// Package auth authenticates web application users against external identity
// providers (Google, Microsoft Entra ID, Keycloak) using the OAuth2
// authorization code flow, and verifies the resulting identity tokens locally
// against each provider's published key set.
//
// The provider set is closed on purpose: adding a provider is a deliberate,
// audited change, not a plugin extension point.
package auth

import "context"

// Cookie names and the callback route are protocol constants shared between
// the adapters and the session middleware. They are not configurable.
const (
	// AccessTokenCookie carries the short-lived, locally verifiable token.
	AccessTokenCookie = "passgate_access_token"
	// RefreshTokenCookie carries the longer-lived refresh token.
	RefreshTokenCookie = "passgate_refresh_token"
	// CallbackPath is both the OAuth redirect URI suffix appended to the
	// application base URL and the one route the middleware never guards.
	CallbackPath = "/.passgate/callback"
)

// Response is the result of every successful exchange or local decode.
type Response struct {
	// AccessToken is the signed identity token proving the session.
	AccessToken string
	// RefreshToken is empty when the provider did not issue one.
	RefreshToken string
	// Fields holds the verified claim set. Claim shapes vary per provider,
	// so it stays an untyped document.
	Fields map[string]any
}

// Client is the provider-agnostic capability every adapter implements.
// Nothing above this interface branches on provider identity.
type Client interface {
	// ExchangeCode redeems a one-time authorization code at the provider's
	// token endpoint and verifies the returned identity token.
	ExchangeCode(ctx context.Context, code string) (*Response, error)

	// ExchangeRefreshToken redeems a refresh token for a new credential
	// pair. Fails with ErrRefreshDisabled when the adapter was configured
	// without refresh support.
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (*Response, error)

	// DecodeAccessToken parses and cryptographically verifies a token using
	// only already-cached keys. It never performs network I/O.
	DecodeAccessToken(accessToken string) (*Response, error)

	// AuthorizationURL builds the provider's consent-screen URL with a fresh
	// random state value per call.
	AuthorizationURL() string
}
