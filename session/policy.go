// Package session layers cookie-based OAuth2 session handling in front of a
// protected application: a per-request middleware that accepts, transparently
// refreshes, or rejects the caller's session, and the login/callback handler
// that starts and completes the authorization flow.
//
// The entire session state lives in two client-held cookies; the server
// stores nothing between requests.
package session

import "strings"

// RedirectPolicy decides whether an unauthenticated request is redirected to
// the login flow or answered with 401. Configured once per protected scope,
// read per request, never mutated.
type RedirectPolicy interface {
	ShouldRedirect(path string) bool
}

// Always redirects every unauthenticated request to login. It is the default
// when no policy is configured.
type Always struct{}

func (Always) ShouldRedirect(string) bool { return true }

// Only redirects paths starting with one of the prefixes; everything else
// gets 401 Unauthorized.
type Only []string

func (p Only) ShouldRedirect(path string) bool { return hasPrefix(p, path) }

// Except redirects all paths except those starting with one of the prefixes,
// which get 401 Unauthorized (typically API routes).
type Except []string

func (p Except) ShouldRedirect(path string) bool { return !hasPrefix(p, path) }

func hasPrefix(prefixes []string, path string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Config controls middleware behaviour for one protected router scope.
type Config struct {
	// Policy decides redirect-vs-401 for unauthenticated requests.
	// Nil means Always.
	Policy RedirectPolicy
}

func (c Config) shouldRedirect(path string) bool {
	if c.Policy == nil {
		return true
	}
	return c.Policy.ShouldRedirect(path)
}
