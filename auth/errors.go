package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// ErrTokenInvalid matches every local verification failure: bad signature,
// expired token, malformed structure, audience mismatch, or unknown key id.
var ErrTokenInvalid = errors.New("token invalid")

// ErrKidNotFound is returned when a token names a key id that is still
// unknown after the one-shot key-set refetch.
var ErrKidNotFound = fmt.Errorf("%w: signing key not found", ErrTokenInvalid)

// ErrRefreshDisabled rejects refresh exchange on adapters configured without
// refresh support. It is a configuration-level kill switch, not a provider
// limitation.
var ErrRefreshDisabled = errors.New("refresh token exchange disabled by configuration")

// MissingConfigError reports every absent configuration value at once, so a
// misconfigured deployment fails fast with the complete list instead of one
// name per restart.
type MissingConfigError struct {
	Provider string
	Missing  []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("%s: missing configuration: %s", e.Provider, strings.Join(e.Missing, ", "))
}

// TokenError wraps the underlying verification failure while still matching
// ErrTokenInvalid via errors.Is.
type TokenError struct {
	Reason string
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *TokenError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTokenInvalid}
	}
	return []error{ErrTokenInvalid, e.Err}
}

// ProviderError reports a non-success reply from a provider's token endpoint.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.Status, e.Body)
}

// exchangeError classifies a failed token endpoint call: an HTTP-level
// rejection becomes a ProviderError, anything else stays a wrapped transport
// error.
func exchangeError(op string, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		return fmt.Errorf("%s: %w", op, &ProviderError{Status: status, Body: string(rerr.Body)})
	}
	return fmt.Errorf("%s: %w", op, err)
}
