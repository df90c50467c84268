package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification leeway mirrors what we tolerate for clock skew between this
// process and the provider.
const verifyLeeway = 30 * time.Second

var verifyMethods = []string{
	jwt.SigningMethodRS256.Alg(),
	jwt.SigningMethodES256.Alg(),
}

// verify parses and cryptographically checks a signed token, enforcing the
// configured client id as audience. With refresh set, an unknown kid triggers
// exactly one key-set refetch; without it the lookup stays purely local.
func (p *provider) verify(ctx context.Context, token string, refresh bool) (map[string]any, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "Bearer"))

	parser := jwt.NewParser(
		jwt.WithValidMethods(verifyMethods),
		jwt.WithAudience(p.clientID),
		jwt.WithLeeway(verifyLeeway),
	)

	// A key-set refetch failure is a transport problem, not a bad token;
	// keep it out of the ErrTokenInvalid taxonomy.
	var fetchErr error

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(trimmed, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrKidNotFound
		}
		if refresh {
			key, err := p.keys.GetWithRefresh(ctx, kid)
			if err != nil {
				if !errors.Is(err, ErrKidNotFound) {
					fetchErr = err
				}
				return nil, err
			}
			return key.Key, nil
		}
		key, ok := p.keys.Get(kid)
		if !ok {
			return nil, ErrKidNotFound
		}
		return key.Key, nil
	})
	if err != nil {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, &TokenError{Reason: p.name + ": verify token", Err: err}
	}

	return map[string]any(claims), nil
}
