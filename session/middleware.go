package session

import (
	"log/slog"
	"net/http"

	"passgate/auth"
)

// Middleware returns the per-request authentication state machine. Evaluated
// in order, first match wins:
//
//  1. Requests to the callback path skip authentication entirely, so the
//     middleware and the login handler cannot redirect-loop each other.
//  2. A valid access-token cookie forwards the request with the verified
//     credential on the context and no cookie churn.
//  3. Otherwise a refresh-token cookie is redeemed; on success the request is
//     forwarded and the response carries a fresh access cookie plus either a
//     rotated refresh cookie or removal of the spent one.
//  4. Anything else is unauthenticated: the redirect policy decides between
//     a login redirect (clearing both cookies) and a bare 401.
//
// Side effects are confined to response cookies and request context; nothing
// is persisted server-side.
func Middleware(client auth.Client, cfg Config, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == auth.CallbackPath {
				next.ServeHTTP(w, r)
				return
			}

			if c, err := r.Cookie(auth.AccessTokenCookie); err == nil && c.Value != "" {
				resp, decodeErr := client.DecodeAccessToken(c.Value)
				if decodeErr == nil {
					next.ServeHTTP(w, r.WithContext(withCredential(r.Context(), resp)))
					return
				}
				logger.Warn("invalid access token", "error", decodeErr)
			}

			if c, err := r.Cookie(auth.RefreshTokenCookie); err == nil && c.Value != "" {
				resp, refreshErr := client.ExchangeRefreshToken(r.Context(), c.Value)
				if refreshErr == nil {
					http.SetCookie(w, authCookie(auth.AccessTokenCookie, resp.AccessToken))
					if resp.RefreshToken != "" {
						http.SetCookie(w, authCookie(auth.RefreshTokenCookie, resp.RefreshToken))
					} else {
						// No replacement issued: the old token is spent.
						http.SetCookie(w, expiredCookie(auth.RefreshTokenCookie))
					}
					next.ServeHTTP(w, r.WithContext(withCredential(r.Context(), resp)))
					return
				}
				logger.Warn("refresh token exchange failed", "error", refreshErr)
			}

			if cfg.shouldRedirect(path) {
				http.SetCookie(w, expiredCookie(auth.AccessTokenCookie))
				http.SetCookie(w, expiredCookie(auth.RefreshTokenCookie))
				http.Redirect(w, r, auth.CallbackPath, http.StatusFound)
				return
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}
}
