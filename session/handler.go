package session

import (
	"fmt"
	"log/slog"
	"net/http"

	"passgate/auth"
)

// LoginHandler serves the callback path. Without a code query parameter it
// starts the authorization flow by redirecting to the provider's consent
// screen; with one it completes the flow, sets the session cookies, and sends
// the browser to the application root.
//
// Exchange failures answer with the raw error detail: this path is hit by
// operators debugging a broken deployment, not routine end-user traffic.
func LoginHandler(client auth.Client, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Redirect(w, r, client.AuthorizationURL(), http.StatusFound)
			return
		}

		resp, err := client.ExchangeCode(r.Context(), code)
		if err != nil {
			logger.Error("code exchange failed", "error", err)
			http.SetCookie(w, expiredCookie(auth.AccessTokenCookie))
			http.SetCookie(w, expiredCookie(auth.RefreshTokenCookie))
			http.Error(w, fmt.Sprintf("Authentication failed: %v", err), http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, authCookie(auth.AccessTokenCookie, resp.AccessToken))
		if resp.RefreshToken != "" {
			http.SetCookie(w, authCookie(auth.RefreshTokenCookie, resp.RefreshToken))
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}
}
