package session

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"passgate/auth"
)

// Protect wraps app with cookie-session authentication: the login/callback
// handler is mounted at auth.CallbackPath and every other request passes
// through the session middleware. Request-id and structured request logging
// come along for free.
func Protect(client auth.Client, cfg Config, logger *slog.Logger, app http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(logger))
	r.Use(Middleware(client, cfg, logger))

	r.Get(auth.CallbackPath, LoginHandler(client, logger))
	r.Handle("/*", app)

	return r
}
