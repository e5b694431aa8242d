// Package http provides HTTP routing and middleware configuration
// for the secretshare service.
package http

import (
	"net/http"

	"github.com/atinyakov/secretshare/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// secretshare API. Login endpoints are public; the secrets subtree is
// protected by bearer-token authentication.
//
// Routes:
//
//	GET  /healthz                    → liveness probe
//	POST /auth/login                 → authHandler.Login
//	GET  /auth/login/{sessionID}     → authHandler.Poll
//	GET  /auth/callback              → authHandler.Callback
//	POST /auth/login-test            → authHandler.LoginTest
//	POST   /secrets                  → secretsHandler.Create   (protected)
//	GET    /secrets                  → secretsHandler.List     (protected)
//	GET    /secrets/{key}            → secretsHandler.Get      (protected)
//	POST   /secrets/{key}/share      → secretsHandler.Share    (protected)
//	DELETE /secrets/{key}            → secretsHandler.Delete   (protected)
func NewRouter(
	authHandler *AuthHandler,
	secretsHandler *SecretsHandler,
	verifier middleware.TokenVerifier,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]bool{"ok": true})
	})

	// Public login endpoints; the browser-facing callback cannot carry
	// a bearer token.
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Get("/login/{sessionID}", authHandler.Poll)
		r.Get("/callback", authHandler.Callback)
		r.Post("/login-test", authHandler.LoginTest)
	})

	// Protected group: requires a valid bearer token
	r.Route("/secrets", func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Use(middleware.BearerAuth(verifier))

		r.Post("/", secretsHandler.Create)
		r.Get("/", secretsHandler.List)
		r.Get("/{key}", secretsHandler.Get)
		r.Post("/{key}/share", secretsHandler.Share)
		r.Delete("/{key}", secretsHandler.Delete)
	})

	return r
}
