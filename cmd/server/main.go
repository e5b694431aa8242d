// Package main initializes and starts the secretshare HTTP server,
// setting up configuration, logging, database connections, repositories,
// services and handlers.
package main

import (
	"cmp"
	"fmt"

	nethttp "net/http"

	"github.com/atinyakov/secretshare/internal/config"
	"github.com/atinyakov/secretshare/internal/db"
	"github.com/atinyakov/secretshare/internal/github"
	"github.com/atinyakov/secretshare/internal/logger"
	"github.com/atinyakov/secretshare/internal/repository"
	"github.com/atinyakov/secretshare/internal/server/handler/http"
	"github.com/atinyakov/secretshare/internal/service"
	"github.com/atinyakov/secretshare/internal/session"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if options.GithubClientID == "" || options.GithubClientSecret == "" {
		zapLogger.Fatal("github oauth configuration is incomplete")
	}

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Initialize repositories for users and secrets.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	secretRepo := repository.NewPostgresSecretRepository(postgresDB)

	// Initialize the GitHub client and the in-memory login session store.
	githubClient := github.NewClient(options.GithubClientID, options.GithubClientSecret, options.RedirectURI())
	sessions := session.NewStore()

	// Initialize business-logic services.
	authService := service.NewAuthService(githubClient, sessions, userRepo)
	secretService := service.NewSecretService(secretRepo)

	// Create HTTP handlers for auth and secret endpoints.
	authHandler := &http.AuthHandler{AuthService: authService}
	secretsHandler := &http.SecretsHandler{SecretService: secretService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, secretsHandler, authService, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Port,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
