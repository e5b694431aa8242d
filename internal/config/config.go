// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"strings"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// BackendURL is the public base URL of this server, used to build
	// the OAuth redirect URI.
	BackendURL string

	// GithubClientID is the GitHub OAuth application client id.
	GithubClientID string

	// GithubClientSecret is the GitHub OAuth application client secret.
	GithubClientSecret string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.BackendURL, "b", "http://localhost:8080", "public base URL of this server")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if backendURL := os.Getenv("BACKEND_URL"); backendURL != "" {
		options.BackendURL = backendURL
	}
	if clientID := os.Getenv("OAUTH_ID_GITHUB"); clientID != "" {
		options.GithubClientID = clientID
	}
	if clientSecret := os.Getenv("OAUTH_SECRET_GITHUB"); clientSecret != "" {
		options.GithubClientSecret = clientSecret
	}

	return options
}

// RedirectURI derives the OAuth callback URL from the backend base URL.
func (o *Options) RedirectURI() string {
	u, err := url.Parse(strings.TrimRight(o.BackendURL, "/") + "/auth/callback")
	if err != nil {
		return strings.TrimRight(o.BackendURL, "/") + "/auth/callback"
	}
	return u.String()
}
