/*
Package configs is responsible for loading and parsing the application's configuration settings.

It primarily configures server parameters by reading operating system environment variables,
including the running environment, port, CORS allowed origins, the moderation backend address,
and the session registry limits.
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables, with an optional
// .env file consulted first.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins    []string
	StreamTokenSecret string

	// Moderation Backend Settings
	BackendURL    string
	SessionCookie string

	// Session Registry Settings
	MaxSessions int
	SessionTTL  time.Duration
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
// It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	// A missing .env file is not an error; production environments configure
	// the process directly.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	// AllowedOrigins
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// StreamTokenSecret signs the short-lived notification stream tokens.
	streamSecret := os.Getenv("STREAM_TOKEN_SECRET")
	if cfg.Environment == "development" {
		if streamSecret == "" {
			streamSecret = "your_default_insecure_secret_key_change_me"
		}
	} else {
		if streamSecret == "" {
			return nil, fmt.Errorf("STREAM_TOKEN_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
	}
	cfg.StreamTokenSecret = streamSecret

	// --- Moderation Backend Settings ---
	cfg.BackendURL = os.Getenv("BACKEND_URL")
	if cfg.BackendURL == "" {
		if cfg.Environment == "development" {
			cfg.BackendURL = "http://localhost:8000"
		} else {
			return nil, fmt.Errorf("BACKEND_URL environment variable is required in %s environment", cfg.Environment)
		}
	}
	if _, err := url.Parse(cfg.BackendURL); err != nil {
		return nil, fmt.Errorf("invalid BACKEND_URL environment variable: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	cfg.SessionCookie = os.Getenv("SESSION_COOKIE")
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "rowboat_session"
	}

	// --- Session Registry Settings ---
	maxSessionsStr := os.Getenv("MAX_SESSIONS")
	if maxSessionsStr == "" {
		maxSessionsStr = "4096"
	}
	maxSessions, err := strconv.Atoi(maxSessionsStr)
	if err != nil || maxSessions < 1 {
		return nil, fmt.Errorf("invalid MAX_SESSIONS environment variable: %q", maxSessionsStr)
	}
	cfg.MaxSessions = maxSessions

	sessionTTLStr := os.Getenv("SESSION_TTL_MINUTES")
	if sessionTTLStr == "" {
		sessionTTLStr = "720"
	}
	sessionTTLMinutes, err := strconv.Atoi(sessionTTLStr)
	if err != nil || sessionTTLMinutes < 1 {
		return nil, fmt.Errorf("invalid SESSION_TTL_MINUTES environment variable: %q", sessionTTLStr)
	}
	cfg.SessionTTL = time.Duration(sessionTTLMinutes) * time.Minute

	return cfg, nil
}
