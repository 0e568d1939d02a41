// Package config loads process-wide settings once at startup. Nothing here
// is mutated at runtime; the loaded values are injected into constructors
// rather than read ambiently.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAddr           = ":8080"
	defaultIssuer         = "classics-api"
	defaultAccessTokenTTL = 30 * time.Minute
)

// Config holds runtime settings for the classics API server.
type Config struct {
	// Addr is the HTTP bind address.
	Addr string
	// DatabaseDSN is the PostgreSQL DSN (pgx). Empty selects the in-memory
	// stores, which only make sense for development.
	DatabaseDSN string
	// AuthSecret signs bearer tokens (HS256). Required; rotating it
	// invalidates every outstanding token.
	AuthSecret string
	// AuthIssuer is embedded in and checked against the token issuer claim.
	AuthIssuer string
	// AccessTokenTTL is the lifetime of tokens issued at login.
	AccessTokenTTL time.Duration
}

// Load reads configuration from the environment:
//
//	CL_ADDR, CL_PG_DSN, CL_AUTH_SECRET, CL_AUTH_ISSUER, CL_ACCESS_TOKEN_TTL_MIN
func Load() (*Config, error) {
	cfg := &Config{
		Addr:           defaultAddr,
		AuthIssuer:     defaultIssuer,
		AccessTokenTTL: defaultAccessTokenTTL,
	}

	if v := strings.TrimSpace(os.Getenv("CL_ADDR")); v != "" {
		cfg.Addr = v
	}
	cfg.DatabaseDSN = strings.TrimSpace(os.Getenv("CL_PG_DSN"))
	cfg.AuthSecret = strings.TrimSpace(os.Getenv("CL_AUTH_SECRET"))
	if cfg.AuthSecret == "" {
		return nil, errors.New("config: CL_AUTH_SECRET is required")
	}
	if v := strings.TrimSpace(os.Getenv("CL_AUTH_ISSUER")); v != "" {
		cfg.AuthIssuer = v
	}
	if v := strings.TrimSpace(os.Getenv("CL_ACCESS_TOKEN_TTL_MIN")); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("config: CL_ACCESS_TOKEN_TTL_MIN must be a positive integer, got %q", v)
		}
		cfg.AccessTokenTTL = time.Duration(minutes) * time.Minute
	}
	return cfg, nil
}
