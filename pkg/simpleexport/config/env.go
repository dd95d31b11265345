package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv applies environment variable overrides.
//
// Server:
//
//	PORT - Server port (default: "8080")
//	ENVIRONMENT - Runtime environment (default: "development")
//
// Host:
//
//	EXPORT_HOST - "fs" (default), "memory" or "none"
//	EXPORT_DOWNLOAD_DIR - Downloads directory for the fs host (default: "./downloads")
//	EXPORT_ORIGIN - Origin used in minted blob: references
//
// Blobs:
//
//	EXPORT_DEFAULT_MIME_TYPE, EXPORT_DEFAULT_ENCODING
//	EXPORT_MIME_SHORTCUTS - Extra shortcuts, e.g. "md:text/markdown,xml:application/xml"
//
// Store:
//
//	EXPORT_STORE_URL - "memory" (default), "postgresql://..." or "sqlite:///path/to/store.db"
//	EXPORT_DB_SCHEMA - Postgres schema
//
// Remote resources:
//
//	EXPORT_FETCH_TIMEOUT, EXPORT_FETCH_RATE_LIMIT, EXPORT_FETCH_BURST, EXPORT_USER_AGENT
//	EXPORT_FETCH_ALLOW_PRIVATE - Permit loopback, private and link-local targets (default: false)
//	EXPORT_FETCH_ALLOWED_HOSTS - Comma separated host allowlist; empty allows any public host
//	EXPORT_ENABLE_S3, EXPORT_S3_ENDPOINT, EXPORT_S3_BUCKET, EXPORT_S3_USE_PATH_STYLE
//	AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY
//
// API:
//
//	EXPORT_JWT_SECRET - HS256 secret; empty disables authentication
func WithEnv() Option {
	return func(c *Config) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithFile reads a configuration file. The format follows the extension:
// .toml, .yaml, .json or .env. Environment variables still take precedence.
func WithFile(path string) Option {
	return func(c *Config) error {
		if err := cleanenv.ReadConfig(path, c); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}
}

// Usage returns a function printing every supported environment variable
func Usage() func() {
	var cfg Config
	header := "Environment variables:"
	return cleanenv.Usage(&cfg, &header)
}
