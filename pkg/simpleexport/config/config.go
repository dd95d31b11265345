package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-export/pkg/simpleexport"
	fshost "github.com/tendant/simple-export/pkg/simpleexport/host/fs"
	memhost "github.com/tendant/simple-export/pkg/simpleexport/host/memory"
	"github.com/tendant/simple-export/pkg/simpleexport/kvstore"
	memstore "github.com/tendant/simple-export/pkg/simpleexport/kvstore/memory"
	pgstore "github.com/tendant/simple-export/pkg/simpleexport/kvstore/postgres"
	"github.com/tendant/simple-export/pkg/simpleexport/kvstore/sqlite"
	"github.com/tendant/simple-export/pkg/simpleexport/remote"
)

// Option applies configuration to a Config instance.
type Option func(*Config) error

// Load constructs a Config by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*Config, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		Port:            "8080",
		Environment:     "development",
		HostType:        "fs",
		DownloadDir:     "./downloads",
		Origin:          simpleexport.DefaultOrigin,
		DefaultMimeType: simpleexport.DefaultMimeType,
		DefaultEncoding: simpleexport.DefaultEncoding,
		StoreURL:        "memory",
		FetchTimeout:    30 * time.Second,
		FetchBurst:      1,
		S3Region:        "us-east-1",
	}
}

// Config represents configuration for the export server and CLI
type Config struct {
	Port        string `toml:"port" env:"PORT"`
	Environment string `toml:"environment" env:"ENVIRONMENT"` // development, production, testing

	// Host configuration
	HostType    string `toml:"host" env:"EXPORT_HOST"` // "fs", "memory", "none"
	DownloadDir string `toml:"download_dir" env:"EXPORT_DOWNLOAD_DIR"`
	Origin      string `toml:"origin" env:"EXPORT_ORIGIN"`

	// Blob defaults
	DefaultMimeType string            `toml:"default_mime_type" env:"EXPORT_DEFAULT_MIME_TYPE"`
	DefaultEncoding string            `toml:"default_encoding" env:"EXPORT_DEFAULT_ENCODING"`
	MimeShortcuts   map[string]string `toml:"mime_shortcuts" env:"EXPORT_MIME_SHORTCUTS" env-separator:","`

	// Store configuration: "memory", "postgres://...", "sqlite:///path/to/store.db"
	StoreURL string `toml:"store_url" env:"EXPORT_STORE_URL"`
	DBSchema string `toml:"db_schema" env:"EXPORT_DB_SCHEMA"`

	// Remote fetch configuration
	FetchTimeout   time.Duration `toml:"fetch_timeout" env:"EXPORT_FETCH_TIMEOUT"`
	FetchRateLimit float64       `toml:"fetch_rate_limit" env:"EXPORT_FETCH_RATE_LIMIT"` // requests per second, 0 disables
	FetchBurst     int           `toml:"fetch_burst" env:"EXPORT_FETCH_BURST"`
	UserAgent      string        `toml:"user_agent" env:"EXPORT_USER_AGENT"`

	// Loopback, private and link-local targets are refused unless allowed
	FetchAllowPrivate bool     `toml:"fetch_allow_private" env:"EXPORT_FETCH_ALLOW_PRIVATE"`
	FetchAllowedHosts []string `toml:"fetch_allowed_hosts" env:"EXPORT_FETCH_ALLOWED_HOSTS" env-separator:","` // empty allows any public host

	// S3 resources (s3://bucket/key)
	EnableS3          bool   `toml:"enable_s3" env:"EXPORT_ENABLE_S3"`
	S3Region          string `toml:"s3_region" env:"AWS_REGION"`
	S3Endpoint        string `toml:"s3_endpoint" env:"EXPORT_S3_ENDPOINT"`
	S3AccessKeyID     string `toml:"s3_access_key_id" env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `toml:"s3_secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	S3UsePathStyle    bool   `toml:"s3_use_path_style" env:"EXPORT_S3_USE_PATH_STYLE"`
	S3Bucket          string `toml:"s3_bucket" env:"EXPORT_S3_BUCKET"`

	// API authentication; empty disables the bearer token check
	JWTSecret string `toml:"jwt_secret" env:"EXPORT_JWT_SECRET"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.HostType {
	case "fs":
		if c.DownloadDir == "" {
			return errors.New("download_dir is required when using the fs host")
		}
	case "memory", "none":
	default:
		return fmt.Errorf("host must be 'fs', 'memory' or 'none', got: %s", c.HostType)
	}

	if _, err := storeKind(c.StoreURL); err != nil {
		return err
	}

	if c.FetchRateLimit < 0 {
		return errors.New("fetch_rate_limit cannot be negative")
	}

	return nil
}

// storeKind returns "memory", "postgres" or "sqlite" for a store URL
func storeKind(storeURL string) (string, error) {
	switch {
	case storeURL == "" || storeURL == "memory" || storeURL == "memory://":
		return "memory", nil
	case strings.HasPrefix(storeURL, "postgresql://"), strings.HasPrefix(storeURL, "postgres://"):
		return "postgres", nil
	case strings.HasPrefix(storeURL, "sqlite://"):
		if strings.TrimPrefix(storeURL, "sqlite://") == "" {
			return "", errors.New("sqlite path cannot be empty in store_url")
		}
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported store_url format: %s (use 'memory', 'postgresql://...' or 'sqlite://...')", storeURL)
	}
}

// Components are the collaborators built from a Config. Close releases
// database connections.
type Components struct {
	Builder *simpleexport.BlobBuilder
	Fetcher *remote.Mux
	Store   kvstore.Store
	Host    simpleexport.Host

	closers []func()
}

// Close releases resources held by the components
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Exporter builds an exporter over host, or over the configured host when nil
func (c *Components) Exporter(host simpleexport.Host, opts ...simpleexport.Option) (*simpleexport.Exporter, error) {
	if host == nil {
		host = c.Host
	}
	base := []simpleexport.Option{
		simpleexport.WithHost(host),
		simpleexport.WithBlobBuilder(c.Builder),
		simpleexport.WithStore(c.Store),
	}
	return simpleexport.New(append(base, opts...)...)
}

// Build creates the components described by the configuration
func (c *Config) Build(ctx context.Context) (*Components, error) {
	comps := &Components{
		Builder: simpleexport.NewBlobBuilder(
			simpleexport.WithMimeShortcuts(simpleexport.MimeTable(c.MimeShortcuts)),
			simpleexport.WithDefaultMimeType(c.DefaultMimeType),
			simpleexport.WithDefaultEncoding(c.DefaultEncoding),
		),
	}

	fetcher, err := c.buildFetcher(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetcher: %w", err)
	}
	comps.Fetcher = fetcher

	store, closer, err := c.buildStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build store: %w", err)
	}
	comps.Store = store
	if closer != nil {
		comps.closers = append(comps.closers, closer)
	}

	host, err := c.buildHost(fetcher)
	if err != nil {
		comps.Close()
		return nil, fmt.Errorf("failed to build host: %w", err)
	}
	comps.Host = host

	return comps, nil
}

func (c *Config) buildFetcher(ctx context.Context) (*remote.Mux, error) {
	mux := remote.NewMux()
	mux.Handle(remote.NewHTTP(remote.HTTPConfig{
		Timeout:        c.FetchTimeout,
		RequestsPerSec: c.FetchRateLimit,
		Burst:          c.FetchBurst,
		UserAgent:      c.UserAgent,
		AllowPrivate:   c.FetchAllowPrivate,
		AllowedHosts:   c.FetchAllowedHosts,
	}), "http", "https")
	mux.Handle(remote.DataURLFetcher{}, "data")

	if c.EnableS3 {
		s3, err := remote.NewS3(ctx, remote.S3Config{
			Region:          c.S3Region,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
			Endpoint:        c.S3Endpoint,
			UsePathStyle:    c.S3UsePathStyle,
			Bucket:          c.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		mux.Handle(s3, "s3")
	}
	return mux, nil
}

func (c *Config) buildStore(ctx context.Context) (kvstore.Store, func(), error) {
	kind, err := storeKind(c.StoreURL)
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case "postgres":
		cfg, err := pgxpool.ParseConfig(c.StoreURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse store_url: %w", err)
		}
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		store := pgstore.NewWithPool(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	case "sqlite":
		store, err := sqlite.Open(ctx, strings.TrimPrefix(c.StoreURL, "sqlite://"))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	default:
		return memstore.New(), nil, nil
	}
}

func (c *Config) buildHost(fetcher remote.Fetcher) (simpleexport.Host, error) {
	switch c.HostType {
	case "fs":
		return fshost.New(fshost.Config{Dir: c.DownloadDir, Origin: c.Origin, Fetcher: fetcher})
	case "memory":
		return memhost.New(memhost.WithOrigin(c.Origin), memhost.WithFetcher(fetcher)), nil
	case "none":
		return simpleexport.NewNoopHost(), nil
	default:
		return nil, fmt.Errorf("unsupported host type: %s", c.HostType)
	}
}
