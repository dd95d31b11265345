package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *Config) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *Config) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDownloadDir selects the filesystem host saving into dir
func WithDownloadDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return fmt.Errorf("download directory cannot be empty")
		}
		c.HostType = "fs"
		c.DownloadDir = dir
		return nil
	}
}

// WithHostType selects the host: "fs", "memory" or "none"
func WithHostType(hostType string) Option {
	return func(c *Config) error {
		c.HostType = hostType
		return nil
	}
}

// WithOrigin sets the origin used in minted references
func WithOrigin(origin string) Option {
	return func(c *Config) error {
		c.Origin = origin
		return nil
	}
}

// WithStoreURL selects the key-value store
func WithStoreURL(storeURL string) Option {
	return func(c *Config) error {
		if _, err := storeKind(storeURL); err != nil {
			return err
		}
		c.StoreURL = storeURL
		return nil
	}
}

// WithFetchLimits configures timeout and rate limiting for remote fetches
func WithFetchLimits(timeout time.Duration, requestsPerSec float64, burst int) Option {
	return func(c *Config) error {
		if timeout < 0 || requestsPerSec < 0 || burst < 0 {
			return fmt.Errorf("fetch limits cannot be negative")
		}
		c.FetchTimeout = timeout
		c.FetchRateLimit = requestsPerSec
		c.FetchBurst = burst
		return nil
	}
}

// WithFetchAccess controls which hosts http(s) resources may be fetched from
func WithFetchAccess(allowPrivate bool, allowedHosts ...string) Option {
	return func(c *Config) error {
		c.FetchAllowPrivate = allowPrivate
		c.FetchAllowedHosts = allowedHosts
		return nil
	}
}

// WithS3 enables s3:// resources
func WithS3(region, endpoint, accessKeyID, secretAccessKey string, usePathStyle bool) Option {
	return func(c *Config) error {
		c.EnableS3 = true
		if region != "" {
			c.S3Region = region
		}
		c.S3Endpoint = endpoint
		c.S3AccessKeyID = accessKeyID
		c.S3SecretAccessKey = secretAccessKey
		c.S3UsePathStyle = usePathStyle
		return nil
	}
}

// WithJWTSecret enables bearer token authentication on the API
func WithJWTSecret(secret string) Option {
	return func(c *Config) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithMimeShortcut registers a single shortcut tag
func WithMimeShortcut(tag, mime string) Option {
	return func(c *Config) error {
		if tag == "" || mime == "" {
			return fmt.Errorf("mime shortcut needs a tag and a type")
		}
		if c.MimeShortcuts == nil {
			c.MimeShortcuts = make(map[string]string)
		}
		c.MimeShortcuts[tag] = mime
		return nil
	}
}

// mimeFile is the layout of a shortcut file:
//
//	[shortcuts]
//	md = "text/markdown"
//	xml = "application/xml"
type mimeFile struct {
	Shortcuts map[string]string `toml:"shortcuts"`
}

// WithMimeFile loads shortcut tags from a TOML file
func WithMimeFile(path string) Option {
	return func(c *Config) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read mime file: %w", err)
		}

		var f mimeFile
		if _, err := toml.Decode(string(data), &f); err != nil {
			return fmt.Errorf("failed to parse mime file %s: %w", path, err)
		}

		for tag, mime := range f.Shortcuts {
			if err := WithMimeShortcut(tag, mime)(c); err != nil {
				return err
			}
		}
		return nil
	}
}
