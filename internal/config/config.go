// Package config loads runtime settings from the environment.
//
// Variables are prefixed with YATUBE_, e.g. YATUBE_PORT=8000. A .env file
// in the working directory is read first when present; real environment
// variables win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const Prefix = "yatube"

type Config struct {
	Port     int    `envconfig:"port" default:"8000"`
	DBPath   string `envconfig:"db_path" default:"data/yatube.db"`
	LogLevel string `envconfig:"log_level" default:"info"`

	JWTSecret     string        `envconfig:"jwt_secret"`
	SessionSecret string        `envconfig:"session_secret"`
	TokenTTL      time.Duration `envconfig:"token_ttl" default:"24h"`
	SecureCookies bool          `envconfig:"secure_cookies" default:"false"`

	PageSize      int           `envconfig:"page_size" default:"10"`
	IndexCacheTTL time.Duration `envconfig:"index_cache_ttl" default:"20s"`
	CacheBackend  string        `envconfig:"cache_backend" default:"memory"`
	RedisAddr     string        `envconfig:"redis_addr" default:"localhost:6379"`

	StorageBackend string `envconfig:"storage_backend" default:"local"`
	MediaDir       string `envconfig:"media_dir" default:"media"`
	MediaURL       string `envconfig:"media_url" default:"/media/"`
	S3Bucket       string `envconfig:"s3_bucket"`
	S3Region       string `envconfig:"s3_region" default:"us-east-1"`
	S3Endpoint     string `envconfig:"s3_endpoint"`
	S3AccessKey    string `envconfig:"s3_access_key"`
	S3SecretKey    string `envconfig:"s3_secret_key"`
	S3PublicURL    string `envconfig:"s3_public_url"`
	ImageMaxWidth  int    `envconfig:"image_max_width" default:"960"`
	ImageMaxHeight int    `envconfig:"image_max_height" default:"960"`

	GitHubClientID     string `envconfig:"github_client_id"`
	GitHubClientSecret string `envconfig:"github_client_secret"`
	GitHubCallbackURL  string `envconfig:"github_callback_url" default:"http://localhost:8000/auth/github/callback"`
}

// Load reads envFile (ignored when missing) and then the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}

	c := &Config{}
	if err := envconfig.Process(Prefix, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// Validate checks the settings needed to serve requests. Commands that only
// touch the database can skip it.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("YATUBE_JWT_SECRET must be at least 16 characters"))
	}
	if len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("YATUBE_SESSION_SECRET must be at least 32 characters"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size %d must be positive", c.PageSize))
	}

	switch c.CacheBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("YATUBE_REDIS_ADDR is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q (want memory or redis)", c.CacheBackend))
	}

	switch c.StorageBackend {
	case "local":
		if !strings.HasPrefix(c.MediaURL, "/") {
			errs = append(errs, fmt.Errorf("media URL %q must start with /", c.MediaURL))
		}
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("YATUBE_S3_BUCKET is required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q (want local or s3)", c.StorageBackend))
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
