// Package config loads mvnfetch settings from a TOML or YAML file and the
// environment.
//
// The format follows the file extension (.toml, .yaml or .yml). The
// default location is $XDG_CONFIG_HOME/mvnfetch/config.toml; a missing
// default file is not an error. A minimal file:
//
//	policy = "nearest"
//	workers = 8
//
//	[[repository]]
//	id = "central"
//	url = "https://repo.maven.apache.org/maven2"
//
//	[[repository]]
//	id = "internal"
//	url = "https://maven.example.com/releases"
//	username = "${MAVEN_USER}"
//	password = "${MAVEN_PASSWORD}"
//
// ${VAR} references in repository settings are expanded from the
// environment. MVNFETCH_CACHE_DIR, MVNFETCH_REDIS_URL and MVNFETCH_MONGO_URI
// override the file.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mvnfetch/pkg/cache"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/httputil"
	"github.com/matzehuels/mvnfetch/pkg/repository"
	"github.com/matzehuels/mvnfetch/pkg/resolve"
)

// Environment variables that override the file.
const (
	EnvCacheDir = "MVNFETCH_CACHE_DIR"
	EnvRedisURL = "MVNFETCH_REDIS_URL"
	EnvMongoURI = "MVNFETCH_MONGO_URI"
)

// DefaultServerAddr is the listen address of `mvnfetch serve`.
const DefaultServerAddr = ":8080"

// Config holds every setting.
type Config struct {
	CacheDir        string   `toml:"cache_dir" yaml:"cache_dir"`
	Workers         int      `toml:"workers" yaml:"workers"`
	Policy          string   `toml:"policy" yaml:"policy"`
	Scopes          []string `toml:"scopes" yaml:"scopes"`
	IncludeOptional bool     `toml:"include_optional" yaml:"include_optional"`
	Checksums       string   `toml:"checksums" yaml:"checksums"`

	Retry        Retry               `toml:"retry" yaml:"retry"`
	Repositories []repository.Config `toml:"repository" yaml:"repositories"`
	Cache        Cache               `toml:"cache" yaml:"cache"`
	History      History             `toml:"history" yaml:"history"`
	Server       Server              `toml:"server" yaml:"server"`
}

// Retry configures network retries.
type Retry struct {
	Attempts  int           `toml:"attempts" yaml:"attempts"`
	BaseDelay time.Duration `toml:"base_delay" yaml:"base_delay"`
	MaxDelay  time.Duration `toml:"max_delay" yaml:"max_delay"`
}

// Cache configures the metadata cache.
type Cache struct {
	Backend  string        `toml:"backend" yaml:"backend"` // file, redis or none
	TTL      time.Duration `toml:"ttl" yaml:"ttl"`         // metadata and snapshot POMs
	RedisURL string        `toml:"redis_url" yaml:"redis_url"`
}

// History configures run history for the HTTP service.
type History struct {
	MongoURI string `toml:"mongo_uri" yaml:"mongo_uri"`
	Database string `toml:"database" yaml:"database"`
}

// Server configures `mvnfetch serve`.
type Server struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// DefaultPath returns $XDG_CONFIG_HOME/mvnfetch/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mvnfetch", "config.toml"), nil
}

// Load reads path, or the default location when path is empty, then
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return finish(&Config{})
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return finish(&Config{})
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return finish(cfg)
}

// Parse decodes data in the format named by ext. No overrides are applied.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".toml", "":
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
		if err != nil {
			return nil, err
		}
		if keys := md.Undecoded(); len(keys) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", keys[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}
	return &cfg, nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
		if c.Cache.Backend == "" {
			c.Cache.Backend = cache.BackendRedis
		}
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.History.MongoURI = v
	}
	for i, r := range c.Repositories {
		r.URL = os.ExpandEnv(r.URL)
		r.Username = os.ExpandEnv(r.Username)
		r.Password = os.ExpandEnv(r.Password)
		c.Repositories[i] = r
	}
}

// Validate checks enumerations and repository URLs.
func (c *Config) Validate() error {
	if _, err := resolve.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if _, err := repository.ParseChecksumPolicy(c.Checksums); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "", cache.BackendFile, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis requires redis_url or %s", EnvRedisURL)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must not be negative")
	}
	if c.Retry.Attempts < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "retry attempts must not be negative")
	}
	if _, err := repository.Normalize(c.Repositories); err != nil {
		return err
	}
	return nil
}

// RetryPolicy returns the configured policy on top of [httputil.DefaultPolicy].
func (c *Config) RetryPolicy() httputil.Policy {
	p := httputil.DefaultPolicy
	if c.Retry.Attempts > 0 {
		p.MaxAttempts = c.Retry.Attempts
	}
	if c.Retry.BaseDelay > 0 {
		p.BaseDelay = c.Retry.BaseDelay
	}
	if c.Retry.MaxDelay > 0 {
		p.MaxDelay = c.Retry.MaxDelay
	}
	return p
}

// Root returns the cache root: CacheDir or $XDG_CACHE_HOME/mvnfetch.
func (c *Config) Root() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate cache directory")
	}
	return filepath.Join(dir, "mvnfetch"), nil
}

// StoreDir is where artifacts are materialized.
func (c *Config) StoreDir() (string, error) {
	root, err := c.Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "repository"), nil
}

// CacheOptions returns the metadata cache settings for [cache.Open].
func (c *Config) CacheOptions() (cache.Options, error) {
	root, err := c.Root()
	if err != nil {
		return cache.Options{}, err
	}
	return cache.Options{
		Backend:  c.Cache.Backend,
		Dir:      filepath.Join(root, "metadata"),
		RedisURL: c.Cache.RedisURL,
	}, nil
}

// ServerAddr returns the configured listen address or [DefaultServerAddr].
func (c *Config) ServerAddr() string {
	if c.Server.Addr != "" {
		return c.Server.Addr
	}
	return DefaultServerAddr
}
