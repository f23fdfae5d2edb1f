// Package config loads revdeps settings from a TOML file, a .env file and
// REVDEPS_* environment variables, in that order of increasing precedence.
// Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/matzehuels/revdeps/pkg/cache"
	"github.com/matzehuels/revdeps/pkg/errors"
	"github.com/matzehuels/revdeps/pkg/loader"
)

// FileName is the config file looked up in the working directory.
const FileName = "revdeps.toml"

// Config holds every setting the CLI and the server read.
type Config struct {
	Source SourceConfig `toml:"source"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`

	// Path is the file the config was read from, empty when none was found.
	Path string `toml:"-"`
}

// SourceConfig selects where manifests come from. A non-empty Mongo.URI
// takes precedence over Dir.
type SourceConfig struct {
	Dir         string      `toml:"dir" validate:"required"`
	Recursive   bool        `toml:"recursive"`
	Pattern     string      `toml:"pattern" validate:"required,glob"`
	Concurrency int         `toml:"concurrency" validate:"gte=1,lte=256"`
	Mongo       MongoConfig `toml:"mongo"`
}

// MongoConfig locates a manifest collection.
type MongoConfig struct {
	URI        string `toml:"uri" validate:"omitempty,uri"`
	Database   string `toml:"database" validate:"required"`
	Collection string `toml:"collection" validate:"required"`
}

// CacheConfig controls the tree cache.
type CacheConfig struct {
	Disabled bool          `toml:"disabled"`
	Dir      string        `toml:"dir"`
	TTL      time.Duration `toml:"ttl" validate:"gte=0"`
	// RedisAddr switches the server to a shared Redis cache.
	RedisAddr string `toml:"redis_addr" validate:"omitempty,hostname_port"`
	// RedisPrefix scopes keys when the database is shared.
	RedisPrefix string `toml:"redis_prefix"`
	LRUSize     int    `toml:"lru_size" validate:"gte=0"`
}

// ServerConfig configures `revdeps serve`.
type ServerConfig struct {
	Addr     string        `toml:"addr" validate:"required,hostname_port"`
	Watch    bool          `toml:"watch"`
	Debounce time.Duration `toml:"debounce" validate:"gte=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Dir:         ".",
			Pattern:     loader.DefaultPattern,
			Concurrency: loader.DefaultConcurrency,
			Mongo: MongoConfig{
				Database:   loader.DefaultMongoDatabase,
				Collection: loader.DefaultMongoCollection,
			},
		},
		Cache: CacheConfig{
			TTL:     cache.DefaultTTL,
			LRUSize: cache.DefaultLRUSize,
		},
		Server: ServerConfig{
			Addr:     ":8080",
			Debounce: loader.DefaultDebounce,
		},
	}
}

// Load reads the config file at path. When path is empty it tries
// ./revdeps.toml and then $XDG_CONFIG_HOME/revdeps/config.toml; finding
// neither is not an error. Environment overrides are applied and the
// result is validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	file, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		if err := cfg.decodeFile(file); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
		}
		return path, nil
	}
	candidates := []string{FileName}
	if dir, err := userConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "revdeps", "config.toml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

func userConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg, nil
	}
	return os.UserConfigDir()
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	c.Path = path
	return nil
}

// applyEnv overrides settings from REVDEPS_* variables.
func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"REVDEPS_DIR":              &c.Source.Dir,
		"REVDEPS_MONGO_URI":        &c.Source.Mongo.URI,
		"REVDEPS_MONGO_DATABASE":   &c.Source.Mongo.Database,
		"REVDEPS_MONGO_COLLECTION": &c.Source.Mongo.Collection,
		"REVDEPS_REDIS_ADDR":       &c.Cache.RedisAddr,
		"REVDEPS_ADDR":             &c.Server.Addr,
	}
	for name, dst := range strVars {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v := os.Getenv("REVDEPS_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "REVDEPS_CACHE_TTL")
		}
		c.Cache.TTL = ttl
	}
	if v := os.Getenv("REVDEPS_NO_CACHE"); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "REVDEPS_NO_CACHE")
		}
		c.Cache.Disabled = disabled
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		_, err := filepath.Match(fl.Field().String(), "")
		return err == nil
	})
	return v
}

// Validate checks every field. Call it again after applying flags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return errors.New(errors.ErrCodeInvalidConfig, "invalid config: %s", strings.Join(msgs, "; "))
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	return nil
}

// ManifestSource builds the manifest source the settings describe.
func (c *Config) ManifestSource(logger *log.Logger) loader.Source {
	if c.Source.Mongo.URI != "" {
		return loader.Mongo{
			URI:        c.Source.Mongo.URI,
			Database:   c.Source.Mongo.Database,
			Collection: c.Source.Mongo.Collection,
			Logger:     logger,
		}
	}
	return c.Dir(logger)
}

// Dir returns the directory source, which the watcher also uses.
func (c *Config) Dir(logger *log.Logger) loader.Dir {
	return loader.Dir{
		Path:        c.Source.Dir,
		Recursive:   c.Source.Recursive,
		Pattern:     c.Source.Pattern,
		Concurrency: c.Source.Concurrency,
		Logger:      logger,
	}
}
