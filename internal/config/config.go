// Package config loads newsdesk configuration from an optional YAML file,
// the environment and built-in defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr"`
	Env        string `yaml:"env"`
	UploadsDir string `yaml:"uploads_dir"`
}

// StorageConfig describes where the four document stores and the news index
// live. With InMemory set no directories are created.
type StorageConfig struct {
	DataDir    string        `yaml:"data_dir"`
	InMemory   bool          `yaml:"in_memory"`
	RedisAddr  string        `yaml:"redis_addr"`
	GCInterval time.Duration `yaml:"-"`

	GCIntervalRaw string `yaml:"gc_interval"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"-"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`

	TokenTTLRaw string `yaml:"token_ttl"`
}

// LoggingConfig selects the zap level and encoding. An empty Format keeps
// the environment's default: JSON in production, console otherwise.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Production reports whether error responses must omit stack traces.
func (c *Config) Production() bool {
	return c.Server.Env == EnvProduction
}

// BootstrapAdminEnabled reports whether the configured admin login bypass is
// active.
func (a AuthConfig) BootstrapAdminEnabled() bool {
	return a.AdminEmail != "" && a.AdminPassword != ""
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":5000",
			Env:        EnvDevelopment,
			UploadsDir: "uploads",
		},
		Storage: StorageConfig{
			DataDir:    "data",
			RedisAddr:  "localhost:6379",
			GCInterval: 5 * time.Minute,
		},
		Auth: AuthConfig{
			JWTSecret:  "dev-jwt-secret",
			TokenTTL:   24 * time.Hour,
			BcryptCost: bcrypt.DefaultCost,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides and validates the result. An empty path skips the
// file. Environment variables in the form ${VAR_NAME} are expanded inside
// the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if err := cfg.parseDurations(); err != nil {
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

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} with the value of VAR. Unset variables expand to
// the empty string.
func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

func (c *Config) parseDurations() error {
	if c.Storage.GCIntervalRaw != "" {
		d, err := parseDuration(c.Storage.GCIntervalRaw)
		if err != nil {
			return fmt.Errorf("invalid storage.gc_interval %q: %w", c.Storage.GCIntervalRaw, err)
		}
		c.Storage.GCInterval = d
	}
	if c.Auth.TokenTTLRaw != "" {
		d, err := parseDuration(c.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("invalid auth.token_ttl %q: %w", c.Auth.TokenTTLRaw, err)
		}
		c.Auth.TokenTTL = d
	}
	return nil
}

// parseDuration accepts Go durations ("90m", "2h30m") and whole days in the
// form deployments have always used for token lifetimes ("1d", "7d").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("time: invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// applyEnv honours the environment variables the service has always been
// deployed with.
func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("JWT_EXPIRES_IN"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_EXPIRES_IN %q: %w", v, err)
		}
		c.Auth.TokenTTL = d
	}
	if v := os.Getenv("BCRYPT_SALT_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_SALT_ROUNDS %q: %w", v, err)
		}
		c.Auth.BcryptCost = n
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		c.Auth.AdminEmail = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.Auth.AdminPassword = v
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("auth.admin_email and auth.admin_password must be set together")
	}
	if !c.Storage.InMemory && c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required unless storage.in_memory is set")
	}
	if c.Storage.RedisAddr == "" {
		return fmt.Errorf("storage.redis_addr is required")
	}
	return nil
}
