package config

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds runtime startup configuration loaded from YAML and the
// environment.
type AppConfig struct {
	Port           int
	Env            string // "development" | "production"
	LogLevel       string
	Paths          RuntimePathsConfig
	AllowedOrigins []string
	Site           SiteConfig
	Auth           AuthConfig
	Store          StoreConfig
	Redis          RedisConfig
	RateLimit      RateLimitConfig
}

type RuntimePathsConfig struct {
	Logs string
}

type SiteConfig struct {
	Title       string
	Description string
}

type AuthConfig struct {
	Password     string
	PasswordHash string // bcrypt; wins over Password when set
	JWTSecret    string
	TokenTTL     time.Duration
	// EphemeralSecret is set when no secret was configured and one was
	// generated for this process. Tokens die with the process.
	EphemeralSecret bool
}

type StoreConfig struct {
	Driver        string
	Timeout       time.Duration
	PostsDir      string
	ResourcesPath string
	GitHub        GitHubConfig
	S3            S3Config
}

type GitHubConfig struct {
	Token          string
	Owner          string
	Repo           string
	Branch         string
	BaseURL        string
	CommitterName  string
	CommitterEmail string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	PathStyle       bool
}

type RedisConfig struct {
	URL string
}

type RateLimitConfig struct {
	LoginPerMinute int
}

type rawAppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"`
	LogLevel       string         `yaml:"log_level"`
	Paths          rawPathsConfig `yaml:"paths"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Site           rawSiteConfig  `yaml:"site"`
	Auth           rawAuthConfig  `yaml:"auth"`
	Store          rawStoreConfig `yaml:"store"`
	Redis          rawRedisConfig `yaml:"redis"`
	RateLimit      rawRateLimit   `yaml:"rate_limit"`
	RedisURL       string         `yaml:"redis_url"`
	JWTSecret      string         `yaml:"jwt_secret"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawSiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type rawAuthConfig struct {
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	JWTSecret    string `yaml:"jwt_secret"`
	TokenTTL     string `yaml:"token_ttl"`
}

type rawStoreConfig struct {
	Driver        string          `yaml:"driver"`
	Timeout       string          `yaml:"timeout"`
	PostsDir      string          `yaml:"posts_dir"`
	ResourcesPath string          `yaml:"resources_path"`
	GitHub        rawGitHubConfig `yaml:"github"`
	S3            rawS3Config     `yaml:"s3"`
}

type rawGitHubConfig struct {
	Token          string `yaml:"token"`
	Owner          string `yaml:"owner"`
	Repo           string `yaml:"repo"`
	Branch         string `yaml:"branch"`
	BaseURL        string `yaml:"base_url"`
	CommitterName  string `yaml:"committer_name"`
	CommitterEmail string `yaml:"committer_email"`
}

type rawS3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	PathStyle       *bool  `yaml:"path_style"`
}

type rawRedisConfig struct {
	URL string `yaml:"url"`
}

type rawRateLimit struct {
	LoginPerMinute *int `yaml:"login_per_minute"`
}

// Load reads configPath, layers environment overrides on top and validates
// the result. A missing file is tolerated so that a deployment can be driven
// by the environment alone; validation still rejects incomplete setups.
func Load(configPath string) (*AppConfig, error) {
	return load(configPath, os.LookupEnv)
}

func load(configPath string, lookup func(string) (string, bool)) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	raw := rawAppConfig{}
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnvOverrides(&raw, lookup)

	cfg := defaultAppConfig()
	if err := applyRawAppConfig(&cfg, raw); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	if cfg.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Auth.JWTSecret = secret
		cfg.Auth.EphemeralSecret = true
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:     defaultPort,
		Env:      defaultEnv,
		LogLevel: defaultLogLevel,
		Site:     SiteConfig{Title: defaultSiteTitle},
		Auth:     AuthConfig{TokenTTL: defaultTokenTTL},
		Store: StoreConfig{
			Driver:        defaultStoreDriver,
			Timeout:       defaultStoreTimeout,
			PostsDir:      defaultPostsDir,
			ResourcesPath: defaultResourcesPath,
			GitHub:        GitHubConfig{Branch: defaultGitHubBranch},
		},
		RateLimit: RateLimitConfig{LoginPerMinute: defaultLoginPerMinute},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = normalizeEnv(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)

	if v := strings.TrimSpace(raw.Site.Title); v != "" {
		cfg.Site.Title = v
	}
	cfg.Site.Description = strings.TrimSpace(raw.Site.Description)

	cfg.Auth.Password = raw.Auth.Password
	cfg.Auth.PasswordHash = strings.TrimSpace(raw.Auth.PasswordHash)
	cfg.Auth.JWTSecret = firstNonEmpty(raw.Auth.JWTSecret, raw.JWTSecret)
	if v := strings.TrimSpace(raw.Auth.TokenTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid auth.token_ttl %q: %w", v, err)
		}
		cfg.Auth.TokenTTL = d
	}

	if err := applyRawStoreConfig(&cfg.Store, raw.Store); err != nil {
		return err
	}

	cfg.Redis.URL = normalizeRedisURL(firstNonEmpty(raw.Redis.URL, raw.RedisURL))
	if raw.RateLimit.LoginPerMinute != nil {
		cfg.RateLimit.LoginPerMinute = *raw.RateLimit.LoginPerMinute
	}
	return nil
}

func applyRawStoreConfig(cfg *StoreConfig, raw rawStoreConfig) error {
	if v := strings.TrimSpace(raw.Driver); v != "" {
		cfg.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid store.timeout %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v := normalizeStorePath(raw.PostsDir); v != "" {
		cfg.PostsDir = v
	}
	if v := normalizeStorePath(raw.ResourcesPath); v != "" {
		cfg.ResourcesPath = v
	}

	gh := raw.GitHub
	cfg.GitHub.Token = strings.TrimSpace(gh.Token)
	cfg.GitHub.Owner = strings.TrimSpace(gh.Owner)
	cfg.GitHub.Repo = strings.TrimSpace(gh.Repo)
	if v := strings.TrimSpace(gh.Branch); v != "" {
		cfg.GitHub.Branch = v
	}
	cfg.GitHub.BaseURL = strings.TrimSpace(gh.BaseURL)
	cfg.GitHub.CommitterName = strings.TrimSpace(gh.CommitterName)
	cfg.GitHub.CommitterEmail = strings.TrimSpace(gh.CommitterEmail)

	s3 := raw.S3
	cfg.S3.Bucket = strings.TrimSpace(s3.Bucket)
	cfg.S3.Region = strings.TrimSpace(s3.Region)
	cfg.S3.Endpoint = strings.TrimSpace(s3.Endpoint)
	cfg.S3.AccessKeyID = strings.TrimSpace(s3.AccessKeyID)
	cfg.S3.SecretAccessKey = strings.TrimSpace(s3.SecretAccessKey)
	cfg.S3.Prefix = normalizeStorePath(s3.Prefix)
	if s3.PathStyle != nil {
		cfg.S3.PathStyle = *s3.PathStyle
	}
	return nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q, expected debug|info|warn|error", c.LogLevel)
	}
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return errors.New("auth.password or auth.password_hash is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid auth.token_ttl %s, expected > 0", c.Auth.TokenTTL)
	}
	if c.Auth.JWTSecret == "" && !c.IsDev() {
		return errors.New("auth.jwt_secret is required outside development")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("invalid store.timeout %s, expected > 0", c.Store.Timeout)
	}
	if c.Store.ResourcesPath == c.Store.PostsDir {
		return errors.New("store.resources_path must differ from store.posts_dir")
	}
	switch c.Store.Driver {
	case DriverGitHub:
		if c.Store.GitHub.Owner == "" || c.Store.GitHub.Repo == "" {
			return errors.New("store.github.owner and store.github.repo are required")
		}
	case DriverS3:
		s3 := c.Store.S3
		if s3.Bucket == "" || s3.Region == "" || s3.AccessKeyID == "" || s3.SecretAccessKey == "" {
			return errors.New("store.s3.bucket/region/access_key_id/secret_access_key are required")
		}
	case DriverMemory:
		if !c.IsDev() {
			return errors.New("store.driver memory is only allowed in development")
		}
	default:
		return fmt.Errorf("unknown store.driver %q, expected github|s3|memory", c.Store.Driver)
	}
	if c.RateLimit.LoginPerMinute < 0 {
		return fmt.Errorf("invalid rate_limit.login_per_minute %d, expected >= 0", c.RateLimit.LoginPerMinute)
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// LogDir returns the configured log directory, or "" to let the logger pick
// its own default.
func (c *AppConfig) LogDir() string {
	if c == nil || c.Paths.Logs == "" {
		return ""
	}
	return filepath.Clean(c.Paths.Logs)
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
