package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dynasty-blog/dynasty/pkg/pagination"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Search    SearchConfig    `mapstructure:"search"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Blog      BlogConfig      `mapstructure:"blog"`
	Media     MediaConfig     `mapstructure:"media"`
	Email     EmailConfig     `mapstructure:"email"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Pages     PagesConfig     `mapstructure:"pages"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// TrustForwardedProto honours X-Forwarded-Proto when building absolute URLs
	TrustForwardedProto bool `mapstructure:"trust_forwarded_proto"`
	// BaseURL overrides the request host in absolute URLs when set
	BaseURL string `mapstructure:"base_url"`
	// AllowedHosts limits the Host headers absolute URLs are built from
	// when BaseURL is empty
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path         string `mapstructure:"path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// SearchConfig contains search index configuration
type SearchConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	IndexPath    string  `mapstructure:"index_path"`
	MinRelevance float64 `mapstructure:"min_relevance"`
	TitleBoost   float64 `mapstructure:"title_boost"`
	MaxResults   int     `mapstructure:"max_results"`
}

// CacheConfig contains the render cache configuration
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// BlogConfig contains reader-facing content settings
type BlogConfig struct {
	Title            string `mapstructure:"title"`
	Description      string `mapstructure:"description"`
	PageSize         int    `mapstructure:"page_size"`
	PageOutOfRange   string `mapstructure:"page_out_of_range"` // clamp, error
	SimilarLimit     int    `mapstructure:"similar_limit"`
	FeedItems        int    `mapstructure:"feed_items"`
	FeedExcerptWords int    `mapstructure:"feed_excerpt_words"`
	LatestCount      int    `mapstructure:"latest_count"`
	Timezone         string `mapstructure:"timezone"`
}

// Location returns the site timezone. Call after Load has validated it.
func (b BlogConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PaginationPolicy returns the configured out-of-range policy
func (b BlogConfig) PaginationPolicy() pagination.Policy {
	p, err := pagination.ParsePolicy(b.PageOutOfRange)
	if err != nil {
		return pagination.Clamp
	}
	return p
}

// MediaConfig contains attachment storage configuration
type MediaConfig struct {
	Backend     string     `mapstructure:"backend"` // local, s3, ipfs
	Root        string     `mapstructure:"root"`
	URL         string     `mapstructure:"url"`
	MaxUploadMB int64      `mapstructure:"max_upload_mb"`
	S3          S3Config   `mapstructure:"s3"`
	IPFS        IPFSConfig `mapstructure:"ipfs"`
}

// MaxUploadBytes returns the attachment size limit in bytes
func (m MediaConfig) MaxUploadBytes() int64 {
	return m.MaxUploadMB * 1024 * 1024
}

// S3Config contains S3-compatible object storage configuration
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	PublicURL string `mapstructure:"public_url"`
}

// IPFSConfig contains IPFS client configuration
type IPFSConfig struct {
	APIEndpoint string        `mapstructure:"api_endpoint"`
	Gateway     string        `mapstructure:"gateway"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Pin         bool          `mapstructure:"pin"`
}

// EmailConfig contains outbound mail configuration
type EmailConfig struct {
	Backend  string        `mapstructure:"backend"` // smtp, console
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	UseTLS   bool          `mapstructure:"use_tls"`
	UseSSL   bool          `mapstructure:"use_ssl"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTExpiry          time.Duration `mapstructure:"jwt_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_token_expiry"`
	BcryptCost         int           `mapstructure:"bcrypt_cost"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// RateLimitConfig limits comment and share submissions per client
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// CORSConfig contains CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PagesConfig points at the static about/contact documents
type PagesConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load loads configuration from file and environment variables
// Priority: ENV vars > config.yaml > defaults
func Load() (*Config, error) {
	return LoadFrom(viper.New(), "")
}

// LoadFrom loads configuration into v. An empty configFile searches
// ./configs and the working directory for config.yaml.
func LoadFrom(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.trust_forwarded_proto", false)
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.allowed_hosts", []string{"localhost", "127.0.0.1", "[::1]"})

	v.SetDefault("database.path", "./data/blog.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("search.enabled", true)
	v.SetDefault("search.index_path", "./data/search.bleve")
	v.SetDefault("search.min_relevance", 0.3)
	v.SetDefault("search.title_boost", 2.0)
	v.SetDefault("search.max_results", 50)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "./data/cache")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("blog.title", "Dynasty Blog")
	v.SetDefault("blog.description", "New posts from Dynasty Blog")
	v.SetDefault("blog.page_size", 3)
	v.SetDefault("blog.page_out_of_range", "clamp")
	v.SetDefault("blog.similar_limit", 4)
	v.SetDefault("blog.feed_items", 5)
	v.SetDefault("blog.feed_excerpt_words", 30)
	v.SetDefault("blog.latest_count", 5)
	v.SetDefault("blog.timezone", "Europe/London")

	v.SetDefault("media.backend", "local")
	v.SetDefault("media.root", "./media")
	v.SetDefault("media.url", "/media/")
	v.SetDefault("media.max_upload_mb", 50)
	v.SetDefault("media.s3.endpoint", "")
	v.SetDefault("media.s3.access_key", "")
	v.SetDefault("media.s3.secret_key", "")
	v.SetDefault("media.s3.use_ssl", false)
	v.SetDefault("media.s3.public_url", "")
	v.SetDefault("media.s3.bucket", "blog-media")
	v.SetDefault("media.ipfs.api_endpoint", "http://localhost:5001")
	v.SetDefault("media.ipfs.gateway", "https://ipfs.io/ipfs/")
	v.SetDefault("media.ipfs.timeout", "60s")
	v.SetDefault("media.ipfs.pin", true)

	v.SetDefault("email.backend", "smtp")
	v.SetDefault("email.host", "smtp.gmail.com")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.from", "webmaster@localhost")
	v.SetDefault("email.timeout", "15s")

	// Secrets have empty defaults so AutomaticEnv can bind them at Unmarshal
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiry", "24h")
	v.SetDefault("auth.refresh_token_expiry", "168h") // 7 days
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("pages.dir", "./pages")
}

func validate(cfg *Config) error {
	if cfg.Server.Mode != "debug" && cfg.Server.Mode != "release" && cfg.Server.Mode != "test" {
		return fmt.Errorf("server.mode must be 'debug', 'release' or 'test', got: %s", cfg.Server.Mode)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", cfg.Server.Port)
	}

	if cfg.Server.BaseURL != "" {
		u, err := url.Parse(cfg.Server.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server.base_url must be an absolute http(s) URL, got: %s", cfg.Server.BaseURL)
		}
	} else if len(cfg.Server.AllowedHosts) == 0 {
		return fmt.Errorf("server.allowed_hosts is required when server.base_url is empty")
	}

	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if cfg.Search.Enabled && cfg.Search.IndexPath == "" {
		return fmt.Errorf("search.index_path is required when search is enabled")
	}
	if cfg.Search.MinRelevance < 0 || cfg.Search.MinRelevance > 1 {
		return fmt.Errorf("search.min_relevance must be between 0 and 1, got: %v", cfg.Search.MinRelevance)
	}

	if cfg.Cache.Enabled && cfg.Cache.Path == "" {
		return fmt.Errorf("cache.path is required when the cache is enabled")
	}

	if cfg.Blog.PageSize < 1 {
		return fmt.Errorf("blog.page_size must be positive, got: %d", cfg.Blog.PageSize)
	}
	if _, err := pagination.ParsePolicy(cfg.Blog.PageOutOfRange); err != nil {
		return fmt.Errorf("blog.page_out_of_range: %w", err)
	}
	if cfg.Blog.SimilarLimit < 1 || cfg.Blog.FeedItems < 1 || cfg.Blog.LatestCount < 1 {
		return fmt.Errorf("blog.similar_limit, blog.feed_items and blog.latest_count must be positive")
	}
	if _, err := time.LoadLocation(cfg.Blog.Timezone); err != nil {
		return fmt.Errorf("blog.timezone: %w", err)
	}

	switch cfg.Media.Backend {
	case "local":
		if cfg.Media.Root == "" {
			return fmt.Errorf("media.root is required for the local backend")
		}
	case "s3":
		if cfg.Media.S3.Endpoint == "" || cfg.Media.S3.Bucket == "" {
			return fmt.Errorf("media.s3.endpoint and media.s3.bucket are required for the s3 backend")
		}
	case "ipfs":
		if cfg.Media.IPFS.APIEndpoint == "" {
			return fmt.Errorf("media.ipfs.api_endpoint is required for the ipfs backend")
		}
	default:
		return fmt.Errorf("media.backend must be 'local', 's3' or 'ipfs', got: %s", cfg.Media.Backend)
	}
	if cfg.Media.MaxUploadMB < 1 {
		return fmt.Errorf("media.max_upload_mb must be positive")
	}

	if cfg.Email.Backend != "smtp" && cfg.Email.Backend != "console" {
		return fmt.Errorf("email.backend must be 'smtp' or 'console', got: %s", cfg.Email.Backend)
	}
	if cfg.Email.UseTLS && cfg.Email.UseSSL {
		return fmt.Errorf("email.use_tls and email.use_ssl are mutually exclusive")
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(cfg.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters long")
	}
	if cfg.Auth.BcryptCost < 10 || cfg.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 10 and 31, got: %d", cfg.Auth.BcryptCost)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got: %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text', got: %s", cfg.Logging.Format)
	}

	return nil
}
