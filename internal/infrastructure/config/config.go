package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig
	API     APIConfig
	Log     LogConfig
	Cache   CacheConfig
	Storage StorageConfig
	Redis   RedisConfig
	Export  ExportConfig
	HTTP    HTTPConfig
	Notify  NotifyConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// APIConfig describes the inventory backend the dashboard talks to
type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// CacheConfig holds query cache settings
type CacheConfig struct {
	RetryCount int
	RetryDelay time.Duration
}

// StorageConfig holds the persisted client state location
type StorageConfig struct {
	Path string // sqlite file, ":memory:" for an ephemeral store
}

// RedisConfig holds Redis connection settings for cross-instance invalidation
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	Channel  string
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ExportConfig holds S3 delivery settings for exported workbooks
type ExportConfig struct {
	S3Enabled    bool
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	Prefix       string
	LocalDir     string
}

// HTTPConfig holds BFF server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxUploadSize    int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
}

// NotifyConfig holds notification lifetimes
type NotifyConfig struct {
	MutationTTL time.Duration
	SettingsTTL time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with XENON_ prefix (e.g., XENON_API_BASE_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

// LoadFile loads configuration from an explicit file path, still honouring env overrides
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("XENON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		API: APIConfig{
			BaseURL:    v.GetString("api.base_url"),
			Timeout:    v.GetDuration("api.timeout"),
			MaxRetries: v.GetInt("api.max_retries"),
			RetryDelay: v.GetDuration("api.retry_delay"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Cache: CacheConfig{
			RetryCount: v.GetInt("cache.retry_count"),
			RetryDelay: v.GetDuration("cache.retry_delay"),
		},
		Storage: StorageConfig{
			Path: v.GetString("storage.path"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Channel:  v.GetString("redis.channel"),
		},
		Export: ExportConfig{
			S3Enabled:    v.GetBool("export.s3_enabled"),
			Endpoint:     v.GetString("export.endpoint"),
			Region:       v.GetString("export.region"),
			Bucket:       v.GetString("export.bucket"),
			AccessKey:    v.GetString("export.access_key"),
			SecretKey:    v.GetString("export.secret_key"),
			UsePathStyle: v.GetBool("export.use_path_style"),
			Prefix:       v.GetString("export.prefix"),
			LocalDir:     v.GetString("export.local_dir"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxUploadSize:    v.GetInt64("http.max_upload_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		},
		Notify: NotifyConfig{
			MutationTTL: v.GetDuration("notify.mutation_ttl"),
			SettingsTTL: v.GetDuration("notify.settings_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration populated only with built-in defaults
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "xenon-dashboard"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "3000"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080/api"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.RetryDelay == 0 {
		cfg.API.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Cache.RetryCount == 0 {
		cfg.Cache.RetryCount = 3
	}
	if cfg.Cache.RetryDelay == 0 {
		cfg.Cache.RetryDelay = time.Second
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "xenon-state.db"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "xenon:cache:invalidate"
	}
	if cfg.Export.Region == "" {
		cfg.Export.Region = "us-east-1"
	}
	if cfg.Export.Prefix == "" {
		cfg.Export.Prefix = "exports"
	}
	if cfg.Export.LocalDir == "" {
		cfg.Export.LocalDir = "exports"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxUploadSize == 0 {
		cfg.HTTP.MaxUploadSize = 10 << 20 // 10MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Notify.MutationTTL == 0 {
		cfg.Notify.MutationTTL = 6 * time.Second
	}
	if cfg.Notify.SettingsTTL == 0 {
		cfg.Notify.SettingsTTL = 3 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries cannot be negative")
	}
	if c.Cache.RetryCount < 0 {
		return fmt.Errorf("cache.retry_count cannot be negative")
	}
	if c.HTTP.MaxUploadSize <= 0 {
		return fmt.Errorf("http.max_upload_size must be positive")
	}

	if c.Export.S3Enabled {
		if c.Export.Bucket == "" {
			return fmt.Errorf("export.bucket is required when export.s3_enabled is true")
		}
		if c.Export.AccessKey == "" || c.Export.SecretKey == "" {
			return fmt.Errorf("export.access_key and export.secret_key are required when export.s3_enabled is true")
		}
	}

	if c.App.Env == "production" {
		if u.Scheme != "https" && u.Hostname() != "localhost" {
			return fmt.Errorf("api.base_url must use https in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
