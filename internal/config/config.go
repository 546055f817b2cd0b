package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Endpoint source kinds.
const (
	SourceStatic    = "static"
	SourceFile      = "file"
	SourceChainlist = "chainlist"
)

// Config holds all configuration for the application.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Checker   CheckerConfig   `mapstructure:"checker"`
	Endpoints EndpointsConfig `mapstructure:"endpoints"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Chainlist ChainlistConfig `mapstructure:"chainlist"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Encoding   string `mapstructure:"encoding"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// CheckerConfig holds settings related to the probing process.
type CheckerConfig struct {
	RPCTimeout      time.Duration `mapstructure:"rpc_timeout"`
	LightRPCTimeout time.Duration `mapstructure:"light_rpc_timeout"`
	SocketTimeout   time.Duration `mapstructure:"socket_timeout"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Mode            string        `mapstructure:"mode"`
	Continuous      bool          `mapstructure:"continuous"`
	ReportTTL       time.Duration `mapstructure:"report_ttl"`
}

// EndpointsConfig selects where the endpoint lists come from.
type EndpointsConfig struct {
	Source  string   `mapstructure:"source"`
	RPCURLs []string `mapstructure:"rpc_urls"`
	WSURLs  []string `mapstructure:"ws_urls"`
	File    string   `mapstructure:"file"`
	ChainID int64    `mapstructure:"chain_id"`
}

// RemoteConfig holds settings for the remote prober client.
type RemoteConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChainlistConfig holds configuration for the Chainlist data source.
type ChainlistConfig struct {
	URL      string        `mapstructure:"url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// CacheConfig holds settings for the caching layer.
type CacheConfig struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig throttles the remote probe endpoint.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Load reads configuration from a .env file, a config file and environment variables.
func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("app.name", "rpchealth")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size_mb", 10)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("checker.rpc_timeout", "10s")
	v.SetDefault("checker.light_rpc_timeout", "5s")
	v.SetDefault("checker.socket_timeout", "5s")
	v.SetDefault("checker.refresh_interval", "60s")
	v.SetDefault("checker.mode", "local")
	v.SetDefault("checker.continuous", false)
	v.SetDefault("checker.report_ttl", "10m")
	v.SetDefault("endpoints.source", SourceStatic)
	v.SetDefault("endpoints.rpc_urls", []string{})
	v.SetDefault("endpoints.ws_urls", []string{})
	v.SetDefault("endpoints.file", "endpoints.yaml")
	v.SetDefault("endpoints.chain_id", 0)
	v.SetDefault("remote.url", "")
	v.SetDefault("remote.timeout", "30s")
	v.SetDefault("chainlist.url", "https://chainid.network/chains.json")
	v.SetDefault("chainlist.cache_ttl", "1h")
	v.SetDefault("cache.default_expiration", "10m")
	v.SetDefault("cache.cleanup_interval", "1h")
	v.SetDefault("ratelimit.rps", 5)
	v.SetDefault("ratelimit.burst", 10)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		fmt.Printf("Warning: Config file not found in %s or '.', using defaults/env vars\n", configPath)
	}

	v.SetEnvPrefix("RPCHEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the checker cannot run with.
func (c *Config) Validate() error {
	switch c.Endpoints.Source {
	case SourceStatic, SourceFile, SourceChainlist:
	default:
		return fmt.Errorf("invalid endpoints.source %q", c.Endpoints.Source)
	}
	if c.Endpoints.Source == SourceChainlist && c.Endpoints.ChainID <= 0 {
		return fmt.Errorf("endpoints.chain_id is required for the chainlist source")
	}
	if c.Checker.RPCTimeout <= 0 || c.Checker.LightRPCTimeout <= 0 || c.Checker.SocketTimeout <= 0 {
		return fmt.Errorf("checker timeouts must be positive")
	}
	return nil
}

func (c CheckerConfig) GetRPCTimeout() time.Duration {
	return c.RPCTimeout
}

func (c CheckerConfig) GetLightRPCTimeout() time.Duration {
	return c.LightRPCTimeout
}

func (c CheckerConfig) GetSocketTimeout() time.Duration {
	return c.SocketTimeout
}

func (c CheckerConfig) GetRefreshInterval() time.Duration {
	return c.RefreshInterval
}

func (c CheckerConfig) GetReportTTL() time.Duration {
	return c.ReportTTL
}

func (c ChainlistConfig) GetCacheTTL() time.Duration {
	return c.CacheTTL
}

func (c CacheConfig) GetDefaultExpiration() time.Duration {
	return c.DefaultExpiration
}

func (c CacheConfig) GetCleanupInterval() time.Duration {
	return c.CleanupInterval
}
