package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Session  SessionConfig  `mapstructure:"session"`
	Requests RequestsConfig `mapstructure:"requests"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// GatewayConfig holds the remote request API configuration
type GatewayConfig struct {
	BaseURL            string           `mapstructure:"base_url"`
	Timeout            time.Duration    `mapstructure:"timeout"`
	RetryAttempts      int              `mapstructure:"retry_attempts"`
	InsecureSkipVerify bool             `mapstructure:"insecure_skip_verify"`
	Endpoints          GatewayEndpoints `mapstructure:"endpoints"`
}

// GatewayEndpoints holds the remote API paths, relative to the base URL
type GatewayEndpoints struct {
	Login          string `mapstructure:"login"`
	Requests       string `mapstructure:"requests"`
	RequestHistory string `mapstructure:"request_history"`
	ApproveSuffix  string `mapstructure:"approve_suffix"`
	RejectSuffix   string `mapstructure:"reject_suffix"`
}

// SessionConfig holds session persistence and cookie configuration
type SessionConfig struct {
	File        string        `mapstructure:"file"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	CookieName  string        `mapstructure:"cookie_name"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// RequestsConfig holds list view defaults
type RequestsConfig struct {
	DefaultPageSize       int    `mapstructure:"default_page_size"`
	PageSizeOptions       []int  `mapstructure:"page_size_options"`
	BulkPageSize          int    `mapstructure:"bulk_page_size"`
	DefaultOrderBy        string `mapstructure:"default_order_by"`
	DefaultOrderDirection string `mapstructure:"default_order_direction"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// Load reads configuration from file and environment variables.
// When configPath is empty and no config file is found the defaults are used.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("REQFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "localhost")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("gateway.base_url", "https://localhost:7151/api")
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("gateway.retry_attempts", 1)
	v.SetDefault("gateway.insecure_skip_verify", false)
	v.SetDefault("gateway.endpoints.login", "/auth/login")
	v.SetDefault("gateway.endpoints.requests", "/Request")
	v.SetDefault("gateway.endpoints.request_history", "/RequestHistory/request")
	v.SetDefault("gateway.endpoints.approve_suffix", "/Approved")
	v.SetDefault("gateway.endpoints.reject_suffix", "/reject")

	v.SetDefault("session.file", "~/.reqflow/session.yaml")
	v.SetDefault("session.lock_timeout", 5*time.Second)
	v.SetDefault("session.cookie_name", "reqflow_session")
	v.SetDefault("session.idle_timeout", 8*time.Hour)

	v.SetDefault("requests.default_page_size", 10)
	v.SetDefault("requests.page_size_options", []int{5, 10, 20, 50})
	v.SetDefault("requests.bulk_page_size", 100)
	v.SetDefault("requests.default_order_by", "created_at")
	v.SetDefault("requests.default_order_direction", "desc")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:4200"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Correlation-ID"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 12*time.Hour)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway base URL is required")
	}
	if _, err := url.ParseRequestURI(config.Gateway.BaseURL); err != nil {
		return fmt.Errorf("invalid gateway base URL: %w", err)
	}
	if config.Gateway.RetryAttempts < 0 {
		return fmt.Errorf("gateway retry attempts must be non-negative")
	}

	if config.Requests.DefaultPageSize <= 0 {
		return fmt.Errorf("default page size must be positive")
	}
	if config.Requests.BulkPageSize <= 0 {
		return fmt.Errorf("bulk page size must be positive")
	}
	for _, size := range config.Requests.PageSizeOptions {
		if size <= 0 {
			return fmt.Errorf("invalid page size option: %d", size)
		}
	}

	switch strings.ToLower(config.Requests.DefaultOrderDirection) {
	case "asc", "desc":
	default:
		return fmt.Errorf("invalid default order direction: %s", config.Requests.DefaultOrderDirection)
	}

	if config.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	return nil
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// GetEndpointURL returns the full URL for a gateway endpoint path
func (g *GatewayConfig) GetEndpointURL(endpoint string) string {
	return strings.TrimRight(g.BaseURL, "/") + endpoint
}

// IsPageSizeAllowed reports whether size is one of the configured page size options.
// An empty option list allows any positive size.
func (r *RequestsConfig) IsPageSizeAllowed(size int) bool {
	if size <= 0 {
		return false
	}
	if len(r.PageSizeOptions) == 0 {
		return true
	}
	for _, option := range r.PageSizeOptions {
		if option == size {
			return true
		}
	}
	return false
}
