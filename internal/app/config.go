package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the ivevents backend.
// It is constructed once at process start and read-only thereafter.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	LogLevel        string `mapstructure:"log_level"`
	Environment     string `mapstructure:"environment"`
	FrontendBaseURL string `mapstructure:"frontend_base_url"`
}

// IsDevelopment reports whether the server runs in the development
// environment. Dev-only login and non-Secure cookies key off this.
func (s ServerConfig) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(s.Environment), "development")
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	Session SessionSettings `mapstructure:"session"`
	Google  GoogleSettings  `mapstructure:"google"`
}

// SessionSettings configures session lifetime and cookie transport.
type SessionSettings struct {
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
}

// GoogleSettings configures the Google OIDC login flow. The client is
// constructed once from these values and passed to the SSO handler.
type GoogleSettings struct {
	Enabled      bool   `mapstructure:"enabled"`
	Issuer       string `mapstructure:"issuer"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("IVEVENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate checks invariants that cannot be defaulted away.
func (c *Config) Validate() error {
	if c.Auth.Session.TTL <= 0 {
		return errors.New("auth.session.ttl must be positive")
	}
	if strings.TrimSpace(c.Auth.Session.CookieName) == "" {
		return errors.New("auth.session.cookie_name must not be empty")
	}
	if c.Auth.Google.Enabled {
		if strings.TrimSpace(c.Auth.Google.ClientID) == "" {
			return errors.New("auth.google.client_id must be configured when google login is enabled")
		}
		if strings.TrimSpace(c.Auth.Google.ClientSecret) == "" {
			return errors.New("auth.google.client_secret must be configured when google login is enabled")
		}
		if strings.TrimSpace(c.Auth.Google.RedirectURL) == "" {
			return errors.New("auth.google.redirect_url must be configured when google login is enabled")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.frontend_base_url", "http://localhost:5173")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/ivevents.sqlite")

	v.SetDefault("auth.session.ttl", "168h") // 7 days
	v.SetDefault("auth.session.cookie_name", "session_id")

	v.SetDefault("auth.google.enabled", false)
	v.SetDefault("auth.google.issuer", "https://accounts.google.com")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
