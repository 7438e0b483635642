package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Backend mode values for WIDGET_BACKEND_MODE.
const (
	BackendModeLive = "live"
	BackendModeMock = "mock"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Widget  WidgetConfig
	Mock    MockConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type WidgetConfig struct {
	// BackendMode selects the live HTTP backend or the in-process
	// simulated one.
	BackendMode string
	// APIBaseURL is the base path of the live backend, e.g.
	// "https://api.example.com/api/v1".
	APIBaseURL string
	// HTTPTimeoutSeconds bounds each slot-fetch or submit call.
	HTTPTimeoutSeconds int
	// ConflictRefreshDelayMS is how long the widget shows the conflict
	// state before refreshing the slot list under the user.
	ConflictRefreshDelayMS int
	// DefaultPlatform is the preselected meeting platform.
	DefaultPlatform string
	// Theme is the identifier handed to the host page as a data
	// attribute set.
	Theme string
}

type MockConfig struct {
	// BusinessHoursStart/End bound generated slots, in 24h local hours.
	BusinessHoursStart int
	BusinessHoursEnd   int
	// AvailabilityRate is the probability that a generated slot is
	// available.
	AvailabilityRate float64
	// BookingTTLSeconds is how long the simulated backend remembers a
	// booked slot.
	BookingTTLSeconds int
}

type LoggingConfig struct {
	Level string
	Dir   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8082")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("WIDGET_BACKEND_MODE", BackendModeLive)
	v.SetDefault("WIDGET_API_BASE_URL", "http://localhost:8082/api/v1")
	v.SetDefault("WIDGET_HTTP_TIMEOUT_SECONDS", 10)
	v.SetDefault("WIDGET_CONFLICT_REFRESH_DELAY_MS", 2000)
	v.SetDefault("WIDGET_DEFAULT_PLATFORM", "zoom")
	v.SetDefault("WIDGET_THEME", "default")
	v.SetDefault("MOCK_BUSINESS_HOURS_START", 9)
	v.SetDefault("MOCK_BUSINESS_HOURS_END", 17)
	v.SetDefault("MOCK_AVAILABILITY_RATE", 0.8)
	v.SetDefault("MOCK_BOOKING_TTL_SECONDS", 86400)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	// Parse allowed CORS origins (comma-separated)
	allowedOrigins := []string{}
	originsStr := v.GetString("ALLOWED_CORS_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins = append(allowedOrigins, origin)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: allowedOrigins,
		},
		Widget: WidgetConfig{
			BackendMode:            v.GetString("WIDGET_BACKEND_MODE"),
			APIBaseURL:             strings.TrimRight(v.GetString("WIDGET_API_BASE_URL"), "/"),
			HTTPTimeoutSeconds:     v.GetInt("WIDGET_HTTP_TIMEOUT_SECONDS"),
			ConflictRefreshDelayMS: v.GetInt("WIDGET_CONFLICT_REFRESH_DELAY_MS"),
			DefaultPlatform:        v.GetString("WIDGET_DEFAULT_PLATFORM"),
			Theme:                  v.GetString("WIDGET_THEME"),
		},
		Mock: MockConfig{
			BusinessHoursStart: v.GetInt("MOCK_BUSINESS_HOURS_START"),
			BusinessHoursEnd:   v.GetInt("MOCK_BUSINESS_HOURS_END"),
			AvailabilityRate:   v.GetFloat64("MOCK_AVAILABILITY_RATE"),
			BookingTTLSeconds:  v.GetInt("MOCK_BOOKING_TTL_SECONDS"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	switch c.Widget.BackendMode {
	case BackendModeLive, BackendModeMock:
	default:
		return fmt.Errorf("WIDGET_BACKEND_MODE must be %q or %q", BackendModeLive, BackendModeMock)
	}

	if c.Widget.BackendMode == BackendModeLive && c.Widget.APIBaseURL == "" {
		return fmt.Errorf("WIDGET_API_BASE_URL is required in live mode")
	}
	if c.Widget.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("WIDGET_HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.Widget.ConflictRefreshDelayMS < 0 {
		return fmt.Errorf("WIDGET_CONFLICT_REFRESH_DELAY_MS must not be negative")
	}

	if c.Mock.BusinessHoursStart < 0 || c.Mock.BusinessHoursEnd > 24 ||
		c.Mock.BusinessHoursStart >= c.Mock.BusinessHoursEnd {
		return fmt.Errorf("mock business hours window %d-%d is invalid", c.Mock.BusinessHoursStart, c.Mock.BusinessHoursEnd)
	}
	if c.Mock.AvailabilityRate < 0 || c.Mock.AvailabilityRate > 1 {
		return fmt.Errorf("MOCK_AVAILABILITY_RATE must be within [0, 1]")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
