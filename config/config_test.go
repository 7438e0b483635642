package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, BackendModeLive, cfg.Widget.BackendMode)
	assert.Equal(t, "http://localhost:8082/api/v1", cfg.Widget.APIBaseURL)
	assert.Equal(t, 10, cfg.Widget.HTTPTimeoutSeconds)
	assert.Equal(t, 2000, cfg.Widget.ConflictRefreshDelayMS)
	assert.Equal(t, "zoom", cfg.Widget.DefaultPlatform)
	assert.Equal(t, "default", cfg.Widget.Theme)
	assert.Equal(t, 9, cfg.Mock.BusinessHoursStart)
	assert.Equal(t, 17, cfg.Mock.BusinessHoursEnd)
	assert.Equal(t, 0.8, cfg.Mock.AvailabilityRate)
	assert.Equal(t, 86400, cfg.Mock.BookingTTLSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WIDGET_BACKEND_MODE", "mock")
	t.Setenv("ALLOWED_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, BackendModeMock, cfg.Widget.BackendMode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_RejectsUnknownBackendMode(t *testing.T) {
	t.Setenv("WIDGET_BACKEND_MODE", "remote")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WIDGET_BACKEND_MODE")
}

func TestLoad_TrimsBaseURLTrailingSlash(t *testing.T) {
	t.Setenv("WIDGET_API_BASE_URL", "https://api.example.com/api/v1/")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api/v1", cfg.Widget.APIBaseURL)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8082",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Widget: WidgetConfig{
			BackendMode:            BackendModeMock,
			HTTPTimeoutSeconds:     10,
			ConflictRefreshDelayMS: 2000,
		},
		Mock: MockConfig{
			BusinessHoursStart: 9,
			BusinessHoursEnd:   17,
			AvailabilityRate:   0.8,
			BookingTTLSeconds:  3600,
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"no origins", func(c *Config) { c.Server.AllowedOrigins = nil }},
		{"bad backend mode", func(c *Config) { c.Widget.BackendMode = "remote" }},
		{"live without base url", func(c *Config) {
			c.Widget.BackendMode = BackendModeLive
			c.Widget.APIBaseURL = ""
		}},
		{"zero timeout", func(c *Config) { c.Widget.HTTPTimeoutSeconds = 0 }},
		{"negative refresh delay", func(c *Config) { c.Widget.ConflictRefreshDelayMS = -1 }},
		{"inverted business hours", func(c *Config) {
			c.Mock.BusinessHoursStart = 17
			c.Mock.BusinessHoursEnd = 9
		}},
		{"availability rate above one", func(c *Config) { c.Mock.AvailabilityRate = 1.2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnvironmentChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Server.AppEnv = "development"
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Server.AppEnv = "production"
	cfg.Server.GinMode = "release"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}
