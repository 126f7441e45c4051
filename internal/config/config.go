package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when WIDGET_CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Backend environments.
const (
	EnvProd    = "prod"
	EnvStaging = "staging"
	EnvLocal   = "local"
)

var defaultBackendURLs = map[string]string{
	EnvProd:    "https://6lq71yx10e.execute-api.ap-south-1.amazonaws.com/prod/",
	EnvStaging: "https://m032oaaydf.execute-api.ap-south-1.amazonaws.com/staging/",
	EnvLocal:   "http://localhost:5500",
}

type Config struct {
	Provider struct {
		BaseURL         string `yaml:"base_url"`
		ClientID        string `yaml:"client_id"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"provider"`

	Backend struct {
		Environment    string            `yaml:"environment"`
		URLs           map[string]string `yaml:"urls"`
		TimeoutSeconds int               `yaml:"timeout_seconds"`
	} `yaml:"backend"`

	HTTP struct {
		Port                int `yaml:"port"`
		SubmitRatePerMinute int `yaml:"submit_rate_per_minute"`
	} `yaml:"http"`

	Booking struct {
		SuccessResetMS        int    `yaml:"success_reset_ms"`
		SessionTimeoutMinutes int    `yaml:"session_timeout_minutes"`
		Timezone              string `yaml:"timezone"`
	} `yaml:"booking"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Database struct {
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Admin struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"admin"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err = cfg.validate(); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://api.aurinko.io/v1/book"
	}
	if c.Provider.ClientID == "" {
		c.Provider.ClientID = "eb47d2332e4548645f5ed85e1a0bc3e1"
	}
	if c.Backend.Environment == "" {
		c.Backend.Environment = EnvProd
	}
	c.Backend.Environment = strings.ToLower(c.Backend.Environment)
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/booking_widget.db"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = filepath.Join(filepath.Dir(c.Database.Path), "backups")
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

func (c *Config) validate() error {
	if _, ok := defaultBackendURLs[c.Backend.Environment]; !ok {
		return fmt.Errorf("backend.environment %q: want prod, staging or local", c.Backend.Environment)
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("booking.timezone: %w", err)
	}
	return nil
}

// BackendBaseURL returns the mirror base URL for the selected environment.
func (c *Config) BackendBaseURL() string {
	if u := c.Backend.URLs[c.Backend.Environment]; u != "" {
		return u
	}
	return defaultBackendURLs[c.Backend.Environment]
}

// Location is the zone used for dates and time-of-day buckets.
// An empty timezone means the server's local zone.
func (c *Config) Location() *time.Location {
	if c.Booking.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) ProviderTimeout() time.Duration {
	return seconds(c.Provider.TimeoutSeconds, 15*time.Second)
}

func (c *Config) BackendTimeout() time.Duration {
	return seconds(c.Backend.TimeoutSeconds, 15*time.Second)
}

func (c *Config) CacheTTL() time.Duration {
	if c.Provider.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Provider.CacheTTLSeconds) * time.Second
}

func (c *Config) SuccessResetDelay() time.Duration {
	if c.Booking.SuccessResetMS <= 0 {
		return 2000 * time.Millisecond
	}
	return time.Duration(c.Booking.SuccessResetMS) * time.Millisecond
}

func (c *Config) SessionTimeout() time.Duration {
	if c.Booking.SessionTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.SessionTimeoutMinutes) * time.Minute
}

// Retention is how long journal entries are kept. Zero keeps them forever.
func (c *Config) Retention() time.Duration {
	if c.Database.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func seconds(n int, def time.Duration) time.Duration {
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
