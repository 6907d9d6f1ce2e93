package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Kegtron  KegtronConfig  `yaml:"kegtron"`
	Slack    SlackConfig    `yaml:"slack"`
	Registry RegistryConfig `yaml:"registry"`
	Alerts   AlertConfig    `yaml:"alerts"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP front door configuration.
type ServerConfig struct {
	Port            int     `yaml:"port" envconfig:"PORT"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// KegtronConfig holds telemetry and device settings.
type KegtronConfig struct {
	APIURL        string        `yaml:"api_url" envconfig:"KEGTRON_API_URL"`
	TTLSeconds    int           `yaml:"ttl_seconds" envconfig:"KEGTRON_TTL_SECONDS"`
	TTL           time.Duration `yaml:"-"` // Ignored by YAML parser
	DefaultDevice string        `yaml:"default_device" envconfig:"KEGTRON_DEFAULT_DEVICE"`
	// Devices is a static device list used when no registry URL is configured.
	Devices []DeviceConfig `yaml:"devices"`
}

// DeviceConfig describes one named Kegtron device and its telemetry credentials.
type DeviceConfig struct {
	Name   string   `yaml:"name"`
	Tokens []string `yaml:"tokens"`
}

// SlackConfig holds outbound Slack API settings and an optional static workspace list.
type SlackConfig struct {
	ViewsOpenURL string `yaml:"views_open_url" envconfig:"SLACK_VIEWS_OPEN_URL"`
	// Workspaces is a static auth list used when no registry URL is configured.
	Workspaces []WorkspaceConfig `yaml:"workspaces"`
}

// WorkspaceConfig describes one installed Slack workspace.
type WorkspaceConfig struct {
	Name     string `yaml:"name"`
	BotToken string `yaml:"bot_token"`
	TeamID   string `yaml:"team_id"`
}

// RegistryConfig points at the bootstrap documents holding workspace auths and
// device definitions, refreshed periodically.
type RegistryConfig struct {
	AuthsURL       string        `yaml:"auths_url" envconfig:"REGISTRY_AUTHS_URL"`
	DevicesURL     string        `yaml:"devices_url" envconfig:"REGISTRY_DEVICES_URL"`
	RefreshSeconds int           `yaml:"refresh_seconds"`
	Refresh        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// AlertConfig holds the web push settings for empty-keg alerts.
type AlertConfig struct {
	Enabled         bool               `yaml:"enabled"`
	VAPIDPublicKey  string             `yaml:"vapid_public_key" envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string             `yaml:"vapid_private_key" envconfig:"VAPID_PRIVATE_KEY"`
	Subject         string             `yaml:"subject"`
	TTL             int                `yaml:"ttl"`
	WorkerPoolSize  int                `yaml:"worker_pool_size"`
	Subscribers     []SubscriberConfig `yaml:"subscribers"`
}

// SubscriberConfig is one web push subscription receiving empty-keg alerts.
type SubscriberConfig struct {
	Endpoint string `yaml:"endpoint"`
	P256DH   string `yaml:"p256dh"`
	Auth     string `yaml:"auth"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" envconfig:"LOG_PRETTY"`
}

// Load reads configuration from a YAML file and environment variables. A
// missing file is not an error; defaults plus the environment are enough to
// run against static workspace and device lists.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case os.IsNotExist(err):
		// fall through to env + defaults
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	Normalize(&cfg)
	return &cfg, nil
}

// Normalize fills in defaults for anything the file and environment left unset.
func Normalize(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 15
	}

	if cfg.Kegtron.APIURL == "" {
		cfg.Kegtron.APIURL = "https://mdash.net/api/v2/m/device"
	}
	if cfg.Kegtron.TTLSeconds <= 0 {
		cfg.Kegtron.TTLSeconds = 60
	}
	cfg.Kegtron.TTL = time.Duration(cfg.Kegtron.TTLSeconds) * time.Second
	if cfg.Kegtron.DefaultDevice == "" && len(cfg.Kegtron.Devices) > 0 {
		cfg.Kegtron.DefaultDevice = cfg.Kegtron.Devices[0].Name
	}

	if cfg.Slack.ViewsOpenURL == "" {
		cfg.Slack.ViewsOpenURL = "https://slack.com/api/views.open"
	}

	if cfg.Registry.RefreshSeconds <= 0 {
		cfg.Registry.RefreshSeconds = 3600
	}
	cfg.Registry.Refresh = time.Duration(cfg.Registry.RefreshSeconds) * time.Second

	if cfg.Alerts.TTL <= 0 {
		cfg.Alerts.TTL = 3600
	}
	if cfg.Alerts.WorkerPoolSize <= 0 {
		cfg.Alerts.WorkerPoolSize = 1
	}
}
