package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPaywallKey is the monetization SDK key the host app ships with.
const DefaultPaywallKey = "pk_a8d000b9824387f66332c9958e30bfad0e9b22ec844b52fc"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Supabase  SupabaseConfig  `yaml:"supabase"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Paywall   PaywallConfig   `yaml:"paywall"`
	Chat      ChatConfig      `yaml:"chat"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"FITCOACH_SERVER_HOST"`
	Port int    `yaml:"port" env:"FITCOACH_SERVER_PORT"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"DATABASE_URL"`
	Host     string `yaml:"host" env:"FITCOACH_DB_HOST"`
	Port     int    `yaml:"port" env:"FITCOACH_DB_PORT"`
	Name     string `yaml:"name" env:"FITCOACH_DB_NAME"`
	User     string `yaml:"user" env:"FITCOACH_DB_USER"`
	Password string `yaml:"password" env:"FITCOACH_DB_PASSWORD"`
	SSLMode  string `yaml:"sslmode" env:"FITCOACH_DB_SSLMODE"`
}

// SupabaseConfig points at the hosted auth service.
type SupabaseConfig struct {
	URL            string `yaml:"url" env:"SUPABASE_URL"`
	ServiceRoleKey string `yaml:"service_role_key" env:"SUPABASE_SERVICE_ROLE_KEY"`
}

type GeminiConfig struct {
	APIKey  string        `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model   string        `yaml:"model" env:"FITCOACH_GEMINI_MODEL"`
	BaseURL string        `yaml:"base_url" env:"FITCOACH_GEMINI_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"FITCOACH_GEMINI_TIMEOUT"`
}

type PaywallConfig struct {
	APIKey   string `yaml:"api_key" env:"FITCOACH_PAYWALL_API_KEY"`
	Channel  string `yaml:"channel"`
	StateDir string `yaml:"state_dir" env:"FITCOACH_PAYWALL_STATE_DIR"`
}

type ChatConfig struct {
	PersistMessages bool `yaml:"persist_messages" env:"FITCOACH_CHAT_PERSIST_MESSAGES"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled" env:"FITCOACH_TAILSCALE_ENABLED"`
	Hostname string `yaml:"hostname" env:"FITCOACH_TAILSCALE_HOSTNAME"`
	StateDir string `yaml:"state_dir" env:"FITCOACH_TAILSCALE_STATE_DIR"`
}

// DSN returns a PostgreSQL connection string. An explicit URL wins over the
// individual fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Only variables that are set replace file values:
//
//	SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY, GEMINI_API_KEY, DATABASE_URL,
//	FITCOACH_SERVER_HOST, FITCOACH_SERVER_PORT,
//	FITCOACH_DB_HOST, FITCOACH_DB_PORT, FITCOACH_DB_NAME,
//	FITCOACH_DB_USER, FITCOACH_DB_PASSWORD, FITCOACH_DB_SSLMODE,
//	FITCOACH_GEMINI_MODEL, FITCOACH_GEMINI_BASE_URL, FITCOACH_GEMINI_TIMEOUT,
//	FITCOACH_PAYWALL_API_KEY, FITCOACH_PAYWALL_STATE_DIR,
//	FITCOACH_CHAT_PERSIST_MESSAGES, FITCOACH_TAILSCALE_*
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash-lite"
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = 60 * time.Second
	}
	if c.Paywall.APIKey == "" {
		c.Paywall.APIKey = DefaultPaywallKey
	}
	if c.Paywall.Channel == "" {
		c.Paywall.Channel = "com.fitbod.superwall"
	}
	if c.Paywall.StateDir == "" {
		c.Paywall.StateDir = "state"
	}
	if c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "fitcoach"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.URL != "" {
		return nil
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host or database.url is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	return nil
}

// MissingSecrets lists the upstream secrets that are empty. They are not
// fatal: requests that need them fail downstream.
func (c *Config) MissingSecrets() []string {
	var missing []string
	if c.Supabase.URL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.Supabase.ServiceRoleKey == "" {
		missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
	}
	if c.Gemini.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	return missing
}
