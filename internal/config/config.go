package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	State     StateConfig     `yaml:"state"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig configures the routine library. When Enabled is false the
// server runs without PostgreSQL and the save/library routes answer 503.
type DatabaseConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Name          string `yaml:"name"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	SSLMode       string `yaml:"sslmode"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// StateConfig locates the local SQLite database holding the login flag.
type StateConfig struct {
	Dir string `yaml:"dir"`
}

type SessionsConfig struct {
	TTL           Duration `yaml:"ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Duration is a time.Duration that unmarshals from strings like "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix RUTINAS_ and underscore-separated paths:
//
//	RUTINAS_SERVER_HOST, RUTINAS_SERVER_PORT,
//	RUTINAS_DB_ENABLED, RUTINAS_DB_HOST, RUTINAS_DB_PORT, RUTINAS_DB_NAME,
//	RUTINAS_DB_USER, RUTINAS_DB_PASSWORD, RUTINAS_DB_SSLMODE,
//	RUTINAS_AUTH_API_KEY, RUTINAS_STATE_DIR, RUTINAS_SESSIONS_TTL
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RUTINAS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("RUTINAS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RUTINAS_DB_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Database.Enabled = enabled
		}
	}
	if v := os.Getenv("RUTINAS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("RUTINAS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("RUTINAS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("RUTINAS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("RUTINAS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("RUTINAS_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("RUTINAS_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("RUTINAS_STATE_DIR"); v != "" {
		cfg.State.Dir = v
	}
	if v := os.Getenv("RUTINAS_SESSIONS_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.TTL = Duration(ttl)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Database.MigrationsDir == "" {
		cfg.Database.MigrationsDir = "migrations"
	}
	if cfg.State.Dir == "" {
		cfg.State.Dir = "data"
	}
	if cfg.Sessions.TTL == 0 {
		cfg.Sessions.TTL = Duration(2 * time.Hour)
	}
	if cfg.Sessions.SweepInterval == 0 {
		cfg.Sessions.SweepInterval = Duration(5 * time.Minute)
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "rutinas"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Sessions.TTL < 0 {
		return fmt.Errorf("sessions.ttl must not be negative")
	}
	if c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("sessions.sweep_interval must be positive")
	}
	if !c.Database.Enabled {
		return nil
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
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
