package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	EngineSQLite   = "sqlite3"
	EnginePostgres = "postgres"

	DefaultPort = "8000"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string   `mapstructure:"port" yaml:"port"`
	Env          string   `mapstructure:"env" yaml:"env"`
	Debug        bool     `mapstructure:"debug" yaml:"debug"`
	AllowedHosts []string `mapstructure:"allowed_hosts" yaml:"allowed_hosts"`
	// TLSDomain enables automatic HTTPS for the named domain when set
	TLSDomain string `mapstructure:"tls_domain" yaml:"tls_domain,omitempty"`
	TLSEmail  string `mapstructure:"tls_email" yaml:"tls_email,omitempty"`
}

// DatabaseConfig selects and addresses the database
type DatabaseConfig struct {
	Engine   string `mapstructure:"engine" yaml:"engine"`
	Name     string `mapstructure:"name" yaml:"name"`
	User     string `mapstructure:"user" yaml:"user,omitempty"`
	Password string `mapstructure:"password" yaml:"-"`
	Host     string `mapstructure:"host" yaml:"host,omitempty"`
	Port     string `mapstructure:"port" yaml:"port,omitempty"`
	Path     string `mapstructure:"path" yaml:"path,omitempty"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// hostname is swapped in tests
var hostname = os.Hostname

// IsLiveHost reports whether this process runs on a live host. Live host
// names start with "li".
func IsLiveHost() bool {
	name, err := hostname()
	if err != nil {
		return false
	}
	return strings.HasPrefix(name, "li")
}

// CreateDefaultConfig returns the configuration used when nothing overrides it
func CreateDefaultConfig() *Config {
	return defaults(IsLiveHost())
}

func defaults(live bool) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         DefaultPort,
			Env:          EnvDevelopment,
			Debug:        true,
			AllowedHosts: []string{"*"},
		},
		Database: DatabaseConfig{
			Engine: EngineSQLite,
			Name:   "coffeehouse",
			Path:   "./coffeehouse.db",
		},
		Log: LogConfig{Level: "info"},
	}

	if live {
		cfg.Server.Env = EnvProduction
		cfg.Server.Debug = false
		cfg.Database = DatabaseConfig{
			Engine: EnginePostgres,
			Name:   "coffeehouse",
			Host:   "localhost",
			Port:   "5432",
		}
		cfg.Log.Level = "warn"
	}
	return cfg
}

// Load builds the configuration from defaults, an optional YAML settings
// file, a .env file and the process environment, in increasing precedence.
func Load(path string) (*Config, error) {
	// a missing .env is fine, the process environment still applies
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v, CreateDefaultConfig())

	v.SetEnvPrefix("COFFEEHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// database credentials keep their historical variable names
	if err := v.BindEnv("database.user", "COFFEEHOUSE_DATABASE_USER", "POSTGRES_USR"); err != nil {
		return nil, fmt.Errorf("failed to bind database user: %w", err)
	}
	if err := v.BindEnv("database.password", "COFFEEHOUSE_DATABASE_PASSWORD", "POSTGRES_PASSWD"); err != nil {
		return nil, fmt.Errorf("failed to bind database password: %w", err)
	}

	if path != "" {
		v.SetConfigFile(ExpandPath(path))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.env", cfg.Server.Env)
	v.SetDefault("server.debug", cfg.Server.Debug)
	v.SetDefault("server.allowed_hosts", cfg.Server.AllowedHosts)
	v.SetDefault("server.tls_domain", cfg.Server.TLSDomain)
	v.SetDefault("server.tls_email", cfg.Server.TLSEmail)
	v.SetDefault("database.engine", cfg.Database.Engine)
	v.SetDefault("database.name", cfg.Database.Name)
	v.SetDefault("database.user", cfg.Database.User)
	v.SetDefault("database.password", cfg.Database.Password)
	v.SetDefault("database.host", cfg.Database.Host)
	v.SetDefault("database.port", cfg.Database.Port)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("log.level", cfg.Log.Level)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q: must be 1-65535", c.Server.Port)
	}

	if c.Server.Env != EnvDevelopment && c.Server.Env != EnvProduction {
		return fmt.Errorf("invalid environment %q: must be %s or %s", c.Server.Env, EnvDevelopment, EnvProduction)
	}

	switch c.Database.Engine {
	case EngineSQLite:
		if c.Database.Path == "" {
			return errors.New("database path cannot be empty for sqlite3")
		}
	case EnginePostgres:
		if c.Database.Name == "" {
			return errors.New("database name cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("invalid database engine %q", c.Database.Engine)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

// DSN returns the driver-specific data source name
func (d DatabaseConfig) DSN() string {
	if d.Engine == EnginePostgres {
		parts := []string{"dbname=" + d.Name, "sslmode=disable"}
		if d.Host != "" {
			parts = append(parts, "host="+d.Host)
		}
		if d.Port != "" {
			parts = append(parts, "port="+d.Port)
		}
		if d.User != "" {
			parts = append(parts, "user="+d.User)
		}
		if d.Password != "" {
			parts = append(parts, "password="+d.Password)
		}
		return strings.Join(parts, " ")
	}
	return ExpandPath(d.Path)
}

// LoadFromFile reads a YAML settings file without applying the environment
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := CreateDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML with owner-only permissions.
// The database password is never written.
func SaveToFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(path, 0600)
}

// ExpandPath expands a leading ~/ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
