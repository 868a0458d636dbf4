package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Remote discussion host
	GitHub GitHubConfig `mapstructure:"github"`

	// Source export and local articles
	Source SourceConfig `mapstructure:"source"`

	// Checkpoint persistence
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`

	// Database configuration, used by the postgres checkpoint backend
	Database DatabaseConfig `mapstructure:"database"`

	// Migration behaviour and correction tables
	Migration MigrationConfig `mapstructure:"migration"`

	// Progress server configuration
	Server ServerConfig `mapstructure:"server"`

	// Logging configuration
	Log LogConfig `mapstructure:"log"`
}

// GitHubConfig holds the target repository and the two identities used to write to it
type GitHubConfig struct {
	Token    string `mapstructure:"token"`
	BotToken string `mapstructure:"bot_token"`
	Owner    string `mapstructure:"owner"`
	Repo     string `mapstructure:"repo"`
	Category string `mapstructure:"category"`
	Endpoint string `mapstructure:"endpoint"`
}

// SourceConfig locates the export file and the articles it is matched against
type SourceConfig struct {
	ExportPath  string `mapstructure:"export_path"`
	Forum       string `mapstructure:"forum"`
	ArticlesDir string `mapstructure:"articles_dir"`
	SiteURL     string `mapstructure:"site_url"`
}

// CheckpointConfig selects where migration state is persisted
type CheckpointConfig struct {
	Backend string `mapstructure:"backend"` // "file", "postgres" or "sqlite"
	Path    string `mapstructure:"path"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Name         string        `mapstructure:"name"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// MigrationConfig holds pacing and the manual correction tables
type MigrationConfig struct {
	Cooldown       time.Duration `mapstructure:"cooldown"`
	SearchFallback bool          `mapstructure:"search_fallback"`

	// Overrides forces a comment in (true) or out (false) regardless of
	// its deleted/spam flags.
	Overrides map[string]bool `mapstructure:"overrides"`

	// Operators are the source usernames of the person running the migration.
	Operators []string `mapstructure:"operators"`

	// Handles maps source usernames to GitHub handles. Keys are lowercased
	// by viper, lookups must be case-insensitive.
	Handles map[string]string `mapstructure:"handles"`
}

// ServerConfig holds HTTP server settings for the progress server
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "pretty"
}

// Checkpoint backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// flagKeys maps CLI flag names to configuration keys
var flagKeys = map[string]string{
	"source":     "source.export_path",
	"token":      "github.token",
	"bot-token":  "github.bot_token",
	"checkpoint": "checkpoint.path",
	"backend":    "checkpoint.backend",
	"owner":      "github.owner",
	"repo":       "github.repo",
	"category":   "github.category",
	"articles":   "source.articles_dir",
	"site-url":   "source.site_url",
	"forum":      "source.forum",
	"cooldown":   "migration.cooldown",
	"port":       "server.port",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.category", "Announcements")
	v.SetDefault("github.endpoint", "https://api.github.com/graphql")

	v.SetDefault("checkpoint.backend", BackendFile)
	v.SetDefault("checkpoint.path", "./migration-state.json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "discussions_migrator")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", 5*time.Minute)

	v.SetDefault("migration.cooldown", 3*time.Second)
	v.SetDefault("migration.search_fallback", false)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from defaults, an optional YAML file, MIGRATOR_*
// environment variables and finally any flags that were set on the command line.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MIGRATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// The bot identity falls back to the operator's own token
	if cfg.GitHub.BotToken == "" {
		cfg.GitHub.BotToken = cfg.GitHub.Token
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings every command depends on
func (c *Config) Validate() error {
	switch c.Checkpoint.Backend {
	case BackendFile, BackendSQLite:
		if c.Checkpoint.Path == "" {
			return fmt.Errorf("checkpoint.path is required for the %s backend", c.Checkpoint.Backend)
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for the postgres backend")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend)
	}
	return nil
}

// ValidateRun checks the settings needed to talk to the remote and read the export
func (c *Config) ValidateRun() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("github.token is required")
	}
	if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
		return fmt.Errorf("github.owner and github.repo are required")
	}
	if c.Source.ExportPath == "" {
		return fmt.Errorf("source.export_path is required")
	}
	if c.Source.ArticlesDir == "" {
		return fmt.Errorf("source.articles_dir is required")
	}
	if c.Migration.Cooldown < 0 {
		return fmt.Errorf("migration.cooldown must not be negative")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
