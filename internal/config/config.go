package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SOUNDZONES_DB_HOST.
const EnvPrefix = "SOUNDZONES_"

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Server holds all configuration for the sound zone server.
type Server struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"` // debug, info, warn, error
	TickRate int    `yaml:"tick_rate" env:"TICK_RATE"` // ticks per second

	// Sound definitions
	SoundsPath     string        `yaml:"sounds_path" env:"SOUNDS_PATH"`
	ReloadInterval time.Duration `yaml:"reload_interval" env:"RELOAD_INTERVAL"` // 0 = no polling

	// Database
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`

	// Region caps
	Regions RegionsConfig `yaml:"regions" envPrefix:"REGIONS_"`
}

// DatabaseConfig holds region store connection parameters.
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"` // postgres | sqlite

	// PostgreSQL
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`

	// SQLite
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", d.SQLitePath)
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RegionsConfig caps region creation.
type RegionsConfig struct {
	MaxNameLength int   `yaml:"max_name_length" env:"MAX_NAME_LENGTH"`
	MaxPerCreator int   `yaml:"max_per_creator" env:"MAX_PER_CREATOR"`
	MaxVolume     int64 `yaml:"max_volume" env:"MAX_VOLUME"` // blocks
	GridSize      int   `yaml:"grid_size" env:"GRID_SIZE"`   // blocks per grid cell
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel:       "info",
		TickRate:       20,
		SoundsPath:     "config/sounds.yaml",
		ReloadInterval: 5 * time.Second,
		Database: DatabaseConfig{
			Driver:     DriverSQLite,
			Host:       "127.0.0.1",
			Port:       5432,
			User:       "soundzones",
			Password:   "soundzones",
			DBName:     "soundzones",
			SSLMode:    "disable",
			SQLitePath: "data/soundzones.db",
		},
		Regions: RegionsConfig{
			MaxNameLength: 20,
			MaxPerCreator: 5,
			MaxVolume:     1_000_000,
			GridSize:      64,
		},
	}
}

// LoadServer loads server config from a YAML file and applies SOUNDZONES_*
// environment overrides. If the file doesn't exist, defaults are used.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("applying environment overrides: %w", err)
	}

	if cfg.Database.Driver != DriverPostgres && cfg.Database.Driver != DriverSQLite {
		return cfg, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 20
	}

	return cfg, nil
}
