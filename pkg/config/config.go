// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Sink drivers
const (
	DriverNone     = ""
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ConfigFileEnv names the environment variable holding the YAML overlay path
const ConfigFileEnv = "JOBNORM_CONFIG"

// Config represents the application configuration
type Config struct {
	// Directories
	InputDir     string
	ReferenceDir string
	WorkDir      string
	OutputDir    string
	AuditDir     string

	// Processing settings
	BatchSize int

	// Logging
	LogLevel  string
	LogFormat string

	// Relational sink
	SinkDriver string
	Postgres   *PostgresConfig
	SQLite     *SQLiteConfig
}

// LoadConfig loads configuration from environment variables (after an
// optional .env file), then overlays the YAML file at path. An empty path
// falls back to $JOBNORM_CONFIG; no file at all is fine.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		InputDir:     getEnv("INPUT_DIR", filepath.Join("data", "input")),
		ReferenceDir: getEnv("REFERENCE_DIR", filepath.Join("data", "reference")),
		WorkDir:      getEnv("WORK_DIR", filepath.Join("data", "work")),
		OutputDir:    getEnv("OUTPUT_DIR", filepath.Join("data", "output")),
		AuditDir:     getEnv("AUDIT_DIR", filepath.Join("data", "audit")),
		BatchSize:    getEnvAsInt("BATCH_SIZE", 5000),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
		SinkDriver:   strings.ToLower(getEnv("SINK_DRIVER", DriverNone)),
		Postgres:     LoadPostgresConfig(),
		SQLite:       LoadSQLiteConfig(),
	}

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate returns an error for configuration the pipeline cannot run with
// and warnings for settings that are merely suspicious
func (c *Config) Validate() ([]string, error) {
	var warnings []string

	if c.BatchSize <= 0 {
		return nil, errors.New("batch size must be positive")
	}
	for name, dir := range map[string]string{
		"input": c.InputDir, "reference": c.ReferenceDir, "work": c.WorkDir,
		"output": c.OutputDir, "audit": c.AuditDir,
	} {
		if strings.TrimSpace(dir) == "" {
			return nil, fmt.Errorf("%s directory is required", name)
		}
	}

	switch c.SinkDriver {
	case DriverNone:
	case DriverPostgres:
		if err := c.Postgres.Validate(); err != nil {
			return nil, err
		}
	case DriverSQLite:
		if c.SQLite == nil || c.SQLite.Path == "" {
			return nil, errors.New("SQLITE_PATH is required for the sqlite sink")
		}
	default:
		return nil, fmt.Errorf("unsupported sink driver %q", c.SinkDriver)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown log level %q, using info", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown log format %q, using json", c.LogFormat))
	}
	if filepath.Clean(c.OutputDir) == filepath.Clean(c.WorkDir) {
		warnings = append(warnings, "output directory equals work directory; entity tables share it with stage files")
	}
	if c.BatchSize > 100000 {
		warnings = append(warnings, fmt.Sprintf("batch size %d holds a lot of records in memory", c.BatchSize))
	}

	return warnings, nil
}

// fileConfig mirrors Config for the YAML overlay; zero values leave the
// environment setting in place
type fileConfig struct {
	InputDir     string `yaml:"input_dir"`
	ReferenceDir string `yaml:"reference_dir"`
	WorkDir      string `yaml:"work_dir"`
	OutputDir    string `yaml:"output_dir"`
	AuditDir     string `yaml:"audit_dir"`
	BatchSize    int    `yaml:"batch_size"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Sink struct {
		Driver   string `yaml:"driver"`
		Postgres struct {
			Host                    string `yaml:"host"`
			Port                    int    `yaml:"port"`
			User                    string `yaml:"user"`
			Password                string `yaml:"password"`
			Database                string `yaml:"database"`
			SSLMode                 string `yaml:"sslmode"`
			Schema                  string `yaml:"schema"`
			MaxOpenConns            int    `yaml:"max_open_conns"`
			StatementTimeoutSeconds int    `yaml:"statement_timeout_seconds"`
		} `yaml:"postgres"`
		SQLite struct {
			Path               string `yaml:"path"`
			BusyTimeoutSeconds int    `yaml:"busy_timeout_seconds"`
		} `yaml:"sqlite"`
	} `yaml:"sink"`
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	overlayString(&c.InputDir, fc.InputDir)
	overlayString(&c.ReferenceDir, fc.ReferenceDir)
	overlayString(&c.WorkDir, fc.WorkDir)
	overlayString(&c.OutputDir, fc.OutputDir)
	overlayString(&c.AuditDir, fc.AuditDir)
	overlayInt(&c.BatchSize, fc.BatchSize)
	overlayString(&c.LogLevel, fc.Logging.Level)
	overlayString(&c.LogFormat, fc.Logging.Format)
	overlayString(&c.SinkDriver, strings.ToLower(fc.Sink.Driver))

	pg := fc.Sink.Postgres
	overlayString(&c.Postgres.Host, pg.Host)
	overlayInt(&c.Postgres.Port, pg.Port)
	overlayString(&c.Postgres.User, pg.User)
	overlayString(&c.Postgres.Password, pg.Password)
	overlayString(&c.Postgres.Database, pg.Database)
	overlayString(&c.Postgres.SSLMode, pg.SSLMode)
	overlayString(&c.Postgres.Schema, pg.Schema)
	overlayInt(&c.Postgres.MaxOpenConns, pg.MaxOpenConns)
	if pg.StatementTimeoutSeconds > 0 {
		c.Postgres.StatementTimeout = time.Duration(pg.StatementTimeoutSeconds) * time.Second
	}

	overlayString(&c.SQLite.Path, fc.Sink.SQLite.Path)
	if fc.Sink.SQLite.BusyTimeoutSeconds > 0 {
		c.SQLite.BusyTimeout = time.Duration(fc.Sink.SQLite.BusyTimeoutSeconds) * time.Second
	}
	return nil
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
