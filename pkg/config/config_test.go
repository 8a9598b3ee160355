package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"INPUT_DIR", "REFERENCE_DIR", "WORK_DIR", "OUTPUT_DIR", "AUDIT_DIR", "BATCH_SIZE",
		"LOG_LEVEL", "LOG_FORMAT", "SINK_DRIVER", "SQLITE_PATH", "SQLITE_BUSY_TIMEOUT_SECONDS",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"POSTGRES_SCHEMA", ConfigFileEnv,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	// godotenv reads .env from the working directory
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "input"), cfg.InputDir)
	assert.Equal(t, 5000, cfg.BatchSize)
	assert.Equal(t, DriverNone, cfg.SinkDriver)
	assert.Equal(t, "public", cfg.Postgres.Schema)
	assert.Equal(t, 5*time.Second, cfg.SQLite.BusyTimeout)

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestLoadConfigFromEnvAndDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("REFERENCE_DIR=/ref\nBATCH_SIZE=250\n"), 0o644))
	t.Setenv("SINK_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/jobs.db")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/ref", cfg.ReferenceDir)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, DriverSQLite, cfg.SinkDriver)

	_, err = cfg.Validate()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cfg.SQLite.DSN(), "file:/tmp/jobs.db?"))
	assert.Contains(t, cfg.SQLite.DSN(), "busy_timeout%285000%29")
}

func TestYAMLOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("INPUT_DIR", "/from-env")
	t.Setenv("WORK_DIR", "/work")
	path := filepath.Join(t.TempDir(), "jobnorm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input_dir: /from-yaml
batch_size: 10
logging:
  level: debug
sink:
  driver: postgres
  postgres:
    host: db.internal
    user: loader
    password: secret
    database: jobs
    schema: staging
    statement_timeout_seconds: 30
`), 0o644))
	t.Setenv(ConfigFileEnv, path)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/from-yaml", cfg.InputDir)
	assert.Equal(t, "/work", cfg.WorkDir)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DriverPostgres, cfg.SinkDriver)
	assert.Equal(t, "staging", cfg.Postgres.Schema)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, 30*time.Second, cfg.Postgres.StatementTimeout)
	assert.Equal(t, "host=db.internal port=5432 user=loader password=secret dbname=jobs sslmode=disable",
		cfg.Postgres.ConnectionString())

	_, err = cfg.Validate()
	require.NoError(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_size: [oops"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			InputDir: "in", ReferenceDir: "ref", WorkDir: "work", OutputDir: "out", AuditDir: "audit",
			BatchSize: 100, LogLevel: "info", LogFormat: "json",
			Postgres: &PostgresConfig{Port: 5432}, SQLite: &SQLiteConfig{},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		wantErr  string
		warnings int
	}{
		{"valid", func(*Config) {}, "", 0},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, "batch size", 0},
		{"missing dir", func(c *Config) { c.ReferenceDir = " " }, "reference directory", 0},
		{"unknown driver", func(c *Config) { c.SinkDriver = "snowflake" }, "unsupported sink driver", 0},
		{"postgres without user", func(c *Config) { c.SinkDriver = DriverPostgres }, "POSTGRES_USER", 0},
		{"sqlite without path", func(c *Config) { c.SinkDriver = DriverSQLite }, "SQLITE_PATH", 0},
		{"odd logging", func(c *Config) { c.LogLevel = "loud"; c.LogFormat = "xml" }, "", 2},
		{"shared dirs", func(c *Config) { c.OutputDir = "work/" }, "", 1},
		{"huge batch", func(c *Config) { c.BatchSize = 500000 }, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			warnings, err := cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, warnings, tt.warnings)
		})
	}
}
