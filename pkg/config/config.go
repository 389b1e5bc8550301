// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/picmoney/data-cleaner/pkg/model"
)

// Config represents the application configuration
type Config struct {
	// Files
	InputDir      string
	OutputDir     string
	SourceFiles   map[string]string // Dataset name to source file override
	Datasets      []string          // Datasets to clean, in order
	InputEncoding string

	// Run settings
	WorkerPoolSize int // 0 means one worker per dataset
	VerifyOutput   bool

	// Optional sinks, nil when disabled
	SQLite   *SQLiteConfig
	Postgres *PostgresConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads variables from a .env file without overriding the
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from environment variables, after the
// optional file named by ENV_FILE (default .env)
func LoadConfig() (*Config, error) {
	if err := LoadEnvFile(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{
		InputDir:  getEnv("INPUT_DIR", "."),
		OutputDir: getEnv("OUTPUT_DIR", "datasets"),
		SourceFiles: map[string]string{
			model.DatasetPlayers:      getEnv("PLAYERS_FILE", ""),
			model.DatasetTransactions: getEnv("TRANSACTIONS_FILE", ""),
			model.DatasetPedestrians:  getEnv("PEDESTRIANS_FILE", ""),
			model.DatasetStores:       getEnv("STORES_FILE", ""),
		},
		Datasets:       getEnvAsStringSlice("DATASETS", defaultDatasetNames()),
		InputEncoding:  strings.ToLower(getEnv("INPUT_ENCODING", "utf-8")),
		WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 1),
		VerifyOutput:   getEnvAsBool("VERIFY_OUTPUT", true),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	cfg.SQLite = LoadSQLiteConfig()

	if getEnvAsBool("AUDIT_POSTGRES_ENABLED", false) {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("input directory is required")
	}

	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}

	if len(c.Datasets) == 0 {
		return errors.New("at least one dataset must be selected")
	}

	known := make(map[string]bool)
	for _, name := range defaultDatasetNames() {
		known[name] = true
	}
	seen := make(map[string]bool)
	for _, name := range c.Datasets {
		if !known[name] {
			return fmt.Errorf("unknown dataset: %s", name)
		}
		if seen[name] {
			return fmt.Errorf("dataset selected twice: %s", name)
		}
		seen[name] = true
	}

	switch c.InputEncoding {
	case "utf-8", "utf8", "latin1", "iso-8859-1", "windows-1252", "cp1252":
	default:
		return fmt.Errorf("unsupported input encoding: %s", c.InputEncoding)
	}

	if c.WorkerPoolSize < 0 {
		return errors.New("worker pool size cannot be negative")
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}

	return nil
}

// SelectedDatasets returns the datasets to clean with source overrides applied
func (c *Config) SelectedDatasets() []model.Dataset {
	byName := make(map[string]model.Dataset)
	for _, ds := range model.AllDatasets() {
		byName[ds.Name] = ds.WithSourceFile(c.SourceFiles[ds.Name])
	}
	selected := make([]model.Dataset, 0, len(c.Datasets))
	for _, name := range c.Datasets {
		if ds, ok := byName[name]; ok {
			selected = append(selected, ds)
		}
	}
	return selected
}

// SourcePath returns the input path of a dataset
func (c *Config) SourcePath(ds *model.Dataset) string {
	if filepath.IsAbs(ds.SourceFile) {
		return ds.SourceFile
	}
	return filepath.Join(c.InputDir, ds.SourceFile)
}

// OutputPath returns the output path of a dataset
func (c *Config) OutputPath(ds *model.Dataset) string {
	return filepath.Join(c.OutputDir, ds.OutputFile)
}

func defaultDatasetNames() []string {
	all := model.AllDatasets()
	names := make([]string, len(all))
	for i, ds := range all {
		names[i] = ds.Name
	}
	return names
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsStringSlice parses a comma-separated list, skipping empty entries
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
