package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rpattn/rowsync/internal/db"
	"github.com/rpattn/rowsync/internal/domain"
)

// StoreBackend selects where tables live.
type StoreBackend string

const (
	BackendMemory   StoreBackend = "memory"
	BackendXLSX     StoreBackend = "xlsx"
	BackendPostgres StoreBackend = "postgres"
)

// Config is the full server configuration, loaded once and passed by value.
type Config struct {
	Addr         string
	StoreBackend StoreBackend
	WorkbookPath string
	Database     db.Config
	SpecsDir     string
	WebhookURL   string
	Timezone     string

	LockTimeout       time.Duration
	LockAttempts      int
	LockRetryPause    time.Duration
	RetryAttempts     int
	RetryInitialDelay time.Duration
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:              ":8080",
		StoreBackend:      BackendMemory,
		WorkbookPath:      "tables.xlsx",
		Database:          db.DefaultConfig(),
		SpecsDir:          "specs",
		Timezone:          "Local",
		LockTimeout:       2500 * time.Millisecond,
		LockAttempts:      3,
		LockRetryPause:    200 * time.Millisecond,
		RetryAttempts:     3,
		RetryInitialDelay: 250 * time.Millisecond,
	}
}

// Load reads config.yaml from configPath with SYNC_* environment overrides.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv() // allow environment overrides
	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("server.addr")
	v.BindEnv("store.backend")
	v.BindEnv("store.workbook")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("notify.webhook")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Use defaults + env.
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.Addr = v.GetString("server.addr")
	}
	if v.IsSet("store.backend") {
		cfg.StoreBackend = StoreBackend(v.GetString("store.backend"))
	}
	if v.IsSet("store.workbook") {
		cfg.WorkbookPath = v.GetString("store.workbook")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("specs.dir") {
		cfg.SpecsDir = v.GetString("specs.dir")
	}
	if v.IsSet("notify.webhook") {
		cfg.WebhookURL = v.GetString("notify.webhook")
	}
	if v.IsSet("sync.timezone") {
		cfg.Timezone = v.GetString("sync.timezone")
	}
	if v.IsSet("sync.lockTimeout") {
		cfg.LockTimeout = v.GetDuration("sync.lockTimeout")
	}
	if v.IsSet("sync.lockAttempts") {
		cfg.LockAttempts = v.GetInt("sync.lockAttempts")
	}
	if v.IsSet("sync.lockRetryPause") {
		cfg.LockRetryPause = v.GetDuration("sync.lockRetryPause")
	}
	if v.IsSet("sync.retryAttempts") {
		cfg.RetryAttempts = v.GetInt("sync.retryAttempts")
	}
	if v.IsSet("sync.retryInitialDelay") {
		cfg.RetryInitialDelay = v.GetDuration("sync.retryInitialDelay")
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendXLSX, BackendPostgres:
	default:
		return cfg, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}

	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoadSpecs reads every transfer spec document in dir and validates it.
func LoadSpecs(dir string) ([]domain.TransferSpec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read specs directory: %w", err)
	}

	var specs []domain.TransferSpec
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		v := viper.New()
		v.SetConfigFile(filepath.Join(dir, entry.Name()))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read spec %s: %w", entry.Name(), err)
		}

		var spec domain.TransferSpec
		if err := v.Unmarshal(&spec); err != nil {
			return nil, fmt.Errorf("failed to parse spec %s: %w", entry.Name(), err)
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid spec %s: %w", entry.Name(), err)
		}
		specs = append(specs, spec)
	}

	return specs, nil
}
