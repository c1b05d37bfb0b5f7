// Package config resolves runtime settings from defaults, an optional YAML
// file and PADNOTES_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/unowned-ai/padnotes/pkg/db"
	"github.com/unowned-ai/padnotes/pkg/logging"
	"github.com/unowned-ai/padnotes/pkg/utils"
)

const (
	EnvPrefix = "PADNOTES_"
	// ConfigEnv names the variable pointing at a config file.
	ConfigEnv = EnvPrefix + "CONFIG"
)

type Config struct {
	DBPath       string `yaml:"db_path" env:"DB"`
	MediaDir     string `yaml:"media_dir" env:"MEDIA_DIR"`
	BackupDir    string `yaml:"backup_dir" env:"BACKUP_DIR"`
	WAL          bool   `yaml:"wal" env:"WAL"`
	Sync         string `yaml:"sync" env:"SYNC"`
	LogLevel     string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat    string `yaml:"log_format" env:"LOG_FORMAT"`
	Platform     string `yaml:"platform" env:"PLATFORM"`
	SeedDemoData bool   `yaml:"seed_demo_data" env:"SEED_DEMO_DATA"`
}

func Default() Config {
	return Config{
		DBPath:    utils.DefaultDBPath(),
		MediaDir:  utils.DefaultMediaDir(),
		BackupDir: ".",
		WAL:       true,
		Sync:      "NORMAL",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load layers the file at path (or $PADNOTES_CONFIG when path is empty) and
// the process environment over the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	return load(path, nil)
}

// LoadWithEnv is Load with an explicit environment instead of os.Environ.
func LoadWithEnv(path string, environ map[string]string) (Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return load(path, environ)
}

func load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path must not be empty"))
	}
	if c.MediaDir == "" {
		errs = append(errs, errors.New("media dir must not be empty"))
	}
	if c.Sync != "" {
		if _, err := db.ParseSyncMode(c.Sync); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat))
	}
	return errors.Join(errs...)
}
