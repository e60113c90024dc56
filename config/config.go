/*
Package config loads the application configuration from YAML and watches
the file for live edits.

PURPOSE:
  One YAML file drives the server: listen port, database path, log level,
  nightly maintenance schedule, and the holiday policy document. Editing
  the file while the server runs swaps the policy in place and triggers a
  reconcile, so due dates pick up new holiday rules without a restart.

FILE SHAPE:
  server:
    port: 8080
  database:
    path: obligations.db
  log:
    level: info
  nightly_schedule: "0 3 * * *"
  holiday_policy:
    non_working_weekdays: {saturday: true, sunday: true}
    fixed_holidays:
      - {month: 1, day: 1, name: "New Year's Day"}

SEE ALSO:
  - factory/policy.go: PolicyDocument embedded under holiday_policy
  - cmd/server/main.go: wires the watcher to the reconcile queue
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/paywarden/obligation-engine/factory"
	"github.com/paywarden/obligation-engine/schedule"
)

// =============================================================================
// CONFIG
// =============================================================================

// Config is the full application configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// NightlySchedule is a cron expression for the maintenance job.
	NightlySchedule string `yaml:"nightly_schedule"`

	HolidayPolicy factory.PolicyDocument `yaml:"holiday_policy"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Database.Path = "obligations.db"
	cfg.Log.Level = "info"
	cfg.NightlySchedule = "0 3 * * *"
	cfg.HolidayPolicy = factory.DefaultPolicyDocument()
	return cfg
}

// Load reads and validates a YAML config file. Missing fields keep
// their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := c.HolidayPolicy.ToConfig(); err != nil {
		return fmt.Errorf("holiday_policy: %w", err)
	}
	return nil
}

// PolicyConfig builds the holiday policy config, falling back to the
// defaults when the document is empty.
func (c Config) PolicyConfig() (schedule.HolidayPolicyConfig, error) {
	data, err := yaml.Marshal(c.HolidayPolicy)
	if err == nil && string(data) == "{}\n" {
		return schedule.DefaultHolidayPolicyConfig(), nil
	}
	return c.HolidayPolicy.ToConfig()
}

// LogLevel parses the configured zerolog level, defaulting to info.
func (c Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// =============================================================================
// LIVE RELOAD
// =============================================================================

// Watch re-reads the config file whenever it changes and calls onReload
// with the fresh config. Editors often replace files via rename, so the
// watch is on the parent directory. Blocks until stop is closed.
func Watch(path string, log zerolog.Logger, stop <-chan struct{}, onReload func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}

	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				log.Warn().Err(err).Str("path", abs).Msg("config reload failed, keeping previous")
				continue
			}
			log.Info().Str("path", abs).Msg("config reloaded")
			onReload(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
