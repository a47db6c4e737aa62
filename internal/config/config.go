package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/bgproc/internal/logger"
	"github.com/loykin/bgproc/internal/logstore"
	"github.com/loykin/bgproc/internal/manager"
)

// Config is the top-level TOML structure for the bgproc daemon.
//
// Example:
//
//	listen = "127.0.0.1:8951"
//	base_path = "/api"
//	log_dir = "/var/log/bgproc"
//	env = ["NODE_ENV=development"]
//
//	[terminate]
//	grace_period = "5s"
//	poll_interval = "100ms"
//
//	[output]
//	max_lines = 200
//	max_bytes = 51200
//	tail_lines = 1000
//
//	[history]
//	dsn = "sqlite:///var/lib/bgproc/history.db"
//
//	[daemon_log]
//	level = "info"
//	format = "color"
type Config struct {
	Listen   string   `toml:"listen" mapstructure:"listen"`
	BasePath string   `toml:"base_path" mapstructure:"base_path"`
	LogDir   string   `toml:"log_dir" mapstructure:"log_dir"`
	Env      []string `toml:"env" mapstructure:"env"`

	Terminate TerminateConfig `toml:"terminate" mapstructure:"terminate"`
	Output    OutputConfig    `toml:"output" mapstructure:"output"`
	History   HistoryConfig   `toml:"history" mapstructure:"history"`
	DaemonLog DaemonLogConfig `toml:"daemon_log" mapstructure:"daemon_log"`
	LogFiles  LogFilesConfig  `toml:"log_files" mapstructure:"log_files"`
}

// TerminateConfig tunes the two-phase shutdown protocol.
type TerminateConfig struct {
	GracePeriod  time.Duration `toml:"grace_period" mapstructure:"grace_period"`
	PollInterval time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
}

// OutputConfig bounds in-memory tails and agent-facing rendering.
type OutputConfig struct {
	MaxLines  int `toml:"max_lines" mapstructure:"max_lines"`
	MaxBytes  int `toml:"max_bytes" mapstructure:"max_bytes"`
	TailLines int `toml:"tail_lines" mapstructure:"tail_lines"`
}

// HistoryConfig selects an optional lifecycle audit sink by DSN.
type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// DaemonLogConfig controls the daemon's own slog output.
type DaemonLogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
}

// LogFilesConfig controls rotation of process output files.
type LogFilesConfig struct {
	MaxSizeMB  int  `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `toml:"compress" mapstructure:"compress"`
}

// Defaults applied by Load for unset fields.
const (
	DefaultListen   = "127.0.0.1:8951"
	DefaultBasePath = "/api"
)

// Load parses a TOML config file and applies defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// Default returns a config with all defaults and the given log dir.
func Default(logDir string) *Config {
	c := &Config{LogDir: logDir}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.DaemonLog.Level == "" {
		c.DaemonLog.Level = "info"
	}
	if c.DaemonLog.Format == "" {
		c.DaemonLog.Format = "text"
	}
}

// ManagerConfig maps the file config onto the manager's knobs.
func (c *Config) ManagerConfig() manager.Config {
	return manager.Config{
		Log: logger.Config{
			Dir:        c.LogDir,
			MaxSizeMB:  c.LogFiles.MaxSizeMB,
			MaxBackups: c.LogFiles.MaxBackups,
			MaxAgeDays: c.LogFiles.MaxAgeDays,
			Compress:   c.LogFiles.Compress,
		},
		GracePeriod:  c.Terminate.GracePeriod,
		PollInterval: c.Terminate.PollInterval,
		TailLines:    c.Output.TailLines,
	}
}

// Caps maps the file config onto agent-facing output caps.
func (c *Config) Caps() logstore.Caps {
	return logstore.Caps{MaxLines: c.Output.MaxLines, MaxBytes: c.Output.MaxBytes}
}
