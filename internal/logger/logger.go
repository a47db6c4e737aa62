package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters for process output files.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the output file destinations for one tracked process.
// Files live under Dir and are named <id>.stdout.log / <id>.stderr.log.
// Rotation parameters follow lumberjack semantics.
type Config struct {
	Dir        string `json:"dir" mapstructure:"dir"`
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// Paths returns the stdout and stderr log file paths for the process id.
func (c Config) Paths(id string) (string, string) {
	return filepath.Join(c.Dir, fmt.Sprintf("%s.stdout.log", id)),
		filepath.Join(c.Dir, fmt.Sprintf("%s.stderr.log", id))
}

// Writers returns rotating io.WriteClosers for stdout and stderr of the
// process id. The log directory is created if missing and both files are
// created eagerly so output capture never races file creation.
func (c Config) Writers(id string) (io.WriteCloser, io.WriteCloser, error) {
	if c.Dir == "" {
		return nil, nil, fmt.Errorf("logger: empty log dir")
	}
	if err := os.MkdirAll(c.Dir, 0o750); err != nil {
		return nil, nil, err
	}
	stdout, stderr := c.Paths(id)
	for _, p := range []string{stdout, stderr} {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) // #nosec G304
		if err != nil {
			return nil, nil, err
		}
		_ = f.Close()
	}
	mk := func(path string) io.WriteCloser {
		return &lj.Logger{
			Filename:   path,
			MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.Compress,
		}
	}
	return mk(stdout), mk(stderr), nil
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Setup installs the default slog logger used for the manager's own
// diagnostics. format is "text" or "color"; level is debug/info/warn/error.
func Setup(level, format string) {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch strings.ToLower(format) {
	case "color":
		h = NewColorTextHandler(os.Stderr, opts, true)
	default:
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
