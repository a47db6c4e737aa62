package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/bgproc/internal/action"
	"github.com/loykin/bgproc/internal/config"
	"github.com/loykin/bgproc/internal/history"
	historyfactory "github.com/loykin/bgproc/internal/history/factory"
	"github.com/loykin/bgproc/internal/logger"
	"github.com/loykin/bgproc/internal/manager"
	"github.com/loykin/bgproc/internal/metrics"
	"github.com/loykin/bgproc/internal/notify"
	"github.com/loykin/bgproc/internal/server"
)

// stdoutMessenger prints lifecycle messages to the daemon's stdout,
// each followed by the condensed status line of all tracked processes.
// Embedders replace this with their own channel into the host UI.
type stdoutMessenger struct {
	status *notify.StatusLine
}

func (s stdoutMessenger) Deliver(m notify.Message) {
	marker := ""
	if m.TriggerTurn {
		marker = " [turn]"
	}
	fmt.Printf("%s%s\n", m.Text, marker)
	if line := s.status.Line(); line != "" {
		fmt.Printf("status: %s\n", line)
	}
}

func runServeCommand(flags *ServeFlags) error {
	cfg, err := loadServeConfig(flags)
	if err != nil {
		return err
	}

	logger.Setup(cfg.DaemonLog.Level, cfg.DaemonLog.Format)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		slog.Warn("metrics registration failed", "error", err)
	}

	mgr := manager.New(cfg.ManagerConfig())
	mgr.SetGlobalEnv(cfg.Env)

	// Subscribe the status line first so the notifier's messages print
	// an already-updated summary.
	statusLine := notify.NewStatusLine(0, mgr.List)
	mgr.Subscribe(statusLine)
	mgr.Subscribe(notify.NewTurnNotifier(stdoutMessenger{status: statusLine}))

	var recorder *history.Recorder
	if cfg.History.DSN != "" {
		sink, err := historyfactory.NewSinkFromDSN(cfg.History.DSN)
		if err != nil {
			return fmt.Errorf("history sink: %w", err)
		}
		recorder = history.NewRecorder(sink)
		mgr.Subscribe(recorder)
	}

	facade := action.New(mgr, cfg.Caps())
	srv, err := server.NewServer(cfg.Listen, cfg.BasePath, facade)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	slog.Info("daemon listening", "addr", cfg.Listen, "base_path", cfg.BasePath, "log_dir", cfg.LogDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	_ = srv.Close()
	mgr.Shutdown()
	if recorder != nil {
		recorder.Close()
	}
	return nil
}

func loadServeConfig(flags *ServeFlags) (*config.Config, error) {
	var cfg *config.Config
	if flags.ConfigPath != "" {
		var err error
		cfg, err = config.Load(flags.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		cfg = config.Default("")
	}
	if flags.Listen != "" {
		cfg.Listen = flags.Listen
	}
	if flags.LogDir != "" {
		cfg.LogDir = flags.LogDir
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(os.TempDir(), "bgproc-logs")
	}
	return cfg, nil
}
