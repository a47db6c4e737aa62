package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	c := Config{Dir: "/logs"}
	out, errp := c.Paths("proc_7")
	if out != filepath.Join("/logs", "proc_7.stdout.log") {
		t.Fatalf("stdout path = %q", out)
	}
	if errp != filepath.Join("/logs", "proc_7.stderr.log") {
		t.Fatalf("stderr path = %q", errp)
	}
}

func TestWritersCreateFilesEagerly(t *testing.T) {
	c := Config{Dir: filepath.Join(t.TempDir(), "nested")}
	outW, errW, err := c.Writers("proc_1")
	if err != nil {
		t.Fatalf("writers: %v", err)
	}
	defer func() { _ = outW.Close(); _ = errW.Close() }()

	stdout, stderr := c.Paths("proc_1")
	for _, p := range []string{stdout, stderr} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("log file %s not created eagerly: %v", p, err)
		}
	}

	if _, err := outW.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(stdout)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "hello\n" {
		t.Fatalf("file content = %q", b)
	}
}

func TestWritersRequireDir(t *testing.T) {
	if _, _, err := (Config{}).Writers("proc_1"); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupDoesNotPanic(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)
	Setup("debug", "color")
	Setup("info", "text")
}
