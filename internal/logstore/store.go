package logstore

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/loykin/bgproc/internal/logger"
)

// Store captures one process's output: append-only rotating files on
// disk plus bounded in-memory tails per stream. The file writers and
// the tails are fed from the same streaming writer, so every byte the
// child produces reaches the file in write order.
type Store struct {
	StdoutPath string
	StderrPath string

	outFile io.WriteCloser
	errFile io.WriteCloser
	outTail *Tail
	errTail *Tail
	outLine *lineWriter
	errLine *lineWriter

	out io.Writer
	err io.Writer

	closeOnce sync.Once
}

// Open creates the log files for process id eagerly and returns a Store
// whose Stdout/Stderr writers stream into both file and tail. A file
// write failure degrades capture (the tail keeps working) but never
// propagates an error back to the child's pipe.
func Open(cfg logger.Config, id string, tailLines int) (*Store, error) {
	outW, errW, err := cfg.Writers(id)
	if err != nil {
		return nil, err
	}
	stdout, stderr := cfg.Paths(id)
	s := &Store{
		StdoutPath: stdout,
		StderrPath: stderr,
		outFile:    outW,
		errFile:    errW,
		outTail:    NewTail(tailLines),
		errTail:    NewTail(tailLines),
	}
	s.outLine = newLineWriter(s.outTail)
	s.errLine = newLineWriter(s.errTail)
	s.out = io.MultiWriter(s.outLine, &failsafeWriter{w: outW, path: stdout})
	s.err = io.MultiWriter(s.errLine, &failsafeWriter{w: errW, path: stderr})
	return s, nil
}

// Stdout is the writer to wire into the child's stdout.
func (s *Store) Stdout() io.Writer { return s.out }

// Stderr is the writer to wire into the child's stderr.
func (s *Store) Stderr() io.Writer { return s.err }

// StdoutTail returns the in-memory stdout tail.
func (s *Store) StdoutTail() *Tail { return s.outTail }

// StderrTail returns the in-memory stderr tail.
func (s *Store) StderrTail() *Tail { return s.errTail }

// Snapshot copies the current tails for inspection.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		StdoutPath:         s.StdoutPath,
		StderrPath:         s.StderrPath,
		StdoutLines:        s.outTail.Lines(),
		StderrLines:        s.errTail.Lines(),
		StdoutDropped:      s.outTail.Dropped(),
		StderrDropped:      s.errTail.Dropped(),
		StdoutDroppedBytes: s.outTail.DroppedBytes(),
		StderrDroppedBytes: s.errTail.DroppedBytes(),
	}
}

// Close flushes partial lines and closes the file writers. The files
// themselves stay on disk; their lifecycle is independent of the record.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.outLine.Flush()
		s.errLine.Flush()
		_ = s.outFile.Close()
		_ = s.errFile.Close()
	})
}

// Snapshot is a point-in-time copy of both tails.
type Snapshot struct {
	StdoutPath         string
	StderrPath         string
	StdoutLines        []string
	StderrLines        []string
	StdoutDropped      int
	StderrDropped      int
	StdoutDroppedBytes int
	StderrDroppedBytes int
}

// failsafeWriter swallows file write errors after logging the first
// one. Disk-full or permission problems must not kill the child's
// output pump; the in-memory tail still captures output.
type failsafeWriter struct {
	w      io.Writer
	path   string
	failed atomic.Bool
}

func (f *failsafeWriter) Write(p []byte) (int, error) {
	if _, err := f.w.Write(p); err != nil {
		if f.failed.CompareAndSwap(false, true) {
			slog.Warn("log file write failed; capture degraded to in-memory tail",
				"path", f.path, "error", err)
		}
	}
	return len(p), nil
}
