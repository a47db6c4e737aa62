package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/loykin/bgproc/internal/history"
)

// Sink sends lifecycle events to ClickHouse using the official client.
type Sink struct {
	conn  driver.Conn
	table string
}

// New connects to addr ("host:port") and writes into database.table.
func New(addr, database, table string) (*Sink, error) {
	if database == "" {
		database = "default"
	}
	if table == "" {
		table = "process_lifecycle"
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{Database: database, Username: "default"},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping ClickHouse: %w", err)
	}
	s := &Sink{conn: conn, table: table}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		occurred_at DateTime64(3),
		event String,
		process_id String,
		name String,
		command String,
		pid Int64,
		status String,
		exit_code Nullable(Int64),
		success UInt8,
		started_at DateTime64(3),
		ended_at Nullable(DateTime64(3))
	) ENGINE = MergeTree() ORDER BY occurred_at`, s.table)
	return s.conn.Exec(ctx, stmt)
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	rec := e.Record
	var exitCode *int64
	if rec.ExitCode.Valid {
		exitCode = &rec.ExitCode.Int64
	}
	var endedAt interface{}
	if rec.EndedAt.Valid {
		endedAt = rec.EndedAt.Time
	}
	success := uint8(0)
	if rec.Success {
		success = 1
	}
	query := fmt.Sprintf(`INSERT INTO %s (
		occurred_at, event, process_id, name, command, pid,
		status, exit_code, success, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	if err := s.conn.Exec(ctx, query,
		e.OccurredAt, string(e.Type), rec.ID, rec.Name, rec.Command,
		int64(rec.PID), rec.Status, exitCode, success,
		rec.StartedAt, endedAt); err != nil {
		return fmt.Errorf("insert event into ClickHouse: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
