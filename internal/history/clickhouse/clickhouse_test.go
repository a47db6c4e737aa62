package clickhouse

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/loykin/bgproc/internal/history"
)

// setupClickHouseContainer starts a ClickHouse container for testing.
func setupClickHouseContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	clickHouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:24.3.2.23",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword(""),
		clickhouse.WithDatabase("default"),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/ping").
				WithPort("8123/tcp").
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start ClickHouse container: %v", err)
	}

	host, err := clickHouseContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := clickHouseContainer.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("Failed to get mapped port: %v", err)
	}
	return clickHouseContainer, host + ":" + port.Port()
}

func TestClickHouseSink_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, addr := setupClickHouseContainer(ctx, t)
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate ClickHouse container: %v", err)
		}
	}()

	sink, err := New(addr, "default", "process_lifecycle_test")
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	rec := history.Record{
		ID:        "proc_1",
		Name:      "test-process",
		Command:   "sleep 600",
		PID:       12345,
		Status:    "running",
		StartedAt: time.Now().UTC(),
	}
	if err := sink.Send(ctx, history.Event{
		Type:       history.EventStarted,
		OccurredAt: time.Now().UTC(),
		Record:     rec,
	}); err != nil {
		t.Fatalf("Failed to send started event: %v", err)
	}

	rec.Status = "exited"
	rec.ExitCode = sql.NullInt64{Int64: 0, Valid: true}
	rec.Success = true
	rec.EndedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if err := sink.Send(ctx, history.Event{
		Type:       history.EventEnded,
		OccurredAt: time.Now().UTC(),
		Record:     rec,
	}); err != nil {
		t.Fatalf("Failed to send ended event: %v", err)
	}

	var count uint64
	if err := sink.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM process_lifecycle_test WHERE process_id = 'proc_1'`).Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 2 {
		t.Fatalf("row count = %d, want 2", count)
	}
}
