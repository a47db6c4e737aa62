package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/loykin/bgproc/internal/history"
)

func TestPostgresSink_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	sink, err := New(connStr)
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL sink: %v", err)
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

	startEvent := history.Event{
		Type:       history.EventStarted,
		OccurredAt: time.Now().UTC(),
		Record:     rec,
	}
	if err := sink.Send(ctx, startEvent); err != nil {
		t.Fatalf("Failed to send started event: %v", err)
	}

	rec.Status = "killed"
	rec.ExitCode = sql.NullInt64{}
	rec.EndedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	endEvent := history.Event{
		Type:       history.EventEnded,
		OccurredAt: time.Now().UTC(),
		Record:     rec,
	}
	if err := sink.Send(ctx, endEvent); err != nil {
		t.Fatalf("Failed to send ended event: %v", err)
	}

	var count int
	if err := sink.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM process_lifecycle WHERE process_id = $1`, "proc_1").Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 2 {
		t.Fatalf("row count = %d, want 2", count)
	}
}

func TestPostgresSink_EmptyDSN(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
