package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/loykin/bgproc/internal/history"
)

func testRecord() history.Record {
	return history.Record{
		ID:        "proc_1",
		Name:      "test-process",
		Command:   "echo hello",
		PID:       12345,
		Status:    "running",
		StartedAt: time.Now().Add(-time.Minute).UTC(),
	}
}

func TestSQLiteSink_Integration(t *testing.T) {
	dbPath := t.TempDir() + "/test.db"

	sink, err := New("sqlite://" + dbPath)
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	ctx := context.Background()
	rec := testRecord()

	startEvent := history.Event{
		Type:       history.EventStarted,
		OccurredAt: time.Now().UTC(),
		Record:     rec,
	}
	if err := sink.Send(ctx, startEvent); err != nil {
		t.Fatalf("Failed to send started event: %v", err)
	}

	rec.Status = "exited"
	rec.ExitCode = sql.NullInt64{Int64: 0, Valid: true}
	rec.Success = true
	rec.EndedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	endEvent := history.Event{
		Type:       history.EventEnded,
		OccurredAt: time.Now().UTC(),
		Record:     rec,
	}
	if err := sink.Send(ctx, endEvent); err != nil {
		t.Fatalf("Failed to send ended event: %v", err)
	}

	// Both rows landed in the audit table.
	var count int
	if err := sink.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM process_lifecycle WHERE process_id = ?`, "proc_1").Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 2 {
		t.Fatalf("row count = %d, want 2", count)
	}
}

func TestSQLiteSink_InMemory(t *testing.T) {
	sink, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	e := history.Event{
		Type:       history.EventStarted,
		OccurredAt: time.Now().UTC(),
		Record:     testRecord(),
	}
	if err := sink.Send(context.Background(), e); err != nil {
		t.Fatalf("Failed to send event: %v", err)
	}
}

func TestSQLiteSink_EmptyDSN(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestSQLiteSink_ContextCancellation(t *testing.T) {
	sink, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() { _ = sink.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Send(ctx, history.Event{
		Type:       history.EventStarted,
		OccurredAt: time.Now().UTC(),
		Record:     testRecord(),
	}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
