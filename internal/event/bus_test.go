package event

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/loykin/bgproc/internal/proc"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) HandleProcessEvent(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func TestBusDeliversInPublishOrder(t *testing.T) {
	b := NewBus()
	c := &collector{}
	b.Subscribe(c)

	const n = 200
	for i := 0; i < n; i++ {
		b.Publish(Event{Type: TypeStatusChanged, Record: proc.Record{ID: fmt.Sprintf("proc_%d", i)}})
	}
	b.Close()

	got := c.snapshot()
	if len(got) != n {
		t.Fatalf("delivered %d events, want %d", len(got), n)
	}
	for i, e := range got {
		if want := fmt.Sprintf("proc_%d", i); e.Record.ID != want {
			t.Fatalf("event %d out of order: %s", i, e.Record.ID)
		}
	}
}

func TestBusIsolatesPanickingSubscriber(t *testing.T) {
	b := NewBus()
	b.Subscribe(SubscriberFunc(func(Event) { panic("boom") }))
	c := &collector{}
	b.Subscribe(c)

	b.Publish(Event{Type: TypeStarted, Record: proc.Record{ID: "proc_1"}})
	b.Close()

	if got := c.snapshot(); len(got) != 1 {
		t.Fatalf("second subscriber got %d events, want 1", len(got))
	}
}

func TestBusPublishAfterCloseIsNoOp(t *testing.T) {
	b := NewBus()
	c := &collector{}
	b.Subscribe(c)
	b.Close()
	b.Publish(Event{Type: TypeStarted})
	time.Sleep(20 * time.Millisecond)
	if got := c.snapshot(); len(got) != 0 {
		t.Fatalf("event delivered after close: %v", got)
	}
}

func TestBusCloseIsIdempotent(t *testing.T) {
	b := NewBus()
	b.Close()
	b.Close()
}

func TestSubscriberFuncAdapter(t *testing.T) {
	var got Event
	SubscriberFunc(func(e Event) { got = e }).HandleProcessEvent(Event{Type: TypeEnded})
	if got.Type != TypeEnded {
		t.Fatalf("adapter did not forward event: %+v", got)
	}
}
