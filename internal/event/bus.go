package event

import (
	"log/slog"
	"sync"
)

// Subscriber consumes manager lifecycle events. Handlers run on the
// bus's single dispatch goroutine: events arrive in publish order, and
// a handler that blocks delays delivery for everyone behind it.
type Subscriber interface {
	HandleProcessEvent(Event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(Event)

func (f SubscriberFunc) HandleProcessEvent(e Event) { f(e) }

// Bus fans manager events out to subscribers. Publish never blocks the
// caller (the manager enqueues while holding its registry lock), and a
// panicking subscriber is isolated from the others.
type Bus struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	subs   []Subscriber
	closed bool
	done   chan struct{}
}

func NewBus() *Bus {
	b := &Bus{done: make(chan struct{})}
	b.cond = sync.NewCond(&b.mu)
	go b.dispatch()
	return b
}

// Subscribe registers s. Subscribers added after events were published
// only see subsequent events.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
}

// Publish enqueues e for ordered delivery. It never blocks.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	if !b.closed {
		b.queue = append(b.queue, e)
		b.cond.Signal()
	}
	b.mu.Unlock()
}

// Close drains the queue, delivers everything, and stops the
// dispatcher. Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	b.cond.Signal()
	b.mu.Unlock()
	<-b.done
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 && b.closed {
			b.mu.Unlock()
			return
		}
		e := b.queue[0]
		b.queue = b.queue[1:]
		subs := make([]Subscriber, len(b.subs))
		copy(subs, b.subs)
		b.mu.Unlock()

		for _, s := range subs {
			deliver(s, e)
		}
	}
}

func deliver(s Subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event subscriber panicked", "event", string(e.Type), "panic", r)
		}
	}()
	s.HandleProcessEvent(e)
}
