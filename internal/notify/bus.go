package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Notifier delivers a notification somewhere
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

const deliverTimeout = 10 * time.Second

// Bus fans events out to notifiers on a single dispatcher goroutine.
// Publish never blocks the caller; sink failures are logged and dropped.
type Bus struct {
	mu        sync.RWMutex
	closed    bool
	events    chan Event
	notifiers []Notifier
	done      chan struct{}
	log       *slog.Logger
}

// NewBus starts a bus with a queue of the given size
func NewBus(size int, logger *slog.Logger) *Bus {
	if size <= 0 {
		size = 64
	}
	b := &Bus{
		events: make(chan Event, size),
		done:   make(chan struct{}),
		log:    logger,
	}
	go b.dispatch()
	return b
}

// Subscribe adds a notifier for all following events
func (b *Bus) Subscribe(n Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifiers = append(b.notifiers, n)
}

// Publish queues an event. It reports false when the event was dropped because the
// queue is full or the bus is closed.
func (b *Bus) Publish(e Event) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	select {
	case b.events <- e:
		return true
	default:
		b.log.Warn("notification queue full, dropping event", "type", e.Notification().Type)
		return false
	}
}

// Close stops accepting events and waits for queued ones to be delivered
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()
	<-b.done
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for e := range b.events {
		n := e.Notification()
		b.mu.RLock()
		sinks := append([]Notifier(nil), b.notifiers...)
		b.mu.RUnlock()
		for _, s := range sinks {
			if err := b.deliver(s, n); err != nil {
				b.log.Error("notification delivery failed", "type", n.Type, "error", err)
			}
		}
	}
}

func (b *Bus) deliver(s Notifier, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	return s.Notify(ctx, n)
}

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{log: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	attrs := []any{"type", n.Type, "title", n.Title, "body", n.Body}
	for k, v := range n.Data {
		attrs = append(attrs, k, v)
	}
	l.log.InfoContext(ctx, "notification", attrs...)
	return nil
}
