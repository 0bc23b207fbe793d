// Package notify delivers bill change events to subscribers off the request
// path. Publish never blocks; a single worker goroutine hands each event to
// every subscriber in registration order.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmynk/billkeeper/internal/models"
)

// Subscriber handles one event. Errors are logged and do not stop delivery
// to other subscribers.
type Subscriber interface {
	Handle(ctx context.Context, event models.BillEvent) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, event models.BillEvent) error

// Handle calls f.
func (f SubscriberFunc) Handle(ctx context.Context, event models.BillEvent) error {
	return f(ctx, event)
}

// Publisher is what the service depends on.
type Publisher interface {
	Publish(event models.BillEvent)
}

// Bus is a buffered event queue drained by one worker.
type Bus struct {
	eventCh     chan models.BillEvent
	subscribers []Subscriber
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	dropped     atomic.Int64

	// mu makes the stopped check and the send in Publish atomic with
	// respect to Shutdown.
	mu      sync.RWMutex
	stopped bool
}

// NewBus creates a bus holding up to bufferSize undelivered events.
func NewBus(bufferSize int) *Bus {
	if bufferSize < 1 {
		bufferSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		eventCh: make(chan models.BillEvent, bufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Subscribe registers s. Call before Start.
func (b *Bus) Subscribe(s Subscriber) {
	b.subscribers = append(b.subscribers, s)
}

// Start launches the worker.
func (b *Bus) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-b.ctx.Done():
				slog.Info("draining events before shutdown", "remaining_events", len(b.eventCh))
				for len(b.eventCh) > 0 {
					b.deliver(context.Background(), <-b.eventCh)
				}
				return
			case event := <-b.eventCh:
				b.deliver(b.ctx, event)
			}
		}
	}()
}

func (b *Bus) deliver(ctx context.Context, event models.BillEvent) {
	for _, s := range b.subscribers {
		if err := s.Handle(ctx, event); err != nil {
			slog.Error("failed to handle event", "error", err, "event_type", event.Type, "bill_id", event.BillID)
		}
	}
}

// Publish queues an event. When the buffer is full or the bus has been shut
// down the event is dropped with a warning.
func (b *Bus) Publish(event models.BillEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		b.dropped.Add(1)
		slog.Warn("event bus stopped, dropping event", "event_type", event.Type, "bill_id", event.BillID)
		return
	}
	select {
	case b.eventCh <- event:
	default:
		b.dropped.Add(1)
		slog.Warn("event channel full, dropping event", "event_type", event.Type, "bill_id", event.BillID)
	}
}

// Dropped reports how many events were discarded.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Shutdown stops accepting events, delivers what is queued and waits for the
// worker to exit.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	b.cancel()
	b.wg.Wait()
}
