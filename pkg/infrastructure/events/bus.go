package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned by Publish after Close
var ErrClosed = errors.New("event bus closed")

// DefaultRetention is how many events the bus keeps for ReadAllEvents
const DefaultRetention = 10000

// Bus is an in-process event log with asynchronous fan-out to subscribers.
// Each handler invocation runs on its own goroutine; Flush and Close wait for them.
type Bus struct {
	logger      *zap.Logger
	streams     map[string][]Event
	versions    map[string]int
	subscribers map[string][]Handler
	allEvents   []Event
	dropped     int
	retention   int
	closed      bool
	mutex       sync.RWMutex
	inflight    sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewBus creates a bus keeping at most retention events (DefaultRetention when <= 0)
func NewBus(logger *zap.Logger, retention int) *Bus {
	if retention <= 0 {
		retention = DefaultRetention
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		logger:      logger,
		streams:     make(map[string][]Event),
		versions:    make(map[string]int),
		subscribers: make(map[string][]Handler),
		allEvents:   make([]Event, 0),
		retention:   retention,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Publish appends the event to its stream and notifies subscribers of its type
func (b *Bus) Publish(event Event) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return fmt.Errorf("publish %s: %w", event.Type(), ErrClosed)
	}

	streamID := event.StreamID()
	b.versions[streamID]++
	versioned := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: b.versions[streamID],
	}

	b.streams[streamID] = append(b.streams[streamID], versioned)
	b.allEvents = append(b.allEvents, versioned)
	b.trim(streamID)

	for _, handler := range b.subscribers[versioned.Type()] {
		if !handler.CanHandle(versioned.Type()) {
			continue
		}
		b.inflight.Add(1)
		go b.deliver(handler, versioned)
	}
	return nil
}

func (b *Bus) trim(streamID string) {
	if n := len(b.allEvents) - b.retention; n > 0 {
		b.allEvents = append([]Event(nil), b.allEvents[n:]...)
		b.dropped += n
	}
	if stream := b.streams[streamID]; len(stream) > b.retention {
		b.streams[streamID] = append([]Event(nil), stream[len(stream)-b.retention:]...)
	}
}

func (b *Bus) deliver(handler Handler, event Event) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", event.Type()),
				zap.String("stream_id", event.StreamID()),
				zap.Any("panic", r))
		}
	}()

	if err := handler.Handle(b.ctx, event); err != nil {
		b.logger.Error("event handler failed",
			zap.String("event_type", event.Type()),
			zap.String("stream_id", event.StreamID()),
			zap.Int("version", event.Version()),
			zap.Error(err))
	}
}

// ReadEvents returns the retained events of a stream from fromVersion on
func (b *Bus) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	out := make([]Event, 0)
	for _, e := range b.streams[streamID] {
		if e.Version() >= fromVersion {
			out = append(out, e)
		}
	}
	return out, nil
}

// ReadAllEvents returns retained events whose global position is >= fromPosition.
// Positions count every event ever published, starting at 0.
func (b *Bus) ReadAllEvents(fromPosition int) ([]Event, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	idx := fromPosition - b.dropped
	if idx < 0 {
		idx = 0
	}
	if idx >= len(b.allEvents) {
		return []Event{}, nil
	}
	return append([]Event(nil), b.allEvents[idx:]...), nil
}

// Subscribe registers handler for the given event types
func (b *Bus) Subscribe(eventTypes []string, handler Handler) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], handler)
	}
	return nil
}

// Unsubscribe removes handler from every event type. Handlers must be comparable.
func (b *Bus) Unsubscribe(handler Handler) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for eventType, handlers := range b.subscribers {
		kept := make([]Handler, 0, len(handlers))
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		b.subscribers[eventType] = kept
	}
	return nil
}

// Flush blocks until every delivery started so far, and any event those
// deliveries published in turn, has been handled.
func (b *Bus) Flush() {
	b.inflight.Wait()
}

// Close rejects further publishes and waits for in-flight deliveries
func (b *Bus) Close() error {
	b.mutex.Lock()
	b.closed = true
	b.mutex.Unlock()

	b.inflight.Wait()
	b.cancel()
	return nil
}
