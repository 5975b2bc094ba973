package events

import (
	"context"
	"time"
)

// Event is a fact published after a committed change. StreamID is the company id.
type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

// Handler reacts to published events. Errors are logged by the bus.
type Handler interface {
	Handle(ctx context.Context, event Event) error
	CanHandle(eventType string) bool
}

// HandlerFunc adapts a function to a Handler that accepts every subscribed type
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

func (f HandlerFunc) CanHandle(string) bool {
	return true
}

// Publisher is the narrow view services depend on
type Publisher interface {
	Publish(event Event) error
}

type BaseEvent struct {
	EventType    string
	Stream       string
	EventData    interface{}
	EventTime    time.Time
	EventVersion int
}

func (e BaseEvent) Type() string {
	return e.EventType
}

func (e BaseEvent) StreamID() string {
	return e.Stream
}

func (e BaseEvent) Data() interface{} {
	return e.EventData
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

func (e BaseEvent) Version() int {
	return e.EventVersion
}

// NewEvent builds an unversioned event; the bus assigns the stream version on publish.
func NewEvent(eventType, streamID string, data interface{}, at time.Time) Event {
	return BaseEvent{
		EventType: eventType,
		Stream:    streamID,
		EventData: data,
		EventTime: at,
	}
}
