package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/rti-filing/internal/observability"
)

// ErrBusClosed is returned by Publish once Close has been called.
var ErrBusClosed = errors.New("event bus closed")

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) Payload() interface{} {
	return e.Data
}

type Handler func(ctx context.Context, event Event) error

// EventBus fans events out to subscribers in process. Publish never reports
// handler failures to the publisher: submissions must succeed even when a
// notification cannot be delivered.
type EventBus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool

	inflight sync.WaitGroup
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Info("event handler registered",
		"event_type", eventType,
		"total_handlers", len(eb.handlers[eventType]))
}

// subscribers returns a snapshot of the handlers for the event. With async
// set they are counted as in flight under the lock Close takes.
func (eb *EventBus) subscribers(event Event, async bool) ([]Handler, error) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return nil, ErrBusClosed
	}
	handlers := eb.handlers[event.EventType()]
	if len(handlers) == 0 {
		eb.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return nil, nil
	}
	if async {
		eb.inflight.Add(len(handlers))
	}
	return handlers, nil
}

// Publish runs every handler on its own goroutine with a context detached
// from the caller's cancellation.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	handlers, err := eb.subscribers(event, true)
	if err != nil || len(handlers) == 0 {
		return err
	}

	eb.logger.Debug("publishing event",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"handlers_count", len(handlers))

	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		go func(h Handler) {
			defer eb.inflight.Done()
			_ = eb.run(detached, h, event)
		}(handler)
	}
	return nil
}

// PublishSync runs the handlers in order on the caller's goroutine and stops
// at the first failure.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	handlers, err := eb.subscribers(event, false)
	if err != nil || len(handlers) == 0 {
		return err
	}

	for _, handler := range handlers {
		if err := eb.run(ctx, handler, event); err != nil {
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

func (eb *EventBus) run(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
		observability.EventsHandled.WithLabelValues(event.EventType(), observability.ResultLabel(err == nil)).Inc()
		if err != nil {
			eb.logger.Error("event handler failed",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"error", err)
		}
	}()
	return h(ctx, event)
}

// Wait blocks until every asynchronously dispatched handler has returned.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

// Close rejects further publishes and waits for running handlers.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	eb.closed = true
	eb.mu.Unlock()
	eb.inflight.Wait()
}
