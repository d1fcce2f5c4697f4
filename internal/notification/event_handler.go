package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/rti-filing/internal/core/events"
)

type Enqueuer interface {
	Enqueue(job Job) bool
}

type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

// EventHandler turns form.submitted events into notification jobs.
type EventHandler struct {
	queue  Enqueuer
	logger *slog.Logger
}

func NewEventHandler(queue Enqueuer, logger *slog.Logger) *EventHandler {
	return &EventHandler{queue: queue, logger: logger}
}

func (h *EventHandler) Register(bus Subscriber) {
	bus.Subscribe(events.EventTypeFormSubmitted, h.HandleFormSubmitted)
}

func (h *EventHandler) HandleFormSubmitted(_ context.Context, event events.Event) error {
	submitted, ok := event.(*events.FormSubmittedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	job := Job{
		FormType: submitted.FormType,
		Data: FormData{
			ReferenceID: submitted.ReferenceID,
			Fields:      submitted.Fields,
			SubmittedAt: submitted.OccurredAt(),
		},
	}
	if !h.queue.Enqueue(job) {
		h.logger.Warn("form notification not queued",
			"event_id", submitted.EventID(),
			"form_type", submitted.FormType,
			"reference_id", submitted.ReferenceID)
	}
	return nil
}
