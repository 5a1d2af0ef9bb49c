package events

import "context"

// Handler consumes payment events. Delivery is at-least-once from the
// handler's point of view, so handling an event twice must be harmless.
type Handler interface {
	Handles() []string
	Handle(ctx context.Context, event Event) error
}

type funcHandler struct {
	eventTypes []string
	fn         func(context.Context, Event) error
}

// On returns a Handler that calls fn for the given event types.
func On(fn func(context.Context, Event) error, eventTypes ...string) Handler {
	return &funcHandler{eventTypes: eventTypes, fn: fn}
}

func (h *funcHandler) Handles() []string { return h.eventTypes }

func (h *funcHandler) Handle(ctx context.Context, event Event) error {
	return h.fn(ctx, event)
}
