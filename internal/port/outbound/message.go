package outbound

import "context"

// EventPublisherPort defines event publishing operations.
type EventPublisherPort interface {
	// Publish publishes a domain event.
	Publish(ctx context.Context, event any) error
}
