package pubsub

import "context"

const (
	// StartedEvent marks the beginning of a streamed answer.
	StartedEvent EventType = "started"
	// ProgressEvent carries one incremental payload of an ongoing stream.
	ProgressEvent EventType = "progress"
	// FinishedEvent marks the successful end of a stream.
	FinishedEvent EventType = "finished"
	// FailedEvent marks an aborted stream.
	FailedEvent EventType = "failed"
)

// Subscriber hands out event channels scoped to a context.
type Subscriber[T any] interface {
	// Subscribe returns a read-only event channel that is closed when the
	// context ends.
	Subscribe(context.Context) <-chan Event[T]
}

type (
	// EventType identifies the kind of an event.
	EventType string

	// Event is one published record with its typed payload.
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher delivers events to all current subscribers.
	Publisher[T any] interface {
		Publish(EventType, T)
	}
)
