package queue

import (
	"context"
	"errors"
)

// ErrEmptyQueue is returned by Pop when no message is waiting.
var ErrEmptyQueue = errors.New("queue: no messages")

// Publisher hands serialized batch messages to the transport. Delivery is
// at-least-once; the caller owns retry and reconciliation.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Consumer pops a single message. Used by the debug dequeue endpoint only;
// production workers consume the transport directly.
type Consumer interface {
	Pop(ctx context.Context) (*Message, error)
}

// Queue is the full transport surface the pipeline consumes.
type Queue interface {
	Publisher
	Consumer
	Size(ctx context.Context) (int64, error)
	Close() error
}
