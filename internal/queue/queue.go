package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/Doxa-Code/omnichannel/internal/constants"
)

// ErrQueueFull is returned when the queue has no capacity left; the caller
// surfaces it instead of blocking a request on a stalled dispatcher.
var ErrQueueFull = errors.New("outbound queue is full")

// Message is one queued unit of work. GroupID serializes delivery: messages
// sharing a group are received in enqueue order. MessageID deduplicates
// replays inside a queue.
type Message struct {
	QueueURL  string
	Body      string
	GroupID   string
	MessageID string
}

// Driver is the outbound queue port. Implementations must preserve FIFO order
// within a group and drop duplicate message ids.
type Driver interface {
	SendMessageToQueue(ctx context.Context, msg Message) error
}

// MemoryQueue is an in-process FIFO queue with per-group ordering and
// dedup by message id. It backs the outbound message dispatcher and doubles
// as the sink for cart events when no external queue is configured.
type MemoryQueue struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	items chan Message
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		seen:  make(map[string]struct{}),
		items: make(chan Message, constants.DefaultQueueCapacity),
	}
}

// SendMessageToQueue enqueues a message. A message id already accepted is
// silently dropped; a full queue returns an error rather than blocking the
// caller.
func (q *MemoryQueue) SendMessageToQueue(ctx context.Context, msg Message) error {
	q.mu.Lock()
	if msg.MessageID != "" {
		if _, dup := q.seen[msg.MessageID]; dup {
			q.mu.Unlock()
			return nil
		}
		q.seen[msg.MessageID] = struct{}{}
	}
	q.mu.Unlock()

	select {
	case q.items <- msg:
		return nil
	default:
	}

	// release the dedup claim so a later retry of the same id can land
	if msg.MessageID != "" {
		q.mu.Lock()
		delete(q.seen, msg.MessageID)
		q.mu.Unlock()
	}
	return ErrQueueFull
}

// Receive blocks until a message is available or the context ends. The
// single consumer loop preserves global FIFO order, which subsumes the
// per-group ordering guarantee.
func (q *MemoryQueue) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-q.items:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Len reports the number of queued messages.
func (q *MemoryQueue) Len() int {
	return len(q.items)
}
