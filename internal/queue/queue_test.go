package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFOWithinGroup(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, q.SendMessageToQueue(ctx, Message{
			Body:      "body-" + id,
			GroupID:   "w1",
			MessageID: id,
		}))
	}

	for _, want := range []string{"m1", "m2", "m3"} {
		msg, err := q.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, msg.MessageID)
	}
}

func TestMemoryQueue_DedupByMessageID(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	require.NoError(t, q.SendMessageToQueue(ctx, Message{MessageID: "m1", Body: "first"}))
	require.NoError(t, q.SendMessageToQueue(ctx, Message{MessageID: "m1", Body: "replay"}))

	assert.Equal(t, 1, q.Len())

	msg, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", msg.Body)
}

func TestMemoryQueue_EmptyMessageIDNotDeduped(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	require.NoError(t, q.SendMessageToQueue(ctx, Message{Body: "a"}))
	require.NoError(t, q.SendMessageToQueue(ctx, Message{Body: "b"}))
	assert.Equal(t, 2, q.Len())
}

func TestMemoryQueue_FullQueueReturnsError(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	for i := 0; i < cap(q.items); i++ {
		require.NoError(t, q.SendMessageToQueue(ctx, Message{Body: "fill"}))
	}

	err := q.SendMessageToQueue(ctx, Message{MessageID: "overflow", Body: "x"})
	require.ErrorIs(t, err, ErrQueueFull)

	// the rejected id was not burned: after draining one slot the retry lands
	_, err = q.Receive(ctx)
	require.NoError(t, err)
	require.NoError(t, q.SendMessageToQueue(ctx, Message{MessageID: "overflow", Body: "x"}))
}

func TestMemoryQueue_ReceiveHonorsContext(t *testing.T) {
	q := NewMemoryQueue()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
