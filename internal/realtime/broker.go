package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Doxa-Code/omnichannel/internal/constants"
)

// EventType names the server-sent event kinds pushed to attendant consoles.
type EventType string

const (
	EventConnected    EventType = "connected"
	EventPing         EventType = "ping"
	EventConversation EventType = "conversation"
	EventTyping       EventType = "typing"
	EventUntyping     EventType = "untyping"
	EventCart         EventType = "cart"
)

// Event is one unit pushed to subscribers of a workspace stream.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type subscriber struct {
	workspaceID string
	ch          chan Event
}

// Broker fans workspace events out to SSE subscribers. Slow subscribers are
// skipped rather than blocking the publisher.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	logger      *logrus.Logger
}

func NewBroker(logger *logrus.Logger) *Broker {
	return &Broker{
		subscribers: make(map[*subscriber]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a consumer for one workspace's events. The returned
// channel is closed by Unsubscribe.
func (b *Broker) Subscribe(workspaceID string) (<-chan Event, func()) {
	sub := &subscriber{
		workspaceID: workspaceID,
		ch:          make(chan Event, constants.DefaultEventBufferSize),
	}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[sub]; ok {
			delete(b.subscribers, sub)
			close(sub.ch)
		}
		b.mu.Unlock()
	}
	return sub.ch, unsubscribe
}

// Publish delivers an event to every subscriber of the workspace. Full
// subscriber buffers drop the event for that subscriber only.
func (b *Broker) Publish(workspaceID string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		if sub.workspaceID != workspaceID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.WithFields(logrus.Fields{
				"workspace_id": workspaceID,
				"event_type":   event.Type,
			}).Warn("Dropping realtime event for slow subscriber")
		}
	}
}

// SubscriberCount reports active subscribers, all workspaces combined.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// ServeHTTP streams events for one workspace as server-sent events. The
// stream opens with a connected event and carries pings so intermediaries
// keep the connection alive.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request, workspaceID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, unsubscribe := b.Subscribe(workspaceID)
	defer unsubscribe()

	if err := writeEvent(w, Event{Type: EventConnected}); err != nil {
		return
	}
	flusher.Flush()

	ping := time.NewTicker(time.Duration(constants.DefaultPingIntervalSec) * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			if err := writeEvent(w, Event{Type: EventPing}); err != nil {
				return
			}
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			if err := writeEvent(w, event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
	return err
}
