package models

import (
	"time"
)

// MessageType is the payload kind of a message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeAudio MessageType = "audio"
	MessageTypeImage MessageType = "image"
)

// MessageStatus tracks delivery progress. It only moves forward along
// senting -> sent -> delivered -> viewed, though the mark methods do not
// enforce ordering (status callbacks from the provider are trusted).
type MessageStatus string

const (
	MessageStatusSenting   MessageStatus = "senting"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusViewed    MessageStatus = "viewed"
)

// Message is a single message in a conversation. Content holds the text body
// for text messages and an opaque provider media id for audio and image.
type Message struct {
	ID        string        `json:"id"`
	Type      MessageType   `json:"type"`
	Content   string        `json:"content"`
	Sender    Sender        `json:"sender"`
	CreatedAt time.Time     `json:"createdAt"`
	Internal  bool          `json:"internal"`
	Status    MessageStatus `json:"status"`
	ViewedAt  *time.Time    `json:"viewedAt"`
}

// NewMessage builds a message with the construction default status "sent".
// Inbound pipelines mark contact-originated messages delivered immediately.
func NewMessage(id string, messageType MessageType, content string, sender Sender, createdAt time.Time, internal bool) *Message {
	return &Message{
		ID:        id,
		Type:      messageType,
		Content:   content,
		Sender:    sender,
		CreatedAt: createdAt,
		Internal:  internal,
		Status:    MessageStatusSent,
	}
}

// RestoreMessage rebuilds a persisted message without applying construction
// defaults.
func RestoreMessage(id string, messageType MessageType, content string, sender Sender, createdAt time.Time, internal bool, status MessageStatus, viewedAt *time.Time) *Message {
	return &Message{
		ID:        id,
		Type:      messageType,
		Content:   content,
		Sender:    sender,
		CreatedAt: createdAt,
		Internal:  internal,
		Status:    status,
		ViewedAt:  viewedAt,
	}
}

func (m *Message) MarkAsSent() {
	m.Status = MessageStatusSent
}

func (m *Message) MarkAsDelivered() {
	m.Status = MessageStatusDelivered
}

// MarkAsViewed stamps ViewedAt; it is the only transition that records a time.
func (m *Message) MarkAsViewed() {
	now := time.Now()
	m.Status = MessageStatusViewed
	m.ViewedAt = &now
}
