package models

import (
	"sort"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
)

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	ConversationWaiting ConversationStatus = "waiting"
	ConversationOpen    ConversationStatus = "open"
	ConversationClosed  ConversationStatus = "closed"
	// ConversationExpired is applied by an external time-based sweep; no
	// transition in this package sets it.
	ConversationExpired ConversationStatus = "expired"
)

// Teaser placeholders for non-text messages in list views.
const (
	teaserAudio = "Audio"
	teaserImage = "Imagem"
)

// Conversation is the aggregate root for one support thread between a contact
// and the workspace over a channel. Messages are held in a map keyed by
// message id; read order is derived by CreatedAt, never stored.
//
// The aggregate is not safe for concurrent use; callers serialize access per
// conversation through the load-mutate-persist cycle.
type Conversation struct {
	ID          string
	WorkspaceID string
	Contact     Contact
	Attendant   *Attendant
	Sector      *Sector
	Status      ConversationStatus
	OpenedAt    *time.Time
	ClosedAt    *time.Time
	ChannelID   string

	messages map[string]*Message
}

// ConversationState carries every persisted field for rehydration.
type ConversationState struct {
	ID          string
	WorkspaceID string
	Contact     Contact
	Messages    []*Message
	Attendant   *Attendant
	Sector      *Sector
	Status      ConversationStatus
	OpenedAt    *time.Time
	ClosedAt    *time.Time
	ChannelID   string
}

// NewConversation starts a fresh waiting conversation for a contact on a
// channel.
func NewConversation(contact Contact, workspaceID, channelID string) (*Conversation, error) {
	if contact.Phone == "" {
		return nil, apperrors.NewInvalidCreation("conversation")
	}
	return &Conversation{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Contact:     contact,
		Status:      ConversationWaiting,
		ChannelID:   channelID,
		messages:    make(map[string]*Message),
	}, nil
}

// RestoreConversation rebuilds a persisted conversation.
func RestoreConversation(state ConversationState) *Conversation {
	c := &Conversation{
		ID:          state.ID,
		WorkspaceID: state.WorkspaceID,
		Contact:     state.Contact,
		Attendant:   state.Attendant,
		Sector:      state.Sector,
		Status:      state.Status,
		OpenedAt:    state.OpenedAt,
		ClosedAt:    state.ClosedAt,
		ChannelID:   state.ChannelID,
		messages:    make(map[string]*Message, len(state.Messages)),
	}
	for _, m := range state.Messages {
		c.messages[m.ID] = m
	}
	return c
}

// Messages returns the owned messages ordered by CreatedAt ascending, ties
// broken by id for determinism.
func (c *Conversation) Messages() []*Message {
	out := make([]*Message, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// HasMessage reports whether a message with the given id is already owned.
func (c *Conversation) HasMessage(id string) bool {
	_, ok := c.messages[id]
	return ok
}

// LastMessage returns the most recent message by CreatedAt, or nil.
func (c *Conversation) LastMessage() *Message {
	messages := c.Messages()
	if len(messages) == 0 {
		return nil
	}
	return messages[len(messages)-1]
}

// LastContactMessages returns the maximal trailing run of contact-authored
// messages since the last attendant-authored message. Viewed status does not
// affect membership.
func (c *Conversation) LastContactMessages() []*Message {
	messages := c.Messages()
	var run []*Message
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender.Type == SenderAttendant {
			break
		}
		run = append(run, messages[i])
	}
	// collected backwards
	for i, j := 0, len(run)-1; i < j; i, j = i+1, j-1 {
		run[i], run[j] = run[j], run[i]
	}
	return run
}

// Teaser is a short preview of the last message for list views.
func (c *Conversation) Teaser() string {
	last := c.LastMessage()
	if last == nil {
		return ""
	}
	switch last.Type {
	case MessageTypeAudio:
		return teaserAudio
	case MessageTypeImage:
		return teaserImage
	default:
		return last.Content
	}
}

// AddMessage upserts a message by id; replaying the same id overwrites rather
// than duplicates. When a waiting conversation receives an attendant-authored
// message the conversation auto-promotes: the sender becomes the attendant,
// the conversation opens, and every unviewed message is marked viewed (an
// attendant typing implies they have seen the thread).
func (c *Conversation) AddMessage(message *Message) {
	c.messages[message.ID] = message

	if c.Status == ConversationWaiting && message.Sender.Type == SenderAttendant {
		c.AttributeAttendant(Attendant{ID: message.Sender.ID, Name: message.Sender.Name})
		c.markUnviewedAsViewed()
	}
}

// AttributeAttendant assigns an attendant. Assigning to a waiting
// unattended conversation performs the waiting->open transition first, so a
// waiting conversation never holds an attendant. An existing attendant is
// silently replaced; ownership checks belong to the calling use case.
func (c *Conversation) AttributeAttendant(attendant Attendant) {
	if c.Attendant == nil && c.Status == ConversationWaiting {
		c.open()
	}
	c.Attendant = &attendant
}

// TransferToSector changes the sector and unconditionally clears the
// attendant: a sector transfer always requires a fresh attendant pick.
func (c *Conversation) TransferToSector(sector Sector) {
	c.Sector = &sector
	c.Attendant = nil
}

// TransferToAttendant reassigns the attendant only; the sector is untouched.
func (c *Conversation) TransferToAttendant(attendant Attendant) {
	c.Attendant = &attendant
}

// Close marks the conversation closed. Calling it again restamps ClosedAt.
func (c *Conversation) Close() {
	now := time.Now()
	c.Status = ConversationClosed
	c.ClosedAt = &now
}

// OpenThread marks unviewed messages viewed when the owning attendant opens
// the thread. A non-owner opening the thread has no effect.
func (c *Conversation) OpenThread(attendantID string) {
	if c.Attendant == nil || c.Attendant.ID != attendantID {
		return
	}
	c.markUnviewedAsViewed()
}

// MarkLastMessagesContactAsViewed marks every unviewed contact-authored
// message as viewed. Used when an attendant reads a thread.
func (c *Conversation) MarkLastMessagesContactAsViewed() {
	for _, m := range c.messages {
		if m.Status != MessageStatusViewed && m.Sender.Type == SenderContact {
			m.MarkAsViewed()
		}
	}
}

// MarkAllMessagesAsViewed marks every unviewed message as viewed regardless
// of sender; mirrors what the remote channel confirmed on a read callback.
func (c *Conversation) MarkAllMessagesAsViewed() {
	c.markUnviewedAsViewed()
}

func (c *Conversation) markUnviewedAsViewed() {
	for _, m := range c.messages {
		if m.Status != MessageStatusViewed {
			m.MarkAsViewed()
		}
	}
}

// open performs the single waiting->open transition, stamping OpenedAt.
// Transfers never pass through here again, so OpenedAt is never reset.
func (c *Conversation) open() {
	now := time.Now()
	c.Status = ConversationOpen
	c.OpenedAt = &now
}

// ConversationSnapshot is the wire view of a conversation, including the
// derived fields computed on read.
type ConversationSnapshot struct {
	ID                  string             `json:"id"`
	WorkspaceID         string             `json:"workspaceId"`
	Contact             Contact            `json:"contact"`
	Messages            []*Message         `json:"messages"`
	Attendant           *Attendant         `json:"attendant"`
	Sector              *Sector            `json:"sector"`
	Status              ConversationStatus `json:"status"`
	OpenedAt            *time.Time         `json:"openedAt"`
	ClosedAt            *time.Time         `json:"closedAt"`
	ChannelID           string             `json:"channel"`
	LastMessage         *Message           `json:"lastMessage,omitempty"`
	Teaser              string             `json:"teaser"`
	LastContactMessages []*Message         `json:"lastContactMessages"`
}

// Snapshot renders the aggregate for transport. Derived views are computed
// here and are never persisted.
func (c *Conversation) Snapshot() ConversationSnapshot {
	return ConversationSnapshot{
		ID:                  c.ID,
		WorkspaceID:         c.WorkspaceID,
		Contact:             c.Contact,
		Messages:            c.Messages(),
		Attendant:           c.Attendant,
		Sector:              c.Sector,
		Status:              c.Status,
		OpenedAt:            c.OpenedAt,
		ClosedAt:            c.ClosedAt,
		ChannelID:           c.ChannelID,
		LastMessage:         c.LastMessage(),
		Teaser:              c.Teaser(),
		LastContactMessages: c.LastContactMessages(),
	}
}
