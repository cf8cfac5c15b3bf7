package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChannelType enumerates the supported external messaging surfaces.
type ChannelType string

const (
	ChannelTypeWhatsApp  ChannelType = "whatsapp"
	ChannelTypeInstagram ChannelType = "instagram"
)

// ChannelStatus is the connection state of a channel.
type ChannelStatus string

const (
	ChannelConnected    ChannelStatus = "connected"
	ChannelDisconnected ChannelStatus = "disconnected"
)

// Credentials is the tagged union of provider credential payloads. Each
// channel type carries its own strongly-typed variant; nothing outside
// trusted server contexts may see it.
type Credentials interface {
	ChannelType() ChannelType
	// AccountID is the provider-side account identifier used to route
	// inbound webhooks back to the owning channel.
	AccountID() string
}

// WhatsAppCredentials is what the Meta OAuth handshake yields for a WhatsApp
// business number.
type WhatsAppCredentials struct {
	AccessToken string `json:"accessToken"`
	BusinessID  string `json:"businessId"`
	WABAID      string `json:"wabaId"`
	PhoneID     string `json:"phoneId"`
	PhoneNumber string `json:"phoneNumber"`
}

func (WhatsAppCredentials) ChannelType() ChannelType { return ChannelTypeWhatsApp }
func (c WhatsAppCredentials) AccountID() string      { return c.PhoneID }

// InstagramCredentials holds the Instagram messaging handshake result.
type InstagramCredentials struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	Username    string `json:"username"`
}

func (InstagramCredentials) ChannelType() ChannelType { return ChannelTypeInstagram }
func (c InstagramCredentials) AccountID() string      { return c.UserID }

type credentialsEnvelope struct {
	Type    ChannelType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeCredentials serializes credentials with a type tag. Nil credentials
// encode as an empty object (the disconnected state).
func EncodeCredentials(creds Credentials) ([]byte, error) {
	if creds == nil {
		return []byte("{}"), nil
	}
	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials payload: %w", err)
	}
	return json.Marshal(credentialsEnvelope{Type: creds.ChannelType(), Payload: payload})
}

// DecodeCredentials reverses EncodeCredentials. An empty object decodes to
// nil (disconnected).
func DecodeCredentials(data []byte) (Credentials, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var envelope credentialsEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials envelope: %w", err)
	}
	if envelope.Type == "" {
		return nil, nil
	}
	switch envelope.Type {
	case ChannelTypeWhatsApp:
		var creds WhatsAppCredentials
		if err := json.Unmarshal(envelope.Payload, &creds); err != nil {
			return nil, fmt.Errorf("failed to unmarshal whatsapp credentials: %w", err)
		}
		return creds, nil
	case ChannelTypeInstagram:
		var creds InstagramCredentials
		if err := json.Unmarshal(envelope.Payload, &creds); err != nil {
			return nil, fmt.Errorf("failed to unmarshal instagram credentials: %w", err)
		}
		return creds, nil
	default:
		return nil, fmt.Errorf("unknown credentials type: %s", envelope.Type)
	}
}

// Channel is a connected external messaging surface, e.g. one WhatsApp
// business number.
type Channel struct {
	ID          string
	WorkspaceID string
	Name        string
	Type        ChannelType
	Status      ChannelStatus
	Credentials Credentials
	CreatedAt   time.Time
}

// NewChannel creates a disconnected channel with no credentials.
func NewChannel(workspaceID, name string, channelType ChannelType) *Channel {
	return &Channel{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		Type:        channelType,
		Status:      ChannelDisconnected,
		CreatedAt:   time.Now(),
	}
}

// Connected stores the provider credentials and flips the channel on. Payload
// shape validation is the connection strategy's job, not the entity's.
func (c *Channel) Connected(creds Credentials) {
	c.Status = ChannelConnected
	c.Credentials = creds
}

// Disconnect flips the channel off and destroys the stored credentials:
// forget credentials on disconnect.
func (c *Channel) Disconnect() {
	c.Status = ChannelDisconnected
	c.Credentials = nil
}

func (c *Channel) SetName(name string) {
	c.Name = name
}

// ProviderAccountID returns the provider account identifier for webhook
// routing, empty while disconnected.
func (c *Channel) ProviderAccountID() string {
	if c.Credentials == nil {
		return ""
	}
	return c.Credentials.AccountID()
}
