package service

import (
	"context"
	"time"

	"github.com/Doxa-Code/omnichannel/internal/models"
)

// Store is the persistence surface the services depend on. It is satisfied by
// *database.Database; tests substitute a mock.
type Store interface {
	SaveConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	GetActiveConversationByContact(ctx context.Context, contactPhone, channelID string) (*models.Conversation, error)
	GetConversationIDByMessageID(ctx context.Context, messageID string) (string, error)
	ListConversationsByWorkspace(ctx context.Context, workspaceID string) ([]*models.Conversation, error)
	ExpireStaleConversations(ctx context.Context, before time.Time) (int64, error)

	SaveChannel(ctx context.Context, channel *models.Channel) error
	GetChannel(ctx context.Context, id string) (*models.Channel, error)
	GetChannelByProviderAccountID(ctx context.Context, providerAccountID string) (*models.Channel, error)
	ListChannelsByWorkspace(ctx context.Context, workspaceID string) ([]*models.Channel, error)

	SaveContact(ctx context.Context, contact models.Contact) error
	GetContact(ctx context.Context, phone string) (models.Contact, bool, error)

	GetSector(ctx context.Context, id string) (models.Sector, bool, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetMembership(ctx context.Context, workspaceID, userID string) (*models.Membership, error)

	SaveCart(ctx context.Context, cart *models.Cart) error
	GetOpenCartByConversationID(ctx context.Context, conversationID string) (*models.Cart, error)
	GetSettings(ctx context.Context, workspaceID string) (models.Settings, error)
}

// MessageDriver is the outbound provider port for one channel type. The
// channel carries the credentials each call needs.
type MessageDriver interface {
	SendMessageText(ctx context.Context, channel *models.Channel, to, content string) (string, error)
	SendMessageAudio(ctx context.Context, channel *models.Channel, to string, audio models.AudioFile) (models.AudioSendResult, error)
	SendTyping(ctx context.Context, channel *models.Channel, messageID string) error
	ViewMessage(ctx context.Context, channel *models.Channel, messageID string) error
	DownloadMedia(ctx context.Context, channel *models.Channel, mediaID string) ([]byte, string, error)
}

// ConnectionStrategy performs the provider handshake for one channel type and
// yields the credentials to store on the channel.
type ConnectionStrategy interface {
	Connect(ctx context.Context, input ConnectChannelInput) (models.Credentials, error)
}

// ConnectChannelInput carries the provider handshake parameters. Code is the
// OAuth authorization code; PhoneNumberID optionally pins one business number
// when the account owns several.
type ConnectChannelInput struct {
	WorkspaceID   string
	ChannelID     string
	ChannelName   string
	ChannelType   models.ChannelType
	Code          string
	PhoneNumberID string
}

// EventPublisher pushes realtime events to attendant consoles.
type EventPublisher interface {
	PublishConversation(workspaceID string, snapshot models.ConversationSnapshot)
	PublishTyping(workspaceID, conversationID string, typing bool)
	PublishCart(workspaceID string, cart *models.Cart)
}
