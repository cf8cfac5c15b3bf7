package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/Doxa-Code/omnichannel/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&strings.Builder{})
	return logger
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveConversation(ctx context.Context, conv *models.Conversation) error {
	return m.Called(ctx, conv).Error(0)
}

func (m *mockStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	if conv := args.Get(0); conv != nil {
		return conv.(*models.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetActiveConversationByContact(ctx context.Context, contactPhone, channelID string) (*models.Conversation, error) {
	args := m.Called(ctx, contactPhone, channelID)
	if conv := args.Get(0); conv != nil {
		return conv.(*models.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetConversationIDByMessageID(ctx context.Context, messageID string) (string, error) {
	args := m.Called(ctx, messageID)
	return args.String(0), args.Error(1)
}

func (m *mockStore) ListConversationsByWorkspace(ctx context.Context, workspaceID string) ([]*models.Conversation, error) {
	args := m.Called(ctx, workspaceID)
	if conversations := args.Get(0); conversations != nil {
		return conversations.([]*models.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ExpireStaleConversations(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) SaveChannel(ctx context.Context, channel *models.Channel) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *mockStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	args := m.Called(ctx, id)
	if channel := args.Get(0); channel != nil {
		return channel.(*models.Channel), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetChannelByProviderAccountID(ctx context.Context, providerAccountID string) (*models.Channel, error) {
	args := m.Called(ctx, providerAccountID)
	if channel := args.Get(0); channel != nil {
		return channel.(*models.Channel), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListChannelsByWorkspace(ctx context.Context, workspaceID string) ([]*models.Channel, error) {
	args := m.Called(ctx, workspaceID)
	if channels := args.Get(0); channels != nil {
		return channels.([]*models.Channel), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) SaveContact(ctx context.Context, contact models.Contact) error {
	return m.Called(ctx, contact).Error(0)
}

func (m *mockStore) GetContact(ctx context.Context, phone string) (models.Contact, bool, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).(models.Contact), args.Bool(1), args.Error(2)
}

func (m *mockStore) GetSector(ctx context.Context, id string) (models.Sector, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Sector), args.Bool(1), args.Error(2)
}

func (m *mockStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetMembership(ctx context.Context, workspaceID, userID string) (*models.Membership, error) {
	args := m.Called(ctx, workspaceID, userID)
	if membership := args.Get(0); membership != nil {
		return membership.(*models.Membership), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *mockStore) GetOpenCartByConversationID(ctx context.Context, conversationID string) (*models.Cart, error) {
	args := m.Called(ctx, conversationID)
	if cart := args.Get(0); cart != nil {
		return cart.(*models.Cart), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetSettings(ctx context.Context, workspaceID string) (models.Settings, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).(models.Settings), args.Error(1)
}

type mockDriver struct {
	mock.Mock
}

func (m *mockDriver) SendMessageText(ctx context.Context, channel *models.Channel, to, content string) (string, error) {
	args := m.Called(ctx, channel, to, content)
	return args.String(0), args.Error(1)
}

func (m *mockDriver) SendMessageAudio(ctx context.Context, channel *models.Channel, to string, audio models.AudioFile) (models.AudioSendResult, error) {
	args := m.Called(ctx, channel, to, audio)
	return args.Get(0).(models.AudioSendResult), args.Error(1)
}

func (m *mockDriver) SendTyping(ctx context.Context, channel *models.Channel, messageID string) error {
	return m.Called(ctx, channel, messageID).Error(0)
}

func (m *mockDriver) ViewMessage(ctx context.Context, channel *models.Channel, messageID string) error {
	return m.Called(ctx, channel, messageID).Error(0)
}

func (m *mockDriver) DownloadMedia(ctx context.Context, channel *models.Channel, mediaID string) ([]byte, string, error) {
	args := m.Called(ctx, channel, mediaID)
	if data := args.Get(0); data != nil {
		return data.([]byte), args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu            sync.Mutex
	conversations []models.ConversationSnapshot
	typing        []bool
	carts         []*models.Cart
}

func (p *capturingPublisher) PublishConversation(workspaceID string, snapshot models.ConversationSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conversations = append(p.conversations, snapshot)
}

func (p *capturingPublisher) PublishTyping(workspaceID, conversationID string, typing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typing = append(p.typing, typing)
}

func (p *capturingPublisher) PublishCart(workspaceID string, cart *models.Cart) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.carts = append(p.carts, cart)
}

func (p *capturingPublisher) conversationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conversations)
}

// Shared fixtures.

func superUser(id string) *models.User {
	return &models.User{ID: id, Name: "Root", Email: "root@example.com", Type: models.UserTypeSuperuser}
}

func regularUser(id, name string) *models.User {
	return &models.User{ID: id, Name: name, Email: name + "@example.com", Type: models.UserTypeRegular}
}

func connectedChannel(workspaceID string) *models.Channel {
	channel := models.NewChannel(workspaceID, "Loja", models.ChannelTypeWhatsApp)
	channel.Connected(models.WhatsAppCredentials{AccessToken: "tok", PhoneID: "123456"})
	return channel
}

func openConversation(workspaceID, channelID string) *models.Conversation {
	contact, _ := models.NewContact("5511888880000", "Maria")
	conv, _ := models.NewConversation(contact, workspaceID, channelID)
	return conv
}
