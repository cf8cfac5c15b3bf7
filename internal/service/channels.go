package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
	"github.com/Doxa-Code/omnichannel/internal/models"
	"github.com/Doxa-Code/omnichannel/pkg/meta"
)

// ChannelService owns channel connection and disconnection. Each channel type
// registers a ConnectionStrategy that performs its provider handshake.
type ChannelService struct {
	store  Store
	auth   *AuthorizationService
	logger *logrus.Logger

	mu         sync.RWMutex
	strategies map[models.ChannelType]ConnectionStrategy
}

func NewChannelService(store Store, auth *AuthorizationService, logger *logrus.Logger) *ChannelService {
	return &ChannelService{
		store:      store,
		auth:       auth,
		logger:     logger,
		strategies: make(map[models.ChannelType]ConnectionStrategy),
	}
}

func (s *ChannelService) RegisterStrategy(channelType models.ChannelType, strategy ConnectionStrategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies[channelType] = strategy
}

func (s *ChannelService) strategy(channelType models.ChannelType) (ConnectionStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	strategy, ok := s.strategies[channelType]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput,
			"no connection strategy for channel type "+string(channelType))
	}
	return strategy, nil
}

// Connect runs the provider handshake and stores the resulting credentials.
// A ChannelID reconnects an existing channel; otherwise a new one is created.
func (s *ChannelService) Connect(ctx context.Context, userID string, input ConnectChannelInput) (*models.Channel, error) {
	if err := s.auth.Authorize(ctx, input.WorkspaceID, userID, models.PolicyManageConnections); err != nil {
		return nil, err
	}

	strategy, err := s.strategy(input.ChannelType)
	if err != nil {
		return nil, err
	}

	var channel *models.Channel
	if input.ChannelID != "" {
		channel, err = s.store.GetChannel(ctx, input.ChannelID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("get channel", err)
		}
		if channel == nil {
			return nil, apperrors.NewNotFound("channel", input.ChannelID)
		}
	} else {
		channel = models.NewChannel(input.WorkspaceID, input.ChannelName, input.ChannelType)
	}

	creds, err := strategy.Connect(ctx, input)
	if err != nil {
		return nil, err
	}

	channel.Connected(creds)
	if input.ChannelName != "" {
		channel.SetName(input.ChannelName)
	}

	if err := s.store.SaveChannel(ctx, channel); err != nil {
		return nil, apperrors.NewDatabaseError("save channel", err)
	}

	s.logger.WithFields(logrus.Fields{
		"channel_id":   channel.ID,
		"channel_type": channel.Type,
		"workspace_id": channel.WorkspaceID,
	}).Info("Channel connected")
	return channel, nil
}

// Disconnect flips the channel off and destroys its stored credentials.
func (s *ChannelService) Disconnect(ctx context.Context, workspaceID, userID, channelID string) error {
	if err := s.auth.Authorize(ctx, workspaceID, userID, models.PolicyManageConnections); err != nil {
		return err
	}

	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		return apperrors.NewDatabaseError("get channel", err)
	}
	if channel == nil {
		return apperrors.NewNotFound("channel", channelID)
	}

	channel.Disconnect()

	if err := s.store.SaveChannel(ctx, channel); err != nil {
		return apperrors.NewDatabaseError("save channel", err)
	}

	s.logger.WithField("channel_id", channel.ID).Info("Channel disconnected")
	return nil
}

// List returns the workspace's channels.
func (s *ChannelService) List(ctx context.Context, workspaceID, userID string) ([]*models.Channel, error) {
	if err := s.auth.Authorize(ctx, workspaceID, userID, models.PolicyManageConnections); err != nil {
		return nil, err
	}
	channels, err := s.store.ListChannelsByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list channels", err)
	}
	return channels, nil
}

// WhatsAppConnectionStrategy walks the Meta embedded-signup chain: exchange
// the code, resolve the business, subscribe the app to its WABA and pick the
// business number.
type WhatsAppConnectionStrategy struct {
	client *meta.Client
}

func NewWhatsAppConnectionStrategy(client *meta.Client) *WhatsAppConnectionStrategy {
	return &WhatsAppConnectionStrategy{client: client}
}

func (s *WhatsAppConnectionStrategy) Connect(ctx context.Context, input ConnectChannelInput) (models.Credentials, error) {
	if input.Code == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "authorization code is required")
	}

	token, err := s.client.ExchangeCode(ctx, input.Code)
	if err != nil {
		return nil, apperrors.NewProviderError("meta", "exchange code", 0, err)
	}

	businessID, err := s.client.GetBusinessID(ctx, token)
	if err != nil {
		return nil, apperrors.NewProviderError("meta", "get business", 0, err)
	}

	wabas, err := s.client.ListOwnedWABAs(ctx, token, businessID)
	if err != nil {
		return nil, apperrors.NewProviderError("meta", "list wabas", 0, err)
	}
	if len(wabas) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeProviderAPI, "business owns no whatsapp business account")
	}
	waba := wabas[0]

	if err := s.client.SubscribeApp(ctx, token, waba.ID); err != nil {
		return nil, apperrors.NewProviderError("meta", "subscribe app", 0, err)
	}

	numbers, err := s.client.ListPhoneNumbers(ctx, token, waba.ID)
	if err != nil {
		return nil, apperrors.NewProviderError("meta", "list phone numbers", 0, err)
	}
	if len(numbers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeProviderAPI, "whatsapp business account has no phone numbers")
	}

	number := numbers[0]
	if input.PhoneNumberID != "" {
		var matched bool
		for _, candidate := range numbers {
			if candidate.ID == input.PhoneNumberID {
				number, matched = candidate, true
				break
			}
		}
		if !matched {
			return nil, apperrors.NewNotFound("phone number", input.PhoneNumberID)
		}
	}

	return models.WhatsAppCredentials{
		AccessToken: token,
		BusinessID:  businessID,
		WABAID:      waba.ID,
		PhoneID:     number.ID,
		PhoneNumber: number.DisplayNumber,
	}, nil
}
