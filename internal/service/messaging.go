package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
	"github.com/Doxa-Code/omnichannel/internal/models"
	"github.com/Doxa-Code/omnichannel/internal/privacy"
	"github.com/Doxa-Code/omnichannel/internal/queue"
)

// MessageService owns the message lifecycle: inbound webhook ingestion,
// outbound sends, delivery-status callbacks and read markers.
type MessageService struct {
	store   Store
	drivers *DriverRegistry
	queue   queue.Driver
	events  EventPublisher
	auth    *AuthorizationService
	logger  *logrus.Logger
}

func NewMessageService(store Store, drivers *DriverRegistry, q queue.Driver, events EventPublisher, auth *AuthorizationService, logger *logrus.Logger) *MessageService {
	return &MessageService{
		store:   store,
		drivers: drivers,
		queue:   q,
		events:  events,
		auth:    auth,
		logger:  logger,
	}
}

// MessageReceivedInput is a provider-agnostic inbound message, already parsed
// from the webhook payload.
type MessageReceivedInput struct {
	ProviderAccountID string
	MessageID         string
	From              string
	ContactName       string
	Type              models.MessageType
	Content           string
	Timestamp         time.Time
}

// MessageReceivedResult tells the caller which conversation absorbed the
// message and whether it was started by it, so downstream code can fire
// new-conversation notifications.
type MessageReceivedResult struct {
	Conversation    *models.Conversation
	WorkspaceID     string
	NewConversation bool
}

// MessageReceived ingests one inbound message. Webhook redeliveries are
// absorbed: a message id the conversation already owns is a silent no-op.
func (s *MessageService) MessageReceived(ctx context.Context, input MessageReceivedInput) (*MessageReceivedResult, error) {
	channel, err := s.store.GetChannelByProviderAccountID(ctx, input.ProviderAccountID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get channel by provider account", err)
	}
	if channel == nil {
		return nil, apperrors.NewNotFound("channel", input.ProviderAccountID)
	}

	contact, found, err := s.store.GetContact(ctx, input.From)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get contact", err)
	}
	if !found {
		contact, err = models.NewContact(input.From, input.ContactName)
		if err != nil {
			return nil, err
		}
		if err := s.store.SaveContact(ctx, contact); err != nil {
			return nil, apperrors.NewDatabaseError("save contact", err)
		}
	}

	conv, err := s.store.GetActiveConversationByContact(ctx, contact.Phone, channel.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get conversation", err)
	}
	newConversation := conv == nil
	if newConversation {
		conv, err = models.NewConversation(contact, channel.WorkspaceID, channel.ID)
		if err != nil {
			return nil, err
		}
	}

	result := &MessageReceivedResult{
		Conversation:    conv,
		WorkspaceID:     conv.WorkspaceID,
		NewConversation: newConversation,
	}

	if conv.HasMessage(input.MessageID) {
		s.logger.WithFields(logrus.Fields{
			"message_id":      privacy.MaskMessageID(input.MessageID),
			"conversation_id": conv.ID,
		}).Debug("Ignoring replayed inbound message")
		return result, nil
	}

	message := models.NewMessage(input.MessageID, input.Type, input.Content, contact.Sender(), input.Timestamp, false)
	message.MarkAsDelivered()
	conv.AddMessage(message)

	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return nil, apperrors.NewDatabaseError("save conversation", err)
	}

	s.events.PublishConversation(conv.WorkspaceID, conv.Snapshot())

	s.logger.WithFields(logrus.Fields{
		"conversation_id":  conv.ID,
		"contact":          privacy.MaskPhoneNumber(contact.Phone),
		"type":             input.Type,
		"new_conversation": newConversation,
	}).Info("Inbound message stored")
	return result, nil
}

// SendMessageInput is an attendant-authored outbound text message.
type SendMessageInput struct {
	WorkspaceID    string
	UserID         string
	ConversationID string
	Content        string
}

// outboundMessage is the queue payload consumed by the dispatcher.
type outboundMessage struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	SenderID       string `json:"senderId"`
	SenderName     string `json:"senderName"`
}

// SendMessage claims the conversation for the sending user, persists the
// claim and enqueues the send. Delivery happens asynchronously on the
// dispatcher, serialized per workspace.
func (s *MessageService) SendMessage(ctx context.Context, input SendMessageInput) error {
	if input.Content == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "message content must not be empty")
	}
	if err := s.auth.Authorize(ctx, input.WorkspaceID, input.UserID, models.PolicySendMessage); err != nil {
		return err
	}

	conv, err := s.store.GetConversation(ctx, input.ConversationID)
	if err != nil {
		return apperrors.NewDatabaseError("get conversation", err)
	}
	if conv == nil {
		return apperrors.NewNotFound("conversation", input.ConversationID)
	}

	user, err := s.store.GetUser(ctx, input.UserID)
	if err != nil {
		return apperrors.NewDatabaseError("get user", err)
	}
	if user == nil {
		return apperrors.NewNotFound("user", input.UserID)
	}

	channel, err := s.store.GetChannel(ctx, conv.ChannelID)
	if err != nil {
		return apperrors.NewDatabaseError("get channel", err)
	}
	if channel == nil {
		return apperrors.NewNotFound("channel", conv.ChannelID)
	}

	s.notifyTyping(ctx, channel, conv)

	if err := claimConversation(conv, user); err != nil {
		return err
	}
	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return apperrors.NewDatabaseError("save conversation", err)
	}
	s.events.PublishConversation(conv.WorkspaceID, conv.Snapshot())

	payload, err := json.Marshal(outboundMessage{
		ConversationID: conv.ID,
		Content:        input.Content,
		SenderID:       user.ID,
		SenderName:     user.Name,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeQueueDispatch, "failed to encode outbound message")
	}

	if err := s.queue.SendMessageToQueue(ctx, queue.Message{
		Body:      string(payload),
		GroupID:   input.WorkspaceID,
		MessageID: uuid.NewString(),
	}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeQueueDispatch, "failed to enqueue outbound message")
	}
	return nil
}

// SendAudioInput is an attendant-authored voice message.
type SendAudioInput struct {
	WorkspaceID    string
	UserID         string
	ConversationID string
	Audio          models.AudioFile
}

// SendAudio uploads and sends the audio synchronously: the caller needs the
// provider media id to render the sent bubble.
func (s *MessageService) SendAudio(ctx context.Context, input SendAudioInput) (*models.Message, error) {
	if err := s.auth.Authorize(ctx, input.WorkspaceID, input.UserID, models.PolicySendMessage); err != nil {
		return nil, err
	}

	conv, err := s.store.GetConversation(ctx, input.ConversationID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get conversation", err)
	}
	if conv == nil {
		return nil, apperrors.NewNotFound("conversation", input.ConversationID)
	}

	user, err := s.store.GetUser(ctx, input.UserID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", input.UserID)
	}

	channel, err := s.store.GetChannel(ctx, conv.ChannelID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get channel", err)
	}
	if channel == nil {
		return nil, apperrors.NewNotFound("channel", conv.ChannelID)
	}

	driver, err := s.drivers.Resolve(channel.Type)
	if err != nil {
		return nil, err
	}

	s.notifyTyping(ctx, channel, conv)

	result, err := driver.SendMessageAudio(ctx, channel, conv.Contact.Phone, input.Audio)
	if err != nil {
		return nil, err
	}

	if err := claimConversation(conv, user); err != nil {
		return nil, err
	}

	sender := models.Sender{Type: models.SenderAttendant, ID: user.ID, Name: user.Name}
	message := models.NewMessage(result.MessageID, models.MessageTypeAudio, result.MediaID, sender, time.Now(), false)
	conv.AddMessage(message)

	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return nil, apperrors.NewDatabaseError("save conversation", err)
	}

	s.events.PublishConversation(conv.WorkspaceID, conv.Snapshot())
	return message, nil
}

// ChangeStatusMessage applies a provider delivery-status callback. Unknown
// message ids are a silent no-op: callbacks routinely outlive conversations.
func (s *MessageService) ChangeStatusMessage(ctx context.Context, messageID, status string) error {
	conversationID, err := s.store.GetConversationIDByMessageID(ctx, messageID)
	if err != nil {
		return apperrors.NewDatabaseError("resolve message conversation", err)
	}
	if conversationID == "" {
		s.logger.WithField("message_id", privacy.MaskMessageID(messageID)).
			Debug("Status callback for unknown message")
		return nil
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return apperrors.NewDatabaseError("get conversation", err)
	}
	if conv == nil {
		return nil
	}

	switch status {
	case "sent":
		if message := findMessage(conv, messageID); message != nil {
			message.MarkAsSent()
		}
	case "delivered":
		if message := findMessage(conv, messageID); message != nil {
			message.MarkAsDelivered()
		}
	case "read":
		// the contact reading one message means the whole thread is read
		conv.MarkAllMessagesAsViewed()
	default:
		s.logger.WithField("status", status).Debug("Ignoring unknown status callback")
		return nil
	}

	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return apperrors.NewDatabaseError("save conversation", err)
	}

	s.events.PublishConversation(conv.WorkspaceID, conv.Snapshot())
	return nil
}

// MarkLastMessagesContactAsViewed marks the trailing contact messages viewed
// locally and confirms the read back to the provider, best effort. When the
// reading user owns the conversation the whole thread is marked viewed, not
// just the trailing run.
func (s *MessageService) MarkLastMessagesContactAsViewed(ctx context.Context, conversationID, userID string) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return apperrors.NewDatabaseError("get conversation", err)
	}
	if conv == nil {
		return apperrors.NewNotFound("conversation", conversationID)
	}

	pending := conv.LastContactMessages()
	conv.OpenThread(userID)
	conv.MarkLastMessagesContactAsViewed()

	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return apperrors.NewDatabaseError("save conversation", err)
	}

	if channel, driver, err := s.resolveChannelDriver(ctx, conv.ChannelID); err == nil {
		for _, message := range pending {
			if err := driver.ViewMessage(ctx, channel, message.ID); err != nil {
				s.logger.WithError(err).WithField("message_id", privacy.MaskMessageID(message.ID)).
					Warn("Failed to confirm read to provider")
			}
		}
	}

	s.events.PublishConversation(conv.WorkspaceID, conv.Snapshot())
	return nil
}

// Typing broadcasts the attendant typing state to the console stream and, on
// start, surfaces the typing indicator to the contact.
func (s *MessageService) Typing(ctx context.Context, conversationID string, typing bool) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return apperrors.NewDatabaseError("get conversation", err)
	}
	if conv == nil {
		return apperrors.NewNotFound("conversation", conversationID)
	}

	s.events.PublishTyping(conv.WorkspaceID, conv.ID, typing)

	if typing {
		if last := lastContactMessage(conv); last != nil {
			if channel, driver, err := s.resolveChannelDriver(ctx, conv.ChannelID); err == nil {
				if err := driver.SendTyping(ctx, channel, last.ID); err != nil {
					s.logger.WithError(err).WithField("conversation_id", conv.ID).
						Warn("Failed to send typing indicator")
				}
			}
		}
	}
	return nil
}

// notifyTyping surfaces a typing indicator to the contact before an outbound
// send. Entirely best effort: a missing driver or provider failure only logs.
func (s *MessageService) notifyTyping(ctx context.Context, channel *models.Channel, conv *models.Conversation) {
	driver, err := s.drivers.Resolve(channel.Type)
	if err != nil {
		return
	}
	last := lastContactMessage(conv)
	if last == nil {
		return
	}
	if err := driver.SendTyping(ctx, channel, last.ID); err != nil {
		s.logger.WithError(err).WithField("conversation_id", conv.ID).
			Warn("Failed to send typing indicator")
	}
}

// claimConversation lazily assigns the sending user as attendant when the
// conversation has none. An open conversation that lost its attendant to a
// sector transfer is reclaimed by the next reply; a waiting one opens here,
// before the outbound message lands, so the send itself never re-triggers the
// waiting promotion.
func claimConversation(conv *models.Conversation, user *models.User) error {
	if conv.Attendant != nil {
		return nil
	}
	attendant, err := models.NewAttendant(user.ID, user.Name)
	if err != nil {
		return err
	}
	conv.AttributeAttendant(attendant)
	return nil
}

func (s *MessageService) resolveChannelDriver(ctx context.Context, channelID string) (*models.Channel, MessageDriver, error) {
	channel, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		return nil, nil, apperrors.NewDatabaseError("get channel", err)
	}
	if channel == nil {
		return nil, nil, apperrors.NewNotFound("channel", channelID)
	}
	driver, err := s.drivers.Resolve(channel.Type)
	if err != nil {
		return nil, nil, err
	}
	return channel, driver, nil
}

func findMessage(conv *models.Conversation, messageID string) *models.Message {
	for _, message := range conv.Messages() {
		if message.ID == messageID {
			return message
		}
	}
	return nil
}

func lastContactMessage(conv *models.Conversation) *models.Message {
	run := conv.LastContactMessages()
	if len(run) == 0 {
		return nil
	}
	return run[len(run)-1]
}
