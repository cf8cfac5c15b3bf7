package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
	"github.com/Doxa-Code/omnichannel/internal/models"
	"github.com/Doxa-Code/omnichannel/internal/queue"
)

// ConversationService owns conversation routing: transfers, closing, listing
// and cart cancellation.
type ConversationService struct {
	store  Store
	queue  queue.Driver
	events EventPublisher
	auth   *AuthorizationService
	logger *logrus.Logger
}

func NewConversationService(store Store, q queue.Driver, events EventPublisher, auth *AuthorizationService, logger *logrus.Logger) *ConversationService {
	return &ConversationService{
		store:  store,
		queue:  q,
		events: events,
		auth:   auth,
		logger: logger,
	}
}

// TransferInput names the transfer targets. SectorID and AttendantID may be
// combined in one call; either may be empty.
type TransferInput struct {
	WorkspaceID    string
	UserID         string
	ConversationID string
	SectorID       string
	AttendantID    string
}

// Transfer reroutes a conversation. A missing sector is skipped so the
// attendant half of the request still lands; a missing attendant aborts the
// whole transfer, sector change included, and nothing persists.
func (s *ConversationService) Transfer(ctx context.Context, input TransferInput) error {
	if err := s.auth.Authorize(ctx, input.WorkspaceID, input.UserID, models.PolicyViewConversations); err != nil {
		return err
	}

	conv, err := s.store.GetConversation(ctx, input.ConversationID)
	if err != nil {
		return apperrors.NewDatabaseError("get conversation", err)
	}
	if conv == nil {
		return apperrors.NewNotFound("conversation", input.ConversationID)
	}

	if input.AttendantID != "" {
		attendantUser, err := s.store.GetUser(ctx, input.AttendantID)
		if err != nil {
			return apperrors.NewDatabaseError("get user", err)
		}
		if attendantUser == nil {
			return apperrors.NewNotFound("attendant", input.AttendantID)
		}

		if input.SectorID != "" {
			s.applySectorTransfer(ctx, conv, input.SectorID)
		}
		attendant, err := models.NewAttendant(attendantUser.ID, attendantUser.Name)
		if err != nil {
			return err
		}
		conv.AttributeAttendant(attendant)
	} else if input.SectorID != "" {
		s.applySectorTransfer(ctx, conv, input.SectorID)
	}

	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return apperrors.NewDatabaseError("save conversation", err)
	}

	s.events.PublishConversation(conv.WorkspaceID, conv.Snapshot())
	return nil
}

// applySectorTransfer moves the conversation into the sector when it exists;
// an unknown sector is logged and skipped.
func (s *ConversationService) applySectorTransfer(ctx context.Context, conv *models.Conversation, sectorID string) {
	sector, found, err := s.store.GetSector(ctx, sectorID)
	if err != nil || !found {
		s.logger.WithFields(logrus.Fields{
			"conversation_id": conv.ID,
			"sector_id":       sectorID,
		}).Warn("Skipping transfer to unknown sector")
		return
	}
	conv.TransferToSector(sector)
}

// Close closes a conversation. Closing an already-closed conversation
// restamps ClosedAt.
func (s *ConversationService) Close(ctx context.Context, workspaceID, userID, conversationID string) error {
	if err := s.auth.Authorize(ctx, workspaceID, userID, models.PolicyCloseConversation); err != nil {
		return err
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return apperrors.NewDatabaseError("get conversation", err)
	}
	if conv == nil {
		return apperrors.NewNotFound("conversation", conversationID)
	}

	conv.Close()

	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return apperrors.NewDatabaseError("save conversation", err)
	}

	s.events.PublishConversation(conv.WorkspaceID, conv.Snapshot())
	return nil
}

// List returns workspace conversation snapshots, newest activity first.
func (s *ConversationService) List(ctx context.Context, workspaceID, userID string) ([]models.ConversationSnapshot, error) {
	if err := s.auth.Authorize(ctx, workspaceID, userID, models.PolicyViewConversations); err != nil {
		return nil, err
	}

	conversations, err := s.store.ListConversationsByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list conversations", err)
	}

	snapshots := make([]models.ConversationSnapshot, 0, len(conversations))
	for _, conv := range conversations {
		snapshots = append(snapshots, conv.Snapshot())
	}
	return snapshots, nil
}

// Get returns one conversation snapshot.
func (s *ConversationService) Get(ctx context.Context, workspaceID, userID, conversationID string) (*models.ConversationSnapshot, error) {
	if err := s.auth.Authorize(ctx, workspaceID, userID, models.PolicyViewConversations); err != nil {
		return nil, err
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get conversation", err)
	}
	if conv == nil {
		return nil, apperrors.NewNotFound("conversation", conversationID)
	}

	snapshot := conv.Snapshot()
	return &snapshot, nil
}

// cartEvent is the queue payload emitted on cart cancellation when the
// workspace configured an external queue.
type cartEvent struct {
	CartID         string `json:"cartId"`
	ConversationID string `json:"conversationId"`
	Reason         string `json:"reason"`
}

// CancelCart cancels the open cart tied to a conversation and closes the
// conversation with it. Workspaces with a configured queue URL additionally
// get a cart event on the queue.
func (s *ConversationService) CancelCart(ctx context.Context, workspaceID, userID, conversationID, reason string) error {
	if err := s.auth.Authorize(ctx, workspaceID, userID, models.PolicyManageCarts); err != nil {
		return err
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return apperrors.NewDatabaseError("get conversation", err)
	}
	if conv == nil {
		return apperrors.NewNotFound("conversation", conversationID)
	}

	cart, err := s.store.GetOpenCartByConversationID(ctx, conversationID)
	if err != nil {
		return apperrors.NewDatabaseError("get cart", err)
	}
	if cart == nil {
		return apperrors.NewNotFound("cart", conversationID)
	}

	cart.Cancel(reason)
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return apperrors.NewDatabaseError("save cart", err)
	}

	conv.Close()
	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return apperrors.NewDatabaseError("save conversation", err)
	}

	settings, err := s.store.GetSettings(ctx, workspaceID)
	if err != nil {
		return apperrors.NewDatabaseError("get settings", err)
	}
	if settings.QueueURL != "" {
		payload, err := json.Marshal(cartEvent{
			CartID:         cart.ID,
			ConversationID: conv.ID,
			Reason:         reason,
		})
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeQueueDispatch, "failed to encode cart event")
		}
		if err := s.queue.SendMessageToQueue(ctx, queue.Message{
			QueueURL:  settings.QueueURL,
			Body:      string(payload),
			GroupID:   workspaceID,
			MessageID: uuid.NewString(),
		}); err != nil {
			s.logger.WithError(err).WithField("cart_id", cart.ID).
				Warn("Failed to enqueue cart event")
		}
	}

	s.events.PublishCart(conv.WorkspaceID, cart)
	s.events.PublishConversation(conv.WorkspaceID, conv.Snapshot())
	return nil
}
