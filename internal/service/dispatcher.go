package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
	"github.com/Doxa-Code/omnichannel/internal/models"
	"github.com/Doxa-Code/omnichannel/internal/queue"
	"github.com/Doxa-Code/omnichannel/internal/retry"
)

// Dispatcher drains the outbound queue: one consumer loop, so per-workspace
// FIFO order holds end to end. Each message is sent through the channel's
// driver, appended to the conversation and persisted.
type Dispatcher struct {
	queue   *queue.MemoryQueue
	store   Store
	drivers *DriverRegistry
	events  EventPublisher
	logger  *logrus.Logger
	backoff *retry.Backoff
}

func NewDispatcher(q *queue.MemoryQueue, store Store, drivers *DriverRegistry, events EventPublisher, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		queue:   q,
		store:   store,
		drivers: drivers,
		events:  events,
		logger:  logger,
		backoff: retry.NewBackoff(retry.DefaultBackoffConfig()),
	}
}

// Run consumes until the context ends. Failed dispatches are logged and
// dropped; the queue must keep moving for the rest of the workspace.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("Outbound dispatcher started")
	for {
		msg, err := d.queue.Receive(ctx)
		if err != nil {
			d.logger.WithError(err).Info("Outbound dispatcher stopped")
			return
		}
		if err := d.dispatch(ctx, msg); err != nil {
			d.logger.WithError(err).WithField("group_id", msg.GroupID).
				Error("Failed to dispatch outbound message")
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, msg queue.Message) error {
	var outbound outboundMessage
	if err := json.Unmarshal([]byte(msg.Body), &outbound); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeQueueDispatch, "failed to decode outbound message")
	}

	conv, err := d.store.GetConversation(ctx, outbound.ConversationID)
	if err != nil {
		return apperrors.NewDatabaseError("get conversation", err)
	}
	if conv == nil {
		return apperrors.NewNotFound("conversation", outbound.ConversationID)
	}

	channel, err := d.store.GetChannel(ctx, conv.ChannelID)
	if err != nil {
		return apperrors.NewDatabaseError("get channel", err)
	}
	if channel == nil {
		return apperrors.NewNotFound("channel", conv.ChannelID)
	}

	driver, err := d.drivers.Resolve(channel.Type)
	if err != nil {
		return err
	}

	var providerMessageID string
	err = d.backoff.RetryWithPredicate(ctx, func() error {
		providerMessageID, err = driver.SendMessageText(ctx, channel, conv.Contact.Phone, outbound.Content)
		return err
	}, apperrors.IsRetryable)
	if err != nil {
		return err
	}

	sender := models.Sender{Type: models.SenderAttendant, ID: outbound.SenderID, Name: outbound.SenderName}
	message := models.NewMessage(providerMessageID, models.MessageTypeText, outbound.Content, sender, time.Now(), false)
	conv.AddMessage(message)

	if err := d.store.SaveConversation(ctx, conv); err != nil {
		return apperrors.NewDatabaseError("save conversation", err)
	}

	d.events.PublishConversation(conv.WorkspaceID, conv.Snapshot())
	return nil
}
