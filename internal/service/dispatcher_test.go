package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Doxa-Code/omnichannel/internal/models"
	"github.com/Doxa-Code/omnichannel/internal/queue"
)

func TestDispatcher_SendsAndPersists(t *testing.T) {
	store := &mockStore{}
	q := queue.NewMemoryQueue()
	events := &capturingPublisher{}
	drivers := NewDriverRegistry()
	driver := &mockDriver{}
	drivers.Register(models.ChannelTypeWhatsApp, driver)

	channel := connectedChannel("w1")
	conv := openConversation("w1", channel.ID)
	// sending already claimed the conversation before the enqueue
	conv.AttributeAttendant(models.Attendant{ID: "u1", Name: "Ana"})
	inbound := models.NewMessage("m1", models.MessageTypeText, "oi", conv.Contact.Sender(), time.Now(), false)
	inbound.MarkAsDelivered()
	conv.AddMessage(inbound)

	store.On("GetConversation", mock.Anything, conv.ID).Return(conv, nil)
	store.On("GetChannel", mock.Anything, channel.ID).Return(channel, nil)
	store.On("SaveConversation", mock.Anything, conv).Return(nil)
	driver.On("SendMessageText", mock.Anything, channel, conv.Contact.Phone, "ja verifico").
		Return("wamid.out", nil)

	payload, err := json.Marshal(outboundMessage{
		ConversationID: conv.ID,
		Content:        "ja verifico",
		SenderID:       "u1",
		SenderName:     "Ana",
	})
	require.NoError(t, err)

	dispatcher := NewDispatcher(q, store, drivers, events, testLogger())
	require.NoError(t, dispatcher.dispatch(context.Background(), queue.Message{Body: string(payload), GroupID: "w1"}))

	require.True(t, conv.HasMessage("wamid.out"))
	sent := findMessage(conv, "wamid.out")
	assert.Equal(t, models.MessageStatusSent, sent.Status)
	assert.Equal(t, models.SenderAttendant, sent.Sender.Type)

	assert.Equal(t, models.ConversationOpen, conv.Status)
	require.NotNil(t, conv.Attendant)
	assert.Equal(t, "u1", conv.Attendant.ID)

	// delivering the reply does not touch the inbound message's status
	assert.Equal(t, models.MessageStatusDelivered, findMessage(conv, "m1").Status)
	assert.Equal(t, 1, events.conversationCount())
	driver.AssertExpectations(t)
}

func TestDispatcher_MalformedPayload(t *testing.T) {
	store := &mockStore{}
	dispatcher := NewDispatcher(queue.NewMemoryQueue(), store, NewDriverRegistry(), &capturingPublisher{}, testLogger())

	err := dispatcher.dispatch(context.Background(), queue.Message{Body: "{not json"})
	require.Error(t, err)
	store.AssertNotCalled(t, "GetConversation", mock.Anything, mock.Anything)
}

func TestDispatcher_RunDrainsQueue(t *testing.T) {
	store := &mockStore{}
	q := queue.NewMemoryQueue()
	events := &capturingPublisher{}
	drivers := NewDriverRegistry()
	driver := &mockDriver{}
	drivers.Register(models.ChannelTypeWhatsApp, driver)

	channel := connectedChannel("w1")
	conv := openConversation("w1", channel.ID)

	store.On("GetConversation", mock.Anything, conv.ID).Return(conv, nil)
	store.On("GetChannel", mock.Anything, channel.ID).Return(channel, nil)
	store.On("SaveConversation", mock.Anything, conv).Return(nil)
	driver.On("SendMessageText", mock.Anything, channel, conv.Contact.Phone, mock.Anything).
		Return("wamid.out", nil).Once()
	driver.On("SendMessageText", mock.Anything, channel, conv.Contact.Phone, mock.Anything).
		Return("wamid.out2", nil).Once()

	for i, content := range []string{"primeira", "segunda"} {
		payload, err := json.Marshal(outboundMessage{
			ConversationID: conv.ID,
			Content:        content,
			SenderID:       "u1",
			SenderName:     "Ana",
		})
		require.NoError(t, err)
		require.NoError(t, q.SendMessageToQueue(context.Background(), queue.Message{
			Body:      string(payload),
			GroupID:   "w1",
			MessageID: string(rune('a' + i)),
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	dispatcher := NewDispatcher(q, store, drivers, events, testLogger())
	go func() {
		defer close(done)
		dispatcher.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return events.conversationCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	assert.True(t, conv.HasMessage("wamid.out"))
	assert.True(t, conv.HasMessage("wamid.out2"))
}
