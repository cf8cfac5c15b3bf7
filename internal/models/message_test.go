package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_DefaultsToSent(t *testing.T) {
	sender, err := NewSender(SenderAttendant, "u1", "Ana")
	require.NoError(t, err)

	msg := NewMessage("m1", MessageTypeText, "hi", sender, time.Now(), false)

	assert.Equal(t, MessageStatusSent, msg.Status)
	assert.Nil(t, msg.ViewedAt)
	assert.False(t, msg.Internal)
}

func TestMessageStatusTransitions(t *testing.T) {
	sender, err := NewSender(SenderContact, "5511999990000", "Maria")
	require.NoError(t, err)
	msg := NewMessage("m1", MessageTypeText, "hi", sender, time.Now(), false)

	msg.MarkAsDelivered()
	assert.Equal(t, MessageStatusDelivered, msg.Status)
	assert.Nil(t, msg.ViewedAt)

	msg.MarkAsViewed()
	assert.Equal(t, MessageStatusViewed, msg.Status)
	require.NotNil(t, msg.ViewedAt)
	assert.WithinDuration(t, time.Now(), *msg.ViewedAt, time.Second)

	// status setters are unconditional; callbacks can arrive out of order
	msg.MarkAsSent()
	assert.Equal(t, MessageStatusSent, msg.Status)
}

func TestRestoreMessage(t *testing.T) {
	sender, err := NewSender(SenderContact, "5511999990000", "Maria")
	require.NoError(t, err)
	viewedAt := time.Now().Add(-time.Hour)

	msg := RestoreMessage("m1", MessageTypeAudio, "media-1", sender, viewedAt.Add(-time.Minute), true, MessageStatusViewed, &viewedAt)

	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, MessageTypeAudio, msg.Type)
	assert.True(t, msg.Internal)
	assert.Equal(t, MessageStatusViewed, msg.Status)
	require.NotNil(t, msg.ViewedAt)
	assert.Equal(t, viewedAt, *msg.ViewedAt)
}
