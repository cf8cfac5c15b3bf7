package models

import (
	"time"

	"github.com/google/uuid"
)

// CartStatus is the lifecycle state of a shopping cart tied to a conversation.
type CartStatus string

const (
	CartOpen     CartStatus = "open"
	CartCanceled CartStatus = "canceled"
)

// Cart is the shopping cart attached to a conversation. Canceling the cart
// also closes its conversation (handled by the cancel-cart use case).
type Cart struct {
	ID             string
	ConversationID string
	Status         CartStatus
	CancelReason   string
	CanceledAt     *time.Time
}

// NewCart opens a cart for a conversation.
func NewCart(conversationID string) *Cart {
	return &Cart{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Status:         CartOpen,
	}
}

// Cancel stamps the cancellation; the reason may be empty.
func (c *Cart) Cancel(reason string) {
	now := time.Now()
	c.Status = CartCanceled
	c.CancelReason = reason
	c.CanceledAt = &now
}

// Settings holds per-workspace configuration consumed by the messaging
// flows. QueueURL, when set, receives cart-cancellation events.
type Settings struct {
	WorkspaceID string
	QueueURL    string
}
