package service

import (
	"github.com/Doxa-Code/omnichannel/internal/models"
	"github.com/Doxa-Code/omnichannel/internal/realtime"
)

// BrokerPublisher adapts the realtime broker to the EventPublisher port.
type BrokerPublisher struct {
	broker *realtime.Broker
}

func NewBrokerPublisher(broker *realtime.Broker) *BrokerPublisher {
	return &BrokerPublisher{broker: broker}
}

func (p *BrokerPublisher) PublishConversation(workspaceID string, snapshot models.ConversationSnapshot) {
	p.broker.Publish(workspaceID, realtime.Event{Type: realtime.EventConversation, Data: snapshot})
}

func (p *BrokerPublisher) PublishTyping(workspaceID, conversationID string, typing bool) {
	eventType := realtime.EventTyping
	if !typing {
		eventType = realtime.EventUntyping
	}
	p.broker.Publish(workspaceID, realtime.Event{
		Type: eventType,
		Data: map[string]string{"conversationId": conversationID},
	})
}

func (p *BrokerPublisher) PublishCart(workspaceID string, cart *models.Cart) {
	p.broker.Publish(workspaceID, realtime.Event{Type: realtime.EventCart, Data: cart})
}
