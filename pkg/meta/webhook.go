package meta

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StatusUpdate is a delivery-status callback for a previously sent message.
type StatusUpdate struct {
	MessageID string
	Status    string
	Timestamp time.Time
}

// InboundMessage is a contact-authored message delivered by webhook.
type InboundMessage struct {
	MessageID     string
	From          string
	ContactName   string
	PhoneNumberID string
	Type          string
	// Content is the text body for text messages and the provider media id
	// for audio and image messages.
	Content   string
	Timestamp time.Time
}

// WebhookEvent is the parsed result of one webhook delivery: exactly one of
// Status or Message is set.
type WebhookEvent struct {
	Status  *StatusUpdate
	Message *InboundMessage
}

// ParseWebhook extracts the first meaningful event from a webhook payload.
// Statuses take precedence over messages, mirroring how the provider batches
// them. Payloads carrying neither return (nil, nil).
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value

			if len(value.Statuses) > 0 {
				status := value.Statuses[0]
				return &WebhookEvent{Status: &StatusUpdate{
					MessageID: status.ID,
					Status:    status.Status,
					Timestamp: parseUnixSeconds(status.Timestamp),
				}}, nil
			}

			if len(value.Messages) > 0 {
				message := value.Messages[0]
				inbound := &InboundMessage{
					MessageID:     message.ID,
					From:          message.From,
					PhoneNumberID: value.Metadata.PhoneNumberID,
					Type:          message.Type,
					Timestamp:     parseUnixSeconds(message.Timestamp),
				}
				if len(value.Contacts) > 0 {
					inbound.ContactName = value.Contacts[0].Profile.Name
				}
				switch {
				case message.Text != nil:
					inbound.Content = message.Text.Body
				case message.Audio != nil:
					inbound.Content = message.Audio.ID
				case message.Image != nil:
					inbound.Content = message.Image.ID
				}
				return &WebhookEvent{Message: inbound}, nil
			}
		}
	}

	return nil, nil
}

func parseUnixSeconds(raw string) time.Time {
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(seconds, 0)
}

// ValidateSignature verifies the X-Hub-Signature-256 header against the raw
// request body using the app secret. Comparison is constant time.
func ValidateSignature(body []byte, signatureHeader, appSecret string) bool {
	if appSecret == "" || signatureHeader == "" {
		return false
	}

	provided, ok := strings.CutPrefix(signatureHeader, "sha256=")
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}
