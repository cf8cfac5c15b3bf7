package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
	"github.com/Doxa-Code/omnichannel/internal/models"
	"github.com/Doxa-Code/omnichannel/pkg/circuitbreaker"
	"github.com/Doxa-Code/omnichannel/pkg/meta"
)

// DriverRegistry resolves the outbound driver for a channel type. Sending on
// a channel type with no registered driver is a hard error, never a silent
// drop.
type DriverRegistry struct {
	mu      sync.RWMutex
	drivers map[models.ChannelType]MessageDriver
}

func NewDriverRegistry() *DriverRegistry {
	return &DriverRegistry{drivers: make(map[models.ChannelType]MessageDriver)}
}

func (r *DriverRegistry) Register(channelType models.ChannelType, driver MessageDriver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[channelType] = driver
}

func (r *DriverRegistry) Resolve(channelType models.ChannelType) (MessageDriver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	driver, ok := r.drivers[channelType]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeProviderAPI,
			fmt.Sprintf("no message driver registered for channel type %q", channelType))
	}
	return driver, nil
}

// WhatsAppDriver adapts the Meta Graph API client to the MessageDriver port.
// All provider calls go through a shared circuit breaker so a Graph API
// outage fails fast instead of piling up blocked dispatches.
type WhatsAppDriver struct {
	client  *meta.Client
	breaker *circuitbreaker.CircuitBreaker
}

func NewWhatsAppDriver(client *meta.Client) *WhatsAppDriver {
	return &WhatsAppDriver{
		client:  client,
		breaker: circuitbreaker.New("whatsapp-api", 5, 30*time.Second),
	}
}

func (d *WhatsAppDriver) credentials(channel *models.Channel) (models.WhatsAppCredentials, error) {
	creds, ok := channel.Credentials.(models.WhatsAppCredentials)
	if !ok {
		return models.WhatsAppCredentials{}, apperrors.New(apperrors.ErrCodeProviderAPI,
			"channel carries no whatsapp credentials")
	}
	return creds, nil
}

// call runs one provider operation through the circuit breaker and wraps the
// failure. An open breaker is reported retryable: the backoff in front of the
// dispatcher outlives the breaker timeout.
func (d *WhatsAppDriver) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := d.breaker.Execute(ctx, fn)
	if err == nil {
		return nil
	}
	if circuitbreaker.IsCircuitBreakerError(err) {
		return apperrors.WrapRetryable(err, apperrors.ErrCodeProviderAPI, "whatsapp API temporarily unavailable")
	}
	return apperrors.NewProviderError("whatsapp", op, 0, err)
}

func (d *WhatsAppDriver) SendMessageText(ctx context.Context, channel *models.Channel, to, content string) (string, error) {
	creds, err := d.credentials(channel)
	if err != nil {
		return "", err
	}
	var messageID string
	err = d.call(ctx, "send text", func(ctx context.Context) error {
		var sendErr error
		messageID, sendErr = d.client.SendMessageText(ctx, creds.AccessToken, creds.PhoneID, to, content)
		return sendErr
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}

func (d *WhatsAppDriver) SendMessageAudio(ctx context.Context, channel *models.Channel, to string, audio models.AudioFile) (models.AudioSendResult, error) {
	creds, err := d.credentials(channel)
	if err != nil {
		return models.AudioSendResult{}, err
	}
	var result meta.AudioSendResult
	err = d.call(ctx, "send audio", func(ctx context.Context) error {
		var sendErr error
		result, sendErr = d.client.SendMessageAudio(ctx, creds.AccessToken, creds.PhoneID, to, meta.AudioUpload{
			Name:        audio.Name,
			ContentType: audio.ContentType,
			Data:        audio.Data,
		})
		return sendErr
	})
	if err != nil {
		return models.AudioSendResult{}, err
	}
	return models.AudioSendResult{MessageID: result.MessageID, MediaID: result.MediaID}, nil
}

func (d *WhatsAppDriver) SendTyping(ctx context.Context, channel *models.Channel, messageID string) error {
	creds, err := d.credentials(channel)
	if err != nil {
		return err
	}
	return d.call(ctx, "send typing", func(ctx context.Context) error {
		return d.client.SendTyping(ctx, creds.AccessToken, creds.PhoneID, messageID)
	})
}

func (d *WhatsAppDriver) ViewMessage(ctx context.Context, channel *models.Channel, messageID string) error {
	creds, err := d.credentials(channel)
	if err != nil {
		return err
	}
	return d.call(ctx, "view message", func(ctx context.Context) error {
		return d.client.ViewMessage(ctx, creds.AccessToken, creds.PhoneID, messageID)
	})
}

func (d *WhatsAppDriver) DownloadMedia(ctx context.Context, channel *models.Channel, mediaID string) ([]byte, string, error) {
	creds, err := d.credentials(channel)
	if err != nil {
		return nil, "", err
	}
	var data []byte
	var mimeType string
	err = d.call(ctx, "download media", func(ctx context.Context) error {
		var dlErr error
		data, mimeType, dlErr = d.client.DownloadMedia(ctx, creds.AccessToken, mediaID)
		return dlErr
	})
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}
