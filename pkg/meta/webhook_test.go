package meta

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhook_TextMessage(t *testing.T) {
	body := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "waba-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"metadata": {"display_phone_number": "5511999990000", "phone_number_id": "123456"},
					"contacts": [{"wa_id": "5511888880000", "profile": {"name": "Maria"}}],
					"messages": [{
						"id": "wamid.abc",
						"from": "5511888880000",
						"timestamp": "1700000000",
						"type": "text",
						"text": {"body": "oi, tudo bem?"}
					}]
				}
			}]
		}]
	}`)

	event, err := ParseWebhook(body)
	require.NoError(t, err)
	require.NotNil(t, event)
	require.NotNil(t, event.Message)
	assert.Nil(t, event.Status)

	assert.Equal(t, "wamid.abc", event.Message.MessageID)
	assert.Equal(t, "5511888880000", event.Message.From)
	assert.Equal(t, "Maria", event.Message.ContactName)
	assert.Equal(t, "123456", event.Message.PhoneNumberID)
	assert.Equal(t, "text", event.Message.Type)
	assert.Equal(t, "oi, tudo bem?", event.Message.Content)
	assert.Equal(t, time.Unix(1700000000, 0), event.Message.Timestamp)
}

func TestParseWebhook_AudioAndImageCarryMediaID(t *testing.T) {
	audio := []byte(`{
		"entry": [{"changes": [{"value": {
			"metadata": {"phone_number_id": "123456"},
			"messages": [{"id": "wamid.a", "from": "551188", "timestamp": "1700000000",
				"type": "audio", "audio": {"id": "media-audio-1", "mime_type": "audio/ogg"}}]
		}}]}]
	}`)

	event, err := ParseWebhook(audio)
	require.NoError(t, err)
	require.NotNil(t, event.Message)
	assert.Equal(t, "media-audio-1", event.Message.Content)

	image := []byte(`{
		"entry": [{"changes": [{"value": {
			"metadata": {"phone_number_id": "123456"},
			"messages": [{"id": "wamid.i", "from": "551188", "timestamp": "1700000000",
				"type": "image", "image": {"id": "media-image-1", "mime_type": "image/jpeg"}}]
		}}]}]
	}`)

	event, err = ParseWebhook(image)
	require.NoError(t, err)
	require.NotNil(t, event.Message)
	assert.Equal(t, "media-image-1", event.Message.Content)
}

func TestParseWebhook_StatusTakesPrecedence(t *testing.T) {
	body := []byte(`{
		"entry": [{"changes": [{"value": {
			"metadata": {"phone_number_id": "123456"},
			"statuses": [{"id": "wamid.out", "status": "read", "timestamp": "1700000100", "recipient_id": "551188"}],
			"messages": [{"id": "wamid.in", "from": "551188", "timestamp": "1700000000", "type": "text", "text": {"body": "x"}}]
		}}]}]
	}`)

	event, err := ParseWebhook(body)
	require.NoError(t, err)
	require.NotNil(t, event.Status)
	assert.Nil(t, event.Message)
	assert.Equal(t, "wamid.out", event.Status.MessageID)
	assert.Equal(t, "read", event.Status.Status)
}

func TestParseWebhook_EmptyPayload(t *testing.T) {
	event, err := ParseWebhook([]byte(`{"object": "whatsapp_business_account", "entry": []}`))
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestParseWebhook_InvalidJSON(t *testing.T) {
	_, err := ParseWebhook([]byte(`{not json`))
	require.Error(t, err)
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	body := []byte(`{"entry": []}`)
	secret := "app-secret"

	assert.True(t, ValidateSignature(body, signBody(body, secret), secret))
	assert.False(t, ValidateSignature(body, signBody(body, "wrong"), secret))
	assert.False(t, ValidateSignature([]byte("tampered"), signBody(body, secret), secret))
	assert.False(t, ValidateSignature(body, "md5=abc", secret))
	assert.False(t, ValidateSignature(body, "", secret))
	assert.False(t, ValidateSignature(body, signBody(body, secret), ""))
}
