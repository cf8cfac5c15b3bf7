package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptor_Disabled(t *testing.T) {
	t.Setenv("OMNICHANNEL_ENABLE_ENCRYPTION", "false")

	enc, err := NewEncryptor()
	require.NoError(t, err)

	out, err := enc.EncryptIfEnabled("plaintext")
	require.NoError(t, err)
	assert.Equal(t, "plaintext", out)
}

func TestEncryptor_RoundTrip(t *testing.T) {
	t.Setenv("OMNICHANNEL_ENABLE_ENCRYPTION", "true")
	t.Setenv("OMNICHANNEL_ENCRYPTION_SECRET", "test-secret-with-at-least-32-characters")

	enc, err := NewEncryptor()
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt(`{"type":"whatsapp"}`)
	require.NoError(t, err)
	assert.NotEqual(t, `{"type":"whatsapp"}`, ciphertext)

	plaintext, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"whatsapp"}`, plaintext)
}

func TestEncryptor_NonDeterministic(t *testing.T) {
	t.Setenv("OMNICHANNEL_ENABLE_ENCRYPTION", "true")
	t.Setenv("OMNICHANNEL_ENCRYPTION_SECRET", "test-secret-with-at-least-32-characters")

	enc, err := NewEncryptor()
	require.NoError(t, err)

	first, err := enc.Encrypt("same input")
	require.NoError(t, err)
	second, err := enc.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEncryptor_MissingSecret(t *testing.T) {
	t.Setenv("OMNICHANNEL_ENABLE_ENCRYPTION", "true")
	t.Setenv("OMNICHANNEL_ENCRYPTION_SECRET", "")

	_, err := NewEncryptor()
	require.Error(t, err)
}

func TestEncryptor_WeakSecret(t *testing.T) {
	t.Setenv("OMNICHANNEL_ENABLE_ENCRYPTION", "true")
	t.Setenv("OMNICHANNEL_ENCRYPTION_SECRET", "short")

	_, err := NewEncryptor()
	require.Error(t, err)
}

func TestEncryptor_DecryptGarbage(t *testing.T) {
	t.Setenv("OMNICHANNEL_ENABLE_ENCRYPTION", "true")
	t.Setenv("OMNICHANNEL_ENCRYPTION_SECRET", "test-secret-with-at-least-32-characters")

	enc, err := NewEncryptor()
	require.NoError(t, err)

	_, err = enc.Decrypt("not-base64!!!")
	require.Error(t, err)

	_, err = enc.Decrypt("c2hvcnQ=")
	require.Error(t, err)
}
