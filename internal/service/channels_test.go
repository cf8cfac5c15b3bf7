package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
	"github.com/Doxa-Code/omnichannel/internal/models"
	"github.com/Doxa-Code/omnichannel/pkg/meta"
)

type stubStrategy struct {
	creds models.Credentials
	err   error
}

func (s *stubStrategy) Connect(ctx context.Context, input ConnectChannelInput) (models.Credentials, error) {
	return s.creds, s.err
}

func newChannelService(store *mockStore) *ChannelService {
	return NewChannelService(store, NewAuthorizationService(store), testLogger())
}

func TestConnect_NewChannel(t *testing.T) {
	store := &mockStore{}
	svc := newChannelService(store)
	svc.RegisterStrategy(models.ChannelTypeWhatsApp, &stubStrategy{
		creds: models.WhatsAppCredentials{AccessToken: "tok", PhoneID: "123456"},
	})

	store.On("GetUser", mock.Anything, "admin").Return(superUser("admin"), nil)

	var saved *models.Channel
	store.On("SaveChannel", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*models.Channel)
	}).Return(nil)

	channel, err := svc.Connect(context.Background(), "admin", ConnectChannelInput{
		WorkspaceID: "w1",
		ChannelName: "Loja Centro",
		ChannelType: models.ChannelTypeWhatsApp,
		Code:        "code-1",
	})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, channel.ID, saved.ID)
	assert.Equal(t, models.ChannelConnected, channel.Status)
	assert.Equal(t, "123456", channel.ProviderAccountID())
	assert.Equal(t, "w1", channel.WorkspaceID)
}

func TestConnect_ExistingChannelReconnects(t *testing.T) {
	store := &mockStore{}
	svc := newChannelService(store)
	svc.RegisterStrategy(models.ChannelTypeWhatsApp, &stubStrategy{
		creds: models.WhatsAppCredentials{AccessToken: "fresh", PhoneID: "123456"},
	})

	existing := models.NewChannel("w1", "Loja", models.ChannelTypeWhatsApp)

	store.On("GetUser", mock.Anything, "admin").Return(superUser("admin"), nil)
	store.On("GetChannel", mock.Anything, existing.ID).Return(existing, nil)
	store.On("SaveChannel", mock.Anything, existing).Return(nil)

	channel, err := svc.Connect(context.Background(), "admin", ConnectChannelInput{
		WorkspaceID: "w1",
		ChannelID:   existing.ID,
		ChannelType: models.ChannelTypeWhatsApp,
		Code:        "code-1",
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, channel.ID)

	creds := channel.Credentials.(models.WhatsAppCredentials)
	assert.Equal(t, "fresh", creds.AccessToken)
}

func TestConnect_NoStrategyForChannelType(t *testing.T) {
	store := &mockStore{}
	svc := newChannelService(store)

	store.On("GetUser", mock.Anything, "admin").Return(superUser("admin"), nil)

	_, err := svc.Connect(context.Background(), "admin", ConnectChannelInput{
		WorkspaceID: "w1",
		ChannelType: models.ChannelTypeInstagram,
		Code:        "code-1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
	store.AssertNotCalled(t, "SaveChannel", mock.Anything, mock.Anything)
}

func TestConnect_Unauthorized(t *testing.T) {
	store := &mockStore{}
	svc := newChannelService(store)

	store.On("GetUser", mock.Anything, "u1").Return(regularUser("u1", "Ana"), nil)
	store.On("GetMembership", mock.Anything, "w1", "u1").Return(nil, nil)

	_, err := svc.Connect(context.Background(), "u1", ConnectChannelInput{
		WorkspaceID: "w1",
		ChannelType: models.ChannelTypeWhatsApp,
		Code:        "code-1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotAuthorized))
}

func TestDisconnect_DestroysCredentials(t *testing.T) {
	store := &mockStore{}
	svc := newChannelService(store)

	channel := connectedChannel("w1")

	store.On("GetUser", mock.Anything, "admin").Return(superUser("admin"), nil)
	store.On("GetChannel", mock.Anything, channel.ID).Return(channel, nil)
	store.On("SaveChannel", mock.Anything, channel).Return(nil)

	require.NoError(t, svc.Disconnect(context.Background(), "w1", "admin", channel.ID))

	assert.Equal(t, models.ChannelDisconnected, channel.Status)
	assert.Nil(t, channel.Credentials)
}

func TestWhatsAppConnectionStrategy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/access_token":
			_, _ = w.Write([]byte(`{"access_token": "biz-token"}`))
		case "/me/businesses":
			_, _ = w.Write([]byte(`{"data": [{"id": "biz-1"}]}`))
		case "/biz-1/owned_whatsapp_business_accounts":
			_, _ = w.Write([]byte(`{"data": [{"id": "waba-1"}]}`))
		case "/waba-1/subscribed_apps":
			_, _ = w.Write([]byte(`{"success": true}`))
		case "/waba-1/phone_numbers":
			_, _ = w.Write([]byte(`{"data": [
				{"id": "111", "display_phone_number": "+55 11 1111-1111"},
				{"id": "222", "display_phone_number": "+55 11 2222-2222"}
			]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	strategy := NewWhatsAppConnectionStrategy(meta.NewClient(server.URL, "app", "secret"))

	creds, err := strategy.Connect(context.Background(), ConnectChannelInput{
		Code:          "code-1",
		PhoneNumberID: "222",
	})
	require.NoError(t, err)

	whatsapp := creds.(models.WhatsAppCredentials)
	assert.Equal(t, "biz-token", whatsapp.AccessToken)
	assert.Equal(t, "biz-1", whatsapp.BusinessID)
	assert.Equal(t, "waba-1", whatsapp.WABAID)
	assert.Equal(t, "222", whatsapp.PhoneID)
	assert.Equal(t, "+55 11 2222-2222", whatsapp.PhoneNumber)
}

func TestWhatsAppConnectionStrategy_RequiresCode(t *testing.T) {
	strategy := NewWhatsAppConnectionStrategy(meta.NewClient("http://unused", "app", "secret"))

	_, err := strategy.Connect(context.Background(), ConnectChannelInput{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
}

func TestWhatsAppConnectionStrategy_UnknownPhonePin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/access_token":
			_, _ = w.Write([]byte(`{"access_token": "biz-token"}`))
		case "/me/businesses":
			_, _ = w.Write([]byte(`{"data": [{"id": "biz-1"}]}`))
		case "/biz-1/owned_whatsapp_business_accounts":
			_, _ = w.Write([]byte(`{"data": [{"id": "waba-1"}]}`))
		case "/waba-1/subscribed_apps":
			_, _ = w.Write([]byte(`{"success": true}`))
		case "/waba-1/phone_numbers":
			_, _ = w.Write([]byte(`{"data": [{"id": "111"}]}`))
		}
	}))
	defer server.Close()

	strategy := NewWhatsAppConnectionStrategy(meta.NewClient(server.URL, "app", "secret"))

	_, err := strategy.Connect(context.Background(), ConnectChannelInput{Code: "code-1", PhoneNumberID: "999"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}
