package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the Graph API root used when none is configured.
	DefaultBaseURL = "https://graph.facebook.com/v23.0"

	defaultTimeout = 30 * time.Second
)

// Client talks to the Meta Graph API for the WhatsApp Cloud product. One
// client serves every channel; per-channel access tokens are passed per call.
type Client struct {
	baseURL    string
	appID      string
	appSecret  string
	httpClient *http.Client
}

func NewClient(baseURL, appID, appSecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		appID:      appID,
		appSecret:  appSecret,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SendMessageText sends a text message from a business number and returns the
// provider message id.
func (c *Client) SendMessageText(ctx context.Context, accessToken, phoneID, to, content string) (string, error) {
	payload := sendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textPayload{Body: content},
	}

	var result sendMessageResponse
	if err := c.postJSON(ctx, accessToken, "/"+phoneID+"/messages", payload, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", apiErrorf("send text", result.Error)
	}
	if len(result.Messages) == 0 {
		return "", fmt.Errorf("send text: response carried no message id")
	}
	return result.Messages[0].ID, nil
}

// SendMessageAudio uploads the audio to the media endpoint and sends it as a
// message referencing the uploaded media id.
func (c *Client) SendMessageAudio(ctx context.Context, accessToken, phoneID, to string, audio AudioUpload) (AudioSendResult, error) {
	mediaID, err := c.uploadMedia(ctx, accessToken, phoneID, audio)
	if err != nil {
		return AudioSendResult{}, err
	}

	payload := sendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "audio",
		Audio:            &idPayload{ID: mediaID},
	}

	var result sendMessageResponse
	if err := c.postJSON(ctx, accessToken, "/"+phoneID+"/messages", payload, &result); err != nil {
		return AudioSendResult{}, err
	}
	if result.Error != nil {
		return AudioSendResult{}, apiErrorf("send audio", result.Error)
	}
	if len(result.Messages) == 0 {
		return AudioSendResult{}, fmt.Errorf("send audio: response carried no message id")
	}
	return AudioSendResult{MessageID: result.Messages[0].ID, MediaID: mediaID}, nil
}

// SendTyping marks an inbound message read and shows the typing indicator.
func (c *Client) SendTyping(ctx context.Context, accessToken, phoneID, messageID string) error {
	payload := markMessageRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
		TypingIndicator:  &typingIndicator{Type: "text"},
	}
	return c.postJSON(ctx, accessToken, "/"+phoneID+"/messages", payload, &struct{}{})
}

// ViewMessage marks an inbound message read on the contact's device.
func (c *Client) ViewMessage(ctx context.Context, accessToken, phoneID, messageID string) error {
	payload := markMessageRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	}
	return c.postJSON(ctx, accessToken, "/"+phoneID+"/messages", payload, &struct{}{})
}

// DownloadMedia resolves a media id to its transient URL and fetches the
// bytes. Returns the content and its mime type.
func (c *Client) DownloadMedia(ctx context.Context, accessToken, mediaID string) ([]byte, string, error) {
	var info mediaInfoResponse
	if err := c.getJSON(ctx, accessToken, "/"+mediaID, &info); err != nil {
		return nil, "", err
	}
	if info.Error != nil {
		return nil, "", apiErrorf("media info", info.Error)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}
	return data, info.MimeType, nil
}

func (c *Client) uploadMedia(ctx context.Context, accessToken, phoneID string, audio AudioUpload) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", audio.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return "", fmt.Errorf("failed to write audio payload: %w", err)
	}
	if err := writer.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("type", audio.ContentType); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+phoneID+"/media", body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var result mediaUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.Error != nil {
		return "", apiErrorf("media upload", result.Error)
	}
	if result.ID == "" {
		return "", fmt.Errorf("media upload: response carried no media id")
	}
	return result.ID, nil
}

// ExchangeCode trades the embedded-signup authorization code for a business
// access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	params := url.Values{}
	params.Set("client_id", c.appID)
	params.Set("client_secret", c.appSecret)
	params.Set("code", code)

	var result tokenResponse
	if err := c.getJSON(ctx, "", "/oauth/access_token?"+params.Encode(), &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", apiErrorf("exchange code", result.Error)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("exchange code: response carried no access token")
	}
	return result.AccessToken, nil
}

// GetBusinessID resolves the business that owns the exchanged token.
func (c *Client) GetBusinessID(ctx context.Context, accessToken string) (string, error) {
	var result businessResponse
	if err := c.getJSON(ctx, accessToken, "/me/businesses", &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", apiErrorf("get business", result.Error)
	}
	if len(result.Data) == 0 {
		return "", fmt.Errorf("get business: token owns no business")
	}
	return result.Data[0].ID, nil
}

// ListOwnedWABAs lists the WhatsApp Business Accounts owned by a business.
func (c *Client) ListOwnedWABAs(ctx context.Context, accessToken, businessID string) ([]WABA, error) {
	var result wabaListResponse
	if err := c.getJSON(ctx, accessToken, "/"+businessID+"/owned_whatsapp_business_accounts", &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, apiErrorf("list wabas", result.Error)
	}
	return result.Data, nil
}

// SubscribeApp subscribes the app to a WABA so webhooks start flowing.
func (c *Client) SubscribeApp(ctx context.Context, accessToken, wabaID string) error {
	var result subscribeResponse
	if err := c.postJSON(ctx, accessToken, "/"+wabaID+"/subscribed_apps", struct{}{}, &result); err != nil {
		return err
	}
	if result.Error != nil {
		return apiErrorf("subscribe app", result.Error)
	}
	if !result.Success {
		return fmt.Errorf("subscribe app: provider reported failure")
	}
	return nil
}

// ListPhoneNumbers lists the business numbers provisioned under a WABA.
func (c *Client) ListPhoneNumbers(ctx context.Context, accessToken, wabaID string) ([]PhoneNumber, error) {
	var result phoneNumberListResponse
	if err := c.getJSON(ctx, accessToken, "/"+wabaID+"/phone_numbers", &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, apiErrorf("list phone numbers", result.Error)
	}
	return result.Data, nil
}

func (c *Client) postJSON(ctx context.Context, accessToken, path string, payload, result interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.do(req, result)
}

func (c *Client) getJSON(ctx context.Context, accessToken, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

func apiErrorf(operation string, apiErr *apiError) error {
	return fmt.Errorf("%s: graph api error %d (%s): %s", operation, apiErr.Code, apiErr.Type, apiErr.Message)
}
