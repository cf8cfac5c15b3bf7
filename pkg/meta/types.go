package meta

// Graph API request/response payloads for the WhatsApp Cloud API.

type sendMessageRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *textPayload `json:"text,omitempty"`
	Audio            *idPayload   `json:"audio,omitempty"`
}

type textPayload struct {
	Body string `json:"body"`
}

type idPayload struct {
	ID string `json:"id"`
}

type sendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *apiError `json:"error,omitempty"`
}

type markMessageRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	Status           string           `json:"status"`
	MessageID        string           `json:"message_id"`
	TypingIndicator  *typingIndicator `json:"typing_indicator,omitempty"`
}

type typingIndicator struct {
	Type string `json:"type"`
}

type mediaUploadResponse struct {
	ID    string    `json:"id"`
	Error *apiError `json:"error,omitempty"`
}

type mediaInfoResponse struct {
	URL      string    `json:"url"`
	MimeType string    `json:"mime_type"`
	Error    *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// AudioUpload is an audio payload bound for the media upload endpoint.
type AudioUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// AudioSendResult carries the ids produced by an upload-then-send.
type AudioSendResult struct {
	MessageID string
	MediaID   string
}

// OAuth / onboarding payloads.

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Error       *apiError `json:"error,omitempty"`
}

type businessResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// WABA is one WhatsApp Business Account owned by a business.
type WABA struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wabaListResponse struct {
	Data  []WABA    `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// PhoneNumber is one provisioned WhatsApp business number.
type PhoneNumber struct {
	ID            string `json:"id"`
	DisplayNumber string `json:"display_phone_number"`
	VerifiedName  string `json:"verified_name"`
	QualityRating string `json:"quality_rating"`
}

type phoneNumberListResponse struct {
	Data  []PhoneNumber `json:"data"`
	Error *apiError     `json:"error,omitempty"`
}

type subscribeResponse struct {
	Success bool      `json:"success"`
	Error   *apiError `json:"error,omitempty"`
}

// Webhook payloads (inbound).

// WebhookPayload is the envelope Meta posts to the webhook endpoint.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID      string          `json:"id"`
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Field string       `json:"field"`
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         webhookMetadata  `json:"metadata"`
	Contacts         []webhookContact `json:"contacts"`
	Messages         []webhookMessage `json:"messages"`
	Statuses         []webhookStatus  `json:"statuses"`
}

type webhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type webhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type webhookMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Audio *struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	} `json:"audio,omitempty"`
	Image *struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	} `json:"image,omitempty"`
}

type webhookStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}
