package models

// AudioFile is an uploaded audio payload bound for a channel provider.
type AudioFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// AudioSendResult is what a provider returns after a synchronous audio send:
// the provider message id and the media reference the caller needs to render
// the sent bubble.
type AudioSendResult struct {
	MessageID string
	MediaID   string
}
