package service

// Standard structured-log field names. Every logging call uses these
// exact keys so log aggregation can correlate lines across components.
const (
	// Identification fields
	LogFieldRequestID      = "request_id"
	LogFieldTraceID        = "trace_id"
	LogFieldWorkspaceID    = "workspace_id"
	LogFieldConversationID = "conversation_id"
	LogFieldMessageID      = "message_id"
	LogFieldChannelID      = "channel_id"
	LogFieldUserID         = "user_id"
	LogFieldContactPhone   = "contact_phone"

	// Component fields
	LogFieldService   = "service"
	LogFieldOperation = "operation"
	LogFieldComponent = "component"
	LogFieldMethod    = "method"

	// Messaging fields
	LogFieldEvent       = "event"
	LogFieldMessageType = "message_type"
	LogFieldChannelType = "channel_type"
	LogFieldDirection   = "direction" // "incoming" or "outgoing"

	// Measurement fields
	LogFieldDuration = "duration_ms"
	LogFieldCount    = "count"
	LogFieldSize     = "size_bytes"

	// HTTP fields
	LogFieldURL        = "url"
	LogFieldEndpoint   = "endpoint"
	LogFieldStatusCode = "status_code"
	LogFieldRemoteIP   = "remote_ip"
	LogFieldUserAgent  = "user_agent"

	// Error fields
	LogFieldErrorCode  = "error_code"
	LogFieldErrorType  = "error_type"
	LogFieldRetryCount = "retry_count"
	LogFieldAttempt    = "attempt"
)
