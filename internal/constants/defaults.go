package constants

// Default retry configuration values
const (
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultDatabaseRetryAttempts = 3
)

// Default server values
const (
	DefaultServerPort            = 8082
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
	ServerErrorChannelSize       = 1
)

// Default provider API values
const (
	DefaultMetaAPIBaseURL = "https://graph.facebook.com/v23.0"
	DefaultWebhookBodyMax = 1 << 20
	SignatureHeaderName   = "X-Hub-Signature-256"
)

// Default realtime/queue values
const (
	DefaultEventBufferSize = 64
	DefaultPingIntervalSec = 25
	DefaultQueueCapacity   = 1024
)

// Default background sweep values
const (
	DefaultSweepIntervalMinutes = 15
)

// Encryption parameters for channel credential storage
const (
	EncryptionSalt   = "omnichannel-credentials-salt-v1"
	EncryptionKeyLen = 32
	EncryptionNonce  = 12
	EncryptionRounds = 100000
)
