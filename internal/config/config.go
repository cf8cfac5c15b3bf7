package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Doxa-Code/omnichannel/internal/constants"
	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
	"github.com/Doxa-Code/omnichannel/internal/security"
	"github.com/Doxa-Code/omnichannel/internal/tracing"
)

// Config is the root configuration loaded from the JSON config file.
// Secrets are never read from the file itself; they come from
// environment variables applied as overrides.
type Config struct {
	LogLevel string                `json:"log_level"`
	Server   ServerConfig          `json:"server"`
	Database DatabaseConfig        `json:"database"`
	Meta     MetaConfig            `json:"meta"`
	Sweeper  SweeperConfig         `json:"sweeper"`
	Tracing  tracing.TracingConfig `json:"tracing"`
}

type ServerConfig struct {
	Port            int `json:"port"`
	ReadTimeoutSec  int `json:"read_timeout_sec"`
	WriteTimeoutSec int `json:"write_timeout_sec"`
	IdleTimeoutSec  int `json:"idle_timeout_sec"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

// MetaConfig holds the Meta Graph API settings. AppSecret doubles as the
// webhook signature key: Meta signs webhook payloads with the app secret.
type MetaConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AppID       string `json:"app_id"`
	AppSecret   string `json:"-"`
	VerifyToken string `json:"-"`
}

type SweeperConfig struct {
	IntervalMinutes int `json:"interval_minutes"`
	MaxIdleHours    int `json:"max_idle_hours"`
}

// LoadConfig reads, validates and applies environment overrides to the
// configuration at path.
func LoadConfig(path string) (*Config, error) {
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(c *Config) {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if c.Meta.APIBaseURL == "" {
		c.Meta.APIBaseURL = constants.DefaultMetaAPIBaseURL
	}
	if c.Sweeper.IntervalMinutes <= 0 {
		c.Sweeper.IntervalMinutes = constants.DefaultSweepIntervalMinutes
	}
	if c.Sweeper.MaxIdleHours <= 0 {
		c.Sweeper.MaxIdleHours = 24
	}
	if c.Tracing.ServiceName == "" {
		defaults := tracing.DefaultTracingConfig()
		defaults.Enabled = c.Tracing.Enabled
		defaults.UseStdout = c.Tracing.UseStdout
		if c.Tracing.OTLPEndpoint != "" {
			defaults.OTLPEndpoint = c.Tracing.OTLPEndpoint
		}
		if c.Tracing.SampleRate > 0 {
			defaults.SampleRate = c.Tracing.SampleRate
		}
		c.Tracing = defaults
	}
}

func applyEnvironmentOverrides(c *Config) {
	if url := os.Getenv("META_API_BASE_URL"); url != "" {
		c.Meta.APIBaseURL = url
	}
	if appID := os.Getenv("META_APP_ID"); appID != "" {
		c.Meta.AppID = appID
	}

	// Secrets only come from the environment
	if secret := os.Getenv("META_APP_SECRET"); secret != "" {
		c.Meta.AppSecret = secret
	}
	if token := os.Getenv("META_VERIFY_TOKEN"); token != "" {
		c.Meta.VerifyToken = token
	}

	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}
}

func validate(c *Config) error {
	if c.Database.Path == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "missing database path")
	}
	if c.Meta.AppID == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "missing Meta app id (set META_APP_ID)")
	}

	isProduction := os.Getenv("OMNICHANNEL_ENV") == "production"
	if isProduction {
		if c.Meta.AppSecret == "" {
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "Meta app secret is required in production (set META_APP_SECRET)")
		}
		if c.Meta.VerifyToken == "" {
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "webhook verify token is required in production (set META_VERIFY_TOKEN)")
		}
		if c.LogLevel == "debug" {
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "debug logging should not be used in production")
		}
	} else if c.Meta.AppSecret == "" {
		fmt.Fprintf(os.Stderr, "WARNING: Meta app secret not set; webhook signatures will not be verified. Set META_APP_SECRET.\n")
	}

	return nil
}
