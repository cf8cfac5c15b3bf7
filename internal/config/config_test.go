package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"database": {"path": "/tmp/omnichannel.db"},
		"meta": {"app_id": "123"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Server.ReadTimeoutSec)
	assert.Equal(t, "https://graph.facebook.com/v23.0", cfg.Meta.APIBaseURL)
	assert.Equal(t, 15, cfg.Sweeper.IntervalMinutes)
	assert.Equal(t, 24, cfg.Sweeper.MaxIdleHours)
	assert.Equal(t, "omnichannel", cfg.Tracing.ServiceName)
}

func TestLoadConfig_MissingDatabasePath(t *testing.T) {
	path := writeConfigFile(t, `{"meta": {"app_id": "123"}}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidConfig))
}

func TestLoadConfig_MissingAppID(t *testing.T) {
	path := writeConfigFile(t, `{"database": {"path": "/tmp/db.sqlite"}}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidConfig))
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	path := writeConfigFile(t, `{
		"database": {"path": "/tmp/omnichannel.db"},
		"meta": {"app_id": "from-file", "api_base_url": "https://file.example.com"}
	}`)

	t.Setenv("META_APP_ID", "from-env")
	t.Setenv("META_APP_SECRET", "secret-from-env")
	t.Setenv("META_VERIFY_TOKEN", "verify-from-env")
	t.Setenv("META_API_BASE_URL", "https://env.example.com")
	t.Setenv("DB_PATH", "/tmp/override.db")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Meta.AppID)
	assert.Equal(t, "secret-from-env", cfg.Meta.AppSecret)
	assert.Equal(t, "verify-from-env", cfg.Meta.VerifyToken)
	assert.Equal(t, "https://env.example.com", cfg.Meta.APIBaseURL)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
}

func TestLoadConfig_ProductionRequiresSecrets(t *testing.T) {
	path := writeConfigFile(t, `{
		"database": {"path": "/tmp/omnichannel.db"},
		"meta": {"app_id": "123"}
	}`)

	t.Setenv("OMNICHANNEL_ENV", "production")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "META_APP_SECRET")

	t.Setenv("META_APP_SECRET", "app-secret")
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "META_VERIFY_TOKEN")

	t.Setenv("META_VERIFY_TOKEN", "verify-token")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "app-secret", cfg.Meta.AppSecret)
}

func TestLoadConfig_ProductionRejectsDebugLogging(t *testing.T) {
	path := writeConfigFile(t, `{
		"log_level": "debug",
		"database": {"path": "/tmp/omnichannel.db"},
		"meta": {"app_id": "123"}
	}`)

	t.Setenv("OMNICHANNEL_ENV", "production")
	t.Setenv("META_APP_SECRET", "app-secret")
	t.Setenv("META_VERIFY_TOKEN", "verify-token")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debug logging")
}

func TestLoadConfig_InvalidPath(t *testing.T) {
	_, err := LoadConfig("../../../etc/passwd")
	require.Error(t, err)
}

func TestLoadConfig_MalformedJSON(t *testing.T) {
	path := writeConfigFile(t, `{not json`)

	_, err := LoadConfig(path)
	require.Error(t, err)
}
