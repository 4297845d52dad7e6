package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every GUARDHOOK_ env var that Load() reads.
var allConfigKeys = []string{
	"GUARDHOOK_APP_ID",
	"GUARDHOOK_PRIVATE_KEY",
	"GUARDHOOK_WEBHOOK_SECRET",
	"GUARDHOOK_SCAN_URL",
	"GUARDHOOK_LISTEN_ADDR",
	"GUARDHOOK_SCAN_TIMEOUT",
	"GUARDHOOK_SCAN_RETRIES",
	"GUARDHOOK_DETECT_AI",
	"GUARDHOOK_STATUS_CONTEXT",
}

// isolateConfigEnv saves and unsets all GUARDHOOK_ env vars so tests don't
// inherit values from the host environment. t.Cleanup restores original
// values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GUARDHOOK_APP_ID", "12345")
	t.Setenv("GUARDHOOK_PRIVATE_KEY", testKeyPEM(t))
	t.Setenv("GUARDHOOK_SCAN_URL", "http://localhost:8000")
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("GUARDHOOK_WEBHOOK_SECRET", "s3cret")
	t.Setenv("GUARDHOOK_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("GUARDHOOK_SCAN_TIMEOUT", "90s")
	t.Setenv("GUARDHOOK_SCAN_RETRIES", "5")
	t.Setenv("GUARDHOOK_DETECT_AI", "false")
	t.Setenv("GUARDHOOK_STATUS_CONTEXT", "ci/guardrails")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, int64(12345), cfg.AppID)
	assert.NotNil(t, cfg.PrivateKey)
	assert.Equal(t, "s3cret", cfg.WebhookSecret)
	assert.True(t, cfg.HasWebhookSecret())
	assert.Equal(t, "http://localhost:8000", cfg.ScanURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, 90*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 5, cfg.ScanRetries)
	assert.False(t, cfg.DetectAI)
	assert.Equal(t, "ci/guardrails", cfg.StatusContext)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	setRequiredEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "", cfg.WebhookSecret)
	assert.False(t, cfg.HasWebhookSecret())
	assert.Equal(t, "127.0.0.1:8090", cfg.ListenAddr)
	assert.Equal(t, 5*time.Minute, cfg.ScanTimeout)
	assert.Equal(t, 3, cfg.ScanRetries)
	assert.True(t, cfg.DetectAI)
	assert.Equal(t, "guardrails/scan", cfg.StatusContext)
}

func TestLoad_MissingAppID(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("GUARDHOOK_PRIVATE_KEY", testKeyPEM(t))
	t.Setenv("GUARDHOOK_SCAN_URL", "http://localhost:8000")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GUARDHOOK_APP_ID")
}

func TestLoad_InvalidAppID(t *testing.T) {
	isolateConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("GUARDHOOK_APP_ID", "not-a-number")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GUARDHOOK_APP_ID")
}

func TestLoad_MissingPrivateKey(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("GUARDHOOK_APP_ID", "12345")
	t.Setenv("GUARDHOOK_SCAN_URL", "http://localhost:8000")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GUARDHOOK_PRIVATE_KEY")
}

func TestLoad_MalformedPrivateKey(t *testing.T) {
	isolateConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("GUARDHOOK_PRIVATE_KEY", "definitely not a key")

	cfg, err := Load()

	assert.Nil(t, cfg)
	var keyErr *KeyError
	require.ErrorAs(t, err, &keyErr)
}

func TestLoad_MissingScanURL(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("GUARDHOOK_APP_ID", "12345")
	t.Setenv("GUARDHOOK_PRIVATE_KEY", testKeyPEM(t))

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GUARDHOOK_SCAN_URL")
}

func TestLoad_InvalidScanTimeout(t *testing.T) {
	isolateConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("GUARDHOOK_SCAN_TIMEOUT", "not-a-duration")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GUARDHOOK_SCAN_TIMEOUT")
}

func TestLoad_InvalidScanRetries(t *testing.T) {
	isolateConfigEnv(t)
	setRequiredEnv(t)

	for _, bad := range []string{"0", "-1", "three"} {
		t.Setenv("GUARDHOOK_SCAN_RETRIES", bad)

		cfg, err := Load()

		assert.Nil(t, cfg, "value %q", bad)
		require.Error(t, err, "value %q", bad)
		assert.Contains(t, err.Error(), "GUARDHOOK_SCAN_RETRIES")
	}
}

func TestLoad_InvalidDetectAI(t *testing.T) {
	isolateConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("GUARDHOOK_DETECT_AI", "maybe")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GUARDHOOK_DETECT_AI")
}
