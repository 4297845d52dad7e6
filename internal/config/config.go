// Package config loads application configuration from environment variables.
package config

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	AppID         int64
	PrivateKey    *rsa.PrivateKey
	WebhookSecret string
	ScanURL       string
	ListenAddr    string
	ScanTimeout   time.Duration
	ScanRetries   int
	DetectAI      bool
	StatusContext string
}

// HasWebhookSecret returns true when inbound deliveries should be verified
// against an HMAC signature. An empty secret disables verification; such
// requests are logged but not rejected.
func (c *Config) HasWebhookSecret() bool {
	return c.WebhookSecret != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. Required: GUARDHOOK_APP_ID, GUARDHOOK_PRIVATE_KEY, GUARDHOOK_SCAN_URL.
// Optional with defaults: GUARDHOOK_WEBHOOK_SECRET (empty, verification off),
// GUARDHOOK_LISTEN_ADDR (127.0.0.1:8090), GUARDHOOK_SCAN_TIMEOUT (5m),
// GUARDHOOK_SCAN_RETRIES (3), GUARDHOOK_DETECT_AI (true),
// GUARDHOOK_STATUS_CONTEXT (guardrails/scan).
func Load() (*Config, error) {
	appIDStr := os.Getenv("GUARDHOOK_APP_ID")
	if appIDStr == "" {
		return nil, fmt.Errorf("GUARDHOOK_APP_ID is required")
	}
	appID, err := strconv.ParseInt(appIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("GUARDHOOK_APP_ID has invalid value %q: %w", appIDStr, err)
	}

	rawKey := os.Getenv("GUARDHOOK_PRIVATE_KEY")
	if rawKey == "" {
		return nil, fmt.Errorf("GUARDHOOK_PRIVATE_KEY is required")
	}
	key, err := DecodePrivateKey(rawKey)
	if err != nil {
		return nil, err
	}

	scanURL := os.Getenv("GUARDHOOK_SCAN_URL")
	if scanURL == "" {
		return nil, fmt.Errorf("GUARDHOOK_SCAN_URL is required")
	}

	scanTimeout := 5 * time.Minute
	if v, ok := os.LookupEnv("GUARDHOOK_SCAN_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("GUARDHOOK_SCAN_TIMEOUT has invalid duration %q: %w", v, err)
		}
		scanTimeout = parsed
	}

	scanRetries := 3
	if v, ok := os.LookupEnv("GUARDHOOK_SCAN_RETRIES"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("GUARDHOOK_SCAN_RETRIES has invalid value %q: expected a positive integer", v)
		}
		scanRetries = parsed
	}

	detectAI := true
	if v, ok := os.LookupEnv("GUARDHOOK_DETECT_AI"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("GUARDHOOK_DETECT_AI has invalid value %q: %w", v, err)
		}
		detectAI = parsed
	}

	listenAddr := "127.0.0.1:8090"
	if v, ok := os.LookupEnv("GUARDHOOK_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	statusContext := "guardrails/scan"
	if v, ok := os.LookupEnv("GUARDHOOK_STATUS_CONTEXT"); ok {
		statusContext = v
	}

	return &Config{
		AppID:         appID,
		PrivateKey:    key,
		WebhookSecret: os.Getenv("GUARDHOOK_WEBHOOK_SECRET"),
		ScanURL:       scanURL,
		ListenAddr:    listenAddr,
		ScanTimeout:   scanTimeout,
		ScanRetries:   scanRetries,
		DetectAI:      detectAI,
		StatusContext: statusContext,
	}, nil
}
