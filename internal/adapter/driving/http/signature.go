package httphandler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// validSignature verifies the HMAC-SHA256 signature of a webhook payload.
// The signature header has the form "sha256=<hex-encoded-hmac>". Comparison
// is constant-time. Both signature and secret must be non-empty.
func validSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	received, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(received), []byte(expected))
}
