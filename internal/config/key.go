package config

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
)

// KeyError describes a malformed signing key. It is a deployment diagnostic:
// multi-line PEM keys passed through environment variables arrive in
// inconsistent encodings, and a truncated or mangled key should fail fast
// with a message naming the exact problem instead of surfacing later as an
// opaque authentication failure.
type KeyError struct {
	Reason string
}

func (e *KeyError) Error() string {
	return "invalid signing key: " + e.Reason
}

const (
	pemHeader = "-----BEGIN"
	pemFooter = "-----END"
)

// DecodePrivateKey parses an RSA private key from its environment-variable
// representation. It accepts both literal line breaks and the escaped "\n"
// sequences that env files and secret managers commonly produce, normalizing
// in a single explicit step rather than trying formats heuristically.
// PKCS#1 ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") blocks are accepted.
func DecodePrivateKey(raw string) (*rsa.PrivateKey, error) {
	normalized := strings.ReplaceAll(raw, `\n`, "\n")
	normalized = strings.TrimSpace(normalized)

	if !strings.Contains(normalized, pemHeader) {
		return nil, &KeyError{Reason: "missing PEM BEGIN delimiter"}
	}
	if !strings.Contains(normalized, pemFooter) {
		return nil, &KeyError{Reason: "missing PEM END delimiter; key appears truncated"}
	}

	block, _ := pem.Decode([]byte(normalized))
	if block == nil {
		return nil, &KeyError{Reason: "PEM body could not be decoded"}
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, &KeyError{Reason: fmt.Sprintf("not a parseable RSA key: %v", err)}
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, &KeyError{Reason: fmt.Sprintf("unsupported key type %T: RSA required", parsed)}
	}
	return key, nil
}
