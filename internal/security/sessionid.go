package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewSessionID returns a 256-bit random identifier encoded with the
// unpadded URL-safe base64 alphabet, suitable for use as a cookie value.
// The client never parses it; only the session store gives it meaning.
func NewSessionID() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
