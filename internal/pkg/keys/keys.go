package keys

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	apiKeyPrefix        = "pk_live_"
	webhookSecretPrefix = "whsec_"
)

func randomHex(byteLen int) (string, error) {
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read secure random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateAPIKey returns a new merchant API key. Only its hash is persisted;
// the plaintext is shown to the merchant once.
func GenerateAPIKey() (string, error) {
	s, err := randomHex(16)
	if err != nil {
		return "", err
	}
	return apiKeyPrefix + s, nil
}

// GenerateWebhookSecret returns a new webhook signing secret.
func GenerateWebhookSecret() (string, error) {
	s, err := randomHex(32)
	if err != nil {
		return "", err
	}
	return webhookSecretPrefix + s, nil
}
