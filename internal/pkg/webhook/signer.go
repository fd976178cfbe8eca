package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "x-payping-signature"

// Payload is the wire shape of an outbound webhook. Field order matters:
// the signature covers the exact serialization, and the bytes that were
// signed are the bytes that get POSTed.
type Payload struct {
	Status   string    `json:"status"`
	UTR      *string   `json:"utr"`
	Ref      string    `json:"ref"`
	Amount   float64   `json:"amount"`
	TxnTime  time.Time `json:"txnTime"`
	Provider string    `json:"provider"`
}

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches payload under secret.
// Comparison is constant time.
func Verify(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	decoded, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decoded)
}
