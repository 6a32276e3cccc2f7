package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const sigPrefix = "sha256="

// SignHMAC computes the signature header value for body: "sha256=" followed
// by lowercase hex of HMAC-SHA256 under the shared secret.
func SignHMAC(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return sigPrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks a signature header value against body using the shared
// secret. Comparison is constant time. Any malformed input, including a
// missing prefix or bad hex, reports false rather than an error.
func VerifyHMAC(secret string, body []byte, provided string) bool {
	if !strings.HasPrefix(provided, sigPrefix) {
		return false
	}
	b, err := hex.DecodeString(strings.TrimPrefix(provided, sigPrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), b)
}
