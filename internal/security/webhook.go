package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// SignWebhookBody computes the base64-encoded HMAC-SHA256 of a raw webhook
// body under the shared secret. This is the scheme Shopify uses for the
// X-Shopify-Hmac-Sha256 header.
func SignWebhookBody(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// VerifyWebhookSignature reports whether header carries a valid signature for
// body. Comparison is constant time; the payload must not be trusted before
// this returns true.
func VerifyWebhookSignature(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	expected := SignWebhookBody(body, secret)
	return hmac.Equal([]byte(expected), []byte(header))
}

// SecretsEqual compares two shared secrets in constant time.
func SecretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
