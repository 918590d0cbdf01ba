// Package crypto provides the HMAC primitives used for webhook signature
// verification.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignHex computes HMAC-SHA256 of body using secret and returns the digest
// as a lowercase hex string. This matches the signature format both ticketing
// providers send in their webhook headers.
func SignHex(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHex reports whether signature is a valid hex HMAC-SHA256 of body
// under secret. The comparison is constant-time. An empty secret never
// verifies; callers treat that as a rejected delivery rather than an open
// door.
func VerifyHex(secret, body []byte, signature string) bool {
	if len(secret) == 0 || signature == "" {
		return false
	}
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
