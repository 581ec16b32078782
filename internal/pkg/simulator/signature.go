package simulator

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// SignPayload returns the X-Webhook-Signature value for a body, or "" when no
// secret is configured.
func SignPayload(payload []byte, webhookSecret string) string {
	secret := strings.TrimSpace(webhookSecret)
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature produced by SignPayload. Receivers can use
// it to test their own verification against simulated deliveries.
func VerifySignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if !strings.HasPrefix(sig, signaturePrefix) || secret == "" {
		return false
	}
	decoded, err := hex.DecodeString(strings.ToLower(strings.TrimPrefix(sig, signaturePrefix)))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decoded)
}
