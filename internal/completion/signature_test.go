package completion

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureRoundTrip(t *testing.T) {
	t.Parallel()

	body := []byte(`{"payload":{"id":"abc"}}`)
	sig := sign(body, "shared-secret")

	assert.True(t, VerifySignature(body, sig, "shared-secret"))
	// Deterministic: same inputs verify again.
	assert.True(t, VerifySignature(body, sig, "shared-secret"))
}

func TestVerifySignatureFlippedByte(t *testing.T) {
	t.Parallel()

	body := []byte(`{"payload":{"id":"abc"}}`)
	sig := sign(body, "shared-secret")

	tampered := append([]byte(nil), body...)
	tampered[0] ^= 0x01
	assert.False(t, VerifySignature(tampered, sig, "shared-secret"))
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	t.Parallel()

	body := []byte("payload")
	assert.False(t, VerifySignature(body, sign(body, "secret-a"), "secret-b"))
}

func TestVerifySignatureEmptyProvidedNeverVerifies(t *testing.T) {
	t.Parallel()

	assert.False(t, VerifySignature([]byte("payload"), "", "secret"))
}
