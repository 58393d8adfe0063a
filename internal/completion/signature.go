package completion

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks a hex-encoded HMAC-SHA256 of the exact raw request
// bytes against the signature supplied by the caller. The digest is computed
// first and the comparison runs over the encoded digests. Callers must
// reject a missing signature before calling this; an empty provided string
// never verifies.
func VerifySignature(body []byte, provided, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(provided))
}
