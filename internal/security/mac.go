package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Sign returns the unpadded base64url HMAC-SHA256 of parts joined by ":".
func Sign(secret []byte, parts ...string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strings.Join(parts, ":")))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret []byte, signature string, parts ...string) bool {
	expected := Sign(secret, parts...)
	return hmac.Equal([]byte(signature), []byte(expected))
}
