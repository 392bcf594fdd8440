// Package state carries client context through the provider's OAuth state
// parameter. Tokens are signed so the payload cannot be altered in transit;
// callers still check the frontend URL against their allow-list.
package state

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"authgate/api/internal/security"
)

type Payload struct {
	FrontendURL string `json:"f,omitempty"`
	Nonce       string `json:"n,omitempty"`
}

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode renders p as base64url(json) "." base64url(hmac), padding stripped.
func (c *Codec) Encode(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + security.Sign(c.secret, "state", body), nil
}

// Decode never fails. A token that is malformed, unsigned or signed with a
// different key is returned whole as the nonce and carries no frontend URL.
func (c *Codec) Decode(token string) Payload {
	if token == "" {
		return Payload{}
	}

	body, sig, ok := strings.Cut(token, ".")
	if !ok || !security.VerifySignature(c.secret, strings.TrimRight(sig, "="), "state", strings.TrimRight(body, "=")) {
		return Payload{Nonce: token}
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(body, "="))
	if err != nil {
		return Payload{Nonce: token}
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{Nonce: token}
	}
	return p
}
