package state

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c := NewCodec("secret")
	in := Payload{FrontendURL: "https://app.example.com", Nonce: "abc"}

	token, err := c.Encode(in)
	require.NoError(t, err)
	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")

	assert.Equal(t, in, c.Decode(token))
}

func TestDecodeToleratesPadding(t *testing.T) {
	c := NewCodec("secret")
	token, err := c.Encode(Payload{FrontendURL: "https://a.example.com", Nonce: "n"})
	require.NoError(t, err)

	body, sig, _ := strings.Cut(token, ".")
	raw, err := base64.RawURLEncoding.DecodeString(body)
	require.NoError(t, err)
	padded := base64.URLEncoding.EncodeToString(raw) + "." + sig + "="

	assert.Equal(t, "https://a.example.com", c.Decode(padded).FrontendURL)
}

func TestDecodeFallsBackToNonce(t *testing.T) {
	c := NewCodec("secret")

	tests := []string{
		"plain-nonce",
		"not base64!.sig",
		base64.RawURLEncoding.EncodeToString([]byte(`{"f":"https://evil.example"}`)),
	}
	for _, raw := range tests {
		got := c.Decode(raw)
		assert.Equal(t, Payload{Nonce: raw}, got)
	}
}

func TestDecodeRejectsForgedState(t *testing.T) {
	forged, err := NewCodec("attacker").Encode(Payload{FrontendURL: "https://evil.example"})
	require.NoError(t, err)

	got := NewCodec("secret").Decode(forged)
	assert.Empty(t, got.FrontendURL)
	assert.Equal(t, forged, got.Nonce)
}

func TestDecodeEmpty(t *testing.T) {
	assert.Equal(t, Payload{}, NewCodec("secret").Decode(""))
}
