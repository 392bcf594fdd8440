package oauth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/api/internal/oauth/oauthtest"
)

func publishKey(t *testing.T, srv *oauthtest.Server, kid string, key *rsa.PrivateKey) {
	t.Helper()
	doc := map[string]any{"keys": []map[string]string{{
		"kid": kid,
		"kty": "RSA",
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}}
	body, err := json.Marshal(doc)
	require.NoError(t, err)
	srv.SetJWKS(body)
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestVerifyIDToken(t *testing.T) {
	client, srv := newClient(t)
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	publishKey(t, srv, "k1", key)

	n, err := client.Keys().Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	valid := jwt.MapClaims{
		"iss":   "https://accounts.google.com",
		"aud":   "client-id",
		"sub":   "g-1",
		"email": "ada@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	claims := client.VerifyIDToken(context.Background(), signIDToken(t, key, "k1", valid))
	require.NotNil(t, claims)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "g-1", claims.Subject)

	wrongAud := jwt.MapClaims{"iss": "accounts.google.com", "aud": "other", "exp": time.Now().Add(time.Hour).Unix()}
	assert.Nil(t, client.VerifyIDToken(context.Background(), signIDToken(t, key, "k1", wrongAud)))

	wrongIss := jwt.MapClaims{"iss": "https://evil.example.com", "aud": "client-id", "exp": time.Now().Add(time.Hour).Unix()}
	assert.Nil(t, client.VerifyIDToken(context.Background(), signIDToken(t, key, "k1", wrongIss)))

	expired := jwt.MapClaims{"iss": "accounts.google.com", "aud": "client-id", "exp": time.Now().Add(-time.Hour).Unix()}
	assert.Nil(t, client.VerifyIDToken(context.Background(), signIDToken(t, key, "k1", expired)))

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	assert.Nil(t, client.VerifyIDToken(context.Background(), signIDToken(t, other, "k1", valid)))

	assert.Nil(t, client.VerifyIDToken(context.Background(), "garbage"))
}

func TestVerifyIDTokenFetchesKeysOnDemand(t *testing.T) {
	client, srv := newClient(t)
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	publishKey(t, srv, "fresh", key)

	claims := client.VerifyIDToken(context.Background(), signIDToken(t, key, "fresh", jwt.MapClaims{
		"iss": "accounts.google.com",
		"aud": "client-id",
		"exp": time.Now().Add(time.Hour).Unix(),
	}))
	assert.NotNil(t, claims)
}
