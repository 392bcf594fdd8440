package oauth_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/api/internal/config"
	"authgate/api/internal/oauth"
	"authgate/api/internal/oauth/oauthtest"
	"authgate/api/internal/state"
)

func newClient(t *testing.T) (*oauth.Client, *oauthtest.Server) {
	t.Helper()
	srv := oauthtest.NewServer()
	t.Cleanup(srv.Close)
	return oauth.NewClient(srv.Config()), srv
}

func TestBuildAuthorizationURL(t *testing.T) {
	client, _ := newClient(t)

	raw, err := client.BuildAuthorizationURL("", "https://app.example.com", "nonce-1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8000/api/auth/google/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))

	payload := client.DecodeState(q.Get("state"))
	assert.Equal(t, "https://app.example.com", payload.FrontendURL)
	assert.Equal(t, "nonce-1", payload.Nonce)
}

func TestBuildAuthorizationURLDropsForeignFrontend(t *testing.T) {
	client, _ := newClient(t)

	for _, frontend := range []string{
		"https://attacker.example",
		"https://app.example.com.attacker.example",
		"javascript:alert(1)",
	} {
		raw, err := client.BuildAuthorizationURL("", frontend, "n")
		require.NoError(t, err)
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Empty(t, client.DecodeState(u.Query().Get("state")).FrontendURL, frontend)
	}
}

func TestDecodeStateDropsForeignFrontend(t *testing.T) {
	client, srv := newClient(t)

	signed, err := state.NewCodec(srv.Config().StateSecret).Encode(state.Payload{FrontendURL: "https://attacker.example", Nonce: "n"})
	require.NoError(t, err)

	payload := client.DecodeState(signed)
	assert.Empty(t, payload.FrontendURL)
	assert.Equal(t, "n", payload.Nonce)
}

func TestConfigFromAppAllowsDefaultFrontend(t *testing.T) {
	cfg := &config.AppConfig{Google: config.GoogleConfig{
		ClientID:           "id",
		DefaultRedirectURI: "http://localhost:8080/api/auth/google/callback",
		PublicOrigin:       "http://localhost:8080",
		DefaultFrontendURL: "https://app.example.org/",
	}}
	client := oauth.NewClient(oauth.ConfigFromApp(cfg))

	assert.True(t, client.IsAllowedRedirectURI("https://app.example.org/login"))
	assert.False(t, client.IsAllowedRedirectURI("https://other.example.org/login"))
}

func TestBuildAuthorizationURLGeneratesNonce(t *testing.T) {
	client, _ := newClient(t)

	raw, err := client.BuildAuthorizationURL("", "", "")
	require.NoError(t, err)
	u, _ := url.Parse(raw)
	assert.NotEmpty(t, client.DecodeState(u.Query().Get("state")).Nonce)
}

func TestBuildAuthorizationURLRejectsForeignRedirect(t *testing.T) {
	client, _ := newClient(t)

	for _, uri := range []string{
		"https://evil.example.com/callback",
		"https://ngrok-free.app.evil.com/callback",
		"javascript:alert(1)",
		"ftp://localhost:3000/x",
	} {
		raw, err := client.BuildAuthorizationURL(uri, "", "")
		assert.ErrorIs(t, err, oauth.ErrRedirectNotAllowed, uri)
		assert.Empty(t, raw)
	}
}

func TestBuildAuthorizationURLRequiresClientID(t *testing.T) {
	srv := oauthtest.NewServer()
	defer srv.Close()
	cfg := srv.Config()
	cfg.ClientID = ""

	_, err := oauth.NewClient(cfg).BuildAuthorizationURL("", "", "")
	assert.ErrorIs(t, err, oauth.ErrNotConfigured)
}

func TestIsAllowedRedirectURI(t *testing.T) {
	client, _ := newClient(t)

	cases := map[string]bool{
		"http://localhost:3000/login":              true,
		"http://LOCALHOST:3000/login":              true,
		"http://localhost:8000/api/auth/callback":  true,
		"https://localhost:3000/login":             false,
		"http://localhost:3001/login":              false,
		"https://abc123.ngrok-free.app/callback":   true,
		"https://abc123.ngrok.io/callback":         true,
		"https://abc123.ngrok.io.attacker.com/cb":  false,
		"https://user@localhost:3000/login":        false,
		"":                                         false,
		"/relative/path":                           false,
	}
	for uri, want := range cases {
		assert.Equal(t, want, client.IsAllowedRedirectURI(uri), uri)
	}
}

func TestExchangeAndFetchProfile(t *testing.T) {
	client, srv := newClient(t)
	srv.AddCode("good", oauthtest.Profile{ID: "g-1", Email: "ada@example.com", Name: "Ada", Picture: "https://pic"})
	ctx := context.Background()

	tokens, err := client.ExchangeCode(ctx, "good", "https://abc.ngrok.io/cb")
	require.NoError(t, err)
	assert.Equal(t, "access-good", tokens.AccessToken)
	assert.Equal(t, "refresh-good", tokens.RefreshToken)
	assert.Equal(t, "id-access-good", tokens.IDToken)
	assert.Equal(t, "https://abc.ngrok.io/cb", srv.LastRedirectURI)

	profile, err := client.FetchUserProfile(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, oauth.Profile{
		ProviderID:    "g-1",
		Email:         "ada@example.com",
		EmailVerified: true,
		Name:          "Ada",
		Picture:       "https://pic",
	}, profile)
}

func TestExchangeSurfacesProviderError(t *testing.T) {
	client, _ := newClient(t)

	_, err := client.ExchangeCode(context.Background(), "unknown", "")
	var pe *oauth.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "invalid_grant", pe.Code)
	assert.Equal(t, "token exchange failed: Bad Request", pe.Error())
}

func TestFetchProfileRejectsBadToken(t *testing.T) {
	client, _ := newClient(t)

	_, err := client.FetchUserProfile(context.Background(), "nope")
	var pe *oauth.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "profile_fetch_failed", pe.Code)
	assert.Equal(t, 401, pe.StatusCode)
}

func TestRefreshAccessToken(t *testing.T) {
	client, srv := newClient(t)
	srv.AddCode("good", oauthtest.Profile{ID: "g-1", Email: "ada@example.com"})
	ctx := context.Background()

	tokens, err := client.ExchangeCode(ctx, "good", "")
	require.NoError(t, err)

	refreshed, err := client.RefreshAccessToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "access-refreshed", refreshed.AccessToken)
}
