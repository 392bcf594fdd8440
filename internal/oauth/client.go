package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"authgate/api/internal/state"
)

type TokenSet struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	IDToken      string
	Expiry       time.Time
}

type Profile struct {
	ProviderID    string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Client talks to Google's OAuth 2.0 endpoints.
type Client struct {
	cfg        Config
	oauth      oauth2.Config
	httpClient *http.Client
	state      *state.Codec
	origins    map[string]struct{}
	keys       *KeySet
}

func NewClient(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	return &Client{
		cfg: cfg,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: cfg.DefaultRedirectURI,
			Scopes:      cfg.Scopes,
		},
		httpClient: httpClient,
		state:      state.NewCodec(cfg.StateSecret),
		origins:    normalizeOrigins(cfg.AllowedOrigins),
		keys:       NewKeySet(cfg.JWKSURL, httpClient),
	}
}

func (c *Client) DefaultRedirectURI() string {
	return c.cfg.DefaultRedirectURI
}

func (c *Client) Keys() *KeySet {
	return c.keys
}

// DecodeState recovers the payload placed in the state parameter by
// BuildAuthorizationURL. A frontend URL outside the allow-list is dropped.
func (c *Client) DecodeState(raw string) state.Payload {
	p := c.state.Decode(raw)
	p.FrontendURL = c.frontendURL(p.FrontendURL)
	return p
}

// frontendURL returns the origin of raw when it passes the allow-list, else "".
func (c *Client) frontendURL(raw string) string {
	if raw == "" || !c.IsAllowedRedirectURI(raw) {
		return ""
	}
	return OriginOf(raw)
}

// BuildAuthorizationURL returns the Google consent URL. redirectURI defaults
// to the configured callback and must pass the allow-list. frontendURL and
// nonce travel in the signed state parameter. A frontendURL outside the
// allow-list is left out of the state; an empty nonce is replaced by a random
// one.
func (c *Client) BuildAuthorizationURL(redirectURI, frontendURL, nonce string) (string, error) {
	if c.cfg.ClientID == "" {
		return "", ErrNotConfigured
	}

	callback := redirectURI
	if callback == "" {
		callback = c.cfg.DefaultRedirectURI
	}
	if !c.IsAllowedRedirectURI(callback) {
		return "", fmt.Errorf("%w: %s", ErrRedirectNotAllowed, callback)
	}

	if nonce == "" {
		nonce = uuid.NewString()
	}
	stateValue, err := c.state.Encode(state.Payload{FrontendURL: c.frontendURL(frontendURL), Nonce: nonce})
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}

	cfg := c.oauth
	cfg.RedirectURL = callback
	return cfg.AuthCodeURL(stateValue,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// ExchangeCode trades an authorization code for provider tokens. redirectURI
// must equal the one used to obtain the code; empty means the default.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (TokenSet, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return TokenSet{}, ErrNotConfigured
	}

	cfg := c.oauth
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}

	token, err := cfg.Exchange(c.clientContext(ctx), code)
	if err != nil {
		return TokenSet{}, providerError("token exchange", "token_exchange_failed", err)
	}
	return tokenSet(token), nil
}

// RefreshAccessToken runs the refresh_token grant.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (TokenSet, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return TokenSet{}, ErrNotConfigured
	}

	token, err := c.oauth.TokenSource(c.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return TokenSet{}, providerError("token refresh", "token_refresh_failed", err)
	}
	return tokenSet(token), nil
}

// FetchUserProfile reads the userinfo endpoint with the provider access token.
func (c *Client) FetchUserProfile(ctx context.Context, accessToken string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return Profile{}, &ProviderError{
			Op:          "user info",
			Code:        "profile_fetch_failed",
			Description: "Failed to fetch user info",
			StatusCode:  resp.StatusCode,
		}
	}

	var payload struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return Profile{}, fmt.Errorf("decode user info: %w", err)
	}

	return Profile{
		ProviderID:    payload.ID,
		Email:         payload.Email,
		EmailVerified: payload.VerifiedEmail,
		Name:          payload.Name,
		Picture:       payload.Picture,
	}, nil
}

func (c *Client) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func tokenSet(token *oauth2.Token) TokenSet {
	set := TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		set.IDToken = idToken
	}
	return set
}

// providerError keeps the provider's own code and description when Google
// answered with an OAuth error body. Transport failures stay plain errors.
func providerError(op, fallbackCode string, err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return fmt.Errorf("%s: %w", op, err)
	}

	pe := &ProviderError{
		Op:          op,
		Code:        re.ErrorCode,
		Description: re.ErrorDescription,
	}
	if re.Response != nil {
		pe.StatusCode = re.Response.StatusCode
	}
	if pe.Code == "" {
		pe.Code = fallbackCode
	}
	return pe
}
