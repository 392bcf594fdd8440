// Package oauthtest runs an in-process stand-in for Google's OAuth endpoints.
package oauthtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"authgate/api/internal/oauth"
)

type Profile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// Server answers the token, userinfo and jwks endpoints. Codes registered with
// AddCode exchange for an access token whose userinfo is the given profile.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	codes    map[string]Profile
	tokens   map[string]Profile
	JWKS     []byte
	Requests []*http.Request
	// LastRedirectURI is the redirect_uri of the latest token request.
	LastRedirectURI string
}

func NewServer() *Server {
	s := &Server{
		codes:  map[string]Profile{},
		tokens: map[string]Profile{},
		JWKS:   []byte(`{"keys":[]}`),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", s.token)
	mux.HandleFunc("/userinfo", s.userInfo)
	mux.HandleFunc("/certs", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		body := s.JWKS
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) AddCode(code string, p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = p
}

func (s *Server) SetJWKS(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.JWKS = body
}

// Config returns a client configuration pointed at this server.
func (s *Server) Config() oauth.Config {
	return oauth.Config{
		ClientID:           "client-id",
		ClientSecret:       "client-secret",
		DefaultRedirectURI: "http://localhost:8000/api/auth/google/callback",
		AllowedOrigins:     []string{"http://localhost:3000", "http://localhost:8000", "https://app.example.com"},
		TunnelSuffixes:     []string{".ngrok-free.app", ".ngrok.io"},
		AuthURL:            s.URL + "/auth",
		TokenURL:           s.URL + "/token",
		UserInfoURL:        s.URL + "/userinfo",
		JWKSURL:            s.URL + "/certs",
		Scopes:             []string{"openid", "email", "profile"},
		StateSecret:        "state-secret",
	}
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	s.mu.Lock()
	s.Requests = append(s.Requests, r)
	s.LastRedirectURI = r.PostForm.Get("redirect_uri")
	var (
		profile Profile
		ok      bool
		access  string
	)
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		code := r.PostForm.Get("code")
		profile, ok = s.codes[code]
		access = "access-" + code
	case "refresh_token":
		refresh := r.PostForm.Get("refresh_token")
		profile, ok = s.tokens["refresh-"+strings.TrimPrefix(refresh, "refresh-")]
		access = "access-refreshed"
	}
	if ok {
		s.tokens[access] = profile
		s.tokens["refresh-"+strings.TrimPrefix(access, "access-")] = profile
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok || r.PostForm.Get("client_secret") != "client-secret" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Bad Request",
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  access,
		"refresh_token": "refresh-" + strings.TrimPrefix(access, "access-"),
		"token_type":    "Bearer",
		"expires_in":    3599,
		"id_token":      "id-" + access,
	})
}

func (s *Server) userInfo(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	profile, ok := s.tokens[token]
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":             profile.ID,
		"email":          profile.Email,
		"verified_email": profile.Email != "",
		"name":           profile.Name,
		"picture":        profile.Picture,
	})
}
