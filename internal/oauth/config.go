package oauth

import (
	"strings"
	"time"

	"authgate/api/internal/config"
)

// Config is the explicit Google provider configuration handed to NewClient.
type Config struct {
	ClientID           string
	ClientSecret       string
	DefaultRedirectURI string
	// AllowedOrigins are matched exactly against scheme://host[:port].
	AllowedOrigins []string
	// TunnelSuffixes admit any host ending in one of them.
	TunnelSuffixes []string
	AuthURL        string
	TokenURL       string
	UserInfoURL    string
	JWKSURL        string
	Scopes         []string
	HTTPTimeout    time.Duration
	StateSecret    string
}

// ConfigFromApp collects the allow-list from the dev origins, the service's
// own public origin, the default frontend and the optional tunnel origin.
func ConfigFromApp(cfg *config.AppConfig) Config {
	g := cfg.Google

	origins := make([]string, 0, len(g.DevOrigins)+3)
	origins = append(origins, g.DevOrigins...)
	if g.PublicOrigin != "" {
		origins = append(origins, g.PublicOrigin)
	}
	if origin := OriginOf(g.DefaultFrontendURL); origin != "" {
		origins = append(origins, origin)
	}
	if g.TunnelOrigin != "" {
		origins = append(origins, g.TunnelOrigin)
	}

	stateSecret := cfg.Security.StateSecret
	if stateSecret == "" {
		stateSecret = cfg.Security.JWTSecret
	}

	return Config{
		ClientID:           g.ClientID,
		ClientSecret:       g.ClientSecret,
		DefaultRedirectURI: g.DefaultRedirectURI,
		AllowedOrigins:     origins,
		TunnelSuffixes:     g.TunnelSuffixes,
		AuthURL:            g.AuthURL,
		TokenURL:           g.TokenURL,
		UserInfoURL:        g.UserInfoURL,
		JWKSURL:            g.JWKSURL,
		Scopes:             []string{"openid", "email", "profile"},
		HTTPTimeout:        g.HTTPTimeout,
		StateSecret:        stateSecret,
	}
}

func normalizeOrigins(origins []string) map[string]struct{} {
	set := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			set[strings.ToLower(origin)] = struct{}{}
		}
	}
	return set
}
