package oauth

import (
	"net/url"
	"strings"
)

// IsAllowedRedirectURI reports whether uri may receive an authorization code.
// Its origin must match the allow-list exactly, or its host must end with one
// of the tunnel suffixes.
func (c *Client) IsAllowedRedirectURI(uri string) bool {
	if uri == "" {
		return false
	}
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" || u.User != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Host)
	if _, ok := c.origins[scheme+"://"+host]; ok {
		return true
	}

	hostname := strings.ToLower(u.Hostname())
	for _, suffix := range c.cfg.TunnelSuffixes {
		suffix = strings.ToLower(strings.TrimSpace(suffix))
		if suffix != "" && strings.HasSuffix(hostname, suffix) {
			return true
		}
	}
	return false
}

// OriginOf strips everything after scheme://host from raw. It returns "" for
// values that are not absolute URLs.
func OriginOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
