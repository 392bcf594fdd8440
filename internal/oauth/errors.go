package oauth

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured      = errors.New("google oauth client is not configured")
	ErrRedirectNotAllowed = errors.New("redirect uri is not allowed")
)

// ProviderError is a non-success answer from Google. Code is either the
// provider's OAuth error code or a generic code for the failed step; both are
// safe to show to a browser.
type ProviderError struct {
	Op          string
	Code        string
	Description string
	StatusCode  int
}

func (e *ProviderError) Error() string {
	detail := e.Description
	if detail == "" {
		detail = e.Code
	}
	if detail == "" {
		detail = "Unknown error"
	}
	return fmt.Sprintf("%s failed: %s", e.Op, detail)
}
