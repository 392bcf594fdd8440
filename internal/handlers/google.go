package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"authgate/api/internal/apperrors"
	"authgate/api/internal/middleware"
	"authgate/api/internal/oauth"
	"authgate/api/internal/service"
)

// GoogleURL returns the consent URL. Without an explicit frontend_url the
// origin of the Referer, else the Origin header, is carried through state.
func (h HandlerSet) GoogleURL(c *gin.Context) {
	frontendURL := c.Query("frontend_url")
	if frontendURL == "" {
		frontendURL = oauth.OriginOf(c.GetHeader("Referer"))
	}
	if frontendURL == "" {
		frontendURL = oauth.OriginOf(c.GetHeader("Origin"))
	}

	authURL, err := h.auth.GoogleAuthURL(c.Query("redirect_uri"), frontendURL, c.Query("state"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_url": authURL})
}

// GoogleCallbackRedirect is the browser landing for Google's redirect. Every
// outcome, including failures, is a redirect to <frontend>/login.
func (h HandlerSet) GoogleCallbackRedirect(c *gin.Context) {
	frontendURL := h.auth.FrontendURL(c.Query("state"))
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("error", r).Msg("google callback panicked")
			h.redirectToLogin(c, frontendURL, url.Values{"error": {"server_error"}})
		}
	}()

	if providerErr := c.Query("error"); providerErr != "" {
		h.redirectToLogin(c, frontendURL, url.Values{"error": {providerErr}})
		return
	}
	code := c.Query("code")
	if code == "" {
		h.redirectToLogin(c, frontendURL, url.Values{"error": {"no_code"}})
		return
	}

	result, err := h.auth.CompleteGoogleCallback(c.Request.Context(), "google_callback", code, "")
	if err != nil {
		errCode := callbackErrorCode(err)
		if errCode == "server_error" {
			h.log.Error().Err(err).Msg("google callback failed")
		} else {
			_ = c.Error(err)
		}
		h.redirectToLogin(c, frontendURL, url.Values{"error": {errCode}})
		return
	}

	picture := ""
	if result.User.Picture != nil {
		picture = *result.User.Picture
	}
	h.redirectToLogin(c, frontendURL, url.Values{
		"token":   {result.AccessToken},
		"user_id": {result.User.ID},
		"email":   {result.User.Email},
		"name":    {result.User.Name},
		"role":    {string(result.User.Role)},
		"picture": {picture},
	})
}

func (h HandlerSet) redirectToLogin(c *gin.Context, frontendURL string, params url.Values) {
	c.Redirect(http.StatusFound, frontendURL+"/login?"+params.Encode())
}

// callbackErrorCode picks the opaque marker shown to the browser.
func callbackErrorCode(err error) string {
	if errors.Is(err, service.ErrNoEmail) {
		return "no_email"
	}
	var pe *oauth.ProviderError
	if errors.As(err, &pe) && pe.Code != "" {
		return pe.Code
	}
	return "server_error"
}

type googleCallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// GoogleCallbackDirect completes the code exchange for API callers and sets
// the session cookie. Failures are JSON errors, never redirects.
func (h HandlerSet) GoogleCallbackDirect(c *gin.Context) {
	var req googleCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	result, err := h.auth.CompleteGoogleCallback(c.Request.Context(), "google_direct", req.Code, req.RedirectURI)
	if err != nil {
		h.writeError(c, directLoginError(err))
		return
	}

	h.setSessionCookie(c, result.SessionToken)
	c.JSON(http.StatusOK, newTokenResponse(result.AccessToken, result.User))
}

type oneTapRequest struct {
	Credential string `json:"credential" binding:"required"`
}

func (h HandlerSet) GoogleOneTap(c *gin.Context) {
	var req oneTapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	result, err := h.auth.CompleteOneTap(c.Request.Context(), req.Credential)
	if err != nil {
		h.writeError(c, directLoginError(err))
		return
	}

	h.setSessionCookie(c, result.SessionToken)
	c.JSON(http.StatusOK, newTokenResponse(result.AccessToken, result.User))
}

// directLoginError keeps taxonomy errors and replaces anything unexpected
// with a fixed message.
func directLoginError(err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal("Authentication failed").Wrap(err)
}

type linkGoogleRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

func (h HandlerSet) LinkGoogle(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.writeError(c, apperrors.ErrAuthRequired)
		return
	}

	var req linkGoogleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	if _, err := h.auth.LinkGoogle(c.Request.Context(), user, req.Code, req.RedirectURI); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Google account linked successfully"})
}
