package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"authgate/api/internal/apperrors"
	"authgate/api/internal/middleware"
)

func (h HandlerSet) writeError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.StatusCode >= 500 {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	middleware.AbortWithError(c, appErr)
}

// bindError turns a gin binding failure into a validation error listing the
// failed rule per field.
func bindError(err error) *apperrors.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("Invalid request body")
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return apperrors.Validation("Invalid request body").WithDetails(details)
}
