package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/services"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error kinds onto HTTP responses. Raw
// backend messages are logged, never returned.
func respondServiceError(c *gin.Context, err error, lang string) {
	var (
		cfgErr  *models.ConfigurationError
		valErr  *models.ValidationError
		permErr *models.PermissionError
		tmpErr  *models.TransientError
	)

	switch {
	case errors.As(err, &cfgErr):
		utils.RespondErrorCode(c, http.StatusServiceUnavailable, "not_configured", cfgErr.UserMessage(), gin.H{"phone": models.ContactPhone})
	case errors.As(err, &valErr):
		utils.RespondErrorCode(c, http.StatusBadRequest, valErr.Code, valErr.Message, gin.H{"field": valErr.Field})
	case errors.As(err, &permErr):
		utils.RespondErrorCode(c, http.StatusForbidden, "access_denied", models.ErrAccessDenied.Error(), nil)
	case errors.Is(err, models.ErrNotFound):
		utils.RespondErrorCode(c, http.StatusNotFound, "not_found", models.ErrNotFound.Error(), nil)
	case errors.Is(err, models.ErrDuplicateSubmission):
		utils.RespondErrorCode(c, http.StatusConflict, "duplicate_submission", models.ErrDuplicateSubmission.Error(), nil)
	case errors.As(err, &tmpErr), errors.Is(err, context.DeadlineExceeded):
		_ = c.Error(err)
		utils.RespondErrorCode(c, http.StatusBadGateway, "backend_unavailable", services.SubmitFailureMessage(lang), nil)
	default:
		_ = c.Error(err)
		utils.ErrorLogger.WithField("path", c.Request.URL.Path).Errorf("unexpected error: %v", err)
		utils.RespondErrorCode(c, http.StatusInternalServerError, "internal_error", services.SubmitFailureMessage(lang), nil)
	}
}

// requestLanguage picks en, fr or nl from the explicit value, the lang query
// parameter and finally Accept-Language.
func requestLanguage(c *gin.Context, explicit string) string {
	return utils.NormalizeLanguage(explicit, c.Query("lang"), c.GetHeader("Accept-Language"))
}
