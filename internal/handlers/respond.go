package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/assistenteze/agro/internal/errors"
	"github.com/assistenteze/agro/internal/middleware"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/services"
	"github.com/assistenteze/agro/internal/wizard"
)

// bindJSON decodes the request body into req and writes the error response
// when decoding or validation fails.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body", map[string]interface{}{"error": err.Error()})
		return false
	}
	return true
}

// respondError maps service errors onto the API error envelope.
func respondError(c *gin.Context, err error, fallback string) {
	var verr *models.ValidationError

	switch {
	case errors.As(err, &verr):
		apierrors.FieldValidationError(c, verr)
	case errors.Is(err, services.ErrInvalidPhone):
		apierrors.FieldValidationError(c, models.NewValidationError("phone", "Por favor, insira um número de celular válido com DDD"))
	case errors.Is(err, services.ErrInvalidCode):
		apierrors.FieldValidationError(c, models.NewValidationError("code", "O código deve ter exatamente 6 dígitos"))
	case errors.Is(err, services.ErrInvalidCEP):
		apierrors.FieldValidationError(c, models.NewValidationError("cep", "Digite um CEP válido no formato 00000-000"))
	case errors.Is(err, services.ErrIncorrectCode):
		apierrors.Unauthorized(c, "Código incorreto")
	case errors.Is(err, services.ErrNotAuthenticated):
		apierrors.Unauthorized(c, "Login required")
	case errors.Is(err, services.ErrPropertyNotFound):
		apierrors.NotFound(c, "Property not found")
	case errors.Is(err, services.ErrWizardNotFound):
		apierrors.NotFound(c, "Wizard not found")
	case errors.Is(err, wizard.ErrInvalidTransition):
		apierrors.Conflict(c, "Wizard is not at this step", map[string]interface{}{"reason": err.Error()})
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful can be written.
		c.Abort()
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}

// ownerID returns the id of the logged-in user set by RequireSession.
func ownerID(c *gin.Context) string {
	if s := middleware.GetSession(c); s != nil && s.User != nil {
		return s.User.ID
	}
	return ""
}
