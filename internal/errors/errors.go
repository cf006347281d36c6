// Package errors writes the JSON error envelope shared by every endpoint:
//
//	{"error": {"code": "...", "message": "...", "details": {...}, "request_id": "..."}}
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/assistenteze/agro/internal/middleware"
	"github.com/assistenteze/agro/internal/models"
)

// Error code constants for standardized error responses
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrConflict           = "CONFLICT"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// validationMessage is the envelope message when binding rejects a body.
const validationMessage = "Validation failed for one or more fields"

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// problem describes one error response before it is logged and written.
type problem struct {
	err     error
	details map[string]interface{}
	status  int
	code    string
	message string
	logMsg  string
}

// write logs p on the request logger and sends the envelope. 5xx responses
// are logged as errors and everything else as warnings.
func write(c *gin.Context, p problem) {
	requestID := middleware.GetRequestID(c)

	if log := middleware.GetLogger(c); log != nil {
		fields := map[string]interface{}{
			"message":    p.message,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
		}
		if p.details != nil {
			fields["details"] = p.details
		}
		if p.status >= http.StatusInternalServerError {
			fields["method"] = c.Request.Method
			log.Error(p.logMsg, p.err, fields)
		} else {
			log.Warn(p.logMsg, fields)
		}
	}

	c.JSON(p.status, ErrorResponse{
		Error: ErrorDetail{
			Code:      p.code,
			Message:   p.message,
			Details:   p.details,
			RequestID: requestID,
		},
	})
}

// NotFound returns a 404 response. Resources owned by another user are
// reported the same way.
func NotFound(c *gin.Context, message string) {
	write(c, problem{status: http.StatusNotFound, code: ErrNotFound, message: message, logMsg: "Resource not found"})
}

// BadRequest returns a 400 response for bodies that could not be decoded.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	write(c, problem{status: http.StatusBadRequest, code: ErrBadRequest, message: message, details: details, logMsg: "Bad request"})
}

// Unauthorized returns a 401 response, used when no live session exists or
// a login code is rejected.
func Unauthorized(c *gin.Context, message string) {
	write(c, problem{status: http.StatusUnauthorized, code: ErrUnauthorized, message: message, logMsg: "Unauthorized"})
}

// Conflict returns a 409 response when a request does not fit the current
// state of the resource, such as a wizard step sent out of order.
func Conflict(c *gin.Context, message string, details map[string]interface{}) {
	write(c, problem{status: http.StatusConflict, code: ErrConflict, message: message, details: details, logMsg: "Conflict"})
}

// ServiceUnavailable returns a 503 response when a dependency such as the
// code sender is temporarily failing.
func ServiceUnavailable(c *gin.Context, message string, err error) {
	write(c, problem{status: http.StatusServiceUnavailable, code: ErrServiceUnavailable, message: message, err: err, logMsg: "Service unavailable"})
}

// InternalServerError returns a 500 response. err is logged but never sent
// to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	write(c, problem{status: http.StatusInternalServerError, code: ErrInternalServer, message: message, err: err, logMsg: "Internal server error"})
}

// ValidationError returns a 400 response listing each rejected field of a
// bound request body.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = formatValidationError(fe)
	}
	write(c, problem{status: http.StatusBadRequest, code: ErrValidation, message: validationMessage, details: details, logMsg: "Validation error"})
}

// FieldValidationError returns a 400 response for a domain rule failure,
// keyed by the offending field. The rule's message is shown to the user.
func FieldValidationError(c *gin.Context, verr *models.ValidationError) {
	details := map[string]interface{}{verr.Field: verr.Message}
	write(c, problem{status: http.StatusBadRequest, code: ErrValidation, message: verr.Message, details: details, logMsg: "Validation error"})
}

// formatValidationError turns a failed binding tag into a message for the
// form. Domain tags carry the wording the app shows under the input.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obrigatório"
	case "min":
		return "Deve ter pelo menos " + fe.Param() + " caracteres"
	case "max":
		return "Deve ter no máximo " + fe.Param() + " caracteres"
	case "len":
		return "Deve ter exatamente " + fe.Param() + " caracteres"
	case "oneof":
		return "Deve ser um de: " + fe.Param()
	case "br_phone":
		return "Por favor, insira um número de celular válido com DDD"
	case "otp":
		return "O código deve ter exatamente 6 dígitos"
	case "cep":
		return "Digite um CEP válido no formato 00000-000"
	default:
		return "Valor inválido (" + fe.Tag() + ")"
	}
}
