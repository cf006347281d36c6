package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/assistenteze/agro/internal/errors"
	"github.com/assistenteze/agro/internal/middleware"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/services"
)

// AuthHandler handles phone login and session endpoints.
type AuthHandler struct {
	service services.AuthService
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(service services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// RequestCodeRequest is the body of POST /auth/otp.
type RequestCodeRequest struct {
	Phone string `json:"phone" binding:"required,br_phone"`
}

// VerifyCodeRequest is the body of POST /auth/verify.
type VerifyCodeRequest struct {
	Phone string `json:"phone" binding:"required,br_phone"`
	Code  string `json:"code" binding:"required,otp"`
}

// SessionResponse wraps the session for auth responses.
type SessionResponse struct {
	Session *models.Session `json:"session"`
	Message string          `json:"message,omitempty"`
}

// RequestCode handles POST /api/v1/auth/otp.
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req RequestCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.RequestCode(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err, "Failed to send code")
		return
	}
	if !result.Success {
		apierrors.ServiceUnavailable(c, "Erro ao enviar código. Tente novamente em alguns instantes", nil)
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyCode handles POST /api/v1/auth/verify.
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.service.VerifyCode(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		respondError(c, err, "Failed to verify code")
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Session: session,
		Message: "Bem-vindo ao AssistenteZé Agro",
	})
}

// Session handles GET /api/v1/auth/session.
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, SessionResponse{Session: middleware.GetSession(c)})
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to log out")
		return
	}
	c.Status(http.StatusNoContent)
}

// Profile handles GET /api/v1/profile.
func (h *AuthHandler) Profile(c *gin.Context) {
	profile, err := h.service.Profile(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}
