package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assistenteze/agro/internal/models"
)

// SessionKey is the context key for the authenticated session.
const SessionKey = "session"

// SessionSource yields the live session, or nil when logged out or expired.
type SessionSource interface {
	CurrentSession(ctx context.Context) (*models.Session, error)
}

// RequireSession rejects requests with 401 unless a live session exists.
// The session is stored in the context for handlers.
func RequireSession(source SessionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := source.CurrentSession(c.Request.Context())
		if err != nil {
			if log := GetLogger(c); log != nil {
				log.Error("Failed to read session", err, nil)
			}
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to read session")
			return
		}
		if session == nil || !session.IsAuthenticated || session.User == nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required")
			return
		}

		c.Set(SessionKey, session)
		c.Next()
	}
}

// GetSession returns the session stored by RequireSession, or nil.
func GetSession(c *gin.Context) *models.Session {
	if v, exists := c.Get(SessionKey); exists {
		if s, ok := v.(*models.Session); ok {
			return s
		}
	}
	return nil
}
