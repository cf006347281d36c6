package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/assistenteze/agro/internal/clock"
	"github.com/assistenteze/agro/internal/logger"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/storage"
)

// DefaultSessionTTL is how long a session lives after login.
const DefaultSessionTTL = 72 * time.Hour

// SessionRepository persists the single device session.
type SessionRepository interface {
	// Create stores an authenticated session for user, replacing any
	// existing one. It expires TTL after the current time.
	Create(ctx context.Context, user models.User) (*models.Session, error)

	// Read returns the live session or nil. An expired session is removed
	// together with the property collection before nil is returned.
	Read(ctx context.Context) (*models.Session, error)

	// Clear removes the session and the property collection.
	Clear(ctx context.Context) error
}

type sessionRepository struct {
	store storage.Store
	clock clock.Clock
	ttl   time.Duration
	log   *logger.Logger
}

// NewSessionRepository creates a SessionRepository. A non-positive ttl
// falls back to DefaultSessionTTL.
func NewSessionRepository(store storage.Store, clk clock.Clock, ttl time.Duration, log *logger.Logger) SessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &sessionRepository{store: store, clock: clk, ttl: ttl, log: log}
}

func (r *sessionRepository) Create(ctx context.Context, user models.User) (*models.Session, error) {
	session := &models.Session{
		User:            &user,
		IsAuthenticated: true,
		ExpiresAt:       r.clock.Now().Add(r.ttl),
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.store.Set(ctx, storage.KeySession, raw); err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}
	return session, nil
}

func (r *sessionRepository) Read(ctx context.Context) (*models.Session, error) {
	raw, err := r.store.Get(ctx, storage.KeySession)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// Unreadable records count as absent and never trigger expiry cleanup.
		r.log.Warn("Ignoring unreadable session", map[string]interface{}{"error": err.Error()})
		return nil, nil
	}

	if session.IsExpired(r.clock.Now()) {
		r.log.Info("Session expired", map[string]interface{}{
			"expires_at": session.ExpiresAt,
		})
		if err := r.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &session, nil
}

func (r *sessionRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, storage.KeySession); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if err := r.store.Delete(ctx, storage.KeyProperties); err != nil {
		return fmt.Errorf("failed to clear properties: %w", err)
	}
	return nil
}
