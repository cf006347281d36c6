package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/assistenteze/agro/internal/logger"
	"github.com/assistenteze/agro/internal/models"
	"github.com/assistenteze/agro/internal/repository"
	"github.com/assistenteze/agro/internal/validation"
)

// Profile is the data behind the profile screen.
type Profile struct {
	User             models.User `json:"user"`
	Initials         string      `json:"initials"`
	PhoneDisplay     string      `json:"phoneDisplay"`
	PropertyCount    int         `json:"propertyCount"`
	SessionExpiresAt time.Time   `json:"sessionExpiresAt"`
}

// AuthService drives phone login and the device session.
type AuthService interface {
	// RequestCode sends a one-time code to phone.
	// Returns ErrInvalidPhone when phone is not a valid mobile number.
	RequestCode(ctx context.Context, phone string) (SendResult, error)

	// VerifyCode checks code and opens a session on success.
	// Returns ErrInvalidCode for malformed codes and ErrIncorrectCode when
	// the code is rejected.
	VerifyCode(ctx context.Context, phone, code string) (*models.Session, error)

	// CurrentSession returns the live session, or nil.
	CurrentSession(ctx context.Context) (*models.Session, error)

	// Logout ends the session and drops the saved properties.
	Logout(ctx context.Context) error

	// Profile summarizes the logged-in user.
	// Returns ErrNotAuthenticated without a live session.
	Profile(ctx context.Context) (*Profile, error)
}

type authService struct {
	otp        OTPService
	sessions   repository.SessionRepository
	properties repository.PropertyRepository
	log        *logger.Logger
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(otp OTPService, sessions repository.SessionRepository, properties repository.PropertyRepository, log *logger.Logger) AuthService {
	return &authService{
		otp:        otp,
		sessions:   sessions,
		properties: properties,
		log:        log,
	}
}

func (s *authService) RequestCode(ctx context.Context, phone string) (SendResult, error) {
	if !validation.ValidPhone(phone) {
		s.log.Warn("Rejected phone number", map[string]interface{}{"phone": phone})
		return SendResult{}, ErrInvalidPhone
	}

	result, err := s.otp.Send(ctx, validation.DigitsOnly(phone))
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to send code: %w", err)
	}

	s.log.Info("Login code requested", map[string]interface{}{
		"phone":   phone,
		"success": result.Success,
	})
	return result, nil
}

func (s *authService) VerifyCode(ctx context.Context, phone, code string) (*models.Session, error) {
	if !validation.ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}
	if !validation.ValidOTP(code) {
		return nil, ErrInvalidCode
	}

	result, err := s.otp.Verify(ctx, validation.DigitsOnly(phone), code)
	if err != nil {
		return nil, fmt.Errorf("failed to verify code: %w", err)
	}
	if !result.Success || result.User == nil {
		s.log.Warn("Incorrect login code", map[string]interface{}{"phone": phone})
		return nil, ErrIncorrectCode
	}

	session, err := s.sessions.Create(ctx, *result.User)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.Info("User logged in", map[string]interface{}{
		"user_id":    result.User.ID,
		"expires_at": session.ExpiresAt,
	})
	return session, nil
}

func (s *authService) CurrentSession(ctx context.Context) (*models.Session, error) {
	return s.sessions.Read(ctx)
}

func (s *authService) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	s.log.Info("User logged out", nil)
	return nil
}

func (s *authService) Profile(ctx context.Context) (*Profile, error) {
	session, err := s.sessions.Read(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil || session.User == nil {
		return nil, ErrNotAuthenticated
	}

	all, err := s.properties.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}
	count := 0
	for _, p := range all {
		if p.OwnerID == session.User.ID {
			count++
		}
	}

	return &Profile{
		User:             *session.User,
		Initials:         Initials(session.User.Name),
		PhoneDisplay:     validation.FormatPhone(session.User.Phone),
		PropertyCount:    count,
		SessionExpiresAt: session.ExpiresAt,
	}, nil
}

// Initials returns the upper-cased first letters of the first two words.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		n++
		if n == 2 {
			break
		}
	}
	return b.String()
}
