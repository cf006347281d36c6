package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/assistenteze/agro/internal/clock"
	"github.com/assistenteze/agro/internal/models"
)

// Defaults for the simulated OTP service.
const (
	DefaultOTPSendDelay   = 1500 * time.Millisecond
	DefaultOTPVerifyDelay = time.Second
	DefaultDemoCode       = "123456"
	DemoUserName          = "Produtor Rural"
)

// userNamespace seeds the name-based user ids handed out on login, so a
// phone number always maps to the same user.
var userNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://assistenteze.com.br/users"))

// UserIDForPhone returns the stable user id for a digits-only phone number.
func UserIDForPhone(phone string) string {
	return uuid.NewSHA1(userNamespace, []byte(phone)).String()
}

// SendResult is the outcome of a code delivery attempt.
type SendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyResult is the outcome of a code check. User is set on success.
type VerifyResult struct {
	User    *models.User `json:"user,omitempty"`
	Success bool         `json:"success"`
}

// OTPService delivers and checks one-time codes. Delivery failures and
// wrong codes are reported in the result; the error return is reserved for
// cancellation and transport problems.
type OTPService interface {
	Send(ctx context.Context, phone string) (SendResult, error)
	Verify(ctx context.Context, phone, code string) (VerifyResult, error)
}

// SimulatedOTPService stands in for an SMS gateway. It waits a fixed delay,
// always reports delivery, and accepts only the configured demo code.
type SimulatedOTPService struct {
	clock       clock.Clock
	sendDelay   time.Duration
	verifyDelay time.Duration
	demoCode    string
}

// NewSimulatedOTPService creates a SimulatedOTPService. An empty demoCode
// falls back to DefaultDemoCode; negative delays are treated as zero.
func NewSimulatedOTPService(clk clock.Clock, sendDelay, verifyDelay time.Duration, demoCode string) *SimulatedOTPService {
	if demoCode == "" {
		demoCode = DefaultDemoCode
	}
	return &SimulatedOTPService{
		clock:       clk,
		sendDelay:   max(sendDelay, 0),
		verifyDelay: max(verifyDelay, 0),
		demoCode:    demoCode,
	}
}

func (s *SimulatedOTPService) Send(ctx context.Context, phone string) (SendResult, error) {
	if err := sleep(ctx, s.sendDelay); err != nil {
		return SendResult{}, err
	}
	return SendResult{Success: true, Message: "Código enviado via SMS"}, nil
}

func (s *SimulatedOTPService) Verify(ctx context.Context, phone, code string) (VerifyResult, error) {
	if err := sleep(ctx, s.verifyDelay); err != nil {
		return VerifyResult{}, err
	}
	if code != s.demoCode {
		return VerifyResult{Success: false}, nil
	}
	return VerifyResult{
		Success: true,
		User: &models.User{
			ID:        UserIDForPhone(phone),
			Name:      DemoUserName,
			Phone:     phone,
			CreatedAt: s.clock.Now(),
		},
	}, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
