package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/assistenteze/agro/internal/models"
)

// MockOTPService is a mock implementation of OTPService for testing
type MockOTPService struct {
	mock.Mock
}

func (m *MockOTPService) Send(ctx context.Context, phone string) (SendResult, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).(SendResult), args.Error(1)
}

func (m *MockOTPService) Verify(ctx context.Context, phone, code string) (VerifyResult, error) {
	args := m.Called(ctx, phone, code)
	return args.Get(0).(VerifyResult), args.Error(1)
}

// MockSessionRepository is a mock implementation of SessionRepository for testing
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, user models.User) (*models.Session, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) Read(ctx context.Context) (*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockPropertyRepository is a mock implementation of PropertyRepository for testing
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Append(ctx context.Context, property models.Property) error {
	return m.Called(ctx, property).Error(0)
}

func (m *MockPropertyRepository) ListAll(ctx context.Context) ([]models.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, id string) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) RemoveOwned(ctx context.Context, ownerID, id string) (int, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Int(0), args.Error(1)
}

func (m *MockPropertyRepository) Remove(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPropertyRepository) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
