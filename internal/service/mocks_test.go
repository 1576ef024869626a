package service

import (
	"context"

	"github.com/rawatinap/billing-server/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockRepository) GetUserByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	args := m.Called(ctx, usernameOrEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockRepository) ListPatients(ctx context.Context) ([]models.Patient, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Patient), args.Error(1)
}
func (m *MockRepository) GetPatient(ctx context.Context, id int64) (*models.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}
func (m *MockRepository) FindPatientByName(ctx context.Context, name string) (*models.Patient, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}
func (m *MockRepository) ListStays(ctx context.Context) ([]models.Stay, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Stay), args.Error(1)
}
func (m *MockRepository) GetStay(ctx context.Context, stayID int64) (*models.Stay, error) {
	args := m.Called(ctx, stayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stay), args.Error(1)
}
func (m *MockRepository) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Transaction), args.Error(1)
}
func (m *MockRepository) ListPatientTransactions(ctx context.Context, patientID int64) ([]models.Transaction, error) {
	args := m.Called(ctx, patientID)
	return args.Get(0).([]models.Transaction), args.Error(1)
}
func (m *MockRepository) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}
func (m *MockRepository) ListTransactionIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int64), args.Error(1)
}
func (m *MockRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockRepository) UpdateTransaction(ctx context.Context, tx *models.Transaction) (bool, error) {
	args := m.Called(ctx, tx)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) TogglePaid(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) DeleteTransaction(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
