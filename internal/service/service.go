package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rawatinap/billing-server/internal/models"
	"github.com/rawatinap/billing-server/internal/repository"
	"github.com/rs/zerolog"
)

// UserError is an error whose message can be shown to the user as is
type UserError string

func (e UserError) Error() string { return string(e) }

// Auth flow errors
const (
	ErrSignupFieldsRequired UserError = "all fields are required"
	ErrUsernameTooShort     UserError = "username needs a minimum of 3 characters"
	ErrPasswordTooShort     UserError = "password needs a minimum of 8 characters"
	ErrPasswordNoDigit      UserError = "password must contain a digit"
	ErrPasswordNoLetter     UserError = "password must contain a letter"
	ErrAlreadyTaken         UserError = "username or email already taken"
	ErrCredentialsRequired  UserError = "username and password are required"
	ErrInvalidCredentials   UserError = "wrong username or password"
)

// Ledger errors
const (
	ErrAllFieldsRequired     UserError = "all fields are required"
	ErrInvalidDateFormat     UserError = "invalid date format"
	ErrCheckoutBeforeCheckin UserError = "checkout date cannot be before checkin date"
	ErrPatientNotFound       UserError = "patient not found"
	ErrInvalidInput          UserError = "invalid input"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, form models.SignUpForm) (*models.User, error)
	Login(ctx context.Context, form models.LoginForm) (*models.User, error)
	CurrentUser(ctx context.Context, userID int64) (*models.User, error)

	// Patient registry
	ListPatients(ctx context.Context) ([]models.Patient, error)
	ListStays(ctx context.Context) ([]models.Stay, error)

	// Transaction ledger
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ListPatientTransactions(ctx context.Context, patientID int64) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	SettleStay(ctx context.Context, stayID int64) (*models.Transaction, error)
	CreateManualTransaction(ctx context.Context, form models.ManualTransactionForm) (*models.Transaction, error)
	EditTransaction(ctx context.Context, id int64, form models.EditTransactionForm) (bool, error)
	TogglePaid(ctx context.Context, id int64) (bool, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo     repository.Repository
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time

	// allocMu serializes transaction id allocation and insertion so two
	// requests in this process never pick the same gap.
	allocMu sync.Mutex
}

// Option configures a DefaultService
type Option func(*DefaultService)

// WithClock overrides the clock used for settlement dates
func WithClock(now func() time.Time) Option {
	return func(s *DefaultService) { s.now = now }
}

// WithLogger sets the service logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *DefaultService) { s.logger = logger }
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, opts ...Option) *DefaultService {
	s := &DefaultService{
		repo:     repo,
		validate: validator.New(),
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
