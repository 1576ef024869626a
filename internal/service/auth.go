package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rawatinap/billing-server/internal/models"
	"github.com/rawatinap/billing-server/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ValidatePassword checks the password strength policy
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return ErrPasswordTooShort
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return ErrPasswordNoDigit
	}
	if !strings.ContainsFunc(password, unicode.IsLetter) {
		return ErrPasswordNoLetter
	}
	return nil
}

func (s *DefaultService) SignUp(ctx context.Context, form models.SignUpForm) (*models.User, error) {
	username := strings.TrimSpace(form.Username)
	email := strings.TrimSpace(form.Email)

	if username == "" || email == "" || form.Password == "" {
		return nil, ErrSignupFieldsRequired
	}
	if utf8.RuneCountInString(username) < 3 {
		return nil, ErrUsernameTooShort
	}
	if err := ValidatePassword(form.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user signed up")
	return user, nil
}

func (s *DefaultService) Login(ctx context.Context, form models.LoginForm) (*models.User, error) {
	login := strings.TrimSpace(form.Username)
	if login == "" || form.Password == "" {
		return nil, ErrCredentialsRequired
	}

	user, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// CurrentUser loads the account behind a session; it returns nil without error
// when the account no longer exists.
func (s *DefaultService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}
