package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rawatinap/billing-server/internal/models"
	"github.com/rawatinap/billing-server/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("abc"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword("abcdefgh"), ErrPasswordNoDigit)
	assert.ErrorIs(t, ValidatePassword("12345678"), ErrPasswordNoLetter)
	assert.NoError(t, ValidatePassword("abcd1234"))
	assert.Contains(t, ErrPasswordTooShort.Error(), "minimum of 8 characters")
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		repo.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "faris" && u.Email == "faris@example.com" &&
				bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("abcd1234")) == nil
		})).Return(nil)

		user, err := svc.SignUp(ctx, models.SignUpForm{Username: " faris ", Email: "faris@example.com", Password: "abcd1234"})
		require.NoError(t, err)
		assert.NotEqual(t, "abcd1234", user.Password)
		repo.AssertExpectations(t)
	})

	rejected := []struct {
		form models.SignUpForm
		want error
	}{
		{models.SignUpForm{Username: "", Email: "a@b.c", Password: "abcd1234"}, ErrSignupFieldsRequired},
		{models.SignUpForm{Username: "faris", Email: "", Password: "abcd1234"}, ErrSignupFieldsRequired},
		{models.SignUpForm{Username: "ab", Email: "a@b.c", Password: "abcd1234"}, ErrUsernameTooShort},
		{models.SignUpForm{Username: "faris", Email: "a@b.c", Password: "abc"}, ErrPasswordTooShort},
		{models.SignUpForm{Username: "faris", Email: "a@b.c", Password: "abcdefgh"}, ErrPasswordNoDigit},
	}
	for _, tt := range rejected {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		_, err := svc.SignUp(ctx, tt.form)
		assert.ErrorIs(t, err, tt.want)
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	}

	t.Run("Duplicate", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		repo.On("CreateUser", ctx, mock.Anything).Return(repository.ErrDuplicate)

		_, err := svc.SignUp(ctx, models.SignUpForm{Username: "faris", Email: "faris@example.com", Password: "abcd1234"})
		assert.ErrorIs(t, err, ErrAlreadyTaken)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		repo.On("CreateUser", ctx, mock.Anything).Return(errors.New("connection reset"))

		_, err := svc.SignUp(ctx, models.SignUpForm{Username: "faris", Email: "faris@example.com", Password: "abcd1234"})
		require.Error(t, err)
		var ue UserError
		assert.False(t, errors.As(err, &ue))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("abcd1234"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 1, Username: "faris", Email: "faris@example.com", Password: string(hash)}

	t.Run("ByUsername", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)
		repo.On("GetUserByLogin", ctx, "faris").Return(stored, nil)

		user, err := svc.Login(ctx, models.LoginForm{Username: "faris", Password: "abcd1234"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	})

	t.Run("ByEmail", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)
		repo.On("GetUserByLogin", ctx, "faris@example.com").Return(stored, nil)

		_, err := svc.Login(ctx, models.LoginForm{Username: "faris@example.com", Password: "abcd1234"})
		assert.NoError(t, err)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)
		repo.On("GetUserByLogin", ctx, "faris").Return(stored, nil)

		user, err := svc.Login(ctx, models.LoginForm{Username: "faris", Password: "wrongpass1"})
		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)
		repo.On("GetUserByLogin", ctx, "ghost").Return(nil, nil)

		_, err := svc.Login(ctx, models.LoginForm{Username: "ghost", Password: "abcd1234"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("EmptyFields", func(t *testing.T) {
		svc := NewDefaultService(new(MockRepository))

		_, err := svc.Login(ctx, models.LoginForm{Username: "  ", Password: "x"})
		assert.ErrorIs(t, err, ErrCredentialsRequired)
	})
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewDefaultService(repo)

	repo.On("GetUserByID", ctx, int64(1)).Return(&models.User{ID: 1, Username: "faris"}, nil)
	repo.On("GetUserByID", ctx, int64(2)).Return(nil, nil)
	repo.On("GetUserByID", ctx, int64(3)).Return(nil, errors.New("connection refused"))

	user, err := svc.CurrentUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "faris", user.Username)

	user, err = svc.CurrentUser(ctx, 2)
	assert.NoError(t, err)
	assert.Nil(t, user)

	_, err = svc.CurrentUser(ctx, 3)
	assert.Error(t, err)
	repo.AssertExpectations(t)
}
