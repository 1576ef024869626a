package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rawatinap/billing-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
}

func TestSettleStay(t *testing.T) {
	ctx := context.Background()

	t.Run("SameDayBillsOneDay", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo, WithClock(fixedClock))

		repo.On("GetStay", ctx, int64(3)).Return(&models.Stay{
			ID: 3, PatientID: 1, PatientName: "Budi", DailyRate: 350000,
			CheckIn: day(2024, 1, 1), CheckOut: day(2024, 1, 1),
		}, nil)
		repo.On("ListTransactionIDs", ctx).Return([]int64{1, 2}, nil)
		repo.On("CreateTransaction", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

		tx, err := svc.SettleStay(ctx, 3)
		require.NoError(t, err)
		require.NotNil(t, tx)
		assert.Equal(t, int64(3), tx.ID)
		assert.Equal(t, int64(1), tx.PatientID)
		assert.Equal(t, int64(350000), tx.Total)
		assert.True(t, tx.Paid)
		assert.Equal(t, day(2024, 3, 10), tx.Date)
		repo.AssertExpectations(t)
	})

	t.Run("UnknownStayIsNoop", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		repo.On("GetStay", ctx, int64(404)).Return(nil, nil)

		tx, err := svc.SettleStay(ctx, 404)
		assert.NoError(t, err)
		assert.Nil(t, tx)
		repo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		repo.On("GetStay", ctx, int64(1)).Return(nil, errors.New("connection refused"))

		_, err := svc.SettleStay(ctx, 1)
		assert.Error(t, err)
		var ue UserError
		assert.False(t, errors.As(err, &ue))
	})
}

func validForm() models.ManualTransactionForm {
	return models.ManualTransactionForm{
		PatientRef: "Budi",
		RoomClass:  "VIP",
		CheckIn:    "2024-01-01",
		CheckOut:   "2024-01-03",
		Paid:       "0",
	}
}

func TestCreateManualTransaction(t *testing.T) {
	ctx := context.Background()
	budi := &models.Patient{ID: 1, Name: "Budi"}

	t.Run("VIPTwoDays", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		repo.On("FindPatientByName", ctx, "Budi").Return(budi, nil)
		repo.On("ListTransactionIDs", ctx).Return([]int64{1, 2, 4}, nil)
		repo.On("CreateTransaction", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.ID == 3 && tx.PatientID == 1 && tx.Total == 1000000 && !tx.Paid && tx.Date.Equal(day(2024, 1, 3))
		})).Return(nil)

		tx, err := svc.CreateManualTransaction(ctx, validForm())
		require.NoError(t, err)
		assert.Equal(t, int64(3), tx.ID)
		assert.Equal(t, int64(1000000), tx.Total)
		repo.AssertExpectations(t)
	})

	t.Run("PatientByID", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		form := validForm()
		form.PatientRef = "1"
		form.Paid = "1"
		repo.On("GetPatient", ctx, int64(1)).Return(budi, nil)
		repo.On("ListTransactionIDs", ctx).Return([]int64{1, 2, 3}, nil)
		repo.On("CreateTransaction", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

		tx, err := svc.CreateManualTransaction(ctx, form)
		require.NoError(t, err)
		assert.Equal(t, int64(4), tx.ID)
		assert.True(t, tx.Paid)
	})

	t.Run("UnknownClassBillsZero", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		form := validForm()
		form.RoomClass = "Presidential"
		repo.On("FindPatientByName", ctx, "Budi").Return(budi, nil)
		repo.On("ListTransactionIDs", ctx).Return([]int64{}, nil)
		repo.On("CreateTransaction", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

		tx, err := svc.CreateManualTransaction(ctx, form)
		require.NoError(t, err)
		assert.Equal(t, int64(0), tx.Total)
		assert.Equal(t, int64(1), tx.ID)
	})

	validation := []struct {
		name   string
		mutate func(*models.ManualTransactionForm)
		want   error
	}{
		{"MissingPatient", func(f *models.ManualTransactionForm) { f.PatientRef = "" }, ErrAllFieldsRequired},
		{"MissingClass", func(f *models.ManualTransactionForm) { f.RoomClass = "" }, ErrAllFieldsRequired},
		{"MissingCheckIn", func(f *models.ManualTransactionForm) { f.CheckIn = "" }, ErrAllFieldsRequired},
		{"BadPaidFlag", func(f *models.ManualTransactionForm) { f.Paid = "2" }, ErrAllFieldsRequired},
		{"EmptyPaidFlag", func(f *models.ManualTransactionForm) { f.Paid = "" }, ErrAllFieldsRequired},
		{"MissingFieldBeatsBadDate", func(f *models.ManualTransactionForm) { f.RoomClass = ""; f.CheckIn = "01/01/2024" }, ErrAllFieldsRequired},
		{"BadCheckIn", func(f *models.ManualTransactionForm) { f.CheckIn = "01/01/2024" }, ErrInvalidDateFormat},
		{"BadCheckOut", func(f *models.ManualTransactionForm) { f.CheckOut = "2024-13-01" }, ErrInvalidDateFormat},
		{"BadDateBeatsOrder", func(f *models.ManualTransactionForm) { f.CheckIn = "2024-02-01"; f.CheckOut = "yesterday" }, ErrInvalidDateFormat},
		{"CheckoutBeforeCheckin", func(f *models.ManualTransactionForm) { f.CheckIn = "2024-01-05"; f.CheckOut = "2024-01-03" }, ErrCheckoutBeforeCheckin},
	}
	for _, tt := range validation {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := NewDefaultService(repo)

			form := validForm()
			tt.mutate(&form)

			tx, err := svc.CreateManualTransaction(ctx, form)
			assert.Nil(t, tx)
			assert.ErrorIs(t, err, tt.want)
			repo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
		})
	}

	t.Run("PatientNotFound", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		form := validForm()
		form.PatientRef = "Nobody"
		repo.On("FindPatientByName", ctx, "Nobody").Return(nil, nil)

		_, err := svc.CreateManualTransaction(ctx, form)
		assert.ErrorIs(t, err, ErrPatientNotFound)
		repo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
	})
}

func TestEditTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		repo.On("UpdateTransaction", ctx, &models.Transaction{ID: 7, Total: 123000, Date: day(2024, 5, 1), Paid: true}).Return(true, nil)

		found, err := svc.EditTransaction(ctx, 7, models.EditTransactionForm{Total: "123000", Date: "2024-05-01", Paid: "1"})
		assert.NoError(t, err)
		assert.True(t, found)
		repo.AssertExpectations(t)
	})

	t.Run("UnknownTransaction", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		repo.On("UpdateTransaction", ctx, mock.AnythingOfType("*models.Transaction")).Return(false, nil)

		found, err := svc.EditTransaction(ctx, 404, models.EditTransactionForm{Total: "1", Date: "2024-05-01", Paid: "0"})
		assert.NoError(t, err)
		assert.False(t, found)
	})

	for _, form := range []models.EditTransactionForm{
		{Total: "abc", Date: "2024-05-01", Paid: "1"},
		{Total: "-5", Date: "2024-05-01", Paid: "1"},
		{Total: "100", Date: "05/01/2024", Paid: "1"},
		{Total: "100", Date: "2024-05-01", Paid: "yes"},
	} {
		repo := new(MockRepository)
		svc := NewDefaultService(repo)

		found, err := svc.EditTransaction(ctx, 7, form)
		assert.False(t, found)
		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertNotCalled(t, "UpdateTransaction", mock.Anything, mock.Anything)
	}
}

func TestTogglePaidAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewDefaultService(repo)

	repo.On("TogglePaid", ctx, int64(1)).Return(true, nil)
	repo.On("TogglePaid", ctx, int64(99)).Return(false, nil)
	repo.On("DeleteTransaction", ctx, int64(99)).Return(nil)

	found, err := svc.TogglePaid(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, found)

	found, err = svc.TogglePaid(ctx, 99)
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, svc.DeleteTransaction(ctx, 99))
	repo.AssertExpectations(t)
}
