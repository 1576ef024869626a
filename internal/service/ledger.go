package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rawatinap/billing-server/internal/models"
)

func (s *DefaultService) ListPatients(ctx context.Context) ([]models.Patient, error) {
	patients, err := s.repo.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing patients: %w", err)
	}
	return patients, nil
}

func (s *DefaultService) ListStays(ctx context.Context) ([]models.Stay, error) {
	stays, err := s.repo.ListStays(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing stays: %w", err)
	}
	return stays, nil
}

func (s *DefaultService) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	return txs, nil
}

func (s *DefaultService) ListPatientTransactions(ctx context.Context, patientID int64) ([]models.Transaction, error) {
	txs, err := s.repo.ListPatientTransactions(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions of patient %d: %w", patientID, err)
	}
	return txs, nil
}

func (s *DefaultService) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting transaction: %w", err)
	}
	return tx, nil
}

// SettleStay bills a stay as a paid transaction dated today. It returns nil
// without error when the stay does not exist. Settling the same stay twice
// creates two transactions.
func (s *DefaultService) SettleStay(ctx context.Context, stayID int64) (*models.Transaction, error) {
	stay, err := s.repo.GetStay(ctx, stayID)
	if err != nil {
		return nil, fmt.Errorf("error getting stay: %w", err)
	}
	if stay == nil {
		return nil, nil
	}

	tx := &models.Transaction{
		PatientID:   stay.PatientID,
		PatientName: stay.PatientName,
		Total:       StayTotal(stay.CheckIn, stay.CheckOut, stay.DailyRate),
		Paid:        true,
		Date:        truncateDay(s.now()),
	}

	if err := s.insertWithNextID(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("stay_id", stayID).
		Int64("transaction_id", tx.ID).
		Int64("total", tx.Total).
		Msg("stay settled")
	return tx, nil
}

// CreateManualTransaction validates the form, bills the date range at the
// room class rate and stores the transaction under the first free id.
func (s *DefaultService) CreateManualTransaction(ctx context.Context, form models.ManualTransactionForm) (*models.Transaction, error) {
	if err := s.validate.Struct(form); err != nil {
		return nil, ErrAllFieldsRequired
	}

	checkIn, err := time.Parse(DateLayout, form.CheckIn)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	checkOut, err := time.Parse(DateLayout, form.CheckOut)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	if checkOut.Before(checkIn) {
		return nil, ErrCheckoutBeforeCheckin
	}

	patient, err := s.resolvePatient(ctx, form.PatientRef)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	rate := DailyRate(form.RoomClass)
	if rate == 0 {
		s.logger.Warn().Str("room_class", form.RoomClass).Msg("unknown room class billed at zero")
	}

	tx := &models.Transaction{
		PatientID:   patient.ID,
		PatientName: patient.Name,
		Total:       StayTotal(checkIn, checkOut, rate),
		Paid:        form.Paid == "1",
		Date:        checkOut,
	}

	if err := s.insertWithNextID(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// EditTransaction replaces total, date and paid flag of a transaction. It
// reports false without error when the transaction does not exist.
func (s *DefaultService) EditTransaction(ctx context.Context, id int64, form models.EditTransactionForm) (bool, error) {
	total, err := strconv.ParseInt(strings.TrimSpace(form.Total), 10, 64)
	if err != nil || total < 0 {
		return false, ErrInvalidInput
	}
	date, err := time.Parse(DateLayout, strings.TrimSpace(form.Date))
	if err != nil {
		return false, ErrInvalidInput
	}
	if form.Paid != "0" && form.Paid != "1" {
		return false, ErrInvalidInput
	}

	tx := &models.Transaction{
		ID:    id,
		Total: total,
		Date:  date,
		Paid:  form.Paid == "1",
	}
	found, err := s.repo.UpdateTransaction(ctx, tx)
	if err != nil {
		return false, fmt.Errorf("error updating transaction: %w", err)
	}
	return found, nil
}

// TogglePaid flips the paid flag; it reports false when id does not exist
func (s *DefaultService) TogglePaid(ctx context.Context, id int64) (bool, error) {
	found, err := s.repo.TogglePaid(ctx, id)
	if err != nil {
		return false, fmt.Errorf("error toggling paid flag: %w", err)
	}
	return found, nil
}

func (s *DefaultService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("error deleting transaction: %w", err)
	}
	return nil
}

// insertWithNextID allocates the first free transaction id and inserts tx
// under it.
func (s *DefaultService) insertWithNextID(ctx context.Context, tx *models.Transaction) error {
	s.allocMu.Lock()
	defer s.allocMu.Unlock()

	ids, err := s.repo.ListTransactionIDs(ctx)
	if err != nil {
		return fmt.Errorf("error listing transaction ids: %w", err)
	}
	tx.ID = NextGapID(ids)

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("error creating transaction %d: %w", tx.ID, err)
	}
	return nil
}

// resolvePatient looks a patient up by numeric id first, then by name
func (s *DefaultService) resolvePatient(ctx context.Context, ref string) (*models.Patient, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		patient, err := s.repo.GetPatient(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("error getting patient: %w", err)
		}
		if patient != nil {
			return patient, nil
		}
	}

	patient, err := s.repo.FindPatientByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("error finding patient: %w", err)
	}
	return patient, nil
}
