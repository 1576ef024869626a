package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rawatinap/billing-server/internal/models"
)

// ErrDuplicate is returned when an insert violates a unique constraint
var ErrDuplicate = errors.New("duplicate key")

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// Patient and stay operations
	ListPatients(ctx context.Context) ([]models.Patient, error)
	GetPatient(ctx context.Context, id int64) (*models.Patient, error)
	FindPatientByName(ctx context.Context, name string) (*models.Patient, error)
	ListStays(ctx context.Context) ([]models.Stay, error)
	GetStay(ctx context.Context, stayID int64) (*models.Stay, error)

	// Transaction operations
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ListPatientTransactions(ctx context.Context, patientID int64) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	ListTransactionIDs(ctx context.Context) ([]int64, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	UpdateTransaction(ctx context.Context, tx *models.Transaction) (bool, error)
	TogglePaid(ctx context.Context, id int64) (bool, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.Password, user.CreatedAt).Scan(&user.ID)

	return translateError(err)
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	query := `SELECT * FROM users WHERE username = $1 OR email = $1 LIMIT 1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, usernameOrEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

// Patient repository methods
func (r *PostgresRepository) ListPatients(ctx context.Context) ([]models.Patient, error) {
	query := `SELECT id, name, address, contact FROM patients ORDER BY id`

	var patients []models.Patient
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, err
	}

	return patients, nil
}

func (r *PostgresRepository) GetPatient(ctx context.Context, id int64) (*models.Patient, error) {
	query := `SELECT id, name, address, contact FROM patients WHERE id = $1`

	var patient models.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &patient, nil
}

func (r *PostgresRepository) FindPatientByName(ctx context.Context, name string) (*models.Patient, error) {
	query := `SELECT id, name, address, contact FROM patients WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`

	var patient models.Patient
	err := r.db.GetContext(ctx, &patient, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &patient, nil
}

const staySelect = `
	SELECT s.id, s.patient_id, p.name AS patient_name, s.room_id,
		k.class AS room_class, k.daily_rate, s.check_in, s.check_out
	FROM stays s
	JOIN rooms k ON s.room_id = k.id
	JOIN patients p ON s.patient_id = p.id
`

func (r *PostgresRepository) ListStays(ctx context.Context) ([]models.Stay, error) {
	var stays []models.Stay
	if err := r.db.SelectContext(ctx, &stays, staySelect+` ORDER BY s.id DESC`); err != nil {
		return nil, err
	}

	return stays, nil
}

func (r *PostgresRepository) GetStay(ctx context.Context, stayID int64) (*models.Stay, error) {
	var stay models.Stay
	err := r.db.GetContext(ctx, &stay, staySelect+` WHERE s.id = $1`, stayID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Stay not found
		}
		return nil, err
	}

	return &stay, nil
}

// Transaction repository methods
const transactionSelect = `
	SELECT t.id, t.patient_id, p.name AS patient_name, t.total, t.paid, t.date
	FROM transactions t
	JOIN patients p ON t.patient_id = p.id
`

func (r *PostgresRepository) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.db.SelectContext(ctx, &txs, transactionSelect+` ORDER BY t.id DESC`); err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *PostgresRepository) ListPatientTransactions(ctx context.Context, patientID int64) ([]models.Transaction, error) {
	query := transactionSelect + ` WHERE t.patient_id = $1 ORDER BY t.id DESC`

	var txs []models.Transaction
	if err := r.db.SelectContext(ctx, &txs, query, patientID); err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *PostgresRepository) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.GetContext(ctx, &tx, transactionSelect+` WHERE t.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Transaction not found
		}
		return nil, err
	}

	return &tx, nil
}

func (r *PostgresRepository) ListTransactionIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM transactions ORDER BY id`); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, patient_id, total, paid, date)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, tx.ID, tx.PatientID, tx.Total, tx.Paid, tx.Date)

	return translateError(err)
}

// UpdateTransaction stores total, date and paid flag and reports whether the
// transaction exists
func (r *PostgresRepository) UpdateTransaction(ctx context.Context, tx *models.Transaction) (bool, error) {
	query := `UPDATE transactions SET total = $1, date = $2, paid = $3 WHERE id = $4`

	res, err := r.db.ExecContext(ctx, query, tx.Total, tx.Date, tx.Paid, tx.ID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// TogglePaid flips the paid flag and reports whether the transaction exists
func (r *PostgresRepository) TogglePaid(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET paid = NOT paid WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *PostgresRepository) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	return err
}

// translateError maps unique violations to ErrDuplicate
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrDuplicate
	}
	return err
}
