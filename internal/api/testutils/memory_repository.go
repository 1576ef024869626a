package testutils

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rawatinap/billing-server/internal/models"
	"github.com/rawatinap/billing-server/internal/repository"
)

// MemoryRepository is an in-memory repository.Repository for API tests
type MemoryRepository struct {
	mu           sync.Mutex
	users        []models.User
	patients     []models.Patient
	stays        []models.Stay
	transactions map[int64]models.Transaction

	// Err, when set, is returned by every operation
	Err error
}

var _ repository.Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{transactions: make(map[int64]models.Transaction)}
}

// AddPatient stores a patient, assigning the next id
func (r *MemoryRepository) AddPatient(name, address, contact string) models.Patient {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := models.Patient{ID: int64(len(r.patients) + 1), Name: name, Address: address, Contact: contact}
	r.patients = append(r.patients, p)
	return p
}

// AddStay stores a stay of patientID in a room of the given class and rate
func (r *MemoryRepository) AddStay(patientID int64, class string, rate int64, checkIn, checkOut time.Time) models.Stay {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := models.Stay{
		ID:        int64(len(r.stays) + 1),
		PatientID: patientID,
		RoomID:    int64(len(r.stays) + 1),
		RoomClass: class,
		DailyRate: rate,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
	}
	if p := r.patient(patientID); p != nil {
		s.PatientName = p.Name
	}
	r.stays = append(r.stays, s)
	return s
}

// PutTransaction stores tx as is, replacing any transaction with its id
func (r *MemoryRepository) PutTransaction(tx models.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions[tx.ID] = tx
}

// RemoveUser deletes the account with the given username
func (r *MemoryRepository) RemoveUser(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.users[:0]
	for _, u := range r.users {
		if u.Username != username {
			kept = append(kept, u)
		}
	}
	r.users = kept
}

// TransactionCount returns the number of stored transactions
func (r *MemoryRepository) TransactionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transactions)
}

func (r *MemoryRepository) patient(id int64) *models.Patient {
	for i := range r.patients {
		if r.patients[i].ID == id {
			p := r.patients[i]
			return &p
		}
	}
	return nil
}

func (r *MemoryRepository) withName(tx models.Transaction) models.Transaction {
	if p := r.patient(tx.PatientID); p != nil {
		tx.PatientName = p.Name
	}
	return tx
}

func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = int64(len(r.users) + 1)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.users = append(r.users, *user)
	return nil
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	for _, u := range r.users {
		if u.Username == usernameOrEmail || u.Email == usernameOrEmail {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	for _, u := range r.users {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListPatients(ctx context.Context) ([]models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return append([]models.Patient(nil), r.patients...), nil
}

func (r *MemoryRepository) GetPatient(ctx context.Context, id int64) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.patient(id), nil
}

func (r *MemoryRepository) FindPatientByName(ctx context.Context, name string) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	for _, p := range r.patients {
		if strings.EqualFold(p.Name, name) {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListStays(ctx context.Context) ([]models.Stay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return append([]models.Stay(nil), r.stays...), nil
}

func (r *MemoryRepository) GetStay(ctx context.Context, stayID int64) (*models.Stay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	for _, s := range r.stays {
		if s.ID == stayID {
			stay := s
			return &stay, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) sortedTransactions(keep func(models.Transaction) bool) []models.Transaction {
	var txs []models.Transaction
	for _, tx := range r.transactions {
		if keep(tx) {
			txs = append(txs, r.withName(tx))
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID > txs[j].ID })
	return txs
}

func (r *MemoryRepository) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.sortedTransactions(func(models.Transaction) bool { return true }), nil
}

func (r *MemoryRepository) ListPatientTransactions(ctx context.Context, patientID int64) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.sortedTransactions(func(tx models.Transaction) bool { return tx.PatientID == patientID }), nil
}

func (r *MemoryRepository) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	tx, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	tx = r.withName(tx)
	return &tx, nil
}

func (r *MemoryRepository) ListTransactionIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	ids := make([]int64, 0, len(r.transactions))
	for id := range r.transactions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *MemoryRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	if _, exists := r.transactions[tx.ID]; exists {
		return repository.ErrDuplicate
	}
	stored := *tx
	stored.PatientName = ""
	r.transactions[tx.ID] = stored
	return nil
}

func (r *MemoryRepository) UpdateTransaction(ctx context.Context, tx *models.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}

	stored, ok := r.transactions[tx.ID]
	if !ok {
		return false, nil
	}
	stored.Total = tx.Total
	stored.Date = tx.Date
	stored.Paid = tx.Paid
	r.transactions[tx.ID] = stored
	return true, nil
}

func (r *MemoryRepository) TogglePaid(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}

	stored, ok := r.transactions[id]
	if !ok {
		return false, nil
	}
	stored.Paid = !stored.Paid
	r.transactions[id] = stored
	return true, nil
}

func (r *MemoryRepository) DeleteTransaction(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	delete(r.transactions, id)
	return nil
}
