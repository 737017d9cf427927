// Package memory provides process-local implementations of the ledger
// repositories. It backs tests and STORAGE_DRIVER=memory deployments.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/simaogato/ledger-backend/internal/domain"
)

var errConcurrentUpdate = errors.New("account modified by a concurrent unit")

type accountRecord struct {
	account domain.BankAccount
	seq     int64
	version int64
}

// Store holds customers, accounts and the ledger in memory.
// All committed state is guarded by mu; units stage their writes and apply
// them in one critical section.
type Store struct {
	mu        sync.RWMutex
	customers map[domain.CustomerID]domain.Customer
	accounts  map[domain.AccountID]*accountRecord
	ledger    []domain.Transaction
	ledgerIdx map[domain.TransferID]int
	nextSeq   int64
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		customers: make(map[domain.CustomerID]domain.Customer),
		accounts:  make(map[domain.AccountID]*accountRecord),
		ledgerIdx: make(map[domain.TransferID]int),
	}
}

// Customers returns the customer repository view of the store
func (s *Store) Customers() domain.CustomerRepository { return &customerRepository{s: s} }

// Accounts returns the account repository view of the store
func (s *Store) Accounts() domain.AccountRepository { return &accountRepository{s: s} }

// Transactions returns the ledger repository view of the store
func (s *Store) Transactions() domain.TransactionRepository { return &transactionRepository{s: s} }

// Do runs fn as one atomic unit
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &unit{
		s:        s,
		read:     make(map[domain.AccountID]int64),
		balances: make(map[domain.AccountID]decimal.Decimal),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	// Cancellation before commit discards the staged writes
	if err := ctx.Err(); err != nil {
		return err
	}

	return tx.commit()
}

// customerRepository implements domain.CustomerRepository
type customerRepository struct {
	s *Store
}

// GetByID retrieves a customer by its ID
func (r *customerRepository) GetByID(_ context.Context, id domain.CustomerID) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.customer(id)
}

// Exists reports whether the customer exists
func (r *customerRepository) Exists(_ context.Context, id domain.CustomerID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.customers[id]
	return ok, nil
}

// Create creates a new customer
func (r *customerRepository) Create(_ context.Context, customer *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[customer.ID]; ok {
		return fmt.Errorf("customer %s already exists", customer.ID)
	}
	r.s.customers[customer.ID] = *customer
	return nil
}

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	s *Store
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(_ context.Context, id domain.AccountID) (*domain.BankAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("bank account %s: %w", id, domain.ErrRecordNotFound)
	}
	account := rec.account
	return &account, nil
}

// Create creates a new account
func (r *accountRepository) Create(_ context.Context, account *domain.BankAccount) error {
	if err := account.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[account.CustomerID]; !ok {
		return fmt.Errorf("customer %s: %w", account.CustomerID, domain.ErrRecordNotFound)
	}
	if _, ok := r.s.accounts[account.ID]; ok {
		return fmt.Errorf("bank account %s already exists", account.ID)
	}
	r.s.nextSeq++
	r.s.accounts[account.ID] = &accountRecord{account: *account, seq: r.s.nextSeq}
	return nil
}

// ListByCustomer retrieves the accounts owned by a customer, oldest first
func (r *accountRepository) ListByCustomer(_ context.Context, customerID domain.CustomerID) ([]*domain.BankAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	recs := make([]*accountRecord, 0)
	for _, rec := range r.s.accounts {
		if rec.account.CustomerID == customerID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].account.CreatedAt.Equal(recs[j].account.CreatedAt) {
			return recs[i].account.CreatedAt.Before(recs[j].account.CreatedAt)
		}
		return recs[i].seq < recs[j].seq
	})

	accounts := make([]*domain.BankAccount, 0, len(recs))
	for _, rec := range recs {
		account := rec.account
		accounts = append(accounts, &account)
	}
	return accounts, nil
}

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	s *Store
}

// GetByID retrieves a ledger entry by its ID
func (r *transactionRepository) GetByID(_ context.Context, id domain.TransferID) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	idx, ok := r.s.ledgerIdx[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrRecordNotFound)
	}
	tx := r.s.ledger[idx]
	return &tx, nil
}

// ListByCustomer retrieves every entry touching an account the customer owns.
// The ledger slice is kept in commit order, so a stable sort by creation
// time breaks ties by insertion.
func (r *transactionRepository) ListByCustomer(_ context.Context, customerID domain.CustomerID) ([]*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	owned := make(map[domain.AccountID]struct{})
	for id, rec := range r.s.accounts {
		if rec.account.CustomerID == customerID {
			owned[id] = struct{}{}
		}
	}

	history := make([]*domain.Transaction, 0)
	for i := range r.s.ledger {
		if r.s.ledger[i].Involves(owned) {
			tx := r.s.ledger[i]
			history = append(history, &tx)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})
	return history, nil
}

func (s *Store) customer(id domain.CustomerID) (*domain.Customer, error) {
	customer, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, domain.ErrRecordNotFound)
	}
	return &customer, nil
}

// unit implements domain.Tx for one call to Store.Do
type unit struct {
	s        *Store
	read     map[domain.AccountID]int64 // version observed at read time
	balances map[domain.AccountID]decimal.Decimal
	ledger   []domain.Transaction
}

func (u *unit) GetCustomer(_ context.Context, id domain.CustomerID) (*domain.Customer, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	return u.s.customer(id)
}

func (u *unit) GetAccountForUpdate(_ context.Context, id domain.AccountID) (*domain.BankAccount, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	rec, ok := u.s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("bank account %s: %w", id, domain.ErrRecordNotFound)
	}
	if _, seen := u.read[id]; !seen {
		u.read[id] = rec.version
	}

	account := rec.account
	if staged, ok := u.balances[id]; ok {
		account.Balance = staged
	}
	return &account, nil
}

func (u *unit) UpdateBalance(_ context.Context, id domain.AccountID, balance decimal.Decimal) error {
	if _, ok := u.read[id]; !ok {
		return fmt.Errorf("bank account %s must be read for update before it is written", id)
	}
	u.balances[id] = balance
	return nil
}

func (u *unit) AppendTransaction(_ context.Context, tx *domain.Transaction) error {
	u.ledger = append(u.ledger, *tx)
	return nil
}

// commit applies the staged writes or nothing at all
func (u *unit) commit() error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for id, version := range u.read {
		rec, ok := u.s.accounts[id]
		if !ok {
			return fmt.Errorf("%w: bank account %s disappeared", domain.ErrCommitFailure, id)
		}
		if rec.version != version {
			return fmt.Errorf("%w: %w", domain.ErrCommitFailure, errConcurrentUpdate)
		}
	}
	for id, balance := range u.balances {
		if balance.IsNegative() {
			return fmt.Errorf("%w: bank account %s balance would become negative", domain.ErrCommitFailure, id)
		}
	}
	for _, tx := range u.ledger {
		if _, dup := u.s.ledgerIdx[tx.ID]; dup {
			return fmt.Errorf("%w: transaction %s already recorded", domain.ErrCommitFailure, tx.ID)
		}
	}

	for id, balance := range u.balances {
		rec := u.s.accounts[id]
		rec.account.Balance = balance
		rec.version++
	}
	for _, tx := range u.ledger {
		u.s.ledgerIdx[tx.ID] = len(u.s.ledger)
		u.s.ledger = append(u.s.ledger, tx)
	}
	return nil
}
