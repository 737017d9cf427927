package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simaogato/ledger-backend/internal/domain"
)

// PostgreSQL error codes a unit may be retried on
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// UnitOfWorkOptions tunes retries and row-lock waits
type UnitOfWorkOptions struct {
	// MaxAttempts bounds how often a conflicting unit is run; minimum 1
	MaxAttempts int
	// LockTimeout bounds each row-lock wait inside the unit; zero keeps the server default
	LockTimeout time.Duration
}

// UnitOfWork implements domain.UnitOfWork on top of a database transaction
type UnitOfWork struct {
	db          *DB
	maxAttempts int
	lockTimeout time.Duration
	newBackOff  func() backoff.BackOff
}

// NewUnitOfWork creates a new UnitOfWork
func NewUnitOfWork(db *DB, opts UnitOfWorkOptions) *UnitOfWork {
	return &UnitOfWork{
		db:          db,
		maxAttempts: max(opts.MaxAttempts, 1),
		lockTimeout: opts.LockTimeout,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 10 * time.Millisecond
			b.MaxInterval = 250 * time.Millisecond
			return b
		},
	}
}

// Do runs fn inside one database transaction.
// Serialization failures, deadlocks and lock timeouts roll the unit back and
// run it again from scratch, up to MaxAttempts times.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(u.newBackOff(), uint64(u.maxAttempts-1)), ctx)

	err := backoff.Retry(func() error {
		err := u.runOnce(ctx, fn)
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	if err == nil {
		return nil
	}

	switch {
	case hasCode(err, codeLockNotAvailable):
		return fmt.Errorf("%w: %w", domain.ErrLockTimeout, err)
	case isRetryable(err):
		return fmt.Errorf("%w: %w", domain.ErrCommitFailure, err)
	default:
		return err
	}
}

func (u *UnitOfWork) runOnce(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	dbTx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", domain.ErrCommitFailure, err)
	}
	defer dbTx.Rollback()

	if u.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
		if _, err := dbTx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	if err := fn(ctx, newUnit(dbTx)); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		if isRetryable(err) {
			return err
		}
		return fmt.Errorf("%w: failed to commit transaction: %w", domain.ErrCommitFailure, err)
	}

	return nil
}

// unit implements domain.Tx with repositories bound to one *sql.Tx
type unit struct {
	customers *customerRepository
	accounts  *accountRepository
	ledger    *transactionRepository
}

func newUnit(tx *sql.Tx) *unit {
	return &unit{
		customers: &customerRepository{q: tx},
		accounts:  &accountRepository{q: tx},
		ledger:    &transactionRepository{q: tx},
	}
}

func (u *unit) GetCustomer(ctx context.Context, id domain.CustomerID) (*domain.Customer, error) {
	return u.customers.GetByID(ctx, id)
}

func (u *unit) GetAccountForUpdate(ctx context.Context, id domain.AccountID) (*domain.BankAccount, error) {
	return u.accounts.getForUpdate(ctx, id)
}

func (u *unit) UpdateBalance(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error {
	return u.accounts.updateBalance(ctx, id, balance)
}

func (u *unit) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	return u.ledger.insert(ctx, tx)
}

func isRetryable(err error) bool {
	return hasCode(err, codeSerializationFailure) ||
		hasCode(err, codeDeadlockDetected) ||
		hasCode(err, codeLockNotAvailable)
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
