package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simaogato/ledger-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUnitOfWork(db *DB, attempts int) *UnitOfWork {
	uow := NewUnitOfWork(db, UnitOfWorkOptions{MaxAttempts: attempts, LockTimeout: 2 * time.Second})
	uow.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return uow
}

func expectLockedAccount(mock sqlmock.Sqlmock, account *domain.BankAccount) {
	mock.ExpectQuery(`SELECT id, customer_id, balance, created_at FROM bank_accounts WHERE id = \$1 FOR UPDATE`).
		WithArgs(account.ID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "balance", "created_at"}).
			AddRow(account.ID.String(), account.CustomerID.String(), account.Balance.String(), account.CreatedAt))
}

func TestUnitOfWork_CommitsAllWrites(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	uow := newTestUnitOfWork(db, 3)

	source := &domain.BankAccount{ID: domain.NewAccountID(), CustomerID: domain.NewCustomerID(), Balance: decimal.NewFromInt(100), CreatedAt: time.Now()}
	record := &domain.Transaction{ID: domain.NewTransferID(), FromAccountID: source.ID, ToAccountID: domain.NewAccountID(),
		Amount: decimal.NewFromInt(30), Description: "FROM Alice 30 TO Bob", CreatedAt: time.Now()}

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout = '2000ms'`).WillReturnResult(sqlmock.NewResult(0, 0))
	expectLockedAccount(mock, source)
	mock.ExpectExec(`UPDATE bank_accounts SET balance = \$2 WHERE id = \$1`).
		WithArgs(source.ID.String(), "70").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(record.ID.String(), record.FromAccountID.String(), record.ToAccountID.String(), "30", record.Description, record.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := uow.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		account, err := tx.GetAccountForUpdate(ctx, source.ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, account.ID, account.Balance.Sub(decimal.NewFromInt(30))); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, record)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_RollsBackOnBusinessError(t *testing.T) {
	db, mock := newMockDB(t)
	uow := newTestUnitOfWork(db, 3)
	customerID := domain.NewCustomerID()

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id, name FROM customers WHERE id = \$1`).
		WithArgs(customerID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectRollback()

	calls := 0
	err := uow.Do(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		calls++
		_, err := tx.GetCustomer(ctx, customerID)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.ErrUnknownReceiver
		}
		return err
	})

	assert.ErrorIs(t, err, domain.ErrUnknownReceiver)
	assert.Equal(t, 1, calls, "business errors are never retried")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_RetriesSerializationFailure(t *testing.T) {
	db, mock := newMockDB(t)
	uow := newTestUnitOfWork(db, 3)
	id := domain.NewAccountID()

	// First attempt conflicts
	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE bank_accounts`).WillReturnError(&pq.Error{Code: "40001"})
	mock.ExpectRollback()
	// Second attempt goes through
	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE bank_accounts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	calls := 0
	err := uow.Do(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		calls++
		return tx.UpdateBalance(ctx, id, decimal.NewFromInt(1))
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_ExhaustedRetries(t *testing.T) {
	tests := []struct {
		name    string
		code    pq.ErrorCode
		wantErr error
	}{
		{name: "Deadlocks become commit failures", code: "40P01", wantErr: domain.ErrCommitFailure},
		{name: "Row lock waits become lock timeouts", code: "55P03", wantErr: domain.ErrLockTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			uow := newTestUnitOfWork(db, 2)
			id := domain.NewAccountID()

			for i := 0; i < 2; i++ {
				mock.ExpectBegin()
				mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`FOR UPDATE`).WillReturnError(&pq.Error{Code: tt.code})
				mock.ExpectRollback()
			}

			err := uow.Do(context.Background(), func(ctx context.Context, tx domain.Tx) error {
				_, err := tx.GetAccountForUpdate(ctx, id)
				return err
			})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUnitOfWork_CommitFailure(t *testing.T) {
	db, mock := newMockDB(t)
	uow := newTestUnitOfWork(db, 3)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset by peer"))

	err := uow.Do(context.Background(), func(ctx context.Context, tx domain.Tx) error { return nil })

	assert.ErrorIs(t, err, domain.ErrCommitFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	uow := newTestUnitOfWork(db, 3)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := uow.Do(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, domain.ErrCommitFailure)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_UpdateMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUnitOfWork(db, UnitOfWorkOptions{})

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bank_accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		return tx.UpdateBalance(ctx, domain.NewAccountID(), decimal.Zero)
	})

	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
