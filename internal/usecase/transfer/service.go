package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/ledger-backend/internal/domain"
)

// TransferInput represents the input for moving funds between two accounts
type TransferInput struct {
	FromAccountID  domain.AccountID
	ToAccountID    domain.AccountID
	Amount         decimal.Decimal
	FromCustomerID domain.CustomerID
	ToCustomerID   domain.CustomerID
}

// TransferResult is the committed outcome of a transfer
type TransferResult struct {
	Transaction        *domain.Transaction
	SourceBalance      decimal.Decimal
	DestinationBalance decimal.Decimal
}

// TransferService moves funds between accounts atomically
type TransferService struct {
	UnitOfWork domain.UnitOfWork
	Locker     domain.AccountLocker

	// Now stamps ledger entries; defaults to time.Now
	Now func() time.Time
}

// NewTransferService creates a new TransferService instance
func NewTransferService(uow domain.UnitOfWork, locker domain.AccountLocker) *TransferService {
	return &TransferService{
		UnitOfWork: uow,
		Locker:     locker,
		Now:        time.Now,
	}
}

// Transfer validates the request and moves the funds
// Logic:
//  1. Reject negative amounts before touching any state
//  2. Lock both accounts in ascending id order (bounded wait)
//  3. Inside one atomic unit:
//     - run the identity and ownership checks against fresh reads
//     - re-check the source balance covers the amount
//     - debit the source, credit the destination
//     - append the ledger entry
//  4. Commit, release the locks and report both new balances
//
// On any failure nothing is visible: no balance changes and no ledger entry.
func (s *TransferService) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	// 1. Stateless validation
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}

	// 2. Ordered locks
	release, err := s.Locker.Lock(ctx, input.FromAccountID, input.ToAccountID)
	if err != nil {
		return nil, err
	}
	defer release()

	// 3. Atomic unit. The closure may run more than once when the store
	// retries a conflicting commit, so it keeps no state across runs.
	var result *TransferResult
	err = s.UnitOfWork.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		st, err := runIdentityChecks(ctx, tx, input)
		if err != nil {
			return err
		}

		if err := st.source.Debit(input.Amount); err != nil {
			return err
		}
		if err := st.destination.Credit(input.Amount); err != nil {
			return err
		}

		if err := tx.UpdateBalance(ctx, st.source.ID, st.source.Balance); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, st.destination.ID, st.destination.Balance); err != nil {
			return err
		}

		record := domain.NewTransaction(st.source, st.destination, st.sender, st.receiver, input.Amount, s.now())
		if err := record.Validate(); err != nil {
			return err
		}
		if err := tx.AppendTransaction(ctx, record); err != nil {
			return err
		}

		result = &TransferResult{
			Transaction:        record,
			SourceBalance:      st.source.Balance,
			DestinationBalance: st.destination.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, err)
	}

	// 4. Committed
	return result, nil
}

// classify keeps the ledger's failure kinds intact and folds everything
// else into ErrCommitFailure.
func (s *TransferService) classify(ctx context.Context, err error) error {
	if domain.IsBusinessError(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", domain.ErrCommitFailure, err)
}

func (s *TransferService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
