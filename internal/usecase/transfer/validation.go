package transfer

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/simaogato/ledger-backend/internal/domain"
)

// validationState carries what the pipeline resolved so far.
// The engine uses the resolved records once every check has passed.
type validationState struct {
	input TransferInput
	// locked holds the account rows fetched for update, keyed by id
	locked      map[domain.AccountID]*domain.BankAccount
	sender      *domain.Customer
	receiver    *domain.Customer
	source      *domain.BankAccount
	destination *domain.BankAccount
}

// check is one step of the pipeline. Steps run in order and the first
// failure stops the pipeline.
type check func(ctx context.Context, tx domain.Tx, st *validationState) error

// identityChecks run inside the atomic unit, after the account locks are held,
// so every lookup observes the state the engine is about to mutate.
var identityChecks = []check{
	checkReceiverExists,
	checkSenderExists,
	resolveDestinationAccount,
	resolveSourceAccount,
	checkSenderOwnsSource,
	checkReceiverOwnsDestination,
	checkDistinctAccounts,
}

// validateAmount is the first, stateless step of the pipeline.
// Amounts the store cannot hold exactly are rejected like negative ones.
func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() || !domain.IsRepresentable(amount) {
		return domain.ErrInvalidAmount
	}
	return nil
}

// runIdentityChecks runs the stateful steps of the pipeline in their fixed order.
// Both account rows are locked first, in ascending id order, so concurrent
// units never wait on each other in opposite directions. Missing rows are
// reported later by the account steps.
func runIdentityChecks(ctx context.Context, tx domain.Tx, input TransferInput) (*validationState, error) {
	st := &validationState{input: input}
	if err := lockAccountRows(ctx, tx, st); err != nil {
		return nil, err
	}
	for _, c := range identityChecks {
		if err := c(ctx, tx, st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func checkReceiverExists(ctx context.Context, tx domain.Tx, st *validationState) error {
	receiver, found, err := lookupCustomer(ctx, tx, st.input.ToCustomerID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrUnknownReceiver
	}
	st.receiver = receiver
	return nil
}

func checkSenderExists(ctx context.Context, tx domain.Tx, st *validationState) error {
	sender, found, err := lookupCustomer(ctx, tx, st.input.FromCustomerID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrUnknownSender
	}
	st.sender = sender
	return nil
}

func lockAccountRows(ctx context.Context, tx domain.Tx, st *validationState) error {
	st.locked = make(map[domain.AccountID]*domain.BankAccount, 2)
	for _, id := range domain.LockOrder(st.input.FromAccountID, st.input.ToAccountID) {
		account, found, err := lookupAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if found {
			st.locked[id] = account
		}
	}
	return nil
}

func resolveDestinationAccount(_ context.Context, _ domain.Tx, st *validationState) error {
	account, ok := st.locked[st.input.ToAccountID]
	if !ok {
		return domain.ErrUnknownAccount
	}
	st.destination = account
	return nil
}

func resolveSourceAccount(_ context.Context, _ domain.Tx, st *validationState) error {
	account, ok := st.locked[st.input.FromAccountID]
	if !ok {
		return domain.ErrUnknownAccount
	}
	st.source = account
	return nil
}

func checkSenderOwnsSource(_ context.Context, _ domain.Tx, st *validationState) error {
	if !st.source.OwnedBy(st.input.FromCustomerID) {
		return domain.ErrSenderNotOwner
	}
	return nil
}

func checkReceiverOwnsDestination(_ context.Context, _ domain.Tx, st *validationState) error {
	if !st.destination.OwnedBy(st.input.ToCustomerID) {
		return domain.ErrReceiverNotOwner
	}
	return nil
}

func checkDistinctAccounts(_ context.Context, _ domain.Tx, st *validationState) error {
	if st.source.ID == st.destination.ID {
		return domain.ErrSameAccount
	}
	return nil
}

// lookupCustomer is an awaited existence check: found is false only when
// the store positively reports the customer as absent.
func lookupCustomer(ctx context.Context, tx domain.Tx, id domain.CustomerID) (*domain.Customer, bool, error) {
	customer, err := tx.GetCustomer(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return customer, true, nil
}

func lookupAccount(ctx context.Context, tx domain.Tx, id domain.AccountID) (*domain.BankAccount, bool, error) {
	account, err := tx.GetAccountForUpdate(ctx, id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}
