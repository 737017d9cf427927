package account

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/ledger-backend/internal/domain"
)

// CreateAccountInput represents the input for opening a bank account
type CreateAccountInput struct {
	CustomerID     domain.CustomerID
	InitialDeposit decimal.Decimal
}

// AccountService handles the account lifecycle
type AccountService struct {
	CustomerRepo domain.CustomerRepository
	AccountRepo  domain.AccountRepository

	// Now stamps new accounts; defaults to time.Now
	Now func() time.Time
}

// NewAccountService creates a new AccountService instance
func NewAccountService(customerRepo domain.CustomerRepository, accountRepo domain.AccountRepository) *AccountService {
	return &AccountService{
		CustomerRepo: customerRepo,
		AccountRepo:  accountRepo,
		Now:          time.Now,
	}
}

// CreateAccount opens a new account for an existing customer
// Logic:
//  1. Confirm the customer exists
//  2. Reject negative deposits
//  3. Persist the account with balance = initial deposit
//
// A customer may own any number of accounts.
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.BankAccount, error) {
	// 1. Customer must exist
	if err := s.EnsureCustomer(ctx, input.CustomerID); err != nil {
		return nil, err
	}

	// 2. Deposit must be non-negative
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	account, err := domain.NewBankAccount(input.CustomerID, input.InitialDeposit, now().UTC())
	if err != nil {
		return nil, err
	}

	// 3. Persist
	if err := s.AccountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// EnsureCustomer returns domain.ErrUnknownCustomer unless customerID is on record
func (s *AccountService) EnsureCustomer(ctx context.Context, customerID domain.CustomerID) error {
	exists, err := s.CustomerRepo.Exists(ctx, customerID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUnknownCustomer
	}
	return nil
}
