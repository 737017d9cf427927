package query

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/simaogato/ledger-backend/internal/domain"
)

// AccountBalance is one line of a customer's balance report
type AccountBalance struct {
	AccountID domain.AccountID
	Balance   decimal.Decimal
}

// QueryService answers read-only questions about a customer's money.
// It reads committed state only and never takes account locks.
type QueryService struct {
	CustomerRepo    domain.CustomerRepository
	AccountRepo     domain.AccountRepository
	TransactionRepo domain.TransactionRepository
}

// NewQueryService creates a new QueryService instance
func NewQueryService(
	customerRepo domain.CustomerRepository,
	accountRepo domain.AccountRepository,
	transactionRepo domain.TransactionRepository,
) *QueryService {
	return &QueryService{
		CustomerRepo:    customerRepo,
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
	}
}

// GetBalances lists the balance of every account the customer owns.
// A known customer with no accounts gets an empty list, not an error.
func (s *QueryService) GetBalances(ctx context.Context, customerID domain.CustomerID) ([]AccountBalance, error) {
	if err := s.ensureCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	accounts, err := s.AccountRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	balances := make([]AccountBalance, 0, len(accounts))
	for _, account := range accounts {
		balances = append(balances, AccountBalance{
			AccountID: account.ID,
			Balance:   account.Balance,
		})
	}

	return balances, nil
}

// GetHistory returns every ledger entry into or out of the customer's
// accounts, oldest first.
func (s *QueryService) GetHistory(ctx context.Context, customerID domain.CustomerID) ([]*domain.Transaction, error) {
	if err := s.ensureCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	history, err := s.TransactionRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*domain.Transaction{}
	}

	return history, nil
}

func (s *QueryService) ensureCustomer(ctx context.Context, customerID domain.CustomerID) error {
	exists, err := s.CustomerRepo.Exists(ctx, customerID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUnknownCustomer
	}
	return nil
}
