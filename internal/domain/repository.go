package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CustomerRepository defines the interface for customer persistence operations
type CustomerRepository interface {
	// GetByID retrieves a customer by its ID
	// Returns ErrRecordNotFound if the customer does not exist
	GetByID(ctx context.Context, id CustomerID) (*Customer, error)

	// Exists reports whether a customer with the given ID exists
	Exists(ctx context.Context, id CustomerID) (bool, error)

	// Create creates a new customer
	Create(ctx context.Context, customer *Customer) error
}

// AccountRepository defines the interface for bank account persistence operations
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	// Returns ErrRecordNotFound if the account does not exist
	GetByID(ctx context.Context, id AccountID) (*BankAccount, error)

	// Create creates a new account
	Create(ctx context.Context, account *BankAccount) error

	// ListByCustomer retrieves the accounts owned by a customer, oldest first
	ListByCustomer(ctx context.Context, customerID CustomerID) ([]*BankAccount, error)
}

// TransactionRepository defines the read side of the ledger.
// Entries are only ever appended through Tx.AppendTransaction.
type TransactionRepository interface {
	// GetByID retrieves a ledger entry by its ID
	// Returns ErrRecordNotFound if the entry does not exist
	GetByID(ctx context.Context, id TransferID) (*Transaction, error)

	// ListByCustomer retrieves every entry whose source or destination
	// account the customer owns, in ascending creation order
	ListByCustomer(ctx context.Context, customerID CustomerID) ([]*Transaction, error)
}

// Tx is the view of the stores available inside an atomic unit.
// Reads observe the state at or after the start of the unit; writes become
// visible together when the unit commits, or not at all.
type Tx interface {
	// GetCustomer retrieves a customer by its ID
	// Returns ErrRecordNotFound if the customer does not exist
	GetCustomer(ctx context.Context, id CustomerID) (*Customer, error)

	// GetAccountForUpdate retrieves an account and holds exclusive mutation
	// rights on it until the unit ends
	// Returns ErrRecordNotFound if the account does not exist
	GetAccountForUpdate(ctx context.Context, id AccountID) (*BankAccount, error)

	// UpdateBalance stages a new balance for an account read with GetAccountForUpdate
	UpdateBalance(ctx context.Context, id AccountID, balance decimal.Decimal) error

	// AppendTransaction stages a new ledger entry
	AppendTransaction(ctx context.Context, tx *Transaction) error
}

// UnitOfWork runs a function as one atomic unit over the identity and ledger stores.
// If fn returns an error nothing it staged is applied. A failed commit is
// reported as ErrCommitFailure.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// AccountLocker grants exclusive mutation rights over a set of accounts.
// Locks are taken in LockOrder and bounded by the implementation's timeout;
// running out of time yields ErrLockTimeout. The returned release function
// is safe to call more than once.
type AccountLocker interface {
	Lock(ctx context.Context, ids ...AccountID) (release func(), err error)
}
