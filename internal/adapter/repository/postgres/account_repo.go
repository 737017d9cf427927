package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simaogato/ledger-backend/internal/domain"
)

const accountColumns = `id, customer_id, balance, created_at`

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	q queryer
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{q: db}
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(ctx context.Context, id domain.AccountID) (*domain.BankAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM bank_accounts
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

// getForUpdate retrieves an account and row-locks it until the enclosing transaction ends
func (r *accountRepository) getForUpdate(ctx context.Context, id domain.AccountID) (*domain.BankAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM bank_accounts
		WHERE id = $1
		FOR UPDATE
	`
	return r.getOne(ctx, query, id)
}

func (r *accountRepository) getOne(ctx context.Context, query string, id domain.AccountID) (*domain.BankAccount, error) {
	account, err := scanAccount(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bank account %s: %w", id, domain.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get bank account by ID: %w", err)
	}
	return account, nil
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (id, customer_id, balance, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		account.ID,
		account.CustomerID,
		account.Balance.String(),
		account.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("customer %s: %w", account.CustomerID, domain.ErrRecordNotFound)
		}
		return fmt.Errorf("failed to create bank account: %w", err)
	}

	return nil
}

// ListByCustomer retrieves the accounts owned by a customer, oldest first
func (r *accountRepository) ListByCustomer(ctx context.Context, customerID domain.CustomerID) ([]*domain.BankAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM bank_accounts
		WHERE customer_id = $1
		ORDER BY created_at ASC, seq ASC
	`

	rows, err := r.q.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.BankAccount, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank accounts: %w", err)
	}

	return accounts, nil
}

// updateBalance overwrites the balance of a row locked by getForUpdate
func (r *accountRepository) updateBalance(ctx context.Context, id domain.AccountID, balance decimal.Decimal) error {
	query := `
		UPDATE bank_accounts
		SET balance = $2
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, id, balance.String())
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("bank account %s: %w", id, domain.ErrRecordNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*domain.BankAccount, error) {
	var account domain.BankAccount
	var balanceStr string

	if err := row.Scan(&account.ID, &account.CustomerID, &balanceStr, &account.CreatedAt); err != nil {
		return nil, err
	}

	// Parse balance (NUMERIC)
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	account.Balance = balance

	return &account, nil
}
