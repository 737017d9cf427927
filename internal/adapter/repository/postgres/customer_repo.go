package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// customerRepository implements domain.CustomerRepository
type customerRepository struct {
	q queryer
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *DB) domain.CustomerRepository {
	return &customerRepository{q: db}
}

// GetByID retrieves a customer by its ID
func (r *customerRepository) GetByID(ctx context.Context, id domain.CustomerID) (*domain.Customer, error) {
	query := `
		SELECT id, name
		FROM customers
		WHERE id = $1
	`

	var customer domain.Customer
	err := r.q.QueryRowContext(ctx, query, id).Scan(&customer.ID, &customer.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %s: %w", id, domain.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get customer by ID: %w", err)
	}

	return &customer, nil
}

// Exists reports whether a customer with the given ID exists
func (r *customerRepository) Exists(ctx context.Context, id domain.CustomerID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check customer existence: %w", err)
	}

	return exists, nil
}

// Create creates a new customer
func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, name)
		VALUES ($1, $2)
	`

	if _, err := r.q.ExecContext(ctx, query, customer.ID, customer.Name); err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}
