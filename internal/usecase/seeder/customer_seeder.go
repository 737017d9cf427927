package seeder

import (
	"context"
	"fmt"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// CustomerSeeder provisions the customers a deployment starts with.
// Customers are owned by an external identity system; seeding only mirrors
// the identities the ledger needs to know about.
type CustomerSeeder struct {
	repo domain.CustomerRepository
}

// NewCustomerSeeder creates a new CustomerSeeder instance
func NewCustomerSeeder(repo domain.CustomerRepository) *CustomerSeeder {
	return &CustomerSeeder{
		repo: repo,
	}
}

// Seed ensures every listed customer exists.
// Existing customers are left untouched, so seeding is idempotent.
// It returns the number of customers created.
func (s *CustomerSeeder) Seed(ctx context.Context, customers []domain.Customer) (int, error) {
	created := 0
	for i := range customers {
		customer := customers[i]

		exists, err := s.repo.Exists(ctx, customer.ID)
		if err != nil {
			return created, fmt.Errorf("failed to check customer %s: %w", customer.ID, err)
		}
		if exists {
			continue
		}

		// Validate before creating
		if err := customer.Validate(); err != nil {
			return created, fmt.Errorf("invalid seed customer %s: %w", customer.ID, err)
		}

		if err := s.repo.Create(ctx, &customer); err != nil {
			return created, fmt.Errorf("failed to create customer %s: %w", customer.ID, err)
		}
		created++
	}

	return created, nil
}
