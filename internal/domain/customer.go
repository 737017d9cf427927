package domain

import (
	"errors"
	"strings"
)

// Customer is an identity that owns bank accounts.
// Customers are provisioned outside the ledger and never deleted while
// they own accounts.
type Customer struct {
	ID   CustomerID
	Name string
}

// Validate ensures the customer adheres to domain rules
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("customer name cannot be empty")
	}
	return nil
}
