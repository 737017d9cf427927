package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount is a balance record owned by exactly one customer.
// Balance is never negative after a committed mutation.
type BankAccount struct {
	ID         AccountID
	CustomerID CustomerID
	Balance    decimal.Decimal
	CreatedAt  time.Time
}

// NewBankAccount opens an account for a customer with the given initial deposit
func NewBankAccount(customerID CustomerID, initialDeposit decimal.Decimal, now time.Time) (*BankAccount, error) {
	if initialDeposit.IsNegative() || !IsRepresentable(initialDeposit) {
		return nil, ErrInvalidDeposit
	}

	return &BankAccount{
		ID:         NewAccountID(),
		CustomerID: customerID,
		Balance:    initialDeposit,
		CreatedAt:  now,
	}, nil
}

// Validate ensures the account adheres to domain rules
func (a *BankAccount) Validate() error {
	if a.Balance.IsNegative() {
		return errors.New("account balance cannot be negative")
	}
	return nil
}

// OwnedBy reports whether the account belongs to the given customer
func (a *BankAccount) OwnedBy(customerID CustomerID) bool {
	return a.CustomerID == customerID
}

// Debit removes amount from the balance.
// The balance is left untouched when it does not cover the amount.
func (a *BankAccount) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() || !IsRepresentable(amount) {
		return ErrInvalidAmount
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Credit adds amount to the balance.
// The balance is left untouched when the result would not fit the money format.
func (a *BankAccount) Credit(amount decimal.Decimal) error {
	if amount.IsNegative() || !IsRepresentable(amount) {
		return ErrInvalidAmount
	}
	balance := a.Balance.Add(amount)
	if !IsRepresentable(balance) {
		return ErrInvalidAmount
	}
	a.Balance = balance
	return nil
}
