package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the immutable ledger entry of one committed transfer.
// It exists if and only if the matching balance mutation committed.
type Transaction struct {
	ID            TransferID
	FromAccountID AccountID
	ToAccountID   AccountID
	Amount        decimal.Decimal
	Description   string
	CreatedAt     time.Time
}

// NewTransaction builds the ledger entry for a transfer between two customers
func NewTransaction(source, destination *BankAccount, sender, receiver *Customer, amount decimal.Decimal, now time.Time) *Transaction {
	return &Transaction{
		ID:            NewTransferID(),
		FromAccountID: source.ID,
		ToAccountID:   destination.ID,
		Amount:        amount,
		Description:   Describe(sender.Name, receiver.Name, amount),
		CreatedAt:     now,
	}
}

// Describe renders the human-readable description of a transfer.
// It is display-only and never parsed back.
func Describe(senderName, receiverName string, amount decimal.Decimal) string {
	return fmt.Sprintf("FROM %s %s TO %s", senderName, amount.String(), receiverName)
}

// Validate ensures the transaction adheres to domain rules
func (t *Transaction) Validate() error {
	if t.Amount.IsNegative() || !IsRepresentable(t.Amount) {
		return ErrInvalidAmount
	}

	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if t.CreatedAt.IsZero() {
		return errors.New("transaction creation time must be set")
	}

	return nil
}

// Involves reports whether the transaction moved funds into or out of any of the accounts
func (t *Transaction) Involves(accounts map[AccountID]struct{}) bool {
	if _, ok := accounts[t.FromAccountID]; ok {
		return true
	}
	_, ok := accounts[t.ToAccountID]
	return ok
}
