package domain

import (
	"database/sql/driver"
	"sort"

	"github.com/google/uuid"
)

// CustomerID identifies a Customer
type CustomerID uuid.UUID

// AccountID identifies a BankAccount
type AccountID uuid.UUID

// TransferID identifies a Transaction (one ledger entry per transfer)
type TransferID uuid.UUID

// NewCustomerID generates a fresh random CustomerID
func NewCustomerID() CustomerID { return CustomerID(uuid.New()) }

// NewAccountID generates a fresh random AccountID
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewTransferID generates a fresh random TransferID
func NewTransferID() TransferID { return TransferID(uuid.New()) }

// ParseCustomerID parses the canonical string form of a CustomerID
func ParseCustomerID(s string) (CustomerID, error) {
	id, err := uuid.Parse(s)
	return CustomerID(id), err
}

// ParseAccountID parses the canonical string form of an AccountID
func ParseAccountID(s string) (AccountID, error) {
	id, err := uuid.Parse(s)
	return AccountID(id), err
}

// ParseTransferID parses the canonical string form of a TransferID
func ParseTransferID(s string) (TransferID, error) {
	id, err := uuid.Parse(s)
	return TransferID(id), err
}

func (id CustomerID) String() string { return uuid.UUID(id).String() }
func (id AccountID) String() string  { return uuid.UUID(id).String() }
func (id TransferID) String() string { return uuid.UUID(id).String() }

// Value implements driver.Valuer
func (id CustomerID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }

// Value implements driver.Valuer
func (id AccountID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }

// Value implements driver.Valuer
func (id TransferID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }

// Scan implements sql.Scanner
func (id *CustomerID) Scan(src interface{}) error { return (*uuid.UUID)(id).Scan(src) }

// Scan implements sql.Scanner
func (id *AccountID) Scan(src interface{}) error { return (*uuid.UUID)(id).Scan(src) }

// Scan implements sql.Scanner
func (id *TransferID) Scan(src interface{}) error { return (*uuid.UUID)(id).Scan(src) }

// LockOrder returns the distinct account ids in ascending order.
// Every component that takes more than one account lock acquires them in
// this order, which rules out lock-order inversions between transfers.
func LockOrder(ids ...AccountID) []AccountID {
	seen := make(map[AccountID]struct{}, len(ids))
	ordered := make([]AccountID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].String() < ordered[j].String()
	})
	return ordered
}
