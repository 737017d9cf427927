package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBankAccount(t *testing.T) {
	customerID := NewCustomerID()
	now := time.Now()

	tests := []struct {
		name    string
		deposit decimal.Decimal
		wantErr error
	}{
		{name: "Positive deposit", deposit: decimal.NewFromInt(100)},
		{name: "Zero deposit", deposit: decimal.Zero},
		{name: "Negative deposit", deposit: decimal.NewFromInt(-5), wantErr: ErrInvalidDeposit},
		{name: "Four decimal places", deposit: decimal.RequireFromString("0.0001")},
		{name: "Trailing zeros beyond scale", deposit: decimal.RequireFromString("2.500000")},
		{name: "Five decimal places", deposit: decimal.RequireFromString("0.00005"), wantErr: ErrInvalidDeposit},
		{name: "Too large", deposit: decimal.RequireFromString("1e17"), wantErr: ErrInvalidDeposit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := NewBankAccount(customerID, tt.deposit, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, account)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, customerID, account.CustomerID)
			assert.True(t, tt.deposit.Equal(account.Balance))
			assert.Equal(t, now, account.CreatedAt)
			assert.NotEqual(t, AccountID{}, account.ID)
			assert.True(t, account.OwnedBy(customerID))
			assert.False(t, account.OwnedBy(NewCustomerID()))
		})
	}
}

func TestBankAccount_DebitCredit(t *testing.T) {
	account := &BankAccount{ID: NewAccountID(), Balance: decimal.NewFromInt(100)}

	require.NoError(t, account.Debit(decimal.NewFromInt(30)))
	assert.True(t, decimal.NewFromInt(70).Equal(account.Balance))

	// Overdraft leaves the balance unchanged
	assert.ErrorIs(t, account.Debit(decimal.NewFromInt(1000)), ErrInsufficientFunds)
	assert.True(t, decimal.NewFromInt(70).Equal(account.Balance))

	// Draining to exactly zero is allowed
	require.NoError(t, account.Debit(decimal.NewFromInt(70)))
	assert.True(t, account.Balance.IsZero())

	require.NoError(t, account.Credit(decimal.RequireFromString("12.25")))
	assert.True(t, decimal.RequireFromString("12.25").Equal(account.Balance))

	assert.ErrorIs(t, account.Credit(decimal.NewFromInt(-1)), ErrInvalidAmount)
	assert.ErrorIs(t, account.Debit(decimal.NewFromInt(-1)), ErrInvalidAmount)
	assert.NoError(t, account.Validate())
}

func TestBankAccount_RejectsUnstorableAmounts(t *testing.T) {
	account := &BankAccount{ID: NewAccountID(), Balance: decimal.NewFromInt(1)}

	assert.ErrorIs(t, account.Debit(decimal.RequireFromString("0.00005")), ErrInvalidAmount)
	assert.ErrorIs(t, account.Credit(decimal.RequireFromString("0.00005")), ErrInvalidAmount)
	assert.ErrorIs(t, account.Credit(decimal.RequireFromString("1e17")), ErrInvalidAmount)
	assert.True(t, decimal.NewFromInt(1).Equal(account.Balance))

	// A credit that would push the balance past 16 integer digits is refused
	account.Balance = decimal.RequireFromString("9999999999999999.9999")
	assert.ErrorIs(t, account.Credit(decimal.RequireFromString("0.0001")), ErrInvalidAmount)
	assert.True(t, decimal.RequireFromString("9999999999999999.9999").Equal(account.Balance))
}

func TestIsRepresentable(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"0", true},
		{"100", true},
		{"0.0001", true},
		{"12.3400000", true},
		{"9999999999999999.9999", true},
		{"0.00005", false},
		{"1.23456", false},
		{"10000000000000000", false},
		{"1e17", false},
		{"-0.00001", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRepresentable(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestBankAccount_Validate(t *testing.T) {
	account := &BankAccount{Balance: decimal.NewFromInt(-1)}
	assert.EqualError(t, account.Validate(), "account balance cannot be negative")
}

func TestCustomer_Validate(t *testing.T) {
	assert.NoError(t, (&Customer{ID: NewCustomerID(), Name: "Alice"}).Validate())
	assert.EqualError(t, (&Customer{ID: NewCustomerID(), Name: "  "}).Validate(), "customer name cannot be empty")
}
