package grpc

import "google.golang.org/protobuf/types/known/timestamppb"

// Amounts travel as decimal strings so no precision is lost in transit.

// CreateAccountRequest opens an account for an existing customer
type CreateAccountRequest struct {
	CustomerID     string `json:"customer_id" validate:"required,uuid"`
	InitialDeposit string `json:"initial_deposit"`
}

// CreateAccountResponse identifies the new account
type CreateAccountResponse struct {
	AccountID  string                 `json:"account_id"`
	CustomerID string                 `json:"customer_id"`
	Balance    string                 `json:"balance"`
	CreatedAt  *timestamppb.Timestamp `json:"created_at"`
}

// TransferRequest moves amount from one customer's account to another's
type TransferRequest struct {
	FromAccountID  string `json:"from_account_id" validate:"required,uuid"`
	ToAccountID    string `json:"to_account_id" validate:"required,uuid"`
	Amount         string `json:"amount"`
	FromCustomerID string `json:"from_customer_id" validate:"required,uuid"`
	ToCustomerID   string `json:"to_customer_id" validate:"required,uuid"`
}

// TransferResponse reports the committed transfer and both new balances
type TransferResponse struct {
	TransferID         string                 `json:"transfer_id"`
	SourceBalance      string                 `json:"source_balance"`
	DestinationBalance string                 `json:"destination_balance"`
	Description        string                 `json:"description"`
	CreatedAt          *timestamppb.Timestamp `json:"created_at"`
}

// GetBalancesRequest asks for every balance of one customer
type GetBalancesRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
}

// AccountBalance is one account in a balance report
type AccountBalance struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

// GetBalancesResponse lists the customer's accounts, oldest first
type GetBalancesResponse struct {
	Balances []*AccountBalance `json:"balances"`
}

// GetHistoryRequest asks for the ledger entries touching one customer
type GetHistoryRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
}

// Transaction is a ledger entry as seen by clients
type Transaction struct {
	TransferID    string                 `json:"transfer_id"`
	FromAccountID string                 `json:"from_account_id"`
	ToAccountID   string                 `json:"to_account_id"`
	Amount        string                 `json:"amount"`
	Description   string                 `json:"description"`
	CreatedAt     *timestamppb.Timestamp `json:"created_at"`
}

// GetHistoryResponse lists ledger entries in ascending creation order
type GetHistoryResponse struct {
	Transactions []*Transaction `json:"transactions"`
}
