package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// Routing keys of the events the ledger emits
const (
	AccountOpenedKey     = "ledger.account.opened"
	TransferCompletedKey = "ledger.transfer.completed"
)

// DefaultExchange is the topic exchange ledger events are published to
const DefaultExchange = "ledger_events"

// AccountOpened is emitted once a new account has been persisted
type AccountOpened struct {
	AccountID  string    `json:"account_id"`
	CustomerID string    `json:"customer_id"`
	Balance    string    `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
}

// TransferCompleted is emitted once a transfer has been committed
type TransferCompleted struct {
	TransferID    string    `json:"transfer_id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        string    `json:"amount"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewAccountOpened builds the event payload for account
func NewAccountOpened(account *domain.BankAccount) AccountOpened {
	return AccountOpened{
		AccountID:  account.ID.String(),
		CustomerID: account.CustomerID.String(),
		Balance:    account.Balance.String(),
		CreatedAt:  account.CreatedAt.UTC(),
	}
}

// NewTransferCompleted builds the event payload for tx
func NewTransferCompleted(tx *domain.Transaction) TransferCompleted {
	return TransferCompleted{
		TransferID:    tx.ID.String(),
		FromAccountID: tx.FromAccountID.String(),
		ToAccountID:   tx.ToAccountID.String(),
		Amount:        tx.Amount.String(),
		Description:   tx.Description,
		CreatedAt:     tx.CreatedAt.UTC(),
	}
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct {
	logger *zap.Logger
}

// NewNopPublisher creates a publisher that only logs at debug level
func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) PublishAccountOpened(_ context.Context, account *domain.BankAccount) error {
	p.logger.Debug("event dropped", zap.String("routing_key", AccountOpenedKey), zap.String("account_id", account.ID.String()))
	return nil
}

func (p *NopPublisher) PublishTransferCompleted(_ context.Context, tx *domain.Transaction) error {
	p.logger.Debug("event dropped", zap.String("routing_key", TransferCompletedKey), zap.String("transfer_id", tx.ID.String()))
	return nil
}

func (p *NopPublisher) Close() error { return nil }
