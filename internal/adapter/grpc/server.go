package grpc

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/ledger-backend/internal/domain"
	"github.com/simaogato/ledger-backend/internal/usecase/account"
	"github.com/simaogato/ledger-backend/internal/usecase/query"
	"github.com/simaogato/ledger-backend/internal/usecase/transfer"
)

// EventPublisher announces committed ledger changes to other systems
type EventPublisher interface {
	PublishAccountOpened(ctx context.Context, account *domain.BankAccount) error
	PublishTransferCompleted(ctx context.Context, tx *domain.Transaction) error
}

// Server implements the LedgerService gRPC server
type Server struct {
	AccountService  *account.AccountService
	TransferService *transfer.TransferService
	QueryService    *query.QueryService

	// Publisher is optional; nil disables events
	Publisher EventPublisher

	logger   *zap.Logger
	validate *validator.Validate
}

// NewServer creates a new gRPC server instance
func NewServer(
	accountService *account.AccountService,
	transferService *transfer.TransferService,
	queryService *query.QueryService,
	publisher EventPublisher,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		AccountService:  accountService,
		TransferService: transferService,
		QueryService:    queryService,
		Publisher:       publisher,
		logger:          logger,
		validate:        newValidator(),
	}
}

// CreateAccount handles the CreateAccount RPC
func (s *Server) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*CreateAccountResponse, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}

	customerID, err := domain.ParseCustomerID(req.CustomerID)
	if err != nil {
		return nil, malformed("customer_id", err)
	}

	// Parse deposit from string to decimal; an unknown customer still outranks a bad deposit
	deposit, err := decimal.NewFromString(req.InitialDeposit)
	if err != nil {
		if err := s.AccountService.EnsureCustomer(ctx, customerID); err != nil {
			return nil, s.fail(CreateAccountMethod, err)
		}
		return nil, mapError(domain.ErrInvalidDeposit)
	}

	// Call usecase service
	created, err := s.AccountService.CreateAccount(ctx, account.CreateAccountInput{
		CustomerID:     customerID,
		InitialDeposit: deposit,
	})
	if err != nil {
		return nil, s.fail(CreateAccountMethod, err)
	}

	if s.Publisher != nil {
		if err := s.Publisher.PublishAccountOpened(ctx, created); err != nil {
			s.logger.Warn("failed to publish account opened event",
				zap.String("account_id", created.ID.String()),
				zap.Error(err),
			)
		}
	}

	// Build response
	return &CreateAccountResponse{
		AccountID:  created.ID.String(),
		CustomerID: created.CustomerID.String(),
		Balance:    created.Balance.String(),
		CreatedAt:  timestamppb.New(created.CreatedAt),
	}, nil
}

// Transfer handles the Transfer RPC
func (s *Server) Transfer(ctx context.Context, req *TransferRequest) (*TransferResponse, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}

	// Parse amount from string to decimal
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, mapError(domain.ErrInvalidAmount)
	}

	fromAccountID, err := domain.ParseAccountID(req.FromAccountID)
	if err != nil {
		return nil, malformed("from_account_id", err)
	}
	toAccountID, err := domain.ParseAccountID(req.ToAccountID)
	if err != nil {
		return nil, malformed("to_account_id", err)
	}
	fromCustomerID, err := domain.ParseCustomerID(req.FromCustomerID)
	if err != nil {
		return nil, malformed("from_customer_id", err)
	}
	toCustomerID, err := domain.ParseCustomerID(req.ToCustomerID)
	if err != nil {
		return nil, malformed("to_customer_id", err)
	}

	// Call usecase service
	result, err := s.TransferService.Transfer(ctx, transfer.TransferInput{
		FromAccountID:  fromAccountID,
		ToAccountID:    toAccountID,
		Amount:         amount,
		FromCustomerID: fromCustomerID,
		ToCustomerID:   toCustomerID,
	})
	if err != nil {
		return nil, s.fail(TransferMethod, err)
	}

	// The transfer is committed; a lost event must not turn it into a failure
	if s.Publisher != nil {
		if err := s.Publisher.PublishTransferCompleted(ctx, result.Transaction); err != nil {
			s.logger.Warn("failed to publish transfer completed event",
				zap.String("transfer_id", result.Transaction.ID.String()),
				zap.Error(err),
			)
		}
	}

	// Build response
	return &TransferResponse{
		TransferID:         result.Transaction.ID.String(),
		SourceBalance:      result.SourceBalance.String(),
		DestinationBalance: result.DestinationBalance.String(),
		Description:        result.Transaction.Description,
		CreatedAt:          timestamppb.New(result.Transaction.CreatedAt),
	}, nil
}

// GetBalances handles the GetBalances RPC
func (s *Server) GetBalances(ctx context.Context, req *GetBalancesRequest) (*GetBalancesResponse, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}

	customerID, err := domain.ParseCustomerID(req.CustomerID)
	if err != nil {
		return nil, malformed("customer_id", err)
	}

	balances, err := s.QueryService.GetBalances(ctx, customerID)
	if err != nil {
		return nil, s.fail(GetBalancesMethod, err)
	}

	resp := &GetBalancesResponse{Balances: make([]*AccountBalance, 0, len(balances))}
	for _, b := range balances {
		resp.Balances = append(resp.Balances, &AccountBalance{
			AccountID: b.AccountID.String(),
			Balance:   b.Balance.String(),
		})
	}

	return resp, nil
}

// GetHistory handles the GetHistory RPC
func (s *Server) GetHistory(ctx context.Context, req *GetHistoryRequest) (*GetHistoryResponse, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}

	customerID, err := domain.ParseCustomerID(req.CustomerID)
	if err != nil {
		return nil, malformed("customer_id", err)
	}

	history, err := s.QueryService.GetHistory(ctx, customerID)
	if err != nil {
		return nil, s.fail(GetHistoryMethod, err)
	}

	resp := &GetHistoryResponse{Transactions: make([]*Transaction, 0, len(history))}
	for _, tx := range history {
		resp.Transactions = append(resp.Transactions, domainTransactionToMessage(tx))
	}

	return resp, nil
}

// domainTransactionToMessage converts a domain Transaction to its wire form
func domainTransactionToMessage(tx *domain.Transaction) *Transaction {
	return &Transaction{
		TransferID:    tx.ID.String(),
		FromAccountID: tx.FromAccountID.String(),
		ToAccountID:   tx.ToAccountID.String(),
		Amount:        tx.Amount.String(),
		Description:   tx.Description,
		CreatedAt:     timestamppb.New(tx.CreatedAt),
	}
}

// checkRequest rejects structurally invalid requests before any business check
func (s *Server) checkRequest(req interface{}) error {
	if req == nil || reflect.ValueOf(req).IsNil() {
		return statusWithReason(codes.InvalidArgument, ReasonMalformedRequest, "request body is required")
	}

	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var problems []string
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			problems = append(problems, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
	} else {
		problems = append(problems, err.Error())
	}

	return statusWithReason(codes.InvalidArgument, ReasonMalformedRequest, "invalid request: "+strings.Join(problems, ", "))
}

// fail maps err to a status and keeps the details of server-side faults in the log
func (s *Server) fail(method string, err error) error {
	mapped := mapError(err)
	switch status.Code(mapped) {
	case codes.Internal, codes.Unavailable:
		s.logger.Error("request failed", zap.String("method", method), zap.Error(err))
	}
	return mapped
}

// newValidator reports fields by their wire names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func malformed(field string, err error) error {
	return statusWithReason(codes.InvalidArgument, ReasonMalformedRequest, fmt.Sprintf("invalid %s format: %v", field, err))
}
