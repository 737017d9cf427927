package grpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// errorDomain scopes the ErrorInfo reasons below
const errorDomain = "ledger"

// Reasons attached to failed RPCs, one per failure kind
const (
	ReasonMalformedRequest  = "MALFORMED_REQUEST"
	ReasonInvalidAmount     = "INVALID_AMOUNT"
	ReasonInvalidDeposit    = "INVALID_DEPOSIT"
	ReasonSameAccount       = "SAME_ACCOUNT"
	ReasonUnknownSender     = "UNKNOWN_SENDER"
	ReasonUnknownReceiver   = "UNKNOWN_RECEIVER"
	ReasonUnknownCustomer   = "UNKNOWN_CUSTOMER"
	ReasonUnknownAccount    = "UNKNOWN_ACCOUNT"
	ReasonSenderNotOwner    = "OWNERSHIP_MISMATCH_SENDER"
	ReasonReceiverNotOwner  = "OWNERSHIP_MISMATCH_RECEIVER"
	ReasonInsufficientFunds = "INSUFFICIENT_FUNDS"
	ReasonAccountBusy       = "ACCOUNT_BUSY"
	ReasonCommitFailure     = "COMMIT_FAILURE"
)

// errorMappings is ordered: refinements come before the kinds they refine
var errorMappings = []struct {
	target error
	code   codes.Code
	reason string
}{
	{domain.ErrInvalidAmount, codes.InvalidArgument, ReasonInvalidAmount},
	{domain.ErrInvalidDeposit, codes.InvalidArgument, ReasonInvalidDeposit},
	{domain.ErrSameAccount, codes.InvalidArgument, ReasonSameAccount},
	{domain.ErrUnknownSender, codes.NotFound, ReasonUnknownSender},
	{domain.ErrUnknownReceiver, codes.NotFound, ReasonUnknownReceiver},
	{domain.ErrUnknownCustomer, codes.NotFound, ReasonUnknownCustomer},
	{domain.ErrUnknownAccount, codes.NotFound, ReasonUnknownAccount},
	{domain.ErrSenderNotOwner, codes.FailedPrecondition, ReasonSenderNotOwner},
	{domain.ErrReceiverNotOwner, codes.FailedPrecondition, ReasonReceiverNotOwner},
	{domain.ErrInsufficientFunds, codes.FailedPrecondition, ReasonInsufficientFunds},
	{domain.ErrLockTimeout, codes.Aborted, ReasonAccountBusy},
	{domain.ErrCommitFailure, codes.Unavailable, ReasonCommitFailure},
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return statusWithReason(m.code, m.reason, m.target.Error())
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	// Infrastructure details stay in the server logs
	return status.Error(codes.Internal, "internal error")
}

func statusWithReason(code codes.Code, reason, msg string) error {
	st := status.New(code, msg)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: errorDomain,
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ErrorReason extracts the failure kind from an RPC error, or "" if it carries none
func ErrorReason(err error) string {
	if err == nil {
		return ""
	}
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetDomain() == errorDomain {
			return info.GetReason()
		}
	}
	return ""
}
