package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/simaogato/ledger-backend/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedCode   codes.Code
		expectedReason string
	}{
		{"Invalid Amount", domain.ErrInvalidAmount, codes.InvalidArgument, ReasonInvalidAmount},
		{"Invalid Deposit", domain.ErrInvalidDeposit, codes.InvalidArgument, ReasonInvalidDeposit},
		{"Same Account", domain.ErrSameAccount, codes.InvalidArgument, ReasonSameAccount},
		{"Unknown Sender", domain.ErrUnknownSender, codes.NotFound, ReasonUnknownSender},
		{"Unknown Receiver", domain.ErrUnknownReceiver, codes.NotFound, ReasonUnknownReceiver},
		{"Unknown Customer", domain.ErrUnknownCustomer, codes.NotFound, ReasonUnknownCustomer},
		{"Wrapped Unknown Account", fmt.Errorf("account abc: %w", domain.ErrUnknownAccount), codes.NotFound, ReasonUnknownAccount},
		{"Sender Not Owner", domain.ErrSenderNotOwner, codes.FailedPrecondition, ReasonSenderNotOwner},
		{"Receiver Not Owner", domain.ErrReceiverNotOwner, codes.FailedPrecondition, ReasonReceiverNotOwner},
		{"Insufficient Funds", domain.ErrInsufficientFunds, codes.FailedPrecondition, ReasonInsufficientFunds},
		{"Lock Timeout", domain.ErrLockTimeout, codes.Aborted, ReasonAccountBusy},
		{"Commit Failure", fmt.Errorf("%w: %w", domain.ErrCommitFailure, errors.New("connection reset")), codes.Unavailable, ReasonCommitFailure},
		{"Canceled", context.Canceled, codes.Canceled, ""},
		{"Deadline", context.DeadlineExceeded, codes.DeadlineExceeded, ""},
		{"Unclassified", errors.New("boom"), codes.Internal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError(tt.err)

			st, ok := status.FromError(mapped)
			assert.True(t, ok, "error should be a gRPC status")
			assert.Equal(t, tt.expectedCode, st.Code())
			assert.Equal(t, tt.expectedReason, ErrorReason(mapped))
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.NoError(t, mapError(nil))
}

func TestMapError_StatusPassesThrough(t *testing.T) {
	original := status.Error(codes.PermissionDenied, "nope")
	assert.Equal(t, original, mapError(original))
}

func TestMapError_HidesInfrastructureDetails(t *testing.T) {
	mapped := mapError(errors.New("pq: password authentication failed for user ledger"))

	st, _ := status.FromError(mapped)
	assert.Equal(t, "internal error", st.Message())
}

func TestErrorReason_NonStatus(t *testing.T) {
	assert.Empty(t, ErrorReason(errors.New("plain")))
	assert.Empty(t, ErrorReason(nil))
}
