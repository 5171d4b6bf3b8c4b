package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("join: %w", New(CodeChannelFull, "channel is full"))
	if !stderrors.Is(err, New(CodeChannelFull, "")) {
		t.Fatal("expected wrapped error to match by code")
	}
	if stderrors.Is(err, New(CodeChannelInactive, "")) {
		t.Fatal("expected different code not to match")
	}
	if got := CodeOf(err); got != CodeChannelFull {
		t.Fatalf("CodeOf = %s, want %s", got, CodeChannelFull)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %s, want %s", got, CodeUnknown)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "commit failed", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		code Code
		want Category
	}{
		{CodeChannelNameTooLong, CategoryValidation},
		{CodeEscrowAddressMismatch, CategoryAuthorization},
		{CodeChannelFull, CategoryState},
		{CodeRateLimitBurst, CategoryResource},
		{CodeInvitationCommitmentMismatch, CategoryCryptographic},
		{Code("SOMETHING_ELSE"), CategoryInternal},
	}
	for _, tc := range tests {
		if got := tc.code.Category(); got != tc.want {
			t.Fatalf("%s category = %s, want %s", tc.code, got, tc.want)
		}
	}
}

func TestEveryCodeHasCategory(t *testing.T) {
	for code := range codeCategories {
		if code.Category() == CategoryInternal && code != CodeAccountDecodeFailed {
			t.Fatalf("code %s maps to internal", code)
		}
	}
}

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeChannelNameEmpty, codes.InvalidArgument},
		{CodeIdentityOwnerMismatch, codes.PermissionDenied},
		{CodeChannelInactive, codes.FailedPrecondition},
		{CodeIdentityAlreadyExists, codes.AlreadyExists},
		{CodeChannelNotFound, codes.NotFound},
		{CodeRateLimitCooldown, codes.ResourceExhausted},
		{CodeInvitationCommitmentMismatch, codes.DataLoss},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range tests {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("%s grpc code = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !CodeRateLimitWindow.Retryable() {
		t.Fatal("expected rate limit window to be retryable")
	}
	if CodeEscrowInsufficientFunds.Retryable() {
		t.Fatal("expected insufficient funds to need corrective action")
	}
}

func TestToGRPCStatusAttachesDetails(t *testing.T) {
	domainErr := WithMetadata(CodeChannelNameTooLong, "name too long", map[string]string{"Limit": "50"})
	st, ok := status.FromError(domainErr.ToGRPCStatus("en-US", "The channel name must be at most 50 bytes."))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("status code = %v, want %v", st.Code(), codes.InvalidArgument)
	}

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.Reason != string(CodeChannelNameTooLong) {
		t.Fatalf("error info = %v", info)
	}
	if info.Metadata["category"] != string(CategoryValidation) || info.Metadata["Limit"] != "50" {
		t.Fatalf("error info metadata = %v", info.Metadata)
	}
	if localized == nil || localized.Locale != "en-US" {
		t.Fatalf("localized message = %v", localized)
	}
}
