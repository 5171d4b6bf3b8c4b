// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

// Category groups codes by how a caller is expected to react.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryAuthorization Category = "authorization"
	CategoryState         Category = "state"
	CategoryResource      Category = "resource"
	CategoryCryptographic Category = "cryptographic"
	CategoryInternal      Category = "internal"
)

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Address derivation errors
	CodeAddressSeedTooLong  Code = "ADDRESS_SEED_TOO_LONG"
	CodeAddressTooManySeeds Code = "ADDRESS_TOO_MANY_SEEDS"
	CodeAddressNoViableBump Code = "ADDRESS_NO_VIABLE_BUMP"

	// Secure buffer errors
	CodeSecureBufferAllocation Code = "SECURE_BUFFER_ALLOCATION_FAILED"
	CodeHashFailed             Code = "HASH_FAILED"

	// Host errors
	CodeInstructionInvalid       Code = "INSTRUCTION_INVALID"
	CodeAccountNotDeclared       Code = "ACCOUNT_NOT_DECLARED"
	CodeAccountNotWritable       Code = "ACCOUNT_NOT_WRITABLE"
	CodeAccountKindMismatch      Code = "ACCOUNT_KIND_MISMATCH"
	CodeAccountDebitUnauthorized Code = "ACCOUNT_DEBIT_UNAUTHORIZED"
	CodeAccountBalanceOverflow   Code = "ACCOUNT_BALANCE_OVERFLOW"
	CodeAccountDecodeFailed      Code = "ACCOUNT_DECODE_FAILED"
	CodeWalletInsufficient       Code = "WALLET_INSUFFICIENT_BALANCE"

	// Identity errors
	CodeIdentityMetadataURIEmpty       Code = "IDENTITY_METADATA_URI_EMPTY"
	CodeIdentityMetadataURITooLong     Code = "IDENTITY_METADATA_URI_TOO_LONG"
	CodeIdentityCapabilitiesOutOfRange Code = "IDENTITY_CAPABILITIES_OUT_OF_RANGE"
	CodeIdentityAddressMismatch        Code = "IDENTITY_ADDRESS_MISMATCH"
	CodeIdentityOwnerMismatch          Code = "IDENTITY_OWNER_MISMATCH"
	CodeIdentityAlreadyExists          Code = "IDENTITY_ALREADY_EXISTS"
	CodeIdentityNotFound               Code = "IDENTITY_NOT_FOUND"
	CodeIdentityInsufficientReputation Code = "IDENTITY_INSUFFICIENT_REPUTATION"

	// Escrow errors
	CodeEscrowAmountZero        Code = "ESCROW_AMOUNT_ZERO"
	CodeEscrowAmountTooHigh     Code = "ESCROW_AMOUNT_TOO_HIGH"
	CodeEscrowRequired          Code = "ESCROW_REQUIRED"
	CodeEscrowAddressMismatch   Code = "ESCROW_ADDRESS_MISMATCH"
	CodeEscrowDepositorMismatch Code = "ESCROW_DEPOSITOR_MISMATCH"
	CodeEscrowChannelMismatch   Code = "ESCROW_CHANNEL_MISMATCH"
	CodeEscrowNotFound          Code = "ESCROW_NOT_FOUND"
	CodeEscrowInsufficientFunds Code = "ESCROW_INSUFFICIENT_FUNDS"
	CodeEscrowOverflow          Code = "ESCROW_OVERFLOW"
	CodeEscrowBalanceUnderflow  Code = "ESCROW_BALANCE_UNDERFLOW"

	// Invitation errors
	CodeInvitationRequired            Code = "INVITATION_REQUIRED"
	CodeInvitationInviterUnauthorized Code = "INVITATION_INVITER_UNAUTHORIZED"
	CodeInvitationInviteeMissing      Code = "INVITATION_INVITEE_NOT_REGISTERED"
	CodeInvitationAddressMismatch     Code = "INVITATION_ADDRESS_MISMATCH"
	CodeInvitationChannelMismatch     Code = "INVITATION_CHANNEL_MISMATCH"
	CodeInvitationInviteeMismatch     Code = "INVITATION_INVITEE_MISMATCH"
	CodeInvitationAlreadyExists       Code = "INVITATION_ALREADY_EXISTS"
	CodeInvitationNotFound            Code = "INVITATION_NOT_FOUND"
	CodeInvitationAlreadyUsed         Code = "INVITATION_ALREADY_USED"
	CodeInvitationExpired             Code = "INVITATION_EXPIRED"
	CodeInvitationCommitmentMismatch  Code = "INVITATION_COMMITMENT_MISMATCH"

	// Channel errors
	CodeChannelNameEmpty              Code = "CHANNEL_NAME_EMPTY"
	CodeChannelNameTooLong            Code = "CHANNEL_NAME_TOO_LONG"
	CodeChannelDescriptionEmpty       Code = "CHANNEL_DESCRIPTION_EMPTY"
	CodeChannelDescriptionTooLong     Code = "CHANNEL_DESCRIPTION_TOO_LONG"
	CodeChannelMaxParticipantsInvalid Code = "CHANNEL_MAX_PARTICIPANTS_INVALID"
	CodeChannelFeeTooHigh             Code = "CHANNEL_FEE_TOO_HIGH"
	CodeChannelVisibilityInvalid      Code = "CHANNEL_VISIBILITY_INVALID"
	CodeChannelAddressMismatch        Code = "CHANNEL_ADDRESS_MISMATCH"
	CodeChannelCreatorMismatch        Code = "CHANNEL_CREATOR_MISMATCH"
	CodeChannelAlreadyExists          Code = "CHANNEL_ALREADY_EXISTS"
	CodeChannelNotFound               Code = "CHANNEL_NOT_FOUND"
	CodeChannelInactive               Code = "CHANNEL_INACTIVE"
	CodeChannelFull                   Code = "CHANNEL_FULL"
	CodeChannelAlreadyJoined          Code = "CHANNEL_ALREADY_JOINED"
	CodeChannelNotJoined              Code = "CHANNEL_NOT_JOINED"
	CodeChannelMaxBelowCurrent        Code = "CHANNEL_MAX_BELOW_CURRENT"
	CodeChannelParticipantUnderflow   Code = "CHANNEL_PARTICIPANT_UNDERFLOW"
	CodeParticipantAddressMismatch    Code = "PARTICIPANT_ADDRESS_MISMATCH"

	// Messaging errors
	CodeMessageContentEmpty            Code = "MESSAGE_CONTENT_EMPTY"
	CodeMessageContentTooLong          Code = "MESSAGE_CONTENT_TOO_LONG"
	CodeMessageContentPointerInvalid   Code = "MESSAGE_CONTENT_POINTER_INVALID"
	CodeMessageTypeInvalid             Code = "MESSAGE_TYPE_INVALID"
	CodeMessageStatusInvalid           Code = "MESSAGE_STATUS_INVALID"
	CodeMessageAddressMismatch         Code = "MESSAGE_ADDRESS_MISMATCH"
	CodeMessageUnauthorizedParty       Code = "MESSAGE_UNAUTHORIZED_PARTY"
	CodeMessageAlreadyExists           Code = "MESSAGE_ALREADY_EXISTS"
	CodeMessageNotFound                Code = "MESSAGE_NOT_FOUND"
	CodeMessageExpired                 Code = "MESSAGE_EXPIRED"
	CodeMessageInvalidStatusTransition Code = "MESSAGE_INVALID_STATUS_TRANSITION"
	CodeMessageRecipientMissing        Code = "MESSAGE_RECIPIENT_NOT_REGISTERED"
	CodeBatchEmpty                     Code = "BATCH_EMPTY"
	CodeBatchTooLarge                  Code = "BATCH_TOO_LARGE"

	// Rate limit errors
	CodeRateLimitCooldown        Code = "RATE_LIMIT_COOLDOWN"
	CodeRateLimitBurst           Code = "RATE_LIMIT_BURST"
	CodeRateLimitWindow          Code = "RATE_LIMIT_WINDOW"
	CodeRateLimitCounterOverflow Code = "RATE_LIMIT_COUNTER_OVERFLOW"
)

var codeCategories = map[Code]Category{
	CodeNotFound: CategoryState,

	CodeAddressSeedTooLong:  CategoryValidation,
	CodeAddressTooManySeeds: CategoryValidation,
	CodeAddressNoViableBump: CategoryCryptographic,

	CodeSecureBufferAllocation: CategoryCryptographic,
	CodeHashFailed:             CategoryCryptographic,

	CodeInstructionInvalid:       CategoryValidation,
	CodeAccountNotDeclared:       CategoryAuthorization,
	CodeAccountNotWritable:       CategoryAuthorization,
	CodeAccountKindMismatch:      CategoryAuthorization,
	CodeAccountDebitUnauthorized: CategoryAuthorization,
	CodeAccountBalanceOverflow:   CategoryResource,
	CodeAccountDecodeFailed:      CategoryInternal,
	CodeWalletInsufficient:       CategoryResource,

	CodeIdentityMetadataURIEmpty:       CategoryValidation,
	CodeIdentityMetadataURITooLong:     CategoryValidation,
	CodeIdentityCapabilitiesOutOfRange: CategoryValidation,
	CodeIdentityAddressMismatch:        CategoryAuthorization,
	CodeIdentityOwnerMismatch:          CategoryAuthorization,
	CodeIdentityAlreadyExists:          CategoryState,
	CodeIdentityNotFound:               CategoryState,
	CodeIdentityInsufficientReputation: CategoryResource,

	CodeEscrowAmountZero:        CategoryValidation,
	CodeEscrowAmountTooHigh:     CategoryValidation,
	CodeEscrowRequired:          CategoryValidation,
	CodeEscrowAddressMismatch:   CategoryAuthorization,
	CodeEscrowDepositorMismatch: CategoryAuthorization,
	CodeEscrowChannelMismatch:   CategoryAuthorization,
	CodeEscrowNotFound:          CategoryState,
	CodeEscrowInsufficientFunds: CategoryResource,
	CodeEscrowOverflow:          CategoryResource,
	CodeEscrowBalanceUnderflow:  CategoryResource,

	CodeInvitationRequired:            CategoryAuthorization,
	CodeInvitationInviterUnauthorized: CategoryAuthorization,
	CodeInvitationInviteeMissing:      CategoryState,
	CodeInvitationAddressMismatch:     CategoryAuthorization,
	CodeInvitationChannelMismatch:     CategoryAuthorization,
	CodeInvitationInviteeMismatch:     CategoryAuthorization,
	CodeInvitationAlreadyExists:       CategoryState,
	CodeInvitationNotFound:            CategoryState,
	CodeInvitationAlreadyUsed:         CategoryState,
	CodeInvitationExpired:             CategoryState,
	CodeInvitationCommitmentMismatch:  CategoryCryptographic,

	CodeChannelNameEmpty:              CategoryValidation,
	CodeChannelNameTooLong:            CategoryValidation,
	CodeChannelDescriptionEmpty:       CategoryValidation,
	CodeChannelDescriptionTooLong:     CategoryValidation,
	CodeChannelMaxParticipantsInvalid: CategoryValidation,
	CodeChannelFeeTooHigh:             CategoryValidation,
	CodeChannelVisibilityInvalid:      CategoryValidation,
	CodeChannelAddressMismatch:        CategoryAuthorization,
	CodeChannelCreatorMismatch:        CategoryAuthorization,
	CodeChannelAlreadyExists:          CategoryState,
	CodeChannelNotFound:               CategoryState,
	CodeChannelInactive:               CategoryState,
	CodeChannelFull:                   CategoryState,
	CodeChannelAlreadyJoined:          CategoryState,
	CodeChannelNotJoined:              CategoryState,
	CodeChannelMaxBelowCurrent:        CategoryState,
	CodeChannelParticipantUnderflow:   CategoryState,
	CodeParticipantAddressMismatch:    CategoryAuthorization,

	CodeMessageContentEmpty:            CategoryValidation,
	CodeMessageContentTooLong:          CategoryValidation,
	CodeMessageContentPointerInvalid:   CategoryValidation,
	CodeMessageTypeInvalid:             CategoryValidation,
	CodeMessageStatusInvalid:           CategoryValidation,
	CodeMessageAddressMismatch:         CategoryAuthorization,
	CodeMessageUnauthorizedParty:       CategoryAuthorization,
	CodeMessageAlreadyExists:           CategoryState,
	CodeMessageNotFound:                CategoryState,
	CodeMessageExpired:                 CategoryState,
	CodeMessageInvalidStatusTransition: CategoryState,
	CodeMessageRecipientMissing:        CategoryState,
	CodeBatchEmpty:                     CategoryValidation,
	CodeBatchTooLarge:                  CategoryValidation,

	CodeRateLimitCooldown:        CategoryResource,
	CodeRateLimitBurst:           CategoryResource,
	CodeRateLimitWindow:          CategoryResource,
	CodeRateLimitCounterOverflow: CategoryResource,
}

// Category reports the taxonomy bucket for the code. Unregistered codes are
// internal.
func (c Code) Category() Category {
	if category, ok := codeCategories[c]; ok {
		return category
	}
	return CategoryInternal
}

// Retryable reports whether resubmitting the same instruction later can
// succeed without any other corrective action.
func (c Code) Retryable() bool {
	switch c {
	case CodeRateLimitCooldown, CodeRateLimitBurst, CodeRateLimitWindow:
		return true
	default:
		return false
	}
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// AlreadyExists - unique derived address already occupied
	case CodeIdentityAlreadyExists,
		CodeInvitationAlreadyExists,
		CodeChannelAlreadyExists,
		CodeChannelAlreadyJoined,
		CodeMessageAlreadyExists:
		return codes.AlreadyExists

	// NotFound - record doesn't exist
	case CodeNotFound,
		CodeIdentityNotFound,
		CodeEscrowNotFound,
		CodeInvitationNotFound,
		CodeChannelNotFound,
		CodeMessageNotFound:
		return codes.NotFound
	}

	switch c.Category() {
	case CategoryValidation:
		return codes.InvalidArgument
	case CategoryAuthorization:
		return codes.PermissionDenied
	case CategoryState:
		return codes.FailedPrecondition
	case CategoryResource:
		return codes.ResourceExhausted
	case CategoryCryptographic:
		return codes.DataLoss
	default:
		return codes.Internal
	}
}
