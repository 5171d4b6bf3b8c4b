package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
var enUSMessages = map[Code]string{
	"UNKNOWN":   "An unexpected error occurred.",
	"NOT_FOUND": "The requested record was not found.",

	"ADDRESS_SEED_TOO_LONG":           "An address seed exceeds {{.Limit}} bytes.",
	"ADDRESS_TOO_MANY_SEEDS":          "Too many address seeds were supplied.",
	"ADDRESS_NO_VIABLE_BUMP":          "No valid derived address exists for these fields.",
	"SECURE_BUFFER_ALLOCATION_FAILED": "A secure buffer could not be allocated.",
	"HASH_FAILED":                     "A hash could not be computed.",

	"INSTRUCTION_INVALID":         "The instruction is malformed.",
	"ACCOUNT_NOT_DECLARED":        "The instruction touched an account it did not declare.",
	"ACCOUNT_NOT_WRITABLE":        "The instruction wrote to a read-only account.",
	"ACCOUNT_KIND_MISMATCH":       "The supplied account holds a different kind of record.",
	"ACCOUNT_DEBIT_UNAUTHORIZED":  "Only the signer can spend from this wallet.",
	"ACCOUNT_BALANCE_OVERFLOW":    "The account balance would overflow.",
	"ACCOUNT_DECODE_FAILED":       "The stored record could not be decoded.",
	"WALLET_INSUFFICIENT_BALANCE": "The wallet balance is too low for this transfer.",

	"IDENTITY_METADATA_URI_EMPTY":        "The metadata URI is required.",
	"IDENTITY_METADATA_URI_TOO_LONG":     "The metadata URI must be at most {{.Limit}} bytes.",
	"IDENTITY_CAPABILITIES_OUT_OF_RANGE": "The capability mask is out of range.",
	"IDENTITY_ADDRESS_MISMATCH":          "The identity does not belong to this key.",
	"IDENTITY_OWNER_MISMATCH":            "Only the identity owner can do that.",
	"IDENTITY_ALREADY_EXISTS":            "An identity is already registered for this key.",
	"IDENTITY_NOT_FOUND":                 "No identity is registered at this address.",
	"IDENTITY_INSUFFICIENT_REPUTATION":   "Reputation of at least {{.Minimum}} is required.",

	"ESCROW_AMOUNT_ZERO":        "The amount must be greater than zero.",
	"ESCROW_AMOUNT_TOO_HIGH":    "The amount exceeds the per-deposit ceiling.",
	"ESCROW_REQUIRED":           "This channel charges a fee; an escrow is required.",
	"ESCROW_ADDRESS_MISMATCH":   "The escrow does not belong to this channel and depositor.",
	"ESCROW_DEPOSITOR_MISMATCH": "Only the depositor can use this escrow.",
	"ESCROW_CHANNEL_MISMATCH":   "The escrow belongs to a different channel.",
	"ESCROW_NOT_FOUND":          "No escrow exists at this address.",
	"ESCROW_INSUFFICIENT_FUNDS": "The escrow balance is too low.",
	"ESCROW_OVERFLOW":           "The escrow balance would overflow.",
	"ESCROW_BALANCE_UNDERFLOW":  "The channel escrow balance would go negative.",

	"INVITATION_REQUIRED":               "This channel is private; an invitation is required.",
	"INVITATION_INVITER_UNAUTHORIZED":   "Only the creator or an active participant can invite.",
	"INVITATION_INVITEE_NOT_REGISTERED": "The invitee is not a registered identity.",
	"INVITATION_ADDRESS_MISMATCH":       "The invitation is not stored at its derived address.",
	"INVITATION_CHANNEL_MISMATCH":       "The invitation is for a different channel.",
	"INVITATION_INVITEE_MISMATCH":       "The invitation was issued to someone else.",
	"INVITATION_ALREADY_EXISTS":         "An invitation with this nonce already exists.",
	"INVITATION_NOT_FOUND":              "No invitation exists at this address.",
	"INVITATION_ALREADY_USED":           "The invitation has already been used.",
	"INVITATION_EXPIRED":                "The invitation has expired.",
	"INVITATION_COMMITMENT_MISMATCH":    "The invitation failed verification.",

	"CHANNEL_NAME_EMPTY":               "The channel name is required.",
	"CHANNEL_NAME_TOO_LONG":            "The channel name must be at most {{.Limit}} bytes.",
	"CHANNEL_DESCRIPTION_EMPTY":        "The channel description is required.",
	"CHANNEL_DESCRIPTION_TOO_LONG":     "The channel description must be at most {{.Limit}} bytes.",
	"CHANNEL_MAX_PARTICIPANTS_INVALID": "Max participants must be between 1 and {{.Limit}}.",
	"CHANNEL_FEE_TOO_HIGH":             "The fee per message exceeds the ceiling.",
	"CHANNEL_VISIBILITY_INVALID":       "The channel visibility is invalid.",
	"CHANNEL_ADDRESS_MISMATCH":         "The channel is not stored at its derived address.",
	"CHANNEL_CREATOR_MISMATCH":         "Only the channel creator can do that.",
	"CHANNEL_ALREADY_EXISTS":           "A channel with this name already exists.",
	"CHANNEL_NOT_FOUND":                "No channel exists at this address.",
	"CHANNEL_INACTIVE":                 "The channel is inactive.",
	"CHANNEL_FULL":                     "The channel is full.",
	"CHANNEL_ALREADY_JOINED":           "You already have a membership record in this channel.",
	"CHANNEL_NOT_JOINED":               "You are not an active participant in this channel.",
	"CHANNEL_MAX_BELOW_CURRENT":        "Max participants cannot go below the current count.",
	"CHANNEL_PARTICIPANT_UNDERFLOW":    "The participant count would go negative.",
	"PARTICIPANT_ADDRESS_MISMATCH":     "The participant record does not match this channel and identity.",

	"MESSAGE_CONTENT_EMPTY":             "The message content is required.",
	"MESSAGE_CONTENT_TOO_LONG":          "The message content must be at most {{.Limit}} bytes.",
	"MESSAGE_CONTENT_POINTER_INVALID":   "The content pointer must be 1-100 alphanumeric characters.",
	"MESSAGE_TYPE_INVALID":              "The message type is invalid.",
	"MESSAGE_STATUS_INVALID":            "The message status is invalid.",
	"MESSAGE_ADDRESS_MISMATCH":          "The message is not stored at its derived address.",
	"MESSAGE_UNAUTHORIZED_PARTY":        "You cannot change this message's status.",
	"MESSAGE_ALREADY_EXISTS":            "This message already exists.",
	"MESSAGE_NOT_FOUND":                 "No message exists at this address.",
	"MESSAGE_EXPIRED":                   "The message has expired.",
	"MESSAGE_INVALID_STATUS_TRANSITION": "The message cannot move to that status.",
	"MESSAGE_RECIPIENT_NOT_REGISTERED":  "The recipient is not a registered identity.",
	"BATCH_EMPTY":                       "At least one message hash is required.",
	"BATCH_TOO_LARGE":                   "A batch can hold at most {{.Limit}} message hashes.",

	"RATE_LIMIT_COOLDOWN":         "Slow down: wait a second between messages.",
	"RATE_LIMIT_BURST":            "Too many messages in a short burst; try again shortly.",
	"RATE_LIMIT_WINDOW":           "Message limit for this minute reached; try again later.",
	"RATE_LIMIT_COUNTER_OVERFLOW": "The message counter overflowed.",
}
