package paynova

import "errors"

var (
	errNilState  = errors.New("paynova engine: state not configured")
	errNilTokens = errors.New("paynova engine: token registry not configured")

	// ErrInvalidRecipient rejects a zero recipient address at creation.
	ErrInvalidRecipient = errors.New("paynova: invalid recipient")
	// ErrInvalidAmount rejects amounts that are zero, negative or wider than
	// 256 bits at creation.
	ErrInvalidAmount = errors.New("paynova: invalid amount")
	// ErrEmptyReference rejects empty reference strings at creation.
	ErrEmptyReference = errors.New("paynova: empty reference")
	// ErrReferenceUsed indicates a record already exists under the reference
	// hash. References are single-use forever, regardless of the state the
	// existing record is in.
	ErrReferenceUsed = errors.New("paynova: reference already used")
	// ErrNotFound indicates no record exists under the supplied hash.
	ErrNotFound = errors.New("paynova: transaction not found")
	// ErrUnauthorized indicates the caller is not the record's creator. Only
	// the creator may settle or cancel; there is no delegation.
	ErrUnauthorized = errors.New("paynova: unauthorized caller")
	// ErrInvalidState indicates the record is not Pending. Paid and Cancelled
	// are terminal.
	ErrInvalidState = errors.New("paynova: invalid transaction state")
	// ErrInsufficientFunds indicates the supplied value is less than the
	// amount fixed at creation.
	ErrInsufficientFunds = errors.New("paynova: insufficient funds")
	// ErrTransferFailed indicates an external value movement did not succeed.
	// The record is left exactly as it was before the call.
	ErrTransferFailed = errors.New("paynova: transfer failed")

	// ErrUnknownToken indicates no token implementation is registered for the
	// record's token address.
	ErrUnknownToken = errors.New("paynova: unknown token")
)
