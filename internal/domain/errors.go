package domain

import "errors"

// Authorization errors: always caller-fault, never retried automatically.
var (
	ErrInvalidSignature        = errors.New("invalid signature")
	ErrOrderExpiredOrCancelled = errors.New("order expired or cancelled")
	ErrOrderNotInWindow        = errors.New("order not in time window")
	ErrNotTaker                = errors.New("taker must be the caller")
	ErrWrongSides              = errors.New("maker and taker must be opposite sides")
	ErrZeroAmount              = errors.New("amount cannot be zero")
)

// Policy errors: the order is stale or malformed; the caller must reconstruct
// and resign.
var (
	ErrCurrencyNotWhitelisted = errors.New("currency not whitelisted")
	ErrStrategyNotWhitelisted = errors.New("strategy not whitelisted")
	ErrStrategyMismatch       = errors.New("strategy cannot execute order pair")
	ErrMinPercentageViolated  = errors.New("seller proceeds below minimum percentage to ask")
	ErrUnsupportedCollection  = errors.New("no transfer manager for collection")
)

// State errors: guard cancellation and replay.
var (
	ErrNonceTooLow          = errors.New("order nonce lower than current")
	ErrNonceCeilingExceeded = errors.New("cannot cancel more orders")
	ErrEmptyInput           = errors.New("cannot be empty")
	ErrNonceAlreadyUsed     = errors.New("nonce already executed or cancelled")
)

// Settlement errors: abort the match atomically; no partial transfers persist.
var (
	ErrTransferFailed            = errors.New("transfer failed")
	ErrOverpaymentRejected       = errors.New("supplied native value exceeds price")
	ErrCurrencyMismatchForNative = errors.New("currency must be wrapped native token")
)

// Administrative and infrastructure errors.
var (
	ErrZeroAddress       = errors.New("address cannot be zero")
	ErrRoyaltyFeeTooHigh = errors.New("royalty fee exceeds registry ceiling")
	ErrNotFound          = errors.New("not found")
	ErrLockHeld          = errors.New("lock already held")
)
