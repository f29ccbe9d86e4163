package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrZeroRate              = errors.Register("vault", 1, "redemption rate cannot be zero")
	ErrUnauthorized          = errors.Register("vault", 2, "unauthorized")
	ErrVaultPaused           = errors.Register("vault", 3, "vault is paused")
	ErrVaultNotPaused        = errors.Register("vault", 4, "vault is not paused")
	ErrInvalidAmount         = errors.Register("vault", 5, "amount must be positive")
	ErrInvalidReceiver       = errors.Register("vault", 6, "invalid receiver address")
	ErrInvalidOwner          = errors.Register("vault", 7, "invalid owner address")
	ErrDepositCapExceeded    = errors.Register("vault", 8, "deposit cap exceeded")
	ErrInsufficientShares    = errors.Register("vault", 9, "insufficient share balance")
	ErrInsufficientAllowance = errors.Register("vault", 10, "insufficient share allowance")
	ErrTooManyRequests       = errors.Register("vault", 11, "too many outstanding withdraw requests")
	ErrInvalidMaxLoss        = errors.Register("vault", 12, "max loss exceeds basis points denominator")
	ErrRequestNotFound       = errors.Register("vault", 13, "withdraw request not found")
	ErrRequestNotMatured     = errors.Register("vault", 14, "withdraw request has not matured")
	ErrRequestNotSolver      = errors.Register("vault", 15, "withdraw request does not allow solver completion")
	ErrMaxLossExceeded       = errors.Register("vault", 16, "fulfillment exceeds max loss tolerance")
	ErrWithdrawFeeTooHigh    = errors.Register("vault", 17, "withdraw fee exceeds configured maximum")
	ErrEmptyPool             = errors.Register("vault", 18, "fee update undefined on an empty pool")
	ErrInvalidConfig         = errors.Register("vault", 19, "invalid vault configuration")
	ErrConfigNotSet          = errors.Register("vault", 20, "vault configuration not set")
	ErrReentrantCall         = errors.Register("vault", 21, "reentrant call rejected")
)
