package exchange

import (
	"errors"

	"github.com/vsc-eco/vsc-amm/pricing"
)

var (
	// ErrNotConfigured rejects any trading or liquidity call before Setup.
	ErrNotConfigured = errors.New("exchange not configured")
	// ErrAlreadyConfigured rejects a second Setup attempt.
	ErrAlreadyConfigured = errors.New("exchange already configured")
	// ErrInvalidParameters rejects zero amounts and malformed arguments.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrExpired rejects a call whose deadline has passed.
	ErrExpired = errors.New("deadline expired")
	// ErrSlippageExceeded rejects a trade that violates a caller-supplied bound.
	ErrSlippageExceeded = errors.New("slippage bound exceeded")
	// ErrInvalidRecipient rejects the zero identity and the instance itself.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrInvalidExchange rejects a missing or self-referential routing target.
	ErrInvalidExchange = errors.New("invalid exchange")
	// ErrAssetTransferFailed wraps a failed native send or token ledger call.
	ErrAssetTransferFailed = errors.New("asset transfer failed")

	// Pricing faults propagate under a single identity across packages.
	ErrInsufficientLiquidity = pricing.ErrInsufficientLiquidity
	ErrArithmeticOverflow    = pricing.ErrArithmeticOverflow
	ErrInvalidReserve        = pricing.ErrInvalidReserve
)
