// Package events defines the observable side effects of the AMM: typed events
// emitted by exchange instances and the registry, and the Sink interface that
// consumers (indexers, feeds, test harnesses) implement to receive them.
package events

import (
	"github.com/holiman/uint256"

	"github.com/vsc-eco/vsc-amm/ledger"
)

// Event is one observable side effect of a completed operation.
type Event interface {
	// EventName returns the stable event name used on wire feeds.
	EventName() string
}

// Sink receives events. Emit is called synchronously at the end of a successful
// operation, after state has been committed; implementations must not call back
// into the emitting instance.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// TokenPurchase is emitted when native currency is sold for tokens.
type TokenPurchase struct {
	Exchange     ledger.Address `json:"exchange"`
	Buyer        ledger.Address `json:"buyer"`
	NativeSold   *uint256.Int   `json:"native_sold"`
	TokensBought *uint256.Int   `json:"tokens_bought"`
}

func (TokenPurchase) EventName() string { return "TokenPurchase" }

// EthPurchase is emitted when tokens are sold for native currency. The name is
// kept for compatibility with the original event feed.
type EthPurchase struct {
	Exchange     ledger.Address `json:"exchange"`
	Buyer        ledger.Address `json:"buyer"`
	TokensSold   *uint256.Int   `json:"tokens_sold"`
	NativeBought *uint256.Int   `json:"native_bought"`
}

func (EthPurchase) EventName() string { return "EthPurchase" }

// AddLiquidity is emitted when a provider deposits into the pool.
type AddLiquidity struct {
	Exchange     ledger.Address `json:"exchange"`
	Provider     ledger.Address `json:"provider"`
	NativeAmount *uint256.Int   `json:"native_amount"`
	TokenAmount  *uint256.Int   `json:"token_amount"`
}

func (AddLiquidity) EventName() string { return "AddLiquidity" }

// RemoveLiquidity is emitted when a provider burns shares and withdraws.
type RemoveLiquidity struct {
	Exchange     ledger.Address `json:"exchange"`
	Provider     ledger.Address `json:"provider"`
	NativeAmount *uint256.Int   `json:"native_amount"`
	TokenAmount  *uint256.Int   `json:"token_amount"`
}

func (RemoveLiquidity) EventName() string { return "RemoveLiquidity" }

// NewExchange is emitted by the registry when an exchange is created.
type NewExchange struct {
	Registry ledger.Address `json:"registry"`
	Token    ledger.Address `json:"token"`
	Exchange ledger.Address `json:"exchange"`
}

func (NewExchange) EventName() string { return "NewExchange" }
