// Package exchange implements one constant-product exchange instance: the
// liquidity ledger that mints and burns pool shares, and the swap orchestrator
// that validates caller intent, prices trades, and moves assets. Reserves are
// explicit counters owned by the instance and committed only after every
// external transfer of the operation has succeeded.
package exchange

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/vsc-eco/vsc-amm/events"
	"github.com/vsc-eco/vsc-amm/ledger"
)

// Bank moves native currency between accounts. A non-nil error means no funds
// moved.
type Bank interface {
	Transfer(from, to ledger.Address, amount *uint256.Int) error
}

// TokenLedger is the external fungible-token collaborator. All calls are
// fallible; a non-nil error aborts the enclosing operation. RefundTransferFrom
// reverses a completed TransferFrom, restoring both the owner's balance and
// the spender's allowance; unwind paths use it so a failed operation retains
// no side effect.
type TokenLedger interface {
	BalanceOf(token, holder ledger.Address) *uint256.Int
	Transfer(token, from, to ledger.Address, amount *uint256.Int) error
	TransferFrom(token, spender, from, to ledger.Address, amount *uint256.Int) error
	RefundTransferFrom(token, spender, custody, owner ledger.Address, amount *uint256.Int) error
}

// Resolver maps token identities to exchange instances. The registry that
// created an instance implements it; routed swaps use it for lookups only.
type Resolver interface {
	Exchange(token ledger.Address) (*Exchange, bool)
	Address() ledger.Address
}

// MinInitialDeposit is the dust threshold for the first liquidity deposit.
const MinInitialDeposit = 1_000_000_000

// Exchange is one native-currency/token pool. Instances have exactly two
// states: uninitialized (before Setup) and active (permanently, after Setup).
// Every operation on one instance is serialized by its mutex.
type Exchange struct {
	mu     sync.Mutex
	addr   ledger.Address
	bank   Bank
	tokens TokenLedger
	clock  Clock
	sink   events.Sink

	// Set exactly once by Setup, atomically.
	token    ledger.Address
	registry Resolver

	reserveBase  uint256.Int
	reserveToken uint256.Int
	totalShares  uint256.Int
	shares       map[ledger.Address]*uint256.Int
}

// New returns an uninitialized exchange holding its reserves in the account
// addr. A nil sink discards events.
func New(addr ledger.Address, bank Bank, tokens TokenLedger, clock Clock, sink events.Sink) *Exchange {
	if sink == nil {
		sink = events.Discard
	}
	return &Exchange{
		addr:   addr,
		bank:   bank,
		tokens: tokens,
		clock:  clock,
		sink:   sink,
		shares: make(map[ledger.Address]*uint256.Int),
	}
}

// Setup binds the instance to its paired token and the registry that created
// it. Callable exactly once; the registry identity is permanent.
func (x *Exchange) Setup(token ledger.Address, registry Resolver) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.registry != nil || !x.token.IsZero() {
		return ErrAlreadyConfigured
	}
	if token.IsZero() || registry == nil {
		return ErrInvalidParameters
	}
	x.token = token
	x.registry = registry
	return nil
}

// Address returns the instance's custody account.
func (x *Exchange) Address() ledger.Address { return x.addr }

// Token returns the paired token identity, or the zero address before Setup.
func (x *Exchange) Token() ledger.Address {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.token
}

// RegistryAddress returns the identity of the registry that set the instance
// up, or the zero address before Setup.
func (x *Exchange) RegistryAddress() ledger.Address {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.registry == nil {
		return ledger.ZeroAddress
	}
	return x.registry.Address()
}

// Active reports whether Setup has completed.
func (x *Exchange) Active() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.activeLocked() == nil
}

// Reserves returns a snapshot of the base and token reserves.
func (x *Exchange) Reserves() (base, token *uint256.Int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return new(uint256.Int).Set(&x.reserveBase), new(uint256.Int).Set(&x.reserveToken)
}

// TotalShares returns the outstanding pool-share supply.
func (x *Exchange) TotalShares() *uint256.Int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return new(uint256.Int).Set(&x.totalShares)
}

// ShareBalance returns the provider's pool-share balance.
func (x *Exchange) ShareBalance(provider ledger.Address) *uint256.Int {
	x.mu.Lock()
	defer x.mu.Unlock()
	if bal, ok := x.shares[provider]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

func (x *Exchange) activeLocked() error {
	if x.registry == nil || x.token.IsZero() {
		return ErrNotConfigured
	}
	return nil
}

// Deadline conventions differ between operation groups and are preserved from
// the original design: swaps treat the deadline as the last acceptable height,
// liquidity calls reject a deadline equal to the current height.
func (x *Exchange) swapDeadlineLocked(deadline uint64) error {
	if deadline < x.clock.Height() {
		return ErrExpired
	}
	return nil
}

func (x *Exchange) liquidityDeadlineLocked(deadline uint64) error {
	if deadline <= x.clock.Height() {
		return ErrExpired
	}
	return nil
}

func isPositive(a *uint256.Int) bool { return a != nil && !a.IsZero() }

// mulDiv returns floor(a*b/den); den must be nonzero.
func mulDiv(a, b, den *uint256.Int) (*uint256.Int, error) {
	p, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return p.Div(p, den), nil
}

func addChecked(a, b *uint256.Int) (*uint256.Int, error) {
	s, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return s, nil
}

func transferFailed(err error) error {
	return fmt.Errorf("%w: %s", ErrAssetTransferFailed, err)
}

func (x *Exchange) creditShares(provider ledger.Address, minted *uint256.Int) {
	if bal, ok := x.shares[provider]; ok {
		bal.Add(bal, minted)
		return
	}
	x.shares[provider] = new(uint256.Int).Set(minted)
}

// lockPair acquires both instance locks in canonical address order so routed
// swaps hold a consistent global ordering and cannot deadlock each other.
func lockPair(a, b *Exchange) {
	if a.addr < b.addr {
		a.mu.Lock()
		b.mu.Lock()
	} else {
		b.mu.Lock()
		a.mu.Lock()
	}
}

func unlockPair(a, b *Exchange) {
	a.mu.Unlock()
	b.mu.Unlock()
}
