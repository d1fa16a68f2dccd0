package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
)

var (
	// ErrInsufficientFunds is returned when a transfer exceeds the sender's balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBadRecipient is returned when the destination of a transfer is the zero address.
	ErrBadRecipient = errors.New("bad recipient")
)

// Bank keeps native-coin account balances. It stands in for the execution
// environment's built-in currency: exchanges hold their base-asset reserves in
// a Bank account and pay swap proceeds out of it.
type Bank struct {
	mu       sync.Mutex
	balances map[Address]*uint256.Int
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{balances: make(map[Address]*uint256.Int)}
}

// Mint credits freshly created coin to an account.
func (b *Bank) Mint(to Address, amount *uint256.Int) {
	if to.IsZero() || amount == nil || amount.IsZero() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(to, amount)
}

// BalanceOf returns a copy of the account's balance.
func (b *Bank) BalanceOf(holder Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[holder]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

// Transfer moves coin between accounts. A zero amount is a no-op.
func (b *Bank) Transfer(from, to Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if to.IsZero() {
		return ErrBadRecipient
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bal, ok := b.balances[from]
	if !ok || bal.Lt(amount) {
		return fmt.Errorf("%w: account %s", ErrInsufficientFunds, from)
	}
	bal.Sub(bal, amount)
	b.credit(to, amount)
	return nil
}

func (b *Bank) credit(to Address, amount *uint256.Int) {
	if bal, ok := b.balances[to]; ok {
		bal.Add(bal, amount)
		return
	}
	b.balances[to] = new(uint256.Int).Set(amount)
}
