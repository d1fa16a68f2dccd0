package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
)

var (
	// ErrUnknownToken is returned for operations on a token id that was never minted.
	ErrUnknownToken = errors.New("unknown token")
	// ErrInsufficientAllowance is returned when transferFrom exceeds the spender's approval.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// tokenState holds one fungible token's books.
type tokenState struct {
	totalSupply uint256.Int
	balances    map[Address]*uint256.Int
	// allowances[owner][spender]
	allowances map[Address]map[Address]*uint256.Int
}

// Ledger is the fungible-token collaborator: balances and allowances for any
// number of tokens, keyed by token id. Standard return-value semantics are
// expressed as error returns; a non-nil error means the call did not move funds.
type Ledger struct {
	mu     sync.Mutex
	tokens map[Address]*tokenState
}

// NewLedger returns an empty token ledger.
func NewLedger() *Ledger {
	return &Ledger{tokens: make(map[Address]*tokenState)}
}

// Mint creates token supply and credits it to an account, registering the token
// on first use.
func (l *Ledger) Mint(token, to Address, amount *uint256.Int) {
	if token.IsZero() || to.IsZero() || amount == nil || amount.IsZero() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.tokens[token]
	if !ok {
		st = &tokenState{
			balances:   make(map[Address]*uint256.Int),
			allowances: make(map[Address]map[Address]*uint256.Int),
		}
		l.tokens[token] = st
	}
	st.totalSupply.Add(&st.totalSupply, amount)
	creditToken(st, to, amount)
}

// BalanceOf returns a copy of the holder's balance. Unknown tokens read as zero.
func (l *Ledger) BalanceOf(token, holder Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.tokens[token]; ok {
		if bal, ok := st.balances[holder]; ok {
			return new(uint256.Int).Set(bal)
		}
	}
	return new(uint256.Int)
}

// TotalSupply returns a copy of the token's outstanding supply.
func (l *Ledger) TotalSupply(token Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.tokens[token]; ok {
		return new(uint256.Int).Set(&st.totalSupply)
	}
	return new(uint256.Int)
}

// Transfer moves tokens from the caller's account. A zero amount is a no-op.
func (l *Ledger) Transfer(token, from, to Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if to.IsZero() {
		return ErrBadRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.tokens[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return moveToken(st, from, to, amount)
}

// Approve sets the spender's allowance over the owner's tokens, replacing any
// previous approval.
func (l *Ledger) Approve(token, owner, spender Address, amount *uint256.Int) error {
	if spender.IsZero() {
		return ErrBadRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.tokens[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	approvals, ok := st.allowances[owner]
	if !ok {
		approvals = make(map[Address]*uint256.Int)
		st.allowances[owner] = approvals
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	approvals[spender] = new(uint256.Int).Set(amount)
	return nil
}

// Allowance returns a copy of the spender's remaining approval.
func (l *Ledger) Allowance(token, owner, spender Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.tokens[token]; ok {
		if approvals, ok := st.allowances[owner]; ok {
			if a, ok := approvals[spender]; ok {
				return new(uint256.Int).Set(a)
			}
		}
	}
	return new(uint256.Int)
}

// TransferFrom spends the spender's allowance to move the owner's tokens.
func (l *Ledger) TransferFrom(token, spender, from, to Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if to.IsZero() {
		return ErrBadRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.tokens[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	allowance, ok := st.allowances[from][spender]
	if !ok || allowance.Lt(amount) {
		return fmt.Errorf("%w: spender %s", ErrInsufficientAllowance, spender)
	}
	if err := moveToken(st, from, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

// RefundTransferFrom reverses a completed TransferFrom: the tokens move from
// the custody account back to the owner and the spender's allowance over the
// owner's balance is re-credited, so a rolled-back operation leaves no trace
// on either book.
func (l *Ledger) RefundTransferFrom(token, spender, custody, owner Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if owner.IsZero() {
		return ErrBadRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.tokens[token]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	if err := moveToken(st, custody, owner, amount); err != nil {
		return err
	}
	approvals, ok := st.allowances[owner]
	if !ok {
		approvals = make(map[Address]*uint256.Int)
		st.allowances[owner] = approvals
	}
	if a, ok := approvals[spender]; ok {
		a.Add(a, amount)
	} else {
		approvals[spender] = new(uint256.Int).Set(amount)
	}
	return nil
}

func moveToken(st *tokenState, from, to Address, amount *uint256.Int) error {
	bal, ok := st.balances[from]
	if !ok || bal.Lt(amount) {
		return fmt.Errorf("%w: account %s", ErrInsufficientFunds, from)
	}
	bal.Sub(bal, amount)
	creditToken(st, to, amount)
	return nil
}

func creditToken(st *tokenState, to Address, amount *uint256.Int) {
	if bal, ok := st.balances[to]; ok {
		bal.Add(bal, amount)
		return
	}
	st.balances[to] = new(uint256.Int).Set(amount)
}
