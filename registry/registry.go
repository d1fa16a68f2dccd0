// Package registry maps token identities one-to-one to exchange instances and
// creates them. It is the routing directory for token-to-token swaps; it never
// prices or moves assets itself.
package registry

import (
	"errors"
	"sync"

	"github.com/vsc-eco/vsc-amm/events"
	"github.com/vsc-eco/vsc-amm/exchange"
	"github.com/vsc-eco/vsc-amm/ledger"
)

var (
	// ErrExchangeExists is returned when the token already has an exchange.
	ErrExchangeExists = errors.New("exchange already exists for token")
	// ErrInvalidToken is returned for the zero token identity.
	ErrInvalidToken = errors.New("invalid token")
)

// Registry creates and indexes one exchange per token.
type Registry struct {
	mu     sync.RWMutex
	addr   ledger.Address
	bank   exchange.Bank
	tokens exchange.TokenLedger
	clock  exchange.Clock
	sink   events.Sink

	byToken    map[ledger.Address]*exchange.Exchange
	byExchange map[ledger.Address]ledger.Address
	creation   []ledger.Address // token ids in creation order, ids are 1-based
}

// New returns an empty registry identified by addr. Exchanges it creates share
// the given collaborators. A nil sink discards events.
func New(addr ledger.Address, bank exchange.Bank, tokens exchange.TokenLedger, clock exchange.Clock, sink events.Sink) *Registry {
	if sink == nil {
		sink = events.Discard
	}
	return &Registry{
		addr:       addr,
		bank:       bank,
		tokens:     tokens,
		clock:      clock,
		sink:       sink,
		byToken:    make(map[ledger.Address]*exchange.Exchange),
		byExchange: make(map[ledger.Address]ledger.Address),
	}
}

// Address returns the registry's identity.
func (r *Registry) Address() ledger.Address { return r.addr }

// CreateExchange instantiates and sets up the exchange for a token. Exactly
// one exchange per token; a second call for the same token fails.
func (r *Registry) CreateExchange(token ledger.Address) (*exchange.Exchange, error) {
	if token.IsZero() {
		return nil, ErrInvalidToken
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byToken[token]; ok {
		return nil, ErrExchangeExists
	}

	instanceAddr := r.addr + "/exchange/" + token
	inst := exchange.New(instanceAddr, r.bank, r.tokens, r.clock, r.sink)
	if err := inst.Setup(token, r); err != nil {
		return nil, err
	}

	r.byToken[token] = inst
	r.byExchange[instanceAddr] = token
	r.creation = append(r.creation, token)

	r.sink.Emit(events.NewExchange{
		Registry: r.addr,
		Token:    token,
		Exchange: instanceAddr,
	})
	return inst, nil
}

// Exchange returns the exchange trading the given token.
func (r *Registry) Exchange(token ledger.Address) (*exchange.Exchange, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byToken[token]
	return inst, ok
}

// Token returns the token traded by the given exchange instance.
func (r *Registry) Token(exchangeAddr ledger.Address) (ledger.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.byExchange[exchangeAddr]
	return token, ok
}

// TokenWithID returns the id-th registered token; ids start at 1 and follow
// creation order.
func (r *Registry) TokenWithID(id uint64) (ledger.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == 0 || id > uint64(len(r.creation)) {
		return ledger.ZeroAddress, false
	}
	return r.creation[id-1], true
}

// Count returns the number of exchanges created.
func (r *Registry) Count() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.creation))
}

// Tokens returns the registered tokens in creation order.
func (r *Registry) Tokens() []ledger.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ledger.Address, len(r.creation))
	copy(out, r.creation)
	return out
}
