package gateway

import (
	"github.com/vsc-eco/vsc-amm/events"
	"github.com/vsc-eco/vsc-amm/exchange"
	"github.com/vsc-eco/vsc-amm/ledger"
	"github.com/vsc-eco/vsc-amm/registry"
)

// Node owns the in-process AMM state the gateway serves: the native-currency
// bank, the token ledger, the height clock, and the exchange registry.
type Node struct {
	Bank     *ledger.Bank
	Tokens   *ledger.Ledger
	Clock    exchange.Clock
	Registry *registry.Registry
}

// NewNode wires a fresh AMM universe. Events flow into the given sink.
func NewNode(registryAddr ledger.Address, clock exchange.Clock, sink events.Sink) *Node {
	bank := ledger.NewBank()
	tokens := ledger.NewLedger()
	return &Node{
		Bank:     bank,
		Tokens:   tokens,
		Clock:    clock,
		Registry: registry.New(registryAddr, bank, tokens, clock, sink),
	}
}
