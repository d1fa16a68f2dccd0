package exchange_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/vsc-eco/vsc-amm/events"
	"github.com/vsc-eco/vsc-amm/exchange"
	"github.com/vsc-eco/vsc-amm/ledger"
	"github.com/vsc-eco/vsc-amm/registry"
)

const (
	alice = ledger.Address("hive:alice")
	bob   = ledger.Address("hive:bob")
	carol = ledger.Address("hive:carol")

	alpha = ledger.Address("token:alpha")
	beta  = ledger.Address("token:beta")
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func dec(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := uint256.FromDecimal(s)
	require.NoError(t, err)
	return v
}

// env wires a bank, a token ledger, a manual clock, and a registry together
// with an event recorder. The clock starts at height 100.
type env struct {
	bank   *ledger.Bank
	tokens *ledger.Ledger
	clock  *exchange.ManualClock
	reg    *registry.Registry
	events []events.Event
}

func newEnv() *env {
	e := &env{
		bank:   ledger.NewBank(),
		tokens: ledger.NewLedger(),
		clock:  exchange.NewManualClock(100),
	}
	sink := events.SinkFunc(func(ev events.Event) { e.events = append(e.events, ev) })
	e.reg = registry.New("contract:amm", e.bank, e.tokens, e.clock, sink)
	return e
}

func (e *env) createExchange(t *testing.T, token ledger.Address) *exchange.Exchange {
	t.Helper()
	x, err := e.reg.CreateExchange(token)
	require.NoError(t, err)
	return x
}

// fund credits an account with native currency and tokens and pre-approves the
// exchange to pull the full token amount.
func (e *env) fund(t *testing.T, x *exchange.Exchange, who ledger.Address, native, tokens *uint256.Int) {
	t.Helper()
	if native != nil {
		e.bank.Mint(who, native)
	}
	if tokens != nil {
		e.tokens.Mint(x.Token(), who, tokens)
		require.NoError(t, e.tokens.Approve(x.Token(), who, x.Address(), tokens))
	}
}

// seedPool makes the first deposit so the pool trades at the given reserves.
func (e *env) seedPool(t *testing.T, x *exchange.Exchange, provider ledger.Address, native, tokens *uint256.Int) {
	t.Helper()
	e.fund(t, x, provider, native, tokens)
	_, err := x.AddLiquidity(provider, native, tokens, nil, e.clock.Height()+1)
	require.NoError(t, err)
}

func (e *env) clearEvents() { e.events = nil }

func (e *env) lastEvent(t *testing.T) events.Event {
	t.Helper()
	require.NotEmpty(t, e.events)
	return e.events[len(e.events)-1]
}

func TestSetupLifecycle(t *testing.T) {
	e := newEnv()
	x := exchange.New("contract:amm/exchange/token:alpha", e.bank, e.tokens, e.clock, nil)

	require.False(t, x.Active())
	require.Equal(t, ledger.ZeroAddress, x.Token())
	require.Equal(t, ledger.ZeroAddress, x.RegistryAddress())

	// Everything is rejected before configuration.
	_, err := x.AddLiquidity(alice, u(1), u(1), nil, 200)
	require.ErrorIs(t, err, exchange.ErrNotConfigured)
	_, err = x.NativeToTokenSwapInput(alice, u(1), u(1), 200)
	require.ErrorIs(t, err, exchange.ErrNotConfigured)
	_, err = x.NativeToTokenInputPrice(u(1))
	require.ErrorIs(t, err, exchange.ErrNotConfigured)

	require.ErrorIs(t, x.Setup(ledger.ZeroAddress, e.reg), exchange.ErrInvalidParameters)
	require.ErrorIs(t, x.Setup(alpha, nil), exchange.ErrInvalidParameters)

	require.NoError(t, x.Setup(alpha, e.reg))
	require.True(t, x.Active())
	require.Equal(t, alpha, x.Token())
	require.Equal(t, e.reg.Address(), x.RegistryAddress())

	// Setup is permanent.
	require.ErrorIs(t, x.Setup(beta, e.reg), exchange.ErrAlreadyConfigured)
	require.Equal(t, alpha, x.Token())
}

func TestFreshExchangeIsEmpty(t *testing.T) {
	e := newEnv()
	x := e.createExchange(t, alpha)

	base, token := x.Reserves()
	require.True(t, base.IsZero())
	require.True(t, token.IsZero())
	require.True(t, x.TotalShares().IsZero())
	require.True(t, x.ShareBalance(alice).IsZero())
}

func TestQuotesRequireLiquidityAndPositiveAmounts(t *testing.T) {
	e := newEnv()
	x := e.createExchange(t, alpha)

	_, err := x.NativeToTokenInputPrice(u(100))
	require.ErrorIs(t, err, exchange.ErrInvalidReserve)

	e.seedPool(t, x, alice, dec(t, "2000000000000000000"), dec(t, "2000000000000000000"))

	_, err = x.NativeToTokenInputPrice(u(0))
	require.ErrorIs(t, err, exchange.ErrInvalidParameters)
	_, err = x.TokenToNativeOutputPrice(nil)
	require.ErrorIs(t, err, exchange.ErrInvalidParameters)

	out, err := x.NativeToTokenInputPrice(dec(t, "1000000000000000000"))
	require.NoError(t, err)
	require.Equal(t, "665331998665331998", out.Dec())
}
