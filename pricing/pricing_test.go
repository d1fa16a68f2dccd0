package pricing

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func dec(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := uint256.FromDecimal(s)
	require.NoError(t, err)
	return v
}

func TestInputPriceKnownVector(t *testing.T) {
	// 2/2 pool (18 decimals), sell 1 native unit.
	out, err := InputPrice(dec(t, "1000000000000000000"), dec(t, "2000000000000000000"), dec(t, "2000000000000000000"))
	require.NoError(t, err)
	require.Equal(t, "665331998665331998", out.Dec())
}

func TestInputPriceRejectsEmptyReserves(t *testing.T) {
	_, err := InputPrice(u(100), u(0), u(1000))
	require.ErrorIs(t, err, ErrInvalidReserve)

	_, err = InputPrice(u(100), u(1000), u(0))
	require.ErrorIs(t, err, ErrInvalidReserve)
}

func TestOutputPriceRejectsUnservableOutput(t *testing.T) {
	// Exact output equal to the reserve can never be served.
	_, err := OutputPrice(u(1000), u(5000), u(1000))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = OutputPrice(u(1001), u(5000), u(1000))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = OutputPrice(u(999), u(0), u(1000))
	require.ErrorIs(t, err, ErrInvalidReserve)
}

func TestArithmeticOverflowIsFatal(t *testing.T) {
	huge := new(uint256.Int).Sub(new(uint256.Int), u(1)) // 2^256 - 1

	_, err := InputPrice(huge, huge, huge)
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	_, err = OutputPrice(huge.Clone().Sub(huge, u(1)), huge, huge)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
}

// Buying back the output of an exact-input trade never costs less than the
// original input: fee plus rounding always favor the pool.
func TestRoundTripNeverFavorsTrader(t *testing.T) {
	reserves := []struct {
		in, out string
	}{
		{"1000", "1000"},
		{"2000000000000000000", "2000000000000000000"},
		{"1000000000000000000000", "3"},
		{"7", "9000000000000000000"},
		{"123456789123456789", "987654321987654321"},
	}
	inputs := []string{"1", "2", "997", "1000", "123456789", "1000000000000000000"}

	for _, r := range reserves {
		rIn := dec(t, r.in)
		rOut := dec(t, r.out)
		for _, s := range inputs {
			x := dec(t, s)
			out, err := InputPrice(x, rIn, rOut)
			require.NoError(t, err)
			if out.IsZero() {
				continue
			}
			back, err := OutputPrice(out, rIn, rOut)
			require.NoError(t, err)
			require.True(t, back.Cmp(x) <= 0,
				"round trip favored trader: in=%s out=%s back=%s reserves=%s/%s", x.Dec(), out.Dec(), back.Dec(), rIn.Dec(), rOut.Dec())
		}
	}
}

// The reserve product never decreases across a sequence of exact-input swaps.
func TestConstantProductNonDecreasing(t *testing.T) {
	rIn := dec(t, "5000000000000000000")
	rOut := dec(t, "3000000000000000000")
	k0 := new(uint256.Int).Mul(rIn, rOut)

	for i := 0; i < 50; i++ {
		amt := u(uint64(1_000_000 + i*777_777))
		out, err := InputPrice(amt, rIn, rOut)
		require.NoError(t, err)
		require.True(t, out.Lt(rOut))
		rIn.Add(rIn, amt)
		rOut.Sub(rOut, out)

		k := new(uint256.Int).Mul(rIn, rOut)
		require.True(t, k.Cmp(k0) >= 0, "invariant decreased at step %d", i)
		k0 = k
	}
}

// Exact-output pricing on the amount an exact-input swap yields charges at
// least one unit, even for dust trades.
func TestOutputPriceRoundsUp(t *testing.T) {
	in, err := OutputPrice(u(1), u(1_000_000), u(1_000_000))
	require.NoError(t, err)
	require.True(t, in.Cmp(u(1)) >= 0)
}
