package e2e

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsc-eco/vsc-amm/exchange"
	"github.com/vsc-eco/vsc-amm/pricing"
	"github.com/vsc-eco/vsc-amm/schemas"
	vscamm "github.com/vsc-eco/vsc-amm/sdk"
	"github.com/vsc-eco/vsc-amm/services/gateway"
)

const (
	poolNative = "2000000000000000000"
	poolTokens = "2000000000000000000"
	oneCoin    = "1000000000000000000"
)

type testEnv struct {
	server *httptest.Server
	client *vscamm.Client
	clock  *exchange.ManualClock
	node   *gateway.Node
}

func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	clock := exchange.NewManualClock(100)
	hub := gateway.NewHub(logger)
	node := gateway.NewNode("contract:amm", clock, hub)
	srv := gateway.NewServer(node, hub, logger, ":0")

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{
		server: ts,
		client: vscamm.NewClient(vscamm.Config{Endpoint: ts.URL}),
		clock:  clock,
		node:   node,
	}
}

// fundAndApprove gives the account both assets and lets the token's exchange
// pull the full token amount.
func fundAndApprove(t *testing.T, ctx context.Context, env *testEnv, account, token, native, tokens string) {
	t.Helper()
	if native != "" {
		_, err := env.client.Faucet(ctx, account, "native", native)
		require.NoError(t, err)
	}
	if tokens != "" {
		_, err := env.client.Faucet(ctx, account, token, tokens)
		require.NoError(t, err)
		require.NoError(t, env.client.Approve(ctx, account, token, tokens))
	}
}

func reserves(t *testing.T, ctx context.Context, env *testEnv, token string) (*uint256.Int, *uint256.Int) {
	t.Helper()
	info, err := env.client.Exchange(ctx, token)
	require.NoError(t, err)
	return uint256.MustFromDecimal(info.ReserveBase), uint256.MustFromDecimal(info.ReserveToken)
}

func TestFullAmmFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	env := setupTestEnvironment(t)
	require.NoError(t, env.client.Health(ctx))

	t.Run("CreateExchanges", func(t *testing.T) {
		for _, token := range []string{"token:hbd", "token:btc"} {
			info, err := env.client.CreateExchange(ctx, token)
			require.NoError(t, err, "exchange creation failed")
			require.Equal(t, token, info.Token)
			require.Equal(t, "0", info.TotalShares)
		}

		// Duplicate creation conflicts.
		_, err := env.client.CreateExchange(ctx, "token:hbd")
		var apiErr *vscamm.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 409, apiErr.Status)
	})

	t.Run("AddLiquidity", func(t *testing.T) {
		for _, token := range []string{"token:hbd", "token:btc"} {
			fundAndApprove(t, ctx, env, "hive:alice", token, poolNative, poolTokens)
			shares, err := env.client.AddLiquidity(ctx, vscamm.AddLiquidityRequest{
				Provider:     "hive:alice",
				Token:        token,
				NativeAmount: poolNative,
				MaxTokens:    poolTokens,
				Deadline:     101,
			})
			require.NoError(t, err, "adding liquidity failed")
			require.Equal(t, poolNative, shares)
		}
	})

	t.Run("QuoteKnownRate", func(t *testing.T) {
		quote, err := env.client.Quote(ctx, "token:hbd", "native_to_token", schemas.ModeExactInput, oneCoin)
		require.NoError(t, err)
		require.Equal(t, "665331998665331998", quote.Quote)
	})

	t.Run("NativeToTokenSwap", func(t *testing.T) {
		fundAndApprove(t, ctx, env, "hive:bob", "", oneCoin, "")

		result, err := env.client.Swap(ctx, &schemas.SwapInstruction{
			InstructionType: "swap",
			SchemaVersion:   "1.0.0",
			Sender:          "hive:bob",
			TokenIn:         schemas.NativeAsset,
			TokenOut:        "token:hbd",
			Mode:            schemas.ModeExactInput,
			Amount:          oneCoin,
			Limit:           "1",
			Deadline:        100,
		})
		require.NoError(t, err, "swap execution failed")
		require.Equal(t, "665331998665331998", result.AmountOut)
		require.Equal(t, result.AmountOut, env.node.Tokens.BalanceOf("token:hbd", "hive:bob").Dec())
	})

	t.Run("RoutedSwapMatchesTwoLegComputation", func(t *testing.T) {
		fundAndApprove(t, ctx, env, "hive:carol", "token:hbd", "", oneCoin)

		hbdBase, hbdToken := reserves(t, ctx, env, "token:hbd")
		btcBase, btcToken := reserves(t, ctx, env, "token:btc")

		sold := uint256.MustFromDecimal(oneCoin)
		nativeLeg, err := pricing.InputPrice(sold, hbdToken, hbdBase)
		require.NoError(t, err)
		wantOut, err := pricing.InputPrice(nativeLeg, btcBase, btcToken)
		require.NoError(t, err)

		result, err := env.client.Swap(ctx, &schemas.SwapInstruction{
			InstructionType: "swap",
			SchemaVersion:   "1.0.0",
			Sender:          "hive:carol",
			TokenIn:         "token:hbd",
			TokenOut:        "token:btc",
			Mode:            schemas.ModeExactInput,
			Amount:          oneCoin,
			Limit:           "1",
			Deadline:        100,
		})
		require.NoError(t, err, "routed swap failed")
		require.Equal(t, wantOut.Dec(), result.AmountOut)
		require.Equal(t, wantOut.Dec(), env.node.Tokens.BalanceOf("token:btc", "hive:carol").Dec())
		// The intermediate native currency never reaches the trader.
		require.True(t, env.node.Bank.BalanceOf("hive:carol").IsZero())
	})

	t.Run("RoutedSwapRollsBack", func(t *testing.T) {
		fundAndApprove(t, ctx, env, "hive:dave", "token:hbd", "", oneCoin)

		hbdBaseBefore, hbdTokenBefore := reserves(t, ctx, env, "token:hbd")
		btcBaseBefore, btcTokenBefore := reserves(t, ctx, env, "token:btc")

		// An output bound the destination pool cannot meet.
		_, err := env.client.Swap(ctx, &schemas.SwapInstruction{
			InstructionType: "swap",
			SchemaVersion:   "1.0.0",
			Sender:          "hive:dave",
			TokenIn:         "token:hbd",
			TokenOut:        "token:btc",
			Mode:            schemas.ModeExactInput,
			Amount:          oneCoin,
			Limit:           poolTokens,
			Deadline:        100,
		})
		var apiErr *vscamm.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 400, apiErr.Status)

		// Nothing moved on either pool and the trader kept the tokens.
		hbdBase, hbdToken := reserves(t, ctx, env, "token:hbd")
		btcBase, btcToken := reserves(t, ctx, env, "token:btc")
		require.Equal(t, hbdBaseBefore, hbdBase)
		require.Equal(t, hbdTokenBefore, hbdToken)
		require.Equal(t, btcBaseBefore, btcBase)
		require.Equal(t, btcTokenBefore, btcToken)
		require.Equal(t, oneCoin, env.node.Tokens.BalanceOf("token:hbd", "hive:dave").Dec())
	})

	t.Run("DeadlineEnforced", func(t *testing.T) {
		env.clock.Advance(10)

		_, err := env.client.Swap(ctx, &schemas.SwapInstruction{
			InstructionType: "swap",
			SchemaVersion:   "1.0.0",
			Sender:          "hive:bob",
			TokenIn:         schemas.NativeAsset,
			TokenOut:        "token:hbd",
			Mode:            schemas.ModeExactInput,
			Amount:          "1000",
			Limit:           "1",
			Deadline:        100,
		})
		var apiErr *vscamm.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 400, apiErr.Status)
	})

	t.Run("RemoveLiquidity", func(t *testing.T) {
		result, err := env.client.RemoveLiquidity(ctx, vscamm.RemoveLiquidityRequest{
			Provider:  "hive:alice",
			Token:     "token:btc",
			Shares:    oneCoin,
			MinNative: "1",
			MinTokens: "1",
			Deadline:  env.clock.Height() + 1,
		})
		require.NoError(t, err, "withdrawal failed")
		require.False(t, uint256.MustFromDecimal(result.Native).IsZero())
		require.False(t, uint256.MustFromDecimal(result.Tokens).IsZero())
	})
}
