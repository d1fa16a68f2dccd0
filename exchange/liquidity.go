package exchange

import (
	"github.com/holiman/uint256"

	"github.com/vsc-eco/vsc-amm/events"
	"github.com/vsc-eco/vsc-amm/ledger"
)

// AddLiquidity deposits nativeIn plus the matching token amount and mints pool
// shares to the provider. On the first deposit the caller fixes the initial
// exchange rate: exactly maxTokens tokens are pulled against nativeIn, and
// shares are minted 1:1 with nativeIn. On later deposits the token amount and
// the shares minted follow the current reserve ratio; the call fails with
// ErrSlippageExceeded if the required tokens exceed maxTokens or the minted
// shares fall short of minShares. Returns the shares minted.
func (x *Exchange) AddLiquidity(provider ledger.Address, nativeIn, maxTokens, minShares *uint256.Int, deadline uint64) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if err := x.liquidityDeadlineLocked(deadline); err != nil {
		return nil, err
	}
	if provider.IsZero() || !isPositive(nativeIn) || !isPositive(maxTokens) {
		return nil, ErrInvalidParameters
	}

	var tokenIn, sharesOut *uint256.Int
	if x.totalShares.IsZero() {
		if nativeIn.LtUint64(MinInitialDeposit) {
			return nil, ErrInvalidParameters
		}
		tokenIn = new(uint256.Int).Set(maxTokens)
		sharesOut = new(uint256.Int).Set(nativeIn)
	} else {
		if !isPositive(minShares) {
			return nil, ErrInvalidParameters
		}
		if x.reserveBase.IsZero() {
			return nil, ErrInvalidReserve
		}
		proportional, err := mulDiv(nativeIn, &x.reserveToken, &x.reserveBase)
		if err != nil {
			return nil, err
		}
		// Token requirement rounds up, in the pool's favor.
		tokenIn, err = addChecked(proportional, uint256.NewInt(1))
		if err != nil {
			return nil, err
		}
		sharesOut, err = mulDiv(nativeIn, &x.totalShares, &x.reserveBase)
		if err != nil {
			return nil, err
		}
		if tokenIn.Gt(maxTokens) || sharesOut.Lt(minShares) {
			return nil, ErrSlippageExceeded
		}
	}

	newBase, err := addChecked(&x.reserveBase, nativeIn)
	if err != nil {
		return nil, err
	}
	newToken, err := addChecked(&x.reserveToken, tokenIn)
	if err != nil {
		return nil, err
	}
	newTotal, err := addChecked(&x.totalShares, sharesOut)
	if err != nil {
		return nil, err
	}

	if err := x.bank.Transfer(provider, x.addr, nativeIn); err != nil {
		return nil, transferFailed(err)
	}
	if err := x.tokens.TransferFrom(x.token, x.addr, provider, x.addr, tokenIn); err != nil {
		// Unwind the native pull before reporting failure.
		_ = x.bank.Transfer(x.addr, provider, nativeIn)
		return nil, transferFailed(err)
	}

	x.reserveBase.Set(newBase)
	x.reserveToken.Set(newToken)
	x.totalShares.Set(newTotal)
	x.creditShares(provider, sharesOut)

	x.sink.Emit(events.AddLiquidity{
		Exchange:     x.addr,
		Provider:     provider,
		NativeAmount: new(uint256.Int).Set(nativeIn),
		TokenAmount:  tokenIn,
	})
	return new(uint256.Int).Set(sharesOut), nil
}

// RemoveLiquidity burns sharesIn of the provider's pool shares and pays out
// the proportional slice of both reserves. Either payout falling below its
// minimum fails the whole call with ErrSlippageExceeded; a rejected native
// payout is fatal, no partial withdrawal happens. Returns the native and token
// amounts paid out.
func (x *Exchange) RemoveLiquidity(provider ledger.Address, sharesIn, minNative, minTokens *uint256.Int, deadline uint64) (*uint256.Int, *uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.activeLocked(); err != nil {
		return nil, nil, err
	}
	if err := x.liquidityDeadlineLocked(deadline); err != nil {
		return nil, nil, err
	}
	if provider.IsZero() || !isPositive(sharesIn) || !isPositive(minNative) || !isPositive(minTokens) {
		return nil, nil, ErrInvalidParameters
	}
	if x.totalShares.IsZero() {
		return nil, nil, ErrInsufficientLiquidity
	}
	held, ok := x.shares[provider]
	if !ok || held.Lt(sharesIn) {
		return nil, nil, ErrInsufficientLiquidity
	}

	nativeOut, err := mulDiv(sharesIn, &x.reserveBase, &x.totalShares)
	if err != nil {
		return nil, nil, err
	}
	tokenOut, err := mulDiv(sharesIn, &x.reserveToken, &x.totalShares)
	if err != nil {
		return nil, nil, err
	}
	if nativeOut.Lt(minNative) || tokenOut.Lt(minTokens) {
		return nil, nil, ErrSlippageExceeded
	}

	if err := x.bank.Transfer(x.addr, provider, nativeOut); err != nil {
		return nil, nil, transferFailed(err)
	}
	if err := x.tokens.Transfer(x.token, x.addr, provider, tokenOut); err != nil {
		_ = x.bank.Transfer(provider, x.addr, nativeOut)
		return nil, nil, transferFailed(err)
	}

	x.reserveBase.Sub(&x.reserveBase, nativeOut)
	x.reserveToken.Sub(&x.reserveToken, tokenOut)
	x.totalShares.Sub(&x.totalShares, sharesIn)
	held.Sub(held, sharesIn)

	x.sink.Emit(events.RemoveLiquidity{
		Exchange:     x.addr,
		Provider:     provider,
		NativeAmount: new(uint256.Int).Set(nativeOut),
		TokenAmount:  new(uint256.Int).Set(tokenOut),
	})
	return nativeOut, tokenOut, nil
}
