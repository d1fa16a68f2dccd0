package exchange

import (
	"github.com/holiman/uint256"

	"github.com/vsc-eco/vsc-amm/events"
	"github.com/vsc-eco/vsc-amm/ledger"
	"github.com/vsc-eco/vsc-amm/pricing"
)

// Internal swap cores. Callers hold x.mu; payer is the account the native leg
// settles against, which differs from buyer on routed swaps.

func (x *Exchange) nativeToTokenInputLocked(buyer, payer, recipient ledger.Address, nativeSold, minTokens *uint256.Int, deadline uint64) (*uint256.Int, error) {
	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if err := x.swapDeadlineLocked(deadline); err != nil {
		return nil, err
	}
	if !isPositive(nativeSold) || !isPositive(minTokens) {
		return nil, ErrInvalidParameters
	}

	tokensBought, err := pricing.InputPrice(nativeSold, &x.reserveBase, &x.reserveToken)
	if err != nil {
		return nil, err
	}
	if tokensBought.Lt(minTokens) {
		return nil, ErrSlippageExceeded
	}
	newBase, err := addChecked(&x.reserveBase, nativeSold)
	if err != nil {
		return nil, err
	}

	if err := x.bank.Transfer(payer, x.addr, nativeSold); err != nil {
		return nil, transferFailed(err)
	}
	if err := x.tokens.Transfer(x.token, x.addr, recipient, tokensBought); err != nil {
		_ = x.bank.Transfer(x.addr, payer, nativeSold)
		return nil, transferFailed(err)
	}

	x.reserveBase.Set(newBase)
	x.reserveToken.Sub(&x.reserveToken, tokensBought)

	x.sink.Emit(events.TokenPurchase{
		Exchange:     x.addr,
		Buyer:        buyer,
		NativeSold:   new(uint256.Int).Set(nativeSold),
		TokensBought: new(uint256.Int).Set(tokensBought),
	})
	return tokensBought, nil
}

func (x *Exchange) nativeToTokenOutputLocked(buyer, payer, recipient ledger.Address, tokensBought, maxNative *uint256.Int, deadline uint64) (*uint256.Int, error) {
	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if err := x.swapDeadlineLocked(deadline); err != nil {
		return nil, err
	}
	if !isPositive(tokensBought) || !isPositive(maxNative) {
		return nil, ErrInvalidParameters
	}

	nativeSold, err := pricing.OutputPrice(tokensBought, &x.reserveBase, &x.reserveToken)
	if err != nil {
		return nil, err
	}
	if nativeSold.Gt(maxNative) {
		return nil, ErrSlippageExceeded
	}
	newBase, err := addChecked(&x.reserveBase, nativeSold)
	if err != nil {
		return nil, err
	}

	// The full attached amount is drawn up front; the unused remainder goes
	// back to the payer once the trade is through.
	if err := x.bank.Transfer(payer, x.addr, maxNative); err != nil {
		return nil, transferFailed(err)
	}
	if err := x.tokens.Transfer(x.token, x.addr, recipient, tokensBought); err != nil {
		_ = x.bank.Transfer(x.addr, payer, maxNative)
		return nil, transferFailed(err)
	}
	refund := new(uint256.Int).Sub(maxNative, nativeSold)
	if !refund.IsZero() {
		if err := x.bank.Transfer(x.addr, payer, refund); err != nil {
			return nil, transferFailed(err)
		}
	}

	x.reserveBase.Set(newBase)
	x.reserveToken.Sub(&x.reserveToken, tokensBought)

	x.sink.Emit(events.TokenPurchase{
		Exchange:     x.addr,
		Buyer:        buyer,
		NativeSold:   new(uint256.Int).Set(nativeSold),
		TokensBought: new(uint256.Int).Set(tokensBought),
	})
	return nativeSold, nil
}

func (x *Exchange) tokenToNativeInputLocked(buyer, recipient ledger.Address, tokensSold, minNative *uint256.Int, deadline uint64) (*uint256.Int, error) {
	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if err := x.swapDeadlineLocked(deadline); err != nil {
		return nil, err
	}
	if !isPositive(tokensSold) || !isPositive(minNative) {
		return nil, ErrInvalidParameters
	}

	nativeBought, err := pricing.InputPrice(tokensSold, &x.reserveToken, &x.reserveBase)
	if err != nil {
		return nil, err
	}
	if nativeBought.Lt(minNative) {
		return nil, ErrSlippageExceeded
	}
	newToken, err := addChecked(&x.reserveToken, tokensSold)
	if err != nil {
		return nil, err
	}

	if err := x.tokens.TransferFrom(x.token, x.addr, buyer, x.addr, tokensSold); err != nil {
		return nil, transferFailed(err)
	}
	if err := x.bank.Transfer(x.addr, recipient, nativeBought); err != nil {
		_ = x.tokens.RefundTransferFrom(x.token, x.addr, x.addr, buyer, tokensSold)
		return nil, transferFailed(err)
	}

	x.reserveToken.Set(newToken)
	x.reserveBase.Sub(&x.reserveBase, nativeBought)

	x.sink.Emit(events.EthPurchase{
		Exchange:     x.addr,
		Buyer:        buyer,
		TokensSold:   new(uint256.Int).Set(tokensSold),
		NativeBought: new(uint256.Int).Set(nativeBought),
	})
	return nativeBought, nil
}

func (x *Exchange) tokenToNativeOutputLocked(buyer, recipient ledger.Address, nativeBought, maxTokens *uint256.Int, deadline uint64) (*uint256.Int, error) {
	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if err := x.swapDeadlineLocked(deadline); err != nil {
		return nil, err
	}
	if !isPositive(nativeBought) || !isPositive(maxTokens) {
		return nil, ErrInvalidParameters
	}

	tokensSold, err := pricing.OutputPrice(nativeBought, &x.reserveToken, &x.reserveBase)
	if err != nil {
		return nil, err
	}
	if tokensSold.Gt(maxTokens) {
		return nil, ErrSlippageExceeded
	}
	newToken, err := addChecked(&x.reserveToken, tokensSold)
	if err != nil {
		return nil, err
	}

	// Native goes out before the token pull is finalized; both settle or
	// neither does.
	if err := x.bank.Transfer(x.addr, recipient, nativeBought); err != nil {
		return nil, transferFailed(err)
	}
	if err := x.tokens.TransferFrom(x.token, x.addr, buyer, x.addr, tokensSold); err != nil {
		_ = x.bank.Transfer(recipient, x.addr, nativeBought)
		return nil, transferFailed(err)
	}

	x.reserveToken.Set(newToken)
	x.reserveBase.Sub(&x.reserveBase, nativeBought)

	x.sink.Emit(events.EthPurchase{
		Exchange:     x.addr,
		Buyer:        buyer,
		TokensSold:   new(uint256.Int).Set(tokensSold),
		NativeBought: new(uint256.Int).Set(nativeBought),
	})
	return tokensSold, nil
}

// Native -> token.

// NativeToTokenSwapInput sells an exact native amount for tokens delivered to
// the buyer. Returns the tokens bought.
func (x *Exchange) NativeToTokenSwapInput(buyer ledger.Address, nativeSold, minTokens *uint256.Int, deadline uint64) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.nativeToTokenInputLocked(buyer, buyer, buyer, nativeSold, minTokens, deadline)
}

// NativeToTokenTransferInput is NativeToTokenSwapInput with the tokens sent to
// a named recipient.
func (x *Exchange) NativeToTokenTransferInput(buyer ledger.Address, nativeSold, minTokens *uint256.Int, deadline uint64, recipient ledger.Address) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.checkRecipientLocked(recipient); err != nil {
		return nil, err
	}
	return x.nativeToTokenInputLocked(buyer, buyer, recipient, nativeSold, minTokens, deadline)
}

// NativeToTokenSwapOutput buys an exact token amount with at most maxNative;
// unused native currency is refunded. Returns the native amount spent.
func (x *Exchange) NativeToTokenSwapOutput(buyer ledger.Address, tokensBought, maxNative *uint256.Int, deadline uint64) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.nativeToTokenOutputLocked(buyer, buyer, buyer, tokensBought, maxNative, deadline)
}

// NativeToTokenTransferOutput is NativeToTokenSwapOutput with the tokens sent
// to a named recipient. The refund still goes to the buyer.
func (x *Exchange) NativeToTokenTransferOutput(buyer ledger.Address, tokensBought, maxNative *uint256.Int, deadline uint64, recipient ledger.Address) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.checkRecipientLocked(recipient); err != nil {
		return nil, err
	}
	return x.nativeToTokenOutputLocked(buyer, buyer, recipient, tokensBought, maxNative, deadline)
}

// Token -> native.

// TokenToNativeSwapInput sells an exact token amount for native currency paid
// to the buyer. Returns the native amount bought.
func (x *Exchange) TokenToNativeSwapInput(buyer ledger.Address, tokensSold, minNative *uint256.Int, deadline uint64) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.tokenToNativeInputLocked(buyer, buyer, tokensSold, minNative, deadline)
}

// TokenToNativeTransferInput is TokenToNativeSwapInput paying a named recipient.
func (x *Exchange) TokenToNativeTransferInput(buyer ledger.Address, tokensSold, minNative *uint256.Int, deadline uint64, recipient ledger.Address) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.checkRecipientLocked(recipient); err != nil {
		return nil, err
	}
	return x.tokenToNativeInputLocked(buyer, recipient, tokensSold, minNative, deadline)
}

// TokenToNativeSwapOutput buys an exact native amount for at most maxTokens.
// Returns the tokens sold.
func (x *Exchange) TokenToNativeSwapOutput(buyer ledger.Address, nativeBought, maxTokens *uint256.Int, deadline uint64) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.tokenToNativeOutputLocked(buyer, buyer, nativeBought, maxTokens, deadline)
}

// TokenToNativeTransferOutput is TokenToNativeSwapOutput paying a named
// recipient.
func (x *Exchange) TokenToNativeTransferOutput(buyer ledger.Address, nativeBought, maxTokens *uint256.Int, deadline uint64, recipient ledger.Address) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.checkRecipientLocked(recipient); err != nil {
		return nil, err
	}
	return x.tokenToNativeOutputLocked(buyer, recipient, nativeBought, maxTokens, deadline)
}

// Token -> token, routed through a second exchange. Both instance locks are
// taken in canonical order before either leg runs, so a failing destination
// leg unwinds the source leg with no partially settled state ever visible.

func (x *Exchange) tokenToTokenInput(buyer, recipient ledger.Address, tokensSold, minTokensBought, minNativeBought *uint256.Int, deadline uint64, dest *Exchange) (*uint256.Int, error) {
	if dest == nil || dest == x || dest.addr == x.addr {
		return nil, ErrInvalidExchange
	}
	lockPair(x, dest)
	defer unlockPair(x, dest)

	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if err := x.swapDeadlineLocked(deadline); err != nil {
		return nil, err
	}
	if !isPositive(tokensSold) || !isPositive(minTokensBought) || !isPositive(minNativeBought) {
		return nil, ErrInvalidParameters
	}
	if recipient.IsZero() || recipient == dest.addr {
		return nil, ErrInvalidRecipient
	}

	nativeBought, err := pricing.InputPrice(tokensSold, &x.reserveToken, &x.reserveBase)
	if err != nil {
		return nil, err
	}
	if nativeBought.Lt(minNativeBought) {
		return nil, ErrSlippageExceeded
	}
	newToken, err := addChecked(&x.reserveToken, tokensSold)
	if err != nil {
		return nil, err
	}

	if err := x.tokens.TransferFrom(x.token, x.addr, buyer, x.addr, tokensSold); err != nil {
		return nil, transferFailed(err)
	}
	tokensBought, err := dest.nativeToTokenInputLocked(buyer, x.addr, recipient, nativeBought, minTokensBought, deadline)
	if err != nil {
		_ = x.tokens.RefundTransferFrom(x.token, x.addr, x.addr, buyer, tokensSold)
		return nil, err
	}

	x.reserveToken.Set(newToken)
	x.reserveBase.Sub(&x.reserveBase, nativeBought)

	x.sink.Emit(events.EthPurchase{
		Exchange:     x.addr,
		Buyer:        buyer,
		TokensSold:   new(uint256.Int).Set(tokensSold),
		NativeBought: new(uint256.Int).Set(nativeBought),
	})
	return tokensBought, nil
}

func (x *Exchange) tokenToTokenOutput(buyer, recipient ledger.Address, tokensBought, maxTokensSold, maxNativeSold *uint256.Int, deadline uint64, dest *Exchange) (*uint256.Int, error) {
	if dest == nil || dest == x || dest.addr == x.addr {
		return nil, ErrInvalidExchange
	}
	lockPair(x, dest)
	defer unlockPair(x, dest)

	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if err := x.swapDeadlineLocked(deadline); err != nil {
		return nil, err
	}
	if !isPositive(tokensBought) || !isPositive(maxTokensSold) || !isPositive(maxNativeSold) {
		return nil, ErrInvalidParameters
	}
	if recipient.IsZero() || recipient == dest.addr {
		return nil, ErrInvalidRecipient
	}

	// Native needed by the destination leg, quoted under its lock.
	nativeRequired, err := pricing.OutputPrice(tokensBought, &dest.reserveBase, &dest.reserveToken)
	if err != nil {
		return nil, err
	}
	if nativeRequired.Gt(maxNativeSold) {
		return nil, ErrSlippageExceeded
	}
	tokensSold, err := pricing.OutputPrice(nativeRequired, &x.reserveToken, &x.reserveBase)
	if err != nil {
		return nil, err
	}
	if tokensSold.Gt(maxTokensSold) {
		return nil, ErrSlippageExceeded
	}
	newToken, err := addChecked(&x.reserveToken, tokensSold)
	if err != nil {
		return nil, err
	}

	if err := x.tokens.TransferFrom(x.token, x.addr, buyer, x.addr, tokensSold); err != nil {
		return nil, transferFailed(err)
	}
	if _, err := dest.nativeToTokenOutputLocked(buyer, x.addr, recipient, tokensBought, nativeRequired, deadline); err != nil {
		_ = x.tokens.RefundTransferFrom(x.token, x.addr, x.addr, buyer, tokensSold)
		return nil, err
	}

	x.reserveToken.Set(newToken)
	x.reserveBase.Sub(&x.reserveBase, nativeRequired)

	x.sink.Emit(events.EthPurchase{
		Exchange:     x.addr,
		Buyer:        buyer,
		TokensSold:   new(uint256.Int).Set(tokensSold),
		NativeBought: new(uint256.Int).Set(nativeRequired),
	})
	return tokensSold, nil
}

func (x *Exchange) resolve(token ledger.Address) (*Exchange, error) {
	x.mu.Lock()
	registry := x.registry
	x.mu.Unlock()
	if registry == nil {
		return nil, ErrNotConfigured
	}
	dest, ok := registry.Exchange(token)
	if !ok || dest == nil {
		return nil, ErrInvalidExchange
	}
	return dest, nil
}

// TokenToTokenSwapInput sells an exact amount of this exchange's token for the
// other token, routed through the registry. Both legs enforce their own bound.
// Returns the destination tokens bought.
func (x *Exchange) TokenToTokenSwapInput(buyer ledger.Address, tokensSold, minTokensBought, minNativeBought *uint256.Int, deadline uint64, token ledger.Address) (*uint256.Int, error) {
	dest, err := x.resolve(token)
	if err != nil {
		return nil, err
	}
	return x.tokenToTokenInput(buyer, buyer, tokensSold, minTokensBought, minNativeBought, deadline, dest)
}

// TokenToTokenTransferInput is TokenToTokenSwapInput delivering to a named
// recipient. The intermediate native currency never reaches the caller.
func (x *Exchange) TokenToTokenTransferInput(buyer ledger.Address, tokensSold, minTokensBought, minNativeBought *uint256.Int, deadline uint64, recipient, token ledger.Address) (*uint256.Int, error) {
	if recipient.IsZero() || recipient == x.addr {
		return nil, ErrInvalidRecipient
	}
	dest, err := x.resolve(token)
	if err != nil {
		return nil, err
	}
	return x.tokenToTokenInput(buyer, recipient, tokensSold, minTokensBought, minNativeBought, deadline, dest)
}

// TokenToTokenSwapOutput buys an exact amount of the other token, spending at
// most maxTokensSold of this exchange's token and at most maxNativeSold on the
// intermediate leg. Returns the tokens sold.
func (x *Exchange) TokenToTokenSwapOutput(buyer ledger.Address, tokensBought, maxTokensSold, maxNativeSold *uint256.Int, deadline uint64, token ledger.Address) (*uint256.Int, error) {
	dest, err := x.resolve(token)
	if err != nil {
		return nil, err
	}
	return x.tokenToTokenOutput(buyer, buyer, tokensBought, maxTokensSold, maxNativeSold, deadline, dest)
}

// TokenToTokenTransferOutput is TokenToTokenSwapOutput delivering to a named
// recipient.
func (x *Exchange) TokenToTokenTransferOutput(buyer ledger.Address, tokensBought, maxTokensSold, maxNativeSold *uint256.Int, deadline uint64, recipient, token ledger.Address) (*uint256.Int, error) {
	if recipient.IsZero() || recipient == x.addr {
		return nil, ErrInvalidRecipient
	}
	dest, err := x.resolve(token)
	if err != nil {
		return nil, err
	}
	return x.tokenToTokenOutput(buyer, recipient, tokensBought, maxTokensSold, maxNativeSold, deadline, dest)
}

// Token -> exchange: like token -> token but against an explicit exchange
// handle, bypassing the registry. This is what enables routing across
// registries.

// TokenToExchangeSwapInput sells tokens through an explicitly named
// destination exchange.
func (x *Exchange) TokenToExchangeSwapInput(buyer ledger.Address, tokensSold, minTokensBought, minNativeBought *uint256.Int, deadline uint64, dest *Exchange) (*uint256.Int, error) {
	return x.tokenToTokenInput(buyer, buyer, tokensSold, minTokensBought, minNativeBought, deadline, dest)
}

// TokenToExchangeTransferInput is TokenToExchangeSwapInput delivering to a
// named recipient.
func (x *Exchange) TokenToExchangeTransferInput(buyer ledger.Address, tokensSold, minTokensBought, minNativeBought *uint256.Int, deadline uint64, recipient ledger.Address, dest *Exchange) (*uint256.Int, error) {
	if recipient.IsZero() || recipient == x.addr {
		return nil, ErrInvalidRecipient
	}
	return x.tokenToTokenInput(buyer, recipient, tokensSold, minTokensBought, minNativeBought, deadline, dest)
}

// TokenToExchangeSwapOutput buys an exact token amount through an explicitly
// named destination exchange.
func (x *Exchange) TokenToExchangeSwapOutput(buyer ledger.Address, tokensBought, maxTokensSold, maxNativeSold *uint256.Int, deadline uint64, dest *Exchange) (*uint256.Int, error) {
	return x.tokenToTokenOutput(buyer, buyer, tokensBought, maxTokensSold, maxNativeSold, deadline, dest)
}

// TokenToExchangeTransferOutput is TokenToExchangeSwapOutput delivering to a
// named recipient.
func (x *Exchange) TokenToExchangeTransferOutput(buyer ledger.Address, tokensBought, maxTokensSold, maxNativeSold *uint256.Int, deadline uint64, recipient ledger.Address, dest *Exchange) (*uint256.Int, error) {
	if recipient.IsZero() || recipient == x.addr {
		return nil, ErrInvalidRecipient
	}
	return x.tokenToTokenOutput(buyer, recipient, tokensBought, maxTokensSold, maxNativeSold, deadline, dest)
}

// Fallback is the default entry point when no operation is named: an
// exact-input native-to-token swap with a minimum output of one token unit and
// the deadline pinned to the current height.
func (x *Exchange) Fallback(buyer ledger.Address, nativeSold *uint256.Int) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.nativeToTokenInputLocked(buyer, buyer, buyer, nativeSold, uint256.NewInt(1), x.clock.Height())
}

func (x *Exchange) checkRecipientLocked(recipient ledger.Address) error {
	if recipient.IsZero() || recipient == x.addr {
		return ErrInvalidRecipient
	}
	return nil
}
