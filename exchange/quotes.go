package exchange

import (
	"github.com/holiman/uint256"

	"github.com/vsc-eco/vsc-amm/pricing"
)

// Read-only price queries over the current reserves. Quotes use the same
// formulas as the swap paths, so a quote taken and executed under the same
// reserve snapshot realizes exactly.

// NativeToTokenInputPrice quotes the tokens bought with an exact native amount.
func (x *Exchange) NativeToTokenInputPrice(nativeSold *uint256.Int) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if !isPositive(nativeSold) {
		return nil, ErrInvalidParameters
	}
	return pricing.InputPrice(nativeSold, &x.reserveBase, &x.reserveToken)
}

// NativeToTokenOutputPrice quotes the native amount required to buy an exact
// token amount.
func (x *Exchange) NativeToTokenOutputPrice(tokensBought *uint256.Int) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if !isPositive(tokensBought) {
		return nil, ErrInvalidParameters
	}
	return pricing.OutputPrice(tokensBought, &x.reserveBase, &x.reserveToken)
}

// TokenToNativeInputPrice quotes the native currency bought with an exact
// token amount.
func (x *Exchange) TokenToNativeInputPrice(tokensSold *uint256.Int) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if !isPositive(tokensSold) {
		return nil, ErrInvalidParameters
	}
	return pricing.InputPrice(tokensSold, &x.reserveToken, &x.reserveBase)
}

// TokenToNativeOutputPrice quotes the tokens required to buy an exact native
// amount.
func (x *Exchange) TokenToNativeOutputPrice(nativeBought *uint256.Int) (*uint256.Int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.activeLocked(); err != nil {
		return nil, err
	}
	if !isPositive(nativeBought) {
		return nil, ErrInvalidParameters
	}
	return pricing.OutputPrice(nativeBought, &x.reserveToken, &x.reserveBase)
}
