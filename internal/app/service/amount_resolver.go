package service

import (
	"fmt"

	"blazing_api/internal/domain/entity"

	"github.com/holiman/uint256"
)

var percentDenominator = uint256.NewInt(100)

// ResolveAmount turns a requested amount into an absolute quantity. A
// percentage resolves to floor(balance * requested / 100); the product is
// checked against the 256-bit range and never wraps.
func ResolveAmount(isPercentage bool, balance, requested *uint256.Int) (*uint256.Int, error) {
	if !isPercentage {
		return new(uint256.Int).Set(requested), nil
	}
	product, overflow := new(uint256.Int).MulOverflow(balance, requested)
	if overflow {
		return nil, fmt.Errorf("%w: %s%% of %s", entity.ErrArithmeticOverflow, requested.Dec(), balance.Dec())
	}
	return product.Div(product, percentDenominator), nil
}

// SumAmounts adds amounts, failing instead of wrapping past 2^256-1.
func SumAmounts(amounts []*uint256.Int) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, amount := range amounts {
		if _, overflow := total.AddOverflow(total, amount); overflow {
			return nil, fmt.Errorf("%w: total exceeds 256 bits", entity.ErrArithmeticOverflow)
		}
	}
	return total, nil
}
