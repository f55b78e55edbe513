package utils

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// FormatAmount converts a raw token amount to a human-readable decimal string
// for the given number of decimals, trimming trailing zeros.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatAmount(amount *uint256.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.Dec()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(amount.ToBig(), divisor, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}

	fracStr := frac.String()
	fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")
	return whole.String() + "." + fracStr
}
