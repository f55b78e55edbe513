package entity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Balance is one asset position of a holder, with the allowance granted to the
// settlement contract. Allowance is nil for the native asset.
type Balance struct {
	Token            common.Address `json:"token"`
	Symbol           string         `json:"symbol"`
	Decimals         uint8          `json:"decimals"`
	IsNative         bool           `json:"isNative"`
	Amount           *uint256.Int   `json:"amount"`
	FormattedBalance string         `json:"formattedBalance"`
	Allowance        *uint256.Int   `json:"allowance,omitempty"`
}

// HolderBalances is the balance snapshot of a single holder.
type HolderBalances struct {
	Holder   common.Address `json:"holder"`
	Spender  common.Address `json:"spender"`
	Balances []Balance      `json:"balances"`
}
