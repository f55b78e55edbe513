package entity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BalanceRequestType defines the type of balance request.
type BalanceRequestType int

const (
	// NativeBalanceRequest requests the native balance of a wallet.
	NativeBalanceRequest BalanceRequestType = iota
	// TokenBalanceRequest requests the balance of a specific token for a wallet.
	TokenBalanceRequest
	// AllowanceRequest requests the allowance a wallet granted to a spender.
	AllowanceRequest
)

// BalanceRequestItem represents a single item in a batch request for balances.
type BalanceRequestItem struct {
	Type    BalanceRequestType
	Holder  common.Address
	Token   common.Address
	Spender common.Address
}

// BalanceResultItem represents the result of a single balance request from a batch.
type BalanceResultItem struct {
	Request BalanceRequestItem
	Value   *uint256.Int
	Error   error
}
