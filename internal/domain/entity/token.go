package entity

import "github.com/ethereum/go-ethereum/common"

// TokenInfo holds the details of a specific token.
type TokenInfo struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}
