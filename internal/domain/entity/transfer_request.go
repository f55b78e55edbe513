package entity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// NativeAsset is the asset identifier reserved for the chain's native coin.
var NativeAsset = common.Address{}

// IsNativeAsset reports whether the asset identifier denotes the native coin.
func IsNativeAsset(asset common.Address) bool {
	return asset == NativeAsset
}

// TransferKind distinguishes the two batched settlement directions.
type TransferKind string

const (
	// CollectTransfer pulls funds from many senders into one recipient.
	CollectTransfer TransferKind = "collect"
	// DisperseTransfer pushes funds from one sender to many recipients.
	DisperseTransfer TransferKind = "disperse"
)

// CollectRequest asks for funds to be pulled from Senders into Recipient.
// Amounts is indexed [token][sender].
type CollectRequest struct {
	Recipient    common.Address
	Senders      []common.Address
	Tokens       []common.Address
	Amounts      [][]*uint256.Int
	IsPercentage bool
}

// DisperseRequest asks for funds to be pushed from Sender to Recipients.
// Amounts is indexed [token][recipient].
type DisperseRequest struct {
	Sender       common.Address
	Recipients   []common.Address
	Tokens       []common.Address
	Amounts      [][]*uint256.Int
	IsPercentage bool
}

// TransferRequest is the direction-neutral view of a collect or disperse
// request. Hub is the single party, Parties the many.
type TransferRequest struct {
	Kind         TransferKind
	Hub          common.Address
	Parties      []common.Address
	Tokens       []common.Address
	Amounts      [][]*uint256.Int
	IsPercentage bool
}

// Normalize returns the direction-neutral view of the collect request.
func (r CollectRequest) Normalize() TransferRequest {
	return TransferRequest{
		Kind:         CollectTransfer,
		Hub:          r.Recipient,
		Parties:      r.Senders,
		Tokens:       r.Tokens,
		Amounts:      r.Amounts,
		IsPercentage: r.IsPercentage,
	}
}

// Normalize returns the direction-neutral view of the disperse request.
func (r DisperseRequest) Normalize() TransferRequest {
	return TransferRequest{
		Kind:         DisperseTransfer,
		Hub:          r.Sender,
		Parties:      r.Recipients,
		Tokens:       r.Tokens,
		Amounts:      r.Amounts,
		IsPercentage: r.IsPercentage,
	}
}
