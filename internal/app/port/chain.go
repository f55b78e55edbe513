package port

import (
	"context"

	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ChainClient is the native-asset side of the ledger.
// Submitting calls block until the transaction is confirmed.
type ChainClient interface {
	// NativeBalance reads the native coin balance of an account.
	NativeBalance(ctx context.Context, holder common.Address) (*uint256.Int, error)

	// SendValue transfers native coin from one account to another and waits for the receipt.
	SendValue(ctx context.Context, from, to common.Address, amount *uint256.Int) (common.Hash, error)
}

// FungibleAsset is the ERC20 surface the pipeline needs.
type FungibleAsset interface {
	BalanceOf(ctx context.Context, token, holder common.Address) (*uint256.Int, error)
	Allowance(ctx context.Context, token, holder, spender common.Address) (*uint256.Int, error)

	// Approve sets the spender's allowance to exactly amount on behalf of holder
	// and waits for the receipt.
	Approve(ctx context.Context, token, holder, spender common.Address, amount *uint256.Int) (common.Hash, error)
}

// SettlementContract is the batched multi-asset transfer contract.
type SettlementContract interface {
	// Address is where holders grant allowances and send native coin.
	Address() common.Address

	Collect(ctx context.Context, recipient common.Address, senders []common.Address, amounts [][]*uint256.Int, tokens []common.Address) (common.Hash, error)
	Disperse(ctx context.Context, sender common.Address, recipients []common.Address, amounts [][]*uint256.Int, tokens []common.Address) (common.Hash, error)
}

// Ledger bundles every chain capability the transfer pipeline consumes.
type Ledger interface {
	ChainClient
	FungibleAsset
	SettlementContract
}

// BalanceBatcher reads many balances in a single round trip.
type BalanceBatcher interface {
	GetBalances(ctx context.Context, requests []entity.BalanceRequestItem) ([]entity.BalanceResultItem, error)
}
