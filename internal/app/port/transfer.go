package port

import (
	"context"

	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// TransferService executes and previews batched transfers.
type TransferService interface {
	Collect(ctx context.Context, req entity.CollectRequest) (common.Hash, error)
	Disperse(ctx context.Context, req entity.DisperseRequest) (common.Hash, error)

	// PreviewCollect and PreviewDisperse plan a transfer without writing to the chain.
	PreviewCollect(ctx context.Context, req entity.CollectRequest) (*entity.TransferPlan, error)
	PreviewDisperse(ctx context.Context, req entity.DisperseRequest) (*entity.TransferPlan, error)
}

// BalanceService reports holder balances and allowances.
type BalanceService interface {
	HolderBalances(ctx context.Context, holder common.Address, tokens []common.Address) (*entity.HolderBalances, error)
}

// Metrics records pipeline outcomes.
type Metrics interface {
	ObserveRequest(kind entity.TransferKind, outcome string, seconds float64)
	StageFailed(kind entity.TransferKind, stage entity.Stage, code string)
	ChainWrite(operation string)
}
