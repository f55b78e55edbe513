package service

import (
	"context"
	"fmt"

	"blazing_api/internal/app/port"
	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// BatchSettlement submits a fully resolved transfer to the settlement
// contract. Amounts must be absolute and every allowance and native leg must
// already be in place; nothing is re-validated here.
type BatchSettlement struct {
	contract port.SettlementContract
	metrics  port.Metrics
	logger   port.Logger
}

// NewBatchSettlement creates a BatchSettlement over contract.
func NewBatchSettlement(contract port.SettlementContract, metrics port.Metrics, logger port.Logger) *BatchSettlement {
	return &BatchSettlement{contract: contract, metrics: metrics, logger: logger}
}

// Submit sends the settlement transaction and waits for its receipt.
func (b *BatchSettlement) Submit(ctx context.Context, transfer entity.ResolvedTransfer) (common.Hash, error) {
	var (
		txHash common.Hash
		err    error
	)
	switch transfer.Kind {
	case entity.CollectTransfer:
		txHash, err = b.contract.Collect(ctx, transfer.Hub, transfer.Parties, transfer.Amounts, transfer.Tokens)
	case entity.DisperseTransfer:
		txHash, err = b.contract.Disperse(ctx, transfer.Hub, transfer.Parties, transfer.Amounts, transfer.Tokens)
	default:
		return common.Hash{}, fmt.Errorf("%w: unknown transfer kind %q", entity.ErrMalformedRequest, transfer.Kind)
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %s: %w", entity.ErrTransaction, transfer.Kind, err)
	}
	b.metrics.ChainWrite(string(transfer.Kind))
	b.logger.Info("Settlement confirmed", "kind", transfer.Kind, "tx", txHash.Hex(),
		"parties", len(transfer.Parties), "tokens", len(transfer.Tokens))
	return txHash, nil
}
