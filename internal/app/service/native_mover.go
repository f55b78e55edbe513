package service

import (
	"context"
	"fmt"

	"blazing_api/internal/app/port"
	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// NativeAssetMover moves the native coin leg of a transfer into the
// settlement contract. The native coin has no allowance.
type NativeAssetMover struct {
	chain       port.ChainClient
	destination common.Address
	metrics     port.Metrics
	logger      port.Logger
}

// NewNativeAssetMover creates a mover sending to destination.
func NewNativeAssetMover(chain port.ChainClient, destination common.Address, metrics port.Metrics, logger port.Logger) *NativeAssetMover {
	return &NativeAssetMover{chain: chain, destination: destination, metrics: metrics, logger: logger}
}

// ReadBalance reads the holder's native balance.
func (m *NativeAssetMover) ReadBalance(ctx context.Context, holder common.Address) (*uint256.Int, error) {
	balance, err := m.chain.NativeBalance(ctx, holder)
	if err != nil {
		return nil, fmt.Errorf("%w: read native balance: %w", entity.ErrTransaction, err)
	}
	return balance, nil
}

// Check fails with ErrInsufficientBalance when balance cannot cover amount.
func (m *NativeAssetMover) Check(balance, amount *uint256.Int) error {
	if balance.Lt(amount) {
		return fmt.Errorf("%w: native balance %s, needed %s", entity.ErrInsufficientBalance, balance.Dec(), amount.Dec())
	}
	return nil
}

// MoveIfNonZero transfers amount from holder to the destination and waits for
// confirmation. A zero amount touches nothing on chain.
func (m *NativeAssetMover) MoveIfNonZero(ctx context.Context, holder common.Address, amount *uint256.Int) (bool, error) {
	if amount.IsZero() {
		return false, nil
	}
	balance, err := m.ReadBalance(ctx, holder)
	if err != nil {
		return false, err
	}
	if err := m.Check(balance, amount); err != nil {
		return false, err
	}

	txHash, err := m.chain.SendValue(ctx, holder, m.destination, amount)
	if err != nil {
		return false, fmt.Errorf("%w: send value: %w", entity.ErrTransaction, err)
	}
	m.metrics.ChainWrite("native_transfer")
	m.logger.Info("Native leg moved", "holder", holder.Hex(), "amount", amount.Dec(), "tx", txHash.Hex())
	return true, nil
}
