package service

import (
	"context"
	"fmt"

	"blazing_api/internal/app/port"
	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AuthorizationGate checks that a holder can cover an amount of a token and
// lifts the spender's allowance when it falls short.
type AuthorizationGate struct {
	assets  port.FungibleAsset
	spender common.Address
	metrics port.Metrics
	logger  port.Logger
}

// NewAuthorizationGate creates a gate elevating allowances for spender.
func NewAuthorizationGate(assets port.FungibleAsset, spender common.Address, metrics port.Metrics, logger port.Logger) *AuthorizationGate {
	return &AuthorizationGate{assets: assets, spender: spender, metrics: metrics, logger: logger}
}

// ReadState reads the holder's current balance and allowance. Nothing is cached.
func (g *AuthorizationGate) ReadState(ctx context.Context, token, holder common.Address) (entity.AuthorizationState, error) {
	balance, err := g.assets.BalanceOf(ctx, token, holder)
	if err != nil {
		return entity.AuthorizationState{}, fmt.Errorf("%w: read balance: %w", entity.ErrTransaction, err)
	}
	allowance, err := g.assets.Allowance(ctx, token, holder, g.spender)
	if err != nil {
		return entity.AuthorizationState{}, fmt.Errorf("%w: read allowance: %w", entity.ErrTransaction, err)
	}
	return entity.AuthorizationState{Balance: balance, Allowance: allowance}, nil
}

// Check fails with ErrInsufficientBalance when the balance is below needed.
func (g *AuthorizationGate) Check(state entity.AuthorizationState, needed *uint256.Int) error {
	if state.Balance.Lt(needed) {
		return fmt.Errorf("%w: balance %s, needed %s", entity.ErrInsufficientBalance, state.Balance.Dec(), needed.Dec())
	}
	return nil
}

// Ensure runs Check and then, if the allowance is short, sets it to exactly
// needed and waits for confirmation. It reports whether an approve was sent.
func (g *AuthorizationGate) Ensure(ctx context.Context, token, holder common.Address, state entity.AuthorizationState, needed *uint256.Int) (bool, error) {
	if err := g.Check(state, needed); err != nil {
		return false, err
	}
	if !state.Allowance.Lt(needed) {
		return false, nil
	}

	g.logger.Debug("Raising allowance", "token", token.Hex(), "holder", holder.Hex(),
		"current", state.Allowance.Dec(), "needed", needed.Dec())
	txHash, err := g.assets.Approve(ctx, token, holder, g.spender, needed)
	if err != nil {
		return false, fmt.Errorf("%w: approve: %w", entity.ErrTransaction, err)
	}
	g.metrics.ChainWrite("approve")
	g.logger.Info("Allowance raised", "token", token.Hex(), "holder", holder.Hex(), "tx", txHash.Hex())
	return true, nil
}
