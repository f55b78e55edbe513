package service

import (
	"context"
	"fmt"

	"blazing_api/internal/app/port"
	"blazing_api/internal/domain/entity"
	"blazing_api/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceServiceImpl implements port.BalanceService.
type BalanceServiceImpl struct {
	batcher       port.BalanceBatcher
	tokenProvider port.TokenProvider
	spender       common.Address
	logger        port.Logger
}

// NewBalanceService creates a new instance of BalanceServiceImpl. Allowances
// are reported against spender.
func NewBalanceService(batcher port.BalanceBatcher, tp port.TokenProvider, spender common.Address, l port.Logger) *BalanceServiceImpl {
	return &BalanceServiceImpl{
		batcher:       batcher,
		tokenProvider: tp,
		spender:       spender,
		logger:        l,
	}
}

// HolderBalances reads the native balance of holder plus the balance and
// allowance of every listed token in one batched round trip. The native asset
// always comes first; duplicates in tokens are reported once.
func (s *BalanceServiceImpl) HolderBalances(ctx context.Context, holder common.Address, tokens []common.Address) (*entity.HolderBalances, error) {
	assets := []common.Address{entity.NativeAsset}
	seen := map[common.Address]bool{entity.NativeAsset: true}
	for _, token := range tokens {
		if !seen[token] {
			seen[token] = true
			assets = append(assets, token)
		}
	}

	requests := []entity.BalanceRequestItem{{Type: entity.NativeBalanceRequest, Holder: holder}}
	for _, token := range assets[1:] {
		requests = append(requests,
			entity.BalanceRequestItem{Type: entity.TokenBalanceRequest, Holder: holder, Token: token},
			entity.BalanceRequestItem{Type: entity.AllowanceRequest, Holder: holder, Token: token, Spender: s.spender},
		)
	}

	s.logger.Debug("Fetching holder balances", "holder", holder.Hex(), "tokens", len(assets)-1)
	results, err := s.batcher.GetBalances(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("%w: balances of %s: %w", entity.ErrTransaction, holder.Hex(), err)
	}
	if len(results) != len(requests) {
		return nil, fmt.Errorf("%w: expected %d balance results, got %d", entity.ErrTransaction, len(requests), len(results))
	}

	out := &entity.HolderBalances{
		Holder:   holder,
		Spender:  s.spender,
		Balances: make([]entity.Balance, 0, len(assets)),
	}
	for i, asset := range assets {
		info, err := s.tokenProvider.GetToken(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", entity.ErrTransaction, err)
		}

		balance := entity.Balance{
			Token:    asset,
			Symbol:   info.Symbol,
			Decimals: info.Decimals,
			IsNative: entity.IsNativeAsset(asset),
		}
		if i == 0 {
			if results[0].Error != nil {
				return nil, fmt.Errorf("%w: %w", entity.ErrTransaction, results[0].Error)
			}
			balance.Amount = results[0].Value
		} else {
			balanceResult, allowanceResult := results[2*i-1], results[2*i]
			if balanceResult.Error != nil {
				return nil, fmt.Errorf("%w: %w", entity.ErrTransaction, balanceResult.Error)
			}
			if allowanceResult.Error != nil {
				return nil, fmt.Errorf("%w: %w", entity.ErrTransaction, allowanceResult.Error)
			}
			balance.Amount = balanceResult.Value
			balance.Allowance = allowanceResult.Value
		}
		balance.FormattedBalance = utils.FormatAmount(balance.Amount, info.Decimals)
		out.Balances = append(out.Balances, balance)
	}
	return out, nil
}

var _ port.BalanceService = (*BalanceServiceImpl)(nil)
