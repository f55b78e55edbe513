package provider

import (
	"context"
	"fmt"
	"time"

	"blazing_api/internal/app/port"
	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
)

type tokenProviderImpl struct {
	registry map[common.Address]entity.TokenInfo
	reader   port.TokenMetadataReader
	native   entity.TokenInfo
	logger   port.Logger
	cache    *cache.Cache
}

// NewTokenProvider creates a new TokenProvider. Registry entries win over
// on-chain lookups, which are cached for expiration.
func NewTokenProvider(
	registry map[common.Address]entity.TokenInfo,
	reader port.TokenMetadataReader,
	nativeSymbol string,
	expiration, cleanupInterval time.Duration,
	logger port.Logger,
) port.TokenProvider {
	return &tokenProviderImpl{
		registry: registry,
		reader:   reader,
		native:   entity.TokenInfo{Address: entity.NativeAsset, Symbol: nativeSymbol, Decimals: 18},
		logger:   logger,
		cache:    cache.New(expiration, cleanupInterval),
	}
}

// GetToken returns the metadata of token.
func (p *tokenProviderImpl) GetToken(ctx context.Context, token common.Address) (entity.TokenInfo, error) {
	if entity.IsNativeAsset(token) {
		return p.native, nil
	}
	if info, ok := p.registry[token]; ok {
		return info, nil
	}
	key := token.Hex()
	if cached, ok := p.cache.Get(key); ok {
		p.logger.Debug("Returning cached token metadata", "token", key)
		return cached.(entity.TokenInfo), nil
	}

	info, err := p.reader.TokenMetadata(ctx, token)
	if err != nil {
		p.logger.Warn("Failed to read token metadata", "token", key, "error", err)
		return entity.TokenInfo{}, fmt.Errorf("token metadata for %s: %w", key, err)
	}
	p.cache.Set(key, info, cache.DefaultExpiration)
	p.logger.Debug("Token metadata cached", "token", key, "symbol", info.Symbol, "decimals", info.Decimals)
	return info, nil
}
