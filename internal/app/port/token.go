package port

import (
	"context"

	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// TokenMetadataReader reads immutable ERC20 metadata from the chain.
type TokenMetadataReader interface {
	TokenMetadata(ctx context.Context, token common.Address) (entity.TokenInfo, error)
}

// TokenProvider resolves token metadata, consulting local sources first.
type TokenProvider interface {
	GetToken(ctx context.Context, token common.Address) (entity.TokenInfo, error)
}
