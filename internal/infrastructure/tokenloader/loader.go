package tokenloader

import (
	"errors"
	"fmt"
	"os"

	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// registryEntry is one token in the registry file.
type registryEntry struct {
	ChainID  uint64         `json:"chainId"`
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// TokenFileLoader reads the token registry file.
type TokenFileLoader struct {
	filePath   string
	loggerInfo func(msg string, args ...any)
	loggerWarn func(msg string, args ...any)
}

// NewTokenLoader creates a new TokenFileLoader for filePath.
func NewTokenLoader(filePath string, loggerInfo func(msg string, args ...any), loggerWarn func(msg string, args ...any)) *TokenFileLoader {
	return &TokenFileLoader{
		filePath:   filePath,
		loggerInfo: loggerInfo,
		loggerWarn: loggerWarn,
	}
}

// LoadTokens parses the registry and keeps the tokens of chainID. A missing
// file yields an empty registry; an unreadable or malformed one is an error.
func (l *TokenFileLoader) LoadTokens(chainID uint64) (map[common.Address]entity.TokenInfo, error) {
	tokens := make(map[common.Address]entity.TokenInfo)
	if l.filePath == "" {
		return tokens, nil
	}

	data, err := os.ReadFile(l.filePath)
	if errors.Is(err, os.ErrNotExist) {
		if l.loggerWarn != nil {
			l.loggerWarn("Token registry file not found, metadata will be read on chain", "path", l.filePath)
		}
		return tokens, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token registry %s: %w", l.filePath, err)
	}

	var entries []registryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token registry %s: %w", l.filePath, err)
	}

	for _, entry := range entries {
		if chainID != 0 && entry.ChainID != 0 && entry.ChainID != chainID {
			if l.loggerWarn != nil {
				l.loggerWarn("Token has mismatched ChainID in registry, skipping token.",
					"path", l.filePath, "token_symbol", entry.Symbol, "token_address", entry.Address.Hex(),
					"token_chain_id", entry.ChainID, "expected_chain_id", chainID)
			}
			continue
		}
		tokens[entry.Address] = entity.TokenInfo{
			Address:  entry.Address,
			Symbol:   entry.Symbol,
			Decimals: entry.Decimals,
		}
	}

	if l.loggerInfo != nil {
		l.loggerInfo("Token registry loaded", "path", l.filePath, "count", len(tokens))
	}
	return tokens, nil
}
