package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"blazing_api/internal/domain/entity"
	"blazing_api/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// GetBalances fetches native balances, token balances and allowances using
// JSON-RPC batch requests. Per-item failures are reported on the item.
func (c *EVMClient) GetBalances(ctx context.Context, requests []entity.BalanceRequestItem) ([]entity.BalanceResultItem, error) {
	results := make([]entity.BalanceResultItem, 0, len(requests))
	for _, batch := range utils.Batch(requests, c.maxBatchSize) {
		batchResults, err := c.getBalancesBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		results = append(results, batchResults...)
	}
	return results, nil
}

func (c *EVMClient) getBalancesBatch(ctx context.Context, requests []entity.BalanceRequestItem) ([]entity.BalanceResultItem, error) {
	batchElems := make([]rpc.BatchElem, len(requests))
	results := make([]entity.BalanceResultItem, len(requests))

	for i, reqItem := range requests {
		results[i] = entity.BalanceResultItem{Request: reqItem}

		var err error
		switch reqItem.Type {
		case entity.NativeBalanceRequest:
			batchElems[i] = rpc.BatchElem{
				Method: "eth_getBalance",
				Args:   []interface{}{reqItem.Holder, "latest"},
				Result: new(hexutil.Big),
			}
		case entity.TokenBalanceRequest:
			batchElems[i], err = callElem(reqItem.Token, "balanceOf", reqItem.Holder)
		case entity.AllowanceRequest:
			batchElems[i], err = callElem(reqItem.Token, "allowance", reqItem.Holder, reqItem.Spender)
		default:
			err = fmt.Errorf("unknown balance request type: %v", reqItem.Type)
		}
		if err != nil {
			results[i].Error = err
			// keep the batch well formed; the result is ignored
			batchElems[i] = rpc.BatchElem{Method: "eth_chainId", Result: new(hexutil.Big)}
		}
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if err := c.rpc.BatchCallContext(ctx, batchElems); err != nil {
		return nil, fmt.Errorf("RPC batch call failed: %w", err)
	}

	for i, elem := range batchElems {
		if results[i].Error != nil {
			continue
		}
		req := requests[i]
		if elem.Error != nil {
			results[i].Error = fmt.Errorf("failed to fetch %s for holder %s: %w", describe(req), req.Holder.Hex(), elem.Error)
			continue
		}

		switch req.Type {
		case entity.NativeBalanceRequest:
			value, err := toUint256((*big.Int)(elem.Result.(*hexutil.Big)))
			results[i].Value, results[i].Error = value, err
		case entity.TokenBalanceRequest:
			results[i].Value, results[i].Error = unpackUint256("balanceOf", *elem.Result.(*hexutil.Bytes))
		case entity.AllowanceRequest:
			results[i].Value, results[i].Error = unpackUint256("allowance", *elem.Result.(*hexutil.Bytes))
		}
	}
	return results, nil
}

// TokenMetadata reads symbol and decimals of an ERC20 token in one batch.
func (c *EVMClient) TokenMetadata(ctx context.Context, token common.Address) (entity.TokenInfo, error) {
	symbolElem, err := callElem(token, "symbol")
	if err != nil {
		return entity.TokenInfo{}, err
	}
	decimalsElem, err := callElem(token, "decimals")
	if err != nil {
		return entity.TokenInfo{}, err
	}
	batchElems := []rpc.BatchElem{symbolElem, decimalsElem}
	if err := c.wait(ctx); err != nil {
		return entity.TokenInfo{}, err
	}
	if err := c.rpc.BatchCallContext(ctx, batchElems); err != nil {
		return entity.TokenInfo{}, fmt.Errorf("RPC batch call failed: %w", err)
	}

	info := entity.TokenInfo{Address: token}
	if elem := batchElems[1]; elem.Error != nil {
		return entity.TokenInfo{}, fmt.Errorf("decimals on %s: %w", token.Hex(), elem.Error)
	}
	decimals, err := parsedERC20ABI.Unpack("decimals", *batchElems[1].Result.(*hexutil.Bytes))
	if err != nil || len(decimals) == 0 {
		return entity.TokenInfo{}, fmt.Errorf("failed to unpack decimals of %s: %v", token.Hex(), err)
	}
	value, ok := decimals[0].(uint8)
	if !ok {
		return entity.TokenInfo{}, fmt.Errorf("failed to assert decimals of %s to uint8. Got: %T", token.Hex(), decimals[0])
	}
	info.Decimals = value

	info.Symbol = "UNKNOWN"
	if elem := batchElems[0]; elem.Error == nil {
		raw := *elem.Result.(*hexutil.Bytes)
		if symbol, err := parsedERC20ABI.Unpack("symbol", raw); err == nil && len(symbol) > 0 {
			if s, ok := symbol[0].(string); ok && s != "" {
				info.Symbol = s
			}
		} else if len(raw) == 32 {
			// some older tokens return bytes32 instead of string
			info.Symbol = strings.TrimRight(string(raw), "\x00")
		}
	}
	return info, nil
}

func callElem(token common.Address, method string, args ...interface{}) (rpc.BatchElem, error) {
	data, err := parsedERC20ABI.Pack(method, args...)
	if err != nil {
		return rpc.BatchElem{}, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	callArgs := map[string]interface{}{
		"to":   token,
		"data": hexutil.Bytes(data),
	}
	return rpc.BatchElem{
		Method: "eth_call",
		Args:   []interface{}{callArgs, "latest"},
		Result: new(hexutil.Bytes),
	}, nil
}

func describe(req entity.BalanceRequestItem) string {
	switch req.Type {
	case entity.NativeBalanceRequest:
		return "native balance"
	case entity.AllowanceRequest:
		return "allowance on " + req.Token.Hex()
	default:
		return "balance on " + req.Token.Hex()
	}
}
