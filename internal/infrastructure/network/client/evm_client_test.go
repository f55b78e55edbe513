package client

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"blazing_api/internal/domain/entity"
	"blazing_api/internal/pkg/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenA   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	holder   = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	contract = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	operator = common.HexToAddress("0x00000000000000000000000000000000000000d1")
)

type fakeBackend struct {
	mu            sync.Mutex
	callResults   map[string][]byte
	receipts      map[common.Hash]*types.Receipt
	pendingPolls  int
	receiptPolls  int
	nativeBalance *big.Int
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.nativeBalance, nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	out, ok := f.callResults[hexutil.Encode(msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return out, nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptPolls++
	if f.receiptPolls <= f.pendingPolls {
		return nil, ethereum.NotFound
	}
	receipt, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(31337), nil
}

type fakeRPC struct {
	sent      []sendTxArgs
	nextHash  common.Hash
	batchFill func(elems []rpc.BatchElem)
}

func (f *fakeRPC) CallContext(_ context.Context, result interface{}, method string, args ...interface{}) error {
	if method != "eth_sendTransaction" {
		return errors.New("unexpected method " + method)
	}
	f.sent = append(f.sent, args[0].(sendTxArgs))
	*result.(*common.Hash) = f.nextHash
	return nil
}

func (f *fakeRPC) BatchCallContext(_ context.Context, elems []rpc.BatchElem) error {
	f.batchFill(elems)
	return nil
}

func newTestClient(backend *fakeBackend, caller *fakeRPC) *EVMClient {
	return newEVMClient(backend, caller, Options{
		ContractAddress: contract,
		OperatorAddress: operator,
		PollInterval:    time.Millisecond,
		MaxBatchSize:    2,
	}, logger.NewDiscard())
}

func encodeUint(t *testing.T, method string, value int64) []byte {
	t.Helper()
	out, err := parsedERC20ABI.Methods[method].Outputs.Pack(big.NewInt(value))
	require.NoError(t, err)
	return out
}

func selector(method string) string {
	return hexutil.Encode(parsedERC20ABI.Methods[method].ID)
}

func TestBalanceOfAndAllowanceUnpack(t *testing.T) {
	initParsedABIs()
	backend := &fakeBackend{callResults: map[string][]byte{
		selector("balanceOf"): encodeUint(t, "balanceOf", 1000),
		selector("allowance"): encodeUint(t, "allowance", 250),
	}}
	c := newTestClient(backend, &fakeRPC{})

	balance, err := c.BalanceOf(context.Background(), tokenA, holder)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance.Uint64())

	allowance, err := c.Allowance(context.Background(), tokenA, holder, contract)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), allowance.Uint64())
}

func TestApproveSendsFromHolderAndWaitsForReceipt(t *testing.T) {
	txHash := common.HexToHash("0x01")
	backend := &fakeBackend{
		pendingPolls: 2,
		receipts:     map[common.Hash]*types.Receipt{txHash: {Status: types.ReceiptStatusSuccessful}},
	}
	caller := &fakeRPC{nextHash: txHash}
	c := newTestClient(backend, caller)

	got, err := c.Approve(context.Background(), tokenA, holder, contract, uint256.NewInt(500))
	require.NoError(t, err)
	assert.Equal(t, txHash, got)
	assert.Equal(t, 3, backend.receiptPolls)

	require.Len(t, caller.sent, 1)
	sent := caller.sent[0]
	assert.Equal(t, holder, sent.From)
	assert.Equal(t, tokenA, sent.To)
	assert.Nil(t, sent.Value)

	args, err := parsedERC20ABI.Methods["approve"].Inputs.Unpack(sent.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, contract, args[0])
	assert.Equal(t, big.NewInt(500), args[1])
}

func TestRevertedReceiptIsAnError(t *testing.T) {
	txHash := common.HexToHash("0x02")
	backend := &fakeBackend{receipts: map[common.Hash]*types.Receipt{
		txHash: {Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(7)},
	}}
	c := newTestClient(backend, &fakeRPC{nextHash: txHash})

	_, err := c.SendValue(context.Background(), holder, contract, uint256.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reverted")
}

func TestWaitForReceiptStopsOnContextCancel(t *testing.T) {
	c := newTestClient(&fakeBackend{}, &fakeRPC{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.waitForReceipt(ctx, common.HexToHash("0x03"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCollectPacksSettlementCallFromOperator(t *testing.T) {
	txHash := common.HexToHash("0x04")
	backend := &fakeBackend{receipts: map[common.Hash]*types.Receipt{txHash: {Status: types.ReceiptStatusSuccessful}}}
	caller := &fakeRPC{nextHash: txHash}
	c := newTestClient(backend, caller)

	amounts := [][]*uint256.Int{{uint256.NewInt(100)}, {uint256.NewInt(7)}}
	tokens := []common.Address{tokenA, entity.NativeAsset}
	got, err := c.Collect(context.Background(), contract, []common.Address{holder}, amounts, tokens)
	require.NoError(t, err)
	assert.Equal(t, txHash, got)

	require.Len(t, caller.sent, 1)
	sent := caller.sent[0]
	assert.Equal(t, operator, sent.From)
	assert.Equal(t, contract, sent.To)

	method := parsedSettlementABI.Methods["collect"]
	assert.Equal(t, method.ID, []byte(sent.Data[:4]))
	args, err := method.Inputs.Unpack(sent.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, []common.Address{holder}, args[1])
	assert.Equal(t, [][]*big.Int{{big.NewInt(100)}, {big.NewInt(7)}}, args[2])
	assert.Equal(t, tokens, args[3])
}

func TestGetBalancesSplitsBatches(t *testing.T) {
	batches := 0
	caller := &fakeRPC{batchFill: func(elems []rpc.BatchElem) {
		batches++
		for i := range elems {
			switch elems[i].Method {
			case "eth_getBalance":
				*elems[i].Result.(*hexutil.Big) = hexutil.Big(*big.NewInt(42))
			case "eth_call":
				out, _ := parsedERC20ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(9))
				*elems[i].Result.(*hexutil.Bytes) = out
			}
		}
	}}
	c := newTestClient(&fakeBackend{}, caller)

	results, err := c.GetBalances(context.Background(), []entity.BalanceRequestItem{
		{Type: entity.NativeBalanceRequest, Holder: holder},
		{Type: entity.TokenBalanceRequest, Holder: holder, Token: tokenA},
		{Type: entity.AllowanceRequest, Holder: holder, Token: tokenA, Spender: contract},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Error)
	}
	assert.Equal(t, uint64(42), results[0].Value.Uint64())
	assert.Equal(t, uint64(9), results[1].Value.Uint64())
	assert.Equal(t, uint64(9), results[2].Value.Uint64())
}
