package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"blazing_api/internal/app/port"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"golang.org/x/time/rate"
)

// chainBackend is the subset of ethclient.Client the ledger reads through.
type chainBackend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// rpcCaller is the raw JSON-RPC surface used for node-signed transactions and batches.
type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// Options configures an EVMClient.
type Options struct {
	RPCURLs           []string
	ExpectedChainID   uint64
	ContractAddress   common.Address
	OperatorAddress   common.Address
	OperatorKeyHex    string
	ConnectionTimeout time.Duration
	PollInterval      time.Duration
	RateLimit         float64
	BurstLimit        int
	MaxBatchSize      int
}

// EVMClient implements port.Ledger, port.BalanceBatcher and
// port.TokenMetadataReader against an EVM JSON-RPC node.
//
// Holder-side writes (approve, value transfers) are sent with
// eth_sendTransaction and signed by the node. Settlement is signed locally
// when an operator key is configured.
type EVMClient struct {
	backend      chainBackend
	rpc          rpcCaller
	limiter      *rate.Limiter
	contract     common.Address
	operator     common.Address
	signer       *bind.TransactOpts
	bound        *bind.BoundContract
	pollInterval time.Duration
	maxBatchSize int
	logger       port.Logger
}

// NewEVMClient dials the first reachable RPC URL and prepares the settlement signer.
func NewEVMClient(opts Options, logger port.Logger) (*EVMClient, error) {
	initParsedABIs()
	var (
		ethClient *ethclient.Client
		lastErr   error
	)
	for _, rpcURL := range opts.RPCURLs {
		if rpcURL == "" {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectionTimeout)
		client, err := ethclient.DialContext(ctx, rpcURL)
		if err == nil {
			var chainID *big.Int
			chainID, err = client.ChainID(ctx)
			if err == nil && opts.ExpectedChainID != 0 && chainID.Uint64() != opts.ExpectedChainID {
				err = fmt.Errorf("chainID mismatch: expected %d, got %s", opts.ExpectedChainID, chainID)
			}
			if err != nil {
				client.Close()
			}
		}
		cancel()

		if err == nil {
			logger.Info("Connected to RPC node", "rpc", rpcURL)
			ethClient = client
			break
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
		logger.Warn("RPC endpoint unavailable", "rpc", rpcURL, "error", err)
	}
	if ethClient == nil {
		if lastErr == nil {
			lastErr = errors.New("no RPC URL configured")
		}
		return nil, fmt.Errorf("all RPC connection attempts failed: %w", lastErr)
	}

	c := newEVMClient(ethClient, ethClient.Client(), opts, logger)
	if opts.OperatorKeyHex != "" {
		if err := c.useOperatorKey(ethClient, opts.OperatorKeyHex); err != nil {
			ethClient.Close()
			return nil, err
		}
	} else if c.operator == (common.Address{}) {
		if err := c.useFirstNodeAccount(); err != nil {
			ethClient.Close()
			return nil, err
		}
	}
	logger.Info("Settlement operator ready", "operator", c.operator.Hex(), "local_signer", c.signer != nil,
		"contract", c.contract.Hex())
	return c, nil
}

func newEVMClient(backend chainBackend, caller rpcCaller, opts Options, logger port.Logger) *EVMClient {
	initParsedABIs()
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.BurstLimit)
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &EVMClient{
		backend:      backend,
		rpc:          caller,
		limiter:      limiter,
		contract:     opts.ContractAddress,
		operator:     opts.OperatorAddress,
		pollInterval: pollInterval,
		maxBatchSize: opts.MaxBatchSize,
		logger:       logger,
	}
}

func (c *EVMClient) useOperatorKey(ethClient *ethclient.Client, keyHex string) error {
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return fmt.Errorf("invalid operator private key: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chain ID for signer: %w", err)
	}
	signer, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return fmt.Errorf("failed to build operator signer: %w", err)
	}
	c.signer = signer
	c.operator = crypto.PubkeyToAddress(key.PublicKey)
	c.bound = bind.NewBoundContract(c.contract, parsedSettlementABI, ethClient, ethClient, ethClient)
	return nil
}

func (c *EVMClient) useFirstNodeAccount() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var accounts []common.Address
	if err := c.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return fmt.Errorf("failed to list node accounts: %w", err)
	}
	if len(accounts) == 0 {
		return errors.New("no operator configured and the node manages no accounts")
	}
	c.operator = accounts[0]
	return nil
}

// Address returns the settlement contract address.
func (c *EVMClient) Address() common.Address {
	return c.contract
}

// ChainID returns the chain ID reported by the node.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.backend.ChainID(ctx)
}

// NativeBalance reads the latest native coin balance of holder.
func (c *EVMClient) NativeBalance(ctx context.Context, holder common.Address) (*uint256.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	balance, err := c.backend.BalanceAt(ctx, holder, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance %s: %w", holder.Hex(), err)
	}
	return toUint256(balance)
}

// BalanceOf reads the ERC20 balance of holder.
func (c *EVMClient) BalanceOf(ctx context.Context, token, holder common.Address) (*uint256.Int, error) {
	return c.callUint256(ctx, token, "balanceOf", holder)
}

// Allowance reads the ERC20 allowance holder granted to spender.
func (c *EVMClient) Allowance(ctx context.Context, token, holder, spender common.Address) (*uint256.Int, error) {
	return c.callUint256(ctx, token, "allowance", holder, spender)
}

// Approve sets spender's allowance to amount from holder's node-managed account.
func (c *EVMClient) Approve(ctx context.Context, token, holder, spender common.Address, amount *uint256.Int) (common.Hash, error) {
	data, err := parsedERC20ABI.Pack("approve", spender, amount.ToBig())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack approve: %w", err)
	}
	return c.sendAndWait(ctx, holder, token, data, nil)
}

// SendValue transfers native coin from a node-managed account.
func (c *EVMClient) SendValue(ctx context.Context, from, to common.Address, amount *uint256.Int) (common.Hash, error) {
	return c.sendAndWait(ctx, from, to, nil, amount)
}

// Collect submits the batched collect call from the operator.
func (c *EVMClient) Collect(ctx context.Context, recipient common.Address, senders []common.Address, amounts [][]*uint256.Int, tokens []common.Address) (common.Hash, error) {
	data, err := parsedSettlementABI.Pack("collect", recipient, senders, toBigMatrix(amounts), tokens)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack collect: %w", err)
	}
	return c.settle(ctx, data)
}

// Disperse submits the batched disperse call from the operator.
func (c *EVMClient) Disperse(ctx context.Context, sender common.Address, recipients []common.Address, amounts [][]*uint256.Int, tokens []common.Address) (common.Hash, error) {
	data, err := parsedSettlementABI.Pack("disperse", sender, recipients, toBigMatrix(amounts), tokens)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack disperse: %w", err)
	}
	return c.settle(ctx, data)
}

func (c *EVMClient) settle(ctx context.Context, data []byte) (common.Hash, error) {
	if c.bound == nil {
		return c.sendAndWait(ctx, c.operator, c.contract, data, nil)
	}
	if err := c.wait(ctx); err != nil {
		return common.Hash{}, err
	}
	opts := *c.signer
	opts.Context = ctx
	tx, err := c.bound.RawTransact(&opts, data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to send settlement: %w", err)
	}
	c.logger.Debug("Settlement submitted", "tx", tx.Hash().Hex(), "nonce", tx.Nonce())
	return tx.Hash(), c.waitForReceipt(ctx, tx.Hash())
}

// sendTxArgs is the eth_sendTransaction parameter object.
type sendTxArgs struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data,omitempty"`
	Value *hexutil.Big   `json:"value,omitempty"`
}

func (c *EVMClient) sendAndWait(ctx context.Context, from, to common.Address, data []byte, value *uint256.Int) (common.Hash, error) {
	args := sendTxArgs{From: from, To: to, Data: data}
	if value != nil {
		args.Value = (*hexutil.Big)(value.ToBig())
	}
	if err := c.wait(ctx); err != nil {
		return common.Hash{}, err
	}
	var txHash common.Hash
	if err := c.rpc.CallContext(ctx, &txHash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction from %s: %w", from.Hex(), err)
	}
	c.logger.Debug("Transaction submitted", "tx", txHash.Hex(), "from", from.Hex(), "to", to.Hex())
	return txHash, c.waitForReceipt(ctx, txHash)
}

// waitForReceipt polls until the transaction is mined. It has no deadline of
// its own; only ctx can stop it.
func (c *EVMClient) waitForReceipt(ctx context.Context, txHash common.Hash) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		if err := c.wait(ctx); err != nil {
			return err
		}
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted in block %s", txHash.Hex(), receipt.BlockNumber)
			}
			return nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return fmt.Errorf("fetch receipt %s: %w", txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *EVMClient) callUint256(ctx context.Context, token common.Address, method string, args ...interface{}) (*uint256.Int, error) {
	data, err := parsedERC20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", method, token.Hex(), err)
	}
	return unpackUint256(method, out)
}

func (c *EVMClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func unpackUint256(method string, out []byte) (*uint256.Int, error) {
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no data", method)
	}
	unpacked, err := parsedERC20ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w. Raw: %s", method, err, hexutil.Encode(out))
	}
	if len(unpacked) == 0 {
		return nil, fmt.Errorf("%s unpack returned no data", method)
	}
	value, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to assert %s result to *big.Int. Got: %T", method, unpacked[0])
	}
	return toUint256(value)
}

func toUint256(value *big.Int) (*uint256.Int, error) {
	if value == nil {
		return new(uint256.Int), nil
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %s", value)
	}
	result, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("amount %s exceeds 256 bits", value)
	}
	return result, nil
}

func toBigMatrix(amounts [][]*uint256.Int) [][]*big.Int {
	matrix := make([][]*big.Int, len(amounts))
	for i, row := range amounts {
		matrix[i] = make([]*big.Int, len(row))
		for j, amount := range row {
			matrix[i][j] = amount.ToBig()
		}
	}
	return matrix
}

// Close releases the underlying RPC connection.
func (c *EVMClient) Close() {
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

var (
	_ port.Ledger              = (*EVMClient)(nil)
	_ port.BalanceBatcher      = (*EVMClient)(nil)
	_ port.TokenMetadataReader = (*EVMClient)(nil)
)
