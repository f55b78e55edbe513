package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"blazing_api/internal/app/port"
	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	settlementAddr = common.HexToAddress("0x5e77000000000000000000000000000000000001")
	hubAddr        = common.HexToAddress("0x4b00000000000000000000000000000000000001")
	aliceAddr      = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bobAddr        = common.HexToAddress("0xb0b0000000000000000000000000000000000001")
	tokenX         = common.HexToAddress("0x7000000000000000000000000000000000000001")
	tokenY         = common.HexToAddress("0x7000000000000000000000000000000000000002")
)

type approveCall struct {
	Token, Holder, Spender common.Address
	Amount                 *uint256.Int
}

type sendCall struct {
	From, To common.Address
	Amount   *uint256.Int
}

type settleCall struct {
	Kind    entity.TransferKind
	Hub     common.Address
	Parties []common.Address
	Amounts [][]*uint256.Int
	Tokens  []common.Address
}

// fakeLedger is an in-memory port.Ledger that records every call.
type fakeLedger struct {
	mu         sync.Mutex
	balances   map[common.Address]map[common.Address]*uint256.Int // token -> holder
	allowances map[common.Address]map[common.Address]*uint256.Int
	native     map[common.Address]*uint256.Int

	reads    int
	approves []approveCall
	sends    []sendCall
	settles  []settleCall

	approveErr error
	settleErr  error
	readErr    error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:   map[common.Address]map[common.Address]*uint256.Int{},
		allowances: map[common.Address]map[common.Address]*uint256.Int{},
		native:     map[common.Address]*uint256.Int{},
	}
}

func (f *fakeLedger) setBalance(token, holder common.Address, amount uint64) {
	if f.balances[token] == nil {
		f.balances[token] = map[common.Address]*uint256.Int{}
	}
	f.balances[token][holder] = uint256.NewInt(amount)
}

func (f *fakeLedger) setAllowance(token, holder common.Address, amount uint64) {
	if f.allowances[token] == nil {
		f.allowances[token] = map[common.Address]*uint256.Int{}
	}
	f.allowances[token][holder] = uint256.NewInt(amount)
}

func (f *fakeLedger) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.approves) + len(f.sends) + len(f.settles)
}

func lookup(m map[common.Address]map[common.Address]*uint256.Int, token, holder common.Address) *uint256.Int {
	if v, ok := m[token][holder]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

func (f *fakeLedger) Address() common.Address { return settlementAddr }

func (f *fakeLedger) NativeBalance(_ context.Context, holder common.Address) (*uint256.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	if v, ok := f.native[holder]; ok {
		return new(uint256.Int).Set(v), nil
	}
	return new(uint256.Int), nil
}

func (f *fakeLedger) SendValue(_ context.Context, from, to common.Address, amount *uint256.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sendCall{From: from, To: to, Amount: amount})
	return common.HexToHash(fmt.Sprintf("0x%x", 0x100+len(f.sends))), nil
}

func (f *fakeLedger) BalanceOf(_ context.Context, token, holder common.Address) (*uint256.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return lookup(f.balances, token, holder), nil
}

func (f *fakeLedger) Allowance(_ context.Context, token, holder, spender common.Address) (*uint256.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if spender != settlementAddr {
		return nil, errors.New("unexpected spender")
	}
	return lookup(f.allowances, token, holder), nil
}

func (f *fakeLedger) Approve(_ context.Context, token, holder, spender common.Address, amount *uint256.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approves = append(f.approves, approveCall{Token: token, Holder: holder, Spender: spender, Amount: amount})
	if f.approveErr != nil {
		return common.Hash{}, f.approveErr
	}
	if f.allowances[token] == nil {
		f.allowances[token] = map[common.Address]*uint256.Int{}
	}
	f.allowances[token][holder] = new(uint256.Int).Set(amount)
	return common.HexToHash(fmt.Sprintf("0x%x", 0x200+len(f.approves))), nil
}

func (f *fakeLedger) Collect(_ context.Context, recipient common.Address, senders []common.Address, amounts [][]*uint256.Int, tokens []common.Address) (common.Hash, error) {
	return f.settle(entity.CollectTransfer, recipient, senders, amounts, tokens)
}

func (f *fakeLedger) Disperse(_ context.Context, sender common.Address, recipients []common.Address, amounts [][]*uint256.Int, tokens []common.Address) (common.Hash, error) {
	return f.settle(entity.DisperseTransfer, sender, recipients, amounts, tokens)
}

func (f *fakeLedger) settle(kind entity.TransferKind, hub common.Address, parties []common.Address, amounts [][]*uint256.Int, tokens []common.Address) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settles = append(f.settles, settleCall{Kind: kind, Hub: hub, Parties: parties, Amounts: amounts, Tokens: tokens})
	if f.settleErr != nil {
		return common.Hash{}, f.settleErr
	}
	return common.HexToHash("0x5e771e"), nil
}

var _ port.Ledger = (*fakeLedger)(nil)

type recordingMetrics struct {
	mu     sync.Mutex
	writes []string
	failed []entity.Stage
}

func (m *recordingMetrics) ObserveRequest(entity.TransferKind, string, float64) {}

func (m *recordingMetrics) StageFailed(_ entity.TransferKind, stage entity.Stage, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, stage)
}

func (m *recordingMetrics) ChainWrite(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, operation)
}

func amounts(rows ...[]uint64) [][]*uint256.Int {
	out := make([][]*uint256.Int, len(rows))
	for i, row := range rows {
		out[i] = make([]*uint256.Int, len(row))
		for j, v := range row {
			out[i][j] = uint256.NewInt(v)
		}
	}
	return out
}
