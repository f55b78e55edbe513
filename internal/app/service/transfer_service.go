package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blazing_api/internal/app/port"
	"blazing_api/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrentReads = 8

// TransferServiceImpl implements port.TransferService. It runs every request
// through validate, resolve, authorize, move native, settle, in that order,
// and stops at the first failure. Chain state changed by earlier steps is
// left as is.
type TransferServiceImpl struct {
	gate               *AuthorizationGate
	mover              *NativeAssetMover
	settlement         *BatchSettlement
	metrics            port.Metrics
	logger             port.Logger
	maxConcurrentReads int
}

// NewTransferService creates a new instance of TransferServiceImpl.
func NewTransferService(ledger port.Ledger, metrics port.Metrics, l port.Logger, maxConcurrentReads int) *TransferServiceImpl {
	if maxConcurrentReads <= 0 {
		maxConcurrentReads = defaultMaxConcurrentReads
	}
	spender := ledger.Address()
	return &TransferServiceImpl{
		gate:               NewAuthorizationGate(ledger, spender, metrics, l),
		mover:              NewNativeAssetMover(ledger, spender, metrics, l),
		settlement:         NewBatchSettlement(ledger, metrics, l),
		metrics:            metrics,
		logger:             l,
		maxConcurrentReads: maxConcurrentReads,
	}
}

// Collect pulls the requested amounts from every sender into the recipient.
func (s *TransferServiceImpl) Collect(ctx context.Context, req entity.CollectRequest) (common.Hash, error) {
	return s.execute(ctx, req.Normalize())
}

// Disperse pushes the requested amounts from the sender to every recipient.
func (s *TransferServiceImpl) Disperse(ctx context.Context, req entity.DisperseRequest) (common.Hash, error) {
	return s.execute(ctx, req.Normalize())
}

// PreviewCollect plans a collect without sending any transaction.
func (s *TransferServiceImpl) PreviewCollect(ctx context.Context, req entity.CollectRequest) (*entity.TransferPlan, error) {
	return s.preview(ctx, req.Normalize())
}

// PreviewDisperse plans a disperse without sending any transaction.
func (s *TransferServiceImpl) PreviewDisperse(ctx context.Context, req entity.DisperseRequest) (*entity.TransferPlan, error) {
	return s.preview(ctx, req.Normalize())
}

func (s *TransferServiceImpl) preview(ctx context.Context, req entity.TransferRequest) (*entity.TransferPlan, error) {
	log := s.logger.With("operation", req.Kind, "hub", req.Hub.Hex(), "preview", true)
	plan, err := s.plan(ctx, req)
	if err != nil {
		return nil, s.abort(req.Kind, log, err)
	}
	log.Debug("Transfer planned", "approvals", len(plan.PendingApprovals()), "native_legs", len(plan.NativeLegs))
	return plan, nil
}

func (s *TransferServiceImpl) execute(ctx context.Context, req entity.TransferRequest) (txHash common.Hash, err error) {
	start := time.Now()
	log := s.logger.With("operation", req.Kind, "hub", req.Hub.Hex())
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = entity.ErrorCode(err)
		}
		s.metrics.ObserveRequest(req.Kind, outcome, time.Since(start).Seconds())
	}()

	plan, err := s.plan(ctx, req)
	if err != nil {
		return common.Hash{}, s.abort(req.Kind, log, err)
	}
	log.Debug("Stage completed", "stage", entity.StageResolvingAmounts,
		"parties", len(req.Parties), "tokens", len(req.Tokens))

	for _, check := range plan.Authorizations {
		if _, err := s.gate.Ensure(ctx, check.Token, check.Holder, check.State, check.Needed); err != nil {
			return common.Hash{}, s.abort(req.Kind, log,
				stageError(entity.StageAuthorizing, err).WithToken(check.Token).WithParty(check.Holder))
		}
	}
	log.Debug("Stage completed", "stage", entity.StageAuthorizing)

	for _, leg := range plan.NativeLegs {
		if _, err := s.mover.MoveIfNonZero(ctx, leg.Holder, leg.Amount); err != nil {
			return common.Hash{}, s.abort(req.Kind, log,
				stageError(entity.StageMovingNative, err).WithToken(entity.NativeAsset).WithParty(leg.Holder))
		}
	}
	log.Debug("Stage completed", "stage", entity.StageMovingNative)

	txHash, err = s.settlement.Submit(ctx, plan.Transfer)
	if err != nil {
		return common.Hash{}, s.abort(req.Kind, log, stageError(entity.StageSettling, err))
	}
	return txHash, nil
}

// plan validates the request, reads every balance and allowance it depends
// on, resolves the amounts and verifies sufficiency. It never writes.
func (s *TransferServiceImpl) plan(ctx context.Context, req entity.TransferRequest) (*entity.TransferPlan, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// Collect spends from every party, disperse only from the hub.
	holders := req.Parties
	if req.Kind == entity.DisperseTransfer {
		holders = []common.Address{req.Hub}
	}

	states, err := s.readStates(ctx, req.Tokens, holders)
	if err != nil {
		return nil, err
	}

	resolved := entity.ResolvedTransfer{
		Kind:    req.Kind,
		Hub:     req.Hub,
		Parties: append([]common.Address(nil), req.Parties...),
		Tokens:  append([]common.Address(nil), req.Tokens...),
		Amounts: make([][]*uint256.Int, len(req.Tokens)),
	}
	for t, token := range req.Tokens {
		row := make([]*uint256.Int, len(req.Parties))
		for p, party := range req.Parties {
			balance := states[t][0].Balance
			if req.Kind == entity.CollectTransfer {
				balance = states[t][p].Balance
			}
			amount, err := ResolveAmount(req.IsPercentage, balance, req.Amounts[t][p])
			if err != nil {
				return nil, stageError(entity.StageResolvingAmounts, err).WithToken(token).WithParty(party)
			}
			row[p] = amount
		}
		resolved.Amounts[t] = row
	}

	plan := &entity.TransferPlan{Transfer: resolved}
	for t, token := range req.Tokens {
		for h, holder := range holders {
			var needed *uint256.Int
			if req.Kind == entity.DisperseTransfer {
				if needed, err = SumAmounts(resolved.Amounts[t]); err != nil {
					return nil, stageError(entity.StageResolvingAmounts, err).WithToken(token).WithParty(holder)
				}
			} else {
				needed = resolved.Amounts[t][h]
			}
			state := states[t][h]

			if entity.IsNativeAsset(token) {
				if err := s.mover.Check(state.Balance, needed); err != nil {
					return nil, stageError(entity.StageMovingNative, err).WithToken(token).WithParty(holder)
				}
				plan.NativeLegs = append(plan.NativeLegs, entity.NativeLeg{Holder: holder, Amount: needed, Balance: state.Balance})
				continue
			}
			if err := s.gate.Check(state, needed); err != nil {
				return nil, stageError(entity.StageAuthorizing, err).WithToken(token).WithParty(holder)
			}
			plan.Authorizations = append(plan.Authorizations, entity.AuthorizationCheck{
				Token:  token,
				Holder: holder,
				Needed: needed,
				State:  state,
			})
		}
	}
	return plan, nil
}

// readStates fetches states[token][holder] concurrently. The native row only
// carries a balance.
func (s *TransferServiceImpl) readStates(ctx context.Context, tokens, holders []common.Address) ([][]entity.AuthorizationState, error) {
	states := make([][]entity.AuthorizationState, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrentReads)

	for t, token := range tokens {
		states[t] = make([]entity.AuthorizationState, len(holders))
		for h, holder := range holders {
			g.Go(func() error {
				if entity.IsNativeAsset(token) {
					balance, err := s.mover.ReadBalance(gctx, holder)
					if err != nil {
						return stageError(entity.StageResolvingAmounts, err).WithToken(token).WithParty(holder)
					}
					states[t][h] = entity.AuthorizationState{Balance: balance}
					return nil
				}
				state, err := s.gate.ReadState(gctx, token, holder)
				if err != nil {
					return stageError(entity.StageResolvingAmounts, err).WithToken(token).WithParty(holder)
				}
				states[t][h] = state
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

func validate(req entity.TransferRequest) error {
	malformed := func(format string, args ...any) error {
		return entity.NewTransferError(entity.StageValidating, entity.ErrMalformedRequest, fmt.Errorf(format, args...))
	}
	if len(req.Amounts) != len(req.Tokens) {
		return malformed("amounts has %d rows, tokens has %d entries", len(req.Amounts), len(req.Tokens))
	}
	// Each asset gets one row; the funds check runs per (asset, holder).
	seen := make(map[common.Address]int, len(req.Tokens))
	for t, row := range req.Amounts {
		if len(row) != len(req.Parties) {
			return malformed("amounts row %d has %d entries, expected %d", t, len(row), len(req.Parties))
		}
		for p, amount := range row {
			if amount == nil {
				return malformed("amounts[%d][%d] is missing", t, p)
			}
		}
		token := req.Tokens[t]
		if first, ok := seen[token]; ok {
			return malformed("asset %s listed in rows %d and %d", token.Hex(), first, t)
		}
		seen[token] = t
	}
	return nil
}

// stageError classifies err by its sentinel and tags it with stage. An error
// that already carries a stage is returned unchanged.
func stageError(stage entity.Stage, err error) *entity.TransferError {
	var transferErr *entity.TransferError
	if errors.As(err, &transferErr) {
		return transferErr
	}
	kind := entity.ErrTransaction
	switch {
	case errors.Is(err, entity.ErrMalformedRequest):
		kind = entity.ErrMalformedRequest
	case errors.Is(err, entity.ErrArithmeticOverflow):
		kind = entity.ErrArithmeticOverflow
	case errors.Is(err, entity.ErrInsufficientBalance):
		kind = entity.ErrInsufficientBalance
	}
	return entity.NewTransferError(stage, kind, err)
}

func (s *TransferServiceImpl) abort(kind entity.TransferKind, log port.Logger, err error) error {
	args := []any{"error", err}
	var transferErr *entity.TransferError
	stage := entity.StageValidating
	if errors.As(err, &transferErr) {
		stage = transferErr.Stage
		if transferErr.Token != nil {
			args = append(args, "token", transferErr.Token.Hex())
		}
		if transferErr.Party != nil {
			args = append(args, "party", transferErr.Party.Hex())
		}
	}
	args = append(args, "stage", stage)
	code := entity.ErrorCode(err)
	s.metrics.StageFailed(kind, stage, code)

	if code == "transaction_error" {
		log.Error("Transfer aborted", args...)
	} else {
		log.Warn("Transfer rejected", args...)
	}
	return err
}
