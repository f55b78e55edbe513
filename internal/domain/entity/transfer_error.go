package entity

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrMalformedRequest marks structurally invalid input.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrArithmeticOverflow marks an amount outside the 256-bit range.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	// ErrInsufficientBalance marks a holder that cannot cover its resolved amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTransaction marks a failed chain read or write.
	ErrTransaction = errors.New("transaction error")
)

// Stage names a step of the transfer pipeline.
type Stage string

const (
	StageValidating       Stage = "validating"
	StageResolvingAmounts Stage = "resolving_amounts"
	StageAuthorizing      Stage = "authorizing"
	StageMovingNative     Stage = "moving_native"
	StageSettling         Stage = "settling"
)

// TransferError is the reason a transfer pipeline aborted.
type TransferError struct {
	Stage Stage
	Kind  error // one of the Err* sentinels
	Token *common.Address
	Party *common.Address
	Err   error
}

func (e *TransferError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	if e.Token != nil {
		msg += " token=" + e.Token.Hex()
	}
	if e.Party != nil {
		msg += " party=" + e.Party.Hex()
	}
	if e.Err != nil && e.Err != e.Kind {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *TransferError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewTransferError builds a TransferError for the given stage and kind.
func NewTransferError(stage Stage, kind error, cause error) *TransferError {
	return &TransferError{Stage: stage, Kind: kind, Err: cause}
}

// WithToken attaches the asset the failure relates to.
func (e *TransferError) WithToken(token common.Address) *TransferError {
	e.Token = &token
	return e
}

// WithParty attaches the account the failure relates to.
func (e *TransferError) WithParty(party common.Address) *TransferError {
	e.Party = &party
	return e
}

// ErrorCode maps an error onto the coarse code returned to API callers.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMalformedRequest):
		return "malformed_request"
	case errors.Is(err, ErrArithmeticOverflow):
		return "arithmetic_overflow"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "transaction_error"
	}
}
