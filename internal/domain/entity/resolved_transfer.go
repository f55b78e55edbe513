package entity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ResolvedTransfer is a transfer request whose amounts are all absolute.
// It is built from, and never aliases, the decoded TransferRequest.
type ResolvedTransfer struct {
	Kind    TransferKind     `json:"kind"`
	Hub     common.Address   `json:"hub"`
	Parties []common.Address `json:"parties"`
	Tokens  []common.Address `json:"tokens"`
	Amounts [][]*uint256.Int `json:"amounts"`
}

// AuthorizationState is the holder's balance and the allowance granted to
// the settlement contract, read fresh for a single request.
type AuthorizationState struct {
	Balance   *uint256.Int `json:"balance"`
	Allowance *uint256.Int `json:"allowance"`
}

// AuthorizationCheck is one (asset, holder) pair the settlement will spend from.
type AuthorizationCheck struct {
	Token  common.Address     `json:"token"`
	Holder common.Address     `json:"holder"`
	Needed *uint256.Int       `json:"needed"`
	State  AuthorizationState `json:"state"`
}

// NeedsElevation reports whether the current allowance is short of Needed.
func (c AuthorizationCheck) NeedsElevation() bool {
	return c.State.Allowance.Lt(c.Needed)
}

// NativeLeg is a native coin movement from Holder to the settlement contract.
type NativeLeg struct {
	Holder  common.Address `json:"holder"`
	Amount  *uint256.Int   `json:"amount"`
	Balance *uint256.Int   `json:"balance"`
}

// TransferPlan is everything the pipeline decided before its first chain write.
type TransferPlan struct {
	Transfer       ResolvedTransfer     `json:"transfer"`
	Authorizations []AuthorizationCheck `json:"authorizations"`
	NativeLegs     []NativeLeg          `json:"nativeLegs"`
}

// PendingApprovals returns the authorization checks that will trigger an approve call.
func (p *TransferPlan) PendingApprovals() []AuthorizationCheck {
	var pending []AuthorizationCheck
	for _, check := range p.Authorizations {
		if check.NeedsElevation() {
			pending = append(pending, check)
		}
	}
	return pending
}
