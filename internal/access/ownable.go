// Package access provides the owner gate and the pause switch shared by
// every contract kind. Both keep their state in a caller-chosen storage
// slot of the frame they run against, so the same gate works for a plain
// contract and for code running behind a proxy.
package access

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/fault"
)

// Ownable is a single-owner gate stored at Slot.
type Ownable struct {
	Slot common.Hash
}

// Owner returns the current owner, or the zero address before one is set.
func (o Ownable) Owner(f *chain.Frame) (common.Address, error) {
	return f.LoadAddress(o.Slot)
}

// Construct sets owner as the initial owner.
func (o Ownable) Construct(f *chain.Frame, owner common.Address) error {
	if owner == (common.Address{}) {
		return fault.ErrZeroAddress
	}
	return f.StoreAddress(o.Slot, owner)
}

// Init claims ownership for the caller. It succeeds only while no owner
// is set, which is how code behind a proxy gets its owner.
func (o Ownable) Init(f *chain.Frame) error {
	cur, err := o.Owner(f)
	if err != nil {
		return err
	}
	if cur != (common.Address{}) {
		return fault.ErrAlreadyInitialised
	}
	if err := f.StoreAddress(o.Slot, f.Caller()); err != nil {
		return err
	}
	f.Emit("OwnershipTransferred",
		chain.F("previousOwner", common.Address{}),
		chain.F("newOwner", f.Caller()))
	return nil
}

// RequireOwner fails unless the caller is the owner. An unset owner
// admits nobody.
func (o Ownable) RequireOwner(f *chain.Frame) error {
	cur, err := o.Owner(f)
	if err != nil {
		return err
	}
	if cur == (common.Address{}) || cur != f.Caller() {
		return fault.ErrNotOwner
	}
	return nil
}

// TransferOwnership hands the gate to newOwner.
func (o Ownable) TransferOwnership(f *chain.Frame, newOwner common.Address) error {
	if err := o.RequireOwner(f); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return fault.ErrZeroAddress
	}
	return o.SetOwner(f, newOwner)
}

// SetOwner replaces the owner without any check and emits
// OwnershipTransferred. Callers enforce their own authorization.
func (o Ownable) SetOwner(f *chain.Frame, newOwner common.Address) error {
	prev, err := o.Owner(f)
	if err != nil {
		return err
	}
	if err := f.StoreAddress(o.Slot, newOwner); err != nil {
		return err
	}
	f.Emit("OwnershipTransferred",
		chain.F("previousOwner", prev),
		chain.F("newOwner", newOwner))
	return nil
}
