package access

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/fault"
)

// Pausable is an owner-controlled Active/Paused switch. A fresh contract
// is Active.
type Pausable struct {
	Ownable
	Slot common.Hash
}

func (p Pausable) Paused(f *chain.Frame) (bool, error) {
	return f.LoadBool(p.Slot)
}

// RequireActive fails with fault.ErrPaused while paused.
func (p Pausable) RequireActive(f *chain.Frame) error {
	paused, err := p.Paused(f)
	if err != nil {
		return err
	}
	if paused {
		return fault.ErrPaused
	}
	return nil
}

// Pause moves Active to Paused. Pausing twice fails.
func (p Pausable) Pause(f *chain.Frame) error {
	if err := p.RequireOwner(f); err != nil {
		return err
	}
	if err := p.RequireActive(f); err != nil {
		return err
	}
	if err := f.StoreBool(p.Slot, true); err != nil {
		return err
	}
	f.Emit("Pause")
	return nil
}

// Unpause moves Paused to Active. Unpausing an active contract fails.
func (p Pausable) Unpause(f *chain.Frame) error {
	if err := p.RequireOwner(f); err != nil {
		return err
	}
	paused, err := p.Paused(f)
	if err != nil {
		return err
	}
	if !paused {
		return fault.ErrNotPaused
	}
	if err := f.StoreBool(p.Slot, false); err != nil {
		return err
	}
	f.Emit("Unpause")
	return nil
}
