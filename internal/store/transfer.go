package store

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/fault"
)

// registry is the marketplace side of an ownership handover.
type registry interface {
	TransferStore(previousOwner, newOwner common.Address, storeIndex uint64) error
}

// PendingTransfer returns the requested candidate and the index it should
// occupy in the candidate's stores. A zero candidate means none.
func (s *Store) PendingTransfer() (common.Address, uint64, error) {
	candidate, err := s.f.LoadAddress(slotOwnerCandidate)
	if err != nil {
		return common.Address{}, 0, err
	}
	idx, err := s.f.LoadUint(slotCandidateIndex)
	if err != nil {
		return common.Address{}, 0, err
	}
	return candidate, idx.Uint64(), nil
}

// RequestOwnershipTransfer proposes candidate as the next owner, placed at
// storeIndex of the candidate's stores. A newer request replaces it.
func (s *Store) RequestOwnershipTransfer(candidate common.Address, storeIndex uint64) error {
	if err := gate.RequireOwner(s.f); err != nil {
		return err
	}
	if candidate == (common.Address{}) {
		return fault.ErrZeroAddress
	}
	if err := s.f.StoreAddress(slotOwnerCandidate, candidate); err != nil {
		return err
	}
	if err := s.f.StoreUint(slotCandidateIndex, uint256.NewInt(storeIndex)); err != nil {
		return err
	}
	s.f.Emit("OwnershipTransferRequested",
		chain.F("currentOwner", s.f.Caller()),
		chain.F("ownerCandidate", candidate),
		chain.F("storeIndex", storeIndex))
	return nil
}

// ApproveOwnershipTransfer completes a pending handover. The caller must
// be the candidate and indexConfirmation must repeat the requested index.
// The marketplace moves the store between owners in the same transaction.
func (s *Store) ApproveOwnershipTransfer(indexConfirmation uint64) error {
	candidate, idx, err := s.PendingTransfer()
	if err != nil {
		return err
	}
	if candidate == (common.Address{}) {
		return fault.ErrNoPendingTransfer
	}
	if s.f.Caller() != candidate {
		return fault.ErrNotCandidate
	}
	if indexConfirmation != idx {
		return fault.ErrIndexMismatch
	}
	prev, err := s.Owner()
	if err != nil {
		return err
	}
	market, err := s.Marketplace()
	if err != nil {
		return err
	}
	target, err := s.f.Call(market, nil)
	if err != nil {
		return err
	}
	reg, err := chain.Resolve[registry](target)
	if err != nil {
		return err
	}
	if err := reg.TransferStore(prev, candidate, indexConfirmation); err != nil {
		return err
	}
	if err := s.f.StoreAddress(slotOwnerCandidate, common.Address{}); err != nil {
		return err
	}
	if err := s.f.StoreUint(slotCandidateIndex, new(uint256.Int)); err != nil {
		return err
	}
	return gate.SetOwner(s.f, candidate)
}
