// Package store implements the per-seller store contract: a product
// catalog with a 16-slot storefront, exact-payment purchases that split a
// tax share off for the linked marketplace, withdrawals, self-destruction
// and a two-phase ownership handover confirmed by the candidate.
package store

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/access"
	"github.com/joestump/joe-market/internal/chain"
)

const (
	Kind    = "store"
	Version = "v1"

	// MaxStoreProducts bounds the product catalog of one store.
	MaxStoreProducts = 65536

	// StorefrontSlots is the number of display slots.
	StorefrontSlots = 16

	// MarketplaceTaxDenominator divides each payment to get the tax share.
	MarketplaceTaxDenominator = 1000000
)

// Layout is the storage layout of a store.
var Layout = chain.Layout{
	{Name: "owner", Type: "address"},
	{Name: "paused", Type: "bool"},
	{Name: "marketplace", Type: "address"},
	{Name: "marketplaceBalance", Type: "uint256"},
	{Name: "ownerCandidate", Type: "address"},
	{Name: "candidateStoreIndex", Type: "uint256"},
	{Name: "products", Type: "product[]"},
	{Name: "storefront", Type: "uint256[16]"},
}

var (
	slotMarketplace        = Layout.Slot("marketplace")
	slotMarketplaceBalance = Layout.Slot("marketplaceBalance")
	slotOwnerCandidate     = Layout.Slot("ownerCandidate")
	slotCandidateIndex     = Layout.Slot("candidateStoreIndex")

	gate = access.Pausable{
		Ownable: access.Ownable{Slot: Layout.Slot("owner")},
		Slot:    Layout.Slot("paused"),
	}

	taxDenominator = uint256.NewInt(MarketplaceTaxDenominator)
)

// Code returns the registrable code of the store contract.
func Code() chain.Code {
	return chain.Code{
		Kind:    Kind,
		Version: Version,
		Layout:  Layout,
		Bind:    func(f *chain.Frame) any { return &Store{f: f} },
		Tables:  []string{"products", "storefront"},
	}
}

// Store is a store contract bound to one call frame.
type Store struct {
	f *chain.Frame
}

// Construct makes owner the store owner and the creating contract its
// marketplace.
func (s *Store) Construct(owner common.Address) error {
	if err := gate.Construct(s.f, owner); err != nil {
		return err
	}
	return s.f.StoreAddress(slotMarketplace, s.f.Caller())
}

func (s *Store) Address() common.Address { return s.f.Self() }

func (s *Store) Owner() (common.Address, error) { return gate.Owner(s.f) }

func (s *Store) Marketplace() (common.Address, error) {
	return s.f.LoadAddress(slotMarketplace)
}

func (s *Store) Paused() (bool, error) { return gate.Paused(s.f) }

func (s *Store) Pause() error { return gate.Pause(s.f) }

func (s *Store) Unpause() error { return gate.Unpause(s.f) }

// MarketplaceBalance is the accumulated tax share owed to the marketplace.
func (s *Store) MarketplaceBalance() (*uint256.Int, error) {
	return s.f.LoadUint(slotMarketplaceBalance)
}

// Balance is the native balance held by the store.
func (s *Store) Balance() (*uint256.Int, error) {
	return s.f.Balance(s.f.Self())
}

// OwnerBalance is the part of Balance the owner may withdraw.
func (s *Store) OwnerBalance() (*uint256.Int, error) {
	bal, err := s.Balance()
	if err != nil {
		return nil, err
	}
	mb, err := s.MarketplaceBalance()
	if err != nil {
		return nil, err
	}
	if bal.Lt(mb) {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Sub(bal, mb), nil
}
