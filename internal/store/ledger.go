package store

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/fault"
	"github.com/joestump/joe-market/internal/safemath"
)

// Buy sells quantity units of the product at index. The attached value
// must equal price*quantity exactly. Payment/MarketplaceTaxDenominator is
// set aside for the marketplace; the rest stays with the store owner.
func (s *Store) Buy(index uint64, quantity uint16) error {
	if err := gate.RequireActive(s.f); err != nil {
		return err
	}
	p, err := s.Product(index)
	if err != nil {
		return err
	}
	if quantity == 0 {
		return fault.ErrZeroQuantity
	}
	total, err := safemath.Mul(p.Price, uint256.NewInt(uint64(quantity)))
	if err != nil {
		return err
	}
	paid := s.f.Value()
	if !paid.Eq(total) {
		return fault.ErrWrongPayment
	}
	if p.Quantity, err = safemath.Sub16(p.Quantity, quantity); err != nil {
		return err
	}
	if err := s.writeProduct(index, p); err != nil {
		return err
	}

	tax, err := safemath.Div(paid, taxDenominator)
	if err != nil {
		return err
	}
	mb, err := s.MarketplaceBalance()
	if err != nil {
		return err
	}
	if mb, err = safemath.Add(mb, tax); err != nil {
		return err
	}
	if err := s.f.StoreUint(slotMarketplaceBalance, mb); err != nil {
		return err
	}
	s.f.Emit("LogPurchase",
		chain.F("index", index),
		chain.F("quantitySold", quantity),
		chain.F("salePrice", total))
	return nil
}

// OwnerWithdraw pays amount out of the owner's share to to.
func (s *Store) OwnerWithdraw(to common.Address, amount *uint256.Int) error {
	if err := gate.RequireOwner(s.f); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return fault.ErrZeroAddress
	}
	if amount == nil || amount.IsZero() {
		return fault.ErrZeroAmount
	}
	avail, err := s.OwnerBalance()
	if err != nil {
		return err
	}
	if amount.Gt(avail) {
		return fault.ErrInsufficientBalance
	}
	if err := s.f.Transfer(to, amount); err != nil {
		return err
	}
	s.f.Emit("LogOwnerWithdrawal", chain.F("to", to), chain.F("amount", amount))
	return nil
}

// MarketplaceWithdraw pays amount of the tax share to the marketplace,
// which must be the caller.
func (s *Store) MarketplaceWithdraw(amount *uint256.Int) error {
	market, err := s.Marketplace()
	if err != nil {
		return err
	}
	if s.f.Caller() != market {
		return fault.ErrNotMarketplace
	}
	if amount == nil || amount.IsZero() {
		return fault.ErrZeroAmount
	}
	mb, err := s.MarketplaceBalance()
	if err != nil {
		return err
	}
	if amount.Gt(mb) {
		return fault.ErrInsufficientBalance
	}
	if err := s.f.StoreUint(slotMarketplaceBalance, new(uint256.Int).Sub(mb, amount)); err != nil {
		return err
	}
	if err := s.f.Transfer(market, amount); err != nil {
		return err
	}
	s.f.Emit("LogMarketplaceWithdrawal", chain.F("amount", amount))
	return nil
}

// Destroy pays the tax share to the marketplace and everything else to the
// owner, then removes the store. Callable by the owner or the marketplace.
func (s *Store) Destroy() error {
	owner, err := s.Owner()
	if err != nil {
		return err
	}
	market, err := s.Marketplace()
	if err != nil {
		return err
	}
	if caller := s.f.Caller(); caller != owner && caller != market {
		return fault.ErrNotOwnerOrMarketplace
	}
	mb, err := s.MarketplaceBalance()
	if err != nil {
		return err
	}
	bal, err := s.Balance()
	if err != nil {
		return err
	}
	if mb.Gt(bal) {
		mb = bal
	}
	if err := s.f.Transfer(market, mb); err != nil {
		return err
	}
	s.f.Emit("LogDestruction",
		chain.F("owner", owner),
		chain.F("ownerAmount", new(uint256.Int).Sub(bal, mb)),
		chain.F("marketplace", market),
		chain.F("marketplaceAmount", mb))
	return s.f.SelfDestruct(owner)
}
