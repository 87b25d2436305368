package store

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/fault"
	"github.com/joestump/joe-market/internal/safemath"
)

// Product is one catalog entry. A removed product keeps its index with
// every field zeroed.
type Product struct {
	Description [32]byte
	Quantity    uint16
	Price       *uint256.Int
}

type productRow struct {
	Idx         uint64 `db:"idx"`
	Description string `db:"description"`
	Quantity    uint16 `db:"quantity"`
	Price       string `db:"price"`
}

func (r productRow) product() (Product, error) {
	price, err := uint256.FromDecimal(r.Price)
	if err != nil {
		return Product{}, fmt.Errorf("parse price: %w", err)
	}
	return Product{
		Description: common.HexToHash(r.Description),
		Quantity:    r.Quantity,
		Price:       price,
	}, nil
}

func (s *Store) ProductCount() (uint64, error) {
	var n uint64
	err := s.f.Get(&n, `SELECT COUNT(*) FROM products WHERE contract = ?`, s.f.Self().Hex())
	return n, err
}

// Product returns the product at index.
func (s *Store) Product(index uint64) (Product, error) {
	var row productRow
	err := s.f.Get(&row, `SELECT idx, description, quantity, price FROM products WHERE contract = ? AND idx = ?`,
		s.f.Self().Hex(), index)
	if fault.IsErrNotFound(err) {
		return Product{}, fault.ErrIndexOutOfRange
	}
	if err != nil {
		return Product{}, err
	}
	return row.product()
}

// Products returns the whole catalog in index order, removed entries
// included.
func (s *Store) Products() ([]Product, error) {
	var rows []productRow
	err := s.f.Select(&rows, `SELECT idx, description, quantity, price FROM products WHERE contract = ? ORDER BY idx`,
		s.f.Self().Hex())
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(rows))
	for _, r := range rows {
		p, err := r.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) writeProduct(index uint64, p Product) error {
	return s.f.Exec(`UPDATE products SET description = ?, quantity = ?, price = ? WHERE contract = ? AND idx = ?`,
		hexutil.Encode(p.Description[:]), p.Quantity, p.Price.Dec(), s.f.Self().Hex(), index)
}

// ownedProduct checks the caller owns the store and index is allocated.
func (s *Store) ownedProduct(index uint64) (Product, error) {
	if err := gate.RequireOwner(s.f); err != nil {
		return Product{}, err
	}
	return s.Product(index)
}

// AddProduct appends a product and returns its index.
func (s *Store) AddProduct(description [32]byte, quantity uint16, price *uint256.Int) (uint64, error) {
	if err := gate.RequireOwner(s.f); err != nil {
		return 0, err
	}
	if description == ([32]byte{}) {
		return 0, fault.ErrEmptyDescription
	}
	n, err := s.ProductCount()
	if err != nil {
		return 0, err
	}
	if n >= MaxStoreProducts {
		return 0, fault.ErrStoreCapacityReached
	}
	err = s.f.Exec(`INSERT INTO products (contract, idx, description, quantity, price) VALUES (?, ?, ?, ?, ?)`,
		s.f.Self().Hex(), n, hexutil.Encode(description[:]), quantity, priceOrZero(price).Dec())
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	s.f.Emit("LogProductAdded", chain.F("index", n), chain.F("description", description))
	return n, nil
}

// UpdateProduct overwrites the product at index.
func (s *Store) UpdateProduct(index uint64, description [32]byte, quantity uint16, price *uint256.Int) error {
	if _, err := s.ownedProduct(index); err != nil {
		return err
	}
	if description == ([32]byte{}) {
		return fault.ErrEmptyDescription
	}
	price = priceOrZero(price)
	if err := s.writeProduct(index, Product{Description: description, Quantity: quantity, Price: price}); err != nil {
		return err
	}
	s.f.Emit("LogProductUpdated",
		chain.F("index", index),
		chain.F("description", description),
		chain.F("quantity", quantity),
		chain.F("price", price))
	return nil
}

// RemoveProduct zeroes the product at index. Indices never shift.
func (s *Store) RemoveProduct(index uint64) error {
	if _, err := s.ownedProduct(index); err != nil {
		return err
	}
	if err := s.writeProduct(index, Product{Price: new(uint256.Int)}); err != nil {
		return err
	}
	s.f.Emit("LogProductRemoved", chain.F("index", index))
	return nil
}

func (s *Store) SetPrice(index uint64, price *uint256.Int) error {
	p, err := s.ownedProduct(index)
	if err != nil {
		return err
	}
	p.Price = priceOrZero(price)
	if err := s.writeProduct(index, p); err != nil {
		return err
	}
	s.f.Emit("LogProductPriceSet", chain.F("index", index), chain.F("price", p.Price))
	return nil
}

func (s *Store) IncreaseQuantity(index uint64, delta uint16) error {
	p, err := s.ownedProduct(index)
	if err != nil {
		return err
	}
	if delta == 0 {
		return fault.ErrZeroQuantity
	}
	if p.Quantity, err = safemath.Add16(p.Quantity, delta); err != nil {
		return err
	}
	if err := s.writeProduct(index, p); err != nil {
		return err
	}
	s.f.Emit("LogProductQuantityIncreased", chain.F("index", index), chain.F("quantity", delta))
	return nil
}

func (s *Store) DecreaseQuantity(index uint64, delta uint16) error {
	p, err := s.ownedProduct(index)
	if err != nil {
		return err
	}
	if delta == 0 {
		return fault.ErrZeroQuantity
	}
	if p.Quantity, err = safemath.Sub16(p.Quantity, delta); err != nil {
		return err
	}
	if err := s.writeProduct(index, p); err != nil {
		return err
	}
	s.f.Emit("LogProductQuantityDecreased", chain.F("index", index), chain.F("quantity", delta))
	return nil
}

// SetStorefront shows the product at productIndex in display slot.
func (s *Store) SetStorefront(slot uint64, productIndex uint64) error {
	if err := gate.RequireOwner(s.f); err != nil {
		return err
	}
	if slot >= StorefrontSlots {
		return fault.ErrIndexOutOfRange
	}
	n, err := s.ProductCount()
	if err != nil {
		return err
	}
	if productIndex >= n {
		return fault.ErrIndexOutOfRange
	}
	if err := s.f.Exec(`DELETE FROM storefront WHERE contract = ? AND slot = ?`, s.f.Self().Hex(), slot); err != nil {
		return err
	}
	if err := s.f.Exec(`INSERT INTO storefront (contract, slot, product_index) VALUES (?, ?, ?)`,
		s.f.Self().Hex(), slot, productIndex); err != nil {
		return err
	}
	s.f.Emit("LogStorefrontSet", chain.F("slot", slot), chain.F("index", productIndex))
	return nil
}

// Storefront returns the product index shown in each display slot.
// Unset slots read as 0.
func (s *Store) Storefront() ([StorefrontSlots]uint64, error) {
	var out [StorefrontSlots]uint64
	var rows []struct {
		Slot         uint64 `db:"slot"`
		ProductIndex uint64 `db:"product_index"`
	}
	if err := s.f.Select(&rows, `SELECT slot, product_index FROM storefront WHERE contract = ?`, s.f.Self().Hex()); err != nil {
		return out, err
	}
	for _, r := range rows {
		if r.Slot < StorefrontSlots {
			out[r.Slot] = r.ProductIndex
		}
	}
	return out, nil
}

func priceOrZero(p *uint256.Int) *uint256.Int {
	if p == nil {
		return new(uint256.Int)
	}
	return p
}
