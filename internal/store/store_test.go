package store_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/joe-market/internal/fault"
	"github.com/joestump/joe-market/internal/store"
	"github.com/joestump/joe-market/internal/testutil"
)

func TestConstructRejectsZeroOwner(t *testing.T) {
	c := testutil.NewTestChain(t)

	_, err := c.Deploy(context.Background(), testutil.Admin, store.Kind, store.Version, func(target any) error {
		return target.(*store.Store).Construct(common.Address{})
	})
	assert.ErrorIs(t, err, fault.ErrZeroAddress)
}

func TestConstructLinksMarketplace(t *testing.T) {
	e := newEnv(t)

	e.view(func(s *store.Store) error {
		owner, err := s.Owner()
		require.NoError(t, err)
		assert.Equal(t, testutil.Seller, owner)

		market, err := s.Marketplace()
		require.NoError(t, err)
		assert.Equal(t, e.market, market)

		paused, err := s.Paused()
		require.NoError(t, err)
		assert.False(t, paused)
		return nil
	})
}

func TestAddProduct(t *testing.T) {
	e := newEnv(t)

	_, err := e.call(testutil.Stranger, func(s *store.Store) error {
		_, err := s.AddProduct(desc, 1, uint256.NewInt(1))
		return err
	})
	assert.ErrorIs(t, err, fault.ErrNotOwner)

	_, err = e.call(testutil.Seller, func(s *store.Store) error {
		_, err := s.AddProduct([32]byte{}, 1, uint256.NewInt(1))
		return err
	})
	assert.ErrorIs(t, err, fault.ErrEmptyDescription)

	r, err := e.call(testutil.Seller, func(s *store.Store) error {
		_, err := s.AddProduct(desc, 3, uint256.NewInt(500))
		return err
	})
	require.NoError(t, err)
	require.Len(t, r.Events, 1)
	assert.Equal(t, "LogProductAdded", r.Events[0].Name)
	assert.Equal(t, "0", r.Events[0].Get("index"))

	p := e.product(0)
	assert.Equal(t, desc, p.Description)
	assert.Equal(t, uint16(3), p.Quantity)
	assert.Equal(t, uint64(500), p.Price.Uint64())

	assert.Equal(t, uint64(1), e.addProduct(1, 1))
}

func TestUpdateAndRemoveProduct(t *testing.T) {
	e := newEnv(t)
	e.addProduct(1, 10)
	other := [32]byte{0x02}

	_, err := e.call(testutil.Seller, func(s *store.Store) error {
		return s.UpdateProduct(1, other, 1, uint256.NewInt(1))
	})
	assert.ErrorIs(t, err, fault.ErrIndexOutOfRange)

	_, err = e.call(testutil.Seller, func(s *store.Store) error {
		return s.UpdateProduct(0, [32]byte{}, 1, uint256.NewInt(1))
	})
	assert.ErrorIs(t, err, fault.ErrEmptyDescription)

	r, err := e.call(testutil.Seller, func(s *store.Store) error {
		return s.UpdateProduct(0, other, 7, uint256.NewInt(70))
	})
	require.NoError(t, err)
	assert.Equal(t, "LogProductUpdated", r.Events[0].Name)
	assert.Equal(t, "7", r.Events[0].Get("quantity"))
	assert.Equal(t, "70", r.Events[0].Get("price"))
	p := e.product(0)
	assert.Equal(t, other, p.Description)
	assert.Equal(t, uint16(7), p.Quantity)

	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.RemoveProduct(3) })
	assert.ErrorIs(t, err, fault.ErrIndexOutOfRange)

	r, err = e.call(testutil.Seller, func(s *store.Store) error { return s.RemoveProduct(0) })
	require.NoError(t, err)
	assert.Equal(t, "LogProductRemoved", r.Events[0].Name)
	p = e.product(0)
	assert.Equal(t, [32]byte{}, p.Description)
	assert.Equal(t, uint16(0), p.Quantity)
	assert.True(t, p.Price.IsZero())

	// indices never shift
	assert.Equal(t, uint64(1), e.addProduct(1, 1))
}

func TestQuantityAndPrice(t *testing.T) {
	e := newEnv(t)
	e.addProduct(5, 10)

	_, err := e.call(testutil.Seller, func(s *store.Store) error { return s.IncreaseQuantity(0, 0) })
	assert.ErrorIs(t, err, fault.ErrZeroQuantity)
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.DecreaseQuantity(0, 0) })
	assert.ErrorIs(t, err, fault.ErrZeroQuantity)
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.DecreaseQuantity(0, 6) })
	assert.ErrorIs(t, err, fault.ErrUnderflow)
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.IncreaseQuantity(0, 65535) })
	assert.ErrorIs(t, err, fault.ErrOverflow)
	_, err = e.call(testutil.Stranger, func(s *store.Store) error { return s.SetPrice(0, uint256.NewInt(1)) })
	assert.ErrorIs(t, err, fault.ErrNotOwner)

	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.IncreaseQuantity(0, 4) })
	require.NoError(t, err)
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.DecreaseQuantity(0, 2) })
	require.NoError(t, err)
	r, err := e.call(testutil.Seller, func(s *store.Store) error { return s.SetPrice(0, uint256.NewInt(99)) })
	require.NoError(t, err)
	assert.Equal(t, "LogProductPriceSet", r.Events[0].Name)

	p := e.product(0)
	assert.Equal(t, uint16(7), p.Quantity)
	assert.Equal(t, uint64(99), p.Price.Uint64())
}

func TestSetStorefront(t *testing.T) {
	e := newEnv(t)
	e.addProduct(1, 1)
	e.addProduct(1, 1)

	_, err := e.call(testutil.Stranger, func(s *store.Store) error { return s.SetStorefront(0, 1) })
	assert.ErrorIs(t, err, fault.ErrNotOwner)
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.SetStorefront(0, 2) })
	assert.ErrorIs(t, err, fault.ErrIndexOutOfRange)
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.SetStorefront(store.StorefrontSlots, 1) })
	assert.ErrorIs(t, err, fault.ErrIndexOutOfRange)

	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.SetStorefront(15, 1) })
	require.NoError(t, err)
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.SetStorefront(15, 0) })
	require.NoError(t, err)
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.SetStorefront(3, 1) })
	require.NoError(t, err)

	e.view(func(s *store.Store) error {
		front, err := s.Storefront()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), front[3])
		assert.Equal(t, uint64(0), front[15])
		return nil
	})
}

func TestBuySplitsTax(t *testing.T) {
	e := newEnv(t)
	e.addProduct(1, 1000000)
	buyerBefore := e.balance(testutil.Buyer)

	r, err := e.pay(testutil.Buyer, 1000000, func(s *store.Store) error { return s.Buy(0, 1) })
	require.NoError(t, err)
	require.Len(t, r.Events, 1)
	assert.Equal(t, "LogPurchase", r.Events[0].Name)
	assert.Equal(t, "1", r.Events[0].Get("quantitySold"))
	assert.Equal(t, "1000000", r.Events[0].Get("salePrice"))

	assert.Equal(t, uint16(0), e.product(0).Quantity)
	assert.Equal(t, buyerBefore-1000000, e.balance(testutil.Buyer))
	e.view(func(s *store.Store) error {
		mb, err := s.MarketplaceBalance()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), mb.Uint64())

		own, err := s.OwnerBalance()
		require.NoError(t, err)
		assert.Equal(t, uint64(999999), own.Uint64())
		return nil
	})
}

func TestBuyRejections(t *testing.T) {
	e := newEnv(t)
	e.addProduct(1, 1000000)

	tests := []struct {
		name     string
		value    uint64
		index    uint64
		quantity uint16
		want     error
	}{
		{"underpayment", 999999, 0, 1, fault.ErrWrongPayment},
		{"overpayment", 1000001, 0, 1, fault.ErrWrongPayment},
		{"zero quantity", 0, 0, 0, fault.ErrZeroQuantity},
		{"unknown product", 1000000, 1, 1, fault.ErrIndexOutOfRange},
		{"out of stock", 2000000, 0, 2, fault.ErrUnderflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.pay(testutil.Buyer, tt.value, func(s *store.Store) error { return s.Buy(tt.index, tt.quantity) })
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, uint64(0), e.balance(e.store))
}

func TestBuyWhilePaused(t *testing.T) {
	e := newEnv(t)
	e.addProduct(2, 10)

	_, err := e.call(testutil.Stranger, func(s *store.Store) error { return s.Pause() })
	assert.ErrorIs(t, err, fault.ErrNotOwner)

	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.Pause() })
	require.NoError(t, err)
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.Pause() })
	assert.ErrorIs(t, err, fault.ErrPaused)

	_, err = e.pay(testutil.Buyer, 10, func(s *store.Store) error { return s.Buy(0, 1) })
	assert.ErrorIs(t, err, fault.ErrPaused)

	// inventory management stays available
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.IncreaseQuantity(0, 1) })
	require.NoError(t, err)

	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.Unpause() })
	require.NoError(t, err)
	_, err = e.call(testutil.Seller, func(s *store.Store) error { return s.Unpause() })
	assert.ErrorIs(t, err, fault.ErrNotPaused)

	_, err = e.pay(testutil.Buyer, 10, func(s *store.Store) error { return s.Buy(0, 1) })
	require.NoError(t, err)
}

func TestOwnerWithdraw(t *testing.T) {
	e := newEnv(t)
	e.addProduct(1, 1000000)
	_, err := e.pay(testutil.Buyer, 1000000, func(s *store.Store) error { return s.Buy(0, 1) })
	require.NoError(t, err)

	withdraw := func(from, to common.Address, amount uint64) error {
		_, err := e.call(from, func(s *store.Store) error { return s.OwnerWithdraw(to, uint256.NewInt(amount)) })
		return err
	}
	assert.ErrorIs(t, withdraw(testutil.Stranger, testutil.Stranger, 1), fault.ErrNotOwner)
	assert.ErrorIs(t, withdraw(testutil.Seller, common.Address{}, 1), fault.ErrZeroAddress)
	assert.ErrorIs(t, withdraw(testutil.Seller, testutil.Seller, 0), fault.ErrZeroAmount)
	// the marketplace share is not withdrawable by the owner
	assert.ErrorIs(t, withdraw(testutil.Seller, testutil.Seller, 1000000), fault.ErrInsufficientBalance)

	before := e.balance(testutil.Stranger)
	r, err := e.call(testutil.Seller, func(s *store.Store) error {
		return s.OwnerWithdraw(testutil.Stranger, uint256.NewInt(999999))
	})
	require.NoError(t, err)
	assert.Equal(t, "LogOwnerWithdrawal", r.Events[0].Name)
	assert.Equal(t, before+999999, e.balance(testutil.Stranger))
	assert.Equal(t, uint64(1), e.balance(e.store))
}

func TestMarketplaceWithdrawOnlyFromMarketplace(t *testing.T) {
	e := newEnv(t)

	_, err := e.call(testutil.Seller, func(s *store.Store) error { return s.MarketplaceWithdraw(uint256.NewInt(1)) })
	assert.ErrorIs(t, err, fault.ErrNotMarketplace)
	_, err = e.call(testutil.Admin, func(s *store.Store) error { return s.MarketplaceWithdraw(uint256.NewInt(1)) })
	assert.ErrorIs(t, err, fault.ErrNotMarketplace)
}

func TestDestroyByOwner(t *testing.T) {
	e := newEnv(t)
	e.addProduct(1, 3000000)
	_, err := e.pay(testutil.Buyer, 3000000, func(s *store.Store) error { return s.Buy(0, 1) })
	require.NoError(t, err)

	_, err = e.call(testutil.Stranger, func(s *store.Store) error { return s.Destroy() })
	assert.ErrorIs(t, err, fault.ErrNotOwnerOrMarketplace)

	sellerBefore := e.balance(testutil.Seller)
	marketBefore := e.balance(e.market)
	r, err := e.call(testutil.Seller, func(s *store.Store) error { return s.Destroy() })
	require.NoError(t, err)
	require.Len(t, r.Events, 1)
	assert.Equal(t, "LogDestruction", r.Events[0].Name)
	assert.Equal(t, "2999997", r.Events[0].Get("ownerAmount"))
	assert.Equal(t, "3", r.Events[0].Get("marketplaceAmount"))

	assert.Equal(t, sellerBefore+2999997, e.balance(testutil.Seller))
	assert.Equal(t, marketBefore+3, e.balance(e.market))
	assert.Equal(t, uint64(0), e.balance(e.store))

	_, err = e.call(testutil.Seller, func(s *store.Store) error {
		_, err := s.Owner()
		return err
	})
	assert.ErrorIs(t, err, fault.ErrNoCode)
	err = e.c.View(context.Background(), e.store, func(any) error { return nil })
	assert.ErrorIs(t, err, fault.ErrNoCode)
}
