package store_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/marketplace"
	"github.com/joestump/joe-market/internal/store"
	"github.com/joestump/joe-market/internal/testutil"
)

var desc = [32]byte{0x01}

type env struct {
	t      *testing.T
	c      *chain.Chain
	market common.Address
	store  common.Address
}

// newEnv deploys a marketplace and approves one store for testutil.Seller
// at index 0.
func newEnv(t *testing.T) *env {
	t.Helper()
	c := testutil.NewTestChain(t)
	e := &env{t: t, c: c, market: testutil.NewTestMarketplace(t, c)}

	_, err := e.manage(testutil.Seller, func(m marketplace.Manager) error {
		_, err := m.RequestStore(desc)
		return err
	})
	require.NoError(t, err)
	_, err = e.manage(testutil.Admin, func(m marketplace.Manager) error {
		var err error
		e.store, err = m.ApproveStore(true, 0)
		return err
	})
	require.NoError(t, err)
	return e
}

func (e *env) manage(from common.Address, fn func(m marketplace.Manager) error) (*chain.Receipt, error) {
	msg := chain.Msg{From: from, To: e.market, Method: "manage"}
	return e.c.Transact(context.Background(), msg, func(target any) error {
		m, err := chain.Resolve[marketplace.Manager](target)
		if err != nil {
			return err
		}
		return fn(m)
	})
}

func (e *env) call(from common.Address, fn func(s *store.Store) error) (*chain.Receipt, error) {
	return e.pay(from, 0, fn)
}

func (e *env) pay(from common.Address, value uint64, fn func(s *store.Store) error) (*chain.Receipt, error) {
	msg := chain.Msg{From: from, To: e.store, Value: uint256.NewInt(value), Method: "store"}
	return e.c.Transact(context.Background(), msg, func(target any) error {
		s, err := chain.Resolve[*store.Store](target)
		if err != nil {
			return err
		}
		return fn(s)
	})
}

func (e *env) view(fn func(s *store.Store) error) {
	e.t.Helper()
	err := e.c.View(context.Background(), e.store, func(target any) error {
		return fn(target.(*store.Store))
	})
	require.NoError(e.t, err)
}

func (e *env) balance(addr common.Address) uint64 {
	e.t.Helper()
	bal, err := e.c.Balance(context.Background(), addr)
	require.NoError(e.t, err)
	return bal.Uint64()
}

func (e *env) addProduct(quantity uint16, price uint64) uint64 {
	e.t.Helper()
	var idx uint64
	_, err := e.call(testutil.Seller, func(s *store.Store) error {
		var err error
		idx, err = s.AddProduct(desc, quantity, uint256.NewInt(price))
		return err
	})
	require.NoError(e.t, err)
	return idx
}

func (e *env) product(index uint64) store.Product {
	e.t.Helper()
	var p store.Product
	e.view(func(s *store.Store) error {
		var err error
		p, err = s.Product(index)
		return err
	})
	return p
}
