package proxy_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/fault"
	"github.com/joestump/joe-market/internal/market"
	"github.com/joestump/joe-market/internal/marketplace"
	"github.com/joestump/joe-market/internal/proxy"
	"github.com/joestump/joe-market/internal/testutil"
)

func admin(c *chain.Chain, from, px common.Address, fn func(p *proxy.Proxy) error) (*chain.Receipt, error) {
	return c.Transact(context.Background(), chain.Msg{From: from, To: px, Method: "admin"}, func(target any) error {
		p, err := chain.Resolve[*proxy.Proxy](target)
		if err != nil {
			return err
		}
		return fn(p)
	})
}

func manage(c *chain.Chain, from, px common.Address, fn func(m marketplace.Manager) error) error {
	_, err := c.Transact(context.Background(), chain.Msg{From: from, To: px, Method: "manage"}, func(target any) error {
		m, err := chain.Resolve[marketplace.Manager](target)
		if err != nil {
			return err
		}
		return fn(m)
	})
	return err
}

func deployImpl(t *testing.T, c *chain.Chain, kind, version string) common.Address {
	t.Helper()
	r, err := c.Deploy(context.Background(), testutil.Admin, kind, version, nil)
	require.NoError(t, err)
	return r.Created
}

func TestDeploy(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestChain(t)

	d, err := market.DeployMarketplace(ctx, c, testutil.Admin, marketplace.VersionV1)
	require.NoError(t, err)

	err = c.View(ctx, d.Proxy, func(target any) error {
		p := target.(*proxy.Proxy)
		impl, err := p.Implementation()
		require.NoError(t, err)
		assert.Equal(t, d.Implementation, impl)

		owner, err := p.ProxyOwner()
		require.NoError(t, err)
		assert.Equal(t, testutil.Admin, owner)
		return nil
	})
	require.NoError(t, err)
}

func TestConstructRequiresUpgradeableCode(t *testing.T) {
	c := testutil.NewTestChain(t)
	construct := func(impl common.Address) error {
		_, err := c.Deploy(context.Background(), testutil.Admin, proxy.Kind, proxy.Version, func(target any) error {
			return target.(*proxy.Proxy).Construct(impl)
		})
		return err
	}

	assert.ErrorIs(t, construct(common.Address{}), fault.ErrZeroAddress)
	assert.ErrorIs(t, construct(testutil.Stranger), fault.ErrNoCode)

	storeImpl := deployImpl(t, c, "store", "v1")
	assert.ErrorIs(t, construct(storeImpl), fault.ErrNotUpgradeable)
}

func TestStateLivesInProxy(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestChain(t)
	d, err := market.DeployMarketplace(ctx, c, testutil.Admin, marketplace.VersionV1)
	require.NoError(t, err)

	require.NoError(t, manage(c, testutil.Seller, d.Proxy, func(m marketplace.Manager) error {
		_, err := m.RequestStore([32]byte{0x01})
		return err
	}))

	// the implementation's own storage is untouched and unowned
	err = c.View(ctx, d.Implementation, func(target any) error {
		m := target.(marketplace.Manager)
		owner, err := m.Owner()
		require.NoError(t, err)
		assert.Equal(t, common.Address{}, owner)
		reqs, err := m.StoreRequests()
		require.NoError(t, err)
		assert.Empty(t, reqs)
		return nil
	})
	require.NoError(t, err)
}

func TestUpgradePreservesState(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestChain(t)
	d, err := market.DeployMarketplace(ctx, c, testutil.Admin, marketplace.VersionV1)
	require.NoError(t, err)

	var first common.Address
	require.NoError(t, manage(c, testutil.Seller, d.Proxy, func(m marketplace.Manager) error {
		_, err := m.RequestStore([32]byte{0x01})
		return err
	}))
	require.NoError(t, manage(c, testutil.Seller, d.Proxy, func(m marketplace.Manager) error {
		_, err := m.RequestStore([32]byte{0x02})
		return err
	}))
	require.NoError(t, manage(c, testutil.Admin, d.Proxy, func(m marketplace.Manager) error {
		var err error
		first, err = m.ApproveStore(true, 0)
		return err
	}))

	v2, err := market.UpgradeMarketplace(ctx, c, testutil.Admin, d.Proxy, marketplace.VersionV2)
	require.NoError(t, err)

	err = c.View(ctx, d.Proxy, func(target any) error {
		impl, err := target.(*proxy.Proxy).Implementation()
		require.NoError(t, err)
		assert.Equal(t, v2, impl)

		m, err := chain.Resolve[marketplace.Manager](target)
		require.NoError(t, err)
		owner, err := m.Owner()
		require.NoError(t, err)
		assert.Equal(t, testutil.Admin, owner)
		next, err := m.NextRequestIndex()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), next)
		stores, err := m.GetStoresByOwner(testutil.Seller)
		require.NoError(t, err)
		assert.Equal(t, []common.Address{first}, stores)

		counter, err := chain.Resolve[marketplace.Counter](target)
		require.NoError(t, err)
		pending, err := counter.PendingRequests()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), pending)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, manage(c, testutil.Admin, d.Proxy, func(m marketplace.Manager) error {
		_, err := m.ApproveStore(true, 1)
		return err
	}))
	err = c.View(ctx, d.Proxy, func(target any) error {
		counter, err := chain.Resolve[marketplace.Counter](target)
		require.NoError(t, err)
		n, err := counter.ApprovedCount()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
		return nil
	})
	require.NoError(t, err)
}

func TestUpgradeRejections(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestChain(t)
	d, err := market.DeployMarketplace(ctx, c, testutil.Admin, marketplace.VersionV2)
	require.NoError(t, err)

	v1 := deployImpl(t, c, marketplace.Kind, marketplace.VersionV1)
	v2 := deployImpl(t, c, marketplace.Kind, marketplace.VersionV2)
	storeImpl := deployImpl(t, c, "store", "v1")

	upgrade := func(from, impl common.Address) error {
		_, err := admin(c, from, d.Proxy, func(p *proxy.Proxy) error { return p.UpgradeImplementation(impl) })
		return err
	}
	assert.ErrorIs(t, upgrade(testutil.Stranger, v2), fault.ErrNotProxyOwner)
	assert.ErrorIs(t, upgrade(testutil.Admin, common.Address{}), fault.ErrZeroAddress)
	assert.ErrorIs(t, upgrade(testutil.Admin, testutil.Stranger), fault.ErrNoCode)
	assert.ErrorIs(t, upgrade(testutil.Admin, storeImpl), fault.ErrNotUpgradeable)
	// v1 drops the variable v2 appended
	assert.ErrorIs(t, upgrade(testutil.Admin, v1), fault.ErrIncompatibleLayout)

	r, err := admin(c, testutil.Admin, d.Proxy, func(p *proxy.Proxy) error { return p.UpgradeImplementation(v2) })
	require.NoError(t, err)
	require.Len(t, r.Events, 1)
	assert.Equal(t, "Upgraded", r.Events[0].Name)
	assert.Equal(t, v2.Hex(), r.Events[0].Get("implementation"))
}

func TestTransferProxyOwnership(t *testing.T) {
	ctx := context.Background()
	c := testutil.NewTestChain(t)
	d, err := market.DeployMarketplace(ctx, c, testutil.Admin, marketplace.VersionV1)
	require.NoError(t, err)

	transfer := func(from, to common.Address) error {
		_, err := admin(c, from, d.Proxy, func(p *proxy.Proxy) error { return p.TransferProxyOwnership(to) })
		return err
	}
	assert.ErrorIs(t, transfer(testutil.Stranger, testutil.Stranger), fault.ErrNotProxyOwner)
	assert.ErrorIs(t, transfer(testutil.Admin, common.Address{}), fault.ErrZeroAddress)
	require.NoError(t, transfer(testutil.Admin, testutil.Seller))

	_, err = market.UpgradeMarketplace(ctx, c, testutil.Admin, d.Proxy, marketplace.VersionV2)
	assert.ErrorIs(t, err, fault.ErrNotProxyOwner)
	_, err = market.UpgradeMarketplace(ctx, c, testutil.Seller, d.Proxy, marketplace.VersionV2)
	require.NoError(t, err)

	// the marketplace owner is a separate role
	require.NoError(t, manage(c, testutil.Admin, d.Proxy, func(m marketplace.Manager) error {
		return m.TransferOwnership(testutil.Buyer)
	}))
}
