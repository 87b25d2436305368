// Package market wires the contract kinds into a chain and provides the
// deployment flows shared by the CLI, the API and tests.
package market

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/marketplace"
	"github.com/joestump/joe-market/internal/proxy"
	"github.com/joestump/joe-market/internal/store"
)

// Codes returns every contract code the marketplace system deploys.
func Codes() []chain.Code {
	return []chain.Code{
		store.Code(),
		marketplace.CodeV1(),
		marketplace.CodeV2(),
		proxy.Code(),
	}
}

// NewChain returns a chain over db with all contract codes registered.
func NewChain(db *sqlx.DB, log chain.Logger) *chain.Chain {
	return chain.New(db, log, Codes()...)
}

// Deployment is the result of DeployMarketplace.
type Deployment struct {
	Proxy          common.Address
	Implementation common.Address
}

// DeployMarketplace deploys a marketplace implementation of the given
// version, a proxy in front of it, and claims the marketplace for from
// through the proxy. from ends up owning both the proxy and the
// marketplace.
func DeployMarketplace(ctx context.Context, c *chain.Chain, from common.Address, version string) (Deployment, error) {
	impl, err := c.Deploy(ctx, from, marketplace.Kind, version, nil)
	if err != nil {
		return Deployment{}, fmt.Errorf("deploy implementation: %w", err)
	}
	px, err := c.Deploy(ctx, from, proxy.Kind, proxy.Version, func(target any) error {
		p, err := chain.Resolve[*proxy.Proxy](target)
		if err != nil {
			return err
		}
		return p.Construct(impl.Created)
	})
	if err != nil {
		return Deployment{}, fmt.Errorf("deploy proxy: %w", err)
	}
	_, err = c.Transact(ctx, chain.Msg{From: from, To: px.Created, Method: "init"}, func(target any) error {
		m, err := chain.Resolve[marketplace.Manager](target)
		if err != nil {
			return err
		}
		return m.Init()
	})
	if err != nil {
		return Deployment{}, fmt.Errorf("init marketplace: %w", err)
	}
	return Deployment{Proxy: px.Created, Implementation: impl.Created}, nil
}

// UpgradeMarketplace deploys a new implementation of the given version and
// points the proxy at it. Only the proxy owner can do this. It returns the
// new implementation address.
func UpgradeMarketplace(ctx context.Context, c *chain.Chain, from, proxyAddr common.Address, version string) (common.Address, error) {
	impl, err := c.Deploy(ctx, from, marketplace.Kind, version, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("deploy implementation: %w", err)
	}
	_, err = c.Transact(ctx, chain.Msg{From: from, To: proxyAddr, Method: "upgradeImplementation"}, func(target any) error {
		p, err := chain.Resolve[*proxy.Proxy](target)
		if err != nil {
			return err
		}
		return p.UpgradeImplementation(impl.Created)
	})
	if err != nil {
		return common.Address{}, err
	}
	return impl.Created, nil
}
