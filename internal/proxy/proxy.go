// Package proxy implements an upgradeable proxy. Every call it does not
// handle itself runs the current implementation's code against the
// proxy's own storage and balance, so state and address survive an
// upgrade.
//
// The proxy keeps its owner and implementation at hashed slots that no
// sequential layout reaches. An upgrade is refused unless the new code
// keeps the current code's storage layout as a prefix.
package proxy

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/joestump/joe-market/internal/access"
	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/fault"
)

const (
	Kind    = "proxy"
	Version = "v1"
)

var (
	slotOwner          = crypto.Keccak256Hash([]byte("joe-market.proxy.owner"))
	slotImplementation = crypto.Keccak256Hash([]byte("joe-market.proxy.implementation"))

	admin = access.Ownable{Slot: slotOwner}
)

// Code returns the registrable code of the proxy.
func Code() chain.Code {
	return chain.Code{
		Kind:    Kind,
		Version: Version,
		Bind:    func(f *chain.Frame) any { return &Proxy{f: f} },
	}
}

// Proxy is a proxy contract bound to one call frame.
type Proxy struct {
	f *chain.Frame
}

// Construct points the proxy at implementation and makes the deployer its
// owner.
func (p *Proxy) Construct(implementation common.Address) error {
	if _, err := p.implementationCode(implementation); err != nil {
		return err
	}
	if err := admin.Construct(p.f, p.f.Caller()); err != nil {
		return err
	}
	return p.f.StoreAddress(slotImplementation, implementation)
}

func (p *Proxy) Implementation() (common.Address, error) {
	return p.f.LoadAddress(slotImplementation)
}

func (p *Proxy) ProxyOwner() (common.Address, error) {
	return admin.Owner(p.f)
}

// Forward binds the implementation's code to the proxy's frame.
func (p *Proxy) Forward() (any, error) {
	impl, err := p.Implementation()
	if err != nil {
		return nil, err
	}
	if impl == (common.Address{}) {
		return nil, fault.ErrNoCode
	}
	code, err := p.f.CodeAt(impl)
	if err != nil {
		return nil, err
	}
	return p.f.Delegate(code)
}

// UpgradeImplementation switches calls to the code at next. The new code
// must be of the same kind and must extend the current storage layout.
func (p *Proxy) UpgradeImplementation(next common.Address) error {
	if err := p.requireProxyOwner(); err != nil {
		return err
	}
	nextCode, err := p.implementationCode(next)
	if err != nil {
		return err
	}
	cur, err := p.Implementation()
	if err != nil {
		return err
	}
	curCode, err := p.f.CodeAt(cur)
	if err != nil {
		return err
	}
	if nextCode.Kind != curCode.Kind {
		return fault.ErrImplementationKind
	}
	if !nextCode.Layout.Extends(curCode.Layout) {
		return fmt.Errorf("%s/%s over %s/%s: %w",
			nextCode.Kind, nextCode.Version, curCode.Kind, curCode.Version, fault.ErrIncompatibleLayout)
	}
	if err := p.f.StoreAddress(slotImplementation, next); err != nil {
		return err
	}
	p.f.Emit("Upgraded", chain.F("implementation", next))
	return nil
}

// TransferProxyOwnership hands upgrade rights to newOwner.
func (p *Proxy) TransferProxyOwnership(newOwner common.Address) error {
	if err := p.requireProxyOwner(); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return fault.ErrZeroAddress
	}
	prev, err := p.ProxyOwner()
	if err != nil {
		return err
	}
	if err := p.f.StoreAddress(slotOwner, newOwner); err != nil {
		return err
	}
	p.f.Emit("ProxyOwnershipTransferred",
		chain.F("previousOwner", prev),
		chain.F("newOwner", newOwner))
	return nil
}

func (p *Proxy) requireProxyOwner() error {
	err := admin.RequireOwner(p.f)
	if fault.IsErrUnauthorized(err) {
		return fault.ErrNotProxyOwner
	}
	return err
}

func (p *Proxy) implementationCode(addr common.Address) (chain.Code, error) {
	if addr == (common.Address{}) {
		return chain.Code{}, fault.ErrZeroAddress
	}
	code, err := p.f.CodeAt(addr)
	if err != nil {
		return chain.Code{}, err
	}
	if !code.Upgradeable {
		return chain.Code{}, fault.ErrNotUpgradeable
	}
	return code, nil
}
