package testutil

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jmoiron/sqlx"

	"github.com/joestump/joe-market/internal/chain"
	"github.com/joestump/joe-market/internal/market"
)

// Well-known test accounts.
var (
	Admin    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	Seller   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	Buyer    = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	Stranger = common.HexToAddress("0x00000000000000000000000000000000000000d4")
)

// NewTestChain returns a chain over a fresh test database with every
// contract code registered and each well-known account funded.
func NewTestChain(t *testing.T) *chain.Chain {
	t.Helper()
	return NewTestChainOn(t, NewTestDB(t))
}

// NewTestChainOn is NewTestChain over an existing test database, for tests
// that also need the database for something else.
func NewTestChainOn(t *testing.T, db *sqlx.DB) *chain.Chain {
	t.Helper()
	c := market.NewChain(db, nil)
	for _, a := range []common.Address{Admin, Seller, Buyer, Stranger} {
		if _, err := c.Mint(context.Background(), a, uint256.NewInt(1_000_000_000_000)); err != nil {
			t.Fatalf("fund %s: %v", a.Hex(), err)
		}
	}
	return c
}

// NewTestMarketplace deploys a v1 marketplace behind a proxy owned by
// Admin and returns the proxy address.
func NewTestMarketplace(t *testing.T, c *chain.Chain) common.Address {
	t.Helper()
	d, err := market.DeployMarketplace(context.Background(), c, Admin, "v1")
	if err != nil {
		t.Fatalf("deploy marketplace: %v", err)
	}
	return d.Proxy
}
