package auth

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type contextKey string

const AddressContextKey contextKey = "address"

// WithAddress returns a copy of ctx carrying the authenticated account.
func WithAddress(ctx context.Context, addr common.Address) context.Context {
	return context.WithValue(ctx, AddressContextKey, addr)
}

// AddressFromContext retrieves the authenticated account from the context.
// ok is false when the request was not authenticated.
func AddressFromContext(ctx context.Context) (addr common.Address, ok bool) {
	addr, ok = ctx.Value(AddressContextKey).(common.Address)
	return addr, ok
}
