package chain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/joestump/joe-market/internal/fault"
)

const maxCallDepth = 64

// Frame is one call in progress. Self is the account whose storage and
// balance the call operates on; Code is the implementation running against
// it. A delegated frame keeps Self, Caller and Value of its parent and only
// swaps the code.
type Frame struct {
	t      *txn
	self   common.Address
	code   Code
	caller common.Address
	value  *uint256.Int
	depth  int
}

func (f *Frame) Self() common.Address   { return f.self }
func (f *Frame) Caller() common.Address { return f.caller }
func (f *Frame) Code() Code             { return f.code }

// Value returns a copy of the native amount attached to the call.
func (f *Frame) Value() *uint256.Int {
	if f.value == nil {
		return new(uint256.Int)
	}
	return f.value.Clone()
}

func (f *Frame) Context() context.Context { return f.t.ctx }

// Load reads a storage word of Self.
func (f *Frame) Load(slot common.Hash) (common.Hash, error) {
	return f.t.load(f.self, slot)
}

// Store writes a storage word of Self.
func (f *Frame) Store(slot, value common.Hash) error {
	return f.t.store(f.self, slot, value)
}

func (f *Frame) LoadAddress(slot common.Hash) (common.Address, error) {
	w, err := f.Load(slot)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(w[12:]), nil
}

func (f *Frame) StoreAddress(slot common.Hash, a common.Address) error {
	return f.Store(slot, common.BytesToHash(a[:]))
}

func (f *Frame) LoadUint(slot common.Hash) (*uint256.Int, error) {
	w, err := f.Load(slot)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(w[:]), nil
}

func (f *Frame) StoreUint(slot common.Hash, v *uint256.Int) error {
	return f.Store(slot, common.Hash(v.Bytes32()))
}

func (f *Frame) LoadBool(slot common.Hash) (bool, error) {
	w, err := f.Load(slot)
	if err != nil {
		return false, err
	}
	return w != (common.Hash{}), nil
}

func (f *Frame) StoreBool(slot common.Hash, b bool) error {
	var w common.Hash
	if b {
		w[31] = 1
	}
	return f.Store(slot, w)
}

// Balance returns the native balance of addr.
func (f *Frame) Balance(addr common.Address) (*uint256.Int, error) {
	return f.t.balance(addr)
}

// Transfer sends amount from Self to the given account.
func (f *Frame) Transfer(to common.Address, amount *uint256.Int) error {
	if f.t.readOnly {
		return errReadOnly
	}
	return f.t.transfer(f.self, to, amount)
}

// Emit records an event attributed to Self. Events are only kept when the
// transaction commits.
func (f *Frame) Emit(name string, fields ...Field) {
	if f.t.readOnly {
		return
	}
	f.t.events = append(f.t.events, Event{Address: f.self, Name: name, Fields: fields})
}

// CodeAt returns the live code deployed at addr.
func (f *Frame) CodeAt(addr common.Address) (Code, error) {
	return f.t.codeAt(addr)
}

// Call binds the contract at to with Self as the caller, sending value
// along with the call.
func (f *Frame) Call(to common.Address, value *uint256.Int) (any, error) {
	if f.depth+1 > maxCallDepth {
		return nil, fmt.Errorf("call depth exceeded")
	}
	code, err := f.t.codeAt(to)
	if err != nil {
		return nil, err
	}
	if value != nil && !value.IsZero() {
		if err := f.Transfer(to, value); err != nil {
			return nil, err
		}
	}
	sub := &Frame{t: f.t, self: to, code: code, caller: f.self, value: value, depth: f.depth + 1}
	return code.Bind(sub), nil
}

// Delegate runs code against the storage, balance, caller and value of
// this frame.
func (f *Frame) Delegate(code Code) (any, error) {
	if f.depth+1 > maxCallDepth {
		return nil, fmt.Errorf("call depth exceeded")
	}
	sub := &Frame{t: f.t, self: f.self, code: code, caller: f.caller, value: f.value, depth: f.depth + 1}
	return code.Bind(sub), nil
}

// Create deploys a new contract of the registered kind and version. The
// address derives from Self and its nonce, so it is never reused. The
// returned object is bound with Self as the caller, ready for its
// constructor to run.
func (f *Frame) Create(kind, version string, value *uint256.Int) (common.Address, any, error) {
	if f.t.readOnly {
		return common.Address{}, nil, errReadOnly
	}
	code, ok := f.t.chain.code(kind, version)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("unregistered code %s/%s", kind, version)
	}
	nonce, err := f.t.nextNonce(f.self)
	if err != nil {
		return common.Address{}, nil, err
	}
	addr := crypto.CreateAddress(f.self, nonce)
	if err := f.t.install(addr, f.self, code); err != nil {
		return common.Address{}, nil, err
	}
	if err := f.Transfer(addr, value); err != nil {
		return common.Address{}, nil, err
	}
	sub := &Frame{t: f.t, self: addr, code: code, caller: f.self, value: value, depth: f.depth + 1}
	return addr, code.Bind(sub), nil
}

// SelfDestruct sends whatever balance Self still holds to beneficiary,
// then removes Self's code and state. Later calls to Self fail with
// fault.ErrNoCode.
func (f *Frame) SelfDestruct(beneficiary common.Address) error {
	if f.t.readOnly {
		return errReadOnly
	}
	bal, err := f.t.balance(f.self)
	if err != nil {
		return err
	}
	if err := f.t.transfer(f.self, beneficiary, bal); err != nil {
		return err
	}
	return f.t.destroy(f.self, f.code)
}

// Exec runs a statement against the transaction. Placeholders use ? and
// are rebound for the active driver.
func (f *Frame) Exec(query string, args ...any) error {
	if f.t.readOnly {
		return errReadOnly
	}
	_, err := f.t.tx.ExecContext(f.t.ctx, f.t.q(query), args...)
	return err
}

// Get scans a single row into dest. A missing row yields fault.ErrNotFound.
func (f *Frame) Get(dest any, query string, args ...any) error {
	err := f.t.tx.GetContext(f.t.ctx, dest, f.t.q(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fault.ErrNotFound
	}
	return err
}

// Select scans all matching rows into dest.
func (f *Frame) Select(dest any, query string, args ...any) error {
	return f.t.tx.SelectContext(f.t.ctx, dest, f.t.q(query), args...)
}

var errReadOnly = errors.New("state change in a read-only call")
