// Package fault - error instances
//
// Provides a single instance of each revert reason so callers can compare
// with errors.Is, and a small set of classes so callers can tell what kind
// of precondition failed without resorting to string matches.
package fault

import "errors"

// error base
type GenericError string

// classes of failure, one per kind of rejected call
type UnauthorizedError GenericError
type InvalidError GenericError
type ArithmeticError GenericError
type StateError GenericError
type NotFoundError GenericError

// common errors - keep grouped by class
var (
	ErrNotOwner              = UnauthorizedError("caller is not the owner")
	ErrNotProxyOwner         = UnauthorizedError("caller is not the proxy owner")
	ErrNotMarketplace        = UnauthorizedError("caller is not the marketplace")
	ErrNotOwnerOrMarketplace = UnauthorizedError("caller is neither the owner nor the marketplace")
	ErrNotCandidate          = UnauthorizedError("caller is not the ownership candidate")
	ErrNotRegisteredStore    = UnauthorizedError("caller is not a registered store of the previous owner")

	ErrZeroAddress          = InvalidError("address is zero")
	ErrZeroAmount           = InvalidError("amount is zero")
	ErrZeroQuantity         = InvalidError("quantity is zero")
	ErrIndexOutOfRange      = InvalidError("index is out of range")
	ErrEmptyDescription     = InvalidError("description is empty")
	ErrEmptyProposal        = InvalidError("proposal is empty")
	ErrSlotOccupied         = InvalidError("target slot is not empty")
	ErrIndexMismatch        = InvalidError("confirmation index does not match the requested index")
	ErrWrongPayment         = InvalidError("payment does not equal price times quantity")
	ErrNotUpgradeable       = InvalidError("address does not hold upgradeable code")
	ErrIncompatibleLayout   = InvalidError("implementation storage layout is not an append-only extension")
	ErrImplementationKind   = InvalidError("implementation kind differs from the current implementation")
	ErrInvalidAddress       = InvalidError("address is malformed")
	ErrInvalidAmount        = InvalidError("amount is malformed")
	ErrInvalidDescription   = InvalidError("description is malformed")
	ErrStoreCapacityReached = InvalidError("store capacity reached")

	ErrOverflow            = ArithmeticError("arithmetic overflow")
	ErrUnderflow           = ArithmeticError("arithmetic underflow")
	ErrDivisionByZero      = ArithmeticError("division by zero")
	ErrInsufficientBalance = ArithmeticError("insufficient balance")

	ErrAlreadyInitialised = StateError("owner is already initialised")
	ErrPaused             = StateError("contract is paused")
	ErrNotPaused          = StateError("contract is not paused")
	ErrEmptyQueue         = StateError("no pending store request")
	ErrEmptySlot          = StateError("store slot is empty")
	ErrNoCode             = StateError("no contract code at address")
	ErrNoPendingTransfer  = StateError("no ownership transfer is pending")
	ErrWrongKind          = StateError("contract does not implement the requested interface")

	ErrNotFound = NotFoundError("not found")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e UnauthorizedError) Error() string { return string(e) }
func (e InvalidError) Error() string      { return string(e) }
func (e ArithmeticError) Error() string   { return string(e) }
func (e StateError) Error() string        { return string(e) }
func (e NotFoundError) Error() string     { return string(e) }

// determine the class of an error, looking through wrapping
func IsErrUnauthorized(e error) bool { var t UnauthorizedError; return errors.As(e, &t) }
func IsErrInvalid(e error) bool      { var t InvalidError; return errors.As(e, &t) }
func IsErrArithmetic(e error) bool   { var t ArithmeticError; return errors.As(e, &t) }
func IsErrState(e error) bool        { var t StateError; return errors.As(e, &t) }
func IsErrNotFound(e error) bool     { var t NotFoundError; return errors.As(e, &t) }

// Class returns a short machine-readable name for the class of e, or
// "internal" when e does not belong to any class.
func Class(e error) string {
	switch {
	case IsErrUnauthorized(e):
		return "unauthorized"
	case IsErrInvalid(e):
		return "invalid"
	case IsErrArithmetic(e):
		return "arithmetic"
	case IsErrState(e):
		return "state"
	case IsErrNotFound(e):
		return "not_found"
	default:
		return "internal"
	}
}
