package chain

import "fmt"

// RevertError is returned by Transact, Deploy and Mint when a call failed
// and none of its effects were persisted.
type RevertError struct {
	Method string
	Err    error
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("revert %s: %v", e.Method, e.Err)
}

func (e *RevertError) Unwrap() error { return e.Err }
