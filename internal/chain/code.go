package chain

import (
	"fmt"

	"github.com/joestump/joe-market/internal/fault"
)

// Binder turns an execution frame into the typed contract object whose
// methods run against that frame.
type Binder func(f *Frame) any

// Code describes one deployable contract implementation.
type Code struct {
	Kind    string
	Version string
	Layout  Layout
	Bind    Binder

	// Upgradeable marks code that may sit behind a proxy.
	Upgradeable bool

	// Tables lists the collection tables keyed by a contract column whose
	// rows are removed when an instance of this code self-destructs.
	Tables []string
}

// ID returns the registry key of c.
func (c Code) ID() string {
	return c.Kind + "/" + c.Version
}

// Forwarder is implemented by contracts that dispatch calls they do not
// handle themselves to another piece of code, such as a proxy.
type Forwarder interface {
	Forward() (any, error)
}

// Resolve returns target as a T, following Forwarders until a contract
// implementing T is reached.
func Resolve[T any](target any) (T, error) {
	var zero T
	for depth := 0; depth < maxForwardDepth; depth++ {
		if t, ok := target.(T); ok {
			return t, nil
		}
		fw, ok := target.(Forwarder)
		if !ok {
			return zero, fault.ErrWrongKind
		}
		next, err := fw.Forward()
		if err != nil {
			return zero, err
		}
		target = next
	}
	return zero, fmt.Errorf("forwarding deeper than %d: %w", maxForwardDepth, fault.ErrWrongKind)
}

const maxForwardDepth = 8
