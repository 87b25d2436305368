package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Var is one declared storage variable of a contract.
type Var struct {
	Name string
	Type string
}

// Layout is the ordered list of storage variables a contract declares.
// Position i occupies slot i. Collections (arrays, mappings) hold their
// slot for ordering purposes even though their elements live in
// dedicated tables.
type Layout []Var

// Extends reports whether l keeps every variable of prev at the same
// position with the same name and type, adding new ones only at the end.
func (l Layout) Extends(prev Layout) bool {
	if len(l) < len(prev) {
		return false
	}
	for i, v := range prev {
		if l[i] != v {
			return false
		}
	}
	return true
}

// Slot returns the storage key of the named variable. It panics when the
// name is not declared, so callers resolve their slots at package init.
func (l Layout) Slot(name string) common.Hash {
	for i, v := range l {
		if v.Name == name {
			return common.Hash(uint256.NewInt(uint64(i)).Bytes32())
		}
	}
	panic(fmt.Sprintf("chain: storage variable %q not declared in layout", name))
}
