package chain

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Event is a notification emitted by a contract during a transaction.
type Event struct {
	Address common.Address `json:"address"`
	Name    string         `json:"name"`
	Fields  []Field        `json:"fields"`
}

// Field is one named event argument, rendered as text.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Get returns the value of the named field, or "" when absent.
func (e Event) Get(name string) string {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// F builds a Field, formatting v the way the API renders it: addresses as
// checksummed hex, 32-byte values as 0x hex, integers in decimal.
func F(name string, v any) Field {
	var s string
	switch x := v.(type) {
	case common.Address:
		s = x.Hex()
	case common.Hash:
		s = x.Hex()
	case [32]byte:
		s = hexutil.Encode(x[:])
	case *uint256.Int:
		s = x.Dec()
	case uint16:
		s = strconv.FormatUint(uint64(x), 10)
	case uint64:
		s = strconv.FormatUint(x, 10)
	case int:
		s = strconv.Itoa(x)
	case bool:
		s = strconv.FormatBool(x)
	case string:
		s = x
	default:
		s = fmt.Sprint(x)
	}
	return Field{Name: name, Value: s}
}
