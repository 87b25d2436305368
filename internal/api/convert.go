package api

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"github.com/joestump/joe-market/internal/fault"
)

// multihash prefix of a sha2-256 digest, as carried by CIDv0 strings
var sha256Multihash = []byte{0x12, 0x20}

// unit suffixes accepted on amounts, as powers of ten of the base unit;
// "gwei" must be tried before "wei"
var units = []struct {
	name string
	exp  int32
}{
	{"ether", 18},
	{"gwei", 9},
	{"wei", 0},
}

const etherExp = 18

// parseAddress accepts 0x-prefixed hex and rejects anything else.
func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) || !strings.HasPrefix(s, "0x") {
		return common.Address{}, fault.ErrInvalidAddress
	}
	return common.HexToAddress(s), nil
}

// parseAmount reads a base-unit integer such as "1500", or a decimal with a
// unit suffix such as "1.5 ether". The result must be a whole number of
// base units that fits in 256 bits.
func parseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(uint256.Int), nil
	}
	exp := int32(0)
	for _, u := range units {
		if strings.HasSuffix(s, u.name) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.name))
			exp = u.exp
			break
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil, fault.ErrInvalidAmount
	}
	d = d.Shift(exp)
	if !d.Equal(d.Truncate(0)) {
		return nil, fault.ErrInvalidAmount
	}
	v, err := uint256.FromDecimal(d.String())
	if err != nil {
		return nil, fault.ErrInvalidAmount
	}
	return v, nil
}

// formatEther renders a base-unit amount as ether.
func formatEther(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	d, err := decimal.NewFromString(v.Dec())
	if err != nil {
		return "0"
	}
	return d.Shift(-etherExp).String()
}

// parseBytes32 reads a description or proposal. It accepts 0x hex of up
// to 32 bytes, left-aligned, or a CIDv0 ("Qm...") whose sha2-256 digest
// becomes the value.
func parseBytes32(s string) ([32]byte, error) {
	var out [32]byte
	switch {
	case strings.HasPrefix(s, "0x"):
		b, err := hexutil.Decode(s)
		if err != nil || len(b) > 32 {
			return out, fault.ErrInvalidDescription
		}
		copy(out[:], b)
	case strings.HasPrefix(s, "Qm"):
		b, err := base58.Decode(s)
		if err != nil || len(b) != 34 || b[0] != sha256Multihash[0] || b[1] != sha256Multihash[1] {
			return out, fault.ErrInvalidDescription
		}
		copy(out[:], b[2:])
	default:
		return out, fault.ErrInvalidDescription
	}
	return out, nil
}

// cidOf renders b as the CIDv0 that parseBytes32 would read back into it.
func cidOf(b [32]byte) string {
	return base58.Encode(append(append([]byte{}, sha256Multihash...), b[:]...))
}

// ContentCID returns the CIDv0 of raw content, for callers that hold the
// document a description points at.
func ContentCID(content []byte) string {
	return cidOf(sha256.Sum256(content))
}

func parseUint16(n uint64) (uint16, error) {
	if n > 0xffff {
		return 0, fmt.Errorf("%d: %w", n, fault.ErrOverflow)
	}
	return uint16(n), nil
}
