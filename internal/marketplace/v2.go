package marketplace

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// V2 counts approved requests in a variable appended after the v1 layout.
type V2 struct {
	V1
}

func (m *V2) ApproveStore(approve bool, storeIndex uint64) (common.Address, error) {
	addr, err := m.V1.ApproveStore(approve, storeIndex)
	if err != nil || !approve {
		return addr, err
	}
	n, err := m.f.LoadUint(slotRequestsApproved)
	if err != nil {
		return common.Address{}, err
	}
	if err := m.f.StoreUint(slotRequestsApproved, new(uint256.Int).AddUint64(n, 1)); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// ApprovedCount is the number of requests approved since the upgrade to
// v2.
func (m *V2) ApprovedCount() (uint64, error) {
	n, err := m.f.LoadUint(slotRequestsApproved)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// PendingRequests is the number of requests not yet consumed.
func (m *V2) PendingRequests() (uint64, error) {
	n, err := m.requestCount()
	if err != nil {
		return 0, err
	}
	next, err := m.NextRequestIndex()
	if err != nil {
		return 0, err
	}
	return n - next, nil
}
