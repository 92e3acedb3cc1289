package prefix

import (
	"fmt"

	"github.com/pkg/errors"
)

// slotCount is the number of consensus instances one database can hold: the
// active consensus and the staging consensus built by a headers-proof IBD.
const slotCount = 2

// Prefix selects the database slot a consensus instance keeps its stores
// under. The zero value is the first slot.
type Prefix struct {
	slot byte
}

// Serialize returns the key prefix of the slot
func (p *Prefix) Serialize() []byte {
	return []byte{p.slot}
}

// Flip returns the other slot. A staging consensus is created under the flip
// of the active prefix, and the two swap when it is committed.
func (p *Prefix) Flip() *Prefix {
	return &Prefix{slot: (p.slot + 1) % slotCount}
}

func (p *Prefix) String() string {
	return fmt.Sprintf("consensus slot %d", p.slot)
}

// Deserialize parses a prefix written by Serialize
func Deserialize(prefixBytes []byte) (*Prefix, error) {
	if len(prefixBytes) != 1 {
		return nil, errors.Errorf("invalid length %d for prefix", len(prefixBytes))
	}
	if prefixBytes[0] >= slotCount {
		return nil, errors.Errorf("invalid prefix slot %d", prefixBytes[0])
	}
	return &Prefix{slot: prefixBytes[0]}, nil
}
