package hashset

import (
	"strings"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// HashSet is an unsorted unique collection of DomainHashes
type HashSet map[externalapi.DomainHash]struct{}

// New creates and returns an empty HashSet
func New() HashSet {
	return HashSet{}
}

// NewFromSlice creates and returns a HashSet with the given hashes
func NewFromSlice(hashes ...*externalapi.DomainHash) HashSet {
	set := New()
	for _, hash := range hashes {
		set.Add(hash)
	}
	return set
}

// Add adds a hash to this HashSet
func (hs HashSet) Add(hash *externalapi.DomainHash) {
	hs[*hash] = struct{}{}
}

// Remove removes a hash from this HashSet
func (hs HashSet) Remove(hash *externalapi.DomainHash) {
	delete(hs, *hash)
}

// Contains returns true if this HashSet contains the given hash
func (hs HashSet) Contains(hash *externalapi.DomainHash) bool {
	_, ok := hs[*hash]
	return ok
}

// Subtract creates and returns a new HashSet containing all the hashes
// in this HashSet, except those in `other`
func (hs HashSet) Subtract(other HashSet) HashSet {
	diff := New()
	for hash := range hs {
		if !other.Contains(&hash) {
			diff[hash] = struct{}{}
		}
	}
	return diff
}

// ContainsAllInSlice returns true if this HashSet contains all the given hashes
func (hs HashSet) ContainsAllInSlice(slice []*externalapi.DomainHash) bool {
	for _, hash := range slice {
		if !hs.Contains(hash) {
			return false
		}
	}
	return true
}

// ToSlice converts this HashSet to a slice
func (hs HashSet) ToSlice() []*externalapi.DomainHash {
	slice := make([]*externalapi.DomainHash, 0, len(hs))
	for hash := range hs {
		hash := hash
		slice = append(slice, &hash)
	}
	return slice
}

// Length returns the length of this HashSet
func (hs HashSet) Length() int {
	return len(hs)
}

func (hs HashSet) String() string {
	hashStrings := make([]string, 0, len(hs))
	for hash := range hs {
		hashStrings = append(hashStrings, hash.String())
	}
	return "[" + strings.Join(hashStrings, ", ") + "]"
}
