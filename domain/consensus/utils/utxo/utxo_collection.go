package utxo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

type utxoCollection map[externalapi.DomainOutpoint]externalapi.UTXOEntry

// NewUTXOCollection creates a new utxoCollection out of the given map
func NewUTXOCollection(utxoMap map[externalapi.DomainOutpoint]externalapi.UTXOEntry) externalapi.UTXOCollection {
	return utxoCollection(utxoMap)
}

// Get returns the UTXOEntry represented by provided outpoint,
// and a boolean value indicating if said UTXOEntry is in the set or not
func (uc utxoCollection) Get(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool) {
	entry, ok := uc[*outpoint]
	return entry, ok
}

// Contains returns a boolean value indicating whether a UTXO entry is in the set
func (uc utxoCollection) Contains(outpoint *externalapi.DomainOutpoint) bool {
	_, ok := uc[*outpoint]
	return ok
}

func (uc utxoCollection) Len() int {
	return len(uc)
}

func (uc utxoCollection) Iterator() externalapi.ReadOnlyUTXOSetIterator {
	return newCollectionIterator(uc)
}

func (uc utxoCollection) add(outpoint *externalapi.DomainOutpoint, entry externalapi.UTXOEntry) {
	uc[*outpoint] = entry
}

func (uc utxoCollection) remove(outpoint *externalapi.DomainOutpoint) {
	delete(uc, *outpoint)
}

func (uc utxoCollection) clone() utxoCollection {
	clone := make(utxoCollection, len(uc))
	for outpoint, entry := range uc {
		clone[outpoint] = entry
	}
	return clone
}

func (uc utxoCollection) String() string {
	utxoStrings := make([]string, 0, len(uc))
	for outpoint, entry := range uc {
		utxoStrings = append(utxoStrings, fmt.Sprintf("(%s, %d) => %d, daaScore: %d",
			outpoint.TransactionID, outpoint.Index, entry.Amount(), entry.BlockDAAScore()))
	}

	// Sort strings for determinism.
	sort.Strings(utxoStrings)

	return fmt.Sprintf("[ %s ]", strings.Join(utxoStrings, ", "))
}

type utxoOutpointEntryPair struct {
	outpoint externalapi.DomainOutpoint
	entry    externalapi.UTXOEntry
}

type utxoCollectionIterator struct {
	index    int
	pairs    []utxoOutpointEntryPair
	isClosed bool
}

func newCollectionIterator(collection utxoCollection) externalapi.ReadOnlyUTXOSetIterator {
	pairs := make([]utxoOutpointEntryPair, 0, len(collection))
	for outpoint, entry := range collection {
		pairs = append(pairs, utxoOutpointEntryPair{outpoint: outpoint, entry: entry})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return outpointLess(&pairs[i].outpoint, &pairs[j].outpoint)
	})
	return &utxoCollectionIterator{index: -1, pairs: pairs}
}

func (u *utxoCollectionIterator) First() bool {
	if u.isClosed {
		panic("Tried using a closed utxoCollectionIterator")
	}
	u.index = 0
	return len(u.pairs) > 0
}

func (u *utxoCollectionIterator) Next() bool {
	if u.isClosed {
		panic("Tried using a closed utxoCollectionIterator")
	}
	u.index++
	return u.index < len(u.pairs)
}

func (u *utxoCollectionIterator) Get() (outpoint *externalapi.DomainOutpoint, utxoEntry externalapi.UTXOEntry, err error) {
	if u.isClosed {
		return nil, nil, errClosedIterator
	}
	pair := u.pairs[u.index]
	return &pair.outpoint, pair.entry, nil
}

func (u *utxoCollectionIterator) Close() error {
	if u.isClosed {
		return errClosedIterator
	}
	u.isClosed = true
	u.pairs = nil
	return nil
}

func outpointLess(a, b *externalapi.DomainOutpoint) bool {
	if !a.TransactionID.Equal(&b.TransactionID) {
		return a.TransactionID.Less(&b.TransactionID)
	}
	return a.Index < b.Index
}
