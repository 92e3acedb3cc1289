package utxo

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// diffUTXOSetIterator yields the base entries not removed by the diff,
// then the diff's additions.
type diffUTXOSetIterator struct {
	base          externalapi.ReadOnlyUTXOSetIterator
	diff          externalapi.UTXODiff
	toAdd         externalapi.ReadOnlyUTXOSetIterator
	isInAdditions bool
	isClosed      bool
}

// NewDiffIterator returns an iterator over the UTXO set that results from
// applying diff to the set iterated by base
func NewDiffIterator(base externalapi.ReadOnlyUTXOSetIterator, diff externalapi.UTXODiff) externalapi.ReadOnlyUTXOSetIterator {
	return &diffUTXOSetIterator{
		base:  base,
		diff:  diff,
		toAdd: diff.ToAdd().Iterator(),
	}
}

func (it *diffUTXOSetIterator) First() bool {
	if it.isClosed {
		panic("Tried using a closed diffUTXOSetIterator")
	}
	it.isInAdditions = false
	return it.skipRemoved(it.base.First())
}

func (it *diffUTXOSetIterator) Next() bool {
	if it.isClosed {
		panic("Tried using a closed diffUTXOSetIterator")
	}
	if it.isInAdditions {
		return it.toAdd.Next()
	}
	return it.skipRemoved(it.base.Next())
}

func (it *diffUTXOSetIterator) skipRemoved(ok bool) bool {
	for ; ok; ok = it.base.Next() {
		outpoint, _, err := it.base.Get()
		if err != nil {
			// Surface the error through Get
			return true
		}
		if !it.diff.ToRemove().Contains(outpoint) && !it.diff.ToAdd().Contains(outpoint) {
			return true
		}
	}
	it.isInAdditions = true
	return it.toAdd.First()
}

func (it *diffUTXOSetIterator) Get() (outpoint *externalapi.DomainOutpoint, utxoEntry externalapi.UTXOEntry, err error) {
	if it.isClosed {
		return nil, nil, errClosedIterator
	}
	if it.isInAdditions {
		return it.toAdd.Get()
	}
	return it.base.Get()
}

func (it *diffUTXOSetIterator) Close() error {
	if it.isClosed {
		return errClosedIterator
	}
	it.isClosed = true
	err := it.toAdd.Close()
	if err != nil {
		return err
	}
	return it.base.Close()
}
