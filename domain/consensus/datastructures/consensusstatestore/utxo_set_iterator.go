package consensusstatestore

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/pkg/errors"
)

var errClosedIterator = errors.New("tried using a closed iterator")

// VirtualUTXOSetIterator iterates the virtual UTXO set as seen from the given staging area.
// Committed or overridden entries come first in outpoint order, followed by staged additions.
func (css *consensusStateStore) VirtualUTXOSetIterator(dbContext model.DBReader, stagingArea *model.StagingArea) (
	externalapi.ReadOnlyUTXOSetIterator, error) {

	stagingShard := css.stagingShard(stagingArea)

	var base externalapi.ReadOnlyUTXOSetIterator
	if stagingShard.virtualUTXOSetOverride != nil {
		base = stagingShard.virtualUTXOSetOverride.Iterator()
	} else {
		cursor, err := dbContext.Cursor(css.utxoSetBucket)
		if err != nil {
			return nil, err
		}
		base = newCursorUTXOSetIterator(cursor)
	}

	if stagingShard.virtualUTXODiffStaging == nil {
		return base, nil
	}
	return utxo.NewDiffIterator(base, stagingShard.virtualUTXODiffStaging), nil
}

type cursorUTXOSetIterator struct {
	cursor   database.Cursor
	isClosed bool
}

func newCursorUTXOSetIterator(cursor database.Cursor) externalapi.ReadOnlyUTXOSetIterator {
	return &cursorUTXOSetIterator{cursor: cursor}
}

func (it *cursorUTXOSetIterator) First() bool {
	if it.isClosed {
		panic("Tried using a closed cursorUTXOSetIterator")
	}
	return it.cursor.First()
}

func (it *cursorUTXOSetIterator) Next() bool {
	if it.isClosed {
		panic("Tried using a closed cursorUTXOSetIterator")
	}
	return it.cursor.Next()
}

func (it *cursorUTXOSetIterator) Get() (outpoint *externalapi.DomainOutpoint, utxoEntry externalapi.UTXOEntry, err error) {
	if it.isClosed {
		return nil, nil, errClosedIterator
	}
	pair, err := readUTXOPair(it.cursor)
	if err != nil {
		return nil, nil, err
	}
	return pair.Outpoint, pair.UTXOEntry, nil
}

func (it *cursorUTXOSetIterator) Close() error {
	if it.isClosed {
		return errClosedIterator
	}
	it.isClosed = true
	return it.cursor.Close()
}
