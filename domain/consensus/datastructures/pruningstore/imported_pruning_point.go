package pruningstore

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/multiset"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

var importedPruningPointUTXOsBucketName = []byte("imported-pruning-point-utxos")
var importedPruningPointMultisetKeyName = []byte("imported-pruning-point-multiset")

// The imported pruning point data bypasses staging: it is streamed in chunks
// from a peer and only becomes consensus state once the import is validated.

func (ps *pruningStore) ClearImportedPruningPointUTXOs(dbContext model.DBWriter) error {
	return clearBucket(dbContext, ps.importedPruningPointUTXOsBucket)
}

func (ps *pruningStore) AppendImportedPruningPointUTXOs(dbTx model.DBTransaction,
	outpointAndUTXOEntryPairs []*externalapi.OutpointAndUTXOEntryPair) error {

	for _, pair := range outpointAndUTXOEntryPairs {
		err := putUTXO(dbTx, ps.importedPruningPointUTXOsBucket, pair.Outpoint, pair.UTXOEntry)
		if err != nil {
			return err
		}
	}
	return nil
}

func (ps *pruningStore) ImportedPruningPointUTXOIterator(dbContext model.DBReader) (externalapi.ReadOnlyUTXOSetIterator, error) {
	cursor, err := dbContext.Cursor(ps.importedPruningPointUTXOsBucket)
	if err != nil {
		return nil, err
	}
	return &utxoSetIterator{cursor: cursor}, nil
}

func (ps *pruningStore) ClearImportedPruningPointMultiset(dbContext model.DBWriter) error {
	return dbContext.Delete(ps.importedPruningPointMultisetKey)
}

// ImportedPruningPointMultiset returns the multiset of the UTXOs imported so far,
// or an empty multiset if nothing was imported
func (ps *pruningStore) ImportedPruningPointMultiset(dbContext model.DBReader) (model.Multiset, error) {
	multisetBytes, err := dbContext.Get(ps.importedPruningPointMultisetKey)
	if database.IsNotFoundError(err) {
		return multiset.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return multiset.FromBytes(multisetBytes)
}

func (ps *pruningStore) UpdateImportedPruningPointMultiset(dbTx model.DBTransaction, ms model.Multiset) error {
	return dbTx.Put(ps.importedPruningPointMultisetKey, ms.Serialize())
}
