package pruningstore

import (
	"github.com/calico-network/calicod/domain/consensus/database/serialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/pkg/errors"
)

var pruningPointUTXOSetBucketName = []byte("pruning-point-utxo-set")

var errClosedIterator = errors.New("tried using a closed iterator")

// StagePruningPointUTXOSet replaces the stored UTXO set of the pruning point on commit
func (ps *pruningStore) StagePruningPointUTXOSet(stagingArea *model.StagingArea, utxoSet externalapi.UTXOCollection) {
	ps.stagingShard(stagingArea).newPruningPointUTXOSet = utxoSet
}

func (ps *pruningStore) commitPruningPointUTXOSet(dbTx model.DBTransaction, utxoSet externalapi.UTXOCollection) error {
	err := clearBucket(dbTx, ps.pruningPointUTXOSetBucket)
	if err != nil {
		return err
	}
	iterator := utxoSet.Iterator()
	defer iterator.Close()
	for ok := iterator.First(); ok; ok = iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			return err
		}
		err = putUTXO(dbTx, ps.pruningPointUTXOSetBucket, outpoint, entry)
		if err != nil {
			return err
		}
	}
	return nil
}

// PruningPointUTXOs returns up to limit UTXOs of the committed pruning point UTXO set,
// in outpoint order and starting right after fromOutpoint.
func (ps *pruningStore) PruningPointUTXOs(dbContext model.DBReader, fromOutpoint *externalapi.DomainOutpoint,
	limit int) ([]*externalapi.OutpointAndUTXOEntryPair, error) {

	cursor, err := dbContext.Cursor(ps.pruningPointUTXOSetBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	ok := cursor.First()
	if fromOutpoint != nil {
		err := cursor.Seek(ps.pruningPointUTXOSetBucket.Key(utxo.SerializeOutpoint(fromOutpoint)))
		switch {
		case err == nil:
			ok = cursor.Next()
		case database.IsNotFoundError(err):
			_, keyErr := cursor.Key()
			ok = keyErr == nil
		default:
			return nil, err
		}
	}

	pairs := make([]*externalapi.OutpointAndUTXOEntryPair, 0, limit)
	for ; ok && len(pairs) < limit; ok = cursor.Next() {
		outpoint, entry, err := readUTXO(cursor)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, &externalapi.OutpointAndUTXOEntryPair{Outpoint: outpoint, UTXOEntry: entry})
	}
	return pairs, nil
}

func (ps *pruningStore) PruningPointUTXOIterator(dbContext model.DBReader) (externalapi.ReadOnlyUTXOSetIterator, error) {
	cursor, err := dbContext.Cursor(ps.pruningPointUTXOSetBucket)
	if err != nil {
		return nil, err
	}
	return &utxoSetIterator{cursor: cursor}, nil
}

func putUTXO(dbTx model.DBWriter, bucket *database.Bucket, outpoint *externalapi.DomainOutpoint,
	entry externalapi.UTXOEntry) error {

	entryBytes, err := serialization.SerializeUTXOEntry(entry)
	if err != nil {
		return err
	}
	return dbTx.Put(bucket.Key(utxo.SerializeOutpoint(outpoint)), entryBytes)
}

func readUTXO(cursor database.Cursor) (*externalapi.DomainOutpoint, externalapi.UTXOEntry, error) {
	key, err := cursor.Key()
	if err != nil {
		return nil, nil, err
	}
	outpoint, err := utxo.DeserializeOutpoint(key.Suffix())
	if err != nil {
		return nil, nil, err
	}
	entryBytes, err := cursor.Value()
	if err != nil {
		return nil, nil, err
	}
	entry, err := serialization.DeserializeUTXOEntry(entryBytes)
	if err != nil {
		return nil, nil, err
	}
	return outpoint, entry, nil
}

func clearBucket(dbContext model.DBWriter, bucket *database.Bucket) error {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return err
	}
	var keys []*database.Key
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			cursor.Close()
			return err
		}
		keys = append(keys, key)
	}
	err = cursor.Close()
	if err != nil {
		return err
	}
	for _, key := range keys {
		err := dbContext.Delete(key)
		if err != nil {
			return err
		}
	}
	return nil
}

type utxoSetIterator struct {
	cursor   database.Cursor
	isClosed bool
}

func (u *utxoSetIterator) First() bool {
	if u.isClosed {
		panic("Tried using a closed utxoSetIterator")
	}
	return u.cursor.First()
}

func (u *utxoSetIterator) Next() bool {
	if u.isClosed {
		panic("Tried using a closed utxoSetIterator")
	}
	return u.cursor.Next()
}

func (u *utxoSetIterator) Get() (outpoint *externalapi.DomainOutpoint, utxoEntry externalapi.UTXOEntry, err error) {
	if u.isClosed {
		return nil, nil, errClosedIterator
	}
	return readUTXO(u.cursor)
}

func (u *utxoSetIterator) Close() error {
	if u.isClosed {
		return errClosedIterator
	}
	u.isClosed = true
	return u.cursor.Close()
}
