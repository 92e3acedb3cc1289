package consensusstatestore

import (
	"github.com/calico-network/calicod/domain/consensus/database/serialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/pkg/errors"
)

func (css *consensusStateStore) utxoKey(outpoint *externalapi.DomainOutpoint) *database.Key {
	return css.utxoSetBucket.Key(utxo.SerializeOutpoint(outpoint))
}

// StageVirtualUTXODiff stages a diff relative to the virtual UTXO set as it
// stands in this staging area. Diffs staged one after another are composed.
func (css *consensusStateStore) StageVirtualUTXODiff(stagingArea *model.StagingArea, virtualUTXODiff externalapi.UTXODiff) {
	stagingShard := css.stagingShard(stagingArea)
	if stagingShard.virtualUTXODiffStaging == nil {
		stagingShard.virtualUTXODiffStaging = virtualUTXODiff
		return
	}

	composed, err := stagingShard.virtualUTXODiffStaging.WithDiff(virtualUTXODiff)
	if err != nil {
		// Both diffs are relative to the same evolving set, so composition can only
		// fail on a caller bug.
		panic(errors.Wrap(err, "cannot compose staged virtual UTXO diffs"))
	}
	stagingShard.virtualUTXODiffStaging = composed
}

// StageVirtualUTXOSetOverride replaces the whole virtual UTXO set. Any diff
// staged earlier in this staging area is discarded.
func (css *consensusStateStore) StageVirtualUTXOSetOverride(stagingArea *model.StagingArea, utxoSet externalapi.UTXOCollection) {
	stagingShard := css.stagingShard(stagingArea)
	stagingShard.virtualUTXOSetOverride = utxoSet
	stagingShard.virtualUTXODiffStaging = nil
}

func (css *consensusStateStore) commitVirtualUTXOSetOverride(dbTx model.DBTransaction, utxoSet externalapi.UTXOCollection) error {
	err := deleteBucket(dbTx, css.utxoSetBucket)
	if err != nil {
		return err
	}
	css.virtualUTXOSetCache.Clear()

	iterator := utxoSet.Iterator()
	defer iterator.Close()
	for ok := iterator.First(); ok; ok = iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			return err
		}
		err = css.putUTXO(dbTx, outpoint, entry)
		if err != nil {
			return err
		}
	}
	return nil
}

func (css *consensusStateStore) commitVirtualUTXODiff(dbTx model.DBTransaction, virtualUTXODiff externalapi.UTXODiff) error {
	toRemoveIterator := virtualUTXODiff.ToRemove().Iterator()
	defer toRemoveIterator.Close()
	for ok := toRemoveIterator.First(); ok; ok = toRemoveIterator.Next() {
		outpoint, _, err := toRemoveIterator.Get()
		if err != nil {
			return err
		}
		css.virtualUTXOSetCache.Remove(outpoint)
		err = dbTx.Delete(css.utxoKey(outpoint))
		if err != nil {
			return err
		}
	}

	toAddIterator := virtualUTXODiff.ToAdd().Iterator()
	defer toAddIterator.Close()
	for ok := toAddIterator.First(); ok; ok = toAddIterator.Next() {
		outpoint, entry, err := toAddIterator.Get()
		if err != nil {
			return err
		}
		err = css.putUTXO(dbTx, outpoint, entry)
		if err != nil {
			return err
		}
	}
	return nil
}

func (css *consensusStateStore) putUTXO(dbTx model.DBTransaction, outpoint *externalapi.DomainOutpoint,
	entry externalapi.UTXOEntry) error {

	entryBytes, err := serialization.SerializeUTXOEntry(entry)
	if err != nil {
		return err
	}
	err = dbTx.Put(css.utxoKey(outpoint), entryBytes)
	if err != nil {
		return err
	}
	css.virtualUTXOSetCache.Add(outpoint, entry)
	return nil
}

func (css *consensusStateStore) UTXOByOutpoint(dbContext model.DBReader, stagingArea *model.StagingArea,
	outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, error) {

	stagingShard := css.stagingShard(stagingArea)
	if diff := stagingShard.virtualUTXODiffStaging; diff != nil {
		if entry, ok := diff.ToAdd().Get(outpoint); ok {
			return entry, nil
		}
		if diff.ToRemove().Contains(outpoint) {
			return nil, errors.Wrapf(database.ErrNotFound, "outpoint %s was spent", outpoint)
		}
	}
	if stagingShard.virtualUTXOSetOverride != nil {
		entry, ok := stagingShard.virtualUTXOSetOverride.Get(outpoint)
		if !ok {
			return nil, errors.Wrapf(database.ErrNotFound, "outpoint %s not found", outpoint)
		}
		return entry, nil
	}

	if entry, ok := css.virtualUTXOSetCache.Get(outpoint); ok {
		return entry, nil
	}

	entryBytes, err := dbContext.Get(css.utxoKey(outpoint))
	if err != nil {
		return nil, err
	}
	entry, err := serialization.DeserializeUTXOEntry(entryBytes)
	if err != nil {
		return nil, err
	}
	css.virtualUTXOSetCache.Add(outpoint, entry)
	return entry, nil
}

func (css *consensusStateStore) HasUTXOByOutpoint(dbContext model.DBReader, stagingArea *model.StagingArea,
	outpoint *externalapi.DomainOutpoint) (bool, error) {

	stagingShard := css.stagingShard(stagingArea)
	if diff := stagingShard.virtualUTXODiffStaging; diff != nil {
		if diff.ToAdd().Contains(outpoint) {
			return true, nil
		}
		if diff.ToRemove().Contains(outpoint) {
			return false, nil
		}
	}
	if stagingShard.virtualUTXOSetOverride != nil {
		return stagingShard.virtualUTXOSetOverride.Contains(outpoint), nil
	}
	if _, ok := css.virtualUTXOSetCache.Get(outpoint); ok {
		return true, nil
	}
	return dbContext.Has(css.utxoKey(outpoint))
}

// VirtualUTXOs returns up to limit committed virtual UTXOs in outpoint order,
// starting right after fromOutpoint. A nil fromOutpoint starts from the beginning.
func (css *consensusStateStore) VirtualUTXOs(dbContext model.DBReader, fromOutpoint *externalapi.DomainOutpoint,
	limit int) ([]*externalapi.OutpointAndUTXOEntryPair, error) {

	cursor, err := dbContext.Cursor(css.utxoSetBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	return readUTXOPage(cursor, css.utxoSetBucket, fromOutpoint, limit)
}

func readUTXOPage(cursor database.Cursor, bucket *database.Bucket, fromOutpoint *externalapi.DomainOutpoint,
	limit int) ([]*externalapi.OutpointAndUTXOEntryPair, error) {

	ok := cursor.First()
	if fromOutpoint != nil {
		err := cursor.Seek(bucket.Key(utxo.SerializeOutpoint(fromOutpoint)))
		switch {
		case err == nil:
			ok = cursor.Next()
		case database.IsNotFoundError(err):
			// The cursor rests on the first key above fromOutpoint, if any
			_, keyErr := cursor.Key()
			ok = keyErr == nil
		default:
			return nil, err
		}
	}

	pairs := make([]*externalapi.OutpointAndUTXOEntryPair, 0, limit)
	for ; ok && len(pairs) < limit; ok = cursor.Next() {
		pair, err := readUTXOPair(cursor)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func readUTXOPair(cursor database.Cursor) (*externalapi.OutpointAndUTXOEntryPair, error) {
	key, err := cursor.Key()
	if err != nil {
		return nil, err
	}
	outpoint, err := utxo.DeserializeOutpoint(key.Suffix())
	if err != nil {
		return nil, err
	}
	entryBytes, err := cursor.Value()
	if err != nil {
		return nil, err
	}
	entry, err := serialization.DeserializeUTXOEntry(entryBytes)
	if err != nil {
		return nil, err
	}
	return &externalapi.OutpointAndUTXOEntryPair{Outpoint: outpoint, UTXOEntry: entry}, nil
}
