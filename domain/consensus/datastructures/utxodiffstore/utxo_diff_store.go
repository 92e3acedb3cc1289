package utxodiffstore

import (
	"github.com/calico-network/calicod/domain/consensus/database/serialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/lrucache"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

var bucketName = []byte("utxo-diffs")

// utxoDiffStore represents a store of UTXODiffs
type utxoDiffStore struct {
	cache  *lrucache.LRUCache
	bucket *database.Bucket
}

// New instantiates a new UTXODiffStore
func New(prefixBucket *database.Bucket, cacheSize int) model.UTXODiffStore {
	return &utxoDiffStore{
		cache:  lrucache.New(cacheSize),
		bucket: prefixBucket.Bucket(bucketName),
	}
}

// Stage stages the given utxoDiff for the given blockHash
func (uds *utxoDiffStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash, utxoDiff externalapi.UTXODiff) {
	stagingShard := uds.stagingShard(stagingArea)

	delete(stagingShard.toDelete, *blockHash)
	stagingShard.toAdd[*blockHash] = utxoDiff
}

func (uds *utxoDiffStore) IsStaged(stagingArea *model.StagingArea) bool {
	return uds.stagingShard(stagingArea).isStaged()
}

// UTXODiff gets the utxoDiff associated with the given blockHash
func (uds *utxoDiffStore) UTXODiff(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (externalapi.UTXODiff, error) {

	stagingShard := uds.stagingShard(stagingArea)

	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return nil, database.ErrNotFound
	}

	if utxoDiff, ok := stagingShard.toAdd[*blockHash]; ok {
		return utxoDiff, nil
	}

	if utxoDiff, ok := uds.cache.Get(blockHash); ok {
		return utxoDiff.(externalapi.UTXODiff), nil
	}

	utxoDiffBytes, err := dbContext.Get(uds.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	utxoDiff, err := uds.deserializeUTXODiff(utxoDiffBytes)
	if err != nil {
		return nil, err
	}
	uds.cache.Add(blockHash, utxoDiff)
	return utxoDiff, nil
}

// Has returns true if utxoDiff associated with the given blockHash exists
func (uds *utxoDiffStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (bool, error) {
	stagingShard := uds.stagingShard(stagingArea)

	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return false, nil
	}

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}

	if uds.cache.Has(blockHash) {
		return true, nil
	}

	return dbContext.Has(uds.hashAsKey(blockHash))
}

// Delete deletes the utxoDiff associated with the given blockHash
func (uds *utxoDiffStore) Delete(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) {
	stagingShard := uds.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		delete(stagingShard.toAdd, *blockHash)
		return
	}
	stagingShard.toDelete[*blockHash] = struct{}{}
}

func (uds *utxoDiffStore) hashAsKey(hash *externalapi.DomainHash) *database.Key {
	return uds.bucket.Key(hash.ByteSlice())
}

func (uds *utxoDiffStore) serializeUTXODiff(utxoDiff externalapi.UTXODiff) ([]byte, error) {
	dbUTXODiff, err := serialization.UTXODiffToDBUTXODiff(utxoDiff)
	if err != nil {
		return nil, err
	}
	return serialization.Marshal(dbUTXODiff)
}

func (uds *utxoDiffStore) deserializeUTXODiff(utxoDiffBytes []byte) (externalapi.UTXODiff, error) {
	dbUTXODiff := &serialization.DbUTXODiff{}
	err := serialization.Unmarshal(utxoDiffBytes, dbUTXODiff)
	if err != nil {
		return nil, err
	}
	return serialization.DBUTXODiffToUTXODiff(dbUTXODiff)
}
