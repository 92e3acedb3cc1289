package selectedchainstore

import (
	"github.com/calico-network/calicod/domain/consensus/database/binaryserialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/lrucache"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/pkg/errors"
)

type selectedChainStore struct {
	shardID                   model.StagingShardID
	cacheByIndex              *lrucache.Uint64ToHashCache
	cacheByHash               *lrucache.LRUCache
	highestCache              *uint64
	bucketHashByIndex         *database.Bucket
	bucketIndexByHash         *database.Bucket
	highestChainBlockIndexKey *database.Key
}

// New instantiates a new SelectedChainStore. The name separates the
// buckets of the different chains this store is used for.
func New(prefixBucket *database.Bucket, name string, shardID model.StagingShardID, cacheSize int) model.SelectedChainStore {
	return &selectedChainStore{
		shardID:                   shardID,
		cacheByIndex:              lrucache.NewUint64ToHash(cacheSize),
		cacheByHash:               lrucache.New(cacheSize),
		bucketHashByIndex:         prefixBucket.Bucket([]byte(name + "-chain-block-hash-by-index")),
		bucketIndexByHash:         prefixBucket.Bucket([]byte(name + "-chain-block-index-by-hash")),
		highestChainBlockIndexKey: prefixBucket.Key([]byte(name + "-highest-chain-block-index")),
	}
}

// Stage stages the given chain changes. Removed is expected highest block
// first and Added lowest block first.
func (scs *selectedChainStore) Stage(dbContext model.DBReader, stagingArea *model.StagingArea,
	chainChanges *externalapi.SelectedChainPath) error {

	stagingShard := scs.stagingShard(stagingArea)

	highest, hasHighest, err := scs.highestChainBlockIndex(dbContext, stagingShard)
	if err != nil {
		return err
	}

	if uint64(len(chainChanges.Removed)) > highest+1 && hasHighest ||
		len(chainChanges.Removed) > 0 && !hasHighest {
		return errors.Errorf("cannot remove %d blocks from a chain of length %d",
			len(chainChanges.Removed), highest+1)
	}

	for i, blockHash := range chainChanges.Removed {
		index, err := scs.getIndexByHash(dbContext, stagingShard, blockHash)
		if err != nil {
			return errors.Wrapf(err, "couldn't find index of %s", blockHash)
		}
		if index != highest-uint64(i) {
			return errors.Errorf("removed block %s is at index %d instead of %d", blockHash, index, highest-uint64(i))
		}

		if _, ok := stagingShard.addedByIndex[index]; ok {
			delete(stagingShard.addedByIndex, index)
			delete(stagingShard.addedByHash, *blockHash)
			continue
		}
		stagingShard.removedByIndex[index] = struct{}{}
		stagingShard.removedByHash[*blockHash] = struct{}{}
	}

	currentIndex := uint64(0)
	if hasHighest {
		currentIndex = highest + 1 - uint64(len(chainChanges.Removed))
	}

	for _, blockHash := range chainChanges.Added {
		stagingShard.addedByIndex[currentIndex] = blockHash
		stagingShard.addedByHash[*blockHash] = currentIndex
		delete(stagingShard.removedByHash, *blockHash)
		currentIndex++
	}

	stagingShard.isHighestStaged = true
	stagingShard.hasHighest = currentIndex > 0
	if stagingShard.hasHighest {
		stagingShard.highest = currentIndex - 1
	}

	return nil
}

func (scs *selectedChainStore) IsStaged(stagingArea *model.StagingArea) bool {
	return scs.stagingShard(stagingArea).isStaged()
}

// GetIndexByHash gets the chain block index for the given blockHash
func (scs *selectedChainStore) GetIndexByHash(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (uint64, error) {

	return scs.getIndexByHash(dbContext, scs.stagingShard(stagingArea), blockHash)
}

func (scs *selectedChainStore) getIndexByHash(dbContext model.DBReader, stagingShard *selectedChainStagingShard,
	blockHash *externalapi.DomainHash) (uint64, error) {

	if index, ok := stagingShard.addedByHash[*blockHash]; ok {
		return index, nil
	}

	if _, ok := stagingShard.removedByHash[*blockHash]; ok {
		return 0, errors.Wrapf(database.ErrNotFound, "block %s is not on the chain", blockHash)
	}

	if index, ok := scs.cacheByHash.Get(blockHash); ok {
		return index.(uint64), nil
	}

	indexBytes, err := dbContext.Get(scs.hashAsKey(blockHash))
	if err != nil {
		return 0, err
	}

	index, err := binaryserialization.DeserializeChainBlockIndex(indexBytes)
	if err != nil {
		return 0, err
	}
	scs.cacheByHash.Add(blockHash, index)
	return index, nil
}

// GetHashByIndex gets the chain block hash at the given index
func (scs *selectedChainStore) GetHashByIndex(dbContext model.DBReader, stagingArea *model.StagingArea,
	index uint64) (*externalapi.DomainHash, error) {

	stagingShard := scs.stagingShard(stagingArea)

	if blockHash, ok := stagingShard.addedByIndex[index]; ok {
		return blockHash, nil
	}

	if _, ok := stagingShard.removedByIndex[index]; ok {
		return nil, errors.Wrapf(database.ErrNotFound, "no chain block at index %d", index)
	}

	if stagingShard.isHighestStaged && (!stagingShard.hasHighest || index > stagingShard.highest) {
		return nil, errors.Wrapf(database.ErrNotFound, "no chain block at index %d", index)
	}

	if blockHash, ok := scs.cacheByIndex.Get(index); ok {
		return blockHash, nil
	}

	hashBytes, err := dbContext.Get(scs.indexAsKey(index))
	if err != nil {
		return nil, err
	}

	blockHash, err := binaryserialization.DeserializeHash(hashBytes)
	if err != nil {
		return nil, err
	}
	scs.cacheByIndex.Add(index, blockHash)
	return blockHash, nil
}

// HighestChainBlockIndex returns the index of the highest chain block, and
// false if the chain is empty
func (scs *selectedChainStore) HighestChainBlockIndex(dbContext model.DBReader, stagingArea *model.StagingArea) (uint64, bool, error) {
	return scs.highestChainBlockIndex(dbContext, scs.stagingShard(stagingArea))
}

func (scs *selectedChainStore) highestChainBlockIndex(dbContext model.DBReader,
	stagingShard *selectedChainStagingShard) (uint64, bool, error) {

	if stagingShard.isHighestStaged {
		return stagingShard.highest, stagingShard.hasHighest, nil
	}

	if scs.highestCache != nil {
		return *scs.highestCache, true, nil
	}

	has, err := dbContext.Has(scs.highestChainBlockIndexKey)
	if err != nil {
		return 0, false, err
	}
	if !has {
		return 0, false, nil
	}

	indexBytes, err := dbContext.Get(scs.highestChainBlockIndexKey)
	if err != nil {
		return 0, false, err
	}

	index, err := binaryserialization.DeserializeChainBlockIndex(indexBytes)
	if err != nil {
		return 0, false, err
	}
	scs.highestCache = &index
	return index, true, nil
}

func (scs *selectedChainStore) hashAsKey(hash *externalapi.DomainHash) *database.Key {
	return scs.bucketIndexByHash.Key(hash.ByteSlice())
}

func (scs *selectedChainStore) indexAsKey(index uint64) *database.Key {
	return scs.bucketHashByIndex.Key(binaryserialization.SerializeChainBlockIndex(index))
}
