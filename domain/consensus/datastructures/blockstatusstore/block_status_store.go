package blockstatusstore

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/lrucache"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/pkg/errors"
)

var bucketName = []byte("block-statuses")

// blockStatusStore represents a store of BlockStatuses
type blockStatusStore struct {
	cache  *lrucache.LRUCache
	bucket *database.Bucket
}

// New instantiates a new BlockStatusStore
func New(prefixBucket *database.Bucket, cacheSize int) model.BlockStatusStore {
	return &blockStatusStore{
		cache:  lrucache.New(cacheSize),
		bucket: prefixBucket.Bucket(bucketName),
	}
}

// Stage stages the given blockStatus for the given blockHash
func (bss *blockStatusStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash, blockStatus externalapi.BlockStatus) {
	stagingShard := bss.stagingShard(stagingArea)
	stagingShard.toAdd[*blockHash] = blockStatus
}

func (bss *blockStatusStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bss.stagingShard(stagingArea).isStaged()
}

// Get gets the blockStatus associated with the given blockHash
func (bss *blockStatusStore) Get(dbContext model.DBReader, stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (externalapi.BlockStatus, error) {
	stagingShard := bss.stagingShard(stagingArea)

	if status, ok := stagingShard.toAdd[*blockHash]; ok {
		return status, nil
	}

	if status, ok := bss.cache.Get(blockHash); ok {
		return status.(externalapi.BlockStatus), nil
	}

	statusBytes, err := dbContext.Get(bss.hashAsKey(blockHash))
	if err != nil {
		return 0, err
	}

	status, err := deserializeBlockStatus(statusBytes)
	if err != nil {
		return 0, err
	}
	bss.cache.Add(blockHash, status)
	return status, nil
}

// Exists returns true if the blockStatus for the given blockHash exists
func (bss *blockStatusStore) Exists(dbContext model.DBReader, stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (bool, error) {
	stagingShard := bss.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}

	if bss.cache.Has(blockHash) {
		return true, nil
	}

	return dbContext.Has(bss.hashAsKey(blockHash))
}

func deserializeBlockStatus(statusBytes []byte) (externalapi.BlockStatus, error) {
	if len(statusBytes) != 1 {
		return 0, errors.Errorf("invalid block status length %d", len(statusBytes))
	}
	status := externalapi.BlockStatus(statusBytes[0])
	if status > externalapi.StatusHeaderOnly {
		return 0, errors.Errorf("unknown block status %d", status)
	}
	return status, nil
}

func (bss *blockStatusStore) hashAsKey(hash *externalapi.DomainHash) *database.Key {
	return bss.bucket.Key(hash.ByteSlice())
}
