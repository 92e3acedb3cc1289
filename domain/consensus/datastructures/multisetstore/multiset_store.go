package multisetstore

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/lrucache"
	"github.com/calico-network/calicod/domain/consensus/utils/multiset"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

var bucketName = []byte("multisets")

// multisetStore represents a store of Multisets
type multisetStore struct {
	cache  *lrucache.LRUCache
	bucket *database.Bucket
}

// New instantiates a new MultisetStore
func New(prefixBucket *database.Bucket, cacheSize int) model.MultisetStore {
	return &multisetStore{
		cache:  lrucache.New(cacheSize),
		bucket: prefixBucket.Bucket(bucketName),
	}
}

// Stage stages the given multiset for the given blockHash
func (ms *multisetStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash, multiset model.Multiset) {
	stagingShard := ms.stagingShard(stagingArea)

	delete(stagingShard.toDelete, *blockHash)
	stagingShard.toAdd[*blockHash] = multiset.Clone()
}

func (ms *multisetStore) IsStaged(stagingArea *model.StagingArea) bool {
	return ms.stagingShard(stagingArea).isStaged()
}

// Get gets the multiset associated with the given blockHash
func (ms *multisetStore) Get(dbContext model.DBReader, stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (model.Multiset, error) {
	stagingShard := ms.stagingShard(stagingArea)

	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return nil, database.ErrNotFound
	}

	if multiset, ok := stagingShard.toAdd[*blockHash]; ok {
		return multiset.Clone(), nil
	}

	if multiset, ok := ms.cache.Get(blockHash); ok {
		return multiset.(model.Multiset).Clone(), nil
	}

	multisetBytes, err := dbContext.Get(ms.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	deserializedMultiset, err := multiset.FromBytes(multisetBytes)
	if err != nil {
		return nil, err
	}
	ms.cache.Add(blockHash, deserializedMultiset)
	return deserializedMultiset.Clone(), nil
}

// Delete deletes the multiset associated with the given blockHash
func (ms *multisetStore) Delete(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) {
	stagingShard := ms.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		delete(stagingShard.toAdd, *blockHash)
		return
	}
	stagingShard.toDelete[*blockHash] = struct{}{}
}

func (ms *multisetStore) hashAsKey(hash *externalapi.DomainHash) *database.Key {
	return ms.bucket.Key(hash.ByteSlice())
}
