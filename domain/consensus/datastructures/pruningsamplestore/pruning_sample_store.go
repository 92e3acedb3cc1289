package pruningsamplestore

import (
	"github.com/calico-network/calicod/domain/consensus/database/binaryserialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/lrucache"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

var bucketName = []byte("pruning-samples")

type pruningSampleStagingShard struct {
	store *pruningSampleStore
	toAdd map[externalapi.DomainHash]*externalapi.DomainHash
}

type pruningSampleStore struct {
	cache  *lrucache.LRUCache
	bucket *database.Bucket
}

// New instantiates a new PruningSampleStore
func New(prefixBucket *database.Bucket, cacheSize int) model.PruningSampleStore {
	return &pruningSampleStore{
		cache:  lrucache.New(cacheSize),
		bucket: prefixBucket.Bucket(bucketName),
	}
}

func (pss *pruningSampleStore) stagingShard(stagingArea *model.StagingArea) *pruningSampleStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDPruningSample, func() model.StagingShard {
		return &pruningSampleStagingShard{
			store: pss,
			toAdd: make(map[externalapi.DomainHash]*externalapi.DomainHash),
		}
	}).(*pruningSampleStagingShard)
}

func (psss *pruningSampleStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, pruningSample := range psss.toAdd {
		hash := hash
		err := dbTx.Put(psss.store.hashAsKey(&hash), binaryserialization.SerializeHash(pruningSample))
		if err != nil {
			return err
		}
		psss.store.cache.Add(&hash, pruningSample)
	}
	return nil
}

func (pss *pruningSampleStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	pruningSample *externalapi.DomainHash) {

	pss.stagingShard(stagingArea).toAdd[*blockHash] = pruningSample
}

func (pss *pruningSampleStore) IsStaged(stagingArea *model.StagingArea) bool {
	return len(pss.stagingShard(stagingArea).toAdd) != 0
}

func (pss *pruningSampleStore) PruningSample(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.DomainHash, error) {

	if pruningSample, ok := pss.stagingShard(stagingArea).toAdd[*blockHash]; ok {
		return pruningSample, nil
	}

	if pruningSample, ok := pss.cache.Get(blockHash); ok {
		return pruningSample.(*externalapi.DomainHash), nil
	}

	pruningSampleBytes, err := dbContext.Get(pss.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}
	pruningSample, err := binaryserialization.DeserializeHash(pruningSampleBytes)
	if err != nil {
		return nil, err
	}
	pss.cache.Add(blockHash, pruningSample)
	return pruningSample, nil
}

func (pss *pruningSampleStore) hashAsKey(hash *externalapi.DomainHash) *database.Key {
	return pss.bucket.Key(hash.ByteSlice())
}
