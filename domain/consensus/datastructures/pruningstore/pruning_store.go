package pruningstore

import (
	"github.com/calico-network/calicod/domain/consensus/database/binaryserialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/lrucache"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

var currentPruningPointIndexKeyName = []byte("pruning-block-index")
var pruningPointByIndexBucketName = []byte("pruning-point-by-index")

// pruningStore represents a store for the current pruning state
type pruningStore struct {
	pruningPointByIndexCache      *lrucache.Uint64ToHashCache
	currentPruningPointIndexCache *uint64
	pruningPointProofCache        *externalapi.PruningPointProof

	currentPruningPointIndexKey     *database.Key
	pruningPointByIndexBucket       *database.Bucket
	pruningPointUTXOSetBucket       *database.Bucket
	pruningPointProofKey            *database.Key
	importedPruningPointUTXOsBucket *database.Bucket
	importedPruningPointMultisetKey *database.Key
}

// New instantiates a new PruningStore
func New(prefixBucket *database.Bucket, cacheSize int) model.PruningStore {
	return &pruningStore{
		pruningPointByIndexCache:        lrucache.NewUint64ToHash(cacheSize),
		currentPruningPointIndexKey:     prefixBucket.Key(currentPruningPointIndexKeyName),
		pruningPointByIndexBucket:       prefixBucket.Bucket(pruningPointByIndexBucketName),
		pruningPointUTXOSetBucket:       prefixBucket.Bucket(pruningPointUTXOSetBucketName),
		pruningPointProofKey:            prefixBucket.Key(pruningPointProofKeyName),
		importedPruningPointUTXOsBucket: prefixBucket.Bucket(importedPruningPointUTXOsBucketName),
		importedPruningPointMultisetKey: prefixBucket.Key(importedPruningPointMultisetKeyName),
	}
}

func (ps *pruningStore) IsStaged(stagingArea *model.StagingArea) bool {
	return ps.stagingShard(stagingArea).isStaged()
}

func (ps *pruningStore) indexAsKey(index uint64) *database.Key {
	return ps.pruningPointByIndexBucket.Key(binaryserialization.SerializeChainBlockIndex(index))
}

// StagePruningPoint appends pruningPointBlockHash to the pruning point history
// and makes it the current pruning point.
func (ps *pruningStore) StagePruningPoint(dbContext model.DBReader, stagingArea *model.StagingArea,
	pruningPointBlockHash *externalapi.DomainHash) error {

	newIndex := uint64(0)
	hasPruningPoint, err := ps.HasPruningPoint(dbContext, stagingArea)
	if err != nil {
		return err
	}
	if hasPruningPoint {
		currentIndex, err := ps.CurrentPruningPointIndex(dbContext, stagingArea)
		if err != nil {
			return err
		}
		newIndex = currentIndex + 1
	}

	stagingShard := ps.stagingShard(stagingArea)
	stagingShard.pruningPointByIndex[newIndex] = pruningPointBlockHash
	stagingShard.currentPruningPointIndex = &newIndex
	return nil
}

func (ps *pruningStore) PruningPoint(dbContext model.DBReader, stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	currentIndex, err := ps.CurrentPruningPointIndex(dbContext, stagingArea)
	if err != nil {
		return nil, err
	}
	return ps.PruningPointByIndex(dbContext, stagingArea, currentIndex)
}

func (ps *pruningStore) HasPruningPoint(dbContext model.DBReader, stagingArea *model.StagingArea) (bool, error) {
	if ps.stagingShard(stagingArea).currentPruningPointIndex != nil || ps.currentPruningPointIndexCache != nil {
		return true, nil
	}
	return dbContext.Has(ps.currentPruningPointIndexKey)
}

func (ps *pruningStore) PruningPointByIndex(dbContext model.DBReader, stagingArea *model.StagingArea,
	index uint64) (*externalapi.DomainHash, error) {

	if hash, ok := ps.stagingShard(stagingArea).pruningPointByIndex[index]; ok {
		return hash, nil
	}
	if hash, ok := ps.pruningPointByIndexCache.Get(index); ok {
		return hash, nil
	}

	hashBytes, err := dbContext.Get(ps.indexAsKey(index))
	if err != nil {
		return nil, err
	}
	hash, err := binaryserialization.DeserializeHash(hashBytes)
	if err != nil {
		return nil, err
	}
	ps.pruningPointByIndexCache.Add(index, hash)
	return hash, nil
}

func (ps *pruningStore) CurrentPruningPointIndex(dbContext model.DBReader, stagingArea *model.StagingArea) (uint64, error) {
	stagingShard := ps.stagingShard(stagingArea)
	if stagingShard.currentPruningPointIndex != nil {
		return *stagingShard.currentPruningPointIndex, nil
	}
	if ps.currentPruningPointIndexCache != nil {
		return *ps.currentPruningPointIndexCache, nil
	}

	indexBytes, err := dbContext.Get(ps.currentPruningPointIndexKey)
	if err != nil {
		return 0, err
	}
	index, err := binaryserialization.DeserializeChainBlockIndex(indexBytes)
	if err != nil {
		return 0, err
	}
	ps.currentPruningPointIndexCache = &index
	return index, nil
}
