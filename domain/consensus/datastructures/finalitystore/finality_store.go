package finalitystore

import (
	"github.com/calico-network/calicod/domain/consensus/database/binaryserialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

var finalityPointKeyName = []byte("virtual-finality-point")

type finalityStagingShard struct {
	store         *finalityStore
	finalityPoint *externalapi.DomainHash
}

type finalityStore struct {
	finalityPointCache *externalapi.DomainHash
	finalityPointKey   *database.Key
}

// New instantiates a new FinalityStore
func New(prefixBucket *database.Bucket) model.FinalityStore {
	return &finalityStore{
		finalityPointKey: prefixBucket.Key(finalityPointKeyName),
	}
}

func (fs *finalityStore) stagingShard(stagingArea *model.StagingArea) *finalityStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDFinality, func() model.StagingShard {
		return &finalityStagingShard{store: fs}
	}).(*finalityStagingShard)
}

func (fss *finalityStagingShard) Commit(dbTx model.DBTransaction) error {
	if fss.finalityPoint == nil {
		return nil
	}
	err := dbTx.Put(fss.store.finalityPointKey, binaryserialization.SerializeHash(fss.finalityPoint))
	if err != nil {
		return err
	}
	fss.store.finalityPointCache = fss.finalityPoint
	return nil
}

func (fs *finalityStore) IsStaged(stagingArea *model.StagingArea) bool {
	return fs.stagingShard(stagingArea).finalityPoint != nil
}

func (fs *finalityStore) StageFinalityPoint(stagingArea *model.StagingArea, finalityPointHash *externalapi.DomainHash) {
	fs.stagingShard(stagingArea).finalityPoint = finalityPointHash
}

func (fs *finalityStore) FinalityPoint(dbContext model.DBReader, stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	stagingShard := fs.stagingShard(stagingArea)
	if stagingShard.finalityPoint != nil {
		return stagingShard.finalityPoint, nil
	}
	if fs.finalityPointCache != nil {
		return fs.finalityPointCache, nil
	}

	finalityPointBytes, err := dbContext.Get(fs.finalityPointKey)
	if err != nil {
		return nil, err
	}
	finalityPoint, err := binaryserialization.DeserializeHash(finalityPointBytes)
	if err != nil {
		return nil, err
	}
	fs.finalityPointCache = finalityPoint
	return finalityPoint, nil
}

func (fs *finalityStore) HasFinalityPoint(dbContext model.DBReader, stagingArea *model.StagingArea) (bool, error) {
	if fs.stagingShard(stagingArea).finalityPoint != nil || fs.finalityPointCache != nil {
		return true, nil
	}
	return dbContext.Has(fs.finalityPointKey)
}
