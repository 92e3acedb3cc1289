package syncmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/logger"
)

type syncManager struct {
	databaseContext model.DBReader
	genesisHash     *externalapi.DomainHash

	dagTraversalManager model.DAGTraversalManager
	dagTopologyManager  model.DAGTopologyManager
	ghostdagManager     model.GHOSTDAGManager

	ghostdagDataStore         model.GHOSTDAGDataStore
	blockStore                model.BlockStore
	pruningStore              model.PruningStore
	headersSelectedChainStore model.SelectedChainStore
}

// New instantiates a new SyncManager
func New(
	databaseContext model.DBReader,
	genesisHash *externalapi.DomainHash,
	dagTraversalManager model.DAGTraversalManager,
	dagTopologyManager model.DAGTopologyManager,
	ghostdagManager model.GHOSTDAGManager,

	ghostdagDataStore model.GHOSTDAGDataStore,
	blockStore model.BlockStore,
	pruningStore model.PruningStore,
	headersSelectedChainStore model.SelectedChainStore) model.SyncManager {

	return &syncManager{
		databaseContext:     databaseContext,
		genesisHash:         genesisHash,
		dagTraversalManager: dagTraversalManager,
		dagTopologyManager:  dagTopologyManager,
		ghostdagManager:     ghostdagManager,

		ghostdagDataStore:         ghostdagDataStore,
		blockStore:                blockStore,
		pruningStore:              pruningStore,
		headersSelectedChainStore: headersSelectedChainStore,
	}
}

func (sm *syncManager) GetHashesBetween(stagingArea *model.StagingArea, lowHash, highHash *externalapi.DomainHash,
	maxBlocks uint64) (hashes []*externalapi.DomainHash, actualHighHash *externalapi.DomainHash, err error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "GetHashesBetween")
	defer onEnd()

	return sm.antiPastHashesBetween(stagingArea, lowHash, highHash, maxBlocks)
}

func (sm *syncManager) GetMissingBlockBodyHashes(stagingArea *model.StagingArea, highHash *externalapi.DomainHash) (
	[]*externalapi.DomainHash, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "GetMissingBlockBodyHashes")
	defer onEnd()

	return sm.missingBlockBodyHashes(stagingArea, highHash)
}

func (sm *syncManager) CreateBlockLocatorFromPruningPoint(stagingArea *model.StagingArea, highHash *externalapi.DomainHash,
	limit uint32) (externalapi.BlockLocator, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "CreateBlockLocatorFromPruningPoint")
	defer onEnd()

	pruningPoint, err := sm.pruningStore.PruningPoint(sm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	return sm.createBlockLocator(stagingArea, pruningPoint, highHash, limit)
}

func (sm *syncManager) CreateHeadersSelectedChainBlockLocator(stagingArea *model.StagingArea,
	lowHash, highHash *externalapi.DomainHash) (externalapi.BlockLocator, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "CreateHeadersSelectedChainBlockLocator")
	defer onEnd()

	return sm.createHeadersSelectedChainBlockLocator(stagingArea, lowHash, highHash)
}
