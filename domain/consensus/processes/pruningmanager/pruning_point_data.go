package pruningmanager

import (
	"sort"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/multiset"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/pkg/errors"
)

// PruningPointAndItsAnticone returns the pruning point and its anticone from the point
// of view of the virtual, ordered by ascending blue work so that parents come before
// their children
func (pm *pruningManager) PruningPointAndItsAnticone() ([]*externalapi.DomainHash, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "PruningPointAndItsAnticone")
	defer onEnd()

	stagingArea := model.NewStagingArea()
	pruningPoint, err := pm.pruningStore.PruningPoint(pm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	anticone, err := pm.dagTraversalManager.AnticoneFromVirtualPOV(stagingArea, pruningPoint)
	if err != nil {
		return nil, err
	}

	blocks := append([]*externalapi.DomainHash{pruningPoint}, anticone...)
	ghostdagDataByHash := make(map[externalapi.DomainHash]*externalapi.BlockGHOSTDAGData, len(blocks))
	for _, blockHash := range blocks {
		ghostdagData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, blockHash)
		if err != nil {
			return nil, err
		}
		ghostdagDataByHash[*blockHash] = ghostdagData
	}

	sort.Slice(blocks, func(i, j int) bool {
		blueWorkI := ghostdagDataByHash[*blocks[i]].BlueWork()
		blueWorkJ := ghostdagDataByHash[*blocks[j]].BlueWork()
		if blueWorkI.Cmp(blueWorkJ) != 0 {
			return blueWorkI.Cmp(blueWorkJ) < 0
		}
		return blocks[i].Less(blocks[j])
	})
	return blocks, nil
}

// BlockWithTrustedData returns blockHash along with its GHOSTDAG data. Blocks without a
// body are returned with their header only.
func (pm *pruningManager) BlockWithTrustedData(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.BlockWithTrustedData, error) {

	hasBlock, err := pm.blockStore.HasBlock(pm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	var block *externalapi.DomainBlock
	if hasBlock {
		block, err = pm.blockStore.Block(pm.databaseContext, stagingArea, blockHash)
		if err != nil {
			return nil, err
		}
	} else {
		header, err := pm.blockHeaderStore.BlockHeader(pm.databaseContext, stagingArea, blockHash)
		if err != nil {
			return nil, err
		}
		block = &externalapi.DomainBlock{Header: header}
	}

	ghostdagData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	return &externalapi.BlockWithTrustedData{
		Block:        block,
		GHOSTDAGData: ghostdagData,
	}, nil
}

// ClearImportedPruningPointData removes any partially imported pruning point UTXO set
func (pm *pruningManager) ClearImportedPruningPointData() error {
	err := pm.pruningStore.ClearImportedPruningPointUTXOs(pm.databaseContext)
	if err != nil {
		return err
	}
	return pm.pruningStore.ClearImportedPruningPointMultiset(pm.databaseContext)
}

// AppendImportedPruningPointUTXOs adds a chunk of the pruning point UTXO set received from
// a peer, and updates the multiset of everything imported so far
func (pm *pruningManager) AppendImportedPruningPointUTXOs(
	outpointAndUTXOEntryPairs []*externalapi.OutpointAndUTXOEntryPair) error {

	dbTx, err := pm.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	importedMultiset, err := pm.pruningStore.ImportedPruningPointMultiset(dbTx)
	if err != nil {
		if !database.IsNotFoundError(err) {
			return err
		}
		importedMultiset = multiset.New()
	}

	for _, pair := range outpointAndUTXOEntryPairs {
		serialized, err := utxo.SerializeUTXO(pair.UTXOEntry, pair.Outpoint)
		if err != nil {
			return err
		}
		importedMultiset.Add(serialized)
	}

	err = pm.pruningStore.AppendImportedPruningPointUTXOs(dbTx, outpointAndUTXOEntryPairs)
	if err != nil {
		return err
	}
	err = pm.pruningStore.UpdateImportedPruningPointMultiset(dbTx, importedMultiset)
	if err != nil {
		return err
	}

	return dbTx.Commit()
}

// GetPruningPointUTXOs returns a page of the UTXO set of the pruning point, starting right
// after fromOutpoint. It fails with ErrWrongPruningPointHash if the pruning point has moved
// away from expectedPruningPointHash.
func (pm *pruningManager) GetPruningPointUTXOs(expectedPruningPointHash *externalapi.DomainHash,
	fromOutpoint *externalapi.DomainOutpoint, limit int) ([]*externalapi.OutpointAndUTXOEntryPair, error) {

	stagingArea := model.NewStagingArea()
	pruningPoint, err := pm.pruningStore.PruningPoint(pm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	if !pruningPoint.Equal(expectedPruningPointHash) {
		return nil, errors.Wrapf(ruleerrors.ErrWrongPruningPointHash, "expected pruning point %s but got %s",
			expectedPruningPointHash, pruningPoint)
	}

	return pm.pruningStore.PruningPointUTXOs(pm.databaseContext, fromOutpoint, limit)
}

// PruningPointHeaders returns the headers of every pruning point this node had, oldest first
func (pm *pruningManager) PruningPointHeaders() ([]externalapi.BlockHeader, error) {
	stagingArea := model.NewStagingArea()
	currentIndex, err := pm.pruningStore.CurrentPruningPointIndex(pm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	headers := make([]externalapi.BlockHeader, 0, currentIndex+1)
	for index := uint64(0); index <= currentIndex; index++ {
		pruningPoint, err := pm.pruningStore.PruningPointByIndex(pm.databaseContext, stagingArea, index)
		if err != nil {
			return nil, err
		}
		header, err := pm.blockHeaderStore.BlockHeader(pm.databaseContext, stagingArea, pruningPoint)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)
	}
	return headers, nil
}
