package finalitymanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

type finalityManager struct {
	databaseContext     model.DBReader
	dagTopologyManager  model.DAGTopologyManager
	dagTraversalManager model.DAGTraversalManager
	finalityStore       model.FinalityStore
	ghostdagDataStore   model.GHOSTDAGDataStore
	pruningStore        model.PruningStore
	genesisHash         *externalapi.DomainHash
	finalityDepth       uint64
}

// New instantiates a new FinalityManager
func New(databaseContext model.DBReader,
	dagTopologyManager model.DAGTopologyManager,
	dagTraversalManager model.DAGTraversalManager,
	finalityStore model.FinalityStore,
	ghostdagDataStore model.GHOSTDAGDataStore,
	pruningStore model.PruningStore,
	genesisHash *externalapi.DomainHash,
	finalityDepth uint64) model.FinalityManager {

	return &finalityManager{
		databaseContext:     databaseContext,
		genesisHash:         genesisHash,
		dagTopologyManager:  dagTopologyManager,
		dagTraversalManager: dagTraversalManager,
		finalityStore:       finalityStore,
		ghostdagDataStore:   ghostdagDataStore,
		pruningStore:        pruningStore,
		finalityDepth:       finalityDepth,
	}
}

// VirtualFinalityPoint returns the current finality point. It is genesis until
// the first call to UpdateFinalityPoint.
func (fm *finalityManager) VirtualFinalityPoint(stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	hasFinalityPoint, err := fm.finalityStore.HasFinalityPoint(fm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	if !hasFinalityPoint {
		return fm.genesisHash, nil
	}
	return fm.finalityStore.FinalityPoint(fm.databaseContext, stagingArea)
}

// IsViolatingFinality returns whether the current finality point is missing from
// the selected chain of blockHash
func (fm *finalityManager) IsViolatingFinality(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	finalityPoint, err := fm.VirtualFinalityPoint(stagingArea)
	if err != nil {
		return false, err
	}
	isInSelectedChain, err := fm.dagTopologyManager.IsInSelectedParentChainOf(stagingArea, finalityPoint, blockHash)
	if err != nil {
		return false, err
	}
	if !isInSelectedChain {
		log.Debugf("Block %s does not have the finality point %s in its selected chain", blockHash, finalityPoint)
	}
	return !isInSelectedChain, nil
}

// UpdateFinalityPoint moves the finality point to the chain block finalityDepth below
// the virtual selected parent, if that block is higher than the current one
func (fm *finalityManager) UpdateFinalityPoint(stagingArea *model.StagingArea) error {
	newFinalityPoint, newFinalityPointBlueScore, err := fm.calculateVirtualFinalityPoint(stagingArea)
	if err != nil {
		return err
	}

	hasFinalityPoint, err := fm.finalityStore.HasFinalityPoint(fm.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	if hasFinalityPoint {
		currentFinalityPoint, err := fm.finalityStore.FinalityPoint(fm.databaseContext, stagingArea)
		if err != nil {
			return err
		}
		if currentFinalityPoint.Equal(newFinalityPoint) {
			return nil
		}
		currentGHOSTDAGData, err := fm.ghostdagDataStore.Get(fm.databaseContext, stagingArea, currentFinalityPoint)
		if err != nil {
			return err
		}
		if newFinalityPointBlueScore <= currentGHOSTDAGData.BlueScore() {
			return nil
		}
	}

	log.Debugf("Moving the finality point to %s", newFinalityPoint)
	fm.finalityStore.StageFinalityPoint(stagingArea, newFinalityPoint)
	return nil
}

// calculateVirtualFinalityPoint returns the lowest chain block of the virtual selected
// parent whose blue score is at least finalityDepth below it. The result is never lower
// than the pruning point.
func (fm *finalityManager) calculateVirtualFinalityPoint(stagingArea *model.StagingArea) (
	*externalapi.DomainHash, uint64, error) {

	virtualGHOSTDAGData, err := fm.ghostdagDataStore.Get(fm.databaseContext, stagingArea, model.VirtualBlockHash)
	if err != nil {
		return nil, 0, err
	}
	virtualSelectedParent := virtualGHOSTDAGData.SelectedParent()
	virtualSelectedParentGHOSTDAGData, err := fm.ghostdagDataStore.Get(fm.databaseContext, stagingArea, virtualSelectedParent)
	if err != nil {
		return nil, 0, err
	}

	pruningPoint, err := fm.pruningStore.PruningPoint(fm.databaseContext, stagingArea)
	if err != nil {
		return nil, 0, err
	}
	pruningPointGHOSTDAGData, err := fm.ghostdagDataStore.Get(fm.databaseContext, stagingArea, pruningPoint)
	if err != nil {
		return nil, 0, err
	}

	if virtualSelectedParentGHOSTDAGData.BlueScore() < fm.finalityDepth {
		return pruningPoint, pruningPointGHOSTDAGData.BlueScore(), nil
	}
	requiredBlueScore := virtualSelectedParentGHOSTDAGData.BlueScore() - fm.finalityDepth
	if requiredBlueScore <= pruningPointGHOSTDAGData.BlueScore() {
		return pruningPoint, pruningPointGHOSTDAGData.BlueScore(), nil
	}

	finalityPoint, err := fm.dagTraversalManager.LowestChainBlockAboveOrEqualToBlueScore(stagingArea,
		virtualSelectedParent, requiredBlueScore)
	if err != nil {
		return nil, 0, err
	}
	finalityPointGHOSTDAGData, err := fm.ghostdagDataStore.Get(fm.databaseContext, stagingArea, finalityPoint)
	if err != nil {
		return nil, 0, err
	}
	return finalityPoint, finalityPointGHOSTDAGData.BlueScore(), nil
}
