package pruningmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/hashset"
	"github.com/calico-network/calicod/domain/consensus/utils/multiset"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/logger"
)

// UpdatePruningPointByVirtual moves the pruning point forward to the pruning point a
// block built on top of the virtual would commit to. The UTXO set of the new pruning
// point is restored and checked against its commitment, and the data of blocks in the
// past of the previous pruning point is deleted.
func (pm *pruningManager) UpdatePruningPointByVirtual(stagingArea *model.StagingArea) (
	moved bool, previous *externalapi.DomainHash, err error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "pruningManager.UpdatePruningPointByVirtual")
	defer onEnd()

	virtualGHOSTDAGData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, model.VirtualBlockHash)
	if err != nil {
		return false, nil, err
	}
	candidate, isTrusted, err := pm.expectedPruningPointFromSelectedParent(stagingArea, virtualGHOSTDAGData.SelectedParent())
	if err != nil {
		return false, nil, err
	}
	if isTrusted {
		return false, nil, nil
	}

	currentPruningPoint, err := pm.pruningStore.PruningPoint(pm.databaseContext, stagingArea)
	if err != nil {
		return false, nil, err
	}
	if candidate.Equal(currentPruningPoint) {
		return false, nil, nil
	}

	candidateGHOSTDAGData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, candidate)
	if err != nil {
		return false, nil, err
	}
	currentPruningPointGHOSTDAGData, err := pm.ghostdagDataStore.Get(pm.databaseContext, stagingArea, currentPruningPoint)
	if err != nil {
		return false, nil, err
	}
	if candidateGHOSTDAGData.BlueScore() <= currentPruningPointGHOSTDAGData.BlueScore() {
		log.Debugf("Pruning point candidate %s is not above the current pruning point %s", candidate, currentPruningPoint)
		return false, nil, nil
	}

	log.Infof("Moving the pruning point from %s to %s", currentPruningPoint, candidate)
	err = pm.stagePruningPointUTXOSet(stagingArea, candidate)
	if err != nil {
		return false, nil, err
	}
	err = pm.pruningStore.StagePruningPoint(pm.databaseContext, stagingArea, candidate)
	if err != nil {
		return false, nil, err
	}

	err = pm.deletePastBlocks(stagingArea, currentPruningPoint)
	if err != nil {
		return false, nil, err
	}
	return true, currentPruningPoint, nil
}

// stagePruningPointUTXOSet restores the past UTXO set of pruningPointHash, verifies
// it against the UTXO commitment in its header and stages it as the pruning point UTXO set
func (pm *pruningManager) stagePruningPointUTXOSet(stagingArea *model.StagingArea,
	pruningPointHash *externalapi.DomainHash) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "stagePruningPointUTXOSet")
	defer onEnd()

	iterator, err := pm.consensusStateManager.RestorePastUTXOSetIterator(stagingArea, pruningPointHash)
	if err != nil {
		return err
	}
	defer iterator.Close()

	utxoMap := make(map[externalapi.DomainOutpoint]externalapi.UTXOEntry)
	utxoSetMultiset := multiset.New()
	for ok := iterator.First(); ok; ok = iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			return err
		}
		serialized, err := utxo.SerializeUTXO(entry, outpoint)
		if err != nil {
			return err
		}
		utxoSetMultiset.Add(serialized)
		utxoMap[*outpoint] = entry
	}

	header, err := pm.blockHeaderStore.BlockHeader(pm.databaseContext, stagingArea, pruningPointHash)
	if err != nil {
		return err
	}
	if !header.UTXOCommitment().Equal(utxoSetMultiset.Hash()) {
		return model.NewInvariantViolationError(pruningPointHash,
			"the restored UTXO set hashes to %s instead of the UTXO commitment %s",
			utxoSetMultiset.Hash(), header.UTXOCommitment())
	}
	log.Debugf("The UTXO set of pruning point %s has %d entries", pruningPointHash, len(utxoMap))

	pm.pruningStore.StagePruningPointUTXOSet(stagingArea, utxo.NewUTXOCollection(utxoMap))
	return nil
}

// deletePastBlocks deletes the bodies, UTXO diffs and multisets of the blocks in the past
// of pruningPointHash. Headers and GHOSTDAG data are kept. The walk stops at blocks that
// hold none of that data, which were pruned by an earlier call.
func (pm *pruningManager) deletePastBlocks(stagingArea *model.StagingArea, pruningPointHash *externalapi.DomainHash) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "deletePastBlocks")
	defer onEnd()

	parents, err := pm.dagTopologyManager.Parents(stagingArea, pruningPointHash)
	if err != nil {
		return err
	}

	queue := parents
	visited := hashset.NewFromSlice(parents...)
	deleted := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if model.IsVirtualOrVirtualGenesis(current) {
			continue
		}

		hasData, err := pm.deleteBlockData(stagingArea, current)
		if err != nil {
			return err
		}
		if !hasData {
			continue
		}
		deleted++

		currentParents, err := pm.dagTopologyManager.Parents(stagingArea, current)
		if err != nil {
			return err
		}
		for _, parent := range currentParents {
			if visited.Contains(parent) {
				continue
			}
			visited.Add(parent)
			queue = append(queue, parent)
		}
	}

	log.Debugf("Deleted the data of %d blocks in the past of %s", deleted, pruningPointHash)
	return nil
}

func (pm *pruningManager) deleteBlockData(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (
	hadData bool, err error) {

	hasBlock, err := pm.blockStore.HasBlock(pm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return false, err
	}
	if hasBlock {
		pm.blockStore.Delete(stagingArea, blockHash)
	}

	hasUTXODiff, err := pm.utxoDiffStore.Has(pm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return false, err
	}
	if hasUTXODiff {
		pm.utxoDiffStore.Delete(stagingArea, blockHash)
		pm.multisetStore.Delete(stagingArea, blockHash)
	}

	return hasBlock || hasUTXODiff, nil
}
