package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/infrastructure/logger"
)

// ResolveBlockStatus verifies the UTXO state of blockHash and of every unverified block
// in its selected chain, lowest first, and returns the resulting status of blockHash
func (csm *consensusStateManager) ResolveBlockStatus(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (externalapi.BlockStatus, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ResolveBlockStatus")
	defer onEnd()

	log.Debugf("Getting a list of all blocks in the selected parent chain of %s that have no UTXO verification",
		blockHash)
	unverifiedBlocks, err := csm.getUnverifiedChainBlocks(stagingArea, blockHash)
	if err != nil {
		return 0, err
	}

	if len(unverifiedBlocks) == 0 {
		log.Debugf("There are no unverified blocks in the selected chain of %s", blockHash)
		return csm.blockStatusStore.Get(csm.databaseContext, stagingArea, blockHash)
	}
	log.Debugf("Found %d unverified blocks in the selected chain of %s", len(unverifiedBlocks), blockHash)

	lowestUnverifiedGHOSTDAGData, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea,
		unverifiedBlocks[len(unverifiedBlocks)-1])
	if err != nil {
		return 0, err
	}
	selectedParent := lowestUnverifiedGHOSTDAGData.SelectedParent()
	if selectedParent == nil || model.IsVirtualOrVirtualGenesis(selectedParent) {
		return 0, model.NewInvariantViolationError(blockHash, "the selected chain has no verified block")
	}

	selectedParentStatus, err := csm.blockStatusStore.Get(csm.databaseContext, stagingArea, selectedParent)
	if err != nil {
		return 0, err
	}

	var selectedParentPastUTXO externalapi.UTXODiff
	if selectedParentStatus == externalapi.StatusUTXOValid {
		restored, err := csm.restorePastUTXO(stagingArea, selectedParent)
		if err != nil {
			return 0, err
		}
		selectedParentPastUTXO = restored.ToImmutable()
	}

	status := selectedParentStatus
	for i := len(unverifiedBlocks) - 1; i >= 0; i-- {
		unverifiedBlockHash := unverifiedBlocks[i]

		if status == externalapi.StatusUTXOValid {
			status, selectedParentPastUTXO, err = csm.resolveSingleBlockStatus(stagingArea,
				unverifiedBlockHash, selectedParentPastUTXO)
			if err != nil {
				return 0, err
			}
		} else {
			status = externalapi.StatusDisqualifiedFromChain
			log.Debugf("Block %s inherits the status %s from its selected parent", unverifiedBlockHash, status)
		}
		csm.blockStatusStore.Stage(stagingArea, unverifiedBlockHash, status)
	}

	return status, nil
}

// getUnverifiedChainBlocks returns blockHash and its selected ancestors that are pending
// UTXO verification, highest first
func (csm *consensusStateManager) getUnverifiedChainBlocks(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	var unverifiedBlocks []*externalapi.DomainHash
	current := blockHash
	for {
		status, err := csm.blockStatusStore.Get(csm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, err
		}
		if status != externalapi.StatusUTXOPendingVerification {
			return unverifiedBlocks, nil
		}
		unverifiedBlocks = append(unverifiedBlocks, current)

		currentGHOSTDAGData, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, err
		}
		selectedParent := currentGHOSTDAGData.SelectedParent()
		if selectedParent == nil || model.IsVirtualOrVirtualGenesis(selectedParent) {
			return unverifiedBlocks, nil
		}
		current = selectedParent
	}
}

// resolveSingleBlockStatus verifies blockHash against its past UTXO set, built on top of
// the past UTXO set of its selected parent. It returns the past UTXO set of blockHash
// when it is valid.
func (csm *consensusStateManager) resolveSingleBlockStatus(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, selectedParentPastUTXO externalapi.UTXODiff) (
	externalapi.BlockStatus, externalapi.UTXODiff, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "resolveSingleBlockStatus")
	defer onEnd()

	ghostdagData, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return 0, nil, err
	}

	pastUTXO, blockUTXODiff, acceptedTransactionIDs, multiset, err :=
		csm.calculatePastUTXOAndAcceptanceDataWithSelectedParentUTXO(stagingArea, blockHash, ghostdagData,
			selectedParentPastUTXO)
	if err != nil {
		return 0, nil, err
	}

	err = csm.verifyUTXO(stagingArea, blockHash, pastUTXO, acceptedTransactionIDs, multiset)
	if err != nil {
		if ruleerrors.IsRuleError(err) {
			log.Debugf("UTXO verification of block %s failed: %s", blockHash, err)
			return externalapi.StatusDisqualifiedFromChain, nil, nil
		}
		return 0, nil, err
	}
	log.Debugf("UTXO verification of block %s passed", blockHash)

	csm.utxoDiffStore.Stage(stagingArea, blockHash, blockUTXODiff)
	csm.multisetStore.Stage(stagingArea, blockHash, multiset)
	return externalapi.StatusUTXOValid, pastUTXO, nil
}
