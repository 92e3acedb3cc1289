package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/transactionhelper"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/logger"
)

// CalculatePastUTXOAndAcceptanceData returns the past UTXO set of blockHash as a diff
// from the virtual UTXO set, along with the IDs of the transactions its merge set
// accepted and its UTXO multiset
func (csm *consensusStateManager) CalculatePastUTXOAndAcceptanceData(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (externalapi.UTXODiff, []*externalapi.DomainTransactionID, model.Multiset, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "CalculatePastUTXOAndAcceptanceData")
	defer onEnd()

	ghostdagData, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, nil, nil, err
	}
	selectedParent := ghostdagData.SelectedParent()
	if selectedParent == nil || selectedParent.Equal(model.VirtualGenesisBlockHash) {
		return nil, nil, nil, model.NewInvariantViolationError(blockHash,
			"cannot calculate the past UTXO of a block without a selected parent")
	}

	selectedParentPastUTXO, err := csm.restorePastUTXO(stagingArea, selectedParent)
	if err != nil {
		return nil, nil, nil, err
	}

	pastUTXO, _, acceptedTransactionIDs, multiset, err :=
		csm.calculatePastUTXOAndAcceptanceDataWithSelectedParentUTXO(stagingArea, blockHash, ghostdagData,
			selectedParentPastUTXO.ToImmutable())
	if err != nil {
		return nil, nil, nil, err
	}
	return pastUTXO, acceptedTransactionIDs, multiset, nil
}

// calculatePastUTXOAndAcceptanceDataWithSelectedParentUTXO accepts the transactions of the
// merge set of blockHash, in merge set order, on top of the past UTXO set of its selected parent.
// It returns the past UTXO set of blockHash as a diff from the virtual UTXO set, and the diff
// from the past UTXO set of the selected parent.
func (csm *consensusStateManager) calculatePastUTXOAndAcceptanceDataWithSelectedParentUTXO(
	stagingArea *model.StagingArea, blockHash *externalapi.DomainHash, ghostdagData *externalapi.BlockGHOSTDAGData,
	selectedParentPastUTXO externalapi.UTXODiff) (
	pastUTXO externalapi.UTXODiff, blockUTXODiff externalapi.UTXODiff,
	acceptedTransactionIDs []*externalapi.DomainTransactionID, multiset model.Multiset, err error) {

	log.Tracef("Calculating the past UTXO of block %s", blockHash)

	selectedParentMultiset, err := csm.multisetStore.Get(csm.databaseContext, stagingArea, ghostdagData.SelectedParent())
	if err != nil {
		return nil, nil, nil, nil, err
	}
	multiset = selectedParentMultiset.Clone()

	daaScore, err := csm.blockDAAScore(stagingArea, blockHash, ghostdagData)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	sortedMergeSet, err := csm.ghostdagManager.GetSortedMergeSet(stagingArea, blockHash)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	blues := make(map[externalapi.DomainHash]struct{}, len(ghostdagData.MergeSetBlues()))
	for _, blue := range ghostdagData.MergeSetBlues() {
		blues[*blue] = struct{}{}
	}

	diff := utxo.NewMutableUTXODiff()
	view := &utxoView{
		csm:          csm,
		stagingArea:  stagingArea,
		layers:       []externalapi.UTXODiff{selectedParentPastUTXO},
		mutableLayer: diff,
	}

	for _, mergeSetBlockHash := range sortedMergeSet {
		if mergeSetBlockHash.Equal(model.VirtualGenesisBlockHash) {
			continue
		}
		hasBody, err := csm.blockStore.HasBlock(csm.databaseContext, stagingArea, mergeSetBlockHash)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if !hasBody {
			log.Tracef("Merge set block %s has no body. Skipping it", mergeSetBlockHash)
			continue
		}
		block, err := csm.blockStore.Block(csm.databaseContext, stagingArea, mergeSetBlockHash)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		_, isBlue := blues[*mergeSetBlockHash]

		for i, transaction := range block.Transactions {
			if i == transactionhelper.CoinbaseTransactionIndex && !isBlue {
				continue
			}

			accepted, err := csm.maybeAcceptTransaction(view, diff, multiset, transaction, daaScore)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			if accepted {
				acceptedTransactionIDs = append(acceptedTransactionIDs, consensushashing.TransactionID(transaction))
			}
		}
	}

	blockUTXODiff = diff.ToImmutable()
	pastUTXO, err = selectedParentPastUTXO.WithDiff(blockUTXODiff)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return pastUTXO, blockUTXODiff, acceptedTransactionIDs, multiset, nil
}

// maybeAcceptTransaction applies transaction to diff and multiset if all its inputs
// are unspent in view, it does not spend more than its inputs hold, and none of
// its outputs already exist
func (csm *consensusStateManager) maybeAcceptTransaction(view *utxoView, diff externalapi.MutableUTXODiff,
	multiset model.Multiset, transaction *externalapi.DomainTransaction, daaScore uint64) (bool, error) {

	transactionID := consensushashing.TransactionID(transaction)
	populated := transaction.Clone()

	totalIn := uint64(0)
	for _, input := range populated.Inputs {
		entry, found, err := view.get(&input.PreviousOutpoint)
		if err != nil {
			return false, err
		}
		if !found {
			log.Tracef("Transaction %s spends missing outpoint %s. Not accepting it",
				transactionID, input.PreviousOutpoint)
			return false, nil
		}
		input.UTXOEntry = entry
		totalIn += entry.Amount()
	}

	isCoinbase := transactionhelper.IsCoinBase(populated)
	totalOut := uint64(0)
	for i, output := range populated.Outputs {
		totalOut += output.Value
		exists, err := view.has(externalapi.NewDomainOutpoint(transactionID, uint32(i)))
		if err != nil {
			return false, err
		}
		if exists {
			log.Tracef("Output %d of transaction %s already exists. Not accepting it", i, transactionID)
			return false, nil
		}
	}
	if !isCoinbase && totalOut > totalIn {
		log.Tracef("Transaction %s spends %d out of %d. Not accepting it", transactionID, totalOut, totalIn)
		return false, nil
	}

	err := diff.AddTransaction(populated, daaScore)
	if err != nil {
		return false, err
	}
	return true, addTransactionToMultiset(multiset, populated, daaScore)
}

func addTransactionToMultiset(multiset model.Multiset, transaction *externalapi.DomainTransaction, daaScore uint64) error {
	for _, input := range transaction.Inputs {
		serialized, err := utxo.SerializeUTXO(input.UTXOEntry, &input.PreviousOutpoint)
		if err != nil {
			return err
		}
		multiset.Remove(serialized)
	}

	isCoinbase := transactionhelper.IsCoinBase(transaction)
	transactionID := consensushashing.TransactionID(transaction)
	for i, output := range transaction.Outputs {
		entry := utxo.NewUTXOEntry(output.Value, output.ScriptPublicKey, isCoinbase, daaScore)
		serialized, err := utxo.SerializeUTXO(entry, externalapi.NewDomainOutpoint(transactionID, uint32(i)))
		if err != nil {
			return err
		}
		multiset.Add(serialized)
	}
	return nil
}

// blockDAAScore returns the DAA score of blockHash. The virtual has no header, so its
// score is derived from its selected parent the same way block headers are validated.
func (csm *consensusStateManager) blockDAAScore(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	ghostdagData *externalapi.BlockGHOSTDAGData) (uint64, error) {

	if !blockHash.Equal(model.VirtualBlockHash) {
		header, err := csm.blockHeaderStore.BlockHeader(csm.databaseContext, stagingArea, blockHash)
		if err != nil {
			return 0, err
		}
		return header.DAAScore(), nil
	}

	selectedParentHeader, err := csm.blockHeaderStore.BlockHeader(csm.databaseContext, stagingArea, ghostdagData.SelectedParent())
	if err != nil {
		return 0, err
	}
	return selectedParentHeader.DAAScore() + uint64(len(ghostdagData.MergeSet())), nil
}

// restorePastUTXO returns the past UTXO set of blockHash as a diff from the virtual
// UTXO set. blockHash must be UTXOValid, and its selected chain must meet the
// virtual selected chain.
func (csm *consensusStateManager) restorePastUTXO(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (externalapi.MutableUTXODiff, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "restorePastUTXO")
	defer onEnd()

	var nonVirtualChainBlocks []*externalapi.DomainHash
	current := blockHash
	var commonIndex uint64
	for {
		index, err := csm.virtualSelectedChainStore.GetIndexByHash(csm.databaseContext, stagingArea, current)
		if err == nil {
			commonIndex = index
			break
		}
		if !database.IsNotFoundError(err) {
			return nil, err
		}

		nonVirtualChainBlocks = append(nonVirtualChainBlocks, current)
		currentGHOSTDAGData, err := csm.ghostdagDataStore.Get(csm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, err
		}
		selectedParent := currentGHOSTDAGData.SelectedParent()
		if selectedParent == nil || model.IsVirtualOrVirtualGenesis(selectedParent) {
			return nil, model.NewInvariantViolationError(blockHash,
				"the selected chain does not meet the virtual selected chain")
		}
		current = selectedParent
	}
	log.Tracef("Restoring the past UTXO of %s from %d blocks outside the virtual chain",
		blockHash, len(nonVirtualChainBlocks))

	highestIndex, found, err := csm.virtualSelectedChainStore.HighestChainBlockIndex(csm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, model.NewInvariantViolationError(blockHash, "the virtual selected chain is empty")
	}

	diff := utxo.NewMutableUTXODiff()
	for index := highestIndex; index > commonIndex; index-- {
		chainBlockHash, err := csm.virtualSelectedChainStore.GetHashByIndex(csm.databaseContext, stagingArea, index)
		if err != nil {
			return nil, err
		}
		chainBlockDiff, err := csm.utxoDiffStore.UTXODiff(csm.databaseContext, stagingArea, chainBlockHash)
		if err != nil {
			return nil, err
		}
		err = diff.WithDiffInPlace(chainBlockDiff.Reversed())
		if err != nil {
			return nil, err
		}
	}

	for i := len(nonVirtualChainBlocks) - 1; i >= 0; i-- {
		blockDiff, err := csm.utxoDiffStore.UTXODiff(csm.databaseContext, stagingArea, nonVirtualChainBlocks[i])
		if err != nil {
			return nil, err
		}
		err = diff.WithDiffInPlace(blockDiff)
		if err != nil {
			return nil, err
		}
	}

	return diff, nil
}

// RestorePastUTXOSetIterator iterates over the past UTXO set of blockHash
func (csm *consensusStateManager) RestorePastUTXOSetIterator(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (externalapi.ReadOnlyUTXOSetIterator, error) {

	status, err := csm.ResolveBlockStatus(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	if status != externalapi.StatusUTXOValid {
		return nil, model.NewInvariantViolationError(blockHash,
			"cannot restore the past UTXO set of a block with status %s", status)
	}

	diff, err := csm.restorePastUTXO(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}

	virtualUTXOSetIterator, err := csm.consensusStateStore.VirtualUTXOSetIterator(csm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	return utxo.NewDiffIterator(virtualUTXOSetIterator, diff.ToImmutable()), nil
}
