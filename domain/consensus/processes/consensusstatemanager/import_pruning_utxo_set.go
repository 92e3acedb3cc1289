package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/pkg/errors"
)

// ImportPruningPoint makes newPruningPoint the pruning point and the only virtual
// parent, with the previously imported UTXO set as the virtual UTXO set
func (csm *consensusStateManager) ImportPruningPoint(stagingArea *model.StagingArea,
	newPruningPoint *externalapi.DomainBlock) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ImportPruningPoint")
	defer onEnd()

	newPruningPointHash := consensushashing.BlockHash(newPruningPoint)
	log.Debugf("Importing the UTXO set of pruning point %s", newPruningPointHash)

	importedMultiset, err := csm.pruningStore.ImportedPruningPointMultiset(csm.databaseContext)
	if err != nil {
		if database.IsNotFoundError(err) {
			return errors.Wrapf(ruleerrors.ErrBadPruningPointUTXOSet, "no UTXO set was imported for %s",
				newPruningPointHash)
		}
		return err
	}
	importedUTXOCommitment := importedMultiset.Hash()
	if !newPruningPoint.Header.UTXOCommitment().Equal(importedUTXOCommitment) {
		return errors.Wrapf(ruleerrors.ErrBadPruningPointUTXOSet, "the expected multiset hash of the pruning "+
			"point UTXO set is %s but got %s", newPruningPoint.Header.UTXOCommitment(), importedUTXOCommitment)
	}

	importedUTXOSet, err := csm.collectImportedPruningPointUTXOSet()
	if err != nil {
		return err
	}
	log.Debugf("The imported UTXO set of %s has %d entries", newPruningPointHash, importedUTXOSet.Len())

	csm.consensusStateStore.StageVirtualUTXOSetOverride(stagingArea, importedUTXOSet)
	csm.pruningStore.StagePruningPointUTXOSet(stagingArea, importedUTXOSet)

	csm.blockStatusStore.Stage(stagingArea, newPruningPointHash, externalapi.StatusUTXOValid)
	csm.multisetStore.Stage(stagingArea, newPruningPointHash, importedMultiset)
	csm.utxoDiffStore.Stage(stagingArea, newPruningPointHash, utxo.NewMutableUTXODiff().ToImmutable())

	newTips := []*externalapi.DomainHash{newPruningPointHash}
	csm.consensusStateStore.StageTips(stagingArea, newTips)
	err = csm.dagTopologyManager.SetParents(stagingArea, model.VirtualBlockHash, newTips)
	if err != nil {
		return err
	}
	err = csm.ghostdagManager.GHOSTDAG(stagingArea, model.VirtualBlockHash)
	if err != nil {
		return err
	}

	err = csm.resetVirtualSelectedChain(stagingArea, newPruningPointHash)
	if err != nil {
		return err
	}

	currentPruningPoint, err := csm.pruningStore.PruningPoint(csm.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	if !currentPruningPoint.Equal(newPruningPointHash) {
		err = csm.pruningStore.StagePruningPoint(csm.databaseContext, stagingArea, newPruningPointHash)
		if err != nil {
			return err
		}
	}
	return nil
}

func (csm *consensusStateManager) collectImportedPruningPointUTXOSet() (externalapi.UTXOCollection, error) {
	iterator, err := csm.pruningStore.ImportedPruningPointUTXOIterator(csm.databaseContext)
	if err != nil {
		return nil, err
	}
	defer iterator.Close()

	utxoMap := make(map[externalapi.DomainOutpoint]externalapi.UTXOEntry)
	for ok := iterator.First(); ok; ok = iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			return nil, err
		}
		utxoMap[*outpoint] = entry
	}
	return utxo.NewUTXOCollection(utxoMap), nil
}

// resetVirtualSelectedChain replaces the whole virtual selected chain with newRoot
func (csm *consensusStateManager) resetVirtualSelectedChain(stagingArea *model.StagingArea,
	newRoot *externalapi.DomainHash) error {

	highestIndex, found, err := csm.virtualSelectedChainStore.HighestChainBlockIndex(csm.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	var removed []*externalapi.DomainHash
	if found {
		for index := highestIndex; ; index-- {
			blockHash, err := csm.virtualSelectedChainStore.GetHashByIndex(csm.databaseContext, stagingArea, index)
			if err != nil {
				return err
			}
			removed = append(removed, blockHash)
			if index == 0 {
				break
			}
		}
	}

	return csm.virtualSelectedChainStore.Stage(csm.databaseContext, stagingArea, &externalapi.SelectedChainPath{
		Added:   []*externalapi.DomainHash{newRoot},
		Removed: removed,
	})
}
