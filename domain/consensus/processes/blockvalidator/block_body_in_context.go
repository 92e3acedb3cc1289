package blockvalidator

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/transactionhelper"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/pkg/errors"
)

// ValidateBodyInContext validates block bodies in the context of the current
// consensus state
func (v *blockValidator) ValidateBodyInContext(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBodyInContext")
	defer onEnd()

	err := v.checkBlockIsNotPruned(stagingArea, blockHash)
	if err != nil {
		return err
	}

	err = v.checkParentBlockBodiesExist(stagingArea, blockHash)
	if err != nil {
		return err
	}

	return v.checkCoinbaseBlueScore(stagingArea, blockHash)
}

// checkBlockIsNotPruned checks that the block is not in the past of the pruning point
func (v *blockValidator) checkBlockIsNotPruned(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	hasPruningPoint, err := v.pruningStore.HasPruningPoint(v.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	if !hasPruningPoint {
		return nil
	}

	pruningPoint, err := v.pruningStore.PruningPoint(v.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	isAncestorOfPruningPoint, err := v.dagTopologyManager.IsAncestorOf(stagingArea, blockHash, pruningPoint)
	if err != nil {
		return err
	}
	if isAncestorOfPruningPoint {
		return errors.Wrapf(ruleerrors.ErrPrunedBlock, "block %s is in the past of the pruning point %s",
			blockHash, pruningPoint)
	}
	return nil
}

func (v *blockValidator) checkParentBlockBodiesExist(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	parents, err := v.dagTopologyManager.Parents(stagingArea, blockHash)
	if err != nil {
		return err
	}

	var missingParentHashes []*externalapi.DomainHash
	for _, parent := range parents {
		if parent.Equal(model.VirtualGenesisBlockHash) {
			continue
		}

		hasBlock, err := v.blockStore.HasBlock(v.databaseContext, stagingArea, parent)
		if err != nil {
			return err
		}
		if hasBlock {
			continue
		}

		// Bodies in the past of the pruning point are deleted, so
		// such parents are not missing.
		pruningPoint, err := v.pruningStore.PruningPoint(v.databaseContext, stagingArea)
		if err != nil {
			return err
		}
		isInPastOfPruningPoint, err := v.dagTopologyManager.IsAncestorOf(stagingArea, parent, pruningPoint)
		if err != nil {
			return err
		}
		if !isInPastOfPruningPoint {
			missingParentHashes = append(missingParentHashes, parent)
		}
	}

	if len(missingParentHashes) > 0 {
		return errors.Wrapf(ruleerrors.ErrMissingParentBodies, "block %s is missing the bodies of %s",
			blockHash, missingParentHashes)
	}
	return nil
}

func (v *blockValidator) checkCoinbaseBlueScore(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	block, err := v.blockStore.Block(v.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	ghostdagData, err := v.ghostdagDataStore.Get(v.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}

	coinbaseBlueScore, _, _, err := transactionhelper.ExtractCoinbaseDataBlueScoreAndSubsidy(
		block.Transactions[transactionhelper.CoinbaseTransactionIndex])
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "%s", err)
	}
	if coinbaseBlueScore != ghostdagData.BlueScore() {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "coinbase blue score of %d is not the "+
			"expected value of %d", coinbaseBlueScore, ghostdagData.BlueScore())
	}
	return nil
}
