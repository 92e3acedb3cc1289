package blockprocessor

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/util/staging"
	"github.com/pkg/errors"
)

func (bp *blockProcessor) validateAndInsertImportedPruningPoint(stagingArea *model.StagingArea,
	newPruningPoint *externalapi.DomainBlock) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "validateAndInsertImportedPruningPoint")
	defer onEnd()

	newPruningPointHash := consensushashing.BlockHash(newPruningPoint)
	log.Infof("Importing pruning point %s", newPruningPointHash)

	hasHeader, err := bp.blockHeaderStore.HasBlockHeader(bp.databaseContext, stagingArea, newPruningPointHash)
	if err != nil {
		return err
	}
	if !hasHeader {
		return errors.Wrapf(ruleerrors.ErrBlockIsNotInTheDAG, "the header of pruning point %s is not known",
			newPruningPointHash)
	}

	headersSelectedTip, err := bp.consensusStateStore.HeadersSelectedTip(bp.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	isInHeadersSelectedChain, err := bp.dagTopologyManager.IsInSelectedParentChainOf(stagingArea,
		newPruningPointHash, headersSelectedTip)
	if err != nil {
		return err
	}
	if !isInHeadersSelectedChain {
		return errors.Wrapf(ruleerrors.ErrUnexpectedPruningPoint, "pruning point %s is not in the selected chain "+
			"of the headers selected tip %s", newPruningPointHash, headersSelectedTip)
	}

	bp.blockStore.Stage(stagingArea, newPruningPointHash, newPruningPoint)
	err = bp.blockValidator.ValidateBodyInIsolation(stagingArea, newPruningPointHash)
	if err != nil {
		return err
	}

	err = bp.consensusStateManager.ImportPruningPoint(stagingArea, newPruningPoint)
	if err != nil {
		return err
	}
	err = bp.pruningManager.StagePruningSample(stagingArea, newPruningPointHash)
	if err != nil {
		return err
	}
	err = bp.finalityManager.UpdateFinalityPoint(stagingArea)
	if err != nil {
		return err
	}

	return staging.CommitAllChanges(bp.databaseContext, stagingArea)
}
