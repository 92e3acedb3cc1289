package blockprocessor

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/util/staging"
	"github.com/pkg/errors"
)

func (bp *blockProcessor) validateBlock(stagingArea *model.StagingArea, block *externalapi.DomainBlock) error {
	blockHash := consensushashing.BlockHash(block)
	log.Debugf("Validating block %s", blockHash)

	err := bp.checkBlockStatus(stagingArea, block)
	if err != nil {
		return err
	}

	hasValidatedHeader, err := bp.hasValidatedHeader(stagingArea, blockHash)
	if err != nil {
		return err
	}

	if !hasValidatedHeader {
		bp.blockHeaderStore.Stage(stagingArea, blockHash, block.Header)
		err = bp.validatePreProofOfWork(stagingArea, blockHash)
		if err != nil {
			return err
		}
	}

	err = bp.validatePostProofOfWork(stagingArea, block, hasValidatedHeader)
	if err != nil {
		if isInvalidatingRuleError(err) {
			// Only the invalid status is kept
			log.Debugf("Marking block %s as invalid: %s", blockHash, err)
			invalidStagingArea := model.NewStagingArea()
			bp.blockStatusStore.Stage(invalidStagingArea, blockHash, externalapi.StatusInvalid)
			commitErr := staging.CommitAllChanges(bp.databaseContext, invalidStagingArea)
			if commitErr != nil {
				return commitErr
			}
		}
		return err
	}
	return nil
}

// isInvalidatingRuleError returns whether err proves the block invalid forever. Missing
// data and malleated bodies do not, since the same block hash may be valid once the
// data arrives or with its original body.
func isInvalidatingRuleError(err error) bool {
	if !ruleerrors.IsRuleError(err) {
		return false
	}
	var missingParents ruleerrors.ErrMissingParents
	if errors.As(err, &missingParents) {
		return false
	}
	return !errors.Is(err, ruleerrors.ErrBadMerkleRoot) &&
		!errors.Is(err, ruleerrors.ErrMissingParentBodies) &&
		!errors.Is(err, ruleerrors.ErrPrunedBlock)
}

func (bp *blockProcessor) validatePreProofOfWork(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	err := bp.blockValidator.ValidateHeaderInIsolation(stagingArea, blockHash)
	if err != nil {
		return err
	}
	return bp.blockValidator.ValidatePruningPointViolationAndProofOfWork(stagingArea, blockHash)
}

func (bp *blockProcessor) validatePostProofOfWork(stagingArea *model.StagingArea, block *externalapi.DomainBlock,
	hasValidatedHeader bool) error {

	blockHash := consensushashing.BlockHash(block)

	if !hasValidatedHeader {
		err := bp.dagTopologyManager.SetParents(stagingArea, blockHash, block.Header.DirectParents())
		if err != nil {
			return err
		}
		err = bp.ghostdagManager.GHOSTDAG(stagingArea, blockHash)
		if err != nil {
			return err
		}
		err = bp.blockValidator.ValidateHeaderInContext(stagingArea, blockHash)
		if err != nil {
			return err
		}
		err = bp.pruningManager.StagePruningSample(stagingArea, blockHash)
		if err != nil {
			return err
		}
		err = bp.headersSelectedTipManager.AddHeaderTip(stagingArea, blockHash)
		if err != nil {
			return err
		}
	}

	if isHeaderOnlyBlock(block) {
		return nil
	}

	bp.blockStore.Stage(stagingArea, blockHash, block)
	err := bp.blockValidator.ValidateBodyInIsolation(stagingArea, blockHash)
	if err != nil {
		return err
	}
	return bp.blockValidator.ValidateBodyInContext(stagingArea, blockHash)
}

// checkBlockStatus rejects blocks that are known to be invalid, and blocks that add
// nothing to what is already stored. The only accepted known block is a body for a
// header-only block.
func (bp *blockProcessor) checkBlockStatus(stagingArea *model.StagingArea, block *externalapi.DomainBlock) error {
	blockHash := consensushashing.BlockHash(block)
	exists, err := bp.blockStatusStore.Exists(bp.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	status, err := bp.blockStatusStore.Get(bp.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	if status == externalapi.StatusInvalid {
		return errors.Wrapf(ruleerrors.ErrKnownInvalid, "block %s is a known invalid block", blockHash)
	}

	if isHeaderOnlyBlock(block) || status != externalapi.StatusHeaderOnly {
		return errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s already exists", blockHash)
	}
	return nil
}

func (bp *blockProcessor) hasValidatedHeader(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (bool, error) {
	exists, err := bp.blockStatusStore.Exists(bp.databaseContext, stagingArea, blockHash)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	status, err := bp.blockStatusStore.Get(bp.databaseContext, stagingArea, blockHash)
	if err != nil {
		return false, err
	}
	return status == externalapi.StatusHeaderOnly, nil
}
