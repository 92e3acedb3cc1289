package blockvalidator

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/difficulty"
	"github.com/calico-network/calicod/domain/consensus/utils/pow"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/pkg/errors"
)

// ValidatePruningPointViolationAndProofOfWork checks that the block's parents are
// known and valid, that it does not build on the pruned past, and that it carries
// valid proof of work. It runs before the block's relations are staged.
func (v *blockValidator) ValidatePruningPointViolationAndProofOfWork(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidatePruningPointViolationAndProofOfWork")
	defer onEnd()

	header, err := v.blockHeaderStore.BlockHeader(v.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}

	err = v.checkParentHeadersExist(stagingArea, header)
	if err != nil {
		return err
	}

	err = v.checkPruningPointViolation(stagingArea, header)
	if err != nil {
		return err
	}

	return v.checkProofOfWork(header)
}

// ValidateProofOfWork checks only the proof of work of the block. It is used for
// blocks whose past is not known.
func (v *blockValidator) ValidateProofOfWork(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	header, err := v.blockHeaderStore.BlockHeader(v.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	return v.checkProofOfWork(header)
}

func (v *blockValidator) checkParentHeadersExist(stagingArea *model.StagingArea, header externalapi.BlockHeader) error {
	var missingParentHashes []*externalapi.DomainHash
	for _, parent := range header.DirectParents() {
		parentStatusExists, err := v.blockStatusStore.Exists(v.databaseContext, stagingArea, parent)
		if err != nil {
			return err
		}
		if parentStatusExists {
			parentStatus, err := v.blockStatusStore.Get(v.databaseContext, stagingArea, parent)
			if err != nil {
				return err
			}
			if parentStatus == externalapi.StatusInvalid {
				return errors.Wrapf(ruleerrors.ErrInvalidAncestorBlock, "parent %s is invalid", parent)
			}
		}

		parentHeaderExists, err := v.blockHeaderStore.HasBlockHeader(v.databaseContext, stagingArea, parent)
		if err != nil {
			return err
		}
		if !parentHeaderExists {
			missingParentHashes = append(missingParentHashes, parent)
		}
	}

	if len(missingParentHashes) > 0 {
		return ruleerrors.NewErrMissingParents(missingParentHashes)
	}

	return nil
}

// checkPruningPointViolation requires at least one parent to be the pruning point
// or one of its descendants.
func (v *blockValidator) checkPruningPointViolation(stagingArea *model.StagingArea, header externalapi.BlockHeader) error {
	pruningPoint, err := v.pruningStore.PruningPoint(v.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	if pruningPoint.Equal(v.genesisHash) {
		return nil
	}

	for _, parent := range header.DirectParents() {
		if parent.Equal(pruningPoint) {
			return nil
		}
	}

	isAncestorOfAny, err := v.dagTopologyManager.IsAncestorOfAny(stagingArea, pruningPoint, header.DirectParents())
	if err != nil {
		return err
	}
	if !isAncestorOfAny {
		return errors.Wrapf(ruleerrors.ErrPruningPointViolation,
			"expected pruning point %s to be in block %s past.", pruningPoint, header.DirectParents())
	}
	return nil
}

// checkProofOfWork ensures the block header bits which indicate the target
// difficulty is in min/max range and that the block's proof of work value is
// less than the target difficulty as claimed.
func (v *blockValidator) checkProofOfWork(header externalapi.BlockHeader) error {
	// The target difficulty must be larger than zero.
	target := difficulty.CompactToBig(header.Bits())
	if target.Sign() <= 0 {
		return errors.Wrapf(ruleerrors.ErrNegativeTarget, "block target difficulty of %064x is too low",
			target)
	}

	// The target difficulty must be less than the maximum allowed.
	if target.Cmp(v.powMax) > 0 {
		return errors.Wrapf(ruleerrors.ErrTargetTooHigh, "block target difficulty of %064x is "+
			"higher than max of %064x", target, v.powMax)
	}

	if !v.skipPoW && !pow.CheckProofOfWorkByBits(header.ToMutable()) {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "block has invalid proof of work")
	}
	return nil
}
