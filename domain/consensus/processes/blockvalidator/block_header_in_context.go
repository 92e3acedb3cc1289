package blockvalidator

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/pkg/errors"
)

// ValidateHeaderInContext validates block headers in the context of the current
// consensus state. The block's relations and GHOSTDAG data must already be staged.
func (v *blockValidator) ValidateHeaderInContext(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateHeaderInContext")
	defer onEnd()

	header, err := v.blockHeaderStore.BlockHeader(v.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}

	ghostdagData, err := v.ghostdagDataStore.Get(v.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	log.Debugf("block %s blue score is %d", blockHash, ghostdagData.BlueScore())

	err = v.checkParentsIncest(stagingArea, header)
	if err != nil {
		return err
	}

	err = v.checkMergeSizeLimit(ghostdagData)
	if err != nil {
		return err
	}

	err = v.validateBlueScoreAndBlueWork(header, ghostdagData)
	if err != nil {
		return err
	}

	err = v.validateDAAScore(stagingArea, header, ghostdagData)
	if err != nil {
		return err
	}

	err = v.validateHeaderPruningPoint(stagingArea, blockHash, header)
	if err != nil {
		return err
	}

	err = v.validateIndirectParents(stagingArea, header)
	if err != nil {
		return err
	}

	return v.checkBoundedMergeDepth(stagingArea, ghostdagData)
}

// checkParentsIncest validates that no parent is an ancestor of another parent
func (v *blockValidator) checkParentsIncest(stagingArea *model.StagingArea, header externalapi.BlockHeader) error {
	for _, parentA := range header.DirectParents() {
		for _, parentB := range header.DirectParents() {
			if parentA.Equal(parentB) {
				continue
			}

			isAAncestorOfB, err := v.dagTopologyManager.IsAncestorOf(stagingArea, parentA, parentB)
			if err != nil {
				return err
			}

			if isAAncestorOfB {
				return errors.Wrapf(ruleerrors.ErrInvalidParentsRelation, "parent %s is an "+
					"ancestor of another parent %s",
					parentA,
					parentB,
				)
			}
		}
	}
	return nil
}

func (v *blockValidator) checkMergeSizeLimit(ghostdagData *externalapi.BlockGHOSTDAGData) error {
	mergeSetSize := len(ghostdagData.MergeSetBlues()) + len(ghostdagData.MergeSetReds())

	if uint64(mergeSetSize) > v.mergeSetSizeLimit {
		return errors.Wrapf(ruleerrors.ErrViolatingMergeLimit,
			"The block merges %d blocks > %d merge set size limit", mergeSetSize, v.mergeSetSizeLimit)
	}

	return nil
}

func (v *blockValidator) validateBlueScoreAndBlueWork(header externalapi.BlockHeader,
	ghostdagData *externalapi.BlockGHOSTDAGData) error {

	if header.BlueScore() != ghostdagData.BlueScore() {
		return errors.Wrapf(ruleerrors.ErrUnexpectedBlueScore, "block blue score of %d is not the expected "+
			"value of %d", header.BlueScore(), ghostdagData.BlueScore())
	}
	if header.BlueWork().Cmp(ghostdagData.BlueWork()) != 0 {
		return errors.Wrapf(ruleerrors.ErrUnexpectedBlueWork, "block blue work of %s is not the expected "+
			"value of %s", header.BlueWork(), ghostdagData.BlueWork())
	}
	return nil
}

// validateDAAScore checks that the header's DAA score equals its selected parent's
// DAA score plus the size of its mergeset. Blocks whose selected parent was
// imported without history are exempt.
func (v *blockValidator) validateDAAScore(stagingArea *model.StagingArea, header externalapi.BlockHeader,
	ghostdagData *externalapi.BlockGHOSTDAGData) error {

	selectedParent := ghostdagData.SelectedParent()
	if selectedParent == nil || selectedParent.Equal(model.VirtualGenesisBlockHash) {
		return nil
	}

	selectedParentHeader, err := v.blockHeaderStore.BlockHeader(v.databaseContext, stagingArea, selectedParent)
	if err != nil {
		return err
	}

	expectedDAAScore := selectedParentHeader.DAAScore() + uint64(len(ghostdagData.MergeSet()))
	if header.DAAScore() != expectedDAAScore {
		return errors.Wrapf(ruleerrors.ErrUnexpectedDAAScore, "block DAA score of %d is not the expected "+
			"value of %d", header.DAAScore(), expectedDAAScore)
	}
	return nil
}

func (v *blockValidator) validateHeaderPruningPoint(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	header externalapi.BlockHeader) error {

	expectedPruningPoint, isTrusted, err := v.pruningManager.ExpectedHeaderPruningPoint(stagingArea, blockHash)
	if err != nil {
		return err
	}
	if isTrusted {
		return nil
	}

	if !header.PruningPoint().Equal(expectedPruningPoint) {
		return errors.Wrapf(ruleerrors.ErrUnexpectedPruningPoint, "block pruning point of %s is not the expected "+
			"pruning point of %s", header.PruningPoint(), expectedPruningPoint)
	}
	return nil
}

// validateIndirectParents rebuilds the block's parents by level from its direct
// parents and compares the result with the header. Headers that reference
// higher-level parents unknown to this node cannot be rebuilt and are accepted as is.
func (v *blockValidator) validateIndirectParents(stagingArea *model.StagingArea, header externalapi.BlockHeader) error {
	for _, levelParents := range header.Parents() {
		for _, parent := range levelParents {
			hasHeader, err := v.blockHeaderStore.HasBlockHeader(v.databaseContext, stagingArea, parent)
			if err != nil {
				return err
			}
			if !hasHeader {
				return nil
			}
		}
	}

	expectedParents, err := v.blockParentBuilder.BuildParents(stagingArea, header.DirectParents())
	if err != nil {
		return err
	}

	if !externalapi.ParentsEqual(header.Parents(), expectedParents) {
		return errors.Wrapf(ruleerrors.ErrInvalidParentsLevels, "block parents by level are not the expected "+
			"parents %s", expectedParents)
	}
	return nil
}
