package blockvalidator

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// checkBoundedMergeDepth makes sure that every merged block is either in the future
// of the merge depth root, or in the past of a merged blue that has the merge depth
// root in its selected chain.
func (v *blockValidator) checkBoundedMergeDepth(stagingArea *model.StagingArea,
	ghostdagData *externalapi.BlockGHOSTDAGData) error {

	if ghostdagData.BlueScore() < v.mergeDepth {
		return nil
	}
	selectedParent := ghostdagData.SelectedParent()
	if selectedParent == nil || selectedParent.Equal(model.VirtualGenesisBlockHash) {
		return nil
	}

	mergeDepthRoot, err := v.mergeDepthRoot(stagingArea, ghostdagData)
	if err != nil {
		return err
	}

	kosherizingBlues, err := v.kosherizingBlues(stagingArea, ghostdagData, mergeDepthRoot)
	if err != nil {
		return err
	}

	for _, mergedBlock := range ghostdagData.MergeSet() {
		if mergedBlock.Equal(selectedParent) {
			continue
		}

		isMergeDepthRootInPast, err := v.dagTopologyManager.IsAncestorOf(stagingArea, mergeDepthRoot, mergedBlock)
		if err != nil {
			return err
		}
		if isMergeDepthRootInPast || mergeDepthRoot.Equal(mergedBlock) {
			continue
		}

		isInPastOfKosherizingBlue, err := v.dagTopologyManager.IsAncestorOfAny(stagingArea, mergedBlock, kosherizingBlues)
		if err != nil {
			return err
		}
		if !isInPastOfKosherizingBlue {
			return errors.Wrapf(ruleerrors.ErrViolatingBoundedMergeDepth, "block merges %s which is below the "+
				"merge depth root %s", mergedBlock, mergeDepthRoot)
		}
	}

	return nil
}

func (v *blockValidator) mergeDepthRoot(stagingArea *model.StagingArea,
	ghostdagData *externalapi.BlockGHOSTDAGData) (*externalapi.DomainHash, error) {

	return v.dagTraversalManager.LowestChainBlockAboveOrEqualToBlueScore(stagingArea,
		ghostdagData.SelectedParent(), ghostdagData.BlueScore()-v.mergeDepth)
}

func (v *blockValidator) kosherizingBlues(stagingArea *model.StagingArea, ghostdagData *externalapi.BlockGHOSTDAGData,
	mergeDepthRoot *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	kosherizingBlues := make([]*externalapi.DomainHash, 0, len(ghostdagData.MergeSetBlues()))
	for _, blue := range ghostdagData.MergeSetBlues() {
		isMergeDepthRootInChain, err := v.dagTopologyManager.IsInSelectedParentChainOf(stagingArea, mergeDepthRoot, blue)
		if err != nil {
			return nil, err
		}
		if isMergeDepthRootInChain {
			kosherizingBlues = append(kosherizingBlues, blue)
		}
	}
	return kosherizingBlues, nil
}
