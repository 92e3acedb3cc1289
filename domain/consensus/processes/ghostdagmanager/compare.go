package ghostdagmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

func (gm *ghostdagManager) findSelectedParent(stagingArea *model.StagingArea, parentHashes []*externalapi.DomainHash) (
	*externalapi.DomainHash, error) {

	return gm.ChooseSelectedParent(stagingArea, parentHashes...)
}

// ChooseSelectedParent returns the block with the greatest blue work among blockHashes.
// Ties are broken in favor of the lexicographically smaller hash.
func (gm *ghostdagManager) ChooseSelectedParent(stagingArea *model.StagingArea, blockHashes ...*externalapi.DomainHash) (
	*externalapi.DomainHash, error) {

	selectedParent := blockHashes[0]
	selectedParentGHOSTDAGData, err := gm.ghostdagData(stagingArea, selectedParent)
	if err != nil {
		return nil, err
	}
	for _, blockHash := range blockHashes[1:] {
		blockGHOSTDAGData, err := gm.ghostdagData(stagingArea, blockHash)
		if err != nil {
			return nil, err
		}
		if gm.Less(selectedParent, selectedParentGHOSTDAGData, blockHash, blockGHOSTDAGData) {
			selectedParent = blockHash
			selectedParentGHOSTDAGData = blockGHOSTDAGData
		}
	}
	return selectedParent, nil
}

// Less returns true if block A ranks below block B: it has less blue work, or equal
// blue work and a larger hash.
func (gm *ghostdagManager) Less(blockHashA *externalapi.DomainHash, ghostdagDataA *externalapi.BlockGHOSTDAGData,
	blockHashB *externalapi.DomainHash, ghostdagDataB *externalapi.BlockGHOSTDAGData) bool {

	switch ghostdagDataA.BlueWork().Cmp(ghostdagDataB.BlueWork()) {
	case -1:
		return true
	case 1:
		return false
	default:
		return blockHashB.Less(blockHashA)
	}
}
