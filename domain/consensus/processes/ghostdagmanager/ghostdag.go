package ghostdagmanager

import (
	"math/big"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/difficulty"
	"github.com/pkg/errors"
)

type blockGHOSTDAGDataBuilder struct {
	blueScore          uint64
	blueWork           *big.Int
	selectedParent     *externalapi.DomainHash
	mergeSetBlues      []*externalapi.DomainHash
	mergeSetReds       []*externalapi.DomainHash
	bluesAnticoneSizes map[externalapi.DomainHash]externalapi.KType
}

func (b *blockGHOSTDAGDataBuilder) toImmutable() *externalapi.BlockGHOSTDAGData {
	return externalapi.NewBlockGHOSTDAGData(b.blueScore, b.blueWork, b.selectedParent, b.mergeSetBlues,
		b.mergeSetReds, b.bluesAnticoneSizes)
}

var virtualGenesisGHOSTDAGData = externalapi.NewBlockGHOSTDAGData(
	0, big.NewInt(0), nil, []*externalapi.DomainHash{}, []*externalapi.DomainHash{},
	map[externalapi.DomainHash]externalapi.KType{})

func (gm *ghostdagManager) ghostdagData(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) (
	*externalapi.BlockGHOSTDAGData, error) {

	if blockHash.Equal(model.VirtualGenesisBlockHash) {
		return virtualGenesisGHOSTDAGData, nil
	}
	return gm.ghostdagDataStore.Get(gm.databaseContext, stagingArea, blockHash)
}

// GHOSTDAG runs the GHOSTDAG protocol and calculates the block BlockGHOSTDAGData by the given parents.
// The function calculates MergeSetBlues by iterating over the blocks in
// the anticone of the new block selected parent (which is the parent with the
// highest blue work) and adds any block to newNode.blues if by adding
// it to MergeSetBlues these conditions will not be violated:
//
// 1) |anticone-of-candidate-block ∩ blue-set-of-newBlock| ≤ K
//
//  2. For every blue block in blue-set-of-newBlock:
//     |(anticone-of-blue-block ∩ blue-set-newBlock) ∪ {candidate-block}| ≤ K.
//     We validate this condition by maintaining a map BluesAnticoneSizes for
//     each block which holds all the blue anticone sizes that were affected by
//     the new added blue blocks.
//     So to find out what is |anticone-of-blue ∩ blue-set-of-newBlock| we just iterate in
//     the selected parent chain of the new block until we find an existing entry in
//     BluesAnticoneSizes.
//
// For further details see the article https://eprint.iacr.org/2018/104.pdf
func (gm *ghostdagManager) GHOSTDAG(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	parentHashes, err := gm.dagTopologyManager.Parents(stagingArea, blockHash)
	if err != nil {
		return err
	}

	bits := uint32(0)
	if !blockHash.Equal(model.VirtualBlockHash) {
		header, err := gm.headerStore.BlockHeader(gm.databaseContext, stagingArea, blockHash)
		if err != nil {
			return err
		}
		bits = header.Bits()
	}

	ghostdagData, err := gm.GHOSTDAGForParents(stagingArea, parentHashes, bits)
	if err != nil {
		return err
	}
	gm.ghostdagDataStore.Stage(stagingArea, blockHash, ghostdagData)
	return nil
}

// GHOSTDAGForParents computes the GHOSTDAG data of a block with the given parents and bits
// without requiring the block itself to be known. Zero bits contribute no work.
func (gm *ghostdagManager) GHOSTDAGForParents(stagingArea *model.StagingArea, parentHashes []*externalapi.DomainHash,
	bits uint32) (*externalapi.BlockGHOSTDAGData, error) {

	if len(parentHashes) == 0 {
		return externalapi.NewBlockGHOSTDAGData(0, big.NewInt(0), nil, []*externalapi.DomainHash{},
			[]*externalapi.DomainHash{}, map[externalapi.DomainHash]externalapi.KType{}), nil
	}

	for _, parentHash := range parentHashes {
		if parentHash.Equal(model.VirtualGenesisBlockHash) {
			continue
		}
		exists, err := gm.ghostdagDataStore.Has(gm.databaseContext, stagingArea, parentHash)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, model.NewInvariantViolationError(parentHash,
				"parent is missing GHOSTDAG data while scoring a child")
		}
	}

	selectedParent, err := gm.findSelectedParent(stagingArea, parentHashes)
	if err != nil {
		return nil, err
	}

	newBlockData := &blockGHOSTDAGDataBuilder{
		blueWork:           big.NewInt(0),
		selectedParent:     selectedParent,
		mergeSetBlues:      []*externalapi.DomainHash{selectedParent},
		mergeSetReds:       []*externalapi.DomainHash{},
		bluesAnticoneSizes: map[externalapi.DomainHash]externalapi.KType{*selectedParent: 0},
	}

	mergeSetWithoutSelectedParent, err := gm.mergeSetWithoutSelectedParent(stagingArea, selectedParent, parentHashes)
	if err != nil {
		return nil, err
	}

	for _, blueCandidate := range mergeSetWithoutSelectedParent {
		isBlue, candidateAnticoneSize, candidateBluesAnticoneSizes, err := gm.checkBlueCandidate(
			stagingArea, newBlockData, blueCandidate)
		if err != nil {
			return nil, err
		}

		if isBlue {
			// No k-cluster violation found, we can now set the candidate block as blue
			newBlockData.mergeSetBlues = append(newBlockData.mergeSetBlues, blueCandidate)
			newBlockData.bluesAnticoneSizes[*blueCandidate] = candidateAnticoneSize
			for blue, blueAnticoneSize := range candidateBluesAnticoneSizes {
				newBlockData.bluesAnticoneSizes[blue] = blueAnticoneSize + 1
			}
		} else {
			newBlockData.mergeSetReds = append(newBlockData.mergeSetReds, blueCandidate)
		}
	}

	selectedParentGHOSTDAGData, err := gm.ghostdagData(stagingArea, selectedParent)
	if err != nil {
		return nil, err
	}
	newBlockData.blueScore = selectedParentGHOSTDAGData.BlueScore() + uint64(len(newBlockData.mergeSetBlues))

	blueWork := new(big.Int).Set(selectedParentGHOSTDAGData.BlueWork())
	for _, blue := range newBlockData.mergeSetBlues[1:] {
		header, err := gm.headerStore.BlockHeader(gm.databaseContext, stagingArea, blue)
		if err != nil {
			return nil, err
		}
		blueWork.Add(blueWork, difficulty.CalcWork(header.Bits()))
	}
	if bits != 0 {
		blueWork.Add(blueWork, difficulty.CalcWork(bits))
	}
	newBlockData.blueWork = blueWork

	return newBlockData.toImmutable(), nil
}

type chainBlockData struct {
	hash         *externalapi.DomainHash
	blockData    *externalapi.BlockGHOSTDAGData
	newBlockData *blockGHOSTDAGDataBuilder
}

func (c *chainBlockData) mergeSetBlues() []*externalapi.DomainHash {
	if c.newBlockData != nil {
		return c.newBlockData.mergeSetBlues
	}
	return c.blockData.MergeSetBlues()
}

func (c *chainBlockData) selectedParent() *externalapi.DomainHash {
	if c.newBlockData != nil {
		return c.newBlockData.selectedParent
	}
	return c.blockData.SelectedParent()
}

func (gm *ghostdagManager) checkBlueCandidate(stagingArea *model.StagingArea, newBlockData *blockGHOSTDAGDataBuilder,
	blueCandidate *externalapi.DomainHash) (isBlue bool, candidateAnticoneSize externalapi.KType,
	candidateBluesAnticoneSizes map[externalapi.DomainHash]externalapi.KType, err error) {

	// The maximum length of node.blues can be K+1 because
	// it contains the selected parent.
	if externalapi.KType(len(newBlockData.mergeSetBlues)) == gm.k+1 {
		return false, 0, nil, nil
	}

	candidateBluesAnticoneSizes = make(map[externalapi.DomainHash]externalapi.KType, gm.k)

	// Iterate over all blocks in the blue set of newNode that are not in the past
	// of blueCandidate, and check for each one of them if blueCandidate potentially
	// enlarges their blue anticone to be over K, or that blueCandidate itself will
	// have blue anticone larger than K.
	chainBlock := &chainBlockData{newBlockData: newBlockData}
	for {
		isBlue, isRed, err := gm.checkBlueCandidateWithChainBlock(stagingArea, newBlockData, chainBlock, blueCandidate,
			candidateBluesAnticoneSizes, &candidateAnticoneSize)
		if err != nil {
			return false, 0, nil, err
		}
		if isBlue {
			break
		}
		if isRed {
			return false, 0, nil, nil
		}

		selectedParent := chainBlock.selectedParent()
		if selectedParent == nil || selectedParent.Equal(model.VirtualGenesisBlockHash) {
			break
		}
		selectedParentGHOSTDAGData, err := gm.ghostdagData(stagingArea, selectedParent)
		if err != nil {
			return false, 0, nil, err
		}
		chainBlock = &chainBlockData{hash: selectedParent, blockData: selectedParentGHOSTDAGData}
	}

	return true, candidateAnticoneSize, candidateBluesAnticoneSizes, nil
}

func (gm *ghostdagManager) checkBlueCandidateWithChainBlock(stagingArea *model.StagingArea,
	newBlockData *blockGHOSTDAGDataBuilder, chainBlock *chainBlockData, blueCandidate *externalapi.DomainHash,
	candidateBluesAnticoneSizes map[externalapi.DomainHash]externalapi.KType,
	candidateAnticoneSize *externalapi.KType) (isBlue, isRed bool, err error) {

	// If blueCandidate is in the future of chainBlock, it means
	// that all remaining blues are in the past of chainBlock and thus
	// in the past of blueCandidate. In this case we know for sure that
	// the anticone of blueCandidate will not exceed K, and we can mark
	// it as blue.
	//
	// The new block is always in the future of blueCandidate, so there's
	// no point in checking it.
	if chainBlock.hash != nil {
		isAncestorOfBlueCandidate, err := gm.dagTopologyManager.IsAncestorOf(stagingArea, chainBlock.hash, blueCandidate)
		if err != nil {
			return false, false, err
		}
		if isAncestorOfBlueCandidate {
			return true, false, nil
		}
	}

	for _, block := range chainBlock.mergeSetBlues() {
		// Skip blocks that exist in the past of blueCandidate.
		isAncestorOfBlueCandidate, err := gm.dagTopologyManager.IsAncestorOf(stagingArea, block, blueCandidate)
		if err != nil {
			return false, false, err
		}
		if isAncestorOfBlueCandidate {
			continue
		}

		candidateBluesAnticoneSizes[*block], err = gm.blueAnticoneSize(stagingArea, block, newBlockData)
		if err != nil {
			return false, false, err
		}
		*candidateAnticoneSize++

		if *candidateAnticoneSize > gm.k {
			// k-cluster violation: The candidate's blue anticone exceeded k
			return false, true, nil
		}

		if candidateBluesAnticoneSizes[*block] == gm.k {
			// k-cluster violation: A block in candidate's blue anticone already
			// has k blue blocks in its own anticone
			return false, true, nil
		}

		// This is a sanity check that validates that a blue
		// block's blue anticone is not already larger than K.
		if candidateBluesAnticoneSizes[*block] > gm.k {
			return false, false, errors.New("found blue anticone size larger than k")
		}
	}

	return false, false, nil
}

// blueAnticoneSize returns the blue anticone size of 'block' from the worldview of 'context'.
// Expects 'block' to be in the blue set of 'context'
func (gm *ghostdagManager) blueAnticoneSize(stagingArea *model.StagingArea, block *externalapi.DomainHash,
	context *blockGHOSTDAGDataBuilder) (externalapi.KType, error) {

	if blueAnticoneSize, ok := context.bluesAnticoneSizes[*block]; ok {
		return blueAnticoneSize, nil
	}

	currentSelectedParent := context.selectedParent
	for currentSelectedParent != nil && !currentSelectedParent.Equal(model.VirtualGenesisBlockHash) {
		currentGHOSTDAGData, err := gm.ghostdagData(stagingArea, currentSelectedParent)
		if err != nil {
			return 0, err
		}
		if blueAnticoneSize, ok := currentGHOSTDAGData.BluesAnticoneSizes()[*block]; ok {
			return blueAnticoneSize, nil
		}
		currentSelectedParent = currentGHOSTDAGData.SelectedParent()
	}
	return 0, errors.Errorf("block %s is not in blue set of the given context", block)
}
