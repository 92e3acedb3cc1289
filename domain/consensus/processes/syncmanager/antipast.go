package syncmanager

import (
	"sort"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/hashset"
	"github.com/pkg/errors"
)

// antiPastHashesBetween returns the hashes of the blocks in the past of highHash
// (including itself) that are not in the past of lowHash (including itself), ordered
// by GHOSTDAG order. If maxBlocks is set and the blue score distance between the two
// blocks exceeds it, highHash is replaced by a lower block on its selected chain and
// returned as actualHighHash. Blue score approximates the amount of blocks, which is
// fairly accurate while most blocks are blue.
func (sm *syncManager) antiPastHashesBetween(stagingArea *model.StagingArea, lowHash, highHash *externalapi.DomainHash,
	maxBlocks uint64) (hashes []*externalapi.DomainHash, actualHighHash *externalapi.DomainHash, err error) {

	if lowHash.Equal(highHash) {
		return []*externalapi.DomainHash{}, highHash, nil
	}

	lowBlockGHOSTDAGData, err := sm.ghostdagDataStore.Get(sm.databaseContext, stagingArea, lowHash)
	if err != nil {
		return nil, nil, err
	}
	highBlockGHOSTDAGData, err := sm.ghostdagDataStore.Get(sm.databaseContext, stagingArea, highHash)
	if err != nil {
		return nil, nil, err
	}
	if lowBlockGHOSTDAGData.BlueScore() > highBlockGHOSTDAGData.BlueScore() {
		return nil, nil, errors.Errorf("low hash blueScore > high hash blueScore (%d > %d)",
			lowBlockGHOSTDAGData.BlueScore(), highBlockGHOSTDAGData.BlueScore())
	}

	if maxBlocks > 0 && highBlockGHOSTDAGData.BlueScore()-lowBlockGHOSTDAGData.BlueScore() > maxBlocks {
		highHash, err = sm.dagTraversalManager.LowestChainBlockAboveOrEqualToBlueScore(stagingArea, highHash,
			lowBlockGHOSTDAGData.BlueScore()+maxBlocks)
		if err != nil {
			return nil, nil, err
		}
	}

	visited := hashset.New()
	ghostdagDataByHash := make(map[externalapi.DomainHash]*externalapi.BlockGHOSTDAGData)
	queue := []*externalapi.DomainHash{highHash}
	visited.Add(highHash)
	for len(queue) > 0 {
		var current *externalapi.DomainHash
		current, queue = queue[0], queue[1:]

		if current.Equal(lowHash) || current.Equal(model.VirtualGenesisBlockHash) {
			continue
		}
		isAncestorOfLowHash, err := sm.dagTopologyManager.IsAncestorOf(stagingArea, current, lowHash)
		if err != nil {
			return nil, nil, err
		}
		if isAncestorOfLowHash {
			continue
		}

		currentGHOSTDAGData, err := sm.ghostdagDataStore.Get(sm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, nil, err
		}
		hashes = append(hashes, current)
		ghostdagDataByHash[*current] = currentGHOSTDAGData

		parents, err := sm.dagTopologyManager.Parents(stagingArea, current)
		if err != nil {
			return nil, nil, err
		}
		for _, parent := range parents {
			if visited.Contains(parent) {
				continue
			}
			visited.Add(parent)
			queue = append(queue, parent)
		}
	}

	sort.Slice(hashes, func(i, j int) bool {
		return sm.ghostdagManager.Less(hashes[i], ghostdagDataByHash[*hashes[i]], hashes[j], ghostdagDataByHash[*hashes[j]])
	})
	if hashes == nil {
		hashes = []*externalapi.DomainHash{}
	}
	return hashes, highHash, nil
}

// missingBlockBodyHashes returns the blocks between the pruning point and highHash
// that have a header but no body, in GHOSTDAG order
func (sm *syncManager) missingBlockBodyHashes(stagingArea *model.StagingArea, highHash *externalapi.DomainHash) (
	[]*externalapi.DomainHash, error) {

	pruningPoint, err := sm.pruningStore.PruningPoint(sm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	isPruningPointInPast, err := sm.dagTopologyManager.IsAncestorOf(stagingArea, pruningPoint, highHash)
	if err != nil {
		return nil, err
	}
	if !isPruningPointInPast && !pruningPoint.Equal(highHash) {
		return nil, errors.Errorf("pruning point %s is not in the past of %s", pruningPoint, highHash)
	}

	hashesBetween, _, err := sm.antiPastHashesBetween(stagingArea, pruningPoint, highHash, 0)
	if err != nil {
		return nil, err
	}

	missingBlocks := make([]*externalapi.DomainHash, 0, len(hashesBetween))
	for _, blockHash := range hashesBetween {
		hasBlock, err := sm.blockStore.HasBlock(sm.databaseContext, stagingArea, blockHash)
		if err != nil {
			return nil, err
		}
		if !hasBlock {
			missingBlocks = append(missingBlocks, blockHash)
		}
	}
	log.Debugf("Found %d blocks with missing bodies below %s", len(missingBlocks), highHash)
	return missingBlocks, nil
}
