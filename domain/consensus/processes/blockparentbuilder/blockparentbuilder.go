package blockparentbuilder

import (
	"sort"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/hashset"
	"github.com/calico-network/calicod/domain/consensus/utils/pow"
)

type blockParentBuilder struct {
	databaseContext    model.DBReader
	blockHeaderStore   model.BlockHeaderStore
	ghostdagDataStore  model.GHOSTDAGDataStore
	dagTopologyManager model.DAGTopologyManager

	maxBlockLevel int
}

// New creates a new instance of a BlockParentBuilder
func New(
	databaseContext model.DBReader,
	blockHeaderStore model.BlockHeaderStore,
	ghostdagDataStore model.GHOSTDAGDataStore,
	dagTopologyManager model.DAGTopologyManager,
	maxBlockLevel int,
) model.BlockParentBuilder {
	return &blockParentBuilder{
		databaseContext:    databaseContext,
		blockHeaderStore:   blockHeaderStore,
		ghostdagDataStore:  ghostdagDataStore,
		dagTopologyManager: dagTopologyManager,
		maxBlockLevel:      maxBlockLevel,
	}
}

// BuildParents builds the parents of every block level for a block with the given
// direct parents. The level L parents are the reduced union, over all direct parents,
// of the parent itself if its block level is at least L, or of its own level L parents
// otherwise. Trailing levels equal to the level below them are omitted.
func (bpb *blockParentBuilder) BuildParents(stagingArea *model.StagingArea,
	directParentHashes []*externalapi.DomainHash) ([]externalapi.BlockLevelParents, error) {

	directParentHeaders := make([]externalapi.BlockHeader, len(directParentHashes))
	directParentLevels := make([]int, len(directParentHashes))
	highestParentsLength := 0
	for i, directParentHash := range directParentHashes {
		header, err := bpb.blockHeaderStore.BlockHeader(bpb.databaseContext, stagingArea, directParentHash)
		if err != nil {
			return nil, err
		}
		directParentHeaders[i] = header
		directParentLevels[i] = pow.BlockLevel(header, bpb.maxBlockLevel)
		if len(header.Parents()) > highestParentsLength {
			highestParentsLength = len(header.Parents())
		}
	}

	directParents := externalapi.BlockLevelParents(externalapi.CloneHashes(directParentHashes))
	sortHashes(directParents)
	parents := []externalapi.BlockLevelParents{directParents}

	for level := 1; level <= bpb.maxBlockLevel; level++ {
		candidates := hashset.New()
		isAnyParentAtLevel := false
		for i, header := range directParentHeaders {
			if directParentLevels[i] >= level {
				candidates.Add(directParentHashes[i])
				isAnyParentAtLevel = true
				continue
			}
			for _, grandParent := range header.ParentsAtLevel(level) {
				candidates.Add(grandParent)
			}
		}

		levelParents, err := bpb.reduce(stagingArea, candidates)
		if err != nil {
			return nil, err
		}
		if len(levelParents) == 0 {
			break
		}
		parents = append(parents, levelParents)

		// Past this point every level would repeat the current one
		if !isAnyParentAtLevel && level >= highestParentsLength-1 {
			break
		}
	}

	for len(parents) > 1 && parents[len(parents)-1].Equal(parents[len(parents)-2]) {
		parents = parents[:len(parents)-1]
	}
	return parents, nil
}

// reduce removes candidates that are ancestors of other candidates. Blocks without
// GHOSTDAG data cannot be compared and are kept.
func (bpb *blockParentBuilder) reduce(stagingArea *model.StagingArea, candidates hashset.HashSet) (
	externalapi.BlockLevelParents, error) {

	candidateSlice := candidates.ToSlice()
	comparable := make(map[externalapi.DomainHash]bool, len(candidateSlice))
	for _, candidate := range candidateSlice {
		hasGHOSTDAGData := candidate.Equal(model.VirtualGenesisBlockHash)
		if !hasGHOSTDAGData {
			var err error
			hasGHOSTDAGData, err = bpb.ghostdagDataStore.Has(bpb.databaseContext, stagingArea, candidate)
			if err != nil {
				return nil, err
			}
		}
		comparable[*candidate] = hasGHOSTDAGData
	}

	reduced := externalapi.BlockLevelParents{}
	for _, candidate := range candidateSlice {
		isAncestorOfAnother := false
		if comparable[*candidate] {
			for _, other := range candidateSlice {
				if other.Equal(candidate) || !comparable[*other] {
					continue
				}
				isAncestorOf, err := bpb.dagTopologyManager.IsAncestorOf(stagingArea, candidate, other)
				if err != nil {
					return nil, err
				}
				if isAncestorOf {
					isAncestorOfAnother = true
					break
				}
			}
		}
		if !isAncestorOfAnother {
			reduced = append(reduced, candidate)
		}
	}
	sortHashes(reduced)
	return reduced, nil
}

func sortHashes(hashes []*externalapi.DomainHash) {
	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].Less(hashes[j])
	})
}
