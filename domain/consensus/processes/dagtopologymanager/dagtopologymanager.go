package dagtopologymanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/hashset"
)

// dagTopologyManager exposes methods for querying relationships
// between blocks in the DAG
type dagTopologyManager struct {
	databaseContext    model.DBReader
	blockRelationStore model.BlockRelationStore
	ghostdagDataStore  model.GHOSTDAGDataStore
}

// New instantiates a new DAGTopologyManager
func New(
	databaseContext model.DBReader,
	blockRelationStore model.BlockRelationStore,
	ghostdagDataStore model.GHOSTDAGDataStore) model.DAGTopologyManager {

	return &dagTopologyManager{
		databaseContext:    databaseContext,
		blockRelationStore: blockRelationStore,
		ghostdagDataStore:  ghostdagDataStore,
	}
}

// Parents returns the DAG parents of the given blockHash
func (dtm *dagTopologyManager) Parents(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {
	blockRelations, err := dtm.blockRelationStore.BlockRelation(dtm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	return blockRelations.Parents, nil
}

// Children returns the DAG children of the given blockHash
func (dtm *dagTopologyManager) Children(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {
	blockRelations, err := dtm.blockRelationStore.BlockRelation(dtm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	return blockRelations.Children, nil
}

// IsParentOf returns true if blockHashA is a direct DAG parent of blockHashB
func (dtm *dagTopologyManager) IsParentOf(stagingArea *model.StagingArea, blockHashA *externalapi.DomainHash,
	blockHashB *externalapi.DomainHash) (bool, error) {

	blockRelations, err := dtm.blockRelationStore.BlockRelation(dtm.databaseContext, stagingArea, blockHashB)
	if err != nil {
		return false, err
	}
	return isHashInSlice(blockHashA, blockRelations.Parents), nil
}

// IsChildOf returns true if blockHashA is a direct DAG child of blockHashB
func (dtm *dagTopologyManager) IsChildOf(stagingArea *model.StagingArea, blockHashA *externalapi.DomainHash,
	blockHashB *externalapi.DomainHash) (bool, error) {

	blockRelations, err := dtm.blockRelationStore.BlockRelation(dtm.databaseContext, stagingArea, blockHashB)
	if err != nil {
		return false, err
	}
	return isHashInSlice(blockHashA, blockRelations.Children), nil
}

// IsAncestorOf returns true if blockHashA is a DAG ancestor of blockHashB.
// Blue work strictly grows along every DAG edge, so the search never descends
// below the blue work of blockHashA.
func (dtm *dagTopologyManager) IsAncestorOf(stagingArea *model.StagingArea, blockHashA *externalapi.DomainHash,
	blockHashB *externalapi.DomainHash) (bool, error) {

	if blockHashA.Equal(blockHashB) {
		return false, nil
	}
	if blockHashA.Equal(model.VirtualGenesisBlockHash) {
		return true, nil
	}
	if blockHashB.Equal(model.VirtualGenesisBlockHash) {
		return false, nil
	}

	ghostdagDataA, err := dtm.ghostdagDataStore.Get(dtm.databaseContext, stagingArea, blockHashA)
	if err != nil {
		return false, err
	}
	blueWorkA := ghostdagDataA.BlueWork()

	visited := hashset.New()
	queue := []*externalapi.DomainHash{blockHashB}
	for len(queue) > 0 {
		var current *externalapi.DomainHash
		current, queue = queue[0], queue[1:]

		parents, err := dtm.Parents(stagingArea, current)
		if err != nil {
			return false, err
		}
		for _, parent := range parents {
			if parent.Equal(blockHashA) {
				return true, nil
			}
			if visited.Contains(parent) || parent.Equal(model.VirtualGenesisBlockHash) {
				continue
			}
			visited.Add(parent)

			parentGHOSTDAGData, err := dtm.ghostdagDataStore.Get(dtm.databaseContext, stagingArea, parent)
			if err != nil {
				return false, err
			}
			if parentGHOSTDAGData.BlueWork().Cmp(blueWorkA) <= 0 {
				continue
			}
			queue = append(queue, parent)
		}
	}
	return false, nil
}

// IsAncestorOfAny returns true if `blockHash` is an ancestor of at least one of `potentialDescendants`
func (dtm *dagTopologyManager) IsAncestorOfAny(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	potentialDescendants []*externalapi.DomainHash) (bool, error) {

	for _, potentialDescendant := range potentialDescendants {
		isAncestorOf, err := dtm.IsAncestorOf(stagingArea, blockHash, potentialDescendant)
		if err != nil {
			return false, err
		}
		if isAncestorOf {
			return true, nil
		}
	}
	return false, nil
}

// IsAnyAncestorOf returns true if at least one of `potentialAncestors` is an ancestor of `blockHash`
func (dtm *dagTopologyManager) IsAnyAncestorOf(stagingArea *model.StagingArea, potentialAncestors []*externalapi.DomainHash,
	blockHash *externalapi.DomainHash) (bool, error) {

	for _, potentialAncestor := range potentialAncestors {
		isAncestorOf, err := dtm.IsAncestorOf(stagingArea, potentialAncestor, blockHash)
		if err != nil {
			return false, err
		}
		if isAncestorOf {
			return true, nil
		}
	}
	return false, nil
}

// IsInSelectedParentChainOf returns true if blockHashA is in the selected parent chain of blockHashB.
// A block is considered to be in its own selected parent chain.
func (dtm *dagTopologyManager) IsInSelectedParentChainOf(stagingArea *model.StagingArea, blockHashA *externalapi.DomainHash,
	blockHashB *externalapi.DomainHash) (bool, error) {

	if blockHashA.Equal(model.VirtualGenesisBlockHash) {
		return true, nil
	}

	ghostdagDataA, err := dtm.ghostdagDataStore.Get(dtm.databaseContext, stagingArea, blockHashA)
	if err != nil {
		return false, err
	}

	current := blockHashB
	for current != nil && !current.Equal(model.VirtualGenesisBlockHash) {
		if current.Equal(blockHashA) {
			return true, nil
		}
		currentGHOSTDAGData, err := dtm.ghostdagDataStore.Get(dtm.databaseContext, stagingArea, current)
		if err != nil {
			return false, err
		}
		if currentGHOSTDAGData.BlueWork().Cmp(ghostdagDataA.BlueWork()) < 0 {
			return false, nil
		}
		current = currentGHOSTDAGData.SelectedParent()
	}
	return false, nil
}

// SetParents sets the parents of blockHash and registers blockHash as a child
// of each of them. The virtual block is never registered as a child.
func (dtm *dagTopologyManager) SetParents(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	parentHashes []*externalapi.DomainHash) error {

	hasRelations, err := dtm.blockRelationStore.Has(dtm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	children := []*externalapi.DomainHash{}
	if hasRelations {
		blockRelations, err := dtm.blockRelationStore.BlockRelation(dtm.databaseContext, stagingArea, blockHash)
		if err != nil {
			return err
		}
		children = blockRelations.Children
	}

	dtm.blockRelationStore.StageBlockRelation(stagingArea, blockHash, &model.BlockRelations{
		Parents:  externalapi.CloneHashes(parentHashes),
		Children: externalapi.CloneHashes(children),
	})

	if blockHash.Equal(model.VirtualBlockHash) {
		return nil
	}

	for _, parentHash := range parentHashes {
		if parentHash.Equal(model.VirtualGenesisBlockHash) {
			continue
		}
		parentRelations, err := dtm.blockRelationStore.BlockRelation(dtm.databaseContext, stagingArea, parentHash)
		if err != nil {
			return err
		}
		if isHashInSlice(blockHash, parentRelations.Children) {
			continue
		}
		newParentRelations := parentRelations.Clone()
		newParentRelations.Children = append(newParentRelations.Children, blockHash)
		dtm.blockRelationStore.StageBlockRelation(stagingArea, parentHash, newParentRelations)
	}
	return nil
}

func isHashInSlice(hash *externalapi.DomainHash, hashes []*externalapi.DomainHash) bool {
	for _, h := range hashes {
		if h.Equal(hash) {
			return true
		}
	}
	return false
}
