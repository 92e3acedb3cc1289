package externalapi

import "math/big"

// VirtualInfo represents information about the virtual block needed by external components
type VirtualInfo struct {
	ParentHashes   []*DomainHash
	SelectedParent *DomainHash
	BlueScore      uint64
	BlueWork       *big.Int
	DAAScore       uint64
}

// SelectedChainPath is a path the of the selected chains between two blocks.
// Removed is ordered from the highest block down, Added from the lowest block up.
type SelectedChainPath struct {
	Added   []*DomainHash
	Removed []*DomainHash
}

// IsEmpty returns true if the path neither adds nor removes blocks
func (scp *SelectedChainPath) IsEmpty() bool {
	return scp == nil || (len(scp.Added) == 0 && len(scp.Removed) == 0)
}

// VirtualChangeSet is auxiliary data returned from ValidateAndInsertBlock
// describing the change the block caused to the virtual
type VirtualChangeSet struct {
	VirtualSelectedParentChainChanges *SelectedChainPath
	VirtualParents                    []*DomainHash
	VirtualSelectedParentBlueScore    uint64
	VirtualDAAScore                   uint64

	// PruningPointMoved and FinalityConflict are nil unless the
	// change caused them
	PruningPointMoved *PruningPointMoved
	FinalityConflict  *FinalityConflict
}
