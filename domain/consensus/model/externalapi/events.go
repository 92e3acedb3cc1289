package externalapi

// ConsensusEvent is the interface type for events emitted by a consensus instance
type ConsensusEvent interface {
	isConsensusEvent()
}

// BlockAdded is emitted for every block inserted with its body
type BlockAdded struct {
	Block *DomainBlock
}

func (*BlockAdded) isConsensusEvent() {}

// VirtualChainChanged is emitted whenever the virtual selected parent chain changes
type VirtualChainChanged struct {
	Added   []*DomainHash
	Removed []*DomainHash
}

func (*VirtualChainChanged) isConsensusEvent() {}

// PruningPointMoved is emitted whenever the pruning point advances
type PruningPointMoved struct {
	PruningPoint         *DomainHash
	PreviousPruningPoint *DomainHash
}

func (*PruningPointMoved) isConsensusEvent() {}

// FinalityConflict is emitted when a block that would have been selected
// by the virtual does not have the finality point in its selected chain
type FinalityConflict struct {
	ViolatingBlockHash *DomainHash
	FinalityPoint      *DomainHash
}

func (*FinalityConflict) isConsensusEvent() {}

// FinalityConflictResolved is emitted once a finality conflict was resolved
// in favor of the current finality point
type FinalityConflictResolved struct {
	FinalityBlockHash *DomainHash
}

func (*FinalityConflictResolved) isConsensusEvent() {}

// UTXOSetOverride is emitted when the virtual UTXO set was replaced by an
// imported pruning point UTXO set
type UTXOSetOverride struct {
	PruningPoint *DomainHash
}

func (*UTXOSetOverride) isConsensusEvent() {}
