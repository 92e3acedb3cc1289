package externalapi

// Consensus maintains the current core state of the node
type Consensus interface {
	Init(skipAddingGenesis bool) error
	ValidateAndInsertBlock(block *DomainBlock, updateVirtual bool) (*VirtualChangeSet, error)
	ValidateAndInsertBlockWithTrustedData(block *BlockWithTrustedData) error
	ResolveVirtual() (*VirtualChangeSet, error)
	BuildBlock(coinbaseData *DomainCoinbaseData, transactions []*DomainTransaction) (*DomainBlock, error)

	GetBlock(blockHash *DomainHash) (*DomainBlock, bool, error)
	GetBlockEvenIfHeaderOnly(blockHash *DomainHash) (*DomainBlock, error)
	GetBlockHeader(blockHash *DomainHash) (BlockHeader, error)
	GetBlockInfo(blockHash *DomainHash) (*BlockInfo, error)
	GetBlockChildren(blockHash *DomainHash) ([]*DomainHash, error)
	GetHashesBetween(lowHash, highHash *DomainHash, maxBlocks uint64) (hashes []*DomainHash, actualHighHash *DomainHash, err error)
	GetAnticone(blockHash, contextHash *DomainHash, maxBlocks uint64) (hashes []*DomainHash, err error)
	GetMissingBlockBodyHashes(highHash *DomainHash) ([]*DomainHash, error)
	GetHeadersSelectedTip() (*DomainHash, error)

	GetPruningPointUTXOs(expectedPruningPointHash *DomainHash, fromOutpoint *DomainOutpoint, limit int) ([]*OutpointAndUTXOEntryPair, error)
	GetVirtualUTXOs(fromOutpoint *DomainOutpoint, limit int) ([]*OutpointAndUTXOEntryPair, error)
	PruningPoint() (*DomainHash, error)
	PruningPointHeaders() ([]BlockHeader, error)
	PruningPointAndItsAnticone() ([]*DomainHash, error)
	BlockWithTrustedData(blockHash *DomainHash) (*BlockWithTrustedData, error)
	ClearImportedPruningPointData() error
	AppendImportedPruningPointUTXOs(outpointAndUTXOEntryPairs []*OutpointAndUTXOEntryPair) error
	ValidateAndInsertImportedPruningPoint(newPruningPoint *DomainHash) error
	ImportPruningPoints(pruningPoints []BlockHeader) error

	BuildPruningPointProof() (*PruningPointProof, error)
	ValidatePruningPointProof(pruningPointProof *PruningPointProof) error
	ApplyPruningPointProof(pruningPointProof *PruningPointProof) error

	GetVirtualSelectedParent() (*DomainHash, error)
	GetVirtualInfo() (*VirtualInfo, error)
	GetVirtualSelectedParentChainFromBlock(blockHash *DomainHash) (*SelectedChainPath, error)
	IsInSelectedParentChainOf(blockHashA *DomainHash, blockHashB *DomainHash) (bool, error)
	CreateFullSelectedChainBlockLocator() (BlockLocator, error)
	CreateSelectedChainBlockLocator(lowHash, highHash *DomainHash) (BlockLocator, error)
	CreateBlockLocatorFromPruningPoint(highHash *DomainHash, limit uint32) (BlockLocator, error)

	FinalityPoint() (*DomainHash, error)
	ResolveFinalityConflict(blockHash *DomainHash) error
	IsValidPruningPoint(blockHash *DomainHash) (bool, error)
}
