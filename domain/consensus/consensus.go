package consensus

import (
	"sync"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/util/staging"
	"github.com/pkg/errors"
)

// ErrConsensusHalted is returned by every operation of a consensus that hit an
// invariant violation
var ErrConsensusHalted = errors.New("consensus is halted due to an invariant violation")

type consensus struct {
	lock            *sync.Mutex
	halted          bool
	databaseContext model.DBManager
	genesisBlock    *externalapi.DomainBlock
	genesisHash     *externalapi.DomainHash

	blockProcessor        model.BlockProcessor
	blockBuilder          model.BlockBuilder
	consensusStateManager model.ConsensusStateManager
	dagTopologyManager    model.DAGTopologyManager
	dagTraversalManager   model.DAGTraversalManager
	ghostdagManager       model.GHOSTDAGManager
	finalityManager       model.FinalityManager
	pruningManager        model.PruningManager
	pruningProofManager   model.PruningProofManager
	syncManager           model.SyncManager

	blockStore                model.BlockStore
	blockHeaderStore          model.BlockHeaderStore
	blockStatusStore          model.BlockStatusStore
	ghostdagDataStore         model.GHOSTDAGDataStore
	consensusStateStore       model.ConsensusStateStore
	pruningStore              model.PruningStore
	headersSelectedChainStore model.SelectedChainStore

	// Held for test access only
	blockRelationStore        model.BlockRelationStore
	multisetStore             model.MultisetStore
	utxoDiffStore             model.UTXODiffStore
	pruningSampleStore        model.PruningSampleStore
	finalityStore             model.FinalityStore
	virtualSelectedChainStore model.SelectedChainStore
	blockValidator            model.BlockValidator
	headersSelectedTipManager model.HeadersSelectedTipManager

	consensusEventsChan chan externalapi.ConsensusEvent
}

// checkError halts the consensus if err is an invariant violation
func (s *consensus) checkError(err error) error {
	if err == nil {
		return nil
	}
	if model.IsInvariantViolationError(err) {
		var invariantViolationError *model.InvariantViolationError
		errors.As(err, &invariantViolationError)
		log.Criticalf("Halting consensus due to an invariant violation at block %s: %+v",
			invariantViolationError.BlockHash, err)
		s.halted = true
	}
	return err
}

func (s *consensus) Init(skipAddingGenesis bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	hasPruningPoint, err := s.pruningStore.HasPruningPoint(s.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	if hasPruningPoint || skipAddingGenesis {
		return nil
	}

	log.Infof("Adding genesis %s to an empty consensus", s.genesisHash)
	virtualChangeSet, err := s.blockProcessor.ValidateAndInsertBlock(s.genesisBlock, true)
	if err != nil {
		return s.checkError(err)
	}
	return s.sendEvents(s.genesisBlock, virtualChangeSet)
}

// ValidateAndInsertBlock validates the given block and, if valid, applies it
// to the current state
func (s *consensus) ValidateAndInsertBlock(block *externalapi.DomainBlock, updateVirtual bool) (
	*externalapi.VirtualChangeSet, error) {

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	virtualChangeSet, err := s.blockProcessor.ValidateAndInsertBlock(block, updateVirtual)
	if err != nil {
		return nil, s.checkError(err)
	}

	err = s.sendEvents(block, virtualChangeSet)
	if err != nil {
		return nil, err
	}
	return virtualChangeSet, nil
}

func (s *consensus) ValidateAndInsertBlockWithTrustedData(block *externalapi.BlockWithTrustedData) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return ErrConsensusHalted
	}

	_, err := s.blockProcessor.ValidateAndInsertBlockWithTrustedData(block)
	return s.checkError(err)
}

func (s *consensus) ResolveVirtual() (*externalapi.VirtualChangeSet, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	virtualChangeSet, err := s.blockProcessor.ResolveVirtual()
	if err != nil {
		return nil, s.checkError(err)
	}
	err = s.sendEvents(nil, virtualChangeSet)
	if err != nil {
		return nil, err
	}
	return virtualChangeSet, nil
}

// BuildBlock builds a block over the current virtual parents
func (s *consensus) BuildBlock(coinbaseData *externalapi.DomainCoinbaseData,
	transactions []*externalapi.DomainTransaction) (*externalapi.DomainBlock, error) {

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	block, err := s.blockBuilder.BuildBlock(coinbaseData, transactions)
	return block, s.checkError(err)
}

func (s *consensus) GetBlock(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, false, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	hasBlock, err := s.blockStore.HasBlock(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, false, err
	}
	if !hasBlock {
		return nil, false, nil
	}

	block, err := s.blockStore.Block(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, false, err
	}
	return block, true, nil
}

func (s *consensus) GetBlockEvenIfHeaderOnly(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	hasBlock, err := s.blockStore.HasBlock(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	if hasBlock {
		return s.blockStore.Block(s.databaseContext, stagingArea, blockHash)
	}

	header, err := s.blockHeaderStore.BlockHeader(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, errors.Wrapf(err, "couldn't find block %s", blockHash)
		}
		return nil, err
	}
	return &externalapi.DomainBlock{Header: header}, nil
}

func (s *consensus) GetBlockHeader(blockHash *externalapi.DomainHash) (externalapi.BlockHeader, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	header, err := s.blockHeaderStore.BlockHeader(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, errors.Wrapf(err, "couldn't find header %s", blockHash)
		}
		return nil, err
	}
	return header, nil
}

func (s *consensus) GetBlockInfo(blockHash *externalapi.DomainHash) (*externalapi.BlockInfo, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	blockInfo := &externalapi.BlockInfo{}

	exists, err := s.blockStatusStore.Exists(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	blockInfo.Exists = exists
	if !exists {
		return blockInfo, nil
	}

	blockStatus, err := s.blockStatusStore.Get(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	blockInfo.BlockStatus = blockStatus

	// An invalid block has no GHOSTDAG data
	if blockStatus == externalapi.StatusInvalid {
		return blockInfo, nil
	}

	ghostdagData, err := s.ghostdagDataStore.Get(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	blockInfo.BlueScore = ghostdagData.BlueScore()
	blockInfo.BlueWork = ghostdagData.BlueWork()
	blockInfo.SelectedParent = ghostdagData.SelectedParent()
	blockInfo.MergeSetBlues = ghostdagData.MergeSetBlues()
	blockInfo.MergeSetReds = ghostdagData.MergeSetReds()

	return blockInfo, nil
}

func (s *consensus) GetBlockChildren(blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err := s.validateBlockHashExists(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	return s.dagTopologyManager.Children(stagingArea, blockHash)
}

func (s *consensus) GetHashesBetween(lowHash, highHash *externalapi.DomainHash, maxBlocks uint64) (
	hashes []*externalapi.DomainHash, actualHighHash *externalapi.DomainHash, err error) {

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err = s.validateBlockHashExists(stagingArea, lowHash)
	if err != nil {
		return nil, nil, err
	}
	err = s.validateBlockHashExists(stagingArea, highHash)
	if err != nil {
		return nil, nil, err
	}
	return s.syncManager.GetHashesBetween(stagingArea, lowHash, highHash, maxBlocks)
}

func (s *consensus) GetAnticone(blockHash, contextHash *externalapi.DomainHash, maxBlocks uint64) (
	hashes []*externalapi.DomainHash, err error) {

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err = s.validateBlockHashExists(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	err = s.validateBlockHashExists(stagingArea, contextHash)
	if err != nil {
		return nil, err
	}
	return s.dagTraversalManager.Anticone(stagingArea, blockHash, contextHash, maxBlocks)
}

func (s *consensus) GetMissingBlockBodyHashes(highHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err := s.validateBlockHashExists(stagingArea, highHash)
	if err != nil {
		return nil, err
	}
	return s.syncManager.GetMissingBlockBodyHashes(stagingArea, highHash)
}

func (s *consensus) GetHeadersSelectedTip() (*externalapi.DomainHash, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	return s.consensusStateStore.HeadersSelectedTip(s.databaseContext, stagingArea)
}

func (s *consensus) GetPruningPointUTXOs(expectedPruningPointHash *externalapi.DomainHash,
	fromOutpoint *externalapi.DomainOutpoint, limit int) ([]*externalapi.OutpointAndUTXOEntryPair, error) {

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	return s.pruningManager.GetPruningPointUTXOs(expectedPruningPointHash, fromOutpoint, limit)
}

func (s *consensus) GetVirtualUTXOs(fromOutpoint *externalapi.DomainOutpoint, limit int) (
	[]*externalapi.OutpointAndUTXOEntryPair, error) {

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	return s.consensusStateStore.VirtualUTXOs(s.databaseContext, fromOutpoint, limit)
}

func (s *consensus) PruningPoint() (*externalapi.DomainHash, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	return s.pruningStore.PruningPoint(s.databaseContext, stagingArea)
}

func (s *consensus) PruningPointHeaders() ([]externalapi.BlockHeader, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	return s.pruningManager.PruningPointHeaders()
}

func (s *consensus) PruningPointAndItsAnticone() ([]*externalapi.DomainHash, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	return s.pruningManager.PruningPointAndItsAnticone()
}

func (s *consensus) BlockWithTrustedData(blockHash *externalapi.DomainHash) (*externalapi.BlockWithTrustedData, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err := s.validateBlockHashExists(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	return s.pruningManager.BlockWithTrustedData(stagingArea, blockHash)
}

func (s *consensus) ClearImportedPruningPointData() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return ErrConsensusHalted
	}

	return s.pruningManager.ClearImportedPruningPointData()
}

func (s *consensus) AppendImportedPruningPointUTXOs(outpointAndUTXOEntryPairs []*externalapi.OutpointAndUTXOEntryPair) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return ErrConsensusHalted
	}

	return s.pruningManager.AppendImportedPruningPointUTXOs(outpointAndUTXOEntryPairs)
}

// ValidateAndInsertImportedPruningPoint makes newPruningPoint, which must already have
// been inserted with trusted data, the pruning point and overrides the virtual UTXO set
// with the imported one
func (s *consensus) ValidateAndInsertImportedPruningPoint(newPruningPoint *externalapi.DomainHash) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	hasBlock, err := s.blockStore.HasBlock(s.databaseContext, stagingArea, newPruningPoint)
	if err != nil {
		return err
	}
	if !hasBlock {
		return errors.Wrapf(ruleerrors.ErrBlockIsNotInTheDAG, "the body of pruning point %s is missing",
			newPruningPoint)
	}
	block, err := s.blockStore.Block(s.databaseContext, stagingArea, newPruningPoint)
	if err != nil {
		return err
	}

	err = s.blockProcessor.ValidateAndInsertImportedPruningPoint(block)
	if err != nil {
		return s.checkError(err)
	}
	return s.sendEvent(&externalapi.UTXOSetOverride{PruningPoint: newPruningPoint})
}

// ImportPruningPoints stores the given pruning point headers, lowest first, as the
// pruning point history of a consensus that was initialized without genesis
func (s *consensus) ImportPruningPoints(pruningPoints []externalapi.BlockHeader) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	for _, header := range pruningPoints {
		blockHash := consensushashing.HeaderHash(header)
		s.blockHeaderStore.Stage(stagingArea, blockHash, header)
		err := s.pruningStore.StagePruningPoint(s.databaseContext, stagingArea, blockHash)
		if err != nil {
			return err
		}
	}
	return staging.CommitAllChanges(s.databaseContext, stagingArea)
}

func (s *consensus) BuildPruningPointProof() (*externalapi.PruningPointProof, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	return s.pruningProofManager.BuildPruningPointProof(stagingArea)
}

func (s *consensus) ValidatePruningPointProof(pruningPointProof *externalapi.PruningPointProof) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return ErrConsensusHalted
	}

	return s.pruningProofManager.ValidatePruningPointProof(pruningPointProof)
}

func (s *consensus) ApplyPruningPointProof(pruningPointProof *externalapi.PruningPointProof) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err := s.pruningProofManager.ApplyPruningPointProof(stagingArea, pruningPointProof)
	if err != nil {
		return err
	}
	return staging.CommitAllChanges(s.databaseContext, stagingArea)
}

func (s *consensus) GetVirtualSelectedParent() (*externalapi.DomainHash, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	virtualGHOSTDAGData, err := s.ghostdagDataStore.Get(s.databaseContext, stagingArea, model.VirtualBlockHash)
	if err != nil {
		return nil, err
	}
	return virtualGHOSTDAGData.SelectedParent(), nil
}

func (s *consensus) GetVirtualInfo() (*externalapi.VirtualInfo, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	parents, err := s.dagTopologyManager.Parents(stagingArea, model.VirtualBlockHash)
	if err != nil {
		return nil, err
	}
	virtualGHOSTDAGData, err := s.ghostdagDataStore.Get(s.databaseContext, stagingArea, model.VirtualBlockHash)
	if err != nil {
		return nil, err
	}
	selectedParentHeader, err := s.blockHeaderStore.BlockHeader(s.databaseContext, stagingArea,
		virtualGHOSTDAGData.SelectedParent())
	if err != nil {
		return nil, err
	}

	return &externalapi.VirtualInfo{
		ParentHashes:   parents,
		SelectedParent: virtualGHOSTDAGData.SelectedParent(),
		BlueScore:      virtualGHOSTDAGData.BlueScore(),
		BlueWork:       virtualGHOSTDAGData.BlueWork(),
		DAAScore:       selectedParentHeader.DAAScore() + uint64(len(virtualGHOSTDAGData.MergeSet())),
	}, nil
}

func (s *consensus) GetVirtualSelectedParentChainFromBlock(blockHash *externalapi.DomainHash) (
	*externalapi.SelectedChainPath, error) {

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err := s.validateBlockHashExists(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	return s.consensusStateManager.GetVirtualSelectedParentChainFromBlock(stagingArea, blockHash)
}

func (s *consensus) IsInSelectedParentChainOf(blockHashA *externalapi.DomainHash,
	blockHashB *externalapi.DomainHash) (bool, error) {

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return false, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err := s.validateBlockHashExists(stagingArea, blockHashA)
	if err != nil {
		return false, err
	}
	err = s.validateBlockHashExists(stagingArea, blockHashB)
	if err != nil {
		return false, err
	}
	return s.dagTopologyManager.IsInSelectedParentChainOf(stagingArea, blockHashA, blockHashB)
}

// CreateFullSelectedChainBlockLocator creates a locator of the whole headers
// selected chain, from the first known pruning point up to the headers selected tip
func (s *consensus) CreateFullSelectedChainBlockLocator() (externalapi.BlockLocator, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	lowHash, err := s.pruningStore.PruningPointByIndex(s.databaseContext, stagingArea, 0)
	if err != nil {
		return nil, err
	}
	highHash, err := s.consensusStateStore.HeadersSelectedTip(s.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	return s.syncManager.CreateHeadersSelectedChainBlockLocator(stagingArea, lowHash, highHash)
}

func (s *consensus) CreateSelectedChainBlockLocator(lowHash, highHash *externalapi.DomainHash) (
	externalapi.BlockLocator, error) {

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	return s.syncManager.CreateHeadersSelectedChainBlockLocator(stagingArea, lowHash, highHash)
}

func (s *consensus) CreateBlockLocatorFromPruningPoint(highHash *externalapi.DomainHash, limit uint32) (
	externalapi.BlockLocator, error) {

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err := s.validateBlockHashExists(stagingArea, highHash)
	if err != nil {
		return nil, err
	}
	return s.syncManager.CreateBlockLocatorFromPruningPoint(stagingArea, highHash, limit)
}

func (s *consensus) FinalityPoint() (*externalapi.DomainHash, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return nil, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	return s.finalityManager.VirtualFinalityPoint(stagingArea)
}

// ResolveFinalityConflict disqualifies blockHash, which violates finality, from
// ever being selected and re-resolves the virtual
func (s *consensus) ResolveFinalityConflict(blockHash *externalapi.DomainHash) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err := s.validateBlockHashExists(stagingArea, blockHash)
	if err != nil {
		return err
	}
	err = s.consensusStateManager.ResolveFinalityConflict(stagingArea, blockHash)
	if err != nil {
		return s.checkError(err)
	}
	finalityPoint, err := s.finalityManager.VirtualFinalityPoint(stagingArea)
	if err != nil {
		return err
	}
	err = staging.CommitAllChanges(s.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	virtualChangeSet, err := s.blockProcessor.ResolveVirtual()
	if err != nil {
		return s.checkError(err)
	}
	err = s.sendEvents(nil, virtualChangeSet)
	if err != nil {
		return err
	}
	return s.sendEvent(&externalapi.FinalityConflictResolved{FinalityBlockHash: finalityPoint})
}

func (s *consensus) IsValidPruningPoint(blockHash *externalapi.DomainHash) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.halted {
		return false, ErrConsensusHalted
	}

	stagingArea := model.NewStagingArea()
	err := s.validateBlockHashExists(stagingArea, blockHash)
	if err != nil {
		return false, err
	}
	return s.pruningManager.IsValidPruningPoint(stagingArea, blockHash)
}

func (s *consensus) validateBlockHashExists(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	exists, err := s.blockStatusStore.Exists(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Errorf("block %s does not exist", blockHash)
	}

	status, err := s.blockStatusStore.Get(s.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}
	if status == externalapi.StatusInvalid {
		return errors.Errorf("block %s is invalid", blockHash)
	}
	return nil
}
