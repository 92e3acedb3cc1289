package consensus

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/dagconfig"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

type testConsensus struct {
	*consensus
	dagParams *dagconfig.Params
	database  database.Database
}

func (tc *testConsensus) DAGParams() *dagconfig.Params {
	return tc.dagParams
}

func (tc *testConsensus) DatabaseContext() model.DBManager {
	return tc.databaseContext
}

func (tc *testConsensus) BuildBlockWithParents(parentHashes []*externalapi.DomainHash,
	coinbaseData *externalapi.DomainCoinbaseData, transactions []*externalapi.DomainTransaction) (
	*externalapi.DomainBlock, error) {

	// Require write lock because BuildBlockWithParents stages temporary data
	tc.lock.Lock()
	defer tc.lock.Unlock()

	return tc.blockBuilder.BuildBlockWithParents(parentHashes, coinbaseData, transactions)
}

func (tc *testConsensus) AddBlock(parentHashes []*externalapi.DomainHash, coinbaseData *externalapi.DomainCoinbaseData,
	transactions []*externalapi.DomainTransaction) (*externalapi.DomainHash, *externalapi.VirtualChangeSet, error) {

	block, err := tc.BuildBlockWithParents(parentHashes, coinbaseData, transactions)
	if err != nil {
		return nil, nil, err
	}

	virtualChangeSet, err := tc.ValidateAndInsertBlock(block, true)
	if err != nil {
		return nil, nil, err
	}

	return consensushashing.BlockHash(block), virtualChangeSet, nil
}

func (tc *testConsensus) AddHeader(parentHashes []*externalapi.DomainHash, coinbaseData *externalapi.DomainCoinbaseData,
	transactions []*externalapi.DomainTransaction) (*externalapi.DomainHash, error) {

	block, err := tc.BuildBlockWithParents(parentHashes, coinbaseData, transactions)
	if err != nil {
		return nil, err
	}

	_, err = tc.ValidateAndInsertBlock(&externalapi.DomainBlock{Header: block.Header}, true)
	if err != nil {
		return nil, err
	}

	return consensushashing.BlockHash(block), nil
}

func (tc *testConsensus) BlockHeaderStore() model.BlockHeaderStore {
	return tc.blockHeaderStore
}

func (tc *testConsensus) BlockRelationStore() model.BlockRelationStore {
	return tc.blockRelationStore
}

func (tc *testConsensus) BlockStatusStore() model.BlockStatusStore {
	return tc.blockStatusStore
}

func (tc *testConsensus) BlockStore() model.BlockStore {
	return tc.blockStore
}

func (tc *testConsensus) ConsensusStateStore() model.ConsensusStateStore {
	return tc.consensusStateStore
}

func (tc *testConsensus) FinalityStore() model.FinalityStore {
	return tc.finalityStore
}

func (tc *testConsensus) GHOSTDAGDataStore() model.GHOSTDAGDataStore {
	return tc.ghostdagDataStore
}

func (tc *testConsensus) HeadersSelectedChainStore() model.SelectedChainStore {
	return tc.headersSelectedChainStore
}

func (tc *testConsensus) MultisetStore() model.MultisetStore {
	return tc.multisetStore
}

func (tc *testConsensus) PruningSampleStore() model.PruningSampleStore {
	return tc.pruningSampleStore
}

func (tc *testConsensus) PruningStore() model.PruningStore {
	return tc.pruningStore
}

func (tc *testConsensus) UTXODiffStore() model.UTXODiffStore {
	return tc.utxoDiffStore
}

func (tc *testConsensus) VirtualSelectedChainStore() model.SelectedChainStore {
	return tc.virtualSelectedChainStore
}

func (tc *testConsensus) BlockBuilder() model.BlockBuilder {
	return tc.blockBuilder
}

func (tc *testConsensus) BlockProcessor() model.BlockProcessor {
	return tc.blockProcessor
}

func (tc *testConsensus) BlockValidator() model.BlockValidator {
	return tc.blockValidator
}

func (tc *testConsensus) ConsensusStateManager() model.ConsensusStateManager {
	return tc.consensusStateManager
}

func (tc *testConsensus) DAGTopologyManager() model.DAGTopologyManager {
	return tc.dagTopologyManager
}

func (tc *testConsensus) DAGTraversalManager() model.DAGTraversalManager {
	return tc.dagTraversalManager
}

func (tc *testConsensus) FinalityManager() model.FinalityManager {
	return tc.finalityManager
}

func (tc *testConsensus) GHOSTDAGManager() model.GHOSTDAGManager {
	return tc.ghostdagManager
}

func (tc *testConsensus) HeadersSelectedTipManager() model.HeadersSelectedTipManager {
	return tc.headersSelectedTipManager
}

func (tc *testConsensus) PruningManager() model.PruningManager {
	return tc.pruningManager
}

func (tc *testConsensus) PruningProofManager() model.PruningProofManager {
	return tc.pruningProofManager
}

func (tc *testConsensus) SyncManager() model.SyncManager {
	return tc.syncManager
}
