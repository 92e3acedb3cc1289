package blockbuilder

import (
	"math"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/blockheader"
	"github.com/calico-network/calicod/domain/consensus/utils/constants"
	"github.com/calico-network/calicod/domain/consensus/utils/merkle"
	"github.com/calico-network/calicod/domain/consensus/utils/pow"
	"github.com/calico-network/calicod/domain/consensus/utils/transactionhelper"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/util/mstime"
	"github.com/pkg/errors"
)

// newBlockHash stands in for the hash of the block being built while its
// GHOSTDAG data and past UTXO are calculated
var newBlockHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1})

type blockBuilder struct {
	databaseContext model.DBReader
	baseSubsidy     uint64

	consensusStateManager model.ConsensusStateManager
	ghostdagManager       model.GHOSTDAGManager
	dagTopologyManager    model.DAGTopologyManager
	pruningManager        model.PruningManager
	blockParentBuilder    model.BlockParentBuilder

	ghostdagDataStore model.GHOSTDAGDataStore
	blockHeaderStore  model.BlockHeaderStore
	blockStatusStore  model.BlockStatusStore
	pruningStore      model.PruningStore
}

// New creates a new instance of a BlockBuilder
func New(
	databaseContext model.DBReader,
	baseSubsidy uint64,

	consensusStateManager model.ConsensusStateManager,
	ghostdagManager model.GHOSTDAGManager,
	dagTopologyManager model.DAGTopologyManager,
	pruningManager model.PruningManager,
	blockParentBuilder model.BlockParentBuilder,

	ghostdagDataStore model.GHOSTDAGDataStore,
	blockHeaderStore model.BlockHeaderStore,
	blockStatusStore model.BlockStatusStore,
	pruningStore model.PruningStore,
) model.BlockBuilder {

	return &blockBuilder{
		databaseContext: databaseContext,
		baseSubsidy:     baseSubsidy,

		consensusStateManager: consensusStateManager,
		ghostdagManager:       ghostdagManager,
		dagTopologyManager:    dagTopologyManager,
		pruningManager:        pruningManager,
		blockParentBuilder:    blockParentBuilder,

		ghostdagDataStore: ghostdagDataStore,
		blockHeaderStore:  blockHeaderStore,
		blockStatusStore:  blockStatusStore,
		pruningStore:      pruningStore,
	}
}

// BuildBlock builds a block over the current virtual parents, with the given
// coinbaseData and the given transactions
func (bb *blockBuilder) BuildBlock(coinbaseData *externalapi.DomainCoinbaseData,
	transactions []*externalapi.DomainTransaction) (*externalapi.DomainBlock, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "BuildBlock")
	defer onEnd()

	stagingArea := model.NewStagingArea()
	virtualParents, err := bb.dagTopologyManager.Parents(stagingArea, model.VirtualBlockHash)
	if err != nil {
		return nil, err
	}
	return bb.buildBlockWithParents(stagingArea, virtualParents, coinbaseData, transactions)
}

// BuildBlockWithParents builds a block over the given parents. The block is
// solved against the difficulty of its selected parent.
func (bb *blockBuilder) BuildBlockWithParents(parentHashes []*externalapi.DomainHash,
	coinbaseData *externalapi.DomainCoinbaseData, transactions []*externalapi.DomainTransaction) (
	*externalapi.DomainBlock, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "BuildBlockWithParents")
	defer onEnd()

	stagingArea := model.NewStagingArea()
	return bb.buildBlockWithParents(stagingArea, parentHashes, coinbaseData, transactions)
}

func (bb *blockBuilder) buildBlockWithParents(stagingArea *model.StagingArea, parentHashes []*externalapi.DomainHash,
	coinbaseData *externalapi.DomainCoinbaseData, transactions []*externalapi.DomainTransaction) (
	*externalapi.DomainBlock, error) {

	if len(parentHashes) == 0 {
		return nil, errors.New("cannot build a block without parents")
	}

	selectedParent, err := bb.ghostdagManager.ChooseSelectedParent(stagingArea, parentHashes...)
	if err != nil {
		return nil, err
	}
	selectedParentHeader, err := bb.blockHeaderStore.BlockHeader(bb.databaseContext, stagingArea, selectedParent)
	if err != nil {
		return nil, err
	}
	bits := selectedParentHeader.Bits()

	ghostdagData, err := bb.ghostdagManager.GHOSTDAGForParents(stagingArea, parentHashes, bits)
	if err != nil {
		return nil, err
	}
	daaScore := selectedParentHeader.DAAScore() + uint64(len(ghostdagData.MergeSet()))

	selectedParentStatus, err := bb.consensusStateManager.ResolveBlockStatus(stagingArea, selectedParent)
	if err != nil {
		return nil, err
	}
	if selectedParentStatus != externalapi.StatusUTXOValid {
		return nil, errors.Errorf("cannot build a block over selected parent %s with status %s",
			selectedParent, selectedParentStatus)
	}

	bb.stagePlaceholder(stagingArea, parentHashes, ghostdagData, daaScore)
	_, acceptedTransactionIDs, multiset, err := bb.consensusStateManager.CalculatePastUTXOAndAcceptanceData(
		stagingArea, newBlockHash)
	if err != nil {
		return nil, err
	}

	coinbase, err := bb.newBlockCoinbaseTransaction(ghostdagData.BlueScore(), coinbaseData)
	if err != nil {
		return nil, err
	}
	transactionsWithCoinbase := append([]*externalapi.DomainTransaction{coinbase}, transactions...)

	parents, err := bb.blockParentBuilder.BuildParents(stagingArea, parentHashes)
	if err != nil {
		return nil, err
	}
	pruningPoint, err := bb.newBlockPruningPoint(stagingArea)
	if err != nil {
		return nil, err
	}

	header := blockheader.NewImmutableBlockHeader(
		constants.BlockVersion,
		parents,
		merkle.CalculateHashMerkleRoot(transactionsWithCoinbase),
		merkle.CalculateIDMerkleRoot(acceptedTransactionIDs),
		multiset.Hash(),
		newBlockTime(selectedParentHeader),
		bits,
		0,
		daaScore,
		ghostdagData.BlueScore(),
		ghostdagData.BlueWork(),
		pruningPoint,
	)

	solvedHeader, err := solveHeader(header)
	if err != nil {
		return nil, err
	}
	return &externalapi.DomainBlock{
		Header:       solvedHeader,
		Transactions: transactionsWithCoinbase,
	}, nil
}

// stagePlaceholder stages what the consensus state manager needs to know about the
// block being built. The staging area is never committed.
func (bb *blockBuilder) stagePlaceholder(stagingArea *model.StagingArea, parentHashes []*externalapi.DomainHash,
	ghostdagData *externalapi.BlockGHOSTDAGData, daaScore uint64) {

	bb.ghostdagDataStore.Stage(stagingArea, newBlockHash, ghostdagData)
	bb.blockHeaderStore.Stage(stagingArea, newBlockHash, blockheader.NewImmutableBlockHeader(
		constants.BlockVersion,
		[]externalapi.BlockLevelParents{parentHashes},
		&externalapi.DomainHash{},
		&externalapi.DomainHash{},
		&externalapi.DomainHash{},
		0,
		0,
		0,
		daaScore,
		ghostdagData.BlueScore(),
		ghostdagData.BlueWork(),
		&externalapi.DomainHash{},
	))
}

func (bb *blockBuilder) newBlockCoinbaseTransaction(blueScore uint64,
	coinbaseData *externalapi.DomainCoinbaseData) (*externalapi.DomainTransaction, error) {

	if coinbaseData == nil {
		coinbaseData = &externalapi.DomainCoinbaseData{ScriptPublicKey: &externalapi.ScriptPublicKey{}}
	}
	return transactionhelper.NewCoinbaseTransaction(blueScore, bb.baseSubsidy, coinbaseData)
}

func (bb *blockBuilder) newBlockPruningPoint(stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	pruningPoint, isTrusted, err := bb.pruningManager.ExpectedHeaderPruningPoint(stagingArea, newBlockHash)
	if err != nil {
		return nil, err
	}
	if isTrusted {
		return bb.pruningStore.PruningPoint(bb.databaseContext, stagingArea)
	}
	return pruningPoint, nil
}

// newBlockTime returns the current time, unless it is not above the time of the
// selected parent
func newBlockTime(selectedParentHeader externalapi.BlockHeader) int64 {
	now := mstime.TimeToUnixMilli(mstime.Now())
	if now <= selectedParentHeader.TimeInMilliseconds() {
		return selectedParentHeader.TimeInMilliseconds() + 1
	}
	return now
}

func solveHeader(header externalapi.BlockHeader) (externalapi.BlockHeader, error) {
	mutableHeader := header.ToMutable()
	state := pow.NewState(mutableHeader)
	for {
		if state.CheckProofOfWork() {
			mutableHeader.SetNonce(state.Nonce)
			return mutableHeader.ToImmutable(), nil
		}
		if state.Nonce == math.MaxUint64 {
			return nil, errors.Errorf("exhausted the nonce space at bits %08x", header.Bits())
		}
		state.IncrementNonce()
	}
}
