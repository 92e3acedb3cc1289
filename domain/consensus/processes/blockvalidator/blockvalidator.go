package blockvalidator

import (
	"math/big"
	"time"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// blockValidator exposes a set of validation classes, after which
// it's possible to determine whether either a block is valid
type blockValidator struct {
	powMax                      *big.Int
	skipPoW                     bool
	genesisHash                 *externalapi.DomainHash
	maxBlockParents             int
	maxBlockLevel               int
	mergeSetSizeLimit           uint64
	mergeDepth                  uint64
	timestampDeviationTolerance uint64
	targetTimePerBlock          time.Duration
	maxBlockTransactions        uint64
	maxCoinbasePayloadLength    uint64
	baseSubsidy                 uint64

	databaseContext     model.DBReader
	dagTopologyManager  model.DAGTopologyManager
	dagTraversalManager model.DAGTraversalManager
	blockParentBuilder  model.BlockParentBuilder
	pruningManager      model.PruningManager

	blockStore        model.BlockStore
	blockHeaderStore  model.BlockHeaderStore
	blockStatusStore  model.BlockStatusStore
	ghostdagDataStore model.GHOSTDAGDataStore
	pruningStore      model.PruningStore
}

// New instantiates a new BlockValidator
func New(powMax *big.Int,
	skipPoW bool,
	genesisHash *externalapi.DomainHash,
	maxBlockParents int,
	maxBlockLevel int,
	mergeSetSizeLimit uint64,
	mergeDepth uint64,
	timestampDeviationTolerance uint64,
	targetTimePerBlock time.Duration,
	maxBlockTransactions uint64,
	maxCoinbasePayloadLength uint64,
	baseSubsidy uint64,

	databaseContext model.DBReader,

	dagTopologyManager model.DAGTopologyManager,
	dagTraversalManager model.DAGTraversalManager,
	blockParentBuilder model.BlockParentBuilder,
	pruningManager model.PruningManager,

	blockStore model.BlockStore,
	blockHeaderStore model.BlockHeaderStore,
	blockStatusStore model.BlockStatusStore,
	ghostdagDataStore model.GHOSTDAGDataStore,
	pruningStore model.PruningStore,
) model.BlockValidator {

	return &blockValidator{
		powMax:                      powMax,
		skipPoW:                     skipPoW,
		genesisHash:                 genesisHash,
		maxBlockParents:             maxBlockParents,
		maxBlockLevel:               maxBlockLevel,
		mergeSetSizeLimit:           mergeSetSizeLimit,
		mergeDepth:                  mergeDepth,
		timestampDeviationTolerance: timestampDeviationTolerance,
		targetTimePerBlock:          targetTimePerBlock,
		maxBlockTransactions:        maxBlockTransactions,
		maxCoinbasePayloadLength:    maxCoinbasePayloadLength,
		baseSubsidy:                 baseSubsidy,

		databaseContext:     databaseContext,
		dagTopologyManager:  dagTopologyManager,
		dagTraversalManager: dagTraversalManager,
		blockParentBuilder:  blockParentBuilder,
		pruningManager:      pruningManager,

		blockStore:        blockStore,
		blockHeaderStore:  blockHeaderStore,
		blockStatusStore:  blockStatusStore,
		ghostdagDataStore: ghostdagDataStore,
		pruningStore:      pruningStore,
	}
}
