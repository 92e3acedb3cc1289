package consensus

import (
	"os"
	"sync"

	consensusdatabase "github.com/calico-network/calicod/domain/consensus/database"
	"github.com/calico-network/calicod/domain/consensus/datastructures/blockheaderstore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/blockrelationstore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/blockstatusstore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/blockstore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/consensusstatestore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/finalitystore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/ghostdagdatastore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/multisetstore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/pruningsamplestore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/pruningstore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/selectedchainstore"
	"github.com/calico-network/calicod/domain/consensus/datastructures/utxodiffstore"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/model/testapi"
	"github.com/calico-network/calicod/domain/consensus/processes/blockbuilder"
	"github.com/calico-network/calicod/domain/consensus/processes/blockparentbuilder"
	"github.com/calico-network/calicod/domain/consensus/processes/blockprocessor"
	"github.com/calico-network/calicod/domain/consensus/processes/blockvalidator"
	"github.com/calico-network/calicod/domain/consensus/processes/consensusstatemanager"
	"github.com/calico-network/calicod/domain/consensus/processes/dagtopologymanager"
	"github.com/calico-network/calicod/domain/consensus/processes/dagtraversalmanager"
	"github.com/calico-network/calicod/domain/consensus/processes/finalitymanager"
	"github.com/calico-network/calicod/domain/consensus/processes/ghostdagmanager"
	"github.com/calico-network/calicod/domain/consensus/processes/headersselectedtipmanager"
	"github.com/calico-network/calicod/domain/consensus/processes/pruningmanager"
	"github.com/calico-network/calicod/domain/consensus/processes/pruningproofmanager"
	"github.com/calico-network/calicod/domain/consensus/processes/syncmanager"
	"github.com/calico-network/calicod/domain/prefixmanager/prefix"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/db/database/ldb"
)

const (
	defaultTestLeveldbCacheSizeMiB = 8

	blockStoreCacheSize       = 200
	ghostdagCacheSizeFactor   = 2
	utxoSetCacheSize          = 10_000
	maxPruningWindowCacheSize = 100_000

	virtualSelectedChainStoreName = "virtual-selected-chain"
	headersSelectedChainStoreName = "headers-selected-chain"
)

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(config *Config, db database.Database, dbPrefix *prefix.Prefix,
		consensusEventsChan chan externalapi.ConsensusEvent) (externalapi.Consensus, error)
	NewTestConsensus(config *Config, testName string) (
		tc testapi.TestConsensus, teardown func(keepDataDir bool), err error)

	SetTestDataDir(dataDir string)
	SetTestPreallocateCaches(preallocateCaches bool)
}

type factory struct {
	dataDir                 string
	preallocateCaches       *bool
	testLeveldbCacheSizeMiB int
}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{
		testLeveldbCacheSizeMiB: defaultTestLeveldbCacheSizeMiB,
	}
}

// NewConsensus instantiates a new Consensus over db, keeping all of its data under dbPrefix
func (f *factory) NewConsensus(config *Config, db database.Database, dbPrefix *prefix.Prefix,
	consensusEventsChan chan externalapi.ConsensusEvent) (externalapi.Consensus, error) {

	consensusInstance, err := f.newConsensus(config, db, dbPrefix, consensusEventsChan)
	if err != nil {
		return nil, err
	}
	return consensusInstance, nil
}

func (f *factory) newConsensus(config *Config, db database.Database, dbPrefix *prefix.Prefix,
	consensusEventsChan chan externalapi.ConsensusEvent) (*consensus, error) {

	err := config.Validate()
	if err != nil {
		return nil, err
	}

	dbManager := consensusdatabase.New(db)
	prefixBucket := database.MakeBucket(dbPrefix.Serialize())

	pruningWindowSize := int(config.PruningDepth)
	if pruningWindowSize > maxPruningWindowCacheSize {
		pruningWindowSize = maxPruningWindowCacheSize
	}
	preallocateCaches := f.preallocateCaches != nil && *f.preallocateCaches
	if !preallocateCaches {
		pruningWindowSize = 0
	}
	blockCacheSize := blockStoreCacheSize + pruningWindowSize
	ghostdagCacheSize := int(config.MergeSetSizeLimit)*ghostdagCacheSizeFactor + pruningWindowSize

	// Data Structures
	blockStatusStore := blockstatusstore.New(prefixBucket, blockCacheSize)
	blockRelationStore := blockrelationstore.New(prefixBucket, ghostdagCacheSize)
	ghostdagDataStore := ghostdagdatastore.New(prefixBucket, ghostdagCacheSize)
	multisetStore := multisetstore.New(prefixBucket, blockCacheSize)
	utxoDiffStore := utxodiffstore.New(prefixBucket, blockCacheSize)
	consensusStateStore := consensusstatestore.New(prefixBucket, utxoSetCacheSize)
	pruningStore := pruningstore.New(prefixBucket, blockCacheSize)
	pruningSampleStore := pruningsamplestore.New(prefixBucket, blockCacheSize)
	finalityStore := finalitystore.New(prefixBucket)
	virtualSelectedChainStore := selectedchainstore.New(prefixBucket, virtualSelectedChainStoreName,
		model.StagingShardIDVirtualSelectedChain, blockCacheSize)
	headersSelectedChainStore := selectedchainstore.New(prefixBucket, headersSelectedChainStoreName,
		model.StagingShardIDHeadersSelectedChain, blockCacheSize)

	blockStore, err := blockstore.New(dbManager, prefixBucket, blockStoreCacheSize)
	if err != nil {
		return nil, err
	}
	blockHeaderStore, err := blockheaderstore.New(dbManager, prefixBucket, blockCacheSize)
	if err != nil {
		return nil, err
	}

	genesisHash := config.GenesisHash

	// Processes
	dagTopologyManager := dagtopologymanager.New(
		dbManager,
		blockRelationStore,
		ghostdagDataStore)
	dagTraversalManager := dagtraversalmanager.New(
		dbManager,
		dagTopologyManager,
		ghostdagDataStore)
	ghostdagManager := ghostdagmanager.New(
		dbManager,
		dagTopologyManager,
		ghostdagDataStore,
		blockHeaderStore,
		config.K)
	blockParentBuilder := blockparentbuilder.New(
		dbManager,
		blockHeaderStore,
		ghostdagDataStore,
		dagTopologyManager,
		config.MaxBlockLevel)
	finalityManager := finalitymanager.New(
		dbManager,
		dagTopologyManager,
		dagTraversalManager,
		finalityStore,
		ghostdagDataStore,
		pruningStore,
		genesisHash,
		config.FinalityDepth)
	consensusStateManager := consensusstatemanager.New(
		dbManager,
		config.MaxBlockParents,
		config.MergeSetSizeLimit,

		ghostdagManager,
		dagTopologyManager,
		dagTraversalManager,
		finalityManager,

		blockStatusStore,
		ghostdagDataStore,
		consensusStateStore,
		multisetStore,
		blockStore,
		blockHeaderStore,
		utxoDiffStore,
		virtualSelectedChainStore,
		pruningStore)
	pruningManager := pruningmanager.New(
		dbManager,

		dagTraversalManager,
		dagTopologyManager,
		consensusStateManager,

		consensusStateStore,
		ghostdagDataStore,
		pruningStore,
		pruningSampleStore,
		blockStatusStore,
		blockStore,
		blockHeaderStore,
		utxoDiffStore,
		multisetStore,

		genesisHash,
		config.FinalityDepth,
		config.PruningDepth)
	blockValidator := blockvalidator.New(
		config.PowMax,
		config.SkipProofOfWork,
		genesisHash,
		config.MaxBlockParents,
		config.MaxBlockLevel,
		config.MergeSetSizeLimit,
		config.MergeDepth,
		config.TimestampDeviationTolerance,
		config.TargetTimePerBlock,
		config.MaxBlockTransactions,
		config.MaxCoinbasePayloadLength,
		config.BaseSubsidy,

		dbManager,

		dagTopologyManager,
		dagTraversalManager,
		blockParentBuilder,
		pruningManager,

		blockStore,
		blockHeaderStore,
		blockStatusStore,
		ghostdagDataStore,
		pruningStore)
	headersSelectedTipManager := headersselectedtipmanager.New(
		dbManager,
		dagTraversalManager,
		ghostdagManager,
		consensusStateStore,
		headersSelectedChainStore)
	syncManager := syncmanager.New(
		dbManager,
		genesisHash,
		dagTraversalManager,
		dagTopologyManager,
		ghostdagManager,

		ghostdagDataStore,
		blockStore,
		pruningStore,
		headersSelectedChainStore)
	pruningProofManager := pruningproofmanager.New(
		dbManager,

		ghostdagDataStore,
		blockHeaderStore,
		pruningStore,

		config.PruningProofM,
		config.MaxBlockLevel,
		config.SkipProofOfWork)
	blockProcessor := blockprocessor.New(
		genesisHash,
		dbManager,

		consensusStateManager,
		pruningManager,
		blockValidator,
		dagTopologyManager,
		ghostdagManager,
		finalityManager,
		headersSelectedTipManager,

		blockStore,
		blockStatusStore,
		blockHeaderStore,
		ghostdagDataStore,
		consensusStateStore,
		pruningStore,
		pruningSampleStore,
		utxoDiffStore,
		multisetStore)
	blockBuilder := blockbuilder.New(
		dbManager,
		config.BaseSubsidy,

		consensusStateManager,
		ghostdagManager,
		dagTopologyManager,
		pruningManager,
		blockParentBuilder,

		ghostdagDataStore,
		blockHeaderStore,
		blockStatusStore,
		pruningStore)

	return &consensus{
		lock:            &sync.Mutex{},
		databaseContext: dbManager,
		genesisBlock:    config.GenesisBlock,
		genesisHash:     genesisHash,

		blockProcessor:        blockProcessor,
		blockBuilder:          blockBuilder,
		consensusStateManager: consensusStateManager,
		dagTopologyManager:    dagTopologyManager,
		dagTraversalManager:   dagTraversalManager,
		ghostdagManager:       ghostdagManager,
		finalityManager:       finalityManager,
		pruningManager:        pruningManager,
		pruningProofManager:   pruningProofManager,
		syncManager:           syncManager,

		blockStore:                blockStore,
		blockHeaderStore:          blockHeaderStore,
		blockStatusStore:          blockStatusStore,
		ghostdagDataStore:         ghostdagDataStore,
		consensusStateStore:       consensusStateStore,
		pruningStore:              pruningStore,
		headersSelectedChainStore: headersSelectedChainStore,

		blockRelationStore:        blockRelationStore,
		multisetStore:             multisetStore,
		utxoDiffStore:             utxoDiffStore,
		pruningSampleStore:        pruningSampleStore,
		finalityStore:             finalityStore,
		virtualSelectedChainStore: virtualSelectedChainStore,
		blockValidator:            blockValidator,
		headersSelectedTipManager: headersSelectedTipManager,

		consensusEventsChan: consensusEventsChan,
	}, nil
}

// NewTestConsensus creates a consensus over a temporary database directory, and
// initializes it with genesis
func (f *factory) NewTestConsensus(config *Config, testName string) (
	tc testapi.TestConsensus, teardown func(keepDataDir bool), err error) {

	datadir := f.dataDir
	if datadir == "" {
		datadir, err = os.MkdirTemp("", testName)
		if err != nil {
			return nil, nil, err
		}
	}
	db, err := ldb.NewLevelDB(datadir, f.testLeveldbCacheSizeMiB)
	if err != nil {
		return nil, nil, err
	}

	testConsensusDBPrefix := &prefix.Prefix{}
	consensusAsInterface, err := f.newConsensus(config, db, testConsensusDBPrefix, nil)
	if err != nil {
		return nil, nil, err
	}

	tstConsensus := &testConsensus{
		consensus: consensusAsInterface,
		dagParams: &config.Params,
		database:  db,
	}

	err = tstConsensus.Init(false)
	if err != nil {
		return nil, nil, err
	}

	teardown = func(keepDataDir bool) {
		db.Close()
		if !keepDataDir {
			err := os.RemoveAll(datadir)
			if err != nil {
				log.Errorf("Error removing data directory for test consensus: %s", err)
			}
		}
	}
	return tstConsensus, teardown, nil
}

func (f *factory) SetTestDataDir(dataDir string) {
	f.dataDir = dataDir
}

func (f *factory) SetTestPreallocateCaches(preallocateCaches bool) {
	f.preallocateCaches = &preallocateCaches
}
