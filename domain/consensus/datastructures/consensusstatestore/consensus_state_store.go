package consensusstatestore

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/lrucache"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

var utxoSetBucketName = []byte("virtual-utxo-set")
var tipsKeyName = []byte("tips")
var headersSelectedTipKeyName = []byte("headers-selected-tip")

// consensusStateStore represents a store for the current consensus state
type consensusStateStore struct {
	virtualUTXOSetCache     *lrucache.OutpointToUTXOEntryCache
	tipsCache               []*externalapi.DomainHash
	headersSelectedTipCache *externalapi.DomainHash

	utxoSetBucket         *database.Bucket
	tipsKey               *database.Key
	headersSelectedTipKey *database.Key
}

// New instantiates a new ConsensusStateStore
func New(prefixBucket *database.Bucket, utxoSetCacheSize int) model.ConsensusStateStore {
	return &consensusStateStore{
		virtualUTXOSetCache:   lrucache.NewOutpointToUTXOEntry(utxoSetCacheSize),
		utxoSetBucket:         prefixBucket.Bucket(utxoSetBucketName),
		tipsKey:               prefixBucket.Key(tipsKeyName),
		headersSelectedTipKey: prefixBucket.Key(headersSelectedTipKeyName),
	}
}

func (css *consensusStateStore) IsStaged(stagingArea *model.StagingArea) bool {
	return css.stagingShard(stagingArea).isStaged()
}
