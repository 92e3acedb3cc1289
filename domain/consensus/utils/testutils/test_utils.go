package testutils

import (
	"encoding/binary"

	"github.com/calico-network/calicod/domain/consensus"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/dagconfig"
)

// SimnetConfig returns a consensus config for simnet, where proof of work is not checked
func SimnetConfig() *consensus.Config {
	return consensus.NewConfig(&dagconfig.SimnetParams)
}

// SmallDepthsSimnetConfig returns a simnet consensus config whose K and depths are
// small enough for tests to cross finality and pruning within a few dozen blocks
func SmallDepthsSimnetConfig(finalityDepth, pruningDepth uint64) *consensus.Config {
	config := SimnetConfig()
	config.K = 3
	config.MergeSetSizeLimit = 30
	config.MergeDepth = finalityDepth
	config.FinalityDepth = finalityDepth
	config.PruningDepth = pruningDepth
	config.PruningProofM = 5
	return config
}

// CoinbaseData returns coinbase data whose extra data encodes id, so that sibling
// blocks built over the same parents never collide
func CoinbaseData(id uint64) *externalapi.DomainCoinbaseData {
	extraData := make([]byte, 8)
	binary.LittleEndian.PutUint64(extraData, id)
	return &externalapi.DomainCoinbaseData{
		ScriptPublicKey: &externalapi.ScriptPublicKey{Script: []byte{}, Version: 0},
		ExtraData:       extraData,
	}
}
