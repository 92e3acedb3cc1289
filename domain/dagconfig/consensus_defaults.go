package dagconfig

import (
	"time"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// The following are the default consensus parameters. Depths are expressed in blocks
// and scale with the block rate.
const (
	defaultFinalityDuration            = 24 * time.Hour
	defaultMergeDepthDuration          = time.Hour
	defaultMergeSetSizeLimitFactor     = 10
	defaultMaxBlockParents             = 10
	defaultMaxBlockParentsHighBPS      = 16
	defaultPruningProofM               = 1000
	defaultMaxBlockLevel               = 225
	defaultTimestampDeviationTolerance = 132
	defaultBaseSubsidy                 = 100 * 100_000_000
	defaultMaxCoinbasePayloadLength    = 204
	defaultMaxBlockTransactions        = 10_000

	highBPSThreshold = 10
)

// ErrUnsupportedBPS is returned for a block rate that has no K value
var ErrUnsupportedBPS = errors.New("unsupported blocks per second")

// ghostdagKByBPS is the policy table mapping a block rate to the GHOSTDAG K
// parameter. K bounds the anticone size of blue blocks and must grow with the
// number of blocks created within network delay.
var ghostdagKByBPS = map[uint64]externalapi.KType{
	1:  18,
	2:  31,
	3:  43,
	4:  54,
	5:  66,
	6:  77,
	7:  89,
	8:  100,
	9:  112,
	10: 124,
}

// GhostdagK returns the GHOSTDAG K parameter for the given blocks per second
func GhostdagK(bps uint64) (externalapi.KType, error) {
	k, ok := ghostdagKByBPS[bps]
	if !ok {
		return 0, errors.Wrapf(ErrUnsupportedBPS, "no GHOSTDAG K is defined for %d BPS", bps)
	}
	return k, nil
}

func mustGhostdagK(bps uint64) externalapi.KType {
	k, err := GhostdagK(bps)
	if err != nil {
		panic(err)
	}
	return k
}

// consensusParamsForBPS returns the depth parameters derived from a block rate.
// It panics on an unsupported rate since it is only called on hard-coded networks.
func consensusParamsForBPS(bps uint64) (k externalapi.KType, finalityDepth, mergeDepth, mergeSetSizeLimit,
	pruningDepth uint64, maxBlockParents int) {

	k = mustGhostdagK(bps)
	finalityDepth = uint64(defaultFinalityDuration/time.Second) * bps
	mergeDepth = uint64(defaultMergeDepthDuration/time.Second) * bps
	mergeSetSizeLimit = uint64(k) * defaultMergeSetSizeLimitFactor
	pruningDepth = PruningDepth(finalityDepth, mergeSetSizeLimit, k)
	maxBlockParents = defaultMaxBlockParents
	if bps >= highBPSThreshold {
		maxBlockParents = defaultMaxBlockParentsHighBPS
	}
	return k, finalityDepth, mergeDepth, mergeSetSizeLimit, pruningDepth, maxBlockParents
}

// PruningDepth returns the minimal blue score distance between the virtual and the pruning point:
// two finality windows plus enough room for the anticone of the pruning point to be merged.
func PruningDepth(finalityDepth, mergeSetSizeLimit uint64, k externalapi.KType) uint64 {
	return 2*finalityDepth + 4*mergeSetSizeLimit*uint64(k) + 2*uint64(k) + 2
}
